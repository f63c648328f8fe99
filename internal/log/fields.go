package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldBudgetID   = "budget_id"
	FieldBudgetName = "budget_name"
	FieldExpenseID  = "expense_id"
	FieldAmount     = "amount"
	FieldAllowance  = "allowance"
	FieldTotal      = "cumulative_total"
	FieldCount      = "count"
	FieldEvent      = "event"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentHTTP    = "http"
	ComponentCLI     = "cli"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpCreateBudget  = "create_budget"
	OpDeleteBudget  = "delete_budget"
	OpCreateExpense = "create_expense"
	OpRemoveExpense = "remove_expense"
	OpResetBudget   = "reset_budget"
	OpRenewAll      = "renew_all"
	OpClearExpenses = "clear_expenses"
	OpPurge         = "purge"
	OpSelect        = "select_budget"
	OpLoad          = "load"
	OpPublish       = "publish"
	OpConsume       = "consume"
	OpStartup       = "startup"
	OpShutdown      = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found_error"
	ErrorTypePersistence = "persistence_error"
	ErrorTypeNetwork     = "network_error"
	ErrorTypeInternal    = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBudget adds budget-related fields
func (f LogFields) WithBudget(id, name, allowance, total string) LogFields {
	f[FieldBudgetID] = id
	f[FieldBudgetName] = name
	f[FieldAllowance] = allowance
	f[FieldTotal] = total
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(id, budgetID, amount string) LogFields {
	f[FieldExpenseID] = id
	f[FieldBudgetID] = budgetID
	f[FieldAmount] = amount
	return f
}

// WithHTTP adds request/response fields
func (f LogFields) WithHTTP(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
