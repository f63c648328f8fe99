package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// Budget is a named weekly allowance with its running balance.
	// CumulativeTotal is signed and never clamped at zero.
	Budget struct {
		ID              uuid.UUID       `json:"id"`
		Name            string          `json:"name"`
		Allowance       decimal.Decimal `json:"allowance"`
		CumulativeTotal decimal.Decimal `json:"cumulative_total"`
	}

	// Expense is a single spend attributed to exactly one budget.
	Expense struct {
		ID       uuid.UUID       `json:"id"`
		BudgetID uuid.UUID       `json:"budget_id"`
		Amount   decimal.Decimal `json:"amount"`
		Date     time.Time       `json:"date"`
	}
)

// Weekday returns the short day name used to group expenses for display.
func (e Expense) Weekday() string {
	return e.Date.Format("Mon")
}

// DisplayName returns the budget name, falling back to a short form of its id.
func (b Budget) DisplayName() string {
	if name := strings.TrimSpace(b.Name); name != "" {
		return name
	}
	return b.ID.String()[:8]
}

func (b Budget) Validate() error {
	if b.ID == uuid.Nil {
		return &ValidationError{Field: "budget id", Err: ErrMissingID}
	}
	if len(b.Name) > 100 {
		return &ValidationError{Field: "name", Value: b.Name, Err: ErrNameTooLong}
	}
	return ValidateAllowance(b.Allowance)
}

func (e Expense) Validate() error {
	if e.ID == uuid.Nil {
		return &ValidationError{Field: "expense id", Err: ErrMissingID}
	}
	if e.BudgetID == uuid.Nil {
		return &ValidationError{Field: "budget id", Err: ErrMissingID}
	}
	if e.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if !e.Amount.IsPositive() || !e.Amount.IsInteger() {
		return &ValidationError{Field: "amount", Value: e.Amount.String(), Err: ErrInvalidAmount}
	}
	return nil
}
