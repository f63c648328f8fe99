// Package ledger is the weekly budget ledger: the authoritative in-memory
// collection of budgets and expenses, the accounting projections over it,
// and the coordinator that keeps budget-scoped views in step with it.
//
// Every mutating operation runs under a single lock. It applies the change
// to memory, then writes it through the persistence port, then releases the
// lock. Events for the operation are dispatched after that, in operation
// order, and before any later operation can dispatch its own.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"weekum/internal/core"
	"weekum/internal/events"
	"weekum/internal/log"
	"weekum/internal/storage"
)

type Store struct {
	mu     sync.RWMutex
	emitMu sync.Mutex

	repo     storage.Repository
	notifier events.Notifier
	session  *Session
	logger   *log.Logger
	now      func() time.Time
	newID    func() uuid.UUID

	budgets  []core.Budget
	expenses []core.Expense
}

type Option func(*Store)

// WithNotifier sets where events go. Defaults to events.Discard.
func WithNotifier(n events.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithSession(session *Session) Option {
	return func(s *Store) {
		if session != nil {
			s.session = session
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New returns an empty store writing through repo. Use Open to start from
// what repo already holds.
func New(repo storage.Repository, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		notifier: events.Discard,
		session:  NewSession(),
		logger:   log.Discard(),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store and loads budgets, expenses and the selection from repo.
// Expenses pointing at unknown budgets are skipped. A stored selection that
// no longer matches a budget is cleared and the cleared state saved.
func Open(ctx context.Context, repo storage.Repository, opts ...Option) (*Store, error) {
	s := New(repo, opts...)

	var (
		budgets   []core.Budget
		expenses  []core.Expense
		selection uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		budgets, err = repo.ListBudgets(gctx)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = repo.ListExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		selection, err = repo.LoadSelection(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &core.PersistenceError{Op: log.OpLoad, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets = budgets
	for _, e := range expenses {
		if s.indexBudget(e.BudgetID) < 0 {
			s.logger.WarnContext(ctx, "Skipping expense of unknown budget",
				log.NewFields().WithOperation(log.OpLoad).WithExpense(e.ID.String(), e.BudgetID.String(), e.Amount.String()).ToSlice()...)
			continue
		}
		s.expenses = append(s.expenses, e)
	}

	if selection != uuid.Nil && s.indexBudget(selection) < 0 {
		s.logger.WarnContext(ctx, "Clearing selection of missing budget",
			log.FieldOperation, log.OpLoad,
			log.FieldBudgetID, selection)
		selection = uuid.Nil
		if err := repo.SaveSelection(ctx, uuid.Nil); err != nil {
			return nil, &core.PersistenceError{Op: log.OpLoad, Err: err}
		}
	}
	s.session.set(selection)

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldOperation, log.OpLoad,
		"budgets", len(s.budgets),
		"expenses", len(s.expenses))
	return s, nil
}

// change collects the events and persistence failures of one operation.
type change struct {
	at     time.Time
	events []events.Event
	errs   []error
}

func (c *change) emit(t events.Type, id uuid.UUID, b *core.Budget, e *core.Expense) {
	c.events = append(c.events, events.Event{Type: t, ID: id, Budget: b, Expense: e, At: c.at})
}

func (c *change) persist(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// mutate runs fn under the write lock. fn must reject bad input before it
// touches any state; once it mutates it records persistence failures on the
// change instead of returning them, so memory is never rolled back.
func (s *Store) mutate(ctx context.Context, op string, fn func(c *change) error) error {
	s.mu.Lock()
	c := &change{at: s.now()}
	if err := fn(c); err != nil {
		s.mu.Unlock()
		s.logFailure(ctx, op, err)
		return err
	}
	s.emitMu.Lock()
	s.mu.Unlock()
	for _, ev := range c.events {
		s.notifier.Notify(ctx, ev)
	}
	s.emitMu.Unlock()

	if len(c.errs) > 0 {
		err := &core.PersistenceError{Op: op, Err: errors.Join(c.errs...)}
		s.logFailure(ctx, op, err)
		return err
	}
	return nil
}

func (s *Store) logFailure(ctx context.Context, op string, err error) {
	fields := log.NewFields().WithOperation(op).WithError(err)
	switch {
	case core.IsValidation(err):
		s.logger.DebugContext(ctx, "Ledger operation rejected", fields.WithErrorType(log.ErrorTypeValidation).ToSlice()...)
	case core.IsNotFound(err):
		s.logger.DebugContext(ctx, "Ledger operation rejected", fields.WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
	default:
		s.logger.ErrorContext(ctx, "Ledger write failed", fields.WithErrorType(log.ErrorTypePersistence).ToSlice()...)
	}
}

func (s *Store) CreateBudget(ctx context.Context, name string, allowance decimal.Decimal) (core.Budget, error) {
	var created core.Budget
	err := s.mutate(ctx, log.OpCreateBudget, func(c *change) error {
		b, err := s.addBudget(ctx, c, name, allowance)
		created = b
		return err
	})
	return created, err
}

func (s *Store) addBudget(ctx context.Context, c *change, name string, allowance decimal.Decimal) (core.Budget, error) {
	b := core.Budget{
		ID:              s.newID(),
		Name:            strings.TrimSpace(name),
		Allowance:       allowance,
		CumulativeTotal: allowance,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.budgets = append(s.budgets, b)
	c.persist(s.repo.SaveBudget(ctx, b))
	c.emit(events.BudgetCreated, b.ID, &b, nil)

	s.logger.InfoContext(ctx, "Budget created",
		log.NewFields().WithOperation(log.OpCreateBudget).WithBudget(b.ID.String(), b.Name, b.Allowance.String(), b.CumulativeTotal.String()).ToSlice()...)
	return b, nil
}

// DeleteBudget removes a budget and all of its expenses. If it was the
// current selection, the selection is cleared in the same operation.
func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, log.OpDeleteBudget, func(c *change) error {
		i := s.indexBudget(id)
		if i < 0 {
			return budgetNotFound(id)
		}
		b := s.budgets[i]

		removed := s.dropExpenses(func(e core.Expense) bool { return e.BudgetID == id })
		for _, e := range removed {
			c.persist(s.repo.DeleteExpense(ctx, e.ID))
			c.emit(events.ExpenseDeleted, e.ID, nil, &e)
		}
		s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
		c.persist(s.repo.DeleteBudget(ctx, id))
		c.emit(events.BudgetDeleted, id, nil, nil)

		if cur, ok := s.session.Current(); ok && cur == id {
			s.setSelection(ctx, c, uuid.Nil)
		}

		s.logger.InfoContext(ctx, "Budget deleted",
			log.FieldOperation, log.OpDeleteBudget,
			log.FieldBudgetID, id,
			log.FieldBudgetName, b.Name,
			log.FieldCount, len(removed))
		return nil
	})
}

// CreateExpense records a spend against a budget. The amount is rounded up
// to a whole unit and the budget's total drops by the rounded amount. A zero
// date means now.
func (s *Store) CreateExpense(ctx context.Context, budgetID uuid.UUID, amount decimal.Decimal, date time.Time) (core.Expense, error) {
	var created core.Expense
	err := s.mutate(ctx, log.OpCreateExpense, func(c *change) error {
		i := s.indexBudget(budgetID)
		if i < 0 {
			return budgetNotFound(budgetID)
		}
		rounded, err := core.ExpenseAmount(amount)
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = c.at
		}

		e := core.Expense{ID: s.newID(), BudgetID: budgetID, Amount: rounded, Date: date}
		s.expenses = append(s.expenses, e)
		s.budgets[i].CumulativeTotal = s.budgets[i].CumulativeTotal.Sub(rounded)
		b := s.budgets[i]

		c.persist(s.repo.SaveExpense(ctx, e))
		c.persist(s.repo.SaveBudget(ctx, b))
		c.emit(events.ExpenseCreated, e.ID, nil, &e)
		c.emit(events.BudgetUpdated, b.ID, &b, nil)

		s.logger.InfoContext(ctx, "Expense recorded",
			log.NewFields().WithOperation(log.OpCreateExpense).
				WithExpense(e.ID.String(), b.ID.String(), e.Amount.String()).
				WithBudget(b.ID.String(), b.Name, b.Allowance.String(), b.CumulativeTotal.String()).ToSlice()...)
		created = e
		return nil
	})
	return created, err
}

// RecordExpense parses raw user input (dot or comma decimals) and records it.
func (s *Store) RecordExpense(ctx context.Context, budgetID uuid.UUID, raw string, date time.Time) (core.Expense, error) {
	amount, err := core.ParseDecimal("amount", raw)
	if err != nil {
		s.logFailure(ctx, log.OpCreateExpense, err)
		return core.Expense{}, err
	}
	return s.CreateExpense(ctx, budgetID, amount, date)
}

// RemoveExpense deletes one expense and credits its amount back to the budget.
func (s *Store) RemoveExpense(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, log.OpRemoveExpense, func(c *change) error {
		j := s.indexExpense(id)
		if j < 0 {
			return &core.NotFoundError{Kind: "expense", ID: id.String()}
		}
		e := s.expenses[j]
		i := s.indexBudget(e.BudgetID)
		if i < 0 {
			return budgetNotFound(e.BudgetID)
		}

		s.budgets[i].CumulativeTotal = s.budgets[i].CumulativeTotal.Add(e.Amount)
		s.expenses = append(s.expenses[:j], s.expenses[j+1:]...)
		b := s.budgets[i]

		c.persist(s.repo.SaveBudget(ctx, b))
		c.persist(s.repo.DeleteExpense(ctx, id))
		c.emit(events.ExpenseDeleted, id, nil, &e)
		c.emit(events.BudgetUpdated, b.ID, &b, nil)

		s.logger.InfoContext(ctx, "Expense removed",
			log.NewFields().WithOperation(log.OpRemoveExpense).
				WithExpense(id.String(), b.ID.String(), e.Amount.String()).
				WithBudget(b.ID.String(), b.Name, b.Allowance.String(), b.CumulativeTotal.String()).ToSlice()...)
		return nil
	})
}

// ResetBudget deletes every expense of the budget and restarts it at
// allowance, which must be a whole non-negative number.
func (s *Store) ResetBudget(ctx context.Context, budgetID uuid.UUID, allowance decimal.Decimal) error {
	return s.mutate(ctx, log.OpResetBudget, func(c *change) error {
		i := s.indexBudget(budgetID)
		if i < 0 {
			return budgetNotFound(budgetID)
		}
		if err := core.ValidateResetAllowance(allowance); err != nil {
			return err
		}

		removed := s.dropExpenses(func(e core.Expense) bool { return e.BudgetID == budgetID })
		for _, e := range removed {
			c.persist(s.repo.DeleteExpense(ctx, e.ID))
			c.emit(events.ExpenseDeleted, e.ID, nil, &e)
		}
		s.budgets[i].Allowance = allowance
		s.budgets[i].CumulativeTotal = allowance
		b := s.budgets[i]
		c.persist(s.repo.SaveBudget(ctx, b))
		c.emit(events.BudgetUpdated, b.ID, &b, nil)

		s.logger.InfoContext(ctx, "Budget reset",
			log.NewFields().WithOperation(log.OpResetBudget).
				WithBudget(b.ID.String(), b.Name, b.Allowance.String(), b.CumulativeTotal.String()).ToSlice()...)
		return nil
	})
}

// RenewAll credits every budget with its allowance. Expenses are kept.
func (s *Store) RenewAll(ctx context.Context) error {
	return s.mutate(ctx, log.OpRenewAll, func(c *change) error {
		s.renewAll(ctx, c)
		return nil
	})
}

func (s *Store) renewAll(ctx context.Context, c *change) {
	for i := range s.budgets {
		s.budgets[i].CumulativeTotal = s.budgets[i].CumulativeTotal.Add(s.budgets[i].Allowance)
		b := s.budgets[i]
		c.persist(s.repo.SaveBudget(ctx, b))
		c.emit(events.BudgetUpdated, b.ID, &b, nil)
	}
	s.logger.InfoContext(ctx, "Budgets renewed",
		log.FieldOperation, log.OpRenewAll,
		log.FieldCount, len(s.budgets))
}

// ClearAllExpenses deletes every expense of every budget. Budget totals are
// left alone: the money stays spent, only the rows go.
func (s *Store) ClearAllExpenses(ctx context.Context) error {
	return s.mutate(ctx, log.OpClearExpenses, func(c *change) error {
		s.clearExpenses(ctx, c)
		return nil
	})
}

func (s *Store) clearExpenses(ctx context.Context, c *change) {
	removed := s.dropExpenses(func(core.Expense) bool { return true })
	for _, e := range removed {
		c.persist(s.repo.DeleteExpense(ctx, e.ID))
		c.emit(events.ExpenseDeleted, e.ID, nil, &e)
	}
	s.logger.InfoContext(ctx, "Expenses cleared",
		log.FieldOperation, log.OpClearExpenses,
		log.FieldCount, len(removed))
}

// RestartWeek clears all expenses and then renews all budgets, as one
// operation.
func (s *Store) RestartWeek(ctx context.Context) error {
	return s.mutate(ctx, log.OpRenewAll, func(c *change) error {
		s.clearExpenses(ctx, c)
		s.renewAll(ctx, c)
		return nil
	})
}

// Purge wipes every budget and expense and clears the selection.
func (s *Store) Purge(ctx context.Context) error {
	return s.mutate(ctx, log.OpPurge, func(c *change) error {
		s.clearExpenses(ctx, c)
		for _, b := range s.budgets {
			c.persist(s.repo.DeleteBudget(ctx, b.ID))
			c.emit(events.BudgetDeleted, b.ID, nil, nil)
		}
		count := len(s.budgets)
		s.budgets = nil
		s.setSelection(ctx, c, uuid.Nil)

		s.logger.WarnContext(ctx, "Ledger purged",
			log.FieldOperation, log.OpPurge,
			log.FieldCount, count)
		return nil
	})
}

// EnsureBudget creates and selects a budget when the ledger has none. It
// reports whether it created one.
func (s *Store) EnsureBudget(ctx context.Context, name string, allowance decimal.Decimal) (core.Budget, bool, error) {
	var (
		created core.Budget
		made    bool
	)
	err := s.mutate(ctx, log.OpCreateBudget, func(c *change) error {
		if len(s.budgets) > 0 {
			return nil
		}
		b, err := s.addBudget(ctx, c, name, allowance)
		if err != nil {
			return err
		}
		s.setSelection(ctx, c, b.ID)
		created, made = b, true
		return nil
	})
	return created, made, err
}

func (s *Store) SelectBudget(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, log.OpSelect, func(c *change) error {
		if s.indexBudget(id) < 0 {
			return budgetNotFound(id)
		}
		s.setSelection(ctx, c, id)
		return nil
	})
}

func (s *Store) ClearSelection(ctx context.Context) error {
	return s.mutate(ctx, log.OpSelect, func(c *change) error {
		s.setSelection(ctx, c, uuid.Nil)
		return nil
	})
}

func (s *Store) setSelection(ctx context.Context, c *change, id uuid.UUID) {
	if !s.session.set(id) {
		return
	}
	c.persist(s.repo.SaveSelection(ctx, id))
	c.emit(events.SelectionChanged, id, nil, nil)
	s.logger.DebugContext(ctx, "Selection changed",
		log.FieldOperation, log.OpSelect,
		log.FieldBudgetID, id)
}

// Selection returns the current budget id and whether one is selected.
func (s *Store) Selection() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Current()
}

func (s *Store) CurrentBudget() (core.Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.session.Current()
	if !ok {
		return core.Budget{}, false
	}
	i := s.indexBudget(id)
	if i < 0 {
		return core.Budget{}, false
	}
	return s.budgets[i], true
}

// Budgets returns a copy of all budgets in creation order.
func (s *Store) Budgets() []core.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Budget(nil), s.budgets...)
}

func (s *Store) Budget(id uuid.UUID) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexBudget(id)
	if i < 0 {
		return core.Budget{}, budgetNotFound(id)
	}
	return s.budgets[i], nil
}

func (s *Store) Expense(id uuid.UUID) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j := s.indexExpense(id)
	if j < 0 {
		return core.Expense{}, &core.NotFoundError{Kind: "expense", ID: id.String()}
	}
	return s.expenses[j], nil
}

// ListExpensesForBudget returns the budget's expenses in insertion order.
// An unknown budget has no expenses.
func (s *Store) ListExpensesForBudget(budgetID uuid.UUID) []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.BudgetID == budgetID {
			out = append(out, e)
		}
	}
	return out
}

// budgetWithExpenses reads a budget and its expenses under one lock.
func (s *Store) budgetWithExpenses(id uuid.UUID) (core.Budget, []core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexBudget(id)
	if i < 0 {
		return core.Budget{}, nil, false
	}
	var out []core.Expense
	for _, e := range s.expenses {
		if e.BudgetID == id {
			out = append(out, e)
		}
	}
	return s.budgets[i], out, true
}

func (s *Store) indexBudget(id uuid.UUID) int {
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexExpense(id uuid.UUID) int {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// dropExpenses removes matching expenses, keeping the order of the rest,
// and returns what it removed.
func (s *Store) dropExpenses(match func(core.Expense) bool) []core.Expense {
	var removed []core.Expense
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if match(e) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	return removed
}

func budgetNotFound(id uuid.UUID) error {
	return &core.NotFoundError{Kind: "budget", ID: id.String()}
}
