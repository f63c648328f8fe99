package main

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/amqp"
	"weekum/internal/core"
	"weekum/internal/events"
	"weekum/internal/log"
)

// mirror rebuilds budget balances from the event stream alone.
type mirror struct {
	logger *log.Logger

	mu       sync.Mutex
	budgets  map[uuid.UUID]core.Budget
	selected uuid.UUID
	seen     int
}

func newMirror(logger *log.Logger) *mirror {
	return &mirror{logger: logger, budgets: make(map[uuid.UUID]core.Budget)}
}

// Handle applies one message. It never asks for a redelivery: a message
// that cannot be applied is logged and dropped.
func (m *mirror) Handle(msg *amqp.EventMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen++

	switch msg.Type {
	case events.BudgetCreated, events.BudgetUpdated:
		if msg.Budget == nil {
			m.logger.Warn("Budget event without budget", log.FieldEvent, msg.Type, "id", msg.ID)
			return nil
		}
		m.budgets[msg.Budget.ID] = *msg.Budget
	case events.BudgetDeleted:
		delete(m.budgets, msg.BudgetID)
	case events.SelectionChanged:
		m.selected = msg.ID
	case events.ExpenseCreated, events.ExpenseDeleted:
		// The budget.updated that follows carries the new total.
	default:
		m.logger.Warn("Unknown ledger event", log.FieldEvent, msg.Type, "id", msg.ID)
		return nil
	}

	args := []any{
		log.FieldEvent, msg.Type,
		log.FieldBudgetID, msg.BudgetID,
		"grand_total", m.grandTotal().String(),
	}
	if b, ok := m.budgets[msg.BudgetID]; ok {
		args = append(args, log.FieldBudgetName, b.Name, log.FieldTotal, b.CumulativeTotal.String())
	}
	if msg.Expense != nil {
		args = append(args, log.FieldExpenseID, msg.Expense.ID, log.FieldAmount, msg.Expense.Amount.String())
	}
	m.logger.Info("Ledger event", args...)
	return nil
}

func (m *mirror) grandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range m.budgets {
		total = total.Add(b.CumulativeTotal)
	}
	return total
}

// Total returns the mirrored balance of one budget.
func (m *mirror) Total(id uuid.UUID) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	return b.CumulativeTotal, ok
}

func (m *mirror) Seen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen
}
