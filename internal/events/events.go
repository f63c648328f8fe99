// Package events defines the notifications the ledger emits after each
// committed operation and an in-process bus to fan them out.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"weekum/internal/core"
)

type Type string

const (
	BudgetCreated    Type = "budget.created"
	BudgetUpdated    Type = "budget.updated"
	BudgetDeleted    Type = "budget.deleted"
	ExpenseCreated   Type = "expense.created"
	ExpenseDeleted   Type = "expense.deleted"
	SelectionChanged Type = "selection.changed"
)

// Types lists every event type in a stable order.
func Types() []Type {
	return []Type{BudgetCreated, BudgetUpdated, BudgetDeleted, ExpenseCreated, ExpenseDeleted, SelectionChanged}
}

func (t Type) String() string { return string(t) }

// Event carries the affected entity id and, where relevant, a snapshot of
// the record after the change. For SelectionChanged, ID is the new selection
// (uuid.Nil when cleared).
type Event struct {
	Type    Type          `json:"type"`
	ID      uuid.UUID     `json:"id"`
	Budget  *core.Budget  `json:"budget,omitempty"`
	Expense *core.Expense `json:"expense,omitempty"`
	At      time.Time     `json:"at"`
}

// BudgetID returns the budget an event concerns, if any.
func (e Event) BudgetID() uuid.UUID {
	switch {
	case e.Expense != nil:
		return e.Expense.BudgetID
	case e.Budget != nil:
		return e.Budget.ID
	case e.Type == BudgetDeleted:
		return e.ID
	}
	return uuid.Nil
}

// Notifier consumes ledger events. Implementations must not call mutating
// ledger operations synchronously from Notify.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(context.Context, Event) {})

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	n  Notifier
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers n and returns a function that removes it.
func (b *Bus) Subscribe(n Notifier) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, n: n})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Notify(ctx context.Context, ev Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.n.Notify(ctx, ev)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
