package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
	"weekum/internal/events"
)

// Snapshot is a budget-scoped view of the ledger at one instant.
type Snapshot struct {
	Budget  core.Budget     `json:"budget"`
	Rows    []Row           `json:"rows"`
	Spent   decimal.Decimal `json:"spent"`
	Deleted bool            `json:"deleted,omitempty"`
}

// Coordinator routes ledger events to budget views. Views never keep their
// own copy of expenses; every snapshot is filtered from the store.
type Coordinator struct {
	store *Store

	mu          sync.Mutex
	views       map[uuid.UUID][]*BudgetView
	unsubscribe func()
}

// NewCoordinator subscribes to bus, which must be the store's notifier.
func NewCoordinator(store *Store, bus *events.Bus) *Coordinator {
	c := &Coordinator{
		store: store,
		views: make(map[uuid.UUID][]*BudgetView),
	}
	c.unsubscribe = bus.Subscribe(c)
	return c
}

// Watch opens a view of one budget. onChange, if set, receives a fresh
// snapshot after every operation that touches the budget.
func (c *Coordinator) Watch(budgetID uuid.UUID, onChange func(Snapshot)) *BudgetView {
	v := &BudgetView{coord: c, budgetID: budgetID, onChange: onChange}
	c.mu.Lock()
	c.views[budgetID] = append(c.views[budgetID], v)
	c.mu.Unlock()
	return v
}

// Notify implements events.Notifier.
func (c *Coordinator) Notify(_ context.Context, ev events.Event) {
	id := ev.BudgetID()
	if id == uuid.Nil {
		return
	}

	c.mu.Lock()
	views := append([]*BudgetView(nil), c.views[id]...)
	if ev.Type == events.BudgetDeleted {
		delete(c.views, id)
	}
	c.mu.Unlock()

	if len(views) == 0 {
		return
	}
	snap := c.Snapshot(id)
	for _, v := range views {
		v.deliver(snap)
	}
}

// Views returns the number of open views.
func (c *Coordinator) Views() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, vs := range c.views {
		n += len(vs)
	}
	return n
}

// Close detaches the coordinator from the bus.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Snapshot computes the current view of one budget. An unknown id gives a
// snapshot flagged Deleted.
func (c *Coordinator) Snapshot(id uuid.UUID) Snapshot {
	b, expenses, ok := c.store.budgetWithExpenses(id)
	if !ok {
		return Snapshot{Budget: core.Budget{ID: id}, Rows: []Row{}, Spent: decimal.Zero, Deleted: true}
	}
	return Snapshot{Budget: b, Rows: RunningBalance(b, expenses), Spent: Spent(expenses)}
}

func (c *Coordinator) remove(v *BudgetView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs := c.views[v.budgetID]
	for i := range vs {
		if vs[i] == v {
			c.views[v.budgetID] = append(vs[:i:i], vs[i+1:]...)
			break
		}
	}
	if len(c.views[v.budgetID]) == 0 {
		delete(c.views, v.budgetID)
	}
}

type BudgetView struct {
	coord    *Coordinator
	budgetID uuid.UUID
	onChange func(Snapshot)

	mu     sync.Mutex
	closed bool
}

func (v *BudgetView) BudgetID() uuid.UUID { return v.budgetID }

// Snapshot recomputes the view from the store.
func (v *BudgetView) Snapshot() Snapshot {
	return v.coord.Snapshot(v.budgetID)
}

// Close stops change delivery.
func (v *BudgetView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()
	v.coord.remove(v)
}

func (v *BudgetView) deliver(snap Snapshot) {
	v.mu.Lock()
	closed := v.closed
	if snap.Deleted {
		v.closed = true
	}
	v.mu.Unlock()
	if closed || v.onChange == nil {
		return
	}
	v.onChange(snap)
}
