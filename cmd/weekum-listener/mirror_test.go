package main

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekum/internal/amqp"
	"weekum/internal/events"
	"weekum/internal/ledger"
	"weekum/internal/log"
	"weekum/internal/storage/memory"
)

// wire sends every ledger event through the JSON wire form into the mirror.
func wire(t *testing.T, m *mirror) events.Notifier {
	return events.NotifierFunc(func(_ context.Context, ev events.Event) {
		body, err := amqp.NewEventMessage(ev).ToJSON()
		require.NoError(t, err)
		msg, err := amqp.EventMessageFromJSON(body)
		require.NoError(t, err)
		require.NoError(t, m.Handle(msg))
	})
}

func TestMirrorFollowsLedger(t *testing.T) {
	ctx := context.Background()
	m := newMirror(log.Discard())
	store := ledger.New(memory.New(), ledger.WithNotifier(wire(t, m)))

	a, err := store.CreateBudget(ctx, "Personal", decimal.NewFromInt(20))
	require.NoError(t, err)
	b, err := store.CreateBudget(ctx, "Food", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, store.SelectBudget(ctx, a.ID))

	e, err := store.CreateExpense(ctx, a.ID, decimal.RequireFromString("9.2"), time.Now())
	require.NoError(t, err)
	_, err = store.CreateExpense(ctx, b.ID, decimal.NewFromInt(4), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.RemoveExpense(ctx, e.ID))
	require.NoError(t, store.RenewAll(ctx))

	for _, want := range store.Budgets() {
		got, ok := m.Total(want.ID)
		require.True(t, ok)
		assert.True(t, want.CumulativeTotal.Equal(got), "%s: mirror %s, ledger %s", want.Name, got, want.CumulativeTotal)
	}
	assert.Equal(t, a.ID, m.selected)

	require.NoError(t, store.DeleteBudget(ctx, b.ID))
	_, ok := m.Total(b.ID)
	assert.False(t, ok)
	assert.True(t, m.grandTotal().Equal(decimal.NewFromInt(40)))
}

func TestMirrorDropsBadMessages(t *testing.T) {
	m := newMirror(log.Discard())

	assert.NoError(t, m.Handle(&amqp.EventMessage{Type: events.BudgetCreated}))
	assert.NoError(t, m.Handle(&amqp.EventMessage{Type: "budget.renamed"}))
	assert.Equal(t, 2, m.Seen())
	assert.True(t, m.grandTotal().IsZero())
}
