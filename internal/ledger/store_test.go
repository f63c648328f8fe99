package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"weekum/internal/core"
	"weekum/internal/events"
	"weekum/internal/storage"
	"weekum/internal/storage/memory"
)

var monday = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Notify(_ context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) (*Store, *memory.Store, *recorder) {
	t.Helper()
	repo := memory.New()
	rec := &recorder{}
	s := New(repo, WithNotifier(rec), WithClock(func() time.Time { return monday }))
	return s, repo, rec
}

func assertTotal(t *testing.T, s *Store, id uuid.UUID, want string) {
	t.Helper()
	b, err := s.Budget(id)
	require.NoError(t, err)
	assert.True(t, b.CumulativeTotal.Equal(dec(want)), "cumulative total = %s, want %s", b.CumulativeTotal, want)
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()
	s, repo, rec := newTestStore(t)

	b, err := s.CreateBudget(ctx, "  Groceries ", dec("60.5"))
	require.NoError(t, err)
	assert.Equal(t, "Groceries", b.Name)
	assert.True(t, b.CumulativeTotal.Equal(dec("60.5")))
	assert.NotEqual(t, uuid.Nil, b.ID)

	stored, _ := repo.ListBudgets(ctx)
	require.Len(t, stored, 1)
	assert.Equal(t, b.ID, stored[0].ID)
	assert.Equal(t, []events.Type{events.BudgetCreated}, rec.types())
}

func TestCreateBudgetRejectsNegativeAllowance(t *testing.T) {
	s, _, rec := newTestStore(t)

	_, err := s.CreateBudget(context.Background(), "Fun", dec("-1"))
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrInvalidAllowance)
	assert.Empty(t, s.Budgets())
	assert.Empty(t, rec.types())
}

func TestCreateExpenseRoundsUp(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))

	e, err := s.CreateExpense(ctx, b.ID, dec("9.2"), time.Time{})
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("10")))
	assert.Equal(t, monday, e.Date)
	assertTotal(t, s, b.ID, "10")

	stored, _ := repo.ListBudgets(ctx)
	assert.True(t, stored[0].CumulativeTotal.Equal(dec("10")))
}

func TestCreateExpenseInvalidLeavesTotals(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	rec.reset()

	tests := []struct {
		name string
		run  func() error
	}{
		{"negative", func() error { _, err := s.CreateExpense(ctx, b.ID, dec("-5"), monday); return err }},
		{"zero", func() error { _, err := s.CreateExpense(ctx, b.ID, decimal.Zero, monday); return err }},
		{"text", func() error { _, err := s.RecordExpense(ctx, b.ID, "abc", monday); return err }},
		{"empty", func() error { _, err := s.RecordExpense(ctx, b.ID, "", monday); return err }},
		{"negative text", func() error { _, err := s.RecordExpense(ctx, b.ID, "-5", monday); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
			assertTotal(t, s, b.ID, "20")
			assert.Empty(t, s.ListExpensesForBudget(b.ID))
		})
	}
	assert.Empty(t, rec.types())
}

func TestRecordExpenseAcceptsComma(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))

	e, err := s.RecordExpense(ctx, b.ID, "3,5", monday)
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("4")))
	assertTotal(t, s, b.ID, "16")
}

func TestCreateExpenseUnknownBudget(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.CreateExpense(context.Background(), uuid.New(), dec("5"), monday)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestTotalsFollowExpenses(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))

	check := func() {
		t.Helper()
		got, err := s.Budget(b.ID)
		require.NoError(t, err)
		want := got.Allowance.Sub(Spent(s.ListExpensesForBudget(b.ID)))
		assert.True(t, got.CumulativeTotal.Equal(want), "total %s, want %s", got.CumulativeTotal, want)
	}

	var ids []uuid.UUID
	for _, amount := range []string{"3", "7.1", "12", "0.01"} {
		e, err := s.CreateExpense(ctx, b.ID, dec(amount), monday)
		require.NoError(t, err)
		ids = append(ids, e.ID)
		check()
	}
	assertTotal(t, s, b.ID, "-4")

	for _, id := range []uuid.UUID{ids[1], ids[3], ids[0]} {
		require.NoError(t, s.RemoveExpense(ctx, id))
		check()
	}
	assertTotal(t, s, b.ID, "8")
}

func TestRemoveExpense(t *testing.T) {
	ctx := context.Background()
	s, repo, rec := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	e, _ := s.CreateExpense(ctx, b.ID, dec("5"), monday)
	rec.reset()

	require.NoError(t, s.RemoveExpense(ctx, e.ID))
	assertTotal(t, s, b.ID, "20")
	stored, _ := repo.ListExpenses(ctx)
	assert.Empty(t, stored)
	assert.Equal(t, []events.Type{events.ExpenseDeleted, events.BudgetUpdated}, rec.types())

	err := s.RemoveExpense(ctx, e.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestResetBudget(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	other, _ := s.CreateBudget(ctx, "Food", dec("30"))
	for _, a := range []string{"4", "8", "30"} {
		_, err := s.CreateExpense(ctx, b.ID, dec(a), monday)
		require.NoError(t, err)
	}
	kept, _ := s.CreateExpense(ctx, other.ID, dec("2"), monday)

	require.NoError(t, s.ResetBudget(ctx, b.ID, dec("50")))

	got, _ := s.Budget(b.ID)
	assert.True(t, got.Allowance.Equal(dec("50")))
	assert.True(t, got.CumulativeTotal.Equal(dec("50")))
	assert.Empty(t, s.ListExpensesForBudget(b.ID))
	assert.Equal(t, []core.Expense{kept}, s.ListExpensesForBudget(other.ID))

	stored, _ := repo.ListExpenses(ctx)
	assert.Equal(t, []core.Expense{kept}, stored)
}

func TestResetBudgetValidation(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	_, _ = s.CreateExpense(ctx, b.ID, dec("5"), monday)

	for _, bad := range []string{"12.5", "-3"} {
		err := s.ResetBudget(ctx, b.ID, dec(bad))
		require.Error(t, err, bad)
		assert.True(t, core.IsValidation(err), bad)
	}
	assertTotal(t, s, b.ID, "15")
	assert.Len(t, s.ListExpensesForBudget(b.ID), 1)

	assert.True(t, core.IsNotFound(s.ResetBudget(ctx, uuid.New(), dec("10"))))
}

func TestRenewAllKeepsExpenses(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	b, _ := s.CreateBudget(ctx, "Food", dec("35.5"))
	_, _ = s.CreateExpense(ctx, a.ID, dec("25"), monday)
	_, _ = s.CreateExpense(ctx, b.ID, dec("5"), monday)

	before := map[uuid.UUID]decimal.Decimal{}
	for _, x := range s.Budgets() {
		before[x.ID] = x.CumulativeTotal
	}
	rec.reset()

	require.NoError(t, s.RenewAll(ctx))

	for _, x := range s.Budgets() {
		assert.True(t, x.CumulativeTotal.Equal(before[x.ID].Add(x.Allowance)), x.Name)
	}
	assert.Len(t, s.ListExpensesForBudget(a.ID), 1)
	assert.Len(t, s.ListExpensesForBudget(b.ID), 1)
	assert.Equal(t, []events.Type{events.BudgetUpdated, events.BudgetUpdated}, rec.types())
}

func TestClearAllExpensesLeavesTotals(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	_, _ = s.CreateExpense(ctx, a.ID, dec("5"), monday)

	require.NoError(t, s.ClearAllExpenses(ctx))
	assert.Empty(t, s.ListExpensesForBudget(a.ID))
	assertTotal(t, s, a.ID, "15")
	stored, _ := repo.ListExpenses(ctx)
	assert.Empty(t, stored)
}

func TestRestartWeek(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	b, _ := s.CreateBudget(ctx, "Food", dec("10"))
	_, _ = s.CreateExpense(ctx, a.ID, dec("5"), monday)
	_, _ = s.CreateExpense(ctx, b.ID, dec("12"), monday)

	require.NoError(t, s.RestartWeek(ctx))
	assertTotal(t, s, a.ID, "35")
	assertTotal(t, s, b.ID, "8")
	assert.Empty(t, s.ListExpensesForBudget(a.ID))
	assert.Empty(t, s.ListExpensesForBudget(b.ID))
}

func TestDeleteSelectedBudget(t *testing.T) {
	ctx := context.Background()
	s, repo, rec := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	b, _ := s.CreateBudget(ctx, "Food", dec("10"))
	_, _ = s.CreateExpense(ctx, a.ID, dec("5"), monday)
	_, _ = s.CreateExpense(ctx, a.ID, dec("6"), monday)
	other, _ := s.CreateExpense(ctx, b.ID, dec("1"), monday)
	require.NoError(t, s.SelectBudget(ctx, a.ID))
	rec.reset()

	require.NoError(t, s.DeleteBudget(ctx, a.ID))

	_, selected := s.Selection()
	assert.False(t, selected)
	assert.Empty(t, s.ListExpensesForBudget(a.ID))
	assert.Equal(t, []core.Expense{other}, s.ListExpensesForBudget(b.ID))
	assert.True(t, core.IsNotFound(func() error { _, err := s.Budget(a.ID); return err }()))

	sel, _ := repo.LoadSelection(ctx)
	assert.Equal(t, uuid.Nil, sel)
	stored, _ := repo.ListExpenses(ctx)
	assert.Equal(t, []core.Expense{other}, stored)

	assert.Equal(t, []events.Type{
		events.ExpenseDeleted, events.ExpenseDeleted, events.BudgetDeleted, events.SelectionChanged,
	}, rec.types())

	assert.True(t, core.IsNotFound(s.DeleteBudget(ctx, a.ID)))
}

func TestDeleteOtherBudgetKeepsSelection(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	b, _ := s.CreateBudget(ctx, "Food", dec("10"))
	require.NoError(t, s.SelectBudget(ctx, a.ID))

	require.NoError(t, s.DeleteBudget(ctx, b.ID))
	cur, ok := s.CurrentBudget()
	require.True(t, ok)
	assert.Equal(t, a.ID, cur.ID)
}

func TestSelection(t *testing.T) {
	ctx := context.Background()
	s, repo, rec := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	rec.reset()

	assert.True(t, core.IsNotFound(s.SelectBudget(ctx, uuid.New())))
	_, ok := s.Selection()
	assert.False(t, ok)

	require.NoError(t, s.SelectBudget(ctx, a.ID))
	require.NoError(t, s.SelectBudget(ctx, a.ID))
	id, ok := s.Selection()
	assert.True(t, ok)
	assert.Equal(t, a.ID, id)
	sel, _ := repo.LoadSelection(ctx)
	assert.Equal(t, a.ID, sel)

	require.NoError(t, s.ClearSelection(ctx))
	_, ok = s.CurrentBudget()
	assert.False(t, ok)

	// Reselecting the same budget is not a change.
	assert.Equal(t, []events.Type{events.SelectionChanged, events.SelectionChanged}, rec.types())
}

func TestFilteringInvariant(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	b, _ := s.CreateBudget(ctx, "Food", dec("20"))

	want := map[uuid.UUID][]uuid.UUID{}
	for i, amount := range []string{"1", "2", "3", "4", "5", "6"} {
		owner := a.ID
		if i%3 == 0 {
			owner = b.ID
		}
		e, err := s.CreateExpense(ctx, owner, dec(amount), monday)
		require.NoError(t, err)
		want[owner] = append(want[owner], e.ID)
	}
	require.NoError(t, s.RemoveExpense(ctx, want[a.ID][1]))
	want[a.ID] = append(want[a.ID][:1], want[a.ID][2:]...)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		var got []uuid.UUID
		for _, e := range s.ListExpensesForBudget(id) {
			assert.Equal(t, id, e.BudgetID)
			got = append(got, e.ID)
		}
		assert.Equal(t, want[id], got)
	}
	assert.Empty(t, s.ListExpensesForBudget(uuid.New()))
}

func TestEnsureBudget(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	b, created, err := s.EnsureBudget(ctx, "Personal", dec("20"))
	require.NoError(t, err)
	assert.True(t, created)
	cur, ok := s.CurrentBudget()
	require.True(t, ok)
	assert.Equal(t, b, cur)

	_, created, err = s.EnsureBudget(ctx, "Personal", dec("20"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, s.Budgets(), 1)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	s, repo, _ := newTestStore(t)
	a, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	_, _ = s.CreateExpense(ctx, a.ID, dec("5"), monday)
	require.NoError(t, s.SelectBudget(ctx, a.ID))

	require.NoError(t, s.Purge(ctx))
	assert.Empty(t, s.Budgets())
	_, ok := s.Selection()
	assert.False(t, ok)

	budgets, _ := repo.ListBudgets(ctx)
	expenses, _ := repo.ListExpenses(ctx)
	assert.Empty(t, budgets)
	assert.Empty(t, expenses)
}

func TestOpenRestoresState(t *testing.T) {
	ctx := context.Background()
	personal := core.Budget{ID: uuid.New(), Name: "Personal", Allowance: dec("20"), CumulativeTotal: dec("12")}
	repo := memory.New(personal)
	kept := core.Expense{ID: uuid.New(), BudgetID: personal.ID, Amount: dec("8"), Date: monday}
	orphan := core.Expense{ID: uuid.New(), BudgetID: uuid.New(), Amount: dec("3"), Date: monday}
	require.NoError(t, repo.SaveExpense(ctx, kept))
	require.NoError(t, repo.SaveExpense(ctx, orphan))
	require.NoError(t, repo.SaveSelection(ctx, personal.ID))

	s, err := Open(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, []core.Budget{personal}, s.Budgets())
	assert.Equal(t, []core.Expense{kept}, s.ListExpensesForBudget(personal.ID))
	_, err = s.Expense(orphan.ID)
	assert.True(t, core.IsNotFound(err))

	cur, ok := s.CurrentBudget()
	require.True(t, ok)
	assert.Equal(t, personal.ID, cur.ID)
}

func TestOpenClearsDanglingSelection(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.SaveSelection(ctx, uuid.New()))

	s, err := Open(ctx, repo)
	require.NoError(t, err)
	_, ok := s.Selection()
	assert.False(t, ok)
	sel, _ := repo.LoadSelection(ctx)
	assert.Equal(t, uuid.Nil, sel)
}

func TestOpenLoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := storage.NewMockRepository(ctrl)
	boom := errors.New("database is locked")
	repo.EXPECT().ListBudgets(gomock.Any()).Return(nil, nil).AnyTimes()
	repo.EXPECT().ListExpenses(gomock.Any()).Return(nil, boom)
	repo.EXPECT().LoadSelection(gomock.Any()).Return(uuid.Nil, nil).AnyTimes()

	_, err := Open(context.Background(), repo)
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
	assert.ErrorIs(t, err, boom)
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := storage.NewMockRepository(ctrl)
	rec := &recorder{}
	s := New(repo, WithNotifier(rec))

	diskFull := errors.New("disk full")
	repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	b, err := s.CreateBudget(ctx, "Personal", dec("20"))
	require.NoError(t, err)

	repo.EXPECT().SaveExpense(gomock.Any(), gomock.Any()).Return(diskFull)
	e, err := s.CreateExpense(ctx, b.ID, dec("9.2"), monday)
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
	assert.ErrorIs(t, err, diskFull)

	assertTotal(t, s, b.ID, "10")
	assert.Equal(t, []core.Expense{e}, s.ListExpensesForBudget(b.ID))
	assert.Equal(t, []events.Type{events.BudgetCreated, events.ExpenseCreated, events.BudgetUpdated}, rec.types())
}

func TestPersistenceFailuresAreJoined(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := storage.NewMockRepository(ctrl)
	s := New(repo)

	repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	a, _ := s.CreateBudget(ctx, "A", dec("1"))
	b, _ := s.CreateBudget(ctx, "B", dec("2"))

	first, second := errors.New("first"), errors.New("second")
	gomock.InOrder(
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(first),
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(second),
	)
	err := s.RenewAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assertTotal(t, s, a.ID, "2")
	assertTotal(t, s, b.ID, "4")
}

func TestPersistOrder(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := storage.NewMockRepository(ctrl)
	s := New(repo)

	repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))

	gomock.InOrder(
		repo.EXPECT().SaveExpense(gomock.Any(), gomock.Any()).Return(nil),
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil),
	)
	e, err := s.CreateExpense(ctx, b.ID, dec("5"), monday)
	require.NoError(t, err)

	gomock.InOrder(
		repo.EXPECT().SaveBudget(gomock.Any(), gomock.Any()).Return(nil),
		repo.EXPECT().DeleteExpense(gomock.Any(), e.ID).Return(nil),
	)
	require.NoError(t, s.RemoveExpense(ctx, e.ID))
}

func TestEventsCarrySnapshots(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("20"))
	e, _ := s.CreateExpense(ctx, b.ID, dec("5"), monday)

	require.Len(t, rec.events, 3)
	created := rec.events[1]
	assert.Equal(t, e.ID, created.ID)
	require.NotNil(t, created.Expense)
	assert.Equal(t, e, *created.Expense)
	assert.Equal(t, monday, created.At)

	updated := rec.events[2]
	require.NotNil(t, updated.Budget)
	assert.True(t, updated.Budget.CumulativeTotal.Equal(dec("15")))
}

func TestConcurrentExpenses(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	b, _ := s.CreateBudget(ctx, "Personal", dec("1000"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreateExpense(ctx, b.ID, dec("1.5"), monday)
		}()
	}
	wg.Wait()

	assertTotal(t, s, b.ID, "900")
	assert.Len(t, s.ListExpensesForBudget(b.ID), 50)
}
