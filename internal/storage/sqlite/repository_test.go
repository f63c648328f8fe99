package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
)

func openTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "weekum.db")
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestRepositoryBudgetsRoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	a := core.Budget{ID: uuid.New(), Name: "Personal", Allowance: decimal.NewFromInt(20), CumulativeTotal: decimal.NewFromInt(20)}
	b := core.Budget{ID: uuid.New(), Name: "Food", Allowance: decimal.RequireFromString("60.5"), CumulativeTotal: decimal.RequireFromString("-4.5")}
	for _, x := range []core.Budget{a, b} {
		if err := repo.SaveBudget(ctx, x); err != nil {
			t.Fatalf("save budget: %v", err)
		}
	}
	a.CumulativeTotal = decimal.NewFromInt(3)
	if err := repo.SaveBudget(ctx, a); err != nil {
		t.Fatalf("update budget: %v", err)
	}

	got, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].CumulativeTotal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("update not applied: %s", got[0].CumulativeTotal)
	}
	if !got[1].Allowance.Equal(b.Allowance) || !got[1].CumulativeTotal.Equal(b.CumulativeTotal) {
		t.Fatalf("decimal round trip failed: %+v", got[1])
	}
}

func TestRepositoryExpensesCascade(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	budget := core.Budget{ID: uuid.New(), Allowance: decimal.NewFromInt(20), CumulativeTotal: decimal.NewFromInt(20)}
	other := core.Budget{ID: uuid.New(), Allowance: decimal.NewFromInt(10), CumulativeTotal: decimal.NewFromInt(10)}
	_ = repo.SaveBudget(ctx, budget)
	_ = repo.SaveBudget(ctx, other)

	when := time.Date(2025, 3, 3, 18, 30, 0, 123, time.UTC)
	e1 := core.Expense{ID: uuid.New(), BudgetID: budget.ID, Amount: decimal.NewFromInt(10), Date: when}
	e2 := core.Expense{ID: uuid.New(), BudgetID: other.ID, Amount: decimal.NewFromInt(3), Date: when}
	e3 := core.Expense{ID: uuid.New(), BudgetID: budget.ID, Amount: decimal.NewFromInt(5), Date: when}
	for _, e := range []core.Expense{e1, e2, e3} {
		if err := repo.SaveExpense(ctx, e); err != nil {
			t.Fatalf("save expense: %v", err)
		}
	}

	got, err := repo.ListExpenses(ctx)
	if err != nil || len(got) != 3 {
		t.Fatalf("list expenses: %+v err=%v", got, err)
	}
	if got[0].ID != e1.ID || got[1].ID != e2.ID || got[2].ID != e3.ID {
		t.Fatalf("insertion order lost: %+v", got)
	}
	if !got[0].Date.Equal(when) || !got[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}

	if err := repo.DeleteExpense(ctx, e2.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := repo.DeleteBudget(ctx, budget.ID); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
	got, _ = repo.ListExpenses(ctx)
	if len(got) != 0 {
		t.Fatalf("expected cascade to remove remaining expenses, got %+v", got)
	}
}

func TestRepositorySelectionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := openTestRepo(t)

	if sel, err := repo.LoadSelection(ctx); err != nil || sel != uuid.Nil {
		t.Fatalf("expected empty selection, got %v err=%v", sel, err)
	}
	id := uuid.New()
	if err := repo.SaveSelection(ctx, id); err != nil {
		t.Fatalf("save selection: %v", err)
	}
	_ = repo.Close()

	reopened, err := NewRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if sel, err := reopened.LoadSelection(ctx); err != nil || sel != id {
		t.Fatalf("expected %v after reopen, got %v err=%v", id, sel, err)
	}
	if err := reopened.SaveSelection(ctx, uuid.Nil); err != nil {
		t.Fatalf("clear selection: %v", err)
	}
	if sel, _ := reopened.LoadSelection(ctx); sel != uuid.Nil {
		t.Fatalf("expected cleared selection, got %v", sel)
	}
}
