// Package storage declares the persistence port the ledger writes through.
//
// Adapters live in subpackages (memory, sqlite). Every List method returns
// records in the order they were first saved; saving an existing record
// again updates it in place without changing its position.
package storage

import (
	"context"

	"github.com/google/uuid"

	"weekum/internal/core"
)

//go:generate mockgen -source=ports.go -destination=repository_mock.go -package=storage

// Ports for outbound adapters.
type (
	BudgetRepository interface {
		SaveBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id uuid.UUID) error
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	ExpenseRepository interface {
		SaveExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id uuid.UUID) error
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	// SelectionRepository persists the current budget selection.
	// uuid.Nil means nothing is selected.
	SelectionRepository interface {
		LoadSelection(ctx context.Context) (uuid.UUID, error)
		SaveSelection(ctx context.Context, id uuid.UUID) error
	}

	Repository interface {
		BudgetRepository
		ExpenseRepository
		SelectionRepository
	}
)
