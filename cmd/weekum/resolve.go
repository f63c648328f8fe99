package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"weekum/internal/core"
)

var errNoSelection = errors.New("no budget selected; run 'weekum select BUDGET' or pass --budget")

// targetBudget resolves --budget, falling back to the current selection.
// A first run gets the default budget created and selected.
func targetBudget(ctx context.Context, ref string) (core.Budget, error) {
	if ref != "" {
		return findBudget(ref)
	}
	if err := app.DefaultBudget(ctx); err != nil {
		return core.Budget{}, err
	}
	b, ok := app.Store.CurrentBudget()
	if !ok {
		return core.Budget{}, errNoSelection
	}
	return b, nil
}

// findBudget matches a full id, an id prefix, or a name (case-insensitive).
func findBudget(ref string) (core.Budget, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return app.Store.Budget(id)
	}

	var matches []core.Budget
	for _, b := range app.Store.Budgets() {
		if strings.EqualFold(b.Name, ref) {
			return b, nil
		}
		if strings.HasPrefix(b.ID.String(), strings.ToLower(ref)) {
			matches = append(matches, b)
		}
	}
	switch len(matches) {
	case 0:
		return core.Budget{}, &core.NotFoundError{Kind: "budget", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return core.Budget{}, fmt.Errorf("budget %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// findExpense matches a full expense id or an id prefix across all budgets.
func findExpense(ref string) (core.Expense, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return app.Store.Expense(id)
	}

	var matches []core.Expense
	for _, b := range app.Store.Budgets() {
		for _, e := range app.Store.ListExpensesForBudget(b.ID) {
			if strings.HasPrefix(e.ID.String(), strings.ToLower(ref)) {
				matches = append(matches, e)
			}
		}
	}
	switch {
	case ref == "" || len(matches) == 0:
		return core.Expense{}, &core.NotFoundError{Kind: "expense", ID: ref}
	case len(matches) == 1:
		return matches[0], nil
	default:
		return core.Expense{}, fmt.Errorf("expense %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func requireConfirm(what string) error {
	if flagYes {
		return nil
	}
	return fmt.Errorf("%s: %w (pass --yes)", what, core.ErrNotConfirmed)
}
