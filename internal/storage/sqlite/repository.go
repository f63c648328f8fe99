// Package sqlite persists the ledger in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(on)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets (id, name, allowance, cumulative_total)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			allowance = excluded.allowance,
			cumulative_total = excluded.cumulative_total`,
		b.ID.String(), b.Name, b.Allowance.String(), b.CumulativeTotal.String())
	if err != nil {
		return fmt.Errorf("save budget %s: %w", b.ID, err)
	}
	slog.DebugContext(ctx, "Budget saved to SQLite",
		"id", b.ID,
		"allowance", b.Allowance.String(),
		"cumulative_total", b.CumulativeTotal.String())
	return nil
}

// DeleteBudget removes the budget; its expenses go with it via ON DELETE CASCADE.
func (r *Repository) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, allowance, cumulative_total FROM budgets ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []core.Budget
	for rows.Next() {
		var id, name, allowance, total string
		if err := rows.Scan(&id, &name, &allowance, &total); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b := core.Budget{Name: name}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse budget id %q: %w", id, err)
		}
		if b.Allowance, err = decimal.NewFromString(allowance); err != nil {
			return nil, fmt.Errorf("parse allowance of budget %s: %w", id, err)
		}
		if b.CumulativeTotal, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total of budget %s: %w", id, err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) SaveExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses (id, budget_id, amount, spent_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			spent_at = excluded.spent_at`,
		e.ID.String(), e.BudgetID.String(), e.Amount.String(), e.Date.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save expense %s: %w", e.ID, err)
	}
	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"budget_id", e.BudgetID,
		"amount", e.Amount.String())
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, budget_id, amount, spent_at FROM expenses ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []core.Expense
	for rows.Next() {
		var id, budgetID, amount, spentAt string
		if err := rows.Scan(&id, &budgetID, &amount, &spentAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		var e core.Expense
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse expense id %q: %w", id, err)
		}
		if e.BudgetID, err = uuid.Parse(budgetID); err != nil {
			return nil, fmt.Errorf("parse budget id of expense %s: %w", id, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount of expense %s: %w", id, err)
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, spentAt); err != nil {
			return nil, fmt.Errorf("parse date of expense %s: %w", id, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) LoadSelection(ctx context.Context) (uuid.UUID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT budget_id FROM selection WHERE id = 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && raw == "") {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load selection: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse selection %q: %w", raw, err)
	}
	return id, nil
}

func (r *Repository) SaveSelection(ctx context.Context, id uuid.UUID) error {
	raw := ""
	if id != uuid.Nil {
		raw = id.String()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO selection (id, budget_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET budget_id = excluded.budget_id`, raw)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}
