package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"weekum/internal/core"
	"weekum/internal/ledger"
)

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q, want empty", got)
	}
}

func TestRenderTableLayout(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Budgets",
		Headers: []string{"Budget", "Balance"},
		Rows: [][]string{
			{"Personal", "12"},
			{"---"},
			{"Total", "-3"},
		},
	})

	for _, want := range []string{"Budgets", "Personal", "Total", "-3", "╭", "╰", "├"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	// title, top, header, header separator, 2 rows, row separator, bottom
	if lines := strings.Count(out, "\n"); lines != 8 {
		t.Errorf("rendered %d lines, want 8:\n%s", lines, out)
	}
}

func TestBudgetTable(t *testing.T) {
	a := core.Budget{ID: uuid.New(), Name: "Personal", Allowance: decimal.NewFromInt(20), CumulativeTotal: decimal.NewFromInt(-4)}
	b := core.Budget{ID: uuid.New(), Allowance: decimal.NewFromInt(10), CumulativeTotal: decimal.NewFromInt(10)}

	table := BudgetTable(ledger.Summarize([]core.Budget{a, b}), a.ID)

	if len(table.Rows) != 4 {
		t.Fatalf("BudgetTable rows = %d, want 4", len(table.Rows))
	}
	if table.Rows[0][0] != "* Personal" {
		t.Errorf("selected budget not marked: %q", table.Rows[0][0])
	}
	if table.Rows[1][0] != ShortID(b.ID) {
		t.Errorf("unnamed budget should show its short id, got %q", table.Rows[1][0])
	}
	if got := table.Rows[3][3]; got != "6" {
		t.Errorf("grand total = %q, want 6", got)
	}
}

func TestExpenseTable(t *testing.T) {
	b := core.Budget{ID: uuid.New(), Name: "Personal", Allowance: decimal.NewFromInt(20), CumulativeTotal: decimal.NewFromInt(5)}
	monday := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		{ID: uuid.New(), BudgetID: b.ID, Amount: decimal.NewFromInt(10), Date: monday},
		{ID: uuid.New(), BudgetID: b.ID, Amount: decimal.NewFromInt(5), Date: monday.AddDate(0, 0, 1)},
	}

	table := ExpenseTable(b, ledger.RunningBalance(b, expenses))

	if len(table.Rows) != 4 {
		t.Fatalf("ExpenseTable rows = %d, want 4", len(table.Rows))
	}
	if table.Rows[0][0] != "Mon" || table.Rows[1][0] != "Tue" {
		t.Errorf("weekdays = %q, %q", table.Rows[0][0], table.Rows[1][0])
	}
	if table.Rows[0][3] != "10" || table.Rows[1][3] != "5" {
		t.Errorf("running balances = %q, %q", table.Rows[0][3], table.Rows[1][3])
	}
	if !strings.Contains(table.Title, "allowance 20") {
		t.Errorf("title = %q", table.Title)
	}
}
