package ledger

import (
	"github.com/shopspring/decimal"

	"weekum/internal/core"
)

// Row pairs an expense with the balance left immediately after it.
type Row struct {
	Expense core.Expense    `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// RunningBalance projects expenses, given in insertion order, onto the
// balance remaining after each one: allowance minus the amounts so far.
// The result is never written back to the expenses.
func RunningBalance(b core.Budget, expenses []core.Expense) []Row {
	rows := make([]Row, 0, len(expenses))
	balance := b.Allowance
	for _, e := range expenses {
		balance = balance.Sub(e.Amount)
		rows = append(rows, Row{Expense: e, Balance: balance})
	}
	return rows
}

// GrandTotal sums the cumulative totals of all budgets.
func GrandTotal(budgets []core.Budget) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.CumulativeTotal)
	}
	return total
}

// Spent sums expense amounts.
func Spent(expenses []core.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Summary is the aggregate view across every budget.
type Summary struct {
	Budgets    []core.Budget   `json:"budgets"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func Summarize(budgets []core.Budget) Summary {
	if budgets == nil {
		budgets = []core.Budget{}
	}
	return Summary{Budgets: budgets, GrandTotal: GrandTotal(budgets)}
}
