package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"weekum/internal/core"
	"weekum/internal/ledger"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	positiveStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	negativeStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(45).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderBalance colours a balance green when it is zero or above, red below.
func RenderBalance(s string) string {
	if strings.HasPrefix(s, "-") {
		return negativeStyle.Render(s)
	}
	return positiveStyle.Render(s)
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned, the rest right-aligned; negative cells are red.
// A row holding the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	line := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(line("╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(fmt.Sprintf(" %-*s ", widths[i], h)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(line("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(line("├", "┼", "┤"))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", widths[i], cell)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], cell)
			}
			if i > 0 && strings.HasPrefix(cell, "-") {
				b.WriteString(negativeStyle.Render(padded))
			} else {
				b.WriteString(valueStyle.Render(padded))
			}
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(line("╰", "┴", "╯"))

	return b.String()
}

// BudgetTable lists budgets with their totals and the grand total. The
// selected budget is marked with an asterisk.
func BudgetTable(summary ledger.Summary, selected uuid.UUID) Table {
	t := Table{
		Title:   "Budgets",
		Headers: []string{"Budget", "ID", "Allowance", "Balance"},
	}
	for _, b := range summary.Budgets {
		name := b.DisplayName()
		if b.ID == selected {
			name = "* " + name
		}
		t.Rows = append(t.Rows, []string{name, ShortID(b.ID), FormatMoney(b.Allowance), FormatMoney(b.CumulativeTotal)})
	}
	if len(summary.Budgets) > 1 {
		t.Rows = append(t.Rows, []string{"---"}, []string{"Total", "", "", FormatMoney(summary.GrandTotal)})
	}
	return t
}

// ExpenseTable lists a budget's expenses with the balance after each one.
func ExpenseTable(b core.Budget, rows []ledger.Row) Table {
	t := Table{
		Title:   fmt.Sprintf("%s (allowance %s)", b.DisplayName(), FormatMoney(b.Allowance)),
		Headers: []string{"Day", "ID", "Amount", "Balance"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Expense.Weekday(),
			ShortID(r.Expense.ID),
			FormatMoney(r.Expense.Amount),
			FormatMoney(r.Balance),
		})
	}
	t.Rows = append(t.Rows, []string{"---"}, []string{"Balance", "", "", FormatMoney(b.CumulativeTotal)})
	return t
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
