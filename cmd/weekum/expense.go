package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weekum/internal/cli"
	"weekum/internal/core"
)

var flagDate string

var spendCmd = &cobra.Command{
	Use:   "spend AMOUNT",
	Short: "Record an expense (rounded up to a whole amount)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpend,
}

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "List a budget's expenses with the balance after each",
	Args:  cobra.NoArgs,
	RunE:  runExpenses,
}

var unspendCmd = &cobra.Command{
	Use:   "unspend EXPENSE",
	Short: "Remove an expense and credit its budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnspend,
}

var resetCmd = &cobra.Command{
	Use:   "reset ALLOWANCE",
	Short: "Clear a budget's expenses and restart it at a whole allowance",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func init() {
	for _, c := range []*cobra.Command{spendCmd, expensesCmd, resetCmd} {
		c.Flags().StringVarP(&flagBudget, "budget", "b", "", "Budget name or id (default: current)")
	}
	spendCmd.Flags().StringVar(&flagDate, "date", "", "Day of the expense, YYYY-MM-DD (default: today)")

	rootCmd.AddCommand(spendCmd, expensesCmd, unspendCmd, resetCmd)
}

func runSpend(cmd *cobra.Command, args []string) error {
	b, err := targetBudget(cmd.Context(), flagBudget)
	if err != nil {
		return err
	}
	var date time.Time
	if flagDate != "" {
		date, err = time.ParseInLocation(time.DateOnly, flagDate, time.Local)
		if err != nil {
			return &core.ValidationError{Field: "date", Value: flagDate, Err: core.ErrInvalidDate}
		}
	}

	e, err := app.Store.RecordExpense(cmd.Context(), b.ID, args[0], date)
	if err != nil {
		return err
	}
	b, err = app.Store.Budget(b.ID)
	if err != nil {
		return err
	}
	say(cmd, fmt.Sprintf("Spent %s from %s on %s, balance %s",
		cli.FormatMoney(e.Amount), b.DisplayName(), e.Weekday(),
		cli.RenderBalance(cli.FormatMoney(b.CumulativeTotal))))
	return nil
}

func runExpenses(cmd *cobra.Command, _ []string) error {
	b, err := targetBudget(cmd.Context(), flagBudget)
	if err != nil {
		return err
	}
	snap := app.Coordinator.Snapshot(b.ID)
	if snap.Deleted {
		return &core.NotFoundError{Kind: "budget", ID: b.ID.String()}
	}
	say(cmd)
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.ExpenseTable(snap.Budget, snap.Rows)))
	return nil
}

func runUnspend(cmd *cobra.Command, args []string) error {
	e, err := findExpense(args[0])
	if err != nil {
		return err
	}
	if err := app.Store.RemoveExpense(cmd.Context(), e.ID); err != nil {
		return err
	}
	b, err := app.Store.Budget(e.BudgetID)
	if err != nil {
		return err
	}
	say(cmd, fmt.Sprintf("Removed %s from %s, balance %s",
		cli.FormatMoney(e.Amount), b.DisplayName(),
		cli.RenderBalance(cli.FormatMoney(b.CumulativeTotal))))
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	b, err := targetBudget(cmd.Context(), flagBudget)
	if err != nil {
		return err
	}
	allowance, err := core.ParseDecimal("allowance", args[0])
	if err != nil {
		return err
	}
	if err := app.Store.ResetBudget(cmd.Context(), b.ID, allowance); err != nil {
		return err
	}
	say(cmd, fmt.Sprintf("%s restarted at %s, expenses cleared", b.DisplayName(), cli.FormatMoney(allowance)))
	return nil
}
