package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weekum/internal/cli"
	"weekum/internal/core"
	"weekum/internal/ledger"
)

var flagSelectNew bool

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage budgets",
}

var budgetAddCmd = &cobra.Command{
	Use:   "add NAME ALLOWANCE",
	Short: "Create a budget with a weekly allowance",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetAdd,
}

var budgetListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List budgets and their balances",
	Args:    cobra.NoArgs,
	RunE:    func(cmd *cobra.Command, _ []string) error { return printBudgets(cmd) },
}

var budgetRmCmd = &cobra.Command{
	Use:     "rm BUDGET",
	Aliases: []string{"delete"},
	Short:   "Delete a budget and all of its expenses",
	Args:    cobra.ExactArgs(1),
	RunE:    runBudgetRm,
}

var selectCmd = &cobra.Command{
	Use:   "select [BUDGET]",
	Short: "Show or change the current budget",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelect,
}

var flagClearSelection bool

func init() {
	budgetAddCmd.Flags().BoolVar(&flagSelectNew, "select", false, "Make the new budget current")
	budgetCmd.AddCommand(budgetAddCmd, budgetListCmd, budgetRmCmd)

	selectCmd.Flags().BoolVar(&flagClearSelection, "clear", false, "Clear the current selection")

	rootCmd.AddCommand(budgetCmd, selectCmd)
}

func runBudgetAdd(cmd *cobra.Command, args []string) error {
	allowance, err := core.ParseDecimal("allowance", args[1])
	if err != nil {
		return err
	}
	b, err := app.Store.CreateBudget(cmd.Context(), args[0], allowance)
	if err != nil {
		return err
	}
	if flagSelectNew {
		if err := app.Store.SelectBudget(cmd.Context(), b.ID); err != nil {
			return err
		}
	}
	say(cmd, fmt.Sprintf("Created %s (%s) with %s a week", b.DisplayName(), cli.ShortID(b.ID), cli.FormatMoney(b.Allowance)))
	return nil
}

func runBudgetRm(cmd *cobra.Command, args []string) error {
	b, err := findBudget(args[0])
	if err != nil {
		return err
	}
	n := len(app.Store.ListExpensesForBudget(b.ID))
	if err := app.Store.DeleteBudget(cmd.Context(), b.ID); err != nil {
		return err
	}
	say(cmd, fmt.Sprintf("Deleted %s and %d expenses", b.DisplayName(), n))
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	if flagClearSelection {
		if err := app.Store.ClearSelection(cmd.Context()); err != nil {
			return err
		}
		say(cmd, "Selection cleared")
		return nil
	}
	if len(args) == 0 {
		b, ok := app.Store.CurrentBudget()
		if !ok {
			say(cmd, cli.Muted("No budget selected"))
			return nil
		}
		say(cmd, fmt.Sprintf("%s (%s) balance %s", b.DisplayName(), cli.ShortID(b.ID), cli.RenderBalance(cli.FormatMoney(b.CumulativeTotal))))
		return nil
	}

	b, err := findBudget(args[0])
	if err != nil {
		return err
	}
	if err := app.Store.SelectBudget(cmd.Context(), b.ID); err != nil {
		return err
	}
	say(cmd, fmt.Sprintf("Selected %s (%s)", b.DisplayName(), cli.ShortID(b.ID)))
	return nil
}

func printBudgets(cmd *cobra.Command) error {
	budgets := app.Store.Budgets()
	if len(budgets) == 0 {
		say(cmd, cli.Muted("No budgets yet. Create one with 'weekum budget add NAME ALLOWANCE'."))
		return nil
	}
	selected, _ := app.Store.Selection()
	say(cmd)
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.BudgetTable(ledger.Summarize(budgets), selected)))
	return nil
}
