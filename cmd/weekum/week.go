package main

import (
	"context"

	"github.com/spf13/cobra"
)

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Add each budget's allowance to its balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return weekOp(cmd, "", app.Store.RenewAll, "Added this week's allowances")
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every expense, keeping balances as they are",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return weekOp(cmd, "clear all expenses", app.Store.ClearAllExpenses, "Cleared all expenses")
	},
}

var restartWeekCmd = &cobra.Command{
	Use:   "restart-week",
	Short: "Clear every expense, then renew every budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return weekOp(cmd, "restart the week", app.Store.RestartWeek, "New week started")
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every budget and expense",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return weekOp(cmd, "purge the ledger", app.Store.Purge, "Ledger purged")
	},
}

func init() {
	for _, c := range []*cobra.Command{clearCmd, restartWeekCmd, purgeCmd} {
		c.Flags().BoolVarP(&flagYes, "yes", "y", false, "Confirm the operation")
	}
	rootCmd.AddCommand(renewCmd, clearCmd, restartWeekCmd, purgeCmd)
}

// weekOp runs a whole-ledger operation. A non-empty confirm names a
// destructive operation that needs --yes.
func weekOp(cmd *cobra.Command, confirm string, op func(context.Context) error, done string) error {
	if confirm != "" {
		if err := requireConfirm(confirm); err != nil {
			return err
		}
	}
	if err := op(cmd.Context()); err != nil {
		return err
	}
	say(cmd, done)
	return printBudgets(cmd)
}
