package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"weekum/internal/cli"
)

var (
	flagBudget  string
	flagYes     bool
	flagVerbose bool

	// app is opened before every command runs and closed after it returns.
	app *cli.Runtime
)

var rootCmd = &cobra.Command{
	Use:               "weekum",
	Short:             "Weekly spending budgets",
	Long:              "Track what you spend against weekly allowances. Unspent money rolls over.",
	SilenceUsage:      true,
	PersistentPreRunE: openLedger,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	err := execute(context.Background(), os.Args[1:], os.Stdout)
	if err != nil {
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	defer closeLedger()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log ledger operations to stderr")
}

// openLedger loads configuration and opens the ledger the command works on.
func openLedger(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if !flagVerbose && cmd != serveCmd {
		level = "warn"
	}
	logger := cli.SetupLogger(level, os.Stderr)

	app, err = cli.Bootstrap(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	return nil
}

func closeLedger() {
	if app == nil {
		return
	}
	if err := app.Close(); err != nil {
		app.Logger.Error("Closing ledger failed", "error", err)
	}
	app = nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if err := app.DefaultBudget(cmd.Context()); err != nil {
		return err
	}
	return printBudgets(cmd)
}

func say(cmd *cobra.Command, a ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), a...)
}
