package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"weekum/internal/cli"
	apphttp "weekum/internal/http"
	"weekum/internal/log"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger as a JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default :$PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := app.Logger
	ctx, stop := cli.GracefulShutdown(cmd.Context(), logger)
	defer stop()

	if err := app.DefaultBudget(ctx); err != nil {
		return err
	}

	addr := flagAddr
	if addr == "" {
		addr = ":" + app.Config.Port
	}
	srv := apphttp.NewServer(addr, app.Store, app.Coordinator, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting weekum server",
			log.FieldOperation, log.OpStartup,
			"addr", addr,
			"backend", app.Config.DataBackend,
			"amqp", app.Config.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(app.Config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
		return nil
	})
	return g.Wait()
}
