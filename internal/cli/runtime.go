package cli

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"weekum/internal/amqp"
	"weekum/internal/backend"
	"weekum/internal/config"
	"weekum/internal/events"
	"weekum/internal/ledger"
	"weekum/internal/log"
)

// Runtime is the assembled ledger: repository, store, event bus, the
// coordinator for budget views, and the broker publisher when configured.
type Runtime struct {
	Config      *config.Config
	Logger      *log.Logger
	Store       *ledger.Store
	Session     *ledger.Session
	Bus         *events.Bus
	Coordinator *ledger.Coordinator
	Publisher   *amqp.Publisher

	cleanup backend.CleanupFunc
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Bootstrap builds the backend from cfg and opens the ledger on it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return Assemble(ctx, cfg, logger, result)
}

// Assemble opens the ledger on an already created backend.
func Assemble(ctx context.Context, cfg *config.Config, logger *log.Logger, result *backend.BackendResult) (*Runtime, error) {
	bus := events.NewBus()
	session := ledger.NewSession()

	store, err := ledger.Open(ctx, result.Repository,
		ledger.WithNotifier(bus),
		ledger.WithSession(session),
		ledger.WithLogger(logger),
	)
	if err != nil {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	rt := &Runtime{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Session:     session,
		Bus:         bus,
		Coordinator: ledger.NewCoordinator(store, bus),
		cleanup:     result.Cleanup,
	}

	if result.Broker != nil {
		rt.Publisher = amqp.NewPublisher(result.Broker, 256, logger)
		bus.Subscribe(rt.Publisher)

		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		g, gctx := errgroup.WithContext(runCtx)
		g.Go(func() error { return rt.Publisher.Run(gctx) })
		rt.cancel, rt.group = cancel, g
	}

	return rt, nil
}

// DefaultBudget makes sure a first run has a selected budget to spend from.
func (r *Runtime) DefaultBudget(ctx context.Context) error {
	b, created, err := r.Store.EnsureBudget(ctx, r.Config.DefaultBudgetName, r.Config.DefaultAllowance)
	if err != nil {
		return err
	}
	if created {
		r.Logger.InfoContext(ctx, "Created default budget",
			log.FieldBudgetID, b.ID,
			log.FieldBudgetName, b.Name,
			log.FieldAllowance, b.Allowance.String())
	}
	return nil
}

// Close drains the publisher and releases the backend.
func (r *Runtime) Close() error {
	var errs []error
	r.Coordinator.Close()
	if r.cancel != nil {
		r.cancel()
		if err := r.group.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if r.cleanup != nil {
		if err := r.cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
