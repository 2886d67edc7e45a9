package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bond-lifecycle-demo/internal/domain"
	"bond-lifecycle-demo/internal/engine"
	"bond-lifecycle-demo/internal/poller"
	"bond-lifecycle-demo/internal/storage"
	"bond-lifecycle-demo/internal/workflow"
)

// Demo runs the scripted five-step lifecycle against the configured engine,
// with the event poller refreshing the log in the background. Failed steps
// are reported and the run continues; every error in the workflow is
// recoverable.
func (a *App) Demo(ctx context.Context, opts DemoOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; auditing disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var audit storage.StepRunStore
	var observations storage.PriceObservationStore
	if store != nil {
		audit = store
		observations = store
	}

	orch := workflow.New(
		a.newEngineClient(),
		a.newOracle(),
		a.issueParams(),
		audit,
		observations,
		a.newNotifier(),
		a.Logger,
	)

	steps, err := resolveSteps(opts.Steps)
	if err != nil {
		return err
	}

	pause := opts.Pause
	if pause <= 0 {
		pause = a.Config.Demo.StepPause
	}

	return a.runLifecycle(ctx, orch, steps, pause)
}

func (a *App) runLifecycle(ctx context.Context, orch *workflow.Orchestrator, steps []workflow.Step, pause time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	pollCtx, stopPoller := context.WithCancel(gctx)

	p := poller.New(poller.Options{
		Interval:     a.Config.Poller.Interval,
		StartupDelay: a.Config.Poller.StartupDelay,
	}, a.Logger)

	g.Go(func() error {
		err := p.Run(pollCtx, orch.RefreshEvents)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer stopPoller()
		return a.driveSteps(gctx, orch, steps, pause)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) driveSteps(ctx context.Context, orch *workflow.Orchestrator, steps []workflow.Step, pause time.Duration) error {
	for i, step := range steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := orch.Run(ctx, step); err != nil {
			if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
				a.Logger.Warn().Err(err).Stringer("step", step).Msg("step rejected by engine; continuing")
			} else {
				a.Logger.Error().Err(err).Stringer("step", step).Msg("step failed; continuing")
			}
		}

		if err := renderSession(os.Stdout, orch.Snapshot()); err != nil {
			return fmt.Errorf("render session: %w", err)
		}

		if pause > 0 && i < len(steps)-1 {
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

func (a *App) issueParams() engine.CreateBondParams {
	return engine.CreateBondParams{
		Principal:       decimal.NewFromFloat(a.Config.Demo.Principal),
		Currency:        a.Config.Demo.Currency,
		CouponRate:      decimal.NewFromFloat(a.Config.Demo.CouponRate),
		MaturityYears:   a.Config.Demo.MaturityYears,
		ConversionPrice: decimal.NewFromFloat(a.Config.Demo.ConversionPrice),
		ConversionRatio: a.Config.Demo.ConversionRatio,
	}
}

func resolveSteps(names []string) ([]workflow.Step, error) {
	if len(names) == 0 {
		return workflow.Steps, nil
	}

	steps := make([]workflow.Step, 0, len(names))
	for _, name := range names {
		step, ok := workflow.ParseStep(name)
		if !ok {
			return nil, fmt.Errorf("unknown step %q", name)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
