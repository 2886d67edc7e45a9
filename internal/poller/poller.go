package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc performs one refresh. Returning an error never stops the poller.
type TickFunc func(ctx context.Context) error

// Options tune poller behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Poller drives a recurring refresh task. Ticks run strictly one at a time:
// the next wait starts only after the previous tick returns, so at most one
// refresh is ever outstanding.
type Poller struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Poller instance.
func New(opts Options, logger zerolog.Logger) *Poller {
	if opts.Interval <= 0 {
		panic("poller interval must be positive")
	}
	return &Poller{opts: opts, logger: logger.With().Str("component", "poller").Logger()}
}

// Run blocks, invoking the tick function on each interval until ctx is
// cancelled. Cancellation tears the schedule down; no further tick fires.
func (p *Poller) Run(ctx context.Context, tick TickFunc) error {
	if p.opts.StartupDelay > 0 {
		timer := time.NewTimer(p.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	for {
		timer := time.NewTimer(p.opts.Interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		if err := tick(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("poll tick failed")
		}
	}
}
