package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"goldwatcher/internal/quote"
	"goldwatcher/internal/reconcile"
)

// Entry pairs an orchestrator with its refresh interval. The international
// chain runs much tighter than the scraped boards, so each kind gets its
// own loop.
type Entry struct {
	Orchestrator *reconcile.Orchestrator
	Interval     time.Duration
}

// Scheduler drives the per-kind refresh loops.
type Scheduler struct {
	entries []Entry
	logger  zerolog.Logger
}

// New constructs a Scheduler instance.
func New(entries []Entry, logger zerolog.Logger) *Scheduler {
	for _, e := range entries {
		if e.Interval <= 0 {
			panic("scheduler interval must be positive")
		}
	}
	return &Scheduler{entries: entries, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, refreshing every kind immediately and then on its own
// interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, entry := range s.entries {
		entry := entry
		g.Go(func() error {
			return s.loop(ctx, entry)
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, entry Entry) error {
	kind := entry.Orchestrator.Kind()
	s.logger.Info().
		Str("kind", string(kind)).
		Dur("interval", entry.Interval).
		Msg("refresh loop started")

	entry.Orchestrator.Run(ctx)

	ticker := time.NewTicker(entry.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Str("kind", string(kind)).Msg("refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			entry.Orchestrator.Run(ctx)
		}
	}
}

// Force refreshes the named kinds synchronously, all of them when none are
// given. It returns once every requested chain has completed a run.
func (s *Scheduler) Force(ctx context.Context, kinds ...quote.Kind) {
	wanted := make(map[quote.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, entry := range s.entries {
		if len(wanted) > 0 && !wanted[entry.Orchestrator.Kind()] {
			continue
		}
		o := entry.Orchestrator
		g.Go(func() error {
			o.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
