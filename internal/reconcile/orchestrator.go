// Package reconcile runs prioritized adapter chains and reconciles their
// results into the quote board. One orchestrator owns one quotation kind.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"goldwatcher/internal/quote"
	"goldwatcher/internal/source"
)

// Options wire one orchestrator.
type Options struct {
	Kind     quote.Kind
	Adapters []source.Adapter
	Board    *quote.Board
	// Fallback is the hardcoded default served when every adapter fails
	// and the board has never held a value for this kind.
	Fallback quote.Quotation
	History  HistorySink
	Cache    CacheSink
}

// Orchestrator tries each adapter in priority order and stores the first
// valid result. When every adapter fails it degrades in two steps: the last
// known board value, then the configured hardcoded default. The board is
// therefore never empty for this kind after the first run.
type Orchestrator struct {
	opts   Options
	logger zerolog.Logger

	// mu serializes runs for this kind so a forced refresh cannot
	// interleave with a scheduled one.
	mu sync.Mutex
}

// New constructs an orchestrator. Nil sinks are replaced with noops.
func New(opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.History == nil {
		opts.History = NoopHistory{}
	}
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	return &Orchestrator{
		opts: opts,
		logger: logger.With().
			Str("component", "orchestrator").
			Str("kind", string(opts.Kind)).
			Logger(),
	}
}

// Kind returns the quotation kind this orchestrator owns.
func (o *Orchestrator) Kind() quote.Kind { return o.opts.Kind }

// Run executes one fetch cycle and returns the quotation now current for
// this kind. It never returns an error: failures degrade to a fallback.
func (o *Orchestrator) Run(ctx context.Context) quote.Quotation {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, adapter := range o.opts.Adapters {
		q, err := adapter.Fetch(ctx)
		if err != nil {
			o.logger.Warn().Err(err).Str("adapter", adapter.Name()).Msg("adapter failed")
			continue
		}
		if !q.Valid() {
			o.logger.Warn().Str("adapter", adapter.Name()).Msg("adapter returned invalid quotation")
			continue
		}

		q.Kind = o.opts.Kind
		// Completion time, not the adapter's claim: the board orders
		// writes by when the fetch finished, so a recovered source can
		// always displace an earlier fallback value.
		q.FetchedAt = time.Now().UTC()

		if !o.opts.Board.Put(q) {
			// A newer result landed while this fetch was in flight.
			current, _ := o.opts.Board.Get(o.opts.Kind)
			o.logger.Debug().Str("adapter", adapter.Name()).Msg("stale result discarded")
			return current
		}

		if err := o.opts.History.Append(ctx, q); err != nil {
			o.logger.Error().Err(err).Msg("history append failed")
		}
		o.opts.Cache.Store(ctx, q)

		o.logger.Info().
			Str("adapter", adapter.Name()).
			Str("price_per_gram", q.PricePerGram.String()).
			Bool("degraded", q.Degraded).
			Msg("quotation updated")
		return q
	}

	return o.fallback(ctx)
}

func (o *Orchestrator) fallback(ctx context.Context) quote.Quotation {
	if prev, ok := o.opts.Board.Get(o.opts.Kind); ok {
		fb := prev
		fb.Source = "fallback"
		fb.Degraded = true
		fb.FetchedAt = time.Now().UTC()
		o.opts.Board.Put(fb)
		o.opts.Cache.Store(ctx, fb)
		o.logger.Warn().
			Str("price_per_gram", fb.PricePerGram.String()).
			Msg("all adapters failed, serving last known value")
		return fb
	}

	def := o.opts.Fallback
	def.Kind = o.opts.Kind
	def.Source = "fallback-default"
	def.Degraded = true
	def.FetchedAt = time.Now().UTC()
	o.opts.Board.Put(def)
	o.opts.Cache.Store(ctx, def)
	o.logger.Warn().
		Str("price_per_gram", def.PricePerGram.String()).
		Msg("all adapters failed with no prior value, serving hardcoded default")
	return def
}
