package reconcile

import (
	"context"

	"goldwatcher/internal/quote"
)

// HistorySink receives every live quotation accepted into the board.
// Fallback values are not recorded; history holds observed prices only.
type HistorySink interface {
	Append(ctx context.Context, q quote.Quotation) error
}

// CacheSink mirrors board state into a shared cache. Implementations must
// swallow their own errors: caching is best effort and never blocks a run.
type CacheSink interface {
	Store(ctx context.Context, q quote.Quotation)
}

// NoopHistory discards quotations.
type NoopHistory struct{}

func (NoopHistory) Append(context.Context, quote.Quotation) error { return nil }

// NoopCache discards quotations.
type NoopCache struct{}

func (NoopCache) Store(context.Context, quote.Quotation) {}

var (
	_ HistorySink = NoopHistory{}
	_ CacheSink   = NoopCache{}
)
