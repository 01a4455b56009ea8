package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/quote"
	"goldwatcher/internal/reconcile"
	"goldwatcher/internal/source"
)

type countingAdapter struct {
	kind  quote.Kind
	calls chan struct{}
}

func (c *countingAdapter) Name() string { return "counting" }

func (c *countingAdapter) Fetch(context.Context) (quote.Quotation, error) {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return quote.Quotation{
		Kind:         c.kind,
		PricePerGram: decimal.NewFromInt(15000),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

func newTestEntry(kind quote.Kind, board *quote.Board, interval time.Duration) (Entry, *countingAdapter) {
	adapter := &countingAdapter{kind: kind, calls: make(chan struct{}, 16)}
	o := reconcile.New(reconcile.Options{
		Kind:     kind,
		Adapters: []source.Adapter{adapter},
		Board:    board,
	}, zerolog.Nop())
	return Entry{Orchestrator: o, Interval: interval}, adapter
}

func TestRunRefreshesImmediatelyAndOnInterval(t *testing.T) {
	board := quote.NewBoard()
	entry, adapter := newTestEntry(quote.KindInternational, board, 20*time.Millisecond)

	s := New([]Entry{entry}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Immediate run plus at least one tick.
	for i := 0; i < 2; i++ {
		select {
		case <-adapter.calls:
		case <-time.After(time.Second):
			t.Fatalf("fetch %d never happened", i+1)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	if _, ok := board.Get(quote.KindInternational); !ok {
		t.Fatal("board empty after scheduler ran")
	}
}

func TestForceRefreshesOnlyRequestedKinds(t *testing.T) {
	board := quote.NewBoard()
	intl, intlAdapter := newTestEntry(quote.KindInternational, board, time.Hour)
	bullion, bullionAdapter := newTestEntry(quote.KindBullion, board, time.Hour)

	s := New([]Entry{intl, bullion}, zerolog.Nop())
	s.Force(context.Background(), quote.KindBullion)

	if len(bullionAdapter.calls) != 1 {
		t.Errorf("bullion fetches = %d, want 1", len(bullionAdapter.calls))
	}
	if len(intlAdapter.calls) != 0 {
		t.Errorf("international fetches = %d, want 0", len(intlAdapter.calls))
	}
}

func TestForceWithoutKindsRefreshesAll(t *testing.T) {
	board := quote.NewBoard()
	intl, intlAdapter := newTestEntry(quote.KindInternational, board, time.Hour)
	bullion, bullionAdapter := newTestEntry(quote.KindBullion, board, time.Hour)

	s := New([]Entry{intl, bullion}, zerolog.Nop())
	s.Force(context.Background())

	if len(intlAdapter.calls) != 1 || len(bullionAdapter.calls) != 1 {
		t.Errorf("fetches = %d/%d, want 1/1", len(intlAdapter.calls), len(bullionAdapter.calls))
	}
}

func TestNewPanicsOnNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero interval")
		}
	}()
	New([]Entry{{Interval: 0}}, zerolog.Nop())
}
