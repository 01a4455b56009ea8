package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"goldwatcher/internal/quote"
)

func newTestCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(Options{Addr: mr.Addr()}, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Price string `json:"price"`
	}
	c.Set(ctx, "deals:latest", payload{Price: "15450"}, 30*time.Second)

	var got payload
	require.True(t, c.Get(ctx, "deals:latest", &got))
	require.Equal(t, "15450", got.Price)
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got map[string]string
	require.False(t, c.Get(context.Background(), "absent", &got))
}

func TestGetSwallowsConnectionErrors(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got map[string]string
	require.False(t, c.Get(context.Background(), "any", &got))
}

func TestStoreMirrorsQuotationAndPublishes(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	sub := c.client.Subscribe(ctx, DealsChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	q := quote.Quotation{
		Kind:         quote.KindBullion,
		PricePerGram: decimal.NewFromInt(15580),
		Source:       "ibjarates.com",
		FetchedAt:    time.Now().UTC().Truncate(time.Second),
	}
	c.Store(ctx, q)

	var got quote.Quotation
	require.True(t, c.Get(ctx, QuoteKey(quote.KindBullion), &got))
	require.True(t, got.PricePerGram.Equal(decimal.NewFromInt(15580)))
	require.Equal(t, "ibjarates.com", got.Source)

	select {
	case msg := <-sub.Channel():
		require.Contains(t, msg.Payload, string(quote.KindBullion))
	case <-time.After(2 * time.Second):
		t.Fatal("no pub/sub message received")
	}

	require.True(t, mr.Exists(QuoteKey(quote.KindBullion)))
}

func TestSetTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "deals:latest", map[string]string{"a": "b"}, 30*time.Second)
	mr.FastForward(time.Minute)

	var got map[string]string
	require.False(t, c.Get(ctx, "deals:latest", &got))
}

func TestNoopNeverHits(t *testing.T) {
	var n Noop
	ctx := context.Background()

	n.Set(ctx, "k", "v", time.Second)
	n.Store(ctx, quote.Quotation{Kind: quote.KindBullion})
	n.PublishDeals(ctx, "x")

	var got string
	require.False(t, n.Get(ctx, "k", &got))
}
