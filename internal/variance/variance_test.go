package variance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"goldwatcher/internal/quote"
)

func snapshotWith(prices map[quote.Kind]int64) map[quote.Kind]quote.Quotation {
	now := time.Now().UTC()
	out := make(map[quote.Kind]quote.Quotation, len(prices))
	for kind, price := range prices {
		out[kind] = quote.Quotation{
			Kind:         kind,
			PricePerGram: decimal.NewFromInt(price),
			Source:       string(kind),
			FetchedAt:    now,
		}
	}
	return out
}

func TestEvaluateFlagsWideDrift(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindBullion: 15580,
		quote.KindPNG:     16900, // +8.47%, above threshold
		quote.KindBhima:   16400, // +5.26%, below threshold
	})

	alerts := Evaluate(snapshot, decimal.NewFromFloat(8.0))
	require.Len(t, alerts, 1)
	require.Equal(t, quote.KindPNG, alerts[0].Kind)
	require.True(t, alerts[0].DeltaPct.Equal(decimal.NewFromFloat(8.47)),
		"delta = %s", alerts[0].DeltaPct)
	require.True(t, alerts[0].BaselineRate.Equal(decimal.NewFromInt(15580)))
}

func TestEvaluateSortsWidestFirst(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindBullion:       15000,
		quote.KindPNG:           16500, // +10%
		quote.KindInternational: 18000, // +20%
		quote.KindKalyan:        13000, // -13.33%
	})

	alerts := Evaluate(snapshot, decimal.NewFromFloat(8.0))
	require.Len(t, alerts, 3)
	require.Equal(t, quote.KindInternational, alerts[0].Kind)
	require.Equal(t, quote.KindKalyan, alerts[1].Kind)
	require.Equal(t, quote.KindPNG, alerts[2].Kind)
}

func TestEvaluateUsesPublished999Tier(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindBullion: 15000,
	})
	// Headline price differs from the 999 tier; the tier wins.
	snapshot[quote.KindPNG] = quote.Quotation{
		Kind:         quote.KindPNG,
		PricePerGram: decimal.NewFromInt(15000),
		Tiers:        &quote.Tiers{Gold999: decimal.NewFromInt(17000)},
		FetchedAt:    time.Now().UTC(),
	}

	alerts := Evaluate(snapshot, decimal.NewFromFloat(8.0))
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].Rate.Equal(decimal.NewFromInt(17000)))
}

func TestEvaluateThresholdUsesUnroundedDelta(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindBullion: 10000,
	})
	// Drift of 8.004% sits above the 8.0 threshold even though it rounds
	// down to 8.00 for display.
	snapshot[quote.KindPNG] = quote.Quotation{
		Kind:         quote.KindPNG,
		PricePerGram: decimal.NewFromFloat(10800.4),
		FetchedAt:    time.Now().UTC(),
	}

	alerts := Evaluate(snapshot, decimal.NewFromFloat(8.0))
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].DeltaPct.Equal(decimal.NewFromInt(8)),
		"delta = %s", alerts[0].DeltaPct)
}

func TestEvaluateWithoutBullionBaseline(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindInternational: 15000,
		quote.KindPNG:           20000,
	})
	require.Empty(t, Evaluate(snapshot, decimal.NewFromFloat(8.0)))
}

func TestEvaluateDefaultThreshold(t *testing.T) {
	snapshot := snapshotWith(map[quote.Kind]int64{
		quote.KindBullion: 15000,
		quote.KindPNG:     16300, // +8.67%
	})

	alerts := Evaluate(snapshot, decimal.Zero)
	require.Len(t, alerts, 1)
}
