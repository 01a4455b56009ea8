// Package variance flags quotation streams that drift too far from the
// bullion reference rate.
package variance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"goldwatcher/internal/quote"
)

// DefaultThresholdPct is the drift beyond which a pair is reported.
var DefaultThresholdPct = decimal.NewFromFloat(8.0)

// Alert records one stream whose rate deviates from the bullion baseline
// by more than the threshold.
type Alert struct {
	Kind         quote.Kind      `json:"kind"`
	Source       string          `json:"source"`
	BaselineRate decimal.Decimal `json:"baselineRate"`
	Rate         decimal.Decimal `json:"rate"`
	DeltaPct     decimal.Decimal `json:"deltaPercent"`
	ObservedAt   time.Time       `json:"observedAt"`
}

var hundred = decimal.NewFromInt(100)

// Evaluate compares every non-bullion stream in the snapshot against the
// bullion 999 rate and returns the pairs drifting beyond threshold, widest
// first. Without a bullion baseline there is nothing to compare against.
func Evaluate(snapshot map[quote.Kind]quote.Quotation, threshold decimal.Decimal) []Alert {
	if threshold.Sign() <= 0 {
		threshold = DefaultThresholdPct
	}

	bullion, ok := snapshot[quote.KindBullion]
	if !ok {
		return nil
	}
	baseline := rate999(bullion)
	if baseline.Sign() <= 0 {
		return nil
	}

	var alerts []Alert
	for kind, q := range snapshot {
		if kind == quote.KindBullion {
			continue
		}
		rate := rate999(q)
		if rate.Sign() <= 0 {
			continue
		}

		// The threshold check runs on the unrounded delta; rounding is
		// display-only.
		delta := rate.Sub(baseline).Div(baseline).Mul(hundred).Abs()
		if !delta.GreaterThan(threshold) {
			continue
		}

		alerts = append(alerts, Alert{
			Kind:         kind,
			Source:       q.Source,
			BaselineRate: baseline,
			Rate:         rate,
			DeltaPct:     delta.Round(2),
			ObservedAt:   q.FetchedAt,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DeltaPct.GreaterThan(alerts[j].DeltaPct)
	})
	return alerts
}

// rate999 picks the 999-basis rate: the published 999 tier when present,
// the headline per-gram price otherwise. Kalyan's headline is already
// normalized to a 999 basis upstream.
func rate999(q quote.Quotation) decimal.Decimal {
	if q.Tiers != nil && q.Tiers.Gold999.Sign() > 0 {
		return q.Tiers.Gold999
	}
	return q.PricePerGram
}
