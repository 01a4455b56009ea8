package reconcile

import (
	"github.com/shopspring/decimal"

	"goldwatcher/internal/quote"
)

// DefaultFallbacks returns the hardcoded per-kind quotations served when a
// chain has never produced a value. The figures are deliberately plausible
// board rates rather than zeros: downstream synthesis divides by them.
func DefaultFallbacks() map[quote.Kind]quote.Quotation {
	return map[quote.Kind]quote.Quotation{
		quote.KindInternational: {
			Kind:         quote.KindInternational,
			PricePerGram: decimal.NewFromInt(14500),
			PriceUSD:     decimal.NewFromInt(160),
		},
		quote.KindBullion: {
			Kind:         quote.KindBullion,
			PricePerGram: decimal.NewFromInt(15580),
			Tiers: &quote.Tiers{
				Gold999:  decimal.NewFromInt(15580),
				Gold995:  decimal.NewFromInt(15518),
				Gold916:  decimal.NewFromInt(14271),
				Gold750:  decimal.NewFromInt(11685),
				RateType: "closing",
			},
		},
		quote.KindPNG: {
			Kind:         quote.KindPNG,
			PricePerGram: decimal.NewFromInt(15380),
			Tiers: &quote.Tiers{
				Gold999: decimal.NewFromInt(15380),
				Gold916: decimal.NewFromInt(14100),
			},
			Silver: decimal.NewFromInt(185),
		},
		quote.KindBhima: {
			Kind:         quote.KindBhima,
			PricePerGram: decimal.NewFromInt(15580),
			Tiers: &quote.Tiers{
				Gold999: decimal.NewFromInt(15580),
				Gold916: decimal.NewFromInt(13818),
				Gold750: decimal.NewFromInt(11418),
			},
			Silver: decimal.NewFromInt(750),
		},
		quote.KindKalyan: {
			Kind:         quote.KindKalyan,
			PricePerGram: decimal.NewFromInt(15578),
			Tiers: &quote.Tiers{
				Gold999: decimal.NewFromInt(15578),
				Gold916: decimal.NewFromInt(14280),
			},
		},
	}
}
