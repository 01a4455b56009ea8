package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrInvalidBaseline is returned when synthesis is attempted before any
// positive baseline rate exists.
var ErrInvalidBaseline = errors.New("catalog: baseline rate must be positive")

// Product is a synthesized listing: an Entry priced against a baseline.
type Product struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Weight              decimal.Decimal `json:"weight"`
	Purity              string          `json:"purity"`
	PricePerGram        decimal.Decimal `json:"pricePerGram"`
	PremiumPct          decimal.Decimal `json:"premiumPercent"`
	ProductURL          string          `json:"productUrl"`
	ImageURL            string          `json:"imageUrl"`
	Platform            string          `json:"platform"`
	PlatformDisplayName string          `json:"platformDisplayName"`
	PriceSource         string          `json:"priceSource"`
	LastUpdated         time.Time       `json:"lastUpdated"`
}

// Synthesizer prices the catalog against a baseline per-gram rate.
type Synthesizer struct {
	entries  []Entry
	provider Provider
	logger   zerolog.Logger
}

// SynthesizerOptions wire a Synthesizer. Entries defaults to the verified
// static set; Provider, when present, supplements it with live entries.
type SynthesizerOptions struct {
	Entries  []Entry
	Provider Provider
}

// NewSynthesizer constructs a Synthesizer.
func NewSynthesizer(opts SynthesizerOptions, logger zerolog.Logger) *Synthesizer {
	entries := opts.Entries
	if entries == nil {
		entries = Entries()
	}
	return &Synthesizer{
		entries:  entries,
		provider: opts.Provider,
		logger:   logger.With().Str("component", "synthesizer").Logger(),
	}
}

// Entries returns the full working set, static plus provider-supplied.
// Provider failures fall back to the static set alone.
func (s *Synthesizer) Entries(ctx context.Context) []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	if s.provider != nil {
		extra, err := s.provider.Entries(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("live catalog provider failed, using static set")
		} else {
			out = append(out, extra...)
		}
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// Synthesize prices every entry against baseline and returns the listing
// sorted by per-gram price ascending. The premium percent is recomputed
// from the rounded per-gram price so it matches what the buyer pays.
func (s *Synthesizer) Synthesize(ctx context.Context, baseline decimal.Decimal) ([]Product, error) {
	if baseline.Sign() <= 0 {
		return nil, ErrInvalidBaseline
	}

	entries := s.Entries(ctx)
	now := time.Now().UTC()

	out := make([]Product, 0, len(entries))
	for _, e := range entries {
		perGram := baseline.Mul(decimal.NewFromInt(1).Add(e.PremiumPct.Div(hundred))).Round(0)
		premium := perGram.Sub(baseline).Div(baseline).Mul(hundred).Round(1)

		out = append(out, Product{
			ID:                  e.ID,
			Name:                e.Name,
			Price:               perGram.Mul(e.Weight),
			Weight:              e.Weight,
			Purity:              e.Purity,
			PricePerGram:        perGram,
			PremiumPct:          premium,
			ProductURL:          e.ProductURL,
			ImageURL:            e.ImageURL,
			Platform:            e.Platform,
			PlatformDisplayName: e.PlatformDisplayName,
			PriceSource:         "baseline-estimate",
			LastUpdated:         now,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PricePerGram.LessThan(out[j].PricePerGram)
	})
	return out, nil
}

// Deals returns up to limit products ranked by premium ascending. A non-nil
// maxPremium drops anything with a premium above it; zero and negative caps
// are valid filters.
func (s *Synthesizer) Deals(ctx context.Context, baseline decimal.Decimal, limit int, maxPremium *decimal.Decimal) ([]Product, error) {
	products, err := s.Synthesize(ctx, baseline)
	if err != nil {
		return nil, err
	}

	filtered := products[:0]
	for _, p := range products {
		if maxPremium != nil && p.PremiumPct.GreaterThan(*maxPremium) {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PremiumPct.LessThan(filtered[j].PremiumPct)
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// weightTolerance is how far a product's weight may sit from the requested
// one and still count as comparable.
var weightTolerance = decimal.NewFromFloat(0.1)

// Compare returns the products matching weight (within tolerance) and
// purity substring, ranked by premium ascending.
func (s *Synthesizer) Compare(ctx context.Context, baseline, weight decimal.Decimal, purity string) ([]Product, error) {
	products, err := s.Synthesize(ctx, baseline)
	if err != nil {
		return nil, err
	}

	matched := products[:0]
	for _, p := range products {
		if p.Weight.Sub(weight).Abs().GreaterThan(weightTolerance) {
			continue
		}
		if purity != "" && !strings.Contains(p.Purity, purity) {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PremiumPct.LessThan(matched[j].PremiumPct)
	})
	return matched, nil
}
