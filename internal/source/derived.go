package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

// DerivedOptions parameterise a forex-derived estimate adapter.
type DerivedOptions struct {
	Label             string
	RatesURL          string
	ReferenceOunceUSD decimal.Decimal
	Timeout           time.Duration
}

// Derived estimates the INR/gram price from a live USD/INR rate and a
// configured reference USD-per-ounce price. It sits low in the chain: a
// crude estimate, but one that only needs a currency API to be up. Two
// instances cover exchangerate-api and open.er-api, matching the free
// sources the chain was built around.
type Derived struct {
	opts   DerivedOptions
	logger zerolog.Logger
	client *http.Client
}

// NewDerived constructs a forex-derived adapter.
func NewDerived(opts DerivedOptions, logger zerolog.Logger) *Derived {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.ReferenceOunceUSD.Sign() <= 0 {
		opts.ReferenceOunceUSD = decimal.NewFromInt(2350)
	}
	return &Derived{
		opts:   opts,
		logger: logger.With().Str("component", "derived_adapter").Str("label", opts.Label).Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Name implements Adapter.
func (d *Derived) Name() string { return d.opts.Label }

// Fetch implements Adapter. Unlike the conversion adapters, the forex call
// here is the primary fetch: if it fails the adapter fails and the chain
// moves on.
func (d *Derived) Fetch(ctx context.Context) (quote.Quotation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.opts.RatesURL, nil)
	if err != nil {
		return quote.Quotation{}, failf(d.Name(), "build request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return quote.Quotation{}, failf(d.Name(), "rates request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(d.Name(), fmt.Sprintf("rates status %d", resp.StatusCode), nil)
	}

	var payload forexResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quotation{}, failf(d.Name(), "decode rates", err)
	}

	inr, ok := payload.Rates["INR"]
	if !ok || inr <= 0 {
		return quote.Quotation{}, failf(d.Name(), "missing INR rate", nil)
	}

	perGramUSD := convert.PerOunceToPerGram(d.opts.ReferenceOunceUSD)
	perGramINR := convert.ApplyExchangeRate(perGramUSD, decimal.NewFromFloat(inr))

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: perGramINR,
		PriceUSD:     perGramUSD,
		Source:       d.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

var _ Adapter = (*Derived)(nil)
