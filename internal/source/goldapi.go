package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

// GoldAPIOptions parameterise the keyed goldapi.io adapter.
type GoldAPIOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GoldAPI fetches XAU/INR directly from goldapi.io. Only used when an API
// key is configured; it then takes priority over the free sources.
type GoldAPI struct {
	opts   GoldAPIOptions
	logger zerolog.Logger
	client *http.Client
}

// NewGoldAPI constructs the keyed adapter.
func NewGoldAPI(opts GoldAPIOptions, logger zerolog.Logger) *GoldAPI {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimRight(opts.BaseURL, "/") == "" {
		opts.BaseURL = "https://www.goldapi.io/api"
	} else {
		opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	return &GoldAPI{
		opts:   opts,
		logger: logger.With().Str("component", "goldapi_adapter").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present.
func (g *GoldAPI) Configured() bool {
	key := strings.TrimSpace(g.opts.APIKey)
	return key != "" && key != "your_gold_api_key"
}

// Name implements Adapter.
func (g *GoldAPI) Name() string { return "goldapi.io" }

type goldAPIResponse struct {
	Price        float64 `json:"price"`
	PriceGram24K float64 `json:"price_gram_24k"`
}

// Fetch implements Adapter. The upstream quotes per troy ounce in INR.
func (g *GoldAPI) Fetch(ctx context.Context) (quote.Quotation, error) {
	if !g.Configured() {
		return quote.Quotation{}, failf(g.Name(), "api key not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"/XAU/INR", nil)
	if err != nil {
		return quote.Quotation{}, failf(g.Name(), "build request", err)
	}
	req.Header.Set("x-access-token", g.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return quote.Quotation{}, failf(g.Name(), "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(g.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload goldAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quotation{}, failf(g.Name(), "decode response", err)
	}
	if payload.Price <= 0 {
		return quote.Quotation{}, failf(g.Name(), "non-positive price", nil)
	}

	perGramINR := convert.PerOunceToPerGram(decimal.NewFromFloat(payload.Price))

	perGramUSD := decimal.Decimal{}
	if payload.PriceGram24K > 0 {
		perGramUSD = decimal.NewFromFloat(payload.PriceGram24K)
	}

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: perGramINR,
		PriceUSD:     perGramUSD,
		Source:       g.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

var _ Adapter = (*GoldAPI)(nil)
