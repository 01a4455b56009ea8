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

	"goldwatcher/internal/quote"
)

// PNG fetches the P N Gadgil & Sons board rates from the droidinfinity
// price-editor API. This is one of the few retailers with a JSON endpoint,
// so no scraping is involved.
type PNG struct {
	baseURL string
	logger  zerolog.Logger
	client  *Client
}

// NewPNG constructs the PNG adapter.
func NewPNG(baseURL string, client *Client, logger zerolog.Logger) *PNG {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://goldpriceeditor.droidinfinity.com/api/external/metal-prices/1085"
	}
	return &PNG{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "png_adapter").Logger(),
		client:  client,
	}
}

// Name implements Adapter.
func (p *PNG) Name() string { return "pngadgil" }

type pngResponse struct {
	Success bool `json:"success"`
	Rates   struct {
		GoldPrice22K    float64 `json:"goldPrice22K"`
		GoldPrice24K    float64 `json:"goldPrice24K"`
		GoldPrice24K995 float64 `json:"goldPrice24K995"`
		GoldPrice18K    float64 `json:"goldPrice18K"`
		SilverPrice     float64 `json:"silverPrice"`
	} `json:"rates"`
	Timestamp string `json:"timestamp"`
}

// Fetch implements Adapter.
func (p *PNG) Fetch(ctx context.Context) (quote.Quotation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return quote.Quotation{}, failf(p.Name(), "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return quote.Quotation{}, failf(p.Name(), "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(p.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload pngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quotation{}, failf(p.Name(), "decode response", err)
	}
	if !payload.Success {
		return quote.Quotation{}, failf(p.Name(), "upstream reported failure", nil)
	}
	if payload.Rates.GoldPrice24K <= 0 {
		return quote.Quotation{}, failf(p.Name(), "non-positive 24k rate", nil)
	}

	var publishedAt time.Time
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
			publishedAt = ts.UTC()
		}
	}

	return quote.Quotation{
		Kind:         quote.KindPNG,
		PricePerGram: decimal.NewFromFloat(payload.Rates.GoldPrice24K),
		Source:       "P N Gadgil & Sons",
		FetchedAt:    time.Now().UTC(),
		PublishedAt:  publishedAt,
		Tiers: &quote.Tiers{
			Gold999: decimal.NewFromFloat(payload.Rates.GoldPrice24K),
			Gold995: decimal.NewFromFloat(payload.Rates.GoldPrice24K995),
			Gold916: decimal.NewFromFloat(payload.Rates.GoldPrice22K),
			Gold750: decimal.NewFromFloat(payload.Rates.GoldPrice18K),
		},
		Silver: decimal.NewFromFloat(payload.Rates.SilverPrice),
	}, nil
}

var _ Adapter = (*PNG)(nil)
