package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

// Moneycontrol scrapes the MCX gold price (per 10 grams) from the
// moneycontrol commodity page.
type Moneycontrol struct {
	baseURL string
	logger  zerolog.Logger
	client  *Client
}

// NewMoneycontrol constructs the scrape adapter.
func NewMoneycontrol(baseURL string, client *Client, logger zerolog.Logger) *Moneycontrol {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://www.moneycontrol.com/commodity/gold-price.html"
	}
	return &Moneycontrol{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "moneycontrol_adapter").Logger(),
		client:  client,
	}
}

// Name implements Adapter.
func (m *Moneycontrol) Name() string { return "moneycontrol.com" }

// Fetch implements Adapter.
func (m *Moneycontrol) Fetch(ctx context.Context) (quote.Quotation, error) {
	resp, err := m.client.Get(ctx, m.baseURL)
	if err != nil {
		return quote.Quotation{}, failf(m.Name(), "page request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(m.Name(), fmt.Sprintf("page status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return quote.Quotation{}, failf(m.Name(), "read page", err)
	}

	html := string(body)
	perTenGrams, ok := extractAfterMarker(html, "pricupd", 300)
	if !ok {
		perTenGrams, ok = extractAfterMarker(html, "commodity_price", 300)
	}
	if !ok {
		return quote.Quotation{}, failf(m.Name(), "could not parse mcx rate", nil)
	}

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: convert.PerTenGramsToPerGram(perTenGrams),
		Source:       m.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// extractAfterMarker finds the first plausible price following marker in
// html, scanning at most window bytes.
func extractAfterMarker(html, marker string, window int) (decimal.Decimal, bool) {
	idx := strings.Index(html, marker)
	if idx < 0 {
		return decimal.Decimal{}, false
	}
	start := idx + len(marker)
	end := start + window
	if end > len(html) {
		end = len(html)
	}
	return ExtractPrice(html[start:end])
}

var _ Adapter = (*Moneycontrol)(nil)
