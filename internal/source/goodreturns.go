package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

// GoodReturns scrapes the 24-carat gold rate (published per 10 grams) from
// the goodreturns.in rates page. Pure marker+regex extraction; the page
// layout is the only contract.
type GoodReturns struct {
	baseURL string
	logger  zerolog.Logger
	client  *Client
}

// NewGoodReturns constructs the scrape adapter.
func NewGoodReturns(baseURL string, client *Client, logger zerolog.Logger) *GoodReturns {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://www.goodreturns.in/gold-rates/"
	}
	return &GoodReturns{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "goodreturns_adapter").Logger(),
		client:  client,
	}
}

// Name implements Adapter.
func (g *GoodReturns) Name() string { return "goodreturns.in" }

// Fetch implements Adapter.
func (g *GoodReturns) Fetch(ctx context.Context) (quote.Quotation, error) {
	resp, err := g.client.Get(ctx, g.baseURL)
	if err != nil {
		return quote.Quotation{}, failf(g.Name(), "page request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(g.Name(), fmt.Sprintf("page status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return quote.Quotation{}, failf(g.Name(), "read page", err)
	}

	perTenGrams, ok := extractAfterMarker(string(body), "24 Carat", 400)
	if !ok {
		return quote.Quotation{}, failf(g.Name(), "could not parse 24 carat rate", nil)
	}

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: convert.PerTenGramsToPerGram(perTenGrams),
		Source:       g.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}

var _ Adapter = (*GoodReturns)(nil)
