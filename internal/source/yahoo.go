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

// YahooOptions parameterise the gold futures adapter.
type YahooOptions struct {
	BaseURL string
	Symbol  string
	Timeout time.Duration
}

// Yahoo fetches the COMEX gold futures price (GC=F) from the Yahoo Finance
// chart API and converts USD/oz to INR/gram via the forex source.
type Yahoo struct {
	opts   YahooOptions
	forex  *Forex
	logger zerolog.Logger
	client *Client
}

// NewYahoo constructs the futures adapter.
func NewYahoo(opts YahooOptions, forex *Forex, client *Client, logger zerolog.Logger) *Yahoo {
	if strings.TrimRight(opts.BaseURL, "/") == "" {
		opts.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	} else {
		opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Symbol == "" {
		opts.Symbol = "GC=F"
	}
	return &Yahoo{
		opts:   opts,
		forex:  forex,
		logger: logger.With().Str("component", "yahoo_adapter").Logger(),
		client: client,
	}
}

// Name implements Adapter.
func (y *Yahoo) Name() string { return "yahoo-finance" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// Fetch implements Adapter.
func (y *Yahoo) Fetch(ctx context.Context) (quote.Quotation, error) {
	if y.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.opts.Timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/%s?interval=1d", y.opts.BaseURL, y.opts.Symbol)
	resp, err := y.client.Get(ctx, url)
	if err != nil {
		return quote.Quotation{}, failf(y.Name(), "chart request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(y.Name(), fmt.Sprintf("chart status %d", resp.StatusCode), nil)
	}

	var payload yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quotation{}, failf(y.Name(), "decode chart response", err)
	}

	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return quote.Quotation{}, failf(y.Name(), "missing regular market price", nil)
	}

	perOunceUSD := decimal.NewFromFloat(payload.Chart.Result[0].Meta.RegularMarketPrice)
	usdToInr, degraded := y.forex.USDToINR(ctx)

	perGramUSD := convert.PerOunceToPerGram(perOunceUSD)
	perGramINR := convert.ApplyExchangeRate(perGramUSD, usdToInr)

	y.logger.Debug().
		Str("usd_per_oz", perOunceUSD.String()).
		Str("usd_inr", usdToInr.String()).
		Bool("forex_degraded", degraded).
		Msg("futures price fetched")

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: perGramINR,
		PriceUSD:     perGramUSD,
		Source:       y.Name(),
		Degraded:     degraded,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

var _ Adapter = (*Yahoo)(nil)
