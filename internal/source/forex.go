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
)

// ForexOptions parameterise the USD/INR rate sub-fetch shared by the
// conversion-based adapters.
type ForexOptions struct {
	BaseURL      string
	FallbackRate decimal.Decimal
	Timeout      time.Duration
}

// Forex resolves the USD/INR exchange rate with a documented fallback: if
// the upstream is unreachable the configured constant is used and the
// result is flagged degraded, so a forex outage never takes down the whole
// international chain.
type Forex struct {
	opts   ForexOptions
	logger zerolog.Logger
	client *http.Client
}

// NewForex constructs the exchange-rate source.
func NewForex(opts ForexOptions, logger zerolog.Logger) *Forex {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.exchangerate-api.com/v4"
	}
	opts.BaseURL = baseURL

	if opts.FallbackRate.Sign() <= 0 {
		opts.FallbackRate = decimal.NewFromInt(83)
	}

	return &Forex{
		opts:   opts,
		logger: logger.With().Str("component", "forex").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

type forexResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// USDToINR returns the current rate and whether the fallback constant was
// used instead of a live value.
func (f *Forex) USDToINR(ctx context.Context) (decimal.Decimal, bool) {
	rate, err := f.fetch(ctx)
	if err != nil {
		f.logger.Debug().Err(err).
			Str("fallback", f.opts.FallbackRate.String()).
			Msg("forex fetch failed, using fallback rate")
		return f.opts.FallbackRate, true
	}
	return rate, false
}

func (f *Forex) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.BaseURL+"/latest/USD", nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("forex api status %d", resp.StatusCode)
	}

	var payload forexResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, err
	}

	inr, ok := payload.Rates["INR"]
	if !ok || inr <= 0 {
		return decimal.Decimal{}, fmt.Errorf("forex response missing INR rate")
	}
	return decimal.NewFromFloat(inr), nil
}
