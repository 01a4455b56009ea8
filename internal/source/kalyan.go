package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

// Kalyan fetches today's board rate from the Kalyan Jewellers AJAX endpoint.
// The endpoint only publishes a 22K rate, so the 24K figure is derived by
// scaling up to a 999 basis.
type Kalyan struct {
	baseURL string
	logger  zerolog.Logger
	client  *Client
}

// NewKalyan constructs the Kalyan adapter.
func NewKalyan(baseURL string, client *Client, logger zerolog.Logger) *Kalyan {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://www.kalyanjewellers.net/ajax/get_rate.php"
	}
	return &Kalyan{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "kalyan_adapter").Logger(),
		client:  client,
	}
}

// Name implements Adapter.
func (k *Kalyan) Name() string { return "kalyanjewellers.net" }

type kalyanResponse struct {
	Today22K  string `json:"today_22k"`
	PlaceName string `json:"place_name"`
}

// Fetch implements Adapter.
func (k *Kalyan) Fetch(ctx context.Context) (quote.Quotation, error) {
	form := "countryId=1&stateId=1&cityId=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL, strings.NewReader(form))
	if err != nil {
		return quote.Quotation{}, failf(k.Name(), "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*")

	resp, err := k.client.Do(req)
	if err != nil {
		return quote.Quotation{}, failf(k.Name(), "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(k.Name(), fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload kalyanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return quote.Quotation{}, failf(k.Name(), "decode response", err)
	}

	// today_22k reads like "INR 14280.00".
	rate22, ok := ExtractPrice(payload.Today22K)
	if !ok || rate22.Sign() <= 0 {
		return quote.Quotation{}, failf(k.Name(), "could not parse 22k rate", nil)
	}
	rate24 := convert.Karat22To24(rate22)

	source := "Kalyan Jewellers"
	if payload.PlaceName != "" {
		source = fmt.Sprintf("Kalyan Jewellers (%s)", payload.PlaceName)
	}

	k.logger.Debug().
		Str("gold_22k", rate22.String()).
		Str("gold_24k_derived", rate24.String()).
		Msg("kalyan rate parsed")

	return quote.Quotation{
		Kind:         quote.KindKalyan,
		PricePerGram: rate24,
		Source:       source,
		FetchedAt:    time.Now().UTC(),
		Tiers: &quote.Tiers{
			Gold999: rate24,
			Gold916: rate22,
		},
	}, nil
}

var _ Adapter = (*Kalyan)(nil)
