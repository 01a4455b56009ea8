package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/quote"
)

// IBJA scrapes the India Bullion and Jewellers Association per-gram rates.
// The page carries four purity tiers; 999 is mandatory for the fetch to
// count as a success, the others default to zero when unparseable.
type IBJA struct {
	baseURL string
	logger  zerolog.Logger
	client  *Client
}

// NewIBJA constructs the bullion association adapter.
func NewIBJA(baseURL string, client *Client, logger zerolog.Logger) *IBJA {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://ibjarates.com"
	}
	return &IBJA{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "ibja_adapter").Logger(),
		client:  client,
	}
}

// Name implements Adapter.
func (i *IBJA) Name() string { return "ibjarates.com" }

var (
	ibja999 = regexp.MustCompile(`GoldRatesCompare999[^>]*>(\d+)`)
	ibja995 = regexp.MustCompile(`GoldRatesCompare995[^>]*>(\d+)`)
	ibja916 = regexp.MustCompile(`GoldRatesCompare916[^>]*>(\d+)`)
	ibja750 = regexp.MustCompile(`GoldRatesCompare750[^>]*>(\d+)`)
)

// Fetch implements Adapter.
func (i *IBJA) Fetch(ctx context.Context) (quote.Quotation, error) {
	resp, err := i.client.Get(ctx, i.baseURL)
	if err != nil {
		return quote.Quotation{}, failf(i.Name(), "page request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return quote.Quotation{}, failf(i.Name(), fmt.Sprintf("page status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return quote.Quotation{}, failf(i.Name(), "read page", err)
	}
	html := string(body)

	gold999, ok := matchTier(ibja999, html)
	if !ok {
		return quote.Quotation{}, failf(i.Name(), "could not parse gold 999 rate", nil)
	}

	tiers := &quote.Tiers{
		Gold999:  gold999,
		RateType: "closing",
	}
	if v, ok := matchTier(ibja995, html); ok {
		tiers.Gold995 = v
	}
	if v, ok := matchTier(ibja916, html); ok {
		tiers.Gold916 = v
	}
	if v, ok := matchTier(ibja750, html); ok {
		tiers.Gold750 = v
	}

	i.logger.Debug().
		Str("gold_999", tiers.Gold999.String()).
		Str("gold_916", tiers.Gold916.String()).
		Msg("bullion rates parsed")

	return quote.Quotation{
		Kind:         quote.KindBullion,
		PricePerGram: gold999,
		Source:       i.Name(),
		FetchedAt:    time.Now().UTC(),
		Tiers:        tiers,
	}, nil
}

func matchTier(re *regexp.Regexp, html string) (decimal.Decimal, bool) {
	m := re.FindStringSubmatch(html)
	if len(m) != 2 {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil || d.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	return d, true
}

var _ Adapter = (*IBJA)(nil)
