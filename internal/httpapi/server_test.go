package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/catalog"
	"goldwatcher/internal/quote"
)

type fakeForcer struct {
	forced [][]quote.Kind
}

func (f *fakeForcer) Force(_ context.Context, kinds ...quote.Kind) {
	f.forced = append(f.forced, kinds)
}

type fakeHistorian struct {
	quotes []quote.Quotation
	err    error
}

func (f *fakeHistorian) History(context.Context, quote.Kind, time.Time) ([]quote.Quotation, error) {
	return f.quotes, f.err
}

func testServer(board *quote.Board) *Server {
	entries := []catalog.Entry{
		{
			ID:         "coin-1g",
			Name:       "Coin 1g",
			Weight:     decimal.NewFromInt(1),
			Purity:     "24K (999)",
			Platform:   "shop",
			PremiumPct: decimal.NewFromFloat(3.0),
		},
	}
	return NewServer(Options{
		Board:             board,
		Synthesizer:       catalog.NewSynthesizer(catalog.SynthesizerOptions{Entries: entries}, zerolog.Nop()),
		VarianceThreshold: decimal.NewFromFloat(8.0),
	}, zerolog.Nop())
}

func seedBoard(board *quote.Board) {
	now := time.Now().UTC()
	board.Put(quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: decimal.NewFromInt(15000),
		PriceUSD:     decimal.NewFromInt(165),
		Source:       "yahoo-finance",
		FetchedAt:    now,
	})
	board.Put(quote.Quotation{
		Kind:         quote.KindBullion,
		PricePerGram: decimal.NewFromInt(15580),
		Source:       "ibjarates.com",
		FetchedAt:    now,
		Tiers: &quote.Tiers{
			Gold999:  decimal.NewFromInt(15580),
			Gold916:  decimal.NewFromInt(14271),
			RateType: "closing",
		},
	})
	board.Put(quote.Quotation{
		Kind:         quote.KindPNG,
		PricePerGram: decimal.NewFromInt(15380),
		Source:       "P N Gadgil & Sons",
		FetchedAt:    now,
		Tiers:        &quote.Tiers{Gold916: decimal.NewFromInt(14100)},
		Silver:       decimal.NewFromInt(185),
	})
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(quote.NewBoard())
	rec := doRequest(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSpotUnavailableBeforeFirstFetch(t *testing.T) {
	s := testServer(quote.NewBoard())
	rec := doRequest(t, s, "/v1/spot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSpotReturnsBoardState(t *testing.T) {
	board := quote.NewBoard()
	seedBoard(board)
	s := testServer(board)

	rec := doRequest(t, s, "/v1/spot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body struct {
		International struct {
			PriceINR string `json:"priceINR"`
			Source   string `json:"source"`
		} `json:"international"`
		IBJA struct {
			Gold999  string `json:"gold999"`
			RateType string `json:"rateType"`
		} `json:"ibja"`
		Jewellers map[string]struct {
			Gold24K string `json:"gold24k"`
			Gold22K string `json:"gold22k"`
		} `json:"jewellers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.International.PriceINR != "15000" {
		t.Errorf("international = %s", body.International.PriceINR)
	}
	if body.IBJA.Gold999 != "15580" || body.IBJA.RateType != "closing" {
		t.Errorf("ibja = %+v", body.IBJA)
	}
	if body.Jewellers["png"].Gold24K != "15380" {
		t.Errorf("png = %+v", body.Jewellers["png"])
	}
}

func TestSpotForceTriggersRefresh(t *testing.T) {
	board := quote.NewBoard()
	seedBoard(board)
	s := testServer(board)
	forcer := &fakeForcer{}
	s.opts.Forcer = forcer

	doRequest(t, s, "/v1/spot?force=true")
	if len(forcer.forced) != 1 {
		t.Fatalf("force calls = %d, want 1", len(forcer.forced))
	}

	doRequest(t, s, "/v1/spot")
	if len(forcer.forced) != 1 {
		t.Fatal("plain spot request must not force a refresh")
	}
}

func TestSpotHistoryWithoutBackend(t *testing.T) {
	s := testServer(quote.NewBoard())
	rec := doRequest(t, s, "/v1/spot/history?hours=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "[]\n" {
		t.Errorf("body = %q, want empty array", rec.Body.String())
	}
}

func TestSpotHistoryFromBackend(t *testing.T) {
	board := quote.NewBoard()
	s := testServer(board)
	s.opts.Historian = &fakeHistorian{quotes: []quote.Quotation{
		{Kind: quote.KindInternational, PricePerGram: decimal.NewFromInt(15000)},
	}}

	rec := doRequest(t, s, "/v1/spot/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var quotes []quote.Quotation
	if err := json.Unmarshal(rec.Body.Bytes(), &quotes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d, want 1", len(quotes))
	}
}

func TestDealsUsesBullionBaseline(t *testing.T) {
	board := quote.NewBoard()
	seedBoard(board)
	s := testServer(board)

	rec := doRequest(t, s, "/v1/deals")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body struct {
		Deals []struct {
			PricePerGram string `json:"pricePerGram"`
		} `json:"deals"`
		TotalDeals  int    `json:"totalDeals"`
		PriceSource string `json:"priceSource"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.PriceSource != "IBJA Gold 999 Rate" {
		t.Errorf("price source = %s", body.PriceSource)
	}
	if body.TotalDeals != 1 {
		t.Fatalf("total deals = %d", body.TotalDeals)
	}
	// 15580 * 1.03 = 16047.4 -> 16047
	if body.Deals[0].PricePerGram != "16047" {
		t.Errorf("per gram = %s", body.Deals[0].PricePerGram)
	}
}

func TestDealsZeroMaxPremiumFilters(t *testing.T) {
	board := quote.NewBoard()
	seedBoard(board)
	s := testServer(board)

	// max_premium=0 is a real cap, not "no filter": the 3% test entry
	// must be dropped.
	rec := doRequest(t, s, "/v1/deals?max_premium=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body struct {
		Deals      []json.RawMessage `json:"deals"`
		TotalDeals int               `json:"totalDeals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalDeals != 0 || len(body.Deals) != 0 {
		t.Fatalf("deals = %d/%d, want none under a zero cap", len(body.Deals), body.TotalDeals)
	}
}

func TestDealsUnavailableWithoutBaseline(t *testing.T) {
	s := testServer(quote.NewBoard())
	rec := doRequest(t, s, "/v1/deals")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCompareFiltersAndPrices(t *testing.T) {
	board := quote.NewBoard()
	seedBoard(board)
	s := testServer(board)

	rec := doRequest(t, s, "/v1/compare?weight=1&purity=24K")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		SpotPrice  string `json:"spotPrice"`
		Comparison []struct {
			ID string `json:"id"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SpotPrice != "15580" {
		t.Errorf("spot price = %s", body.SpotPrice)
	}
	if len(body.Comparison) != 1 {
		t.Fatalf("comparison rows = %d", len(body.Comparison))
	}
}

func TestPlatformsListing(t *testing.T) {
	s := testServer(quote.NewBoard())
	rec := doRequest(t, s, "/v1/platforms")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Platforms []catalog.Platform `json:"platforms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Platforms) != 1 || body.Platforms[0].ID != "shop" {
		t.Errorf("platforms = %+v", body.Platforms)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	board := quote.NewBoard()
	now := time.Now().UTC()
	board.Put(quote.Quotation{
		Kind:         quote.KindBullion,
		PricePerGram: decimal.NewFromInt(15000),
		FetchedAt:    now,
	})
	board.Put(quote.Quotation{
		Kind:         quote.KindPNG,
		PricePerGram: decimal.NewFromInt(16900),
		FetchedAt:    now,
	})
	s := testServer(board)

	rec := doRequest(t, s, "/v1/alerts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Alerts []struct {
			Kind     string `json:"kind"`
			DeltaPct string `json:"deltaPercent"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(body.Alerts))
	}
	if body.Alerts[0].Kind != string(quote.KindPNG) {
		t.Errorf("alert kind = %s", body.Alerts[0].Kind)
	}
}
