package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

func testClient() *Client {
	return NewClient(ClientOptions{Timeout: 2 * time.Second, RequestsSec: 1000})
}

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"₹15,000", "15000", true},
		{"INR 14280.00", "14280", true},
		{"Gold Rate: 6,789.50 per gram", "6789.5", true},
		{"no digits here", "", false},
		{"0", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractPrice(tc.in)
		if ok != tc.ok {
			t.Errorf("ExtractPrice(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got.String() != tc.want {
			t.Errorf("ExtractPrice(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestForexFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	forex := NewForex(ForexOptions{
		BaseURL:      srv.URL,
		FallbackRate: decimal.NewFromInt(83),
	}, zerolog.Nop())

	rate, degraded := forex.USDToINR(context.Background())
	if !degraded {
		t.Fatal("expected degraded flag when forex upstream is down")
	}
	if !rate.Equal(decimal.NewFromInt(83)) {
		t.Fatalf("fallback rate = %s, want 83", rate)
	}
}

func TestForexLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"rates":{"INR":84.25,"EUR":0.92}}`))
	}))
	defer srv.Close()

	forex := NewForex(ForexOptions{BaseURL: srv.URL}, zerolog.Nop())

	rate, degraded := forex.USDToINR(context.Background())
	if degraded {
		t.Fatal("unexpected degraded flag with live upstream")
	}
	if !rate.Equal(decimal.NewFromFloat(84.25)) {
		t.Fatalf("rate = %s, want 84.25", rate)
	}
}

func TestYahooFetch(t *testing.T) {
	chart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":2400.0}}]}}`))
	}))
	defer chart.Close()

	forexSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"INR":83.0}}`))
	}))
	defer forexSrv.Close()

	forex := NewForex(ForexOptions{BaseURL: forexSrv.URL}, zerolog.Nop())
	y := NewYahoo(YahooOptions{BaseURL: chart.URL}, forex, testClient(), zerolog.Nop())

	q, err := y.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	wantUSD := convert.PerOunceToPerGram(decimal.NewFromInt(2400))
	wantINR := convert.ApplyExchangeRate(wantUSD, decimal.NewFromInt(83))

	if q.Kind != quote.KindInternational {
		t.Errorf("kind = %s, want %s", q.Kind, quote.KindInternational)
	}
	if !q.PriceUSD.Equal(wantUSD) {
		t.Errorf("usd per gram = %s, want %s", q.PriceUSD, wantUSD)
	}
	if !q.PricePerGram.Equal(wantINR) {
		t.Errorf("inr per gram = %s, want %s", q.PricePerGram, wantINR)
	}
	if q.Degraded {
		t.Error("unexpected degraded flag with live forex")
	}
	if !q.Valid() {
		t.Error("quotation should be valid")
	}
}

func TestYahooDegradedForex(t *testing.T) {
	chart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":2400.0}}]}}`))
	}))
	defer chart.Close()

	forexSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer forexSrv.Close()

	forex := NewForex(ForexOptions{BaseURL: forexSrv.URL}, zerolog.Nop())
	y := NewYahoo(YahooOptions{BaseURL: chart.URL}, forex, testClient(), zerolog.Nop())

	q, err := y.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !q.Degraded {
		t.Error("expected degraded quotation when forex falls back")
	}
	if !q.Valid() {
		t.Error("degraded quotation should still carry a positive price")
	}
}

func TestYahooMissingPrice(t *testing.T) {
	chart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[]}}`))
	}))
	defer chart.Close()

	forex := NewForex(ForexOptions{}, zerolog.Nop())
	y := NewYahoo(YahooOptions{BaseURL: chart.URL}, forex, testClient(), zerolog.Nop())

	if _, err := y.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for empty chart result")
	}
}

func TestGoldAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-access-token") != "test-key" {
			t.Errorf("missing access token header")
		}
		if r.URL.Path != "/XAU/INR" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"price":195000.0,"price_gram_24k":77.16}`))
	}))
	defer srv.Close()

	g := NewGoldAPI(GoldAPIOptions{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())

	q, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := convert.PerOunceToPerGram(decimal.NewFromInt(195000))
	if !q.PricePerGram.Equal(want) {
		t.Errorf("inr per gram = %s, want %s", q.PricePerGram, want)
	}
	if !q.PriceUSD.Equal(decimal.NewFromFloat(77.16)) {
		t.Errorf("usd per gram = %s, want 77.16", q.PriceUSD)
	}
}

func TestGoldAPINotConfigured(t *testing.T) {
	g := NewGoldAPI(GoldAPIOptions{APIKey: "your_gold_api_key"}, zerolog.Nop())
	if g.Configured() {
		t.Fatal("placeholder key should not count as configured")
	}
	if _, err := g.Fetch(context.Background()); err == nil {
		t.Fatal("expected error without a real key")
	}
}

func TestDerivedFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"INR":83.0}}`))
	}))
	defer srv.Close()

	d := NewDerived(DerivedOptions{
		Label:             "calculated",
		RatesURL:          srv.URL,
		ReferenceOunceUSD: decimal.NewFromInt(2350),
	}, zerolog.Nop())

	q, err := d.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// 2350 / 31.1035 * 83 lands just under 6271 INR per gram.
	lo, hi := decimal.NewFromInt(6265), decimal.NewFromInt(6275)
	if q.PricePerGram.LessThan(lo) || q.PricePerGram.GreaterThan(hi) {
		t.Errorf("derived price = %s, want within [%s, %s]", q.PricePerGram, lo, hi)
	}
	if q.Source != "calculated" {
		t.Errorf("source = %s, want calculated", q.Source)
	}
}

func TestDerivedFailsWhenForexDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDerived(DerivedOptions{Label: "calculated", RatesURL: srv.URL}, zerolog.Nop())
	if _, err := d.Fetch(context.Background()); err == nil {
		t.Fatal("derived adapter must fail when the rates api is down")
	}
}

func TestIBJAFetch(t *testing.T) {
	page := `<html><body>
		<span id="lblrate2" class="GoldRatesCompare999">15580</span>
		<span class="GoldRatesCompare995">15518</span>
		<span class="GoldRatesCompare916">14271</span>
		<span class="GoldRatesCompare750">11685</span>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	i := NewIBJA(srv.URL, testClient(), zerolog.Nop())

	q, err := i.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != quote.KindBullion {
		t.Errorf("kind = %s, want %s", q.Kind, quote.KindBullion)
	}
	if !q.PricePerGram.Equal(decimal.NewFromInt(15580)) {
		t.Errorf("999 rate = %s, want 15580", q.PricePerGram)
	}
	if q.Tiers == nil {
		t.Fatal("expected tier breakdown")
	}
	if !q.Tiers.Gold916.Equal(decimal.NewFromInt(14271)) {
		t.Errorf("916 rate = %s, want 14271", q.Tiers.Gold916)
	}
	if q.Tiers.RateType != "closing" {
		t.Errorf("rate type = %s, want closing", q.Tiers.RateType)
	}
}

func TestIBJAMissing999(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><span class="GoldRatesCompare916">14271</span></html>`))
	}))
	defer srv.Close()

	i := NewIBJA(srv.URL, testClient(), zerolog.Nop())
	if _, err := i.Fetch(context.Background()); err == nil {
		t.Fatal("999 tier is mandatory")
	}
}

func TestPNGFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"rates": {
				"goldPrice22K": 14100.0,
				"goldPrice24K": 15380.0,
				"goldPrice24K995": 15310.0,
				"goldPrice18K": 11535.0,
				"silverPrice": 185.0
			},
			"timestamp": "2026-02-10T09:30:00Z"
		}`))
	}))
	defer srv.Close()

	p := NewPNG(srv.URL, testClient(), zerolog.Nop())

	q, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != quote.KindPNG {
		t.Errorf("kind = %s, want %s", q.Kind, quote.KindPNG)
	}
	if !q.PricePerGram.Equal(decimal.NewFromInt(15380)) {
		t.Errorf("24k rate = %s, want 15380", q.PricePerGram)
	}
	if !q.Silver.Equal(decimal.NewFromInt(185)) {
		t.Errorf("silver rate = %s, want 185", q.Silver)
	}
	wantTS := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	if !q.PublishedAt.Equal(wantTS) {
		t.Errorf("published at = %s, want %s", q.PublishedAt, wantTS)
	}
	// FetchedAt must be receipt time, never the upstream-published time.
	if q.FetchedAt.Equal(wantTS) || time.Since(q.FetchedAt) > time.Minute {
		t.Errorf("fetched at = %s, want receipt time", q.FetchedAt)
	}
}

func TestPNGUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	p := NewPNG(srv.URL, testClient(), zerolog.Nop())
	if _, err := p.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when upstream reports failure")
	}
}

func TestBhimaJSONMethod(t *testing.T) {
	page := `<script>var rates = {"metalrate2": {'rateArray': [
		{'metal': 'Gold 22 KT (916)', 'rate': '₹13,818'},
		{'metal': 'Gold 24 KT (999)', 'rate': '₹15,580'},
		{'metal': 'Gold 18 KT (750)', 'rate': '₹11,418'},
	]}};</script>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	b := NewBhima(srv.URL, testClient(), zerolog.Nop())

	q, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != quote.KindBhima {
		t.Errorf("kind = %s, want %s", q.Kind, quote.KindBhima)
	}
	if !q.PricePerGram.Equal(decimal.NewFromInt(15580)) {
		t.Errorf("24k rate = %s, want 15580", q.PricePerGram)
	}
	if !q.Tiers.Gold916.Equal(decimal.NewFromInt(13818)) {
		t.Errorf("22k rate = %s, want 13818", q.Tiers.Gold916)
	}
	// Silver is absent from the blob, so it defaults.
	if !q.Silver.Equal(decimal.NewFromInt(750)) {
		t.Errorf("silver = %s, want default 750", q.Silver)
	}
}

func TestBhimaPTagFallback(t *testing.T) {
	page := `<div>
		<p class="rate">Online Gold Rate 24 KT (999): 15,580</p>
		<p class="rate">Online Gold Rate 22 KT (916): 13,818</p>
		<p class="rate">Online Silver Rate: 812</p>
	</div>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	b := NewBhima(srv.URL, testClient(), zerolog.Nop())

	q, err := b.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !q.PricePerGram.Equal(decimal.NewFromInt(15580)) {
		t.Errorf("24k rate = %s, want 15580", q.PricePerGram)
	}
	if !q.Silver.Equal(decimal.NewFromInt(812)) {
		t.Errorf("silver = %s, want 812", q.Silver)
	}
	// 18K missing on the board, backed off from 22K.
	want18 := decimal.NewFromInt(13818 - 2400)
	if !q.Tiers.Gold750.Equal(want18) {
		t.Errorf("18k rate = %s, want %s", q.Tiers.Gold750, want18)
	}
}

func TestBhimaNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	defer srv.Close()

	b := NewBhima(srv.URL, testClient(), zerolog.Nop())
	if _, err := b.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when neither extraction method matches")
	}
}

func TestKalyanFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			t.Errorf("missing XHR header")
		}
		w.Write([]byte(`{"today_22k":"INR 14280.00","place_name":"Delhi"}`))
	}))
	defer srv.Close()

	k := NewKalyan(srv.URL, testClient(), zerolog.Nop())

	q, err := k.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Kind != quote.KindKalyan {
		t.Errorf("kind = %s, want %s", q.Kind, quote.KindKalyan)
	}

	want24 := convert.Karat22To24(decimal.NewFromInt(14280))
	if !q.PricePerGram.Equal(want24) {
		t.Errorf("derived 24k rate = %s, want %s", q.PricePerGram, want24)
	}
	if !q.Tiers.Gold916.Equal(decimal.NewFromInt(14280)) {
		t.Errorf("raw 22k rate = %s, want 14280", q.Tiers.Gold916)
	}
	if q.Source != "Kalyan Jewellers (Delhi)" {
		t.Errorf("source = %s", q.Source)
	}
}

func TestKalyanUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"today_22k":"N/A"}`))
	}))
	defer srv.Close()

	k := NewKalyan(srv.URL, testClient(), zerolog.Nop())
	if _, err := k.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for unparseable rate")
	}
}

func TestGoodReturnsFetch(t *testing.T) {
	page := `<table><tr><td>24 Carat</td><td>₹1,53,800</td><td>per 10g</td></tr></table>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	g := NewGoodReturns(srv.URL, testClient(), zerolog.Nop())

	q, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !q.PricePerGram.Equal(decimal.NewFromInt(15380)) {
		t.Errorf("per gram = %s, want 15380", q.PricePerGram)
	}
}

func TestExtractAfterMarker(t *testing.T) {
	html := `<div class="pricupd"><span>1,53,800.00</span></div>`
	got, ok := extractAfterMarker(html, "pricupd", 300)
	if !ok {
		t.Fatal("expected marker match")
	}
	if !got.Equal(decimal.NewFromInt(153800)) {
		t.Errorf("price = %s, want 153800", got)
	}

	if _, ok := extractAfterMarker(html, "absent", 300); ok {
		t.Error("expected no match for absent marker")
	}
}

func TestFailureError(t *testing.T) {
	f := failf("yahoo-finance", "chart status 502", nil)
	if f.Error() != "yahoo-finance: chart status 502" {
		t.Errorf("error string = %q", f.Error())
	}
}
