// Package httpapi serves the read API over chi.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/cache"
	"goldwatcher/internal/catalog"
	"goldwatcher/internal/quote"
	"goldwatcher/internal/variance"
)

const conversionNote = "International: gold futures (GC=F) converted from USD/oz to INR/g using real-time exchange rate. 1 troy oz = 31.1035g."

// Historian reads persisted quotations. Nil means no history backend.
type Historian interface {
	History(ctx context.Context, kind quote.Kind, since time.Time) ([]quote.Quotation, error)
}

// Forcer triggers synchronous refreshes of the named kinds.
type Forcer interface {
	Force(ctx context.Context, kinds ...quote.Kind)
}

// Options wire the API server.
type Options struct {
	Addr              string
	Board             *quote.Board
	Forcer            Forcer
	Synthesizer       *catalog.Synthesizer
	Historian         Historian
	Cache             cache.Cache
	VarianceThreshold decimal.Decimal
	DealsLimit        int
	DealsCacheTTL     time.Duration
	FallbackBaseline  decimal.Decimal
}

// Server is the HTTP read API.
type Server struct {
	opts   Options
	router chi.Router
	logger zerolog.Logger
}

// NewServer constructs the API server and its routes.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.DealsLimit <= 0 {
		opts.DealsLimit = 20
	}
	if opts.DealsCacheTTL <= 0 {
		opts.DealsCacheTTL = 30 * time.Second
	}

	s := &Server{
		opts:   opts,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/spot", s.handleSpot)
		r.Get("/spot/history", s.handleSpotHistory)
		r.Get("/deals", s.handleDeals)
		r.Get("/compare", s.handleCompare)
		r.Get("/platforms", s.handlePlatforms)
		r.Get("/alerts", s.handleAlerts)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type internationalView struct {
	PriceINR  decimal.Decimal `json:"priceINR"`
	PriceUSD  decimal.Decimal `json:"priceUSD"`
	Source    string          `json:"source"`
	Degraded  bool            `json:"degraded"`
	Timestamp time.Time       `json:"timestamp"`
	Note      string          `json:"note"`
}

type bullionView struct {
	Gold999   decimal.Decimal `json:"gold999"`
	Gold995   decimal.Decimal `json:"gold995"`
	Gold916   decimal.Decimal `json:"gold916"`
	Gold750   decimal.Decimal `json:"gold750"`
	RateType  string          `json:"rateType"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

type jewellerView struct {
	Gold24K   decimal.Decimal `json:"gold24k"`
	Gold22K   decimal.Decimal `json:"gold22k"`
	Gold18K   decimal.Decimal `json:"gold18k"`
	Silver    decimal.Decimal `json:"silver"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

type spotView struct {
	International *internationalView       `json:"international"`
	IBJA          *bullionView             `json:"ibja"`
	Jewellers     map[string]*jewellerView `json:"jewellers"`
}

func (s *Server) handleSpot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("force") == "true" && s.opts.Forcer != nil {
		s.opts.Forcer.Force(r.Context())
	}

	view := s.spotView()
	if view.International == nil {
		writeError(w, http.StatusServiceUnavailable, "Spot price not available yet")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		spotView
		ConversionNote string `json:"conversionNote"`
	}{spotView: view, ConversionNote: conversionNote})
}

func (s *Server) spotView() spotView {
	snapshot := s.opts.Board.Snapshot()
	view := spotView{Jewellers: make(map[string]*jewellerView)}

	if q, ok := snapshot[quote.KindInternational]; ok {
		view.International = &internationalView{
			PriceINR:  q.PricePerGram,
			PriceUSD:  q.PriceUSD,
			Source:    q.Source,
			Degraded:  q.Degraded,
			Timestamp: q.FetchedAt,
			Note:      conversionNote,
		}
	}
	if q, ok := snapshot[quote.KindBullion]; ok && q.Tiers != nil {
		view.IBJA = &bullionView{
			Gold999:   q.Tiers.Gold999,
			Gold995:   q.Tiers.Gold995,
			Gold916:   q.Tiers.Gold916,
			Gold750:   q.Tiers.Gold750,
			RateType:  q.Tiers.RateType,
			Source:    q.Source,
			Timestamp: q.FetchedAt,
		}
	}
	for kind, q := range snapshot {
		name := kind.RetailerName()
		if name == "" {
			continue
		}
		jv := &jewellerView{
			Gold24K:   q.PricePerGram,
			Silver:    q.Silver,
			Source:    q.Source,
			Timestamp: q.FetchedAt,
		}
		if q.Tiers != nil {
			jv.Gold22K = q.Tiers.Gold916
			jv.Gold18K = q.Tiers.Gold750
		}
		view.Jewellers[name] = jv
	}
	return view
}

func (s *Server) handleSpotHistory(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	if s.opts.Historian == nil {
		writeJSON(w, http.StatusOK, []quote.Quotation{})
		return
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	history, err := s.opts.Historian.History(r.Context(), quote.KindInternational, since)
	if err != nil {
		s.logger.Error().Err(err).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "Failed to get spot price history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type dealsResponse struct {
	SpotPrices  spotView          `json:"spotPrices"`
	Deals       []catalog.Product `json:"deals"`
	TotalDeals  int               `json:"totalDeals"`
	PriceSource string            `json:"priceSource"`
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", s.opts.DealsLimit)
	maxPremium := queryOptionalDecimal(r, "max_premium")

	capKey := "none"
	if maxPremium != nil {
		capKey = maxPremium.String()
	}
	cacheKey := "deals:" + strconv.Itoa(limit) + ":" + capKey
	var cached dealsResponse
	if s.opts.Cache.Get(r.Context(), cacheKey, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	baseline, source := s.baseline()
	all, err := s.opts.Synthesizer.Deals(r.Context(), baseline, 0, maxPremium)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidBaseline) {
			writeError(w, http.StatusServiceUnavailable, "Baseline rate not available yet")
			return
		}
		s.logger.Error().Err(err).Msg("deal synthesis failed")
		writeError(w, http.StatusInternalServerError, "Failed to get deals")
		return
	}

	top := all
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}

	resp := dealsResponse{
		SpotPrices:  s.spotView(),
		Deals:       top,
		TotalDeals:  len(all),
		PriceSource: source,
	}
	s.opts.Cache.Set(r.Context(), cacheKey, resp, s.opts.DealsCacheTTL)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	weight := queryDecimal(r, "weight", decimal.NewFromInt(1))
	purity := r.URL.Query().Get("purity")

	baseline, _ := s.baseline()
	comparison, err := s.opts.Synthesizer.Compare(r.Context(), baseline, weight, purity)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidBaseline) {
			writeError(w, http.StatusServiceUnavailable, "Baseline rate not available yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to compare prices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"spotPrice":  baseline,
		"comparison": comparison,
	})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	platforms := catalog.Platforms(s.opts.Synthesizer.Entries(r.Context()))
	writeJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := variance.Evaluate(s.opts.Board.Snapshot(), s.opts.VarianceThreshold)
	if alerts == nil {
		alerts = []variance.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":           alerts,
		"thresholdPercent": s.opts.VarianceThreshold,
	})
}

// baseline picks the per-gram rate deals are priced against: the bullion
// 999 rate when present, the international rate otherwise, the configured
// fallback as the last resort.
func (s *Server) baseline() (decimal.Decimal, string) {
	if q, ok := s.opts.Board.Get(quote.KindBullion); ok {
		if q.Tiers != nil && q.Tiers.Gold999.Sign() > 0 {
			return q.Tiers.Gold999, "IBJA Gold 999 Rate"
		}
		if q.PricePerGram.Sign() > 0 {
			return q.PricePerGram, "IBJA Gold 999 Rate"
		}
	}
	if q, ok := s.opts.Board.Get(quote.KindInternational); ok && q.PricePerGram.Sign() > 0 {
		return q.PricePerGram, "International Spot"
	}
	return s.opts.FallbackBaseline, "Fallback Constant"
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryDecimal(r *http.Request, key string, def decimal.Decimal) decimal.Decimal {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return def
	}
	return v
}

// queryOptionalDecimal distinguishes an absent parameter from a zero value.
func queryOptionalDecimal(r *http.Request, key string) *decimal.Decimal {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
