package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"goldwatcher/internal/cache"
	"goldwatcher/internal/catalog"
	"goldwatcher/internal/config"
	"goldwatcher/internal/history"
	"goldwatcher/internal/httpapi"
	"goldwatcher/internal/quote"
	"goldwatcher/internal/reconcile"
	"goldwatcher/internal/scheduler"
	"goldwatcher/internal/source"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newScrapeClient() *source.Client {
	return source.NewClient(source.ClientOptions{
		Timeout:     a.Config.Sources.Scrape.Timeout,
		UserAgent:   a.Config.Sources.Scrape.UserAgent,
		RequestsSec: a.Config.Sources.Scrape.RequestsSec,
		SkipVerify:  a.Config.Sources.Scrape.SkipVerify,
	})
}

func (a *App) newForex() *source.Forex {
	return source.NewForex(source.ForexOptions{
		BaseURL:      a.Config.Sources.Forex.BaseURL,
		FallbackRate: decimal.NewFromFloat(a.Config.Sources.Forex.FallbackRate),
		Timeout:      a.Config.Sources.Forex.Timeout,
	}, a.Logger)
}

// internationalChain builds the international adapters in priority order.
// The keyed goldapi source leads when configured; the free sources follow
// from most to least direct.
func (a *App) internationalChain(client *source.Client, forex *source.Forex) []source.Adapter {
	srcCfg := a.Config.Sources
	reference := decimal.NewFromFloat(srcCfg.ReferenceOunceUSD)

	var chain []source.Adapter

	goldAPI := source.NewGoldAPI(source.GoldAPIOptions{
		BaseURL: srcCfg.GoldAPI.BaseURL,
		APIKey:  srcCfg.GoldAPI.APIKey,
		Timeout: srcCfg.GoldAPI.Timeout,
	}, a.Logger)
	if goldAPI.Configured() {
		chain = append(chain, goldAPI)
	}

	chain = append(chain,
		source.NewYahoo(source.YahooOptions{
			BaseURL: srcCfg.Yahoo.BaseURL,
			Timeout: srcCfg.Yahoo.Timeout,
		}, forex, client, a.Logger),
	)

	if srcCfg.Chainlink.RPCURL != "" && srcCfg.Chainlink.FeedAddress != "" {
		chain = append(chain, source.NewChainlink(source.ChainlinkOptions{
			RPCURL:      srcCfg.Chainlink.RPCURL,
			FeedAddress: srcCfg.Chainlink.FeedAddress,
			Timeout:     srcCfg.Chainlink.Timeout,
		}, forex, a.Logger))
	}

	chain = append(chain,
		source.NewDerived(source.DerivedOptions{
			Label:             "calculated",
			RatesURL:          srcCfg.Forex.BaseURL + "/latest/USD",
			ReferenceOunceUSD: reference,
			Timeout:           srcCfg.Forex.Timeout,
		}, a.Logger),
		source.NewDerived(source.DerivedOptions{
			Label:             "open-er-api",
			RatesURL:          "https://open.er-api.com/v6/latest/USD",
			ReferenceOunceUSD: reference,
			Timeout:           srcCfg.Forex.Timeout,
		}, a.Logger),
		source.NewGoodReturns("", client, a.Logger),
		source.NewMoneycontrol("", client, a.Logger),
	)

	return chain
}

type sinks struct {
	history reconcile.HistorySink
	cache   cache.Cache
	store   *history.Store
	close   func()
}

func (a *App) openSinks(ctx context.Context) (sinks, error) {
	out := sinks{
		history: reconcile.NoopHistory{},
		cache:   cache.Noop{},
		close:   func() {},
	}

	var closers []func()

	if a.Config.Database.DSN != "" {
		pool, err := history.NewPool(ctx, history.PoolConfig{
			DSN:             a.Config.Database.DSN,
			MaxOpenConns:    a.Config.Database.MaxOpenConns,
			MaxIdleConns:    a.Config.Database.MaxIdleConns,
			ConnMaxLifetime: a.Config.Database.ConnMaxLifetime,
		})
		if err != nil {
			return out, err
		}
		store := history.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return out, err
		}
		out.history = store
		out.store = store
		closers = append(closers, store.Close)
	} else {
		a.Logger.Warn().Msg("database.dsn not configured; history disabled")
	}

	if a.Config.Redis.Addr != "" {
		rc := cache.New(cache.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		}, a.Logger)
		if err := rc.Ping(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("redis unreachable; cache disabled")
			_ = rc.Close()
		} else {
			out.cache = rc
			closers = append(closers, func() { _ = rc.Close() })
		}
	}

	out.close = func() {
		for _, c := range closers {
			c()
		}
	}
	return out, nil
}

// newOrchestrators builds one orchestrator per tracked kind.
func (a *App) newOrchestrators(board *quote.Board, snk sinks) map[quote.Kind]*reconcile.Orchestrator {
	client := a.newScrapeClient()
	forex := a.newForex()

	defaults := reconcile.DefaultFallbacks()
	intlDefault := defaults[quote.KindInternational]
	intlDefault.PricePerGram = decimal.NewFromFloat(a.Config.Rates.FallbackSpotINR)
	intlDefault.PriceUSD = decimal.NewFromFloat(a.Config.Rates.FallbackSpotUSD)

	build := func(kind quote.Kind, fallback quote.Quotation, adapters []source.Adapter) *reconcile.Orchestrator {
		return reconcile.New(reconcile.Options{
			Kind:     kind,
			Adapters: adapters,
			Board:    board,
			Fallback: fallback,
			History:  snk.history,
			Cache:    snk.cache,
		}, a.Logger)
	}

	return map[quote.Kind]*reconcile.Orchestrator{
		quote.KindInternational: build(quote.KindInternational, intlDefault,
			a.internationalChain(client, forex)),
		quote.KindBullion: build(quote.KindBullion, defaults[quote.KindBullion],
			[]source.Adapter{source.NewIBJA("", client, a.Logger)}),
		quote.KindPNG: build(quote.KindPNG, defaults[quote.KindPNG],
			[]source.Adapter{source.NewPNG("", client, a.Logger)}),
		quote.KindBhima: build(quote.KindBhima, defaults[quote.KindBhima],
			[]source.Adapter{source.NewBhima("", client, a.Logger)}),
		quote.KindKalyan: build(quote.KindKalyan, defaults[quote.KindKalyan],
			[]source.Adapter{source.NewKalyan("", client, a.Logger)}),
	}
}

func (a *App) newScheduler(orchestrators map[quote.Kind]*reconcile.Orchestrator) *scheduler.Scheduler {
	cfg := a.Config.Scheduler
	intervalFor := func(kind quote.Kind) time.Duration {
		switch kind {
		case quote.KindInternational:
			return cfg.InternationalInterval
		case quote.KindBullion:
			return cfg.BullionInterval
		default:
			return cfg.RetailerInterval
		}
	}

	entries := make([]scheduler.Entry, 0, len(orchestrators))
	for kind, o := range orchestrators {
		entries = append(entries, scheduler.Entry{
			Orchestrator: o,
			Interval:     intervalFor(kind),
		})
	}
	return scheduler.New(entries, a.Logger)
}

// Run executes the long-running aggregation service: the per-kind refresh
// loops plus the HTTP read API.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	snk, err := a.openSinks(ctx)
	if err != nil {
		return err
	}
	defer snk.close()

	board := quote.NewBoard()
	orchestrators := a.newOrchestrators(board, snk)
	sched := a.newScheduler(orchestrators)

	var historian httpapi.Historian
	if snk.store != nil {
		historian = snk.store
	}

	api := httpapi.NewServer(httpapi.Options{
		Addr:              a.Config.HTTP.Addr,
		Board:             board,
		Forcer:            sched,
		Synthesizer:       catalog.NewSynthesizer(catalog.SynthesizerOptions{}, a.Logger),
		Historian:         historian,
		Cache:             snk.cache,
		VarianceThreshold: decimal.NewFromFloat(a.Config.Variance.ThresholdPct),
		DealsLimit:        a.Config.Deals.DefaultLimit,
		DealsCacheTTL:     a.Config.Deals.CacheTTL,
		FallbackBaseline:  decimal.NewFromFloat(a.Config.Rates.FallbackSpotINR),
	}, a.Logger)

	a.Logger.Info().Msg("starting gold price service")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return api.Run(ctx) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("gold price service stopped")
	return nil
}

// ExportOptions hold parameters for exporting quotation history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	Kind      string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Timeout time.Duration
}

// DealsOptions configure the offline deals command. A nil MaxPremium means
// no premium cap.
type DealsOptions struct {
	Baseline   float64
	Limit      int
	MaxPremium *float64
	Timeout    time.Duration
}
