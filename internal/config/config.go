package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"goldwatcher/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Variance  VarianceConfig  `mapstructure:"variance"`
	Deals     DealsConfig     `mapstructure:"deals"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig governs the read API listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. An empty DSN keeps
// the history sink disabled.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig encapsulates cache connectivity. An empty Addr keeps the
// cache sink disabled.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SchedulerConfig governs per-kind refresh cadence.
type SchedulerConfig struct {
	InternationalInterval time.Duration `mapstructure:"international_interval"`
	BullionInterval       time.Duration `mapstructure:"bullion_interval"`
	RetailerInterval      time.Duration `mapstructure:"retailer_interval"`
}

// SourcesConfig configures the upstream adapters.
type SourcesConfig struct {
	GoldAPI           GoldAPIConfig   `mapstructure:"goldapi"`
	Yahoo             YahooConfig     `mapstructure:"yahoo"`
	Forex             ForexConfig     `mapstructure:"forex"`
	Chainlink         ChainlinkConfig `mapstructure:"chainlink"`
	Scrape            ScrapeConfig    `mapstructure:"scrape"`
	ReferenceOunceUSD float64         `mapstructure:"reference_ounce_usd"`
}

// GoldAPIConfig covers the keyed goldapi.io source.
type GoldAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// YahooConfig covers the futures chart source.
type YahooConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ForexConfig covers the USD/INR rate source shared by conversions.
type ForexConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	FallbackRate float64       `mapstructure:"fallback_rate"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ChainlinkConfig covers the on-chain XAU/USD aggregator.
type ChainlinkConfig struct {
	RPCURL      string        `mapstructure:"rpc_url"`
	FeedAddress string        `mapstructure:"feed_address"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig tunes the shared scrape client.
type ScrapeConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	RequestsSec float64       `mapstructure:"requests_sec"`
	SkipVerify  bool          `mapstructure:"skip_verify"`
}

// RatesConfig holds the last-resort constants.
type RatesConfig struct {
	FallbackSpotINR float64 `mapstructure:"fallback_spot_inr"`
	FallbackSpotUSD float64 `mapstructure:"fallback_spot_usd"`
}

// VarianceConfig tunes drift alerting.
type VarianceConfig struct {
	ThresholdPct float64 `mapstructure:"threshold_pct"`
}

// DealsConfig tunes the deal listing.
type DealsConfig struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOLDWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "goldwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("scheduler.international_interval", "60s")
	v.SetDefault("scheduler.bullion_interval", "30m")
	v.SetDefault("scheduler.retailer_interval", "30m")

	v.SetDefault("sources.goldapi.base_url", "https://www.goldapi.io/api")
	v.SetDefault("sources.goldapi.timeout", "10s")
	v.SetDefault("sources.yahoo.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("sources.yahoo.timeout", "10s")
	v.SetDefault("sources.forex.base_url", "https://api.exchangerate-api.com/v4")
	v.SetDefault("sources.forex.fallback_rate", 83.0)
	v.SetDefault("sources.forex.timeout", "10s")
	v.SetDefault("sources.chainlink.timeout", "10s")
	v.SetDefault("sources.scrape.timeout", "15s")
	v.SetDefault("sources.scrape.requests_sec", 4.0)
	v.SetDefault("sources.scrape.skip_verify", true)
	v.SetDefault("sources.reference_ounce_usd", 2350.0)

	v.SetDefault("rates.fallback_spot_inr", 14500.0)
	v.SetDefault("rates.fallback_spot_usd", 160.0)

	v.SetDefault("variance.threshold_pct", 8.0)

	v.SetDefault("deals.default_limit", 20)
	v.SetDefault("deals.cache_ttl", "30s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.InternationalInterval <= 0 {
		return fmt.Errorf("scheduler.international_interval must be greater than zero")
	}
	if c.Scheduler.BullionInterval <= 0 {
		return fmt.Errorf("scheduler.bullion_interval must be greater than zero")
	}
	if c.Scheduler.RetailerInterval <= 0 {
		return fmt.Errorf("scheduler.retailer_interval must be greater than zero")
	}
	if c.Sources.ReferenceOunceUSD <= 0 {
		return fmt.Errorf("sources.reference_ounce_usd must be greater than zero")
	}
	if c.Sources.Forex.FallbackRate <= 0 {
		return fmt.Errorf("sources.forex.fallback_rate must be greater than zero")
	}
	if c.Rates.FallbackSpotINR <= 0 {
		return fmt.Errorf("rates.fallback_spot_inr must be greater than zero")
	}
	if c.Variance.ThresholdPct < 0 {
		return fmt.Errorf("variance.threshold_pct cannot be negative")
	}
	if c.Deals.DefaultLimit <= 0 {
		return fmt.Errorf("deals.default_limit must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
