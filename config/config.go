package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"paperTrader/internal/ports"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

// Config holds all application configuration.
type Config struct {
	Assets     map[string]AssetConfig `yaml:"assets" validate:"required,min=1,dive,keys,required,endkeys"`
	Strategy   StrategyConfig         `yaml:"strategy"`
	Execution  ExecutionConfig        `yaml:"execution"`
	Risk       RiskConfig             `yaml:"risk"`
	Logging    LoggingConfig          `yaml:"logging"`
	MarketData MarketDataConfig       `yaml:"market_data"`
	Storage    StorageConfig          `yaml:"storage"`
	Server     ServerConfig           `yaml:"server"`
}

// AssetConfig holds per-asset trading limits.
type AssetConfig struct {
	MaxPositionUSD float64 `yaml:"max_position_usd" validate:"gt=0"`
}

// StrategyConfig holds indicator window sizes.
type StrategyConfig struct {
	PriceWindow  int `yaml:"sma_window" default:"20" validate:"gte=2"` // Price history length
	VolWindow    int `yaml:"vol_window" default:"20" validate:"gte=2"`
	EMAWindow    int `yaml:"ema_window" default:"10" validate:"gte=1"`
	VolRSIWindow int `yaml:"vol_rsi_window" default:"14" validate:"gte=1"`
}

// ExecutionConfig holds exit thresholds and loop timing.
type ExecutionConfig struct {
	TakeProfitPct       float64       `yaml:"take_profit_pct" default:"0.02" validate:"gt=0,lt=1"` // Fraction, 0.02 is 2%
	StopLossPct         float64       `yaml:"stop_loss_pct" default:"0.01" validate:"gt=0,lt=1"`
	LoopIntervalSeconds int           `yaml:"loop_interval_seconds" default:"5" validate:"gte=1"`
	MaxRuntime          time.Duration `yaml:"max_runtime" default:"7h" validate:"gt=0"`
}

// RiskConfig holds the per-asset trade cap and the session drawdown limit.
type RiskConfig struct {
	MaxTradesPerAsset int     `yaml:"max_trades_per_asset" default:"10" validate:"gte=1"`
	StartingCapital   float64 `yaml:"starting_capital" default:"10000" validate:"gt=0"`
	MaxDrawdownPct    float64 `yaml:"max_drawdown_pct" default:"5" validate:"gt=0,lte=100"` // Percent of starting capital
}

// LoggingConfig configures the application logger and the CSV trade log.
type LoggingConfig struct {
	Level        string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Format       string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output       string `yaml:"output" default:"stdout" validate:"required"`
	TradeLogPath string `yaml:"trade_log_path" default:"trades.csv" validate:"required"`
}

// MarketDataConfig selects and configures the market data venue.
type MarketDataConfig struct {
	Provider       string        `yaml:"provider" default:"hyperliquid" validate:"oneof=hyperliquid binance"`
	HyperliquidURL string        `yaml:"hyperliquid_url" default:"https://api.hyperliquid.xyz/info" validate:"url"`
	Timeout        time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	Binance        BinanceConfig `yaml:"binance"`
}

// BinanceConfig configures the Binance futures market data adapter.
type BinanceConfig struct {
	APIKey     string `yaml:"api_key"`
	SecretKey  string `yaml:"secret_key"`
	UseTestnet bool   `yaml:"use_testnet"`
	QuoteAsset string `yaml:"quote_asset" default:"USDT" validate:"required"`
	DepthLimit int    `yaml:"depth_limit" default:"20" validate:"oneof=5 10 20 50 100 500 1000"`
}

// StorageConfig configures the SQLite trade journal.
type StorageConfig struct {
	Enabled *bool  `yaml:"enabled" default:"true"`
	DBPath  string `yaml:"db_path" default:"./data/paper_trades.db"`
}

// ServerConfig configures the status and metrics HTTP server.
type ServerConfig struct {
	Enabled *bool  `yaml:"enabled" default:"true"`
	Addr    string `yaml:"addr" default:":9090"`
}

// LoopInterval returns the sleep between cycles.
func (c *ExecutionConfig) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalSeconds) * time.Second
}

// JournalEnabled reports whether the SQLite journal should be opened.
func (c *StorageConfig) JournalEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ServerEnabled reports whether the HTTP server should be started.
func (c *ServerConfig) ServerEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// AssetNames returns configured assets in sorted order.
func (c *Config) AssetNames() []string {
	names := make([]string, 0, len(c.Assets))
	for name := range c.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadConfig loads .env (if present), then the YAML file at CONFIG_PATH.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	path := getEnv("CONFIG_PATH", DefaultPath)
	return Load(path)
}

// Load reads path, applies defaults and environment overrides, then validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config '%s': %w: %w", path, ports.ErrConfigurationError, err)
	}
	return Parse(b)
}

// Parse builds a validated Config from YAML bytes. Defaults are applied
// first so that an explicit zero in the file reaches validation.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w: %w", ports.ErrConfigurationError, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", ports.ErrConfigurationError, err)
	}

	var errs []string // Collect validation errors
	errs = append(errs, applyEnvOverrides(cfg)...)
	errs = append(errs, validate(cfg)...)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: configuration validation failed: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) []string {
	var errs []string

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("MARKET_DATA_PROVIDER"); v != "" {
		cfg.MarketData.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.MarketData.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.MarketData.Binance.SecretKey = v
	}
	if v := os.Getenv("IS_TESTNET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid IS_TESTNET: %v", err))
		} else {
			cfg.MarketData.Binance.UseTestnet = b
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("TRADE_LOG_PATH"); v != "" {
		cfg.Logging.TradeLogPath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MAX_RUNTIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid MAX_RUNTIME: %v", err))
		} else {
			cfg.Execution.MaxRuntime = d
		}
	}
	return errs
}

func validate(cfg *Config) []string {
	var errs []string

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	// Cross-field checks
	if cfg.Strategy.VolWindow < cfg.Strategy.VolRSIWindow+1 {
		errs = append(errs, "strategy.vol_window must be greater than strategy.vol_rsi_window, otherwise Vol_RSI is never defined")
	}
	if cfg.Storage.JournalEnabled() && cfg.Storage.DBPath == "" {
		errs = append(errs, "storage.db_path must be set when the journal is enabled")
	}
	if cfg.Server.ServerEnabled() && cfg.Server.Addr == "" {
		errs = append(errs, "server.addr must be set when the server is enabled")
	}
	for name := range cfg.Assets {
		if strings.TrimSpace(name) != name {
			errs = append(errs, fmt.Sprintf("asset name %q has surrounding whitespace", name))
		}
	}
	sort.Strings(errs)
	return errs
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
