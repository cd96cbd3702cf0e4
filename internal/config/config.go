// Package config loads and validates the bot configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the bot. All knobs are explicit;
// anything invalid stops the process before any order logic runs.
type Config struct {
	// Symbol is the traded symbol.
	Symbol string
	// Strategy selects the signal strategy.
	Strategy string
	// ShortWindow is the short moving average length in bars.
	ShortWindow int
	// LongWindow is the long moving average length in bars.
	LongWindow int
	// NotionalBudget is the fixed dollar amount allocated per trade.
	NotionalBudget float64
	// PollInterval is the trading loop cadence.
	PollInterval time.Duration
	// ForceTrade bypasses the market-hours gate.
	ForceTrade bool
	// Lookback is the number of bars fetched per cycle. Zero defaults to
	// LongWindow+10.
	Lookback int
	// MaxAttempts bounds order submission attempts.
	MaxAttempts int
	// RetryDelay is the base delay between submission attempts.
	RetryDelay time.Duration
	// AttemptTimeout bounds each HTTP request to the brokerage and the
	// data API.
	AttemptTimeout time.Duration
	// LogLevel is the zerolog level name.
	LogLevel string
	// DecisionsPath is the NDJSON decision log path.
	DecisionsPath string
	// BaseURL is the trading API base URL.
	BaseURL string
	// Feed is the market data feed (iex or sip).
	Feed string
	// APIKey is the Alpaca API key.
	APIKey string
	// APISecret is the Alpaca API secret.
	APISecret string
}

// Load reads configuration from an optional .env file, environment
// variables and command line flags.
func Load() (Config, error) {
	var cfg Config

	if err := loadDotEnv(".env"); err != nil {
		return cfg, err
	}

	flag.StringVar(&cfg.Symbol, "symbol", "", "trading symbol")
	flag.StringVar(&cfg.Strategy, "strategy", "sma", "signal strategy")
	flag.IntVar(&cfg.ShortWindow, "short-window", 20, "short moving average window")
	flag.IntVar(&cfg.LongWindow, "long-window", 50, "long moving average window")
	flag.Float64Var(&cfg.NotionalBudget, "notional-budget", 1000, "dollar amount allocated per trade")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", 60*time.Second, "trading loop cadence")
	flag.BoolVar(&cfg.ForceTrade, "force-trade", false, "trade even when the market is closed")
	flag.IntVar(&cfg.Lookback, "lookback", 0, "bars fetched per cycle (0 = long-window+10)")
	flag.IntVar(&cfg.MaxAttempts, "max-attempts", 3, "order submission attempts")
	flag.DurationVar(&cfg.RetryDelay, "retry-delay", 2*time.Second, "base delay between submission attempts")
	flag.DurationVar(&cfg.AttemptTimeout, "attempt-timeout", 10*time.Second, "per-request brokerage timeout")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level")
	flag.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decisions log")
	flag.StringVar(&cfg.BaseURL, "base-url", "https://paper-api.alpaca.markets", "trading API base URL")
	flag.StringVar(&cfg.Feed, "feed", "iex", "market data feed: iex or sip")
	flag.Parse()

	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Lookback == 0 {
		cfg.Lookback = cfg.LongWindow + 10
	}
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Symbol == "" {
		errs = errors.Join(errs, fmt.Errorf("symbol cannot be an empty string"))
	}
	if cfg.Strategy == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy cannot be an empty string"))
	}
	if cfg.ShortWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("short-window must be > 0"))
	}
	if cfg.LongWindow <= cfg.ShortWindow {
		errs = errors.Join(errs, fmt.Errorf("long-window must be > short-window"))
	}
	if cfg.NotionalBudget <= 0 {
		errs = errors.Join(errs, fmt.Errorf("notional-budget must be > 0"))
	}
	if cfg.PollInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("poll-interval must be > 0"))
	}
	if cfg.Lookback <= cfg.LongWindow {
		errs = errors.Join(errs, fmt.Errorf("lookback must be > long-window"))
	}
	if cfg.MaxAttempts <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max-attempts must be > 0"))
	}
	if cfg.RetryDelay <= 0 {
		errs = errors.Join(errs, fmt.Errorf("retry-delay must be > 0"))
	}
	if cfg.AttemptTimeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf("attempt-timeout must be > 0"))
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		errs = errors.Join(errs, fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required"))
	}

	return errs
}

// loadDotEnv loads the .env file at path into the environment if it exists.
// Existing environment variables win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}
	return nil
}
