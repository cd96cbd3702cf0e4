package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"smabot/internal/broker"
	"smabot/internal/config"
	"smabot/internal/engine"
	"smabot/internal/md"
	"smabot/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := newLogger("info")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg.LogLevel)

	strategyImpl, err := strategy.New(cfg.Strategy, cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid strategy configuration")
	}

	brokerClient := broker.New(&broker.Config{
		APIKey:         cfg.APIKey,
		APISecret:      cfg.APISecret,
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.AttemptTimeout,
		Logger:         &logger,
	})
	barSource := md.NewSource(&md.Config{
		APIKey:         cfg.APIKey,
		APISecret:      cfg.APISecret,
		Feed:           cfg.Feed,
		RequestTimeout: cfg.AttemptTimeout,
		Logger:         &logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleTermination(ctx, cancel, &logger)

	startupChecks(ctx, brokerClient, cfg.Symbol, &logger)

	runID := generateRunID()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DecisionsPath).Msg("opening decision log")
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			logger.Error().Err(err).Msg("closing decision log")
		}
	}()

	executor := engine.NewExecutor(&engine.ExecutorConfig{
		Orders:      brokerClient,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Logger:      &logger,
	})
	engineImpl := engine.New(&engine.Config{
		Symbol:         cfg.Symbol,
		NotionalBudget: cfg.NotionalBudget,
		PollInterval:   cfg.PollInterval,
		ForceTrade:     cfg.ForceTrade,
		Lookback:       cfg.Lookback,
		Strategy:       strategyImpl,
		Clock:          brokerClient,
		Bars:           barSource,
		Positions:      brokerClient,
		Executor:       executor,
		Decisions:      decisions,
		Logger:         &logger,
	})

	logger.Info().Str("run_id", runID).Str("symbol", cfg.Symbol).Str("strategy", cfg.Strategy).
		Int("short_window", cfg.ShortWindow).Int("long_window", cfg.LongWindow).
		Float64("notional_budget", cfg.NotionalBudget).Dur("poll_interval", cfg.PollInterval).
		Bool("force_trade", cfg.ForceTrade).Msg("starting trading bot")

	engineImpl.Run(ctx)

	logger.Info().Msg("bot shutdown complete")
}

// startupChecks verifies the brokerage connection and the symbol before the
// loop starts. Failures here are configuration-class and stop the process.
func startupChecks(ctx context.Context, brokerClient *broker.Client, symbol string, logger *zerolog.Logger) {
	clock, err := brokerClient.Clock(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot reach brokerage")
	}
	logger.Info().Bool("market_open", clock.IsOpen).Time("next_open", clock.NextOpen).
		Time("next_close", clock.NextClose).Msg("brokerage connection verified")

	account, err := brokerClient.Account(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("fetching account")
	}
	logger.Info().Str("account", account.AccountNumber).Float64("equity", account.Equity).
		Float64("buying_power", account.BuyingPower).Float64("cash", account.Cash).
		Msg("account snapshot")

	asset, err := brokerClient.Asset(ctx, symbol)
	if err != nil {
		logger.Fatal().Err(err).Str("symbol", symbol).Msg("fetching asset")
	}
	if !asset.Tradable || asset.Status != "active" {
		logger.Fatal().Str("symbol", symbol).Str("status", asset.Status).
			Bool("tradable", asset.Tradable).Msg("symbol is not tradable")
	}
}

// handleTermination cancels the run context on interrupt or termination
// signals.
func handleTermination(ctx context.Context, cancel context.CancelFunc, logger *zerolog.Logger) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-interrupt:
		logger.Info().Msg("shutdown signal received")
		cancel()
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return timestamp
	}
	return timestamp + "-" + hex.EncodeToString(randomBytes)
}
