// Package engine runs the decision-and-execution loop.
package engine

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/rs/zerolog"

	"smabot/internal/broker"
	"smabot/internal/md"
	"smabot/internal/risk"
	"smabot/internal/strategy"
)

// MarketClock answers whether the market is open.
type MarketClock interface {
	Clock(ctx context.Context) (broker.Clock, error)
}

// BarSource supplies historical bars for a symbol up to now.
type BarSource interface {
	Bars(ctx context.Context, symbol string, lookback int) ([]md.Bar, error)
}

// PositionSource supplies the brokerage-side holding for a symbol.
type PositionSource interface {
	Position(ctx context.Context, symbol string) (broker.Position, error)
}

// OrderSubmitter submits one order intent to its terminal result.
type OrderSubmitter interface {
	Submit(ctx context.Context, intent Intent) (Result, error)
}

// Config represents the configuration for the trading engine.
type Config struct {
	// Symbol is the traded symbol.
	Symbol string
	// NotionalBudget is the fixed dollar amount allocated per trade.
	NotionalBudget float64
	// PollInterval is the cycle cadence.
	PollInterval time.Duration
	// ForceTrade bypasses the market-hours gate.
	ForceTrade bool
	// Lookback is the number of bars requested per cycle.
	Lookback int
	// Strategy produces the trade signal.
	Strategy strategy.Strategy
	// Clock is the market clock.
	Clock MarketClock
	// Bars is the bar source.
	Bars BarSource
	// Positions is the position source.
	Positions PositionSource
	// Executor submits orders.
	Executor OrderSubmitter
	// Decisions records the per-cycle audit trail.
	Decisions *DecisionLogger
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Engine polls bars on a fixed cadence, evaluates the strategy, sizes the
// order and dispatches it. It holds no position or order state across
// cycles; every cycle recomputes from fresh bars and brokerage-side truth.
type Engine struct {
	cfg *Config
}

// New initializes the trading engine.
func New(cfg *Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes cycles until the context is cancelled. Cancellation is
// cooperative: it is observed at cycle boundaries, so an in-flight cycle
// runs to completion first. A failed cycle never stops the loop.
func (e *Engine) Run(ctx context.Context) {
	if e.cfg.ForceTrade {
		e.cfg.Logger.Warn().Msg("force trade enabled, market hours gate bypassed")
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		e.runCycle(ctx)

		select {
		case <-ctx.Done():
			e.cfg.Logger.Info().Msg("trading loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	if !e.cfg.ForceTrade {
		clock, err := e.cfg.Clock.Clock(ctx)
		if err != nil {
			// Conservative: an unknown market state counts as closed.
			e.cfg.Logger.Error().Err(err).Msg("market clock unavailable, treating market as closed")
			return
		}
		if !clock.IsOpen {
			e.cfg.Logger.Info().Time("next_open", clock.NextOpen).Msg("market closed, skipping cycle")
			return
		}
	}

	bars, err := e.cfg.Bars.Bars(ctx, e.cfg.Symbol, e.cfg.Lookback)
	if err != nil {
		e.cfg.Logger.Error().Err(err).Str("symbol", e.cfg.Symbol).Msg("bar retrieval failed, skipping cycle")
		return
	}
	if len(bars) == 0 {
		e.cfg.Logger.Warn().Str("symbol", e.cfg.Symbol).Msg("no bars returned, skipping cycle")
		return
	}

	eval := e.cfg.Strategy.Evaluate(bars)
	lastBar := bars[len(bars)-1]

	decision := Decision{
		RunID:        e.cfg.Decisions.RunID(),
		Timestamp:    time.Now().UTC(),
		BarTime:      lastBar.Timestamp,
		Symbol:       e.cfg.Symbol,
		Close:        lastBar.Close,
		ShortAvg:     eval.Crossover.ShortAvg,
		LongAvg:      eval.Crossover.LongAvg,
		PrevShortAvg: eval.Crossover.PrevShortAvg,
		PrevLongAvg:  eval.Crossover.PrevLongAvg,
		Signal:       eval.Signal,
		Reason:       eval.Reason,
	}

	if eval.Signal == strategy.Hold {
		decision.Result = ResultHold
		e.cfg.Decisions.Append(decision)
		e.cfg.Logger.Info().Str("symbol", e.cfg.Symbol).Float64("close", lastBar.Close).
			Str("signal", string(eval.Signal)).Str("reason", eval.Reason).Msg("hold, no order this cycle")
		return
	}

	qty, err := risk.Size(lastBar.Close, e.cfg.NotionalBudget)
	if err != nil {
		decision.Result = ResultSkipped
		decision.RejectReason = err.Error()
		e.cfg.Decisions.Append(decision)
		e.cfg.Logger.Error().Err(err).Str("symbol", e.cfg.Symbol).Float64("close", lastBar.Close).
			Msg("sizing failed, skipping order")
		return
	}
	if qty == 0 {
		decision.Result = ResultSkipped
		decision.RejectReason = "insufficient_budget"
		e.cfg.Decisions.Append(decision)
		e.cfg.Logger.Warn().Str("symbol", e.cfg.Symbol).Float64("close", lastBar.Close).
			Float64("budget", e.cfg.NotionalBudget).Msg("budget below share price, skipping order")
		return
	}

	side := alpaca.Buy
	if eval.Signal == strategy.Sell {
		side = alpaca.Sell
		qty, err = e.clampToPosition(ctx, qty)
		if err != nil {
			decision.Result = ResultSkipped
			decision.RejectReason = err.Error()
			e.cfg.Decisions.Append(decision)
			e.cfg.Logger.Error().Err(err).Str("symbol", e.cfg.Symbol).
				Msg("position check failed, skipping sell")
			return
		}
		if qty == 0 {
			decision.Result = ResultSkipped
			decision.RejectReason = "no_position_to_sell"
			e.cfg.Decisions.Append(decision)
			e.cfg.Logger.Info().Str("symbol", e.cfg.Symbol).Msg("sell signal with no position, skipping order")
			return
		}
	}

	decision.Qty = qty
	result, err := e.cfg.Executor.Submit(ctx, Intent{
		Symbol:   e.cfg.Symbol,
		Side:     side,
		Qty:      qty,
		Notional: e.cfg.NotionalBudget,
	})
	decision.Attempts = result.Attempts
	decision.ClientOrderID = result.ClientOrderID

	if err != nil {
		decision.Result = ResultOrderFailed
		decision.RejectReason = err.Error()
		e.cfg.Decisions.Append(decision)
		e.cfg.Logger.Error().Err(err).Str("symbol", e.cfg.Symbol).Str("side", string(side)).
			Int("qty", qty).Int("attempts", result.Attempts).Msg("order failed")
		return
	}

	decision.Result = ResultOrderSubmitted
	decision.OrderID = result.OrderID
	e.cfg.Decisions.Append(decision)
	e.cfg.Logger.Info().Str("symbol", e.cfg.Symbol).Str("side", string(side)).Int("qty", qty).
		Str("order_id", result.OrderID).Int("attempts", result.Attempts).
		Str("status", result.Status).Msg("order submitted")
}

// clampToPosition caps a sell quantity at the brokerage-side holding. The
// loop keeps no position state of its own, so the brokerage is the only
// source of truth.
func (e *Engine) clampToPosition(ctx context.Context, qty int) (int, error) {
	pos, err := e.cfg.Positions.Position(ctx, e.cfg.Symbol)
	if err != nil {
		return 0, err
	}
	if pos.Qty <= 0 {
		return 0, nil
	}
	if qty > pos.Qty {
		return pos.Qty, nil
	}
	return qty, nil
}
