package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smabot/internal/broker"
)

// OrderAPI is the brokerage surface the executor needs.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderRef, error)
	OrderByClientID(ctx context.Context, clientOrderID string) (broker.OrderRef, error)
}

// Intent is one logical order: it is sized exactly once and never mutated
// across submission attempts.
type Intent struct {
	Symbol   string
	Side     alpaca.Side
	Qty      int
	Notional float64
}

// Result is the terminal outcome of a Submit call.
type Result struct {
	OrderID       string
	ClientOrderID string
	Status        string
	Attempts      int
}

// ExecutorConfig represents the configuration for the order executor.
type ExecutorConfig struct {
	// Orders is the brokerage order API.
	Orders OrderAPI
	// MaxAttempts bounds submission attempts per intent.
	MaxAttempts int
	// RetryDelay is the base delay between attempts; attempt n waits n times
	// this long.
	RetryDelay time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Executor submits order intents with bounded retry. Transient brokerage
// failures are retried with the same intent and the same client order ID;
// fatal failures surface immediately; ambiguous outcomes are reconciled by
// client order ID before any retry so the brokerage can never hold two
// orders for one intent.
type Executor struct {
	cfg *ExecutorConfig
}

// NewExecutor initializes an order executor.
func NewExecutor(cfg *ExecutorConfig) *Executor {
	return &Executor{cfg: cfg}
}

// Submit places the intent and returns its terminal result. A non-nil error
// means no order is known to have been accepted.
func (e *Executor) Submit(ctx context.Context, intent Intent) (Result, error) {
	if intent.Qty <= 0 {
		return Result{}, fmt.Errorf("engine: refusing %s order with quantity %d for %s",
			intent.Side, intent.Qty, intent.Symbol)
	}

	// One idempotency key per logical intent, shared by every attempt.
	clientOrderID := uuid.NewString()
	req := broker.OrderRequest{
		Symbol:        intent.Symbol,
		Qty:           intent.Qty,
		Side:          intent.Side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: clientOrderID,
	}

	var lastErr error
	ambiguous := false
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if ambiguous {
			if ref, ok := e.reconcile(ctx, clientOrderID); ok {
				e.cfg.Logger.Info().Str("order_id", ref.ID).Str("client_order_id", clientOrderID).
					Int("attempts", attempt-1).Msg("order reconciled after ambiguous outcome")
				return Result{OrderID: ref.ID, ClientOrderID: ref.ClientOrderID, Status: ref.Status, Attempts: attempt - 1}, nil
			}
			ambiguous = false
		}

		ref, err := e.cfg.Orders.PlaceOrder(ctx, req)
		if err == nil {
			return Result{OrderID: ref.ID, ClientOrderID: ref.ClientOrderID, Status: ref.Status, Attempts: attempt}, nil
		}
		lastErr = err

		class := broker.Classify(err)
		e.cfg.Logger.Warn().Err(err).Str("symbol", intent.Symbol).Str("side", string(intent.Side)).
			Int("qty", intent.Qty).Int("attempt", attempt).Str("class", class.String()).
			Msg("order submission attempt failed")

		switch class {
		case broker.ClassFatal:
			return Result{ClientOrderID: clientOrderID, Attempts: attempt},
				fmt.Errorf("engine: order rejected by brokerage: %w", err)
		case broker.ClassAmbiguous:
			ambiguous = true
		}

		if attempt == e.cfg.MaxAttempts {
			break
		}
		if werr := broker.WaitForContext(ctx, time.Duration(attempt)*e.cfg.RetryDelay); werr != nil {
			return Result{ClientOrderID: clientOrderID, Attempts: attempt},
				fmt.Errorf("engine: submission cancelled: %w", werr)
		}
	}

	// A final attempt that timed out may still have landed.
	if ambiguous {
		if ref, ok := e.reconcile(ctx, clientOrderID); ok {
			e.cfg.Logger.Info().Str("order_id", ref.ID).Str("client_order_id", clientOrderID).
				Int("attempts", e.cfg.MaxAttempts).Msg("order reconciled after ambiguous outcome")
			return Result{OrderID: ref.ID, ClientOrderID: ref.ClientOrderID, Status: ref.Status, Attempts: e.cfg.MaxAttempts}, nil
		}
	}

	return Result{ClientOrderID: clientOrderID, Attempts: e.cfg.MaxAttempts},
		fmt.Errorf("engine: order submission failed after %d attempts: %w", e.cfg.MaxAttempts, lastErr)
}

// reconcile reports whether the brokerage already accepted an order for the
// client order ID. A lookup failure keeps the outcome unknown, which falls
// back to the retry path; the fixed client order ID makes a duplicate
// placement a rejected duplicate rather than a second fill.
func (e *Executor) reconcile(ctx context.Context, clientOrderID string) (broker.OrderRef, bool) {
	ref, err := e.cfg.Orders.OrderByClientID(ctx, clientOrderID)
	if err != nil {
		if !broker.IsNotFound(err) {
			e.cfg.Logger.Warn().Err(err).Str("client_order_id", clientOrderID).
				Msg("order reconciliation lookup failed")
		}
		return broker.OrderRef{}, false
	}
	return ref, true
}
