// Package risk converts a fixed notional budget into order quantities.
package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice is returned when the last traded price is not positive.
	ErrInvalidPrice = errors.New("risk: last price must be positive")
	// ErrInvalidBudget is returned when the notional budget is not positive.
	ErrInvalidBudget = errors.New("risk: notional budget must be positive")
)

// Size returns the whole-share quantity the notional budget affords at the
// given price, rounded down. A budget smaller than one share yields zero;
// callers must treat zero as a no-op and never submit a zero-share order.
func Size(lastPrice, budget float64) (int, error) {
	if lastPrice <= 0 {
		return 0, ErrInvalidPrice
	}
	if budget <= 0 {
		return 0, ErrInvalidBudget
	}

	qty := decimal.NewFromFloat(budget).Div(decimal.NewFromFloat(lastPrice)).IntPart()
	return int(qty), nil
}
