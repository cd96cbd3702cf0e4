package strategy

import (
	"smabot/internal/md"
)

// Signal is a trade decision emitted by a strategy. Exactly one value per
// evaluation.
type Signal string

const (
	Hold Signal = "HOLD"
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
)

// Crossover holds the short/long average pairs from the two most recent
// evaluable windows. It classifies the current relative position only and
// carries no history across evaluations.
type Crossover struct {
	ShortAvg     float64
	LongAvg      float64
	PrevShortAvg float64
	PrevLongAvg  float64
}

// Evaluation is the outcome of a single strategy evaluation.
type Evaluation struct {
	Signal    Signal
	Crossover Crossover
	Reason    string
}

// Strategy evaluates a bar sequence into a trade signal. Implementations
// must be pure functions of the provided bars: no side effects, no state
// carried between calls.
type Strategy interface {
	Evaluate(bars []md.Bar) Evaluation
}
