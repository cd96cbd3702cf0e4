package strategy

import (
	talib "github.com/markcheno/go-talib"

	"smabot/internal/md"
)

// SMACross signals on simple moving average crossovers: buy when the short
// average crosses above the long average, sell on the reverse. Equal
// averages count as "not crossed" on both sides of the transition, so a
// flat tape never flips the signal.
type SMACross struct {
	Short int
	Long  int
}

// Evaluate recomputes both averages for the current and the immediately
// prior window from the full bar sequence. Detecting the prior window needs
// one bar more than the long window; anything shorter is insufficient data
// and holds.
func (s SMACross) Evaluate(bars []md.Bar) Evaluation {
	closes := md.Closes(bars)
	if len(closes) < s.Long+1 {
		return Evaluation{Signal: Hold, Reason: "insufficient_data"}
	}

	shortSMA := talib.Sma(closes, s.Short)
	longSMA := talib.Sma(closes, s.Long)

	last := len(closes) - 1
	cross := Crossover{
		ShortAvg:     shortSMA[last],
		LongAvg:      longSMA[last],
		PrevShortAvg: shortSMA[last-1],
		PrevLongAvg:  longSMA[last-1],
	}

	switch {
	case cross.ShortAvg > cross.LongAvg && cross.PrevShortAvg <= cross.PrevLongAvg:
		return Evaluation{Signal: Buy, Crossover: cross, Reason: "short_crossed_above_long"}
	case cross.ShortAvg < cross.LongAvg && cross.PrevShortAvg >= cross.PrevLongAvg:
		return Evaluation{Signal: Sell, Crossover: cross, Reason: "short_crossed_below_long"}
	default:
		return Evaluation{Signal: Hold, Crossover: cross, Reason: "no_crossover"}
	}
}
