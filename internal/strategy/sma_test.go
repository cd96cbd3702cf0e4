package strategy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"

	"smabot/internal/md"
)

func barsFromCloses(closes []float64) []md.Bar {
	bars := make([]md.Bar, len(closes))
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for idx, close := range closes {
		bars[idx] = md.Bar{
			Timestamp: start.AddDate(0, 0, idx),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
			Volume:    100,
		}
	}
	return bars
}

func TestSMACrossEvaluate(t *testing.T) {
	strat := SMACross{Short: 2, Long: 3}

	tests := []struct {
		name       string
		closes     []float64
		want       Signal
		wantReason string
	}{
		{
			name:       "no bars",
			closes:     nil,
			want:       Hold,
			wantReason: "insufficient_data",
		},
		{
			name:       "fewer bars than long window",
			closes:     []float64{10, 11},
			want:       Hold,
			wantReason: "insufficient_data",
		},
		{
			name:       "long window exactly, no prior window",
			closes:     []float64{10, 11, 12},
			want:       Hold,
			wantReason: "insufficient_data",
		},
		{
			// prev: short=10 long=10, now: short=15 long=13.33
			name:       "short crosses above long",
			closes:     []float64{10, 10, 10, 10, 20},
			want:       Buy,
			wantReason: "short_crossed_above_long",
		},
		{
			// prev: short=20 long=20, now: short=12.5 long=15
			name:       "short crosses below long",
			closes:     []float64{20, 20, 20, 20, 5},
			want:       Sell,
			wantReason: "short_crossed_below_long",
		},
		{
			// prev: short=35 long=30, now: short=45 long=40, already crossed
			name:       "steady uptrend without transition",
			closes:     []float64{10, 20, 30, 40, 50},
			want:       Hold,
			wantReason: "no_crossover",
		},
		{
			name:       "flat market stays on hold",
			closes:     []float64{10, 10, 10, 10, 10},
			want:       Hold,
			wantReason: "no_crossover",
		},
		{
			// now short == long: equality is not a cross
			name:       "equal averages do not flip the signal",
			closes:     []float64{20, 20, 20, 5, 35},
			want:       Hold,
			wantReason: "no_crossover",
		},
	}

	for _, test := range tests {
		eval := strat.Evaluate(barsFromCloses(test.closes))
		if eval.Signal != test.want {
			t.Errorf("%s: expected %s signal, got %s", test.name, test.want, eval.Signal)
		}
		if eval.Reason != test.wantReason {
			t.Errorf("%s: expected reason %q, got %q", test.name, test.wantReason, eval.Reason)
		}
	}
}

func TestSMACrossEvaluateIsPure(t *testing.T) {
	strat := SMACross{Short: 2, Long: 3}
	bars := barsFromCloses([]float64{10, 10, 10, 10, 20})

	first := strat.Evaluate(bars)
	second := strat.Evaluate(bars)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated evaluation drifted (-first +second):\n%s", diff)
	}
	assert.Equal(t, Buy, first.Signal)
}

func TestSMACrossCrossoverAverages(t *testing.T) {
	strat := SMACross{Short: 2, Long: 3}
	eval := strat.Evaluate(barsFromCloses([]float64{10, 10, 10, 10, 20}))

	assert.Equal(t, 15.0, eval.Crossover.ShortAvg)
	assert.Equal(t, 10.0, eval.Crossover.PrevShortAvg)
	assert.Equal(t, 10.0, eval.Crossover.PrevLongAvg)
	if eval.Crossover.LongAvg <= eval.Crossover.ShortAvg-2 || eval.Crossover.LongAvg >= eval.Crossover.ShortAvg {
		t.Fatalf("expected long average between 13 and 15, got %f", eval.Crossover.LongAvg)
	}
}

func TestNewStrategy(t *testing.T) {
	strat, err := New("sma", 20, 50)
	if err != nil {
		t.Fatalf("expected sma strategy, got error %v", err)
	}
	assert.Equal(t, SMACross{Short: 20, Long: 50}, strat.(SMACross))

	if _, err := New("momentum", 20, 50); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
