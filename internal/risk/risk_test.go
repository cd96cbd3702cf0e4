package risk

import (
	"errors"
	"testing"
)

func TestSize(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		budget float64
		want   int
	}{
		{
			name:   "even division",
			price:  50,
			budget: 1000,
			want:   20,
		},
		{
			name:   "fractional share rounded down",
			price:  333.33,
			budget: 1000,
			want:   3,
		},
		{
			name:   "three shares at one hundred",
			price:  100,
			budget: 350,
			want:   3,
		},
		{
			name:   "budget below price",
			price:  500,
			budget: 350,
			want:   0,
		},
		{
			name:   "budget exactly one share",
			price:  350,
			budget: 350,
			want:   1,
		},
	}

	for _, test := range tests {
		got, err := Size(test.price, test.budget)
		if err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: expected quantity %d, got %d", test.name, test.want, got)
		}
	}
}

func TestSizeRejectsInvalidInputs(t *testing.T) {
	if _, err := Size(0, 1000); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for zero price, got %v", err)
	}
	if _, err := Size(-5, 1000); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for negative price, got %v", err)
	}
	if _, err := Size(100, 0); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget for zero budget, got %v", err)
	}
	if _, err := Size(100, -1); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget for negative budget, got %v", err)
	}
}
