package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{
			name: "nil error",
			err:  nil,
			want: ClassNone,
		},
		{
			name: "rate limited",
			err:  &alpaca.APIError{StatusCode: 429, Message: "too many requests"},
			want: ClassTransient,
		},
		{
			name: "server error",
			err:  &alpaca.APIError{StatusCode: 503, Message: "unavailable"},
			want: ClassTransient,
		},
		{
			name: "wrapped server error",
			err:  fmt.Errorf("placing order: %w", &alpaca.APIError{StatusCode: 500}),
			want: ClassTransient,
		},
		{
			name: "rejected order",
			err:  &alpaca.APIError{StatusCode: 422, Message: "insufficient buying power"},
			want: ClassFatal,
		},
		{
			name: "account restriction",
			err:  &alpaca.APIError{StatusCode: 403, Message: "account restricted"},
			want: ClassFatal,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: ClassAmbiguous,
		},
		{
			name: "network timeout",
			err:  &fakeNetError{timeout: true},
			want: ClassAmbiguous,
		},
		{
			name: "connection refused",
			err:  &fakeNetError{timeout: false},
			want: ClassTransient,
		},
		{
			name: "unrecognized error",
			err:  errors.New("connection reset by peer"),
			want: ClassTransient,
		},
	}

	for _, test := range tests {
		if got := Classify(test.err); got != test.want {
			t.Errorf("%s: expected class %s, got %s", test.name, test.want, got)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&alpaca.APIError{StatusCode: 404}) {
		t.Fatalf("expected 404 to be not found")
	}
	if IsNotFound(&alpaca.APIError{StatusCode: 422}) {
		t.Fatalf("expected 422 to not be not found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatalf("expected plain error to not be not found")
	}
}
