package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"smabot/internal/strategy"
)

const (
	ResultHold           = "hold"
	ResultSkipped        = "skipped"
	ResultOrderSubmitted = "order_submitted"
	ResultOrderFailed    = "order_failed"
)

// Decision is one audit record per evaluated cycle. The NDJSON trail is the
// bot's only durable output: enough to reconstruct every decision without
// re-running.
type Decision struct {
	RunID         string          `json:"run_id"`
	Timestamp     time.Time       `json:"timestamp"`
	BarTime       time.Time       `json:"bar_time"`
	Symbol        string          `json:"symbol"`
	Close         float64         `json:"close"`
	ShortAvg      float64         `json:"short_avg"`
	LongAvg       float64         `json:"long_avg"`
	PrevShortAvg  float64         `json:"prev_short_avg"`
	PrevLongAvg   float64         `json:"prev_long_avg"`
	Signal        strategy.Signal `json:"signal"`
	Qty           int             `json:"qty"`
	Reason        string          `json:"reason"`
	Result        string          `json:"result"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Attempts      int             `json:"attempts,omitempty"`
}

// DecisionLogger appends decision records to an NDJSON file.
type DecisionLogger struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewDecisionLogger opens the decision log for appending.
func NewDecisionLogger(path string, runID string) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DecisionLogger{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// RunID returns the identifier shared by all records of this process run.
func (d *DecisionLogger) RunID() string {
	return d.runID
}

// Append writes one decision record. Write failures are reported to stderr
// rather than interrupting the trading loop.
func (d *DecisionLogger) Append(decision Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := json.Marshal(decision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal decision: %v\n", err)
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write decision: %v\n", err)
		return
	}
	if err := d.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush decision log: %v\n", err)
	}
}

// Close flushes and closes the underlying file.
func (d *DecisionLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writer.Flush(); err != nil {
		_ = d.file.Close()
		return err
	}
	return d.file.Close()
}
