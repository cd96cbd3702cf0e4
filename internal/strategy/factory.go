package strategy

import (
	"fmt"
	"strings"
)

// New returns the strategy implementation matching the configured name.
// An unknown name is a configuration error and must stop the bot before
// any order logic runs.
func New(name string, shortWindow, longWindow int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sma":
		return SMACross{Short: shortWindow, Long: longWindow}, nil
	default:
		return nil, fmt.Errorf("strategy: unknown strategy %q", name)
	}
}
