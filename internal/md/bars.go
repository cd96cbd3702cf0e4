// Package md retrieves historical market data from Alpaca.
package md

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
)

// defaultRequestTimeout bounds market data HTTP requests when no timeout is
// configured.
const defaultRequestTimeout = 10 * time.Second

// Bar is a single daily price bar. Bars are immutable once retrieved and
// ordered by strictly increasing timestamp.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    uint64
}

// Config represents the configuration for the bar source.
type Config struct {
	// APIKey is the Alpaca API key.
	APIKey string
	// APISecret is the Alpaca API secret.
	APISecret string
	// Feed is the market data feed (iex or sip).
	Feed string
	// RequestTimeout bounds each HTTP request to the data API.
	RequestTimeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Source fetches historical bars over the Alpaca market data REST API.
type Source struct {
	cfg    *Config
	client *marketdata.Client
	feed   marketdata.Feed
}

// NewSource initializes a bar source.
func NewSource(cfg *Config) *Source {
	return &Source{
		cfg:    cfg,
		client: marketdata.NewClient(clientOpts(cfg)),
		feed:   parseFeed(cfg.Feed),
	}
}

func clientOpts(cfg *Config) marketdata.ClientOpts {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return marketdata.ClientOpts{
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Bars returns up to lookback daily bars for the symbol, ending at the
// current time. Raw (unadjusted) prices, matching the trading prices the
// bot acts on.
func (s *Source) Bars(ctx context.Context, symbol string, lookback int) ([]Bar, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("md: lookback must be positive, got %d", lookback)
	}

	now := time.Now().UTC()
	// Calendar days outnumber trading days; over-fetch and trim the tail.
	start := now.AddDate(0, 0, -(2*lookback + 14))

	raw, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Raw,
		Start:      start,
		End:        now,
		Feed:       s.feed,
	})
	if err != nil {
		s.cfg.Logger.Error().Err(err).Str("symbol", symbol).Msg("bar retrieval failed")
		return nil, fmt.Errorf("md: fetching bars for %s: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, bar := range raw {
		bars = append(bars, Bar{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}

	bars = Normalize(bars)
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}

	s.cfg.Logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("bars fetched")
	return bars, nil
}

// Normalize sorts bars by timestamp and drops duplicates so that the
// sequence is strictly increasing. Duplicate bars from the data feed must
// not corrupt downstream average computations.
func Normalize(bars []Bar) []Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	out := bars[:0]
	for idx := range bars {
		if idx > 0 && bars[idx].Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, bars[idx])
	}
	return out
}

// Closes extracts the close price series from a bar sequence.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for idx := range bars {
		closes[idx] = bars[idx].Close
	}
	return closes
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}
