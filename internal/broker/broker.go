// Package broker wraps the Alpaca trading API behind the narrow surface the
// bot needs.
package broker

import (
	"context"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// defaultRequestTimeout bounds brokerage HTTP requests when no timeout is
// configured.
const defaultRequestTimeout = 10 * time.Second

// OrderRequest describes a single order placement.
type OrderRequest struct {
	Symbol        string
	Qty           int
	Side          alpaca.Side
	Type          alpaca.OrderType
	TimeInForce   alpaca.TimeInForce
	ClientOrderID string
}

// OrderRef identifies an order accepted by the brokerage.
type OrderRef struct {
	ID            string
	ClientOrderID string
	Status        string
}

// Clock is the brokerage market clock.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Position is the brokerage-side holding for a symbol.
type Position struct {
	Symbol   string
	Qty      int
	AvgEntry float64
}

// Account is a snapshot of the trading account.
type Account struct {
	AccountNumber string
	Equity        float64
	BuyingPower   float64
	Cash          float64
}

// Asset describes a tradable instrument.
type Asset struct {
	Symbol   string
	Tradable bool
	Status   string
}

// Config represents the configuration for the broker client.
type Config struct {
	// APIKey is the Alpaca API key.
	APIKey string
	// APISecret is the Alpaca API secret.
	APISecret string
	// BaseURL is the trading API base URL.
	BaseURL string
	// RequestTimeout bounds each HTTP request to the brokerage.
	RequestTimeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Client owns the single brokerage connection handle. Credentials are
// injected at construction; nothing here reads ambient global state.
type Client struct {
	cfg    *Config
	client *alpaca.Client
}

// New initializes a broker client.
func New(cfg *Config) *Client {
	return &Client{cfg: cfg, client: alpaca.NewClient(clientOpts(cfg))}
}

func clientOpts(cfg *Config) alpaca.ClientOpts {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return alpaca.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
		// The executor owns retry policy; keep the SDK from retrying rate
		// limits underneath it, or attempt accounting drifts from the number
		// of requests actually sent.
		RetryLimit: -1,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// PlaceOrder submits a single order to the brokerage.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderRef, error) {
	qty := decimal.NewFromInt(int64(req.Qty))
	order, err := c.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		c.cfg.Logger.Error().Err(err).Str("symbol", req.Symbol).Str("side", string(req.Side)).
			Int("qty", req.Qty).Str("client_order_id", req.ClientOrderID).Msg("place order failed")
		return OrderRef{}, err
	}

	c.cfg.Logger.Info().Str("order_id", order.ID).Str("symbol", req.Symbol).
		Str("side", string(req.Side)).Int("qty", req.Qty).Str("status", string(order.Status)).
		Msg("place order success")
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

// OrderByClientID looks up an order by its client order ID. Used to settle
// ambiguous submission outcomes before retrying.
func (c *Client) OrderByClientID(ctx context.Context, clientOrderID string) (OrderRef, error) {
	order, err := c.client.GetOrderByClientOrderID(clientOrderID)
	if err != nil {
		return OrderRef{}, err
	}
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

// Clock fetches the brokerage market clock.
func (c *Client) Clock(ctx context.Context) (Clock, error) {
	clock, err := c.client.GetClock()
	if err != nil {
		c.cfg.Logger.Error().Err(err).Msg("fetch market clock failed")
		return Clock{}, err
	}
	return Clock{
		Timestamp: clock.Timestamp,
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

// Position fetches the current holding for a symbol. A missing position is
// a flat position, not an error.
func (c *Client) Position(ctx context.Context, symbol string) (Position, error) {
	pos, err := c.client.GetPosition(symbol)
	if err != nil {
		if IsNotFound(err) {
			return Position{Symbol: symbol}, nil
		}
		c.cfg.Logger.Error().Err(err).Str("symbol", symbol).Msg("fetch position failed")
		return Position{}, err
	}

	avgEntry, _ := pos.AvgEntryPrice.Float64()
	return Position{
		Symbol:   pos.Symbol,
		Qty:      int(pos.Qty.IntPart()),
		AvgEntry: avgEntry,
	}, nil
}

// Account fetches the account snapshot.
func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		c.cfg.Logger.Error().Err(err).Msg("fetch account failed")
		return Account{}, err
	}

	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()
	cash, _ := acct.Cash.Float64()
	return Account{
		AccountNumber: acct.AccountNumber,
		Equity:        equity,
		BuyingPower:   buyingPower,
		Cash:          cash,
	}, nil
}

// Asset fetches instrument metadata for a symbol.
func (c *Client) Asset(ctx context.Context, symbol string) (Asset, error) {
	asset, err := c.client.GetAsset(symbol)
	if err != nil {
		c.cfg.Logger.Error().Err(err).Str("symbol", symbol).Msg("fetch asset failed")
		return Asset{}, err
	}
	return Asset{
		Symbol:   asset.Symbol,
		Tradable: asset.Tradable,
		Status:   string(asset.Status),
	}, nil
}

// WaitForContext sleeps for the delay or until the context is cancelled,
// whichever comes first.
func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
