package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"tradewind/internal/domain"
	"tradewind/internal/util"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker implements the Broker interface against the Alpaca trading
// API. Submissions are rate limited; after placing an order it polls until
// the order reaches a terminal status.
type AlpacaBroker struct {
	client       *alpaca.Client
	limiter      *util.RateLimiter
	pollInterval time.Duration
	log          *slog.Logger
}

// NewAlpacaBroker creates an AlpacaBroker with the given credentials and
// API endpoint. ratePerMin bounds order submissions per minute.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string, ratePerMin int) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		limiter:      util.NewRateLimiter(ratePerMin),
		pollInterval: 500 * time.Millisecond,
		log:          slog.Default().With("broker", "alpaca"),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// Execute places the order's remaining quantity with Alpaca and polls until
// it fills or fails.
func (b *AlpacaBroker) Execute(ctx context.Context, order *domain.Order) (*domain.Execution, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := placeOrderRequest(order)
	if err != nil {
		return nil, err
	}

	placed, err := b.client.PlaceOrder(req)
	if err != nil {
		return nil, fmt.Errorf("placing order for %s: %w", order.Symbol, err)
	}
	b.log.Info("order placed", "symbol", order.Symbol, "alpacaID", placed.ID)

	return b.awaitFill(ctx, order, placed.ID)
}

// CancelOrder requests cancellation of an open order at Alpaca.
func (b *AlpacaBroker) CancelOrder(_ context.Context, orderID string) error {
	return b.client.CancelOrder(orderID)
}

// awaitFill polls the placed order until it reaches a terminal status.
func (b *AlpacaBroker) awaitFill(ctx context.Context, order *domain.Order, alpacaID string) (*domain.Execution, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		current, err := b.client.GetOrder(alpacaID)
		if err != nil {
			return nil, fmt.Errorf("polling order %s: %w", alpacaID, err)
		}

		switch current.Status {
		case "filled":
			price := 0.0
			if current.FilledAvgPrice != nil {
				price = current.FilledAvgPrice.InexactFloat64()
			}
			return &domain.Execution{
				OrderID:   order.ID,
				Symbol:    order.Symbol,
				Side:      order.Side,
				Qty:       current.FilledQty.InexactFloat64(),
				Price:     price,
				Timestamp: time.Now().UTC(),
			}, nil
		case "canceled", "expired", "rejected":
			return nil, fmt.Errorf("order %s ended %s at the venue", alpacaID, current.Status)
		}
	}
}

// placeOrderRequest maps a domain order onto the Alpaca API request.
func placeOrderRequest(order *domain.Order) (alpaca.PlaceOrderRequest, error) {
	qty := decimal.NewFromFloat(order.Remaining())

	req := alpaca.PlaceOrderRequest{
		Symbol:      order.Symbol,
		Qty:         &qty,
		TimeInForce: alpaca.Day,
	}

	switch order.Side {
	case domain.OrderSideBuy:
		req.Side = alpaca.Buy
	case domain.OrderSideSell:
		req.Side = alpaca.Sell
	default:
		return req, fmt.Errorf("unsupported order side %q", order.Side)
	}

	switch order.Type {
	case domain.OrderTypeMarket:
		req.Type = alpaca.Market
	case domain.OrderTypeLimit:
		if order.LimitPrice <= 0 {
			return req, fmt.Errorf("limit order %s has no limit price", order.ID)
		}
		limit := decimal.NewFromFloat(order.LimitPrice)
		req.Type = alpaca.Limit
		req.LimitPrice = &limit
	default:
		return req, fmt.Errorf("order type %q cannot be sent to the venue directly", order.Type)
	}

	return req, nil
}
