package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradewind/internal/domain"
	"tradewind/internal/feed"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// fallbackPrice is used when an order carries no limit price and the feed
// has no quote for the symbol.
const fallbackPrice = 100.0

// SimulatorBroker implements the Broker interface for paper trading. Every
// executed order fills completely after an artificial latency, at the
// order's limit price when present, otherwise at the feed price.
type SimulatorBroker struct {
	prices  feed.PriceFeed
	latency time.Duration

	mu        sync.Mutex
	cancelled map[string]bool

	// FailFn, when set, is consulted before each execution; a non-nil
	// return fails that attempt. Used to exercise retry handling.
	FailFn func(order *domain.Order) error
}

// NewSimulatorBroker creates a SimulatorBroker that fills after the given
// latency using prices from the feed.
func NewSimulatorBroker(prices feed.PriceFeed, latency time.Duration) *SimulatorBroker {
	return &SimulatorBroker{
		prices:    prices,
		latency:   latency,
		cancelled: make(map[string]bool),
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// Execute fills the order's remaining quantity after the configured latency.
func (b *SimulatorBroker) Execute(ctx context.Context, order *domain.Order) (*domain.Execution, error) {
	if fn := b.FailFn; fn != nil {
		if err := fn(order); err != nil {
			return nil, err
		}
	}

	if b.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.latency):
		}
	}

	b.mu.Lock()
	cancelled := b.cancelled[order.ID]
	b.mu.Unlock()
	if cancelled {
		return nil, fmt.Errorf("order %s was cancelled at the venue", order.ID)
	}

	return &domain.Execution{
		OrderID:   order.ID,
		Symbol:    order.Symbol,
		Side:      order.Side,
		Qty:       order.Remaining(),
		Price:     b.fillPrice(order),
		Timestamp: time.Now().UTC(),
	}, nil
}

// CancelOrder marks the order cancelled; a later Execute for it fails.
func (b *SimulatorBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	b.cancelled[orderID] = true
	b.mu.Unlock()
	return nil
}

// fillPrice resolves the execution price: limit price, feed price, or the
// static fallback when neither is known.
func (b *SimulatorBroker) fillPrice(order *domain.Order) float64 {
	if order.LimitPrice > 0 {
		return order.LimitPrice
	}
	if b.prices != nil {
		if p, ok := b.prices.CurrentPrice(order.Symbol); ok {
			return p
		}
	}
	return fallbackPrice
}
