// Package broker defines the Broker interface and provides implementations
// for executing orders against a simulated venue or the Alpaca brokerage.
package broker

import (
	"context"

	"tradewind/internal/domain"
)

// Broker abstracts the execution venue. Execute sends one order and blocks
// for the result; implementations return either a complete fill or an error.
// Partial execution of large orders is modelled upstream by slicing, not by
// partial fills from the venue.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// Execute sends the order for execution and blocks until it fills,
	// fails, or ctx is cancelled.
	Execute(ctx context.Context, order *domain.Order) (*domain.Execution, error)

	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, orderID string) error
}
