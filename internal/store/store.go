// Package store defines the persistence sink for orders, executions, and
// position snapshots, with a SQLite implementation for live state and a
// Parquet implementation for execution history archival.
//
// The execution core treats these stores as best-effort side channels: a
// failed save is logged by the caller and never rolls back in-memory state.
package store

import (
	"context"

	"tradewind/internal/domain"
)

// OrderStore persists and retrieves order records.
type OrderStore interface {
	// SaveOrder inserts or updates an order.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// GetOrder retrieves a single order by its ID.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns all orders matching the given status; an empty
	// status matches every order.
	ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
}

// ExecutionStore persists and retrieves fill records.
type ExecutionStore interface {
	// RecordExecution appends one fill record.
	RecordExecution(ctx context.Context, exec domain.Execution) error

	// ListExecutions returns all fills for the given order ID; an empty
	// ID matches every fill.
	ListExecutions(ctx context.Context, orderID string) ([]domain.Execution, error)
}

// PositionStore persists and retrieves position snapshots.
type PositionStore interface {
	// SavePosition upserts the position for a symbol.
	SavePosition(ctx context.Context, pos domain.Position) error

	// ListPositions returns the latest snapshot of every position.
	ListPositions(ctx context.Context) ([]domain.Position, error)
}

// Sink bundles the stores the execution core writes through.
type Sink interface {
	OrderStore
	ExecutionStore
	PositionStore
}
