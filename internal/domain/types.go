// Package domain defines the core types shared across the tradewind
// platform: orders, positions, executions, and rebalance targets.
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// FillEpsilon is the tolerance used when comparing floating-point
// quantities. Two quantities closer than this are considered equal.
const FillEpsilon = 1e-3

// OrderSide is the direction of an order.
type OrderSide string

// OrderType selects the execution style of an order.
type OrderType string

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"

	OrderTypeMarket  OrderType = "market"
	OrderTypeLimit   OrderType = "limit"
	OrderTypeTWAP    OrderType = "twap"
	OrderTypeIceberg OrderType = "iceberg"

	OrderStatusNew             OrderStatus = "new"
	OrderStatusPendingSubmit   OrderStatus = "pending_submit"
	OrderStatusSubmitted       OrderStatus = "submitted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Order is a parent or child order. A child carries the ID of the parent it
// was sliced from in ParentID; parents have an empty ParentID.
type Order struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parent_id,omitempty"`
	Symbol    string      `json:"symbol"`
	Side      OrderSide   `json:"side"`
	Type      OrderType   `json:"type"`
	Status    OrderStatus `json:"status"`
	Qty       float64     `json:"qty"`
	FilledQty float64     `json:"filled_qty"`

	// LimitPrice applies to limit and iceberg orders; zero means unset.
	LimitPrice float64 `json:"limit_price,omitempty"`

	// TWAP parameters.
	TWAPSlices   int           `json:"twap_slices,omitempty"`
	TWAPDuration time.Duration `json:"twap_duration,omitempty"`

	// Iceberg parameter: size of each visible chunk.
	VisibleQty float64 `json:"visible_qty,omitempty"`

	// Reason records why the order was rejected, when it was.
	Reason string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrder creates an order in status "new" with a fresh ID and timestamps.
func NewOrder(symbol string, side OrderSide, typ OrderType, qty float64) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Type:      typ,
		Status:    OrderStatusNew,
		Qty:       qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() float64 {
	return o.Qty - o.FilledQty
}

// IsFilled reports whether the order is completely filled, within FillEpsilon.
func (o *Order) IsFilled() bool {
	return math.Abs(o.FilledQty-o.Qty) < FillEpsilon
}

// IsTerminal reports whether the order is in a terminal status. No further
// transitions are permitted out of a terminal status.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// SetStatus updates the status and bumps UpdatedAt. Callers are responsible
// for synchronisation and for not transitioning out of a terminal status.
func (o *Order) SetStatus(status OrderStatus) {
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
}

// SignedQty returns the fill-direction quantity for q: positive for buys,
// negative for sells.
func (o *Order) SignedQty(q float64) float64 {
	if o.Side == OrderSideSell {
		return -q
	}
	return q
}

// Position is the current holding in a single symbol. Qty is signed:
// positive is long, negative is short. AvgCost is the cost-weighted average
// entry price, maintained by position.Store.
type Position struct {
	Symbol    string    `json:"symbol"`
	Qty       float64   `json:"qty"`
	AvgCost   float64   `json:"avg_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketValue returns the position value at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Qty * price
}

// Execution records a single fill received from a broker.
type Execution struct {
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// TargetPosition is a desired holding produced by the portfolio layer.
type TargetPosition struct {
	Symbol     string  `json:"symbol"`
	TargetQty  float64 `json:"target_qty"`
	CurrentQty float64 `json:"current_qty"`
}

// Delta returns the quantity change required to reach the target.
func (t TargetPosition) Delta() float64 {
	return t.TargetQty - t.CurrentQty
}
