// Package portfolio turns target positions into parent orders, picking an
// execution style by order size.
package portfolio

import (
	"math"
	"time"

	"tradewind/internal/domain"
)

// Thresholds select the execution style for a rebalance delta and carry the
// per-style parameters. Zero-value fields fall back to the defaults below.
type Thresholds struct {
	// MinQty: deltas strictly below this are left alone.
	MinQty float64

	// TWAPThreshold: deltas above this execute as TWAP.
	TWAPThreshold float64

	// IcebergThreshold: deltas above this (but at or below TWAPThreshold)
	// execute as iceberg.
	IcebergThreshold float64

	TWAPSlices     int
	TWAPDuration   time.Duration
	IcebergVisible float64
}

const (
	DefaultMinQty           = 1.0
	DefaultTWAPThreshold    = 1000.0
	DefaultIcebergThreshold = 500.0
	DefaultTWAPSlices       = 10
	DefaultTWAPDuration     = 5 * time.Minute
	DefaultIcebergVisible   = 100.0
)

// Planner plans rebalance orders from target positions.
type Planner struct {
	th Thresholds
}

// NewPlanner creates a Planner, filling unset threshold fields with defaults.
func NewPlanner(th Thresholds) *Planner {
	if th.MinQty <= 0 {
		th.MinQty = DefaultMinQty
	}
	if th.TWAPThreshold <= 0 {
		th.TWAPThreshold = DefaultTWAPThreshold
	}
	if th.IcebergThreshold <= 0 {
		th.IcebergThreshold = DefaultIcebergThreshold
	}
	if th.TWAPSlices <= 0 {
		th.TWAPSlices = DefaultTWAPSlices
	}
	if th.TWAPDuration <= 0 {
		th.TWAPDuration = DefaultTWAPDuration
	}
	if th.IcebergVisible <= 0 {
		th.IcebergVisible = DefaultIcebergVisible
	}
	return &Planner{th: th}
}

// Plan converts each target into at most one parent order. Deltas below the
// minimum are skipped; the rest pick twap, iceberg, or market by size.
func (p *Planner) Plan(targets []domain.TargetPosition) []*domain.Order {
	var orders []*domain.Order
	for _, t := range targets {
		if o := p.planOne(t); o != nil {
			orders = append(orders, o)
		}
	}
	return orders
}

// planOne builds the parent order for a single target, or nil when no trade
// is needed.
func (p *Planner) planOne(t domain.TargetPosition) *domain.Order {
	delta := t.Delta()
	qty := math.Abs(delta)
	if qty < p.th.MinQty {
		return nil
	}

	side := domain.OrderSideBuy
	if delta < 0 {
		side = domain.OrderSideSell
	}

	switch {
	case qty > p.th.TWAPThreshold:
		o := domain.NewOrder(t.Symbol, side, domain.OrderTypeTWAP, qty)
		o.TWAPSlices = p.th.TWAPSlices
		o.TWAPDuration = p.th.TWAPDuration
		return o

	case qty > p.th.IcebergThreshold:
		o := domain.NewOrder(t.Symbol, side, domain.OrderTypeIceberg, qty)
		o.VisibleQty = p.th.IcebergVisible
		return o

	default:
		return domain.NewOrder(t.Symbol, side, domain.OrderTypeMarket, qty)
	}
}
