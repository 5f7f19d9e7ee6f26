// Package slicing decomposes parent orders into child orders. Slicing is a
// pure computation: it creates the children and, for time-based algorithms,
// their release offsets, but never executes anything.
package slicing

import (
	"errors"
	"math"
	"time"

	"tradewind/internal/domain"
)

// Configuration errors, surfaced at slicing time and never tolerated
// silently.
var (
	ErrInvalidQty        = errors.New("parent quantity must be positive")
	ErrInvalidSliceCount = errors.New("slice count must be positive")
	ErrInvalidVisibleQty = errors.New("visible quantity must be positive")
)

// child clones the parent's symbol and side into a new child order of the
// given type and quantity, carrying a back-reference to the parent.
func child(parent *domain.Order, typ domain.OrderType, qty float64) *domain.Order {
	c := domain.NewOrder(parent.Symbol, parent.Side, typ, qty)
	c.ParentID = parent.ID
	return c
}

// TWAP slices the parent into n equal children executed as market orders.
// The base size is floor(Q/n); the first (Q mod n) children carry one extra
// unit, and any fractional remainder is folded into the final child so the
// child quantities sum to Q exactly.
func TWAP(parent *domain.Order, n int) ([]*domain.Order, error) {
	if n <= 0 {
		return nil, ErrInvalidSliceCount
	}
	if parent.Qty <= 0 {
		return nil, ErrInvalidQty
	}

	base := math.Floor(parent.Qty / float64(n))
	remainder := parent.Qty - base*float64(n)
	extras := int(remainder)

	children := make([]*domain.Order, 0, n)
	allocated := 0.0
	for i := 0; i < n; i++ {
		qty := base
		if i < extras {
			qty++
		}
		if i == n-1 {
			// Fold the fractional remainder (and any float residue)
			// into the last slice.
			qty = parent.Qty - allocated
		}
		allocated += qty
		children = append(children, child(parent, domain.OrderTypeMarket, qty))
	}
	return children, nil
}

// TWAPOffsets returns the release offset of each of n slices spread across
// duration: slice i is released at i*(duration/n). The per-slice interval
// uses integer duration division, so the final slice can fire up to n-1
// nanosecond remainders before the nominal end of the window.
func TWAPOffsets(n int, duration time.Duration) []time.Duration {
	if n <= 0 {
		return nil
	}
	interval := duration / time.Duration(n)
	offsets := make([]time.Duration, n)
	for i := range offsets {
		offsets[i] = time.Duration(i) * interval
	}
	return offsets
}

// Iceberg slices the parent into limit-order chunks of at most visible
// quantity each, inheriting the parent's limit price. Chunk i+1 must only be
// released once chunk i is completely filled; that policy is enforced by the
// execution coordinator, not here.
func Iceberg(parent *domain.Order, visible float64) ([]*domain.Order, error) {
	if visible <= 0 {
		return nil, ErrInvalidVisibleQty
	}
	if parent.Qty <= 0 {
		return nil, ErrInvalidQty
	}

	var children []*domain.Order
	for remaining := parent.Qty; remaining > 0; {
		qty := math.Min(visible, remaining)
		c := child(parent, domain.OrderTypeLimit, qty)
		c.LimitPrice = parent.LimitPrice
		children = append(children, c)
		remaining -= qty
	}
	return children, nil
}
