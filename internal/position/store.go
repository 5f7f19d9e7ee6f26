// Package position maintains the in-memory position book. All mutation goes
// through ApplyFill so the weighted-average cost invariant holds under
// concurrent fills.
package position

import (
	"math"
	"sync"
	"time"

	"tradewind/internal/domain"
)

// Store is a thread-safe map from symbol to current position. Reads may run
// concurrently; fills take the write lock, which serialises the
// read-modify-write of quantity and average cost per symbol.
type Store struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position
}

// NewStore creates an empty position Store.
func NewStore() *Store {
	return &Store{
		positions: make(map[string]*domain.Position),
	}
}

// Get returns a copy of the position for symbol, creating a zero position on
// first reference. Positions are never deleted, even at zero quantity.
func (s *Store) Get(symbol string) domain.Position {
	s.mu.RLock()
	if p, ok := s.positions[symbol]; ok {
		defer s.mu.RUnlock()
		return *p
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getLocked(symbol)
}

// ApplyFill applies a signed quantity delta at the given fill price and
// returns the resulting position. Average cost follows the weighted formula
//
//	newAvg = (oldQty*oldAvg + delta*price) / (oldQty+delta)
//
// and resets to 0 when the resulting quantity is exactly 0.
func (s *Store) ApplyFill(symbol string, deltaQty, price float64) domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getLocked(symbol)
	oldQty := p.Qty
	newQty := oldQty + deltaQty

	if newQty == 0 {
		p.AvgCost = 0
	} else {
		p.AvgCost = (oldQty*p.AvgCost + deltaQty*price) / newQty
	}
	p.Qty = newQty
	p.UpdatedAt = time.Now().UTC()
	return *p
}

// All returns copies of every tracked position, including flat ones.
func (s *Store) All() []domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, *p)
	}
	return out
}

// TotalExposure returns the sum of |qty*avgCost| across all positions.
func (s *Store) TotalExposure() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, p := range s.positions {
		total += math.Abs(p.Qty * p.AvgCost)
	}
	return total
}

// Count returns the number of tracked symbols.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// getLocked returns the live position for symbol, creating it if needed.
// Caller must hold at least the write lock when creation is possible.
func (s *Store) getLocked(symbol string) *domain.Position {
	p, ok := s.positions[symbol]
	if !ok {
		p = &domain.Position{Symbol: symbol}
		s.positions[symbol] = p
	}
	return p
}
