// Package feed provides market price lookup for components that need a
// reference price when an order does not carry one.
package feed

import "sync"

// PriceFeed returns the current market price for a symbol. The second return
// value is false when no price is known.
type PriceFeed interface {
	CurrentPrice(symbol string) (float64, bool)
}

// Compile-time interface check.
var _ PriceFeed = (*StaticFeed)(nil)

// StaticFeed is a thread-safe in-memory price map, fed externally (tests,
// the price endpoint, or a replay process).
type StaticFeed struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticFeed creates an empty StaticFeed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{prices: make(map[string]float64)}
}

// SetPrice records the current price for a symbol.
func (f *StaticFeed) SetPrice(symbol string, price float64) {
	f.mu.Lock()
	f.prices[symbol] = price
	f.mu.Unlock()
}

// CurrentPrice returns the last recorded price for symbol.
func (f *StaticFeed) CurrentPrice(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.prices[symbol]
	return p, ok
}
