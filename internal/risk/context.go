// Package risk implements pre-trade order validation: a set of independent
// rule checks evaluated over shared reference data, aggregated by an Engine
// that approves or rejects each order with a full list of violations.
package risk

import "sync"

// Context holds the reference data consulted by risk checks: per-symbol
// average daily volume, per-symbol position value, total NAV, cumulative
// PnL, and start-of-day NAV. Checks read it concurrently; writes come from
// fill processing and the external NAV/PnL feed, under the write lock.
type Context struct {
	mu             sync.RWMutex
	adv            map[string]float64
	positionValues map[string]float64
	totalNAV       float64
	currentPnL     float64
	startOfDayNAV  float64
}

// NewContext creates a Context seeded with the given start-of-day NAV. The
// total NAV starts at the same value until the external feed updates it.
func NewContext(startOfDayNAV float64) *Context {
	return &Context{
		adv:            make(map[string]float64),
		positionValues: make(map[string]float64),
		totalNAV:       startOfDayNAV,
		startOfDayNAV:  startOfDayNAV,
	}
}

// SetADV records the average daily volume for a symbol.
func (c *Context) SetADV(symbol string, adv float64) {
	c.mu.Lock()
	c.adv[symbol] = adv
	c.mu.Unlock()
}

// ADV returns the average daily volume for a symbol, if known.
func (c *Context) ADV(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.adv[symbol]
	return v, ok
}

// SetPositionValue records the current dollar value held in a symbol.
func (c *Context) SetPositionValue(symbol string, value float64) {
	c.mu.Lock()
	c.positionValues[symbol] = value
	c.mu.Unlock()
}

// PositionValue returns the current dollar value held in a symbol; zero when
// the symbol has never been traded.
func (c *Context) PositionValue(symbol string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positionValues[symbol]
}

// SetTotalNAV updates the total portfolio NAV.
func (c *Context) SetTotalNAV(nav float64) {
	c.mu.Lock()
	c.totalNAV = nav
	c.mu.Unlock()
}

// TotalNAV returns the total portfolio NAV.
func (c *Context) TotalNAV() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalNAV
}

// SetPnL updates the cumulative PnL since start of day.
func (c *Context) SetPnL(pnl float64) {
	c.mu.Lock()
	c.currentPnL = pnl
	c.mu.Unlock()
}

// PnL returns the cumulative PnL since start of day.
func (c *Context) PnL() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentPnL
}

// SetStartOfDayNAV updates the start-of-day NAV baseline.
func (c *Context) SetStartOfDayNAV(nav float64) {
	c.mu.Lock()
	c.startOfDayNAV = nav
	c.mu.Unlock()
}

// StartOfDayNAV returns the start-of-day NAV baseline.
func (c *Context) StartOfDayNAV() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startOfDayNAV
}
