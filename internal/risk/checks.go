package risk

import (
	"fmt"
	"sync/atomic"

	"tradewind/internal/domain"
)

// Violation identifies the rule an order broke.
type Violation string

const (
	ViolationFatFinger     Violation = "fat_finger"
	ViolationDrawdown      Violation = "drawdown"
	ViolationConcentration Violation = "concentration"
)

// Check is a single pre-trade rule. Validate evaluates the order against the
// shared Context and returns whether it passes plus a human-readable reason
// when it does not. price is the reference price resolved by the engine
// (order limit price, or the price feed).
type Check interface {
	// Name returns the check identifier.
	Name() string

	// Violation returns the violation kind this check reports.
	Violation() Violation

	// Enabled reports whether the check participates in validation.
	Enabled() bool

	// SetEnabled toggles the check on or off.
	SetEnabled(enabled bool)

	// Validate evaluates the order. A failing check returns false and a
	// reason describing the breach.
	Validate(order *domain.Order, price float64, rctx *Context) (bool, string)
}

// toggle provides the Enabled/SetEnabled behaviour shared by all checks.
// Checks default to enabled.
type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool           { return !t.disabled.Load() }
func (t *toggle) SetEnabled(enabled bool) { t.disabled.Store(!enabled) }

// ---------------------------------------------------------------------------
// Fat finger
// ---------------------------------------------------------------------------

// FatFingerCheck rejects orders whose quantity exceeds a fraction of the
// symbol's average daily volume. A symbol with no ADV on record passes:
// missing reference data must not block trading.
type FatFingerCheck struct {
	toggle
	maxADVPct float64
}

// NewFatFingerCheck creates a FatFingerCheck limiting order quantity to
// maxADVPct of the symbol's ADV.
func NewFatFingerCheck(maxADVPct float64) *FatFingerCheck {
	return &FatFingerCheck{maxADVPct: maxADVPct}
}

// Name returns the check identifier.
func (c *FatFingerCheck) Name() string { return "fat_finger" }

// Violation returns ViolationFatFinger.
func (c *FatFingerCheck) Violation() Violation { return ViolationFatFinger }

// Validate rejects when order quantity exceeds ADV * maxADVPct.
func (c *FatFingerCheck) Validate(order *domain.Order, _ float64, rctx *Context) (bool, string) {
	adv, ok := rctx.ADV(order.Symbol)
	if !ok {
		return true, ""
	}

	maxQty := adv * c.maxADVPct
	if order.Qty > maxQty {
		return false, fmt.Sprintf("order quantity %.0f for %s exceeds %.1f%% of ADV (max %.0f)",
			order.Qty, order.Symbol, c.maxADVPct*100, maxQty)
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// Drawdown
// ---------------------------------------------------------------------------

// DrawdownCheck blocks buy orders while the portfolio drawdown from the
// start-of-day NAV exceeds the configured limit. Sell orders always pass:
// reducing exposure is never blocked. A missing or non-positive start-of-day
// NAV rejects outright, since the drawdown baseline is undefined.
type DrawdownCheck struct {
	toggle
	maxDrawdownPct float64
}

// NewDrawdownCheck creates a DrawdownCheck with the given drawdown limit.
func NewDrawdownCheck(maxDrawdownPct float64) *DrawdownCheck {
	return &DrawdownCheck{maxDrawdownPct: maxDrawdownPct}
}

// Name returns the check identifier.
func (c *DrawdownCheck) Name() string { return "drawdown" }

// Violation returns ViolationDrawdown.
func (c *DrawdownCheck) Violation() Violation { return ViolationDrawdown }

// Validate computes drawdown = -PnL / startOfDayNAV and rejects buys above
// the limit.
func (c *DrawdownCheck) Validate(order *domain.Order, _ float64, rctx *Context) (bool, string) {
	sodNAV := rctx.StartOfDayNAV()
	if sodNAV <= 0 {
		return false, fmt.Sprintf("start-of-day NAV %.2f is not positive, drawdown baseline undefined", sodNAV)
	}

	drawdown := -rctx.PnL() / sodNAV
	if drawdown > c.maxDrawdownPct && order.Side == domain.OrderSideBuy {
		return false, fmt.Sprintf("portfolio is in %.2f%% drawdown, exceeds limit of %.2f%%",
			drawdown*100, c.maxDrawdownPct*100)
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// Concentration
// ---------------------------------------------------------------------------

// ConcentrationCheck rejects orders that would push the value held in one
// symbol above a fraction of total NAV. The post-trade estimate adds the
// order notional regardless of side, sizing against the worst case. No NAV
// on record passes.
type ConcentrationCheck struct {
	toggle
	maxConcentrationPct float64
}

// NewConcentrationCheck creates a ConcentrationCheck with the given limit.
func NewConcentrationCheck(maxConcentrationPct float64) *ConcentrationCheck {
	return &ConcentrationCheck{maxConcentrationPct: maxConcentrationPct}
}

// Name returns the check identifier.
func (c *ConcentrationCheck) Name() string { return "concentration" }

// Violation returns ViolationConcentration.
func (c *ConcentrationCheck) Violation() Violation { return ViolationConcentration }

// Validate estimates post-trade concentration and rejects above the limit.
func (c *ConcentrationCheck) Validate(order *domain.Order, price float64, rctx *Context) (bool, string) {
	totalNAV := rctx.TotalNAV()
	if totalNAV <= 0 {
		return true, ""
	}

	postValue := rctx.PositionValue(order.Symbol) + order.Qty*price
	concentration := abs(postValue) / totalNAV
	if concentration > c.maxConcentrationPct {
		return false, fmt.Sprintf("order would result in %.2f%% concentration in %s, exceeds limit of %.2f%%",
			concentration*100, order.Symbol, c.maxConcentrationPct*100)
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// NewCheck constructs a check by name with the given threshold. It is the
// contract point for loading a check set from configuration.
func NewCheck(name string, threshold float64) (Check, error) {
	switch name {
	case "fat_finger":
		return NewFatFingerCheck(threshold), nil
	case "drawdown":
		return NewDrawdownCheck(threshold), nil
	case "concentration":
		return NewConcentrationCheck(threshold), nil
	default:
		return nil, fmt.Errorf("unknown risk check %q", name)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
