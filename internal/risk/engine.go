package risk

import (
	"fmt"
	"strings"
	"sync/atomic"

	"tradewind/internal/domain"
	"tradewind/internal/feed"
)

// Config fixes the engine's check set and thresholds. Zero-value percentage
// fields fall back to the defaults below; Disable* flags drop the check from
// the engine entirely.
type Config struct {
	MaxADVPct           float64 `yaml:"max_adv_pct"`
	MaxDrawdownPct      float64 `yaml:"max_drawdown_pct"`
	MaxConcentrationPct float64 `yaml:"max_concentration_pct"`

	DisableFatFinger     bool `yaml:"disable_fat_finger"`
	DisableDrawdown      bool `yaml:"disable_drawdown"`
	DisableConcentration bool `yaml:"disable_concentration"`
}

// Default thresholds, matching the limits the desk has always run with.
const (
	DefaultMaxADVPct           = 0.05
	DefaultMaxDrawdownPct      = 0.05
	DefaultMaxConcentrationPct = 0.10
)

// Result is the outcome of validating one order. A rejected order carries
// every violated rule and a reason string concatenating every breach —
// checks are never short-circuited.
type Result struct {
	Approved   bool        `json:"approved"`
	Violations []Violation `json:"violations,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Stats is a snapshot of the engine's validation counters.
type Stats struct {
	Validations uint64 `json:"validations"`
	Approved    uint64 `json:"approved"`
	Rejected    uint64 `json:"rejected"`
}

// Engine aggregates the configured checks. The check set and thresholds are
// fixed at construction; everything mutable the engine consults lives in the
// shared Context. Validation reads only in-memory state and performs no I/O.
type Engine struct {
	checks []Check
	rctx   *Context
	prices feed.PriceFeed

	validations atomic.Uint64
	approved    atomic.Uint64
	rejected    atomic.Uint64
}

// NewEngine builds an Engine from the given configuration. Thresholds must
// be non-negative; negative values are a configuration error.
func NewEngine(cfg Config, rctx *Context, prices feed.PriceFeed) (*Engine, error) {
	if cfg.MaxADVPct < 0 || cfg.MaxDrawdownPct < 0 || cfg.MaxConcentrationPct < 0 {
		return nil, fmt.Errorf("risk thresholds must be non-negative: %+v", cfg)
	}
	if rctx == nil {
		return nil, fmt.Errorf("risk context is required")
	}

	if cfg.MaxADVPct == 0 {
		cfg.MaxADVPct = DefaultMaxADVPct
	}
	if cfg.MaxDrawdownPct == 0 {
		cfg.MaxDrawdownPct = DefaultMaxDrawdownPct
	}
	if cfg.MaxConcentrationPct == 0 {
		cfg.MaxConcentrationPct = DefaultMaxConcentrationPct
	}

	var checks []Check
	if !cfg.DisableFatFinger {
		checks = append(checks, NewFatFingerCheck(cfg.MaxADVPct))
	}
	if !cfg.DisableDrawdown {
		checks = append(checks, NewDrawdownCheck(cfg.MaxDrawdownPct))
	}
	if !cfg.DisableConcentration {
		checks = append(checks, NewConcentrationCheck(cfg.MaxConcentrationPct))
	}

	return &Engine{
		checks: checks,
		rctx:   rctx,
		prices: prices,
	}, nil
}

// Context returns the shared reference-data context the engine reads.
func (e *Engine) Context() *Context {
	return e.rctx
}

// Checks returns the engine's check set. The slice is fixed at construction;
// individual checks may still be toggled via SetEnabled.
func (e *Engine) Checks() []Check {
	return e.checks
}

// Validate runs every enabled check against the order and returns the
// aggregate result. All checks run even after a violation is found, so the
// reason lists every breached rule.
func (e *Engine) Validate(order *domain.Order) Result {
	e.validations.Add(1)

	price := e.referencePrice(order)

	result := Result{Approved: true}
	var reasons []string
	for _, check := range e.checks {
		if !check.Enabled() {
			continue
		}
		ok, reason := check.Validate(order, price, e.rctx)
		if !ok {
			result.Approved = false
			result.Violations = append(result.Violations, check.Violation())
			reasons = append(reasons, reason)
		}
	}
	result.Reason = strings.Join(reasons, "; ")

	if result.Approved {
		e.approved.Add(1)
	} else {
		e.rejected.Add(1)
	}
	return result
}

// ValidateBatch validates each order independently and invokes fn with the
// per-order result. A rejection of one order does not stop evaluation of
// the rest.
func (e *Engine) ValidateBatch(orders []*domain.Order, fn func(*domain.Order, Result)) {
	for _, order := range orders {
		fn(order, e.Validate(order))
	}
}

// Stats returns a snapshot of the validation counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Validations: e.validations.Load(),
		Approved:    e.approved.Load(),
		Rejected:    e.rejected.Load(),
	}
}

// referencePrice resolves the price used for notional estimates: the
// order's limit price when set, otherwise the price feed. An unknown price
// resolves to zero, which sizes the order's own notional contribution at
// zero (missing reference data does not block).
func (e *Engine) referencePrice(order *domain.Order) float64 {
	if order.LimitPrice > 0 {
		return order.LimitPrice
	}
	if e.prices != nil {
		if p, ok := e.prices.CurrentPrice(order.Symbol); ok {
			return p
		}
	}
	return 0
}
