package risk

import (
	"strings"
	"testing"

	"tradewind/internal/domain"
)

func TestFatFingerCheck(t *testing.T) {
	rctx := NewContext(1_000_000)
	rctx.SetADV("AAPL", 80_000_000)
	check := NewFatFingerCheck(0.05)

	// 5M shares against an 80M ADV at a 5% cap (4M) is rejected.
	big := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 5_000_000)
	ok, reason := check.Validate(big, 0, rctx)
	if ok {
		t.Error("5M share order should breach 5% of 80M ADV")
	}
	if !strings.Contains(reason, "AAPL") {
		t.Errorf("reason should name the symbol: %q", reason)
	}

	// 3M shares is under the 4M cap.
	small := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 3_000_000)
	if ok, _ := check.Validate(small, 0, rctx); !ok {
		t.Error("3M share order should pass 5% of 80M ADV")
	}
}

func TestFatFingerCheckUnknownADVPasses(t *testing.T) {
	rctx := NewContext(1_000_000)
	check := NewFatFingerCheck(0.05)

	o := domain.NewOrder("ZZZZ", domain.OrderSideBuy, domain.OrderTypeMarket, 1e9)
	if ok, _ := check.Validate(o, 0, rctx); !ok {
		t.Error("missing ADV must not block the order")
	}
}

func TestDrawdownCheck(t *testing.T) {
	rctx := NewContext(1_000_000)
	rctx.SetPnL(-60_000) // 6% drawdown against 1M start-of-day NAV
	check := NewDrawdownCheck(0.05)

	buy := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 100)
	ok, reason := check.Validate(buy, 0, rctx)
	if ok {
		t.Error("buy should be rejected at 6% drawdown against a 5% limit")
	}
	if !strings.Contains(reason, "drawdown") {
		t.Errorf("reason should mention drawdown: %q", reason)
	}

	// Sells reduce exposure and always pass this check.
	sell := domain.NewOrder("AAPL", domain.OrderSideSell, domain.OrderTypeMarket, 100)
	if ok, _ := check.Validate(sell, 0, rctx); !ok {
		t.Error("sell should pass the drawdown check")
	}
}

func TestDrawdownCheckUnderLimitPasses(t *testing.T) {
	rctx := NewContext(1_000_000)
	rctx.SetPnL(-40_000) // 4% drawdown
	check := NewDrawdownCheck(0.05)

	buy := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 100)
	if ok, _ := check.Validate(buy, 0, rctx); !ok {
		t.Error("buy should pass at 4% drawdown against a 5% limit")
	}
}

func TestDrawdownCheckMissingBaselineRejects(t *testing.T) {
	rctx := NewContext(0)
	check := NewDrawdownCheck(0.05)

	o := domain.NewOrder("AAPL", domain.OrderSideSell, domain.OrderTypeMarket, 100)
	ok, reason := check.Validate(o, 0, rctx)
	if ok {
		t.Error("non-positive start-of-day NAV must reject: baseline undefined")
	}
	if !strings.Contains(reason, "start-of-day NAV") {
		t.Errorf("reason should explain the undefined baseline: %q", reason)
	}
}

func TestConcentrationCheck(t *testing.T) {
	rctx := NewContext(1_000_000)
	rctx.SetPositionValue("MSFT", 80_000)
	check := NewConcentrationCheck(0.10)

	// 100 shares @ $150 adds $15k → 9.5% of 1M NAV, approved.
	small := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeLimit, 100)
	small.LimitPrice = 150
	if ok, _ := check.Validate(small, 150, rctx); !ok {
		t.Error("9.5% concentration should pass a 10% limit")
	}

	// 200 shares @ $150 adds $30k → 11%, rejected.
	big := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeLimit, 200)
	big.LimitPrice = 150
	ok, reason := check.Validate(big, 150, rctx)
	if ok {
		t.Error("11% concentration should breach a 10% limit")
	}
	if !strings.Contains(reason, "MSFT") {
		t.Errorf("reason should name the symbol: %q", reason)
	}
}

func TestConcentrationCheckSellAddsToEstimate(t *testing.T) {
	// Side is not netted: a sell sizes against the worst case just like a buy.
	rctx := NewContext(1_000_000)
	rctx.SetPositionValue("MSFT", 80_000)
	check := NewConcentrationCheck(0.10)

	sell := domain.NewOrder("MSFT", domain.OrderSideSell, domain.OrderTypeLimit, 200)
	sell.LimitPrice = 150
	if ok, _ := check.Validate(sell, 150, rctx); ok {
		t.Error("sell notional still counts toward the concentration estimate")
	}
}

func TestConcentrationCheckNoNAVPasses(t *testing.T) {
	rctx := NewContext(0)
	check := NewConcentrationCheck(0.10)

	o := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeLimit, 1e6)
	o.LimitPrice = 150
	if ok, _ := check.Validate(o, 150, rctx); !ok {
		t.Error("missing NAV must not block the order")
	}
}

func TestCheckToggle(t *testing.T) {
	check := NewFatFingerCheck(0.05)
	if !check.Enabled() {
		t.Error("checks should default to enabled")
	}
	check.SetEnabled(false)
	if check.Enabled() {
		t.Error("SetEnabled(false) should disable the check")
	}
	check.SetEnabled(true)
	if !check.Enabled() {
		t.Error("SetEnabled(true) should re-enable the check")
	}
}

func TestNewCheckFactory(t *testing.T) {
	for _, name := range []string{"fat_finger", "drawdown", "concentration"} {
		c, err := NewCheck(name, 0.05)
		if err != nil {
			t.Fatalf("NewCheck(%q): %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("NewCheck(%q).Name() = %q", name, c.Name())
		}
	}

	if _, err := NewCheck("var_limit", 0.05); err == nil {
		t.Error("unknown check name should be an error")
	}
}
