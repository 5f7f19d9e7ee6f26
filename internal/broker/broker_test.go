package broker

import (
	"context"
	"errors"
	"testing"

	"tradewind/internal/domain"
	"tradewind/internal/feed"
)

func TestSimulatorBrokerName(t *testing.T) {
	b := NewSimulatorBroker(nil, 0)
	if got := b.Name(); got != "simulator" {
		t.Errorf("SimulatorBroker.Name() = %q, want %q", got, "simulator")
	}
}

func TestAlpacaBrokerName(t *testing.T) {
	b := NewAlpacaBroker("key", "secret", "https://paper-api.alpaca.markets", 60)
	if got := b.Name(); got != "alpaca" {
		t.Errorf("AlpacaBroker.Name() = %q, want %q", got, "alpaca")
	}
}

func TestSimulatorExecuteFillsAtFeedPrice(t *testing.T) {
	prices := feed.NewStaticFeed()
	prices.SetPrice("AAPL", 185.5)

	b := NewSimulatorBroker(prices, 0)
	o := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 100)

	exec, err := b.Execute(context.Background(), o)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Qty != 100 {
		t.Errorf("fill qty = %v, want 100 (full fill)", exec.Qty)
	}
	if exec.Price != 185.5 {
		t.Errorf("fill price = %v, want feed price 185.5", exec.Price)
	}
	if exec.OrderID != o.ID || exec.Symbol != "AAPL" {
		t.Errorf("execution should reference the order: %+v", exec)
	}
}

func TestSimulatorExecutePrefersLimitPrice(t *testing.T) {
	prices := feed.NewStaticFeed()
	prices.SetPrice("MSFT", 405)

	b := NewSimulatorBroker(prices, 0)
	o := domain.NewOrder("MSFT", domain.OrderSideSell, domain.OrderTypeLimit, 50)
	o.LimitPrice = 410

	exec, err := b.Execute(context.Background(), o)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Price != 410 {
		t.Errorf("fill price = %v, want limit price 410", exec.Price)
	}
}

func TestSimulatorExecuteFallbackPrice(t *testing.T) {
	b := NewSimulatorBroker(feed.NewStaticFeed(), 0)
	o := domain.NewOrder("ZZZZ", domain.OrderSideBuy, domain.OrderTypeMarket, 10)

	exec, err := b.Execute(context.Background(), o)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Price != fallbackPrice {
		t.Errorf("fill price = %v, want fallback %v", exec.Price, fallbackPrice)
	}
}

func TestSimulatorExecuteFailureHook(t *testing.T) {
	b := NewSimulatorBroker(nil, 0)
	wantErr := errors.New("venue unavailable")
	b.FailFn = func(*domain.Order) error { return wantErr }

	o := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 10)
	if _, err := b.Execute(context.Background(), o); !errors.Is(err, wantErr) {
		t.Errorf("Execute err = %v, want %v", err, wantErr)
	}
}

func TestSimulatorCancelledOrderDoesNotFill(t *testing.T) {
	b := NewSimulatorBroker(nil, 0)
	o := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeMarket, 10)

	if err := b.CancelOrder(context.Background(), o.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if _, err := b.Execute(context.Background(), o); err == nil {
		t.Error("executing a cancelled order should fail")
	}
}
