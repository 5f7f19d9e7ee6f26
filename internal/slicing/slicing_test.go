package slicing

import (
	"math"
	"testing"
	"time"

	"tradewind/internal/domain"
)

func TestTWAPEvenSplit(t *testing.T) {
	parent := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeTWAP, 1000)

	children, err := TWAP(parent, 10)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}
	if len(children) != 10 {
		t.Fatalf("got %d children, want 10", len(children))
	}
	for i, c := range children {
		if c.Qty != 100 {
			t.Errorf("child %d qty = %v, want 100", i, c.Qty)
		}
		if c.Type != domain.OrderTypeMarket {
			t.Errorf("child %d type = %q, want market", i, c.Type)
		}
		if c.ParentID != parent.ID {
			t.Errorf("child %d missing parent back-reference", i)
		}
		if c.Symbol != parent.Symbol || c.Side != parent.Side {
			t.Errorf("child %d should inherit symbol and side", i)
		}
	}
}

func TestTWAPRemainderDistribution(t *testing.T) {
	parent := domain.NewOrder("AAPL", domain.OrderSideSell, domain.OrderTypeTWAP, 1003)

	children, err := TWAP(parent, 10)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}

	sum := 0.0
	for i, c := range children {
		sum += c.Qty
		want := 100.0
		if i < 3 {
			want = 101
		}
		if c.Qty != want {
			t.Errorf("child %d qty = %v, want %v", i, c.Qty, want)
		}
	}
	if sum != 1003 {
		t.Errorf("child quantities sum to %v, want 1003 exactly", sum)
	}
}

func TestTWAPFractionalQtySumExact(t *testing.T) {
	parent := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeTWAP, 100.5)

	children, err := TWAP(parent, 4)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}

	sum := 0.0
	for _, c := range children {
		sum += c.Qty
	}
	if math.Abs(sum-100.5) > 1e-12 {
		t.Errorf("child quantities sum to %v, want 100.5", sum)
	}
}

func TestTWAPSingleSlice(t *testing.T) {
	parent := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeTWAP, 7)

	children, err := TWAP(parent, 1)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}
	if len(children) != 1 || children[0].Qty != 7 {
		t.Errorf("single slice should carry the full quantity, got %+v", children)
	}
}

func TestTWAPConfigErrors(t *testing.T) {
	parent := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeTWAP, 100)

	if _, err := TWAP(parent, 0); err != ErrInvalidSliceCount {
		t.Errorf("slices=0: err = %v, want ErrInvalidSliceCount", err)
	}
	if _, err := TWAP(parent, -3); err != ErrInvalidSliceCount {
		t.Errorf("slices=-3: err = %v, want ErrInvalidSliceCount", err)
	}

	empty := domain.NewOrder("AAPL", domain.OrderSideBuy, domain.OrderTypeTWAP, 0)
	if _, err := TWAP(empty, 5); err != ErrInvalidQty {
		t.Errorf("qty=0: err = %v, want ErrInvalidQty", err)
	}
}

func TestTWAPOffsets(t *testing.T) {
	offsets := TWAPOffsets(10, 10*time.Minute)
	if len(offsets) != 10 {
		t.Fatalf("got %d offsets, want 10", len(offsets))
	}
	for i, off := range offsets {
		want := time.Duration(i) * time.Minute
		if off != want {
			t.Errorf("offset %d = %v, want %v", i, off, want)
		}
	}
}

func TestTWAPOffsetsTruncation(t *testing.T) {
	// 10s across 3 slices: interval truncates to 3.333…s; the last slice
	// fires at 2*interval, before the nominal 2/3 mark drift-free value.
	offsets := TWAPOffsets(3, 10*time.Second)
	interval := 10 * time.Second / 3
	if offsets[2] != 2*interval {
		t.Errorf("final offset = %v, want %v", offsets[2], 2*interval)
	}
}

func TestIcebergChunks(t *testing.T) {
	parent := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeIceberg, 750)
	parent.LimitPrice = 400

	children, err := Iceberg(parent, 200)
	if err != nil {
		t.Fatalf("Iceberg: %v", err)
	}
	if len(children) != 4 {
		t.Fatalf("got %d children, want 4", len(children))
	}

	sum := 0.0
	for i, c := range children {
		sum += c.Qty
		if c.Type != domain.OrderTypeLimit {
			t.Errorf("child %d type = %q, want limit", i, c.Type)
		}
		if c.LimitPrice != 400 {
			t.Errorf("child %d limit price = %v, want 400", i, c.LimitPrice)
		}
		if i < 3 && c.Qty != 200 {
			t.Errorf("child %d qty = %v, want 200 (visible size)", i, c.Qty)
		}
	}
	if children[3].Qty != 150 {
		t.Errorf("last chunk qty = %v, want 150", children[3].Qty)
	}
	if sum != 750 {
		t.Errorf("child quantities sum to %v, want 750", sum)
	}
}

func TestIcebergExactMultiple(t *testing.T) {
	parent := domain.NewOrder("MSFT", domain.OrderSideSell, domain.OrderTypeIceberg, 600)
	parent.LimitPrice = 400

	children, err := Iceberg(parent, 200)
	if err != nil {
		t.Fatalf("Iceberg: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3", len(children))
	}
	for i, c := range children {
		if c.Qty != 200 {
			t.Errorf("child %d qty = %v, want 200", i, c.Qty)
		}
	}
}

func TestIcebergConfigErrors(t *testing.T) {
	parent := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeIceberg, 100)

	if _, err := Iceberg(parent, 0); err != ErrInvalidVisibleQty {
		t.Errorf("visible=0: err = %v, want ErrInvalidVisibleQty", err)
	}

	empty := domain.NewOrder("MSFT", domain.OrderSideBuy, domain.OrderTypeIceberg, 0)
	if _, err := Iceberg(empty, 100); err != ErrInvalidQty {
		t.Errorf("qty=0: err = %v, want ErrInvalidQty", err)
	}
}
