package position

import (
	"math"
	"sync"
	"testing"
)

func TestStoreLazyCreation(t *testing.T) {
	s := NewStore()

	p := s.Get("AAPL")
	if p.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", p.Symbol)
	}
	if p.Qty != 0 || p.AvgCost != 0 {
		t.Errorf("fresh position should be flat, got qty=%v avg=%v", p.Qty, p.AvgCost)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1 after first reference", s.Count())
	}

	// Flat positions persist; referencing again does not duplicate.
	s.Get("AAPL")
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1 after repeat reference", s.Count())
	}
}

func TestApplyFillWeightedAverage(t *testing.T) {
	s := NewStore()

	s.ApplyFill("MSFT", 100, 400)
	p := s.ApplyFill("MSFT", 100, 420)

	if p.Qty != 200 {
		t.Errorf("Qty = %v, want 200", p.Qty)
	}
	if math.Abs(p.AvgCost-410) > 1e-9 {
		t.Errorf("AvgCost = %v, want 410", p.AvgCost)
	}

	// Selling part of the position keeps the weighted formula.
	p = s.ApplyFill("MSFT", -50, 430)
	want := (200*410.0 + (-50)*430.0) / 150.0
	if math.Abs(p.AvgCost-want) > 1e-9 {
		t.Errorf("AvgCost after partial sell = %v, want %v", p.AvgCost, want)
	}
}

func TestApplyFillFlatResetsAvgCost(t *testing.T) {
	s := NewStore()

	s.ApplyFill("TSLA", 10, 250)
	p := s.ApplyFill("TSLA", -10, 260)

	if p.Qty != 0 {
		t.Fatalf("Qty = %v, want 0", p.Qty)
	}
	if p.AvgCost != 0 {
		t.Errorf("AvgCost = %v, want 0 when position returns to flat", p.AvgCost)
	}
	if s.Count() != 1 {
		t.Errorf("flat position should not be deleted, Count = %d", s.Count())
	}
}

func TestApplyFillOrderIndependentAvgCost(t *testing.T) {
	// Two fills on the same side produce the same average cost regardless
	// of application order (no sign crossing).
	a := NewStore()
	a.ApplyFill("NVDA", 30, 120)
	pa := a.ApplyFill("NVDA", 70, 135)

	b := NewStore()
	b.ApplyFill("NVDA", 70, 135)
	pb := b.ApplyFill("NVDA", 30, 120)

	if pa.Qty != pb.Qty {
		t.Errorf("Qty mismatch: %v vs %v", pa.Qty, pb.Qty)
	}
	if math.Abs(pa.AvgCost-pb.AvgCost) > 1e-9 {
		t.Errorf("AvgCost order-dependent: %v vs %v", pa.AvgCost, pb.AvgCost)
	}
}

func TestApplyFillConcurrent(t *testing.T) {
	s := NewStore()

	const workers = 8
	const fillsPerWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < fillsPerWorker; i++ {
				s.ApplyFill("AAPL", 1, 185)
			}
		}()
	}
	wg.Wait()

	p := s.Get("AAPL")
	if p.Qty != workers*fillsPerWorker {
		t.Errorf("Qty = %v, want %v", p.Qty, workers*fillsPerWorker)
	}
	// Single fill price: the weighted average must equal that price exactly.
	if math.Abs(p.AvgCost-185) > 1e-9 {
		t.Errorf("AvgCost = %v, want 185", p.AvgCost)
	}
}

func TestTotalExposure(t *testing.T) {
	s := NewStore()
	s.ApplyFill("AAPL", 100, 185)
	s.ApplyFill("MSFT", -50, 400)

	want := 100*185.0 + 50*400.0
	if got := s.TotalExposure(); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalExposure = %v, want %v", got, want)
	}
}
