package feed

import "testing"

func TestStaticFeed(t *testing.T) {
	f := NewStaticFeed()

	if _, ok := f.CurrentPrice("AAPL"); ok {
		t.Error("empty feed should report no price")
	}

	f.SetPrice("AAPL", 185.5)
	p, ok := f.CurrentPrice("AAPL")
	if !ok {
		t.Fatal("price should be known after SetPrice")
	}
	if p != 185.5 {
		t.Errorf("CurrentPrice = %v, want 185.5", p)
	}

	f.SetPrice("AAPL", 186.0)
	if p, _ := f.CurrentPrice("AAPL"); p != 186.0 {
		t.Errorf("CurrentPrice after update = %v, want 186.0", p)
	}
}
