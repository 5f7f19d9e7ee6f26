// Package exec is the execution core: it slices parent orders, gates child
// orders through the risk engine, drives them to the broker on a bounded
// worker pool, and rolls fills back up into parent state and positions.
package exec

import (
	"sync"
	"time"
)

// FillEvent is emitted on the bus when a child order fills.
type FillEvent struct {
	OrderID  string    `json:"order_id"`
	ParentID string    `json:"parent_id,omitempty"`
	Symbol   string    `json:"symbol"`
	Qty      float64   `json:"qty"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
}

// FillBus fans out fill events to subscribers. Sends never block: a slow
// subscriber drops events rather than stalling the execution path, so
// consumers that need a complete picture must pair the bus with polling.
type FillBus struct {
	mu        sync.Mutex
	nextSubID int
	subs      map[int]chan FillEvent
}

// NewFillBus creates an empty bus.
func NewFillBus() *FillBus {
	return &FillBus{subs: make(map[int]chan FillEvent)}
}

// Subscribe creates a new subscription channel with the given buffer size.
func (b *FillBus) Subscribe(bufSize int) (id int, ch <-chan FillEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id = b.nextSubID
	b.nextSubID++
	c := make(chan FillEvent, bufSize)
	b.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel.
func (b *FillBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish delivers the event to every subscriber (non-blocking send).
func (b *FillBus) Publish(evt FillEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
}
