package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"tradewind/internal/exec"
)

// client is a single SSE connection managed by the Hub.
type client struct {
	send chan []byte
}

// Hub fans fill events out to connected SSE clients. It subscribes to the
// coordinator's fill bus and broadcasts each event as a JSON message; a
// client that falls behind is disconnected rather than allowed to stall the
// broadcast loop.
type Hub struct {
	bus *exec.FillBus
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]bool
}

// NewHub creates a Hub over the given fill bus.
func NewHub(bus *exec.FillBus, log *slog.Logger) *Hub {
	return &Hub{
		bus:     bus,
		log:     log.With("component", "hub"),
		clients: make(map[*client]bool),
	}
}

// Run forwards bus events to connected clients until the context is
// cancelled. It should be launched as a goroutine.
func (h *Hub) Run(ctx context.Context) {
	subID, events := h.bus.Subscribe(64)
	defer h.bus.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				h.log.Error("marshalling fill event", "error", err)
				continue
			}
			h.broadcast(payload)
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, drop the connection.
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// ServeHTTP streams fill events to the client as server-sent events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	c := &client{send: make(chan []byte, 16)}
	h.register(c)
	defer h.unregister(c)

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-c.send:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: fill\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
