// Package api exposes the trading platform over HTTP: order submission and
// inspection, positions, risk statistics, reference-data feeds, and a
// server-sent event stream of fills.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tradewind/internal/exec"
	"tradewind/internal/feed"
	"tradewind/internal/position"
	"tradewind/internal/risk"
)

// Server is the platform's HTTP API server.
type Server struct {
	coord     *exec.Coordinator
	positions *position.Store
	riskEng   *risk.Engine
	prices    *feed.StaticFeed
	hub       *Hub
	log       *slog.Logger

	httpServer *http.Server
}

// NewServer wires the API server over the execution core. prices may be nil
// when the deployment has no external price feed endpoint.
func NewServer(addr string, coord *exec.Coordinator, positions *position.Store, riskEng *risk.Engine, prices *feed.StaticFeed, log *slog.Logger) *Server {
	s := &Server{
		coord:     coord,
		positions: positions,
		riskEng:   riskEng,
		prices:    prices,
		hub:       NewHub(coord.Bus(), log),
		log:       log.With("component", "api"),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: corsMiddleware(mux),
	}
	return s
}

// ListenAndServe starts the HTTP listener and the fill-event hub, blocking
// until the context is cancelled or a fatal listener error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown performs a graceful shutdown of the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf(format, args...)})
}
