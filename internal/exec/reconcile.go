package exec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradewind/internal/position"
	"tradewind/internal/store"
)

// Reconciler periodically re-saves the in-memory order and position state to
// the persistence sink. The execution path persists best-effort; the
// reconciler sweeps up anything a transient failure left behind.
type Reconciler struct {
	coord     *Coordinator
	positions *position.Store
	sink      store.Sink
	interval  time.Duration
	log       *slog.Logger
}

// NewReconciler creates a Reconciler that syncs every interval.
func NewReconciler(coord *Coordinator, positions *position.Store, sink store.Sink, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		coord:     coord,
		positions: positions,
		sink:      sink,
		interval:  interval,
		log:       log.With("component", "reconciler"),
	}
}

// Run reconciles on each tick until the context is cancelled. Failures are
// logged and retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				r.log.Warn("reconciliation incomplete", "error", err)
			}
		}
	}
}

// ReconcileOnce writes every tracked order and position through to the sink.
// It keeps going past individual failures and returns the count of writes
// that failed.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	failed := 0

	for _, o := range r.coord.Orders() {
		if err := r.sink.SaveOrder(ctx, &o); err != nil {
			failed++
			r.log.Warn("order reconcile failed", "order_id", o.ID, "error", err)
		}
	}
	for _, p := range r.positions.All() {
		if err := r.sink.SavePosition(ctx, p); err != nil {
			failed++
			r.log.Warn("position reconcile failed", "symbol", p.Symbol, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d writes failed", failed)
	}
	return nil
}
