package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"tradewind/internal/broker"
	"tradewind/internal/domain"
	"tradewind/internal/position"
	"tradewind/internal/risk"
	"tradewind/internal/slicing"
	"tradewind/internal/store"
	"tradewind/internal/util"
)

var (
	// ErrUnknownOrder is returned when an order ID is not tracked.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrOrderTerminal is returned when an operation targets an order that
	// already reached a terminal status.
	ErrOrderTerminal = errors.New("order is in a terminal status")

	// ErrNotParent is returned when a child order ID is passed where a
	// parent is required.
	ErrNotParent = errors.New("order is not a parent order")
)

// Config tunes the execution core. Zero values fall back to the defaults
// below.
type Config struct {
	// Workers bounds the number of child orders executing concurrently.
	Workers int `yaml:"workers"`

	// MaxRetries bounds broker execution attempts per child order.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the initial backoff between execution attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// IcebergPoll is the fallback tick used while waiting for an iceberg
	// chunk to fill when the fill event was dropped.
	IcebergPoll time.Duration `yaml:"iceberg_poll"`
}

const (
	DefaultWorkers     = 4
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 250 * time.Millisecond
	DefaultIcebergPoll = 500 * time.Millisecond
)

// Coordinator owns the order book and drives parent orders to completion:
// it slices them, releases children in slice order, gates each child through
// the risk engine, executes approved children on a bounded worker pool, and
// rolls fills up into parent status and positions.
type Coordinator struct {
	risk      *risk.Engine
	positions *position.Store
	brk       broker.Broker
	sink      store.Sink // optional; nil disables persistence
	bus       *FillBus
	log       *slog.Logger
	cfg       Config

	mu       sync.RWMutex
	orders   map[string]*domain.Order   // parents and children by ID
	children map[string][]*domain.Order // parent ID → children in slice order
	cancels  map[string]context.CancelFunc

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewCoordinator wires the execution core. sink may be nil to run without
// persistence.
func NewCoordinator(riskEng *risk.Engine, positions *position.Store, brk broker.Broker, sink store.Sink, cfg Config, log *slog.Logger) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.IcebergPoll <= 0 {
		cfg.IcebergPoll = DefaultIcebergPoll
	}

	return &Coordinator{
		risk:      riskEng,
		positions: positions,
		brk:       brk,
		sink:      sink,
		bus:       NewFillBus(),
		log:       log.With("component", "coordinator"),
		cfg:       cfg,
		orders:    make(map[string]*domain.Order),
		children:  make(map[string][]*domain.Order),
		cancels:   make(map[string]context.CancelFunc),
		sem:       make(chan struct{}, cfg.Workers),
	}
}

// Bus returns the fill event bus for streaming consumers.
func (c *Coordinator) Bus() *FillBus {
	return c.bus
}

// Submit accepts a parent order, slices it according to its type, and starts
// a driver goroutine that releases the children. It returns once the parent
// is accepted; execution proceeds asynchronously.
func (c *Coordinator) Submit(parent *domain.Order) error {
	if parent == nil {
		return errors.New("nil order")
	}
	if parent.Status != domain.OrderStatusNew {
		return fmt.Errorf("order %s: submit requires status %q, have %q", parent.ID, domain.OrderStatusNew, parent.Status)
	}
	if parent.Qty <= 0 {
		return slicing.ErrInvalidQty
	}

	kids, offsets, err := c.slice(parent)
	if err != nil {
		return fmt.Errorf("slicing order %s: %w", parent.ID, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if _, exists := c.orders[parent.ID]; exists {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("order %s already submitted", parent.ID)
	}
	parent.SetStatus(domain.OrderStatusPendingSubmit)
	c.orders[parent.ID] = parent
	for _, k := range kids {
		c.orders[k.ID] = k
	}
	c.children[parent.ID] = kids
	c.cancels[parent.ID] = cancel
	snapshot := *parent
	c.mu.Unlock()

	c.persistOrder(snapshot)
	c.log.Info("order accepted",
		"order_id", parent.ID, "symbol", parent.Symbol, "side", parent.Side,
		"type", parent.Type, "qty", parent.Qty, "children", len(kids))

	c.wg.Add(1)
	go c.drive(ctx, parent, kids, offsets)
	return nil
}

// slice decomposes the parent into children plus, for TWAP, their release
// offsets. Market and limit parents execute as a single child of the same
// type.
func (c *Coordinator) slice(parent *domain.Order) ([]*domain.Order, []time.Duration, error) {
	switch parent.Type {
	case domain.OrderTypeTWAP:
		kids, err := slicing.TWAP(parent, parent.TWAPSlices)
		if err != nil {
			return nil, nil, err
		}
		return kids, slicing.TWAPOffsets(parent.TWAPSlices, parent.TWAPDuration), nil

	case domain.OrderTypeIceberg:
		kids, err := slicing.Iceberg(parent, parent.VisibleQty)
		return kids, nil, err

	case domain.OrderTypeMarket, domain.OrderTypeLimit:
		k := domain.NewOrder(parent.Symbol, parent.Side, parent.Type, parent.Qty)
		k.ParentID = parent.ID
		k.LimitPrice = parent.LimitPrice
		return []*domain.Order{k}, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported order type %q", parent.Type)
	}
}

// drive releases the parent's children strictly in slice order. TWAP
// children wait for their release offset; iceberg chunks wait for the
// previous chunk to reach a terminal status before the next release.
func (c *Coordinator) drive(ctx context.Context, parent *domain.Order, kids []*domain.Order, offsets []time.Duration) {
	defer c.wg.Done()

	start := time.Now()
	var inFlight sync.WaitGroup

	for i, kid := range kids {
		if len(offsets) > i {
			if !c.sleepUntil(ctx, start.Add(offsets[i])) {
				c.suppress(kids[i:])
				break
			}
		}
		if ctx.Err() != nil {
			c.suppress(kids[i:])
			break
		}

		c.releaseChild(ctx, kid, &inFlight)

		// Iceberg chunks gate on the previous chunk reaching a terminal
		// status. A rejected chunk unblocks the next one.
		if parent.Type == domain.OrderTypeIceberg {
			c.awaitTerminal(kid.ID)
		}
	}

	inFlight.Wait()
	c.finalize(parent)

	c.mu.Lock()
	if cancel, ok := c.cancels[parent.ID]; ok {
		cancel()
		delete(c.cancels, parent.ID)
	}
	c.mu.Unlock()
}

// sleepUntil blocks until deadline or cancellation; it reports false when
// the context was cancelled first.
func (c *Coordinator) sleepUntil(ctx context.Context, deadline time.Time) bool {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// releaseChild runs one child through the risk gate and, when approved,
// hands it to the worker pool. A rejection stops this child only; siblings
// are unaffected.
func (c *Coordinator) releaseChild(ctx context.Context, kid *domain.Order, inFlight *sync.WaitGroup) {
	c.mu.Lock()
	kid.SetStatus(domain.OrderStatusPendingSubmit)
	snapshot := *kid
	c.mu.Unlock()
	c.persistOrder(snapshot)

	result := c.risk.Validate(kid)
	if !result.Approved {
		c.mu.Lock()
		kid.Reason = result.Reason
		kid.SetStatus(domain.OrderStatusRejected)
		snapshot = *kid
		c.mu.Unlock()
		c.persistOrder(snapshot)
		c.log.Warn("child order rejected by risk",
			"order_id", kid.ID, "parent_id", kid.ParentID,
			"symbol", kid.Symbol, "reason", result.Reason)
		return
	}

	c.mu.Lock()
	kid.SetStatus(domain.OrderStatusSubmitted)
	snapshot = *kid
	c.mu.Unlock()
	c.persistOrder(snapshot)

	// Once past the risk gate the execution runs to completion even if the
	// parent is cancelled.
	execCtx := context.WithoutCancel(ctx)

	inFlight.Add(1)
	go func() {
		defer inFlight.Done()
		c.sem <- struct{}{}
		defer func() { <-c.sem }()
		c.execute(execCtx, kid)
	}()
}

// execute sends the child to the broker with bounded retries and applies the
// resulting fill. Retry exhaustion rejects the child.
func (c *Coordinator) execute(ctx context.Context, kid *domain.Order) {
	var fill *domain.Execution
	err := util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func() error {
		f, execErr := c.brk.Execute(ctx, kid)
		if execErr != nil {
			return execErr
		}
		fill = f
		return nil
	})
	if err != nil {
		c.mu.Lock()
		kid.Reason = fmt.Sprintf("execution failed after %d attempts: %v", c.cfg.MaxRetries, err)
		kid.SetStatus(domain.OrderStatusRejected)
		snapshot := *kid
		c.mu.Unlock()
		c.persistOrder(snapshot)
		c.log.Warn("child order execution failed",
			"order_id", kid.ID, "parent_id", kid.ParentID,
			"symbol", kid.Symbol, "error", err)
		return
	}

	c.applyFill(kid, fill)
}

// applyFill updates the position book, risk reference data, order statuses,
// and persistence for one fill, then publishes it on the bus.
func (c *Coordinator) applyFill(kid *domain.Order, fill *domain.Execution) {
	pos := c.positions.ApplyFill(fill.Symbol, kid.SignedQty(fill.Qty), fill.Price)
	c.risk.Context().SetPositionValue(fill.Symbol, pos.Qty*fill.Price)

	c.mu.Lock()
	kid.FilledQty += fill.Qty
	if kid.IsFilled() {
		kid.SetStatus(domain.OrderStatusFilled)
	} else {
		kid.SetStatus(domain.OrderStatusPartiallyFilled)
	}
	kidSnapshot := *kid

	var parentSnapshot *domain.Order
	if parent, ok := c.orders[kid.ParentID]; ok && !parent.IsTerminal() {
		parent.FilledQty += fill.Qty
		if parent.IsFilled() {
			parent.SetStatus(domain.OrderStatusFilled)
		} else {
			parent.SetStatus(domain.OrderStatusPartiallyFilled)
		}
		snap := *parent
		parentSnapshot = &snap
	}
	c.mu.Unlock()

	c.persistOrder(kidSnapshot)
	if parentSnapshot != nil {
		c.persistOrder(*parentSnapshot)
	}
	c.persistExecution(*fill)
	c.persistPosition(pos)

	c.log.Info("fill applied",
		"order_id", kid.ID, "parent_id", kid.ParentID,
		"symbol", fill.Symbol, "qty", fill.Qty, "price", fill.Price,
		"position_qty", pos.Qty)

	c.bus.Publish(FillEvent{
		OrderID:  kid.ID,
		ParentID: kid.ParentID,
		Symbol:   fill.Symbol,
		Qty:      fill.Qty,
		Price:    fill.Price,
		At:       fill.Timestamp,
	})
}

// suppress marks not-yet-released children as cancelled.
func (c *Coordinator) suppress(kids []*domain.Order) {
	c.mu.Lock()
	var snapshots []domain.Order
	for _, kid := range kids {
		if kid.IsTerminal() || kid.Status == domain.OrderStatusSubmitted {
			continue
		}
		kid.SetStatus(domain.OrderStatusCancelled)
		snapshots = append(snapshots, *kid)
	}
	c.mu.Unlock()

	for _, s := range snapshots {
		c.persistOrder(s)
	}
}

// finalize settles the parent status once every child reached a terminal
// status. A parent whose children were all rejected is rejected with the
// aggregated reasons; it is never left in submitted.
func (c *Coordinator) finalize(parent *domain.Order) {
	c.mu.Lock()
	kids := c.children[parent.ID]

	allRejected := len(kids) > 0
	anyCancelled := false
	var reasons []string
	seen := make(map[string]bool)
	for _, kid := range kids {
		switch kid.Status {
		case domain.OrderStatusRejected:
			if kid.Reason != "" && !seen[kid.Reason] {
				seen[kid.Reason] = true
				reasons = append(reasons, kid.Reason)
			}
		case domain.OrderStatusCancelled:
			allRejected = false
			anyCancelled = true
		default:
			allRejected = false
		}
	}

	switch {
	case allRejected:
		parent.Reason = strings.Join(reasons, "; ")
		parent.SetStatus(domain.OrderStatusRejected)
	case parent.IsFilled():
		parent.SetStatus(domain.OrderStatusFilled)
	case anyCancelled:
		parent.SetStatus(domain.OrderStatusCancelled)
	case parent.FilledQty > 0:
		parent.SetStatus(domain.OrderStatusPartiallyFilled)
	}
	snapshot := *parent
	c.mu.Unlock()

	c.persistOrder(snapshot)
	c.log.Info("parent order settled",
		"order_id", parent.ID, "symbol", parent.Symbol,
		"status", snapshot.Status, "filled_qty", snapshot.FilledQty,
		"reason", snapshot.Reason)
}

// awaitTerminal blocks until the order reaches a terminal status. It wakes
// on fill events and falls back to a poll tick for events dropped by the
// bus.
func (c *Coordinator) awaitTerminal(orderID string) {
	subID, events := c.bus.Subscribe(8)
	defer c.bus.Unsubscribe(subID)

	ticker := time.NewTicker(c.cfg.IcebergPoll)
	defer ticker.Stop()

	for {
		c.mu.RLock()
		o, ok := c.orders[orderID]
		terminal := !ok || o.IsTerminal()
		c.mu.RUnlock()
		if terminal {
			return
		}
		select {
		case <-events:
		case <-ticker.C:
		}
	}
}

// Cancel requests cooperative cancellation of a parent order: unreleased
// children are cancelled, while executions already past the risk gate run to
// completion.
func (c *Coordinator) Cancel(parentID string) error {
	c.mu.Lock()
	o, ok := c.orders[parentID]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownOrder
	}
	if o.ParentID != "" {
		c.mu.Unlock()
		return ErrNotParent
	}
	if o.IsTerminal() {
		c.mu.Unlock()
		return ErrOrderTerminal
	}

	cancel, running := c.cancels[parentID]
	var snapshot domain.Order
	if !running {
		// Driver already finished; settle the parent directly.
		o.SetStatus(domain.OrderStatusCancelled)
		snapshot = *o
	}
	c.mu.Unlock()

	if running {
		cancel()
		c.log.Info("cancellation requested", "order_id", parentID)
		return nil
	}

	c.persistOrder(snapshot)
	c.log.Info("order cancelled", "order_id", parentID)
	return nil
}

// Order returns a copy of a tracked order.
func (c *Coordinator) Order(id string) (domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// Orders returns copies of every tracked order, oldest first.
func (c *Coordinator) Orders() []domain.Order {
	c.mu.RLock()
	out := make([]domain.Order, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, *o)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Children returns copies of a parent's children in slice order.
func (c *Coordinator) Children(parentID string) []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kids := c.children[parentID]
	out := make([]domain.Order, 0, len(kids))
	for _, k := range kids {
		out = append(out, *k)
	}
	return out
}

// Wait blocks until every driver goroutine and in-flight execution has
// finished. Intended for shutdown and tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// ---------------------------------------------------------------------------
// Best-effort persistence
// ---------------------------------------------------------------------------

// Persistence failures are logged and never block or roll back state
// transitions.

func (c *Coordinator) persistOrder(o domain.Order) {
	if c.sink == nil {
		return
	}
	if err := c.sink.SaveOrder(context.Background(), &o); err != nil {
		c.log.Warn("order persistence failed", "order_id", o.ID, "error", err)
	}
}

func (c *Coordinator) persistExecution(e domain.Execution) {
	if c.sink == nil {
		return
	}
	if err := c.sink.RecordExecution(context.Background(), e); err != nil {
		c.log.Warn("execution persistence failed", "order_id", e.OrderID, "error", err)
	}
}

func (c *Coordinator) persistPosition(p domain.Position) {
	if c.sink == nil {
		return
	}
	if err := c.sink.SavePosition(context.Background(), p); err != nil {
		c.log.Warn("position persistence failed", "symbol", p.Symbol, "error", err)
	}
}
