package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradewind/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ OrderStore = (*SQLiteStore)(nil)
var _ ExecutionStore = (*SQLiteStore)(nil)
var _ PositionStore = (*SQLiteStore)(nil)
var _ Sink = (*SQLiteStore)(nil)

// SQLiteStore implements the persistence sink backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	parent_id     TEXT NOT NULL DEFAULT '',
	symbol        TEXT NOT NULL,
	side          TEXT NOT NULL,
	type          TEXT NOT NULL,
	status        TEXT NOT NULL,
	qty           REAL NOT NULL,
	filled_qty    REAL NOT NULL,
	limit_price   REAL NOT NULL DEFAULT 0,
	twap_slices   INTEGER NOT NULL DEFAULT 0,
	twap_duration INTEGER NOT NULL DEFAULT 0,
	visible_qty   REAL NOT NULL DEFAULT 0,
	reason        TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_parent ON orders(parent_id);

CREATE TABLE IF NOT EXISTS executions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id  TEXT NOT NULL,
	symbol    TEXT NOT NULL,
	side      TEXT NOT NULL,
	qty       REAL NOT NULL,
	price     REAL NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_order ON executions(order_id);

CREATE TABLE IF NOT EXISTS positions (
	symbol     TEXT PRIMARY KEY,
	qty        REAL NOT NULL,
	avg_cost   REAL NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// OrderStore implementation
// ---------------------------------------------------------------------------

// SaveOrder inserts or updates an order.
func (s *SQLiteStore) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, parent_id, symbol, side, type, status, qty, filled_qty,
			limit_price, twap_slices, twap_duration, visible_qty, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			filled_qty = excluded.filled_qty,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		o.ID, o.ParentID, o.Symbol, string(o.Side), string(o.Type), string(o.Status),
		o.Qty, o.FilledQty, o.LimitPrice, o.TWAPSlices, int64(o.TWAPDuration),
		o.VisibleQty, o.Reason, o.CreatedAt.UnixMilli(), o.UpdatedAt.UnixMilli())
	return err
}

// GetOrder retrieves a single order by its ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, parent_id, symbol, side, type, status, qty, filled_qty,
			limit_price, twap_slices, twap_duration, visible_qty, reason, created_at, updated_at
		FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

// ListOrders returns all orders matching the given status, oldest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT id, parent_id, symbol, side, type, status, qty, filled_qty,
			limit_price, twap_slices, twap_duration, visible_qty, reason, created_at, updated_at
		FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (*domain.Order, error) {
	var o domain.Order
	var side, typ, status string
	var twapDuration, createdAt, updatedAt int64

	err := r.Scan(&o.ID, &o.ParentID, &o.Symbol, &side, &typ, &status,
		&o.Qty, &o.FilledQty, &o.LimitPrice, &o.TWAPSlices, &twapDuration,
		&o.VisibleQty, &o.Reason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	o.Side = domain.OrderSide(side)
	o.Type = domain.OrderType(typ)
	o.Status = domain.OrderStatus(status)
	o.TWAPDuration = time.Duration(twapDuration)
	o.CreatedAt = time.UnixMilli(createdAt).UTC()
	o.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &o, nil
}

// ---------------------------------------------------------------------------
// ExecutionStore implementation
// ---------------------------------------------------------------------------

// RecordExecution appends one fill record.
func (s *SQLiteStore) RecordExecution(ctx context.Context, exec domain.Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (order_id, symbol, side, qty, price, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		exec.OrderID, exec.Symbol, string(exec.Side), exec.Qty, exec.Price,
		exec.Timestamp.UnixMilli())
	return err
}

// ListExecutions returns all fills for the given order ID, oldest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, orderID string) ([]domain.Execution, error) {
	query := `SELECT order_id, symbol, side, qty, price, timestamp FROM executions`
	args := []any{}
	if orderID != "" {
		query += ` WHERE order_id = ?`
		args = append(args, orderID)
	}
	query += ` ORDER BY timestamp, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		var e domain.Execution
		var side string
		var ts int64
		if err := rows.Scan(&e.OrderID, &e.Symbol, &side, &e.Qty, &e.Price, &ts); err != nil {
			return nil, err
		}
		e.Side = domain.OrderSide(side)
		e.Timestamp = time.UnixMilli(ts).UTC()
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

// ---------------------------------------------------------------------------
// PositionStore implementation
// ---------------------------------------------------------------------------

// SavePosition upserts the position snapshot for a symbol.
func (s *SQLiteStore) SavePosition(ctx context.Context, pos domain.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (symbol, qty, avg_cost, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			qty = excluded.qty,
			avg_cost = excluded.avg_cost,
			updated_at = excluded.updated_at`,
		pos.Symbol, pos.Qty, pos.AvgCost, pos.UpdatedAt.UnixMilli())
	return err
}

// ListPositions returns the latest snapshot of every position.
func (s *SQLiteStore) ListPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, qty, avg_cost, updated_at FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		var ts int64
		if err := rows.Scan(&p.Symbol, &p.Qty, &p.AvgCost, &ts); err != nil {
			return nil, err
		}
		p.UpdatedAt = time.UnixMilli(ts).UTC()
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
