package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"tradewind/internal/domain"
)

// ParquetArchive stores execution history as Parquet files on disk, one file
// per symbol per day. It is the long-term archive behind the SQLite live
// store.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates a ParquetArchive rooted at the given data
// directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// ExecutionRecord is the Parquet schema for archived fills.
type ExecutionRecord struct {
	OrderID   string  `parquet:"order_id"`
	Symbol    string  `parquet:"symbol"`
	Side      string  `parquet:"side"`
	Qty       float64 `parquet:"qty"`
	Price     float64 `parquet:"price"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
}

// ---------------------------------------------------------------------------
// Archive operations
// ---------------------------------------------------------------------------

// WriteExecutions archives executions to Parquet files organized by symbol
// and date. Each symbol+date combination produces a separate file at:
//
//	<DataDir>/executions/<SYMBOL>/<YYYY-MM-DD>.parquet
//
// Re-archiving the same fills is a no-op: records are deduplicated by
// (order_id, timestamp) with new records preferred.
func (a *ParquetArchive) WriteExecutions(_ context.Context, execs []domain.Execution) error {
	if len(execs) == 0 {
		return nil
	}

	type key struct {
		symbol string
		date   string // YYYY-MM-DD
	}
	groups := make(map[key][]ExecutionRecord)
	for _, e := range execs {
		k := key{symbol: e.Symbol, date: e.Timestamp.UTC().Format("2006-01-02")}
		groups[k] = append(groups[k], ExecutionRecord{
			OrderID:   e.OrderID,
			Symbol:    e.Symbol,
			Side:      string(e.Side),
			Qty:       e.Qty,
			Price:     e.Price,
			Timestamp: e.Timestamp.UnixMilli(),
		})
	}

	for k, records := range groups {
		t, _ := time.Parse("2006-01-02", k.date)
		path := a.executionPath(k.symbol, t)

		// Read existing records to merge.
		existing, _ := readParquetFile[ExecutionRecord](path)
		merged := mergeExecutionRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("archiving executions for %s/%s: %w", k.symbol, k.date, err)
		}
	}
	return nil
}

// ReadExecutions reads archived executions for the given symbol and time
// range, inclusive on both ends.
func (a *ParquetArchive) ReadExecutions(_ context.Context, symbol string, start, end time.Time) ([]domain.Execution, error) {
	var execs []domain.Execution
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		path := a.executionPath(symbol, d)
		records, err := readParquetFile[ExecutionRecord](path)
		if err != nil {
			// File doesn't exist for this day — skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				execs = append(execs, domain.Execution{
					OrderID:   r.OrderID,
					Symbol:    r.Symbol,
					Side:      domain.OrderSide(r.Side),
					Qty:       r.Qty,
					Price:     r.Price,
					Timestamp: ts,
				})
			}
		}
	}
	return execs, nil
}

// ListSymbols lists all symbols that have archived executions.
func (a *ParquetArchive) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(a.DataDir, "executions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// executionPath returns the filesystem path for an execution Parquet file.
// Layout: <dataDir>/executions/<SYMBOL>/<YYYY-MM-DD>.parquet
func (a *ParquetArchive) executionPath(symbol string, t time.Time) string {
	date := t.Format("2006-01-02")
	return filepath.Join(a.DataDir, "executions", strings.ToUpper(symbol), date+".parquet")
}

// ---------------------------------------------------------------------------
// Archiver
// ---------------------------------------------------------------------------

// Archiver periodically copies execution history from the live store into
// the Parquet archive.
type Archiver struct {
	source   ExecutionStore
	archive  *ParquetArchive
	interval time.Duration
	log      *slog.Logger
}

// NewArchiver creates an Archiver that syncs source into archive every
// interval.
func NewArchiver(source ExecutionStore, archive *ParquetArchive, interval time.Duration, log *slog.Logger) *Archiver {
	return &Archiver{source: source, archive: archive, interval: interval, log: log}
}

// Run archives on each tick until the context is cancelled. Archive failures
// are logged and retried on the next tick.
func (ar *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(ar.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ar.ArchiveOnce(ctx); err != nil {
				ar.log.Warn("execution archive failed", "error", err)
			}
		}
	}
}

// ArchiveOnce copies every execution in the live store into the archive.
// The merge step makes this idempotent.
func (ar *Archiver) ArchiveOnce(ctx context.Context) error {
	execs, err := ar.source.ListExecutions(ctx, "")
	if err != nil {
		return fmt.Errorf("listing executions: %w", err)
	}
	return ar.archive.WriteExecutions(ctx, execs)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeExecutionRecords deduplicates execution records by
// (order_id, timestamp), preferring new records over existing ones. Results
// are sorted by timestamp.
func mergeExecutionRecords(existing, incoming []ExecutionRecord) []ExecutionRecord {
	type key struct {
		orderID string
		ts      int64
	}
	seen := make(map[key]ExecutionRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.OrderID, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.OrderID, r.Timestamp}] = r
	}

	merged := make([]ExecutionRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
