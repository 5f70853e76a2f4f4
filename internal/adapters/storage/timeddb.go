package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"
)

// SQLDB is what every store is built on. *sql.DB and *TimedDB both satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery applies when NewTimedDB is given a non-positive threshold.
const DefaultSlowQuery = 50 * time.Millisecond

// statementLogLimit caps the statement text attached to slow query logs.
const statementLogLimit = 160

// Statement kinds reported to the log and the QueryRecorder.
const (
	OpExec     = "exec"
	OpQuery    = "query"
	OpQueryRow = "query_row"
	OpBegin    = "begin"
)

// QueryRecorder receives the duration of every statement.
type QueryRecorder interface {
	RecordQuery(op string, d time.Duration)
}

// TimedDB times every statement sent to the wrapped pool. Statements at or
// over the threshold are logged at WARN with their text, the rest at DEBUG.
type TimedDB struct {
	db        *sql.DB
	threshold time.Duration
	recorder  QueryRecorder
}

// NewTimedDB wraps db.
// PRE: db is open
// POST: threshold <= 0 means DefaultSlowQuery
func NewTimedDB(db *sql.DB, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, threshold: threshold}
}

// WithRecorder also reports every timing to rec.
// PRE: called before the TimedDB is shared between goroutines
func (t *TimedDB) WithRecorder(rec QueryRecorder) *TimedDB {
	t.recorder = rec
	return t
}

func (t *TimedDB) observe(ctx context.Context, op, query string, start time.Time) {
	d := time.Since(start)
	if t.recorder != nil {
		t.recorder.RecordQuery(op, d)
	}
	ms := float64(d.Microseconds()) / 1000
	if d < t.threshold {
		slog.DebugContext(ctx, "query_timing", "op", op, "duration_ms", ms)
		return
	}
	slog.WarnContext(ctx, "slow_query", "event", "slow_query", "op", op, "duration_ms", ms,
		"statement", compactStatement(query))
}

// compactStatement collapses whitespace so multi-line SQL fits on one log line.
func compactStatement(q string) string {
	s := strings.Join(strings.Fields(q), " ")
	if len(s) > statementLogLimit {
		s = s[:statementLogLimit] + "..."
	}
	return s
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.observe(ctx, OpExec, query, time.Now())
	return t.db.ExecContext(ctx, query, args...)
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer t.observe(ctx, OpQuery, query, time.Now())
	return t.db.QueryContext(ctx, query, args...)
}

func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.observe(ctx, OpQueryRow, query, time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

// BeginTx times only the BEGIN; statements inside the transaction go straight to *sql.Tx.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	defer t.observe(ctx, OpBegin, "BEGIN", time.Now())
	return t.db.BeginTx(ctx, opts)
}
