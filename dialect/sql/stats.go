package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/sqlkit/dialect"
)

// QueryStats accumulates execution counters for a wrapped driver. All
// counters are atomic and safe for concurrent use.
type QueryStats struct {
	// TotalQueries counts Query round trips.
	TotalQueries atomic.Int64
	// TotalExecs counts Exec round trips.
	TotalExecs atomic.Int64
	// TotalStatements counts executions that went through the
	// validate-and-render statement path (ExecStatement and
	// QueryStatement). Each such execution is also counted in
	// TotalQueries or TotalExecs.
	TotalStatements atomic.Int64
	// TotalDuration is the cumulative database time in nanoseconds.
	TotalDuration atomic.Int64
	// SlowQueries counts round trips exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors counts failed operations, including statements rejected
	// by capability validation before reaching the database.
	Errors atomic.Int64
}

// Stats returns a consistent point-in-time snapshot.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:    s.TotalQueries.Load(),
		TotalExecs:      s.TotalExecs.Load(),
		TotalStatements: s.TotalStatements.Load(),
		TotalDuration:   time.Duration(s.TotalDuration.Load()),
		SlowQueries:     s.SlowQueries.Load(),
		Errors:          s.Errors.Load(),
	}
}

// Reset zeroes all counters.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalStatements.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is an immutable copy of QueryStats counters.
type StatsSnapshot struct {
	TotalQueries    int64
	TotalExecs      int64
	TotalStatements int64
	TotalDuration   time.Duration
	SlowQueries     int64
	Errors          int64
}

// AvgQueryDuration returns the mean duration across all round trips,
// or zero if nothing has run yet.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d statements=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalStatements, s.TotalDuration,
		s.AvgQueryDuration(), s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is invoked for every round trip whose duration exceeds
// the configured slow threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

type opKind uint8

const (
	opQuery opKind = iota
	opExec
)

// StatsDriver wraps a Driver and records QueryStats for every round
// trip, including the statement execution path.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a round trip is
// counted as slow. Defaults to 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook registers a callback for slow round trips.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog reports slow round trips to slog.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		slog.Warn("slow query detected", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps drv with counter collection.
//
//	drv, _ := sql.Open("postgres", dsn)
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	...
//	fmt.Println(sd.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats exposes the collected counters.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold replaces the slow threshold. Safe to call while the
// driver is in use.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query runs a query on the wrapped driver and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.observe(ctx, query, args, time.Since(start), err, opQuery)
	return err
}

// Exec runs a statement on the wrapped driver and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.observe(ctx, query, args, time.Since(start), err, opExec)
	return err
}

// ExecStatement validates and renders stmt, then executes it with
// counter collection. A statement rejected before reaching the
// database still increments Errors.
func (d *StatsDriver) ExecStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := d.Driver.renderFor(stmt)
	if err != nil {
		d.stats.Errors.Add(1)
		return err
	}
	d.stats.TotalStatements.Add(1)
	return d.Exec(ctx, query, args, v)
}

// QueryStatement validates and renders stmt, then queries with counter
// collection.
func (d *StatsDriver) QueryStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := d.Driver.renderFor(stmt)
	if err != nil {
		d.stats.Errors.Add(1)
		return err
	}
	d.stats.TotalStatements.Add(1)
	return d.Query(ctx, query, args, v)
}

func (d *StatsDriver) observe(ctx context.Context, query string, args any, duration time.Duration, err error, kind opKind) {
	if kind == opQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			argv, _ := args.([]any)
			hook(ctx, query, argv, duration)
		}
	}
}

// Tx starts a transaction whose operations are recorded as well.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx records counters for operations inside a transaction.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query runs a query inside the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.observe(ctx, query, args, time.Since(start), err, opQuery)
	return err
}

// Exec runs a statement inside the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.observe(ctx, query, args, time.Since(start), err, opExec)
	return err
}

// ExecStatement renders stmt and executes it inside the transaction
// with counter collection. As with Tx.ExecStatement, the dialect
// check is the caller's responsibility.
func (tx *StatsTx) ExecStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := stmt.Render()
	if err != nil {
		tx.driver.stats.Errors.Add(1)
		return err
	}
	tx.driver.stats.TotalStatements.Add(1)
	return tx.Exec(ctx, query, args, v)
}

// QueryStatement renders stmt and queries inside the transaction with
// counter collection.
func (tx *StatsTx) QueryStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := stmt.Render()
	if err != nil {
		tx.driver.stats.Errors.Add(1)
		return err
	}
	tx.driver.stats.TotalStatements.Add(1)
	return tx.Query(ctx, query, args, v)
}

// DebugDriver wraps a Driver and logs every operation before running
// it. Statement executions log their rendered SQL.
type DebugDriver struct {
	*Driver
	log func(context.Context, ...any)
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog replaces the default slog-based log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// NewDebugDriver wraps drv with operation logging.
//
//	drv, _ := sql.Open("postgres", dsn)
//	dd := sql.NewDebugDriver(drv, sql.DebugWithLog(func(ctx context.Context, v ...any) {
//	    log.Println(v...)
//	}))
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs the query and runs it on the wrapped driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs the statement and runs it on the wrapped driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// ExecStatement validates and renders stmt, logs the rendered SQL and
// executes it. Validation failures are logged before being returned.
func (d *DebugDriver) ExecStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := d.Driver.renderFor(stmt)
	if err != nil {
		d.log(ctx, fmt.Sprintf("exec statement: render failed: %v", err))
		return err
	}
	return d.Exec(ctx, query, args, v)
}

// QueryStatement validates and renders stmt, logs the rendered SQL and
// queries the wrapped driver.
func (d *DebugDriver) QueryStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := d.Driver.renderFor(stmt)
	if err != nil {
		d.log(ctx, fmt.Sprintf("query statement: render failed: %v", err))
		return err
	}
	return d.Query(ctx, query, args, v)
}

// Tx starts a transaction with operation logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx logs operations inside a transaction.
type DebugTx struct {
	dialect.Tx
	log func(context.Context, ...any)
}

// Query logs the query and runs it inside the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs the statement and runs it inside the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx exec: %s args: %v", query, args))
	return tx.Tx.Exec(ctx, query, args, v)
}

// ExecStatement renders stmt, logs it and executes it inside the
// transaction.
func (tx *DebugTx) ExecStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := stmt.Render()
	if err != nil {
		tx.log(ctx, fmt.Sprintf("tx exec statement: render failed: %v", err))
		return err
	}
	return tx.Exec(ctx, query, args, v)
}

// QueryStatement renders stmt, logs it and queries inside the
// transaction.
func (tx *DebugTx) QueryStatement(ctx context.Context, stmt *Statement, v any) error {
	query, args, err := stmt.Render()
	if err != nil {
		tx.log(ctx, fmt.Sprintf("tx query statement: render failed: %v", err))
		return err
	}
	return tx.Query(ctx, query, args, v)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)

// OpenWithStats opens a connection and wraps it with counter
// collection in one step.
//
//	drv, stats, err := sql.OpenWithStats("postgres", dsn,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, nil, err
	}
	sd := NewStatsDriver(NewDriver(driverName, Conn{db}), opts...)
	return sd, sd.QueryStats(), nil
}
