package dialect

import "context"

// Dialect identifiers for the supported backend families.
const (
	// MySQL is the MySQL/MariaDB family.
	MySQL = "mysql"
	// SQLite is the SQLite family.
	SQLite = "sqlite"
	// Postgres is the PostgreSQL family.
	Postgres = "postgres"
)

// ExecQuerier wraps the two standard database operations. It is the
// subset of Driver implemented by transactions as well.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. The args
	// parameter is the ordered argument list produced by rendering,
	// and v is an optional *sql.Result destination.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows, binding them to v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface a database executor exposes to sqlkit.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect identifier of the driver.
	Dialect() string
}

// Tx wraps transaction control around the standard operations.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// NopTx returns a Tx that executes statements on drv without
// transaction semantics. Commit and Rollback are no-ops.
func NopTx(drv Driver) Tx {
	return nopTx{drv}
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }
