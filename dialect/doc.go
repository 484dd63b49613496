// Package dialect names the SQL backends supported by sqlkit and defines
// the execution interfaces that rendered statements are handed to.
//
// # Supported Dialects
//
// Each backend family is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The dialect chosen for a statement is immutable: it is fixed when the
// statement is assembled and drives both capability validation and
// rendering in the dialect/sql package.
//
// # Driver Interface
//
// The Driver interface is the executor collaborator boundary. The core
// never talks to a database itself; it produces SQL text plus an ordered
// argument list and hands both to a Driver:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface extends ExecQuerier with transaction control, and
// ExecQuerier is the subset implemented by both drivers and transactions.
//
// # Usage
//
//	import (
//	    "github.com/syssam/sqlkit/dialect"
//	    "github.com/syssam/sqlkit/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
