// Package sql provides capability-checked SQL statement building
// across database dialects.
//
// Statements are assembled as trees of typed nodes, validated against
// a per-dialect capability registry, and rendered to SQL text with an
// ordered parameter list. A statement that uses a construct the target
// dialect cannot express fails validation with a CapabilityError
// instead of producing SQL the database would reject.
//
// # Builder Types
//
// The package provides specialized builders for different SQL
// operations:
//
//   - Selector: SELECT query builder with joins, predicates, and pagination
//   - InsertBuilder: INSERT statement builder with conflict handling and RETURNING
//   - UpdateBuilder: UPDATE statement builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE statement builder with WHERE predicates
//
// # Dialect Support
//
// SQL generation adapts to different database dialects:
//
//	import "github.com/syssam/sqlkit/dialect"
//
//	// PostgreSQL
//	b := sql.Dialect(dialect.Postgres)
//	b.Select("id", "name").From(sql.Table("users")).Where(sql.EQ("status", "active"))
//
//	// MySQL
//	b := sql.Dialect(dialect.MySQL)
//
// Placeholders, identifier quoting, boolean literals and conflict
// syntax all follow the chosen dialect. Constructs a dialect lacks,
// such as ILIKE outside postgres or RETURNING on mysql, are rejected
// during validation rather than rendered.
//
// # Predicates
//
// The package provides type-safe predicate functions:
//
//	// Equality
//	sql.EQ("name", "john")           // name = 'john'
//	sql.NEQ("status", "deleted")     // status <> 'deleted'
//
//	// Comparison
//	sql.GT("age", 18)                // age > 18
//	sql.LTE("price", 100.0)          // price <= 100.0
//
//	// String matching
//	sql.Contains("name", "john")     // name LIKE '%john%'
//	sql.HasPrefix("email", "admin")  // email LIKE 'admin%'
//	sql.ContainsFold("name", "john") // name ILIKE '%john%' (postgres only)
//
//	// NULL checks
//	sql.IsNull("deleted_at")         // deleted_at IS NULL
//	sql.NotNull("email")             // email IS NOT NULL
//
//	// IN clauses
//	sql.In("status", "active", "pending")  // status IN ('active', 'pending')
//
// # Joins
//
// Join operations are supported through the selector:
//
//	users := sql.Table("users").As("u")
//	posts := sql.Table("posts").As("p")
//	sql.Select("u.id", "u.name", "p.title").
//	    From(users).
//	    Join(posts).On(users.C("id"), posts.C("user_id")).
//	    Where(sql.EQ("u.status", "active"))
//
// # Capability Registry
//
// Each dialect carries a capability row describing which node kinds
// and operators it supports. Validation walks the statement tree
// bottom-up and reports the deepest unsupported construct first:
//
//	stmt, _ := sql.Dialect(dialect.MySQL).
//	    Select("id").From(sql.Table("users")).
//	    Where(sql.ILike("name", "a%")).
//	    Statement()
//	err := stmt.Validate() // CapabilityError: operator ILIKE is not supported on mysql
//
// Rows for additional dialects can be loaded from YAML with
// Registry.LoadDialect.
//
// # Row-Level Locking
//
// Pessimistic locking for transactions:
//
//	sql.Select("*").From(sql.Table("users")).
//	    Where(sql.EQ("id", 1)).
//	    ForUpdate()  // SELECT ... FOR UPDATE
//
// # Execution
//
// Statements execute through a Driver, which re-validates the dialect
// and binds the rendered parameters:
//
//	drv, _ := sql.Open("postgres", dsn)
//	var rows sql.Rows
//	err := drv.QueryStatement(ctx, stmt, &rows)
package sql
