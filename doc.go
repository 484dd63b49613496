// Package sqlkit is a cross-backend SQL statement builder.
//
// Application code assembles a typed, immutable representation of a query
// (columns, parameters, operators, clauses, whole statements) through the
// fluent API in dialect/sql, without writing SQL text. The representation
// is validated against a per-backend capability matrix before rendering,
// so backend-incompatible constructs (e.g. ILIKE outside PostgreSQL, or an
// INSERT ... SELECT with conflict handling and no WHERE clause on SQLite)
// are rejected long before the database could reject malformed SQL.
//
// The core is split across two packages:
//
//   - dialect: backend identifiers and the executor interfaces.
//   - dialect/sql: node representation, capability registry, renderer,
//     statement builders, and a thin database/sql driver layer.
package sqlkit
