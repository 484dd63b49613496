package sql

import (
	"errors"
	"fmt"
	"strings"
)

// Builder is the entry point of the assembly API. It fixes the target
// dialect for every statement built from it.
type Builder struct {
	dialect  string
	registry *Registry
}

// Dialect returns a builder for the given dialect, validating against
// the default capability registry.
//
//	sql.Dialect(dialect.Postgres).
//	    Select("id", "name").
//	    From(sql.Table("users")).
//	    Where(sql.EQ("status", "active"))
func Dialect(name string) *Builder {
	return &Builder{dialect: name, registry: defaultRegistry}
}

// Registry overrides the capability registry used for validation, for
// callers that loaded additional dialect rows.
func (b *Builder) Registry(r *Registry) *Builder {
	b.registry = r
	return b
}

// Select returns a SELECT statement builder. Column names may be
// qualified ("u.id"); an empty list, or "*", selects all columns.
func (b *Builder) Select(columns ...string) *Selector {
	s := &Selector{dialect: b.dialect, registry: b.registry, limit: -1, offset: -1}
	for _, c := range columns {
		if c == "*" {
			continue
		}
		s.columns = append(s.columns, Column(c))
	}
	return s
}

// Insert returns an INSERT statement builder for the given table.
func (b *Builder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{dialect: b.dialect, registry: b.registry, table: table}
}

// Update returns an UPDATE statement builder for the given table.
func (b *Builder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: b.dialect, registry: b.registry, table: table}
}

// Delete returns a DELETE statement builder for the given table.
func (b *Builder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: b.dialect, registry: b.registry, table: table}
}

// Predicate is a boolean-typed expression under construction. It is
// produced by the predicate constructors (EQ, In, And, ...) and
// consumed by the Where combinators.
type Predicate struct {
	node Node
	err  error
}

// Node returns the underlying expression node.
func (p *Predicate) Node() Node { return p.node }

// wherePred checks the WHERE combinator's contract: the argument must
// be a well-formed boolean expression.
func wherePred(p *Predicate) (*WhereNode, error) {
	if p.err != nil {
		return nil, p.err
	}
	if t := p.node.NodeType(); t != TypeBool {
		return nil, &TypeMismatchError{Clause: "WHERE", Want: TypeBool, Got: t}
	}
	return &WhereNode{Expr: p.node}, nil
}

// toExpr lifts a Go value into an expression node, passing nodes
// through untouched.
func toExpr(v any) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	return Param(v)
}

// Selector builds SELECT statements.
type Selector struct {
	dialect  string
	registry *Registry
	distinct bool
	columns  []Node
	from     *SelectTable
	joins    []Join
	where    *Predicate
	orders   []OrderItem
	groups   []Node
	limit    int
	offset   int
	lock     LockStrength
	errs     []error
}

// From sets the table of the FROM clause.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// Distinct marks the selection as DISTINCT.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// Where adds p to the WHERE clause, combined with AND if a predicate
// was already set. A nil predicate is ignored.
func (s *Selector) Where(p *Predicate) *Selector {
	switch {
	case p == nil:
	case s.where == nil:
		s.where = p
	default:
		s.where = And(s.where, p)
	}
	return s
}

// Join adds an inner join on t. The join condition is set by the next
// call to On.
func (s *Selector) Join(t *SelectTable) *Selector {
	s.joins = append(s.joins, Join{Kind: JoinInner, Table: t})
	return s
}

// LeftJoin adds a left outer join on t.
func (s *Selector) LeftJoin(t *SelectTable) *Selector {
	s.joins = append(s.joins, Join{Kind: JoinLeft, Table: t})
	return s
}

// On sets the equality condition of the most recently added join.
func (s *Selector) On(left, right *ColumnNode) *Selector {
	if len(s.joins) == 0 {
		s.errs = append(s.errs, errors.New("sql: On called before Join"))
		return s
	}
	s.joins[len(s.joins)-1].On = &OpNode{Op: OpEQ, X: left, Y: right}
	return s
}

// OrderBy adds ordering terms. A column wrapped with Desc orders
// descending.
func (s *Selector) OrderBy(columns ...string) *Selector {
	for _, c := range columns {
		item := OrderItem{}
		switch {
		case strings.HasSuffix(c, " DESC"):
			item.Desc = true
			c = strings.TrimSuffix(c, " DESC")
		case strings.HasSuffix(c, " ASC"):
			c = strings.TrimSuffix(c, " ASC")
		}
		item.Expr = Column(c)
		s.orders = append(s.orders, item)
	}
	return s
}

// Desc marks a column for descending order in OrderBy.
func Desc(column string) string { return column + " DESC" }

// Asc marks a column for ascending order in OrderBy. Ascending is the
// default; Asc exists for symmetry.
func Asc(column string) string { return column + " ASC" }

// GroupBy adds grouping columns.
func (s *Selector) GroupBy(columns ...string) *Selector {
	for _, c := range columns {
		s.groups = append(s.groups, Column(c))
	}
	return s
}

// Limit caps the number of returned rows.
func (s *Selector) Limit(n int) *Selector {
	s.limit = n
	return s
}

// Offset skips the first n rows.
func (s *Selector) Offset(n int) *Selector {
	s.offset = n
	return s
}

// ForUpdate adds a FOR UPDATE row-locking clause.
func (s *Selector) ForUpdate() *Selector {
	s.lock = LockForUpdate
	return s
}

// ForShare adds a FOR SHARE row-locking clause.
func (s *Selector) ForShare() *Selector {
	s.lock = LockForShare
	return s
}

// C returns a column reference qualified by the FROM table, used by
// predicates that must disambiguate columns across joins.
func (s *Selector) C(name string) *ColumnNode {
	if s.from != nil {
		return s.from.C(name)
	}
	return Column(name)
}

// build assembles the select shape and runs the local structural
// checks. Cross-backend support questions stay with the registry.
func (s *Selector) build() (*SelectNode, error) {
	var errs []error
	errs = append(errs, s.errs...)
	n := &SelectNode{
		Distinct: s.distinct,
		Columns:  s.columns,
		From:     s.from,
		Joins:    s.joins,
		Limit:    s.limit,
		Offset:   s.offset,
	}
	if s.from == nil {
		errs = append(errs, errors.New("sql: select: missing FROM table"))
	}
	for _, j := range s.joins {
		if j.On == nil {
			errs = append(errs, fmt.Errorf("sql: select: join on %q has no ON condition", j.Table.name))
		}
	}
	if s.where != nil {
		w, err := wherePred(s.where)
		if err != nil {
			errs = append(errs, err)
		}
		n.Where = w
	}
	if len(s.groups) > 0 {
		n.GroupBy = &GroupByNode{Exprs: s.groups}
	}
	if len(s.orders) > 0 {
		n.OrderBy = &OrderByNode{Items: s.orders}
	}
	if s.lock != 0 {
		n.Lock = &LockNode{Strength: s.lock}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return n, nil
}

// Statement assembles the builder into an immutable statement.
func (s *Selector) Statement() (*Statement, error) {
	n, err := s.build()
	if err != nil {
		return nil, err
	}
	return &Statement{root: n, dialect: s.dialect, registry: s.registry}, nil
}

// Query validates, renders and returns the SQL text with its ordered
// arguments. On failure it returns empty output; the error is
// available from Err.
func (s *Selector) Query() (string, []any) {
	return query(s.Statement, &s.errs)
}

// Err returns the errors accumulated during assembly, if any.
func (s *Selector) Err() error {
	return errors.Join(s.errs...)
}

// query is the shared Query implementation of the builders: render via
// Statement, record the failure, never return SQL alongside an error.
func query(stmt func() (*Statement, error), errs *[]error) (string, []any) {
	st, err := stmt()
	if err != nil {
		*errs = append(*errs, err)
		return "", nil
	}
	text, args, err := st.Render()
	if err != nil {
		*errs = append(*errs, err)
		return "", nil
	}
	return text, args
}

// InsertBuilder builds INSERT statements, including the
// insert-from-select form and conflict handling.
type InsertBuilder struct {
	dialect    string
	registry   *Registry
	table      string
	columns    []string
	values     [][]Node
	defaults   bool
	fromSelect *Selector
	conflict   *OnConflictNode
	returning  []*ColumnNode
	errs       []error
}

// Columns sets the insert column list.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends one row of values. Plain Go values become bound
// parameters; nodes are used as-is.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	row := make([]Node, len(values))
	for j, v := range values {
		row[j] = toExpr(v)
	}
	i.values = append(i.values, row)
	return i
}

// Default makes the statement insert a row of default values.
func (i *InsertBuilder) Default() *InsertBuilder {
	i.defaults = true
	return i
}

// FromSelect makes the statement insert the rows selected by s.
func (i *InsertBuilder) FromSelect(s *Selector) *InsertBuilder {
	i.fromSelect = s
	return i
}

// ConflictOption configures the conflict-handling clause of an insert.
type ConflictOption func(*OnConflictNode)

// ConflictColumns names the unique-constraint columns the conflict
// clause targets. The columns must belong to a unique constraint of
// the table; that is a schema-level contract, not checked here.
func ConflictColumns(names ...string) ConflictOption {
	return func(c *OnConflictNode) {
		for _, n := range names {
			c.Target = append(c.Target, Column(n))
		}
	}
}

// DoNothing resolves conflicts by skipping the conflicting rows.
func DoNothing() ConflictOption {
	return func(c *OnConflictNode) {
		c.DoNothing = true
	}
}

// UpdateSet resolves conflicts by setting the column to the given
// value.
func UpdateSet(column string, v any) ConflictOption {
	return func(c *OnConflictNode) {
		c.Updates = append(c.Updates, Assignment{Col: Column(column), Expr: toExpr(v)})
	}
}

// UpdateExcluded resolves conflicts by setting each column to the
// value proposed for insertion (excluded.c, or VALUES(c) on MySQL).
func UpdateExcluded(columns ...string) ConflictOption {
	return func(c *OnConflictNode) {
		for _, n := range columns {
			c.Updates = append(c.Updates, Assignment{
				Col:  Column(n),
				Expr: &ColumnNode{Table: "excluded", Name: n},
			})
		}
	}
}

// OnConflict adds a conflict-handling clause built from the options.
func (i *InsertBuilder) OnConflict(opts ...ConflictOption) *InsertBuilder {
	if i.conflict == nil {
		i.conflict = &OnConflictNode{}
	}
	for _, opt := range opts {
		opt(i.conflict)
	}
	return i
}

// Returning adds a RETURNING clause.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	for _, c := range columns {
		i.returning = append(i.returning, Column(c))
	}
	return i
}

func (i *InsertBuilder) build() (*InsertNode, error) {
	var errs []error
	errs = append(errs, i.errs...)
	n := &InsertNode{
		Table:    i.table,
		Columns:  i.columns,
		Values:   i.values,
		Defaults: i.defaults,
	}
	if i.table == "" {
		errs = append(errs, errors.New("sql: insert: missing table"))
	}
	forms := 0
	for _, set := range []bool{i.defaults, len(i.values) > 0, i.fromSelect != nil} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		errs = append(errs, errors.New("sql: insert: exactly one of values, DEFAULT VALUES or a source select is required"))
	}
	if len(i.columns) > 0 {
		for _, row := range i.values {
			if len(row) != len(i.columns) {
				errs = append(errs, fmt.Errorf("sql: insert: %d values for %d columns", len(row), len(i.columns)))
			}
		}
	}
	if i.fromSelect != nil {
		inner, err := i.fromSelect.build()
		if err != nil {
			errs = append(errs, err)
		}
		n.FromSelect = inner
	}
	if i.conflict != nil {
		if i.conflict.DoNothing && len(i.conflict.Updates) > 0 {
			errs = append(errs, errors.New("sql: insert: ON CONFLICT cannot combine DO NOTHING with update assignments"))
		}
		if !i.conflict.DoNothing && len(i.conflict.Updates) == 0 {
			errs = append(errs, errors.New("sql: insert: ON CONFLICT requires DO NOTHING or update assignments"))
		}
		n.OnConflict = i.conflict
	}
	if len(i.returning) > 0 {
		n.Returning = &ReturningNode{Cols: i.returning}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return n, nil
}

// Statement assembles the builder into an immutable statement.
func (i *InsertBuilder) Statement() (*Statement, error) {
	n, err := i.build()
	if err != nil {
		return nil, err
	}
	return &Statement{root: n, dialect: i.dialect, registry: i.registry}, nil
}

// Query validates, renders and returns the SQL text with its ordered
// arguments. On failure it returns empty output; the error is
// available from Err.
func (i *InsertBuilder) Query() (string, []any) {
	return query(i.Statement, &i.errs)
}

// Err returns the errors accumulated during assembly, if any.
func (i *InsertBuilder) Err() error {
	return errors.Join(i.errs...)
}

// UpdateBuilder builds UPDATE statements.
type UpdateBuilder struct {
	dialect   string
	registry  *Registry
	table     string
	set       []Assignment
	where     *Predicate
	returning []*ColumnNode
	errs      []error
}

// Set adds a column assignment. Plain Go values become bound
// parameters; nodes are used as-is.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.set = append(u.set, Assignment{Col: Column(column), Expr: toExpr(v)})
	return u
}

// Where adds p to the WHERE clause, combined with AND if a predicate
// was already set.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	switch {
	case p == nil:
	case u.where == nil:
		u.where = p
	default:
		u.where = And(u.where, p)
	}
	return u
}

// Returning adds a RETURNING clause.
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	for _, c := range columns {
		u.returning = append(u.returning, Column(c))
	}
	return u
}

func (u *UpdateBuilder) build() (*UpdateNode, error) {
	var errs []error
	errs = append(errs, u.errs...)
	n := &UpdateNode{Table: u.table, Set: u.set}
	if u.table == "" {
		errs = append(errs, errors.New("sql: update: missing table"))
	}
	if len(u.set) == 0 {
		errs = append(errs, errors.New("sql: update: no assignments"))
	}
	if u.where != nil {
		w, err := wherePred(u.where)
		if err != nil {
			errs = append(errs, err)
		}
		n.Where = w
	}
	if len(u.returning) > 0 {
		n.Returning = &ReturningNode{Cols: u.returning}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return n, nil
}

// Statement assembles the builder into an immutable statement.
func (u *UpdateBuilder) Statement() (*Statement, error) {
	n, err := u.build()
	if err != nil {
		return nil, err
	}
	return &Statement{root: n, dialect: u.dialect, registry: u.registry}, nil
}

// Query validates, renders and returns the SQL text with its ordered
// arguments. On failure it returns empty output; the error is
// available from Err.
func (u *UpdateBuilder) Query() (string, []any) {
	return query(u.Statement, &u.errs)
}

// Err returns the errors accumulated during assembly, if any.
func (u *UpdateBuilder) Err() error {
	return errors.Join(u.errs...)
}

// DeleteBuilder builds DELETE statements.
type DeleteBuilder struct {
	dialect   string
	registry  *Registry
	table     string
	where     *Predicate
	returning []*ColumnNode
	errs      []error
}

// Where adds p to the WHERE clause, combined with AND if a predicate
// was already set.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	switch {
	case p == nil:
	case d.where == nil:
		d.where = p
	default:
		d.where = And(d.where, p)
	}
	return d
}

// Returning adds a RETURNING clause.
func (d *DeleteBuilder) Returning(columns ...string) *DeleteBuilder {
	for _, c := range columns {
		d.returning = append(d.returning, Column(c))
	}
	return d
}

func (d *DeleteBuilder) build() (*DeleteNode, error) {
	var errs []error
	errs = append(errs, d.errs...)
	n := &DeleteNode{Table: d.table}
	if d.table == "" {
		errs = append(errs, errors.New("sql: delete: missing table"))
	}
	if d.where != nil {
		w, err := wherePred(d.where)
		if err != nil {
			errs = append(errs, err)
		}
		n.Where = w
	}
	if len(d.returning) > 0 {
		n.Returning = &ReturningNode{Cols: d.returning}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return n, nil
}

// Statement assembles the builder into an immutable statement.
func (d *DeleteBuilder) Statement() (*Statement, error) {
	n, err := d.build()
	if err != nil {
		return nil, err
	}
	return &Statement{root: n, dialect: d.dialect, registry: d.registry}, nil
}

// Query validates, renders and returns the SQL text with its ordered
// arguments. On failure it returns empty output; the error is
// available from Err.
func (d *DeleteBuilder) Query() (string, []any) {
	return query(d.Statement, &d.errs)
}

// Err returns the errors accumulated during assembly, if any.
func (d *DeleteBuilder) Err() error {
	return errors.Join(d.errs...)
}
