package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlkit/dialect"
)

// conflictStyle selects the spelling of the conflict-handling clause.
type conflictStyle uint8

const (
	styleOnConflict   conflictStyle = iota // ON CONFLICT ... DO ...
	styleOnDuplicate                       // ON DUPLICATE KEY UPDATE ...
)

// syntax is the per-dialect syntax table: identifier quoting,
// placeholder style, boolean spelling and clause variants. The
// renderer consults only this table; capability questions were settled
// by the registry before rendering starts.
type syntax struct {
	quote         byte
	placeholder   func(n int) string // n is 1-based
	boolLit       func(v bool) string
	defaultValues string // INSERT with no values
	conflict      conflictStyle
}

func positional(n int) string { return "$" + strconv.Itoa(n) }

func anonymous(int) string { return "?" }

func boolWord(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func boolDigit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

var syntaxes = map[string]*syntax{
	dialect.Postgres: {
		quote:         '"',
		placeholder:   positional,
		boolLit:       boolWord,
		defaultValues: " DEFAULT VALUES",
		conflict:      styleOnConflict,
	},
	dialect.MySQL: {
		quote:         '`',
		placeholder:   anonymous,
		boolLit:       boolWord,
		defaultValues: " () VALUES ()",
		conflict:      styleOnDuplicate,
	},
	dialect.SQLite: {
		quote:         '"',
		placeholder:   anonymous,
		boolLit:       boolDigit,
		defaultValues: " DEFAULT VALUES",
		conflict:      styleOnConflict,
	},
}

// syntaxFor resolves the syntax table for a dialect name, accepting
// prefixed variants (e.g. "mysql57") the way the driver layer does.
func syntaxFor(d string) *syntax {
	if sx, ok := syntaxes[d]; ok {
		return sx
	}
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres} {
		if strings.HasPrefix(d, name) {
			return syntaxes[name]
		}
	}
	return nil
}

// render translates a validated node tree into SQL text and the
// ordered argument list. It must only be called after validation; if
// it still meets a construct it has no syntax rule for, it fails
// loudly with an InternalRenderError rather than emit malformed SQL.
func render(n Node, d string) (string, []any, error) {
	sx := syntaxFor(d)
	if sx == nil {
		return "", nil, &InternalRenderError{Kind: n.Kind(), Dialect: d}
	}
	r := &renderer{syntax: sx, dialect: d}
	r.node(n)
	if r.err != nil {
		return "", nil, r.err
	}
	return r.sb.String(), r.args, nil
}

// renderer walks a node tree once, emitting SQL text and collecting
// arguments. Text emission and argument extraction share the same
// depth-first walk, which is what keeps placeholder positions and the
// argument list aligned.
type renderer struct {
	*syntax
	dialect string
	sb      strings.Builder
	args    []any
	err     error // first internal error; emission stops once set
}

func (r *renderer) fail(k Kind, o Op) {
	if r.err == nil {
		r.err = &InternalRenderError{Kind: k, Op: o, Dialect: r.dialect}
	}
}

func (r *renderer) write(s string) {
	if r.err == nil {
		r.sb.WriteString(s)
	}
}

// ident writes one quoted identifier, doubling embedded quote bytes.
func (r *renderer) ident(name string) {
	if r.err != nil {
		return
	}
	r.sb.WriteByte(r.quote)
	for i := 0; i < len(name); i++ {
		if name[i] == r.quote {
			r.sb.WriteByte(r.quote)
		}
		r.sb.WriteByte(name[i])
	}
	r.sb.WriteByte(r.quote)
}

func (r *renderer) column(c *ColumnNode) {
	if c.Table != "" {
		r.ident(c.Table)
		r.write(".")
	}
	r.ident(c.Name)
}

func (r *renderer) tableRef(t *SelectTable) {
	r.ident(t.name)
	if t.alias != "" {
		r.write(" AS ")
		r.ident(t.alias)
	}
}

func (r *renderer) param(p *ParamNode) {
	if r.err != nil {
		return
	}
	r.args = append(r.args, p.Value)
	r.sb.WriteString(r.placeholder(len(r.args)))
}

// node dispatches on the concrete node type. A type this switch does
// not know is a registry/renderer mismatch.
func (r *renderer) node(n Node) {
	if r.err != nil {
		return
	}
	switch n := n.(type) {
	case *ColumnNode:
		r.column(n)
	case *ParamNode:
		r.param(n)
	case *OpNode:
		r.op(n)
	case *FuncNode:
		r.fn(n)
	case *SelectNode:
		r.selects(n)
	case *InsertNode:
		r.insert(n)
	case *UpdateNode:
		r.update(n)
	case *DeleteNode:
		r.del(n)
	default:
		r.fail(n.Kind(), OpInvalid)
	}
}

// opPrec orders operator binding so that OR groups are parenthesized
// inside AND chains and comparisons never are.
func opPrec(o Op) int {
	switch o {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	default:
		return 3
	}
}

// operand renders a child expression, parenthesizing it when it binds
// weaker than its parent.
func (r *renderer) operand(n Node, parent Op) {
	if op, ok := n.(*OpNode); ok && opPrec(op.Op) < opPrec(parent) {
		r.write("(")
		r.node(n)
		r.write(")")
		return
	}
	r.node(n)
}

func (r *renderer) op(n *OpNode) {
	token := n.Op.String()
	switch n.Op {
	case OpIsNull, OpNotNull:
		r.operand(n.X, n.Op)
		r.write(" " + token)
	case OpNot:
		r.write("NOT (")
		r.node(n.X)
		r.write(")")
	case OpIn, OpNotIn:
		r.in(n)
	case OpEQ, OpNEQ, OpGT, OpGTE, OpLT, OpLTE, OpLike, OpILike, OpAnd, OpOr:
		r.operand(n.X, n.Op)
		r.write(" " + token + " ")
		r.operand(n.Y, n.Op)
	default:
		r.fail(KindOp, n.Op)
	}
}

func (r *renderer) in(n *OpNode) {
	switch rhs := n.Y.(type) {
	case *ListNode:
		// IN over an empty list never matches; NOT IN always does.
		if len(rhs.Items) == 0 {
			r.write(r.boolLit(n.Op == OpNotIn))
			return
		}
		r.operand(n.X, n.Op)
		r.write(" " + n.Op.String() + " (")
		for i, item := range rhs.Items {
			if i > 0 {
				r.write(", ")
			}
			r.node(item)
		}
		r.write(")")
	case *SelectNode:
		r.operand(n.X, n.Op)
		r.write(" " + n.Op.String() + " (")
		r.node(rhs)
		r.write(")")
	default:
		r.fail(KindOp, n.Op)
	}
}

func (r *renderer) fn(n *FuncNode) {
	r.write(n.Name + "(")
	for i, a := range n.Args {
		if i > 0 {
			r.write(", ")
		}
		r.node(a)
	}
	r.write(")")
}

func (r *renderer) where(w *WhereNode) {
	r.write(" WHERE ")
	r.node(w.Expr)
}

func (r *renderer) returning(ret *ReturningNode) {
	r.write(" RETURNING ")
	for i, c := range ret.Cols {
		if i > 0 {
			r.write(", ")
		}
		r.column(c)
	}
}

func (r *renderer) selects(n *SelectNode) {
	r.write("SELECT ")
	if n.Distinct {
		r.write("DISTINCT ")
	}
	if len(n.Columns) == 0 {
		r.write("*")
	}
	for i, c := range n.Columns {
		if i > 0 {
			r.write(", ")
		}
		r.node(c)
	}
	if n.From != nil {
		r.write(" FROM ")
		r.tableRef(n.From)
	}
	for _, j := range n.Joins {
		switch j.Kind {
		case JoinInner:
			r.write(" JOIN ")
		case JoinLeft:
			r.write(" LEFT JOIN ")
		}
		r.tableRef(j.Table)
		if j.On != nil {
			r.write(" ON ")
			r.node(j.On)
		}
	}
	if n.Where != nil {
		r.where(n.Where)
	}
	if n.GroupBy != nil {
		r.write(" GROUP BY ")
		for i, g := range n.GroupBy.Exprs {
			if i > 0 {
				r.write(", ")
			}
			r.node(g)
		}
	}
	if n.OrderBy != nil {
		r.write(" ORDER BY ")
		for i, item := range n.OrderBy.Items {
			if i > 0 {
				r.write(", ")
			}
			r.node(item.Expr)
			if item.Desc {
				r.write(" DESC")
			}
		}
	}
	if n.Limit >= 0 {
		r.write(" LIMIT " + strconv.Itoa(n.Limit))
	}
	if n.Offset >= 0 {
		r.write(" OFFSET " + strconv.Itoa(n.Offset))
	}
	if n.Lock != nil {
		switch n.Lock.Strength {
		case LockForUpdate, LockForShare:
			r.write(" " + n.Lock.Strength.String())
		default:
			r.fail(KindLock, OpInvalid)
		}
	}
}

func (r *renderer) insert(n *InsertNode) {
	r.write("INSERT INTO ")
	r.ident(n.Table)
	if len(n.Columns) > 0 {
		r.write(" (")
		for i, c := range n.Columns {
			if i > 0 {
				r.write(", ")
			}
			r.ident(c)
		}
		r.write(")")
	}
	switch {
	case n.FromSelect != nil:
		r.write(" ")
		r.selects(n.FromSelect)
	case n.Defaults:
		r.write(r.defaultValues)
	default:
		r.write(" VALUES ")
		for i, row := range n.Values {
			if i > 0 {
				r.write(", ")
			}
			r.write("(")
			for j, v := range row {
				if j > 0 {
					r.write(", ")
				}
				r.node(v)
			}
			r.write(")")
		}
	}
	if n.OnConflict != nil {
		r.conflictClause(n)
	}
	if n.Returning != nil {
		r.returning(n.Returning)
	}
}

func (r *renderer) conflictClause(ins *InsertNode) {
	c := ins.OnConflict
	switch r.conflict {
	case styleOnConflict:
		r.write(" ON CONFLICT")
		if len(c.Target) > 0 {
			r.write(" (")
			for i, t := range c.Target {
				if i > 0 {
					r.write(", ")
				}
				r.ident(t.Name)
			}
			r.write(")")
		}
		if c.DoNothing {
			r.write(" DO NOTHING")
			return
		}
		r.write(" DO UPDATE SET ")
		r.assignments(c.Updates)
	case styleOnDuplicate:
		r.write(" ON DUPLICATE KEY UPDATE ")
		if c.DoNothing {
			// MySQL has no DO NOTHING; a self-assignment of the first
			// insert column makes the insert a no-op on duplicates.
			col := ins.Columns[0]
			r.ident(col)
			r.write(" = ")
			r.ident(col)
			return
		}
		r.assignments(c.Updates)
	}
}

func (r *renderer) assignments(set []Assignment) {
	for i, a := range set {
		if i > 0 {
			r.write(", ")
		}
		r.ident(a.Col.Name)
		r.write(" = ")
		// References to the proposed row spell differently per style:
		// excluded."c" on ON CONFLICT, VALUES(`c`) on MySQL.
		if col, ok := a.Expr.(*ColumnNode); ok && col.Table == "excluded" {
			if r.conflict == styleOnDuplicate {
				r.write("VALUES(")
				r.ident(col.Name)
				r.write(")")
				continue
			}
			r.write("excluded.")
			r.ident(col.Name)
			continue
		}
		r.node(a.Expr)
	}
}

func (r *renderer) update(n *UpdateNode) {
	r.write("UPDATE ")
	r.ident(n.Table)
	r.write(" SET ")
	r.assignments(n.Set)
	if n.Where != nil {
		r.where(n.Where)
	}
	if n.Returning != nil {
		r.returning(n.Returning)
	}
}

func (r *renderer) del(n *DeleteNode) {
	r.write("DELETE FROM ")
	r.ident(n.Table)
	if n.Where != nil {
		r.where(n.Where)
	}
	if n.Returning != nil {
		r.returning(n.Returning)
	}
}
