package sql

import (
	"time"

	"github.com/google/uuid"
)

// Type is the semantic SQL type carried by an expression node. It is
// used for type-checking composition (e.g. a WHERE clause requires a
// boolean-typed child) and for parameter binding.
type Type uint8

// Semantic SQL types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeBytes
	TypeTime
	TypeUUID
	TypeJSON
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeBytes:   "bytes",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeJSON:    "json",
}

// String returns the lowercase name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// Kind identifies a node variant. Capability facts are keyed by
// (Kind, dialect), with shape predicates for the kinds whose support
// depends on configuration rather than kind alone.
type Kind uint8

// Node kinds.
const (
	KindInvalid Kind = iota
	KindColumn
	KindParam
	KindOp
	KindFunc
	KindList
	KindWhere
	KindOnConflict
	KindReturning
	KindOrderBy
	KindGroupBy
	KindLock
	KindSelect
	KindInsert
	KindInsertFromSelect
	KindUpdate
	KindDelete
)

var kindNames = [...]string{
	KindInvalid:          "invalid",
	KindColumn:           "column",
	KindParam:            "param",
	KindOp:               "op",
	KindFunc:             "func",
	KindList:             "list",
	KindWhere:            "where",
	KindOnConflict:       "on_conflict",
	KindReturning:        "returning",
	KindOrderBy:          "order_by",
	KindGroupBy:          "group_by",
	KindLock:             "lock",
	KindSelect:           "select",
	KindInsert:           "insert",
	KindInsertFromSelect: "insert_from_select",
	KindUpdate:           "update",
	KindDelete:           "delete",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// kindByName is the reverse of kindNames, used when loading capability
// rows from their YAML form.
var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

// Op is an operator applied by an OpNode.
type Op uint8

// Operators.
const (
	OpInvalid Op = iota
	OpEQ         // =
	OpNEQ        // <>
	OpGT         // >
	OpGTE        // >=
	OpLT         // <
	OpLTE        // <=
	OpIn         // IN
	OpNotIn      // NOT IN
	OpLike       // LIKE
	OpILike      // ILIKE (case-insensitive match)
	OpIsNull     // IS NULL
	OpNotNull    // IS NOT NULL
	OpAnd        // AND
	OpOr         // OR
	OpNot        // NOT
)

// opTokens maps operators to their SQL spelling. The renderer reads
// this table; a missing entry there is an internal defect, not a user
// error.
var opTokens = [...]string{
	OpEQ:      "=",
	OpNEQ:     "<>",
	OpGT:      ">",
	OpGTE:     ">=",
	OpLT:      "<",
	OpLTE:     "<=",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpLike:    "LIKE",
	OpILike:   "ILIKE",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
	OpAnd:     "AND",
	OpOr:      "OR",
	OpNot:     "NOT",
}

// String returns the SQL token of the operator.
func (o Op) String() string {
	if o == OpInvalid || int(o) >= len(opTokens) {
		return "invalid"
	}
	return opTokens[o]
}

// opNames are the identifiers used for operators in YAML capability
// rows, where the SQL tokens ("=", "IS NULL") would be awkward keys.
var opNames = map[string]Op{
	"eq":       OpEQ,
	"neq":      OpNEQ,
	"gt":       OpGT,
	"gte":      OpGTE,
	"lt":       OpLT,
	"lte":      OpLTE,
	"in":       OpIn,
	"not_in":   OpNotIn,
	"like":     OpLike,
	"ilike":    OpILike,
	"is_null":  OpIsNull,
	"not_null": OpNotNull,
	"and":      OpAnd,
	"or":       OpOr,
	"not":      OpNot,
}

// Node is one immutable unit of the query representation: an expression,
// a clause, or a statement shape. Construction is infallible and
// backend-agnostic; whether a node renders on a given backend is decided
// by the capability Registry, never by the node itself.
//
// Children are exclusively owned by their parent. Nodes are never
// mutated after construction, so sharing a subtree between statements
// is safe.
type Node interface {
	// Kind returns the variant tag of the node.
	Kind() Kind
	// NodeType returns the semantic SQL type of the node's result.
	// Clause and statement nodes return TypeInvalid.
	NodeType() Type
	// Children returns the immediate child nodes, in the depth-first
	// order used by validation, rendering and parameter extraction.
	Children() []Node
}

// ColumnNode references a table column, optionally qualified.
type ColumnNode struct {
	Table string // optional qualifier
	Name  string
	Typ   Type // declared result type; TypeInvalid when unknown
}

// Column returns a column reference node. A dotted name such as "u.id"
// is split into qualifier and column.
func Column(name string) *ColumnNode {
	if i := lastDot(name); i >= 0 {
		return &ColumnNode{Table: name[:i], Name: name[i+1:]}
	}
	return &ColumnNode{Name: name}
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func (*ColumnNode) Kind() Kind       { return KindColumn }
func (n *ColumnNode) NodeType() Type { return n.Typ }
func (*ColumnNode) Children() []Node { return nil }

// ParamNode is a bound parameter: a typed value rendered as a
// placeholder, with the value collected into the argument list in
// depth-first order.
type ParamNode struct {
	Value any
	Typ   Type
}

// Param returns a bound parameter node, inferring the semantic type
// from the Go value.
func Param(v any) *ParamNode {
	return &ParamNode{Value: v, Typ: paramType(v)}
}

// TypedParam returns a bound parameter node with an explicit semantic
// type, for values whose Go type does not determine the SQL one.
func TypedParam(v any, t Type) *ParamNode {
	return &ParamNode{Value: v, Typ: t}
}

func (*ParamNode) Kind() Kind       { return KindParam }
func (n *ParamNode) NodeType() Type { return n.Typ }
func (*ParamNode) Children() []Node { return nil }

// paramType infers the semantic SQL type of a Go value.
func paramType(v any) Type {
	switch v.(type) {
	case bool:
		return TypeBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt
	case float32, float64:
		return TypeFloat
	case string:
		return TypeString
	case []byte:
		return TypeBytes
	case time.Time:
		return TypeTime
	case uuid.UUID:
		return TypeUUID
	default:
		return TypeInvalid
	}
}

// OpNode applies a unary or binary operator. Unary operators (IS NULL,
// IS NOT NULL, NOT) leave Y nil. All modeled operators are predicates,
// so the result type is boolean.
type OpNode struct {
	Op Op
	X  Node
	Y  Node // nil for unary operators
}

func (*OpNode) Kind() Kind     { return KindOp }
func (*OpNode) NodeType() Type { return TypeBool }

func (n *OpNode) Children() []Node {
	if n.Y == nil {
		return []Node{n.X}
	}
	return []Node{n.X, n.Y}
}

// FuncNode applies a named SQL function to its arguments.
type FuncNode struct {
	Name string
	Args []Node
	Typ  Type // declared result type
}

// Lower returns a LOWER(x) node. Together with LIKE it is the portable
// alternative to ILIKE on backends without a case-insensitive operator.
func Lower(x Node) *FuncNode {
	return &FuncNode{Name: "LOWER", Args: []Node{x}, Typ: TypeString}
}

// Count returns a COUNT(x) node.
func Count(x Node) *FuncNode {
	return &FuncNode{Name: "COUNT", Args: []Node{x}, Typ: TypeInt}
}

func (*FuncNode) Kind() Kind         { return KindFunc }
func (n *FuncNode) NodeType() Type   { return n.Typ }
func (n *FuncNode) Children() []Node { return n.Args }

// ListNode is an ordered list of expressions, used as the right-hand
// side of IN and NOT IN.
type ListNode struct {
	Items []Node
}

func (*ListNode) Kind() Kind         { return KindList }
func (*ListNode) NodeType() Type     { return TypeInvalid }
func (n *ListNode) Children() []Node { return n.Items }

// WhereNode wraps the boolean expression of a WHERE clause.
type WhereNode struct {
	Expr Node
}

func (*WhereNode) Kind() Kind         { return KindWhere }
func (*WhereNode) NodeType() Type     { return TypeInvalid }
func (n *WhereNode) Children() []Node { return []Node{n.Expr} }

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr Node
	Desc bool
}

// OrderByNode wraps the terms of an ORDER BY clause.
type OrderByNode struct {
	Items []OrderItem
}

func (*OrderByNode) Kind() Kind     { return KindOrderBy }
func (*OrderByNode) NodeType() Type { return TypeInvalid }
func (n *OrderByNode) Children() []Node {
	items := make([]Node, len(n.Items))
	for i := range n.Items {
		items[i] = n.Items[i].Expr
	}
	return items
}

// GroupByNode wraps the expressions of a GROUP BY clause.
type GroupByNode struct {
	Exprs []Node
}

func (*GroupByNode) Kind() Kind         { return KindGroupBy }
func (*GroupByNode) NodeType() Type     { return TypeInvalid }
func (n *GroupByNode) Children() []Node { return n.Exprs }

// ReturningNode wraps the column list of a RETURNING clause.
type ReturningNode struct {
	Cols []*ColumnNode
}

func (*ReturningNode) Kind() Kind     { return KindReturning }
func (*ReturningNode) NodeType() Type { return TypeInvalid }
func (n *ReturningNode) Children() []Node {
	cols := make([]Node, len(n.Cols))
	for i, c := range n.Cols {
		cols[i] = c
	}
	return cols
}

// LockStrength is the strength of a row-level lock clause.
type LockStrength uint8

const (
	LockForUpdate LockStrength = iota + 1
	LockForShare
)

// String returns the SQL suffix of the lock strength.
func (s LockStrength) String() string {
	switch s {
	case LockForUpdate:
		return "FOR UPDATE"
	case LockForShare:
		return "FOR SHARE"
	default:
		return "invalid"
	}
}

// LockNode is a row-level locking clause on a SELECT.
type LockNode struct {
	Strength LockStrength
}

func (*LockNode) Kind() Kind       { return KindLock }
func (*LockNode) NodeType() Type   { return TypeInvalid }
func (*LockNode) Children() []Node { return nil }

// Assignment is one column = expression pair in a SET clause or an
// ON CONFLICT DO UPDATE clause.
type Assignment struct {
	Col  *ColumnNode
	Expr Node
}

// OnConflictNode is an ON CONFLICT (PostgreSQL, SQLite) or
// ON DUPLICATE KEY UPDATE (MySQL) clause on an INSERT.
type OnConflictNode struct {
	Target    []*ColumnNode // conflict target columns; empty for any constraint
	DoNothing bool
	Updates   []Assignment
}

func (*OnConflictNode) Kind() Kind     { return KindOnConflict }
func (*OnConflictNode) NodeType() Type { return TypeInvalid }
func (n *OnConflictNode) Children() []Node {
	var children []Node
	for _, c := range n.Target {
		children = append(children, c)
	}
	for _, a := range n.Updates {
		children = append(children, a.Col, a.Expr)
	}
	return children
}

// SelectNode is a SELECT statement shape.
type SelectNode struct {
	Distinct bool
	Columns  []Node // empty renders as *
	From     *SelectTable
	Joins    []Join
	Where    *WhereNode
	GroupBy  *GroupByNode
	OrderBy  *OrderByNode
	Limit    int // negative when unset
	Offset   int // negative when unset
	Lock     *LockNode
}

// JoinKind distinguishes join flavors.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// Join is one join term of a SELECT. Joins are configuration of the
// select shape rather than a standalone node kind; their expressions
// still participate in the depth-first walk.
type Join struct {
	Kind  JoinKind
	Table *SelectTable
	On    Node // boolean expression; nil until On is called
}

func (*SelectNode) Kind() Kind     { return KindSelect }
func (*SelectNode) NodeType() Type { return TypeInvalid }
func (n *SelectNode) Children() []Node {
	var children []Node
	children = append(children, n.Columns...)
	for _, j := range n.Joins {
		if j.On != nil {
			children = append(children, j.On)
		}
	}
	if n.Where != nil {
		children = append(children, n.Where)
	}
	if n.GroupBy != nil {
		children = append(children, n.GroupBy)
	}
	if n.OrderBy != nil {
		children = append(children, n.OrderBy)
	}
	if n.Lock != nil {
		children = append(children, n.Lock)
	}
	return children
}

// InsertNode is an INSERT statement shape. When FromSelect is set the
// node reports KindInsertFromSelect and Values is empty; the two forms
// carry different capability facts.
type InsertNode struct {
	Table      string
	Columns    []string
	Values     [][]Node
	Defaults   bool // INSERT ... DEFAULT VALUES
	FromSelect *SelectNode
	OnConflict *OnConflictNode
	Returning  *ReturningNode
}

func (n *InsertNode) Kind() Kind {
	if n.FromSelect != nil {
		return KindInsertFromSelect
	}
	return KindInsert
}

func (*InsertNode) NodeType() Type { return TypeInvalid }

func (n *InsertNode) Children() []Node {
	var children []Node
	for _, row := range n.Values {
		children = append(children, row...)
	}
	if n.FromSelect != nil {
		children = append(children, n.FromSelect)
	}
	if n.OnConflict != nil {
		children = append(children, n.OnConflict)
	}
	if n.Returning != nil {
		children = append(children, n.Returning)
	}
	return children
}

// UpdateNode is an UPDATE statement shape.
type UpdateNode struct {
	Table     string
	Set       []Assignment
	Where     *WhereNode
	Returning *ReturningNode
}

func (*UpdateNode) Kind() Kind     { return KindUpdate }
func (*UpdateNode) NodeType() Type { return TypeInvalid }
func (n *UpdateNode) Children() []Node {
	var children []Node
	for _, a := range n.Set {
		children = append(children, a.Col, a.Expr)
	}
	if n.Where != nil {
		children = append(children, n.Where)
	}
	if n.Returning != nil {
		children = append(children, n.Returning)
	}
	return children
}

// DeleteNode is a DELETE statement shape.
type DeleteNode struct {
	Table     string
	Where     *WhereNode
	Returning *ReturningNode
}

func (*DeleteNode) Kind() Kind     { return KindDelete }
func (*DeleteNode) NodeType() Type { return TypeInvalid }
func (n *DeleteNode) Children() []Node {
	var children []Node
	if n.Where != nil {
		children = append(children, n.Where)
	}
	if n.Returning != nil {
		children = append(children, n.Returning)
	}
	return children
}

// SelectTable is a table reference used in FROM and JOIN clauses.
// Tables are configuration of statement shapes, not nodes themselves.
type SelectTable struct {
	name  string
	alias string
}

// Table returns a new table reference.
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// As sets the table alias and returns the reference.
func (t *SelectTable) As(alias string) *SelectTable {
	t.alias = alias
	return t
}

// Name returns the table name.
func (t *SelectTable) Name() string { return t.name }

// Alias returns the table alias, or an empty string.
func (t *SelectTable) Alias() string { return t.alias }

// C returns a column reference qualified by the table alias, or by the
// table name when no alias is set.
func (t *SelectTable) C(name string) *ColumnNode {
	q := t.alias
	if q == "" {
		q = t.name
	}
	return &ColumnNode{Table: q, Name: name}
}
