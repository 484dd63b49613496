package sql

import "strings"

// EQ returns a col = v predicate.
func EQ(col string, v any) *Predicate { return binary(OpEQ, col, v) }

// NEQ returns a col <> v predicate.
func NEQ(col string, v any) *Predicate { return binary(OpNEQ, col, v) }

// GT returns a col > v predicate.
func GT(col string, v any) *Predicate { return binary(OpGT, col, v) }

// GTE returns a col >= v predicate.
func GTE(col string, v any) *Predicate { return binary(OpGTE, col, v) }

// LT returns a col < v predicate.
func LT(col string, v any) *Predicate { return binary(OpLT, col, v) }

// LTE returns a col <= v predicate.
func LTE(col string, v any) *Predicate { return binary(OpLTE, col, v) }

func binary(op Op, col string, v any) *Predicate {
	return &Predicate{node: &OpNode{Op: op, X: Column(col), Y: toExpr(v)}}
}

// ColumnsEQ returns a predicate comparing two columns for equality,
// as used in join conditions and self-joins.
func ColumnsEQ(col1, col2 string) *Predicate {
	return &Predicate{node: &OpNode{Op: OpEQ, X: Column(col1), Y: Column(col2)}}
}

// In returns a col IN (...) predicate. A single *Selector argument
// turns the predicate into a subquery membership test.
func In(col string, vs ...any) *Predicate { return inList(OpIn, col, vs) }

// NotIn returns a col NOT IN (...) predicate.
func NotIn(col string, vs ...any) *Predicate { return inList(OpNotIn, col, vs) }

func inList(op Op, col string, vs []any) *Predicate {
	if len(vs) == 1 {
		if sub, ok := vs[0].(*Selector); ok {
			inner, err := sub.build()
			if err != nil {
				return &Predicate{err: err}
			}
			return &Predicate{node: &OpNode{Op: op, X: Column(col), Y: inner}}
		}
	}
	items := make([]Node, len(vs))
	for i, v := range vs {
		items[i] = toExpr(v)
	}
	return &Predicate{node: &OpNode{Op: op, X: Column(col), Y: &ListNode{Items: items}}}
}

// Like returns a col LIKE pattern predicate. The pattern is used
// verbatim; use Contains, HasPrefix or HasSuffix for escaped matches.
func Like(col, pattern string) *Predicate { return binary(OpLike, col, pattern) }

// ILike returns a col ILIKE pattern predicate. Case-insensitive match
// is a postgres-only capability; validation rejects it elsewhere.
func ILike(col, pattern string) *Predicate { return binary(OpILike, col, pattern) }

// likeEscape neutralizes LIKE wildcards in a literal substring.
var likeEscape = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a predicate matching columns that contain substr.
func Contains(col, substr string) *Predicate {
	return Like(col, "%"+likeEscape.Replace(substr)+"%")
}

// HasPrefix returns a predicate matching columns that start with prefix.
func HasPrefix(col, prefix string) *Predicate {
	return Like(col, likeEscape.Replace(prefix)+"%")
}

// HasSuffix returns a predicate matching columns that end with suffix.
func HasSuffix(col, suffix string) *Predicate {
	return Like(col, "%"+likeEscape.Replace(suffix))
}

// ContainsFold is the case-insensitive Contains. Like ILike it is
// postgres-only; on other backends combine Lower with Contains.
func ContainsFold(col, substr string) *Predicate {
	return ILike(col, "%"+likeEscape.Replace(substr)+"%")
}

// EqualFold is the case-insensitive string equality. Postgres-only,
// like ILike.
func EqualFold(col, v string) *Predicate {
	return ILike(col, likeEscape.Replace(v))
}

// IsNull returns a col IS NULL predicate.
func IsNull(col string) *Predicate {
	return &Predicate{node: &OpNode{Op: OpIsNull, X: Column(col)}}
}

// NotNull returns a col IS NOT NULL predicate.
func NotNull(col string) *Predicate {
	return &Predicate{node: &OpNode{Op: OpNotNull, X: Column(col)}}
}

// And combines predicates with AND. Nil predicates are skipped; an
// empty combination is nil.
func And(ps ...*Predicate) *Predicate { return combine(OpAnd, ps) }

// Or combines predicates with OR. OR groups are parenthesized when
// rendered inside an AND chain.
func Or(ps ...*Predicate) *Predicate { return combine(OpOr, ps) }

func combine(op Op, ps []*Predicate) *Predicate {
	var out *Predicate
	for _, p := range ps {
		switch {
		case p == nil:
		case p.err != nil:
			return &Predicate{err: p.err}
		case out == nil:
			out = p
		default:
			out = &Predicate{node: &OpNode{Op: op, X: out.node, Y: p.node}}
		}
	}
	return out
}

// Not negates a predicate.
func Not(p *Predicate) *Predicate {
	if p == nil || p.err != nil {
		return p
	}
	return &Predicate{node: &OpNode{Op: OpNot, X: p.node}}
}

// P wraps an expression node as a predicate. The node must be
// boolean-typed; a mismatch surfaces as a TypeMismatchError when the
// statement is assembled.
func P(n Node) *Predicate {
	if t := n.NodeType(); t != TypeBool {
		return &Predicate{err: &TypeMismatchError{Clause: "WHERE", Want: TypeBool, Got: t}}
	}
	return &Predicate{node: n}
}

// fieldPred builds a selector-scoped predicate over a qualified column.
func fieldPred(op Op, col *ColumnNode, y Node) *Predicate {
	return &Predicate{node: &OpNode{Op: op, X: col, Y: y}}
}

// FieldEQ returns a predicate function that checks the field equals v.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpEQ, s.C(name), toExpr(v))) }
}

// FieldNEQ returns a predicate function that checks the field does not equal v.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpNEQ, s.C(name), toExpr(v))) }
}

// FieldGT returns a predicate function that checks the field is greater than v.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpGT, s.C(name), toExpr(v))) }
}

// FieldGTE returns a predicate function that checks the field is greater than or equal to v.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpGTE, s.C(name), toExpr(v))) }
}

// FieldLT returns a predicate function that checks the field is less than v.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpLT, s.C(name), toExpr(v))) }
}

// FieldLTE returns a predicate function that checks the field is less than or equal to v.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(fieldPred(OpLTE, s.C(name), toExpr(v))) }
}

// FieldContains returns a predicate function that checks the field contains substr.
func FieldContains(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(fieldPred(OpLike, s.C(name), Param("%"+likeEscape.Replace(substr)+"%")))
	}
}

// FieldContainsFold is the case-insensitive FieldContains (postgres-only).
func FieldContainsFold(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(fieldPred(OpILike, s.C(name), Param("%"+likeEscape.Replace(substr)+"%")))
	}
}

// FieldHasPrefix returns a predicate function that checks the field starts with prefix.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(fieldPred(OpLike, s.C(name), Param(likeEscape.Replace(prefix)+"%")))
	}
}

// FieldHasSuffix returns a predicate function that checks the field ends with suffix.
func FieldHasSuffix(name, suffix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(fieldPred(OpLike, s.C(name), Param("%"+likeEscape.Replace(suffix))))
	}
}

// FieldEqualFold is a case-insensitive FieldEQ for strings (postgres-only).
func FieldEqualFold(name, v string) func(*Selector) {
	return func(s *Selector) {
		s.Where(fieldPred(OpILike, s.C(name), Param(likeEscape.Replace(v))))
	}
}

// FieldIsNull returns a predicate function that checks the field is NULL.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(&Predicate{node: &OpNode{Op: OpIsNull, X: s.C(name)}})
	}
}

// FieldNotNull returns a predicate function that checks the field is not NULL.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(&Predicate{node: &OpNode{Op: OpNotNull, X: s.C(name)}})
	}
}

// FieldIn returns a predicate function that checks the field value is in the given list.
func FieldIn(name string, vs ...any) func(*Selector) {
	return func(s *Selector) {
		items := make([]Node, len(vs))
		for i, v := range vs {
			items[i] = toExpr(v)
		}
		s.Where(fieldPred(OpIn, s.C(name), &ListNode{Items: items}))
	}
}

// FieldNotIn returns a predicate function that checks the field value is not in the given list.
func FieldNotIn(name string, vs ...any) func(*Selector) {
	return func(s *Selector) {
		items := make([]Node, len(vs))
		for i, v := range vs {
			items[i] = toExpr(v)
		}
		s.Where(fieldPred(OpNotIn, s.C(name), &ListNode{Items: items}))
	}
}

// FieldInGeneric is a generic version of FieldIn for use with generic types.
func FieldInGeneric[T any](name string, vs ...T) func(*Selector) {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return FieldIn(name, v...)
}

// FieldNotInGeneric is a generic version of FieldNotIn for use with generic types.
func FieldNotInGeneric[T any](name string, vs ...T) func(*Selector) {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return FieldNotIn(name, v...)
}

// PredicateFunc is a constraint type for predicate functions. It
// allows generic field types to work with any predicate type that is
// based on func(*Selector).
type PredicateFunc interface {
	~func(*Selector)
}

// StringField is a generic string field that provides type-safe
// predicate methods, defined once via generics instead of per schema.
//
// Usage:
//
//	var Email = sql.StringField[predicate.User]("email")
//	query.Where(user.Email.EQ("test@example.com"))
//	query.Where(user.Email.Contains("@gmail"))
type StringField[P PredicateFunc] string

// Name returns the field name.
func (f StringField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField[P]) EQ(v string) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField[P]) NEQ(v string) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f StringField[P]) In(vs ...string) P {
	return P(FieldInGeneric(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField[P]) NotIn(vs ...string) P {
	return P(FieldNotInGeneric(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField[P]) GT(v string) P {
	return P(FieldGT(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField[P]) LT(v string) P {
	return P(FieldLT(string(f), v))
}

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField[P]) Contains(v string) P {
	return P(FieldContains(string(f), v))
}

// ContainsFold returns a predicate that checks if the field contains the
// given substring, case-insensitively. Postgres-only.
func (f StringField[P]) ContainsFold(v string) P {
	return P(FieldContainsFold(string(f), v))
}

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField[P]) HasPrefix(v string) P {
	return P(FieldHasPrefix(string(f), v))
}

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField[P]) HasSuffix(v string) P {
	return P(FieldHasSuffix(string(f), v))
}

// EqualFold returns a predicate that checks if the field equals the
// given value, case-insensitively. Postgres-only.
func (f StringField[P]) EqualFold(v string) P {
	return P(FieldEqualFold(string(f), v))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// IntField is a generic integer field that provides type-safe predicate methods.
type IntField[P PredicateFunc] string

// Name returns the field name.
func (f IntField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f IntField[P]) EQ(v int) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f IntField[P]) NEQ(v int) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f IntField[P]) In(vs ...int) P {
	return P(FieldInGeneric(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f IntField[P]) NotIn(vs ...int) P {
	return P(FieldNotInGeneric(string(f), vs...))
}

// GT returns a predicate that checks if the field is greater than the given value.
func (f IntField[P]) GT(v int) P {
	return P(FieldGT(string(f), v))
}

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f IntField[P]) GTE(v int) P {
	return P(FieldGTE(string(f), v))
}

// LT returns a predicate that checks if the field is less than the given value.
func (f IntField[P]) LT(v int) P {
	return P(FieldLT(string(f), v))
}

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f IntField[P]) LTE(v int) P {
	return P(FieldLTE(string(f), v))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f IntField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f IntField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// BoolField is a generic boolean field that provides type-safe predicate methods.
type BoolField[P PredicateFunc] string

// Name returns the field name.
func (f BoolField[P]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField[P]) EQ(v bool) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField[P]) NEQ(v bool) P {
	return P(FieldNEQ(string(f), v))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f BoolField[P]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f BoolField[P]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// TimeField is a generic time field that provides type-safe predicate
// methods. T is the actual time type (e.g. time.Time).
type TimeField[P PredicateFunc, T any] string

// Name returns the field name.
func (f TimeField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField[P, T]) EQ(v T) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f TimeField[P, T]) NEQ(v T) P {
	return P(FieldNEQ(string(f), v))
}

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField[P, T]) GT(v T) P {
	return P(FieldGT(string(f), v))
}

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField[P, T]) LT(v T) P {
	return P(FieldLT(string(f), v))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f TimeField[P, T]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f TimeField[P, T]) NotNull() P {
	return P(FieldNotNull(string(f)))
}

// UUIDField is a generic UUID field that provides type-safe predicate
// methods. T is the UUID type.
type UUIDField[P PredicateFunc, T any] string

// Name returns the field name.
func (f UUIDField[P, T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f UUIDField[P, T]) EQ(v T) P {
	return P(FieldEQ(string(f), v))
}

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f UUIDField[P, T]) NEQ(v T) P {
	return P(FieldNEQ(string(f), v))
}

// In returns a predicate that checks if the field value is in the given list.
func (f UUIDField[P, T]) In(vs ...T) P {
	return P(FieldInGeneric(string(f), vs...))
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f UUIDField[P, T]) NotIn(vs ...T) P {
	return P(FieldNotInGeneric(string(f), vs...))
}

// IsNull returns a predicate that checks if the field is NULL.
func (f UUIDField[P, T]) IsNull() P {
	return P(FieldIsNull(string(f)))
}

// NotNull returns a predicate that checks if the field is not NULL.
func (f UUIDField[P, T]) NotNull() P {
	return P(FieldNotNull(string(f)))
}
