package sql

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlkit/dialect"
)

// capability is one entry of the support matrix.
type capability struct {
	supported bool
	reason    string           // populated when unsupported
	check     func(Node) error // optional shape predicate, run when supported
}

func supported() capability { return capability{supported: true} }

func unsupported(reason string) capability { return capability{reason: reason} }

func shaped(check func(Node) error) capability {
	return capability{supported: true, check: check}
}

// Registry is the capability matrix: it answers, for a (kind,
// configuration, dialect) triple, whether rendering is supported, and
// if not, why. It is the single source of truth; the renderer never
// special-cases a backend on its own.
//
// Missing entries (an unknown dialect, or a kind absent from a
// dialect's row) are unsupported. The matrix fails closed, never open.
//
// A Registry is read-only after construction and safe for concurrent
// use. Rows added with LoadDialect must be loaded before the registry
// is first used for validation.
type Registry struct {
	kinds map[string]map[Kind]capability
	ops   map[string]map[Op]capability
}

// allKinds enumerates every renderable node kind. New kinds must be
// added here so that every dialect row covers them.
var allKinds = []Kind{
	KindColumn, KindParam, KindOp, KindFunc, KindList,
	KindWhere, KindOnConflict, KindReturning, KindOrderBy, KindGroupBy, KindLock,
	KindSelect, KindInsert, KindInsertFromSelect, KindUpdate, KindDelete,
}

// allOps enumerates every operator.
var allOps = []Op{
	OpEQ, OpNEQ, OpGT, OpGTE, OpLT, OpLTE, OpIn, OpNotIn,
	OpLike, OpILike, OpIsNull, OpNotNull, OpAnd, OpOr, OpNot,
}

const ilikeReason = "case-insensitive match (ILIKE) is postgres-only; use LOWER with LIKE instead"

// NewRegistry returns a registry seeded with full rows for the
// postgres, mysql and sqlite dialects. The restrictions encoded here
// come from the backends' dialect documentation; everything not listed
// renders uniformly.
func NewRegistry() *Registry {
	r := &Registry{
		kinds: make(map[string]map[Kind]capability, 3),
		ops:   make(map[string]map[Op]capability, 3),
	}
	for _, d := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		kinds := make(map[Kind]capability, len(allKinds))
		for _, k := range allKinds {
			kinds[k] = supported()
		}
		ops := make(map[Op]capability, len(allOps))
		for _, o := range allOps {
			ops[o] = supported()
		}
		r.kinds[d] = kinds
		r.ops[d] = ops
	}
	r.ops[dialect.MySQL][OpILike] = unsupported(ilikeReason)
	r.ops[dialect.SQLite][OpILike] = unsupported(ilikeReason)
	r.kinds[dialect.MySQL][KindReturning] = unsupported("mysql does not support the RETURNING clause")
	r.kinds[dialect.MySQL][KindOnConflict] = shaped(func(n Node) error {
		c, ok := n.(*OnConflictNode)
		if !ok {
			return nil
		}
		if len(c.Target) > 0 {
			return errors.New("mysql cannot name a conflict target; ON DUPLICATE KEY UPDATE applies to any unique index")
		}
		return nil
	})
	mysqlInsert := func(n Node) error {
		ins, ok := n.(*InsertNode)
		if !ok {
			return nil
		}
		if ins.OnConflict != nil && len(ins.Columns) == 0 {
			return errors.New("mysql ON DUPLICATE KEY UPDATE requires an explicit insert column list")
		}
		return nil
	}
	r.kinds[dialect.MySQL][KindInsert] = shaped(mysqlInsert)
	r.kinds[dialect.MySQL][KindInsertFromSelect] = shaped(mysqlInsert)
	r.kinds[dialect.SQLite][KindLock] = unsupported("sqlite does not support row-level locking")
	r.kinds[dialect.SQLite][KindInsertFromSelect] = shaped(func(n Node) error {
		ins, ok := n.(*InsertNode)
		if !ok {
			return nil
		}
		if ins.OnConflict != nil && ins.FromSelect.Where == nil {
			return errors.New("sqlite requires a WHERE clause on the inner select when combined with ON CONFLICT")
		}
		return nil
	})
	return r
}

// defaultRegistry is process-wide and read-only after package init.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by Dialect. Loading rows
// into it affects the whole process and must happen during program
// initialization, before any statement is validated.
func DefaultRegistry() *Registry { return defaultRegistry }

// Validate walks the node tree depth-first, post-order, and reports the
// first node without a supported capability fact for the given dialect.
// Children are checked before their parent, so the deepest offending
// node, the proximate cause, is the one reported. Validation
// short-circuits on the first failure; sibling subtrees after it are
// not walked.
func (r *Registry) Validate(n Node, d string) error {
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		if err := r.Validate(c, d); err != nil {
			return err
		}
	}
	return r.support(n, d)
}

// support looks up the capability fact for a single node.
func (r *Registry) support(n Node, d string) error {
	kinds, ok := r.kinds[d]
	if !ok {
		return &CapabilityError{
			Kind:    n.Kind(),
			Dialect: d,
			Reason:  fmt.Sprintf("unknown dialect %q: no capability row registered", d),
		}
	}
	c, ok := kinds[n.Kind()]
	if !ok {
		return &CapabilityError{
			Kind:    n.Kind(),
			Dialect: d,
			Reason:  "no capability entry for this node kind",
		}
	}
	if !c.supported {
		return &CapabilityError{
			Kind:    n.Kind(),
			Dialect: d,
			Config:  configSummary(n),
			Reason:  c.reason,
		}
	}
	if c.check != nil {
		if err := c.check(n); err != nil {
			return &CapabilityError{
				Kind:    n.Kind(),
				Dialect: d,
				Config:  configSummary(n),
				Reason:  err.Error(),
			}
		}
	}
	op, ok := n.(*OpNode)
	if !ok {
		return nil
	}
	oc, ok := r.ops[d][op.Op]
	if !ok {
		return &CapabilityError{
			Kind:    KindOp,
			Op:      op.Op,
			Dialect: d,
			Reason:  "no capability entry for this operator",
		}
	}
	if !oc.supported {
		return &CapabilityError{
			Kind:    KindOp,
			Op:      op.Op,
			Dialect: d,
			Reason:  oc.reason,
		}
	}
	return nil
}

// configSummary describes the configuration of the node kinds whose
// support depends on shape, for error reporting.
func configSummary(n Node) string {
	switch n := n.(type) {
	case *InsertNode:
		if n.FromSelect == nil || n.OnConflict == nil {
			return ""
		}
		if n.FromSelect.Where == nil {
			return "on_conflict with unfiltered select"
		}
		return "on_conflict with filtered select"
	case *OnConflictNode:
		if len(n.Target) > 0 {
			return "with conflict target columns"
		}
		return ""
	default:
		return ""
	}
}

// dialectRow is the YAML form of one dialect row of the matrix. Shape
// predicates cannot be expressed in YAML; rows loaded this way carry
// flat supported/unsupported entries only. Kinds and operators absent
// from the document stay unsupported.
type dialectRow struct {
	Dialect   string            `yaml:"dialect"`
	Kinds     map[string]bool   `yaml:"kinds"`
	Operators map[string]bool   `yaml:"operators"`
	Reasons   map[string]string `yaml:"reasons"` // keyed by kind or operator name
}

// LoadDialect adds (or replaces) a full dialect row from its YAML form.
// New backends are added by supplying a complete row; anything the row
// leaves out is unsupported. Must be called before the registry is
// first used for validation.
func (r *Registry) LoadDialect(data []byte) error {
	var row dialectRow
	if err := yaml.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("sql: load dialect row: %w", err)
	}
	if row.Dialect == "" {
		return errors.New("sql: dialect row is missing the dialect name")
	}
	kinds := make(map[Kind]capability, len(row.Kinds))
	for name, ok := range row.Kinds {
		k, known := kindByName[name]
		if !known || k == KindInvalid {
			return fmt.Errorf("sql: dialect row %q: unknown node kind %q", row.Dialect, name)
		}
		kinds[k] = rowEntry(ok, row.Reasons[name], name, row.Dialect)
	}
	ops := make(map[Op]capability, len(row.Operators))
	for name, ok := range row.Operators {
		o, known := opNames[name]
		if !known {
			return fmt.Errorf("sql: dialect row %q: unknown operator %q", row.Dialect, name)
		}
		ops[o] = rowEntry(ok, row.Reasons[name], name, row.Dialect)
	}
	r.kinds[row.Dialect] = kinds
	r.ops[row.Dialect] = ops
	return nil
}

func rowEntry(ok bool, reason, name, d string) capability {
	if ok {
		return supported()
	}
	if reason == "" {
		reason = fmt.Sprintf("%s is not supported on %s", name, d)
	}
	return unsupported(reason)
}
