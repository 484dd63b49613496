package sql

import (
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
)

// Statement is an assembled, immutable node tree bound to a target
// dialect. Validation and rendering are pure functions over the tree
// and the capability matrix: a Statement is safe to validate and
// render concurrently, and repeated renders yield identical output.
type Statement struct {
	root     Node
	dialect  string
	registry *Registry
}

// NewStatement binds a node tree to a dialect, validated against the
// default registry.
func NewStatement(root Node, dialect string) *Statement {
	return &Statement{root: root, dialect: dialect, registry: defaultRegistry}
}

// WithRegistry returns a copy of the statement validated against r
// instead of the default registry.
func (s *Statement) WithRegistry(r *Registry) *Statement {
	return &Statement{root: s.root, dialect: s.dialect, registry: r}
}

// Dialect returns the statement's target dialect.
func (s *Statement) Dialect() string { return s.dialect }

// Node returns the root of the statement tree.
func (s *Statement) Node() Node { return s.root }

// Validate establishes that every node in the tree has a supported
// capability fact for the target dialect. It must succeed before the
// statement is rendered or handed to an executor.
func (s *Statement) Validate() error {
	return s.registry.Validate(s.root, s.dialect)
}

// Render validates the statement and translates it into SQL text plus
// the ordered argument list. Arguments appear in the left-to-right,
// depth-first order of the parameter leaves, matching the placeholder
// positions exactly. No SQL text is returned alongside an error.
func (s *Statement) Render() (string, []any, error) {
	if err := s.Validate(); err != nil {
		return "", nil, err
	}
	return render(s.root, s.dialect)
}

// Fingerprint returns a stable key identifying the statement's tree,
// dialect and bound values, suitable for caching rendered output.
func (s *Statement) Fingerprint() string {
	h := fnv.New64a()
	io.WriteString(h, s.dialect)
	fingerprint(h, s.root)
	return strconv.FormatUint(h.Sum64(), 16)
}

// fingerprint writes the identifying configuration of a node and
// recurses into its children. Configuration that Children does not
// expose (table names, limits, order directions) is written explicitly.
func fingerprint(w io.Writer, n Node) {
	fmt.Fprintf(w, "|%d", n.Kind())
	switch n := n.(type) {
	case *ColumnNode:
		fmt.Fprintf(w, ":%s.%s", n.Table, n.Name)
	case *ParamNode:
		fmt.Fprintf(w, ":%d=%v", n.Typ, n.Value)
	case *OpNode:
		fmt.Fprintf(w, ":%d", n.Op)
	case *FuncNode:
		fmt.Fprintf(w, ":%s", n.Name)
	case *LockNode:
		fmt.Fprintf(w, ":%d", n.Strength)
	case *OrderByNode:
		for _, item := range n.Items {
			fmt.Fprintf(w, ":%t", item.Desc)
		}
	case *OnConflictNode:
		fmt.Fprintf(w, ":%t", n.DoNothing)
	case *SelectNode:
		if n.From != nil {
			fmt.Fprintf(w, ":%s.%s", n.From.name, n.From.alias)
		}
		for _, j := range n.Joins {
			fmt.Fprintf(w, ":%d:%s.%s", j.Kind, j.Table.name, j.Table.alias)
		}
		fmt.Fprintf(w, ":%t:%d:%d", n.Distinct, n.Limit, n.Offset)
	case *InsertNode:
		fmt.Fprintf(w, ":%s:%v:%t", n.Table, n.Columns, n.Defaults)
	case *UpdateNode:
		fmt.Fprintf(w, ":%s", n.Table)
		for _, a := range n.Set {
			fmt.Fprintf(w, ":%s", a.Col.Name)
		}
	case *DeleteNode:
		fmt.Fprintf(w, ":%s", n.Table)
	}
	for _, c := range n.Children() {
		if c != nil {
			fingerprint(w, c)
		}
	}
}
