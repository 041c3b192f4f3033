// Package resolve computes the set of columns a query needs.
//
// Starting from the selection, the grouping columns and any extra ids, every
// registered column's requires list is expanded transitively. Ids unknown
// to the registry are opaque leaves. The result lists each column after the
// columns it depends on, without duplicates.
package resolve

import (
	"slices"

	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/schema"
)

// Resolve returns the required columns for spec plus extra.
//
// Roots are taken in order: selection (wildcard expanded in place), group
// by, extra. Each root's dependencies are listed before the root. A cycle
// in requires yields a *CircularDependencyError naming the root whose
// expansion found it.
func Resolve(reg *schema.Registry, spec *queryspec.Spec, extra ...string) ([]string, error) {
	roots := ExpandSelection(reg, spec.Select)
	roots = append(roots, spec.GroupBy...)
	roots = append(roots, extra...)
	return Columns(reg, roots...)
}

// Columns returns the closure of roots.
func Columns(reg *schema.Registry, roots ...string) ([]string, error) {
	r := &resolver{reg: reg, done: make(map[string]bool)}
	for _, root := range roots {
		if err := r.visit(root, root, nil); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

// ExpandSelection replaces the wildcard with every registered column in
// declaration order and drops repeated ids.
func ExpandSelection(reg *schema.Registry, selection []string) []string {
	out := make([]string, 0, len(selection))
	add := func(id string) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, id := range selection {
		if id == queryspec.Wildcard {
			for _, all := range reg.ColumnIDs() {
				add(all)
			}
			continue
		}
		add(id)
	}
	return out
}

type resolver struct {
	reg  *schema.Registry
	done map[string]bool
	out  []string
}

// visit expands id depth-first. path holds the columns currently being
// expanded; meeting one of them again is a cycle.
func (r *resolver) visit(root, id string, path []string) error {
	if r.done[id] {
		return nil
	}
	if slices.Contains(path, id) {
		cycle := append(slices.Clone(path), id)
		return &CircularDependencyError{Column: root, Path: cycle}
	}

	if col, ok := r.reg.Column(id); ok && len(col.Requires) > 0 {
		path = append(path, id)
		for _, req := range col.Requires {
			if err := r.visit(root, req, path); err != nil {
				return err
			}
		}
	}

	r.done[id] = true
	r.out = append(r.out, id)
	return nil
}
