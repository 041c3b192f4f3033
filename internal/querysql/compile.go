// Package querysql renders SQL fragments and statements for report queries.
//
// Only columns with a SQL mapping take part; virtual and computed columns
// are skipped here and produced later by the row compiler. Condition
// values are always bound as parameters, never interpolated.
package querysql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/schema"
)

// Aliases overrides the physical name of columns, keyed by column id.
type Aliases map[string]string

// Compiler renders fragments against a registry.
type Compiler struct {
	reg *schema.Registry
}

// NewCompiler returns a Compiler for reg.
func NewCompiler(reg *schema.Registry) *Compiler {
	return &Compiler{reg: reg}
}

// ColumnName returns the physical name of id, honoring aliases. The second
// result is false for columns that are not SQL columns.
func (c *Compiler) ColumnName(id string, aliases Aliases) (string, bool) {
	col, ok := c.reg.Column(id)
	if !ok || !col.IsSQL() {
		return "", false
	}
	if name, ok := aliases[id]; ok {
		return name, true
	}
	return col.SQLName(), true
}

// mapColumns renders the SQL columns among ids, in order and without
// duplicates. With alias set, " <id>" follows names that differ from id and
// ids that are not bare identifiers, since a driver reports "people.name"
// as "name".
func (c *Compiler) mapColumns(ids []string, aliases Aliases, alias bool) []string {
	var out []string
	var seen []string
	for _, id := range ids {
		if slices.Contains(seen, id) {
			continue
		}
		seen = append(seen, id)
		name, ok := c.ColumnName(id, aliases)
		if !ok {
			continue
		}
		if alias && (name != id || !bareIdent(id)) {
			name += " " + quoteAlias(id)
		}
		out = append(out, name)
	}
	return out
}

// bareIdent reports whether id can be used as an alias unquoted.
func bareIdent(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func quoteAlias(id string) string {
	if bareIdent(id) {
		return id
	}
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Select renders the select list for columns, aliasing each mapped name
// back to its column id.
func (c *Compiler) Select(columns []string, aliases Aliases) string {
	return strings.Join(c.mapColumns(columns, aliases, true), ", ")
}

// GroupBy renders the group-by list. It returns false when none of the
// columns is a SQL column.
func (c *Compiler) GroupBy(columns []string, aliases Aliases) (string, bool) {
	names := c.mapColumns(columns, aliases, false)
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, ", "), true
}

// OrderBy renders "<name> ASC|DESC". It returns false when the spec has no
// ordering or orders by a column SQL cannot see.
func (c *Compiler) OrderBy(spec *queryspec.Spec, aliases Aliases) (string, bool) {
	if spec.OrderBy == nil {
		return "", false
	}
	name, ok := c.ColumnName(spec.OrderBy.Column, aliases)
	if !ok {
		return "", false
	}
	return name + " " + strings.ToUpper(string(spec.OrderBy.Direction)), true
}

// Joins renders the join clauses needed by the SQL columns in columns and
// used. Each table is preceded by the tables it depends on; every table
// appears once.
func (c *Compiler) Joins(columns []string, used ...string) string {
	var tables []string
	for _, id := range append(slices.Clone(columns), used...) {
		col, ok := c.reg.Column(id)
		if !ok || !col.IsSQL() {
			continue
		}
		t := col.SQL.Table
		if t == "" || t == c.reg.Base() || slices.Contains(tables, t) {
			continue
		}
		tables = append(tables, t)
	}

	var joined []string
	var clauses []string
	for _, t := range tables {
		// Build rejected undefined and circular chains.
		chain, err := c.reg.JoinChain(t)
		if err != nil {
			continue
		}
		for _, td := range chain {
			if slices.Contains(joined, td.Name) {
				continue
			}
			joined = append(joined, td.Name)
			clauses = append(clauses, td.Join)
		}
	}
	return strings.Join(clauses, " ")
}

// Where renders the conditions on SQL columns as a conjunction with "?"
// placeholders. It returns false when no condition applies.
func (c *Compiler) Where(spec *queryspec.Spec, aliases Aliases) (string, []any, bool) {
	var parts []string
	var args []any
	for _, cond := range spec.Conditions {
		name, ok := c.ColumnName(cond.Column, aliases)
		if !ok {
			continue
		}
		switch cond.Kind {
		case queryspec.KindEquals:
			parts = append(parts, name+" = ?")
			args = append(args, cond.Value)
		case queryspec.KindCompare:
			for _, cmp := range cond.Comparisons {
				parts = append(parts, fmt.Sprintf("%s %s ?", name, cmp.Op))
				args = append(args, cmp.Value)
			}
		case queryspec.KindIn:
			marks := strings.TrimSuffix(strings.Repeat("?, ", len(cond.Values)), ", ")
			parts = append(parts, fmt.Sprintf("%s IN (%s)", name, marks))
			for _, v := range cond.Values {
				args = append(args, v)
			}
		}
	}
	if len(parts) == 0 {
		return "", nil, false
	}
	return strings.Join(parts, " AND "), args, true
}

// UnmappedConditions returns the condition columns SQL cannot filter on.
func (c *Compiler) UnmappedConditions(spec *queryspec.Spec) []string {
	var cols []string
	for _, cond := range spec.Conditions {
		if !c.reg.IsSQLColumn(cond.Column) {
			cols = append(cols, cond.Column)
		}
	}
	return cols
}
