package querysql

import (
	"errors"
	"strings"

	"github.com/roach88/reportql/internal/queryspec"
)

// ErrNoBaseTable is returned by Compile for schemas without a base table.
var ErrNoBaseTable = errors.New("querysql: schema has no base table")

// Statement is a complete parameterized query.
//
// Grouped is false when a group-by column is not a SQL column; the
// statement then has no GROUP BY, ORDER BY or LIMIT and the caller must
// regroup, sort and page the rows. Ordered is false when the spec orders by
// a column SQL cannot see; the caller must sort the rows. Paged is false
// when limit and offset were left to the caller for either reason.
type Statement struct {
	SQL     string
	Args    []any
	Grouped bool
	Ordered bool
	Paged   bool
}

// Compile assembles the statement fetching required for spec:
//
//	SELECT <required> FROM <base> <joins> [WHERE] [GROUP BY] [ORDER BY] [LIMIT ?] [OFFSET ?]
//
// Joins cover both the required columns and the condition columns. An
// offset without a limit renders LIMIT -1, which SQLite reads as no limit.
func (c *Compiler) Compile(spec *queryspec.Spec, required []string, aliases Aliases) (*Statement, error) {
	base := c.reg.Base()
	if base == "" {
		return nil, ErrNoBaseTable
	}

	selectList := c.Select(required, aliases)
	if selectList == "" {
		selectList = "*"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList)
	b.WriteString(" FROM ")
	b.WriteString(base)
	if joins := c.Joins(required, spec.ConditionColumns()...); joins != "" {
		b.WriteString(" ")
		b.WriteString(joins)
	}

	stmt := &Statement{}
	if where, args, ok := c.Where(spec, aliases); ok {
		b.WriteString(" WHERE ")
		b.WriteString(where)
		stmt.Args = append(stmt.Args, args...)
	}
	stmt.Grouped = c.groupable(spec.GroupBy, aliases)
	if !stmt.Grouped {
		stmt.SQL = b.String()
		return stmt, nil
	}
	if groupBy, ok := c.GroupBy(spec.GroupBy, aliases); ok {
		b.WriteString(" GROUP BY ")
		b.WriteString(groupBy)
	}

	orderBy, ordered := c.OrderBy(spec, aliases)
	stmt.Ordered = spec.OrderBy == nil || ordered
	if ordered {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}

	stmt.Paged = stmt.Ordered
	if stmt.Paged {
		switch {
		case spec.Limit != nil:
			b.WriteString(" LIMIT ?")
			stmt.Args = append(stmt.Args, *spec.Limit)
		case spec.Offset != nil:
			b.WriteString(" LIMIT -1")
		}
		if spec.Offset != nil {
			b.WriteString(" OFFSET ?")
			stmt.Args = append(stmt.Args, *spec.Offset)
		}
	}

	stmt.SQL = b.String()
	return stmt, nil
}

// groupable reports whether SQL can group by every column of groupBy.
func (c *Compiler) groupable(groupBy []string, aliases Aliases) bool {
	for _, id := range groupBy {
		if _, ok := c.ColumnName(id, aliases); !ok {
			return false
		}
	}
	return true
}
