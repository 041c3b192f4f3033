package report

import (
	"fmt"
	"reflect"

	"github.com/roach88/reportql/internal/schema"
)

// Row is one output row; a cell is a raw value or a schema.Formatted.
type Row []any

// Column describes one output column.
type Column struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Type  schema.ColumnType `json:"type"`
}

// Table is a compiled report.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Accessor adapts a raw row to schema.Row. It accepts schema.Row values,
// maps with string keys and structs or pointers to structs.
func Accessor(v any) (schema.Row, error) {
	switch row := v.(type) {
	case schema.Row:
		return row, nil
	case map[string]any:
		return MapRow(row), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return reflectMapRow{rv}, nil
	}
	return NewStructRow(v)
}

type reflectMapRow struct {
	m reflect.Value
}

func (r reflectMapRow) Get(id string) (any, bool) {
	v := r.m.MapIndex(reflect.ValueOf(id).Convert(r.m.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// Columns describes the selection. Ids unknown to reg become string
// columns labelled by their id.
func Columns(reg *schema.Registry, selection []string) []Column {
	cols := make([]Column, len(selection))
	for i, id := range selection {
		if c, ok := reg.Column(id); ok {
			cols[i] = Column{ID: id, Label: c.DisplayLabel(), Type: c.Type}
			continue
		}
		cols[i] = Column{ID: id, Label: id, Type: schema.TypeString}
	}
	return cols
}

// Value returns the raw value of column id for row: the virtual column's
// result when id is virtual, the row's value otherwise.
func Value(reg *schema.Registry, row schema.Row, id string) any {
	if c, ok := reg.Column(id); ok && c.IsVirtual() {
		return c.Virtual(row)
	}
	v, _ := row.Get(id)
	return v
}

// CompileRow produces one cell per selected id, in order. Virtual columns
// call their function; columns with a formatter yield a schema.Formatted
// built from the raw value and the values of the formatter's requirements;
// other columns pass the raw value through.
func CompileRow(reg *schema.Registry, row schema.Row, selection []string) Row {
	out := make(Row, len(selection))
	for i, id := range selection {
		c, ok := reg.Column(id)
		switch {
		case ok && c.IsVirtual():
			out[i] = c.Virtual(row)
		case ok && c.HasFormatter():
			raw, _ := row.Get(id)
			deps := make([]any, len(c.FormatterRequires))
			for j, dep := range c.FormatterRequires {
				deps[j] = Value(reg, row, dep)
			}
			out[i] = schema.Formatted{Value: raw, FormattedValue: c.Formatter(raw, deps...)}
		default:
			out[i], _ = row.Get(id)
		}
	}
	return out
}

// Compile builds a Table from raw rows.
func Compile(reg *schema.Registry, rows []schema.Row, selection []string) *Table {
	t := &Table{Columns: Columns(reg, selection), Rows: make([]Row, len(rows))}
	for i, row := range rows {
		t.Rows[i] = CompileRow(reg, row, selection)
	}
	return t
}

// Accessors adapts every element of raw with Accessor.
func Accessors(raw []any) ([]schema.Row, error) {
	rows := make([]schema.Row, len(raw))
	for i, v := range raw {
		row, err := Accessor(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}
