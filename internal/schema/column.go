// Package schema holds the report column schema: column and table
// declarations, the write-once Builder, the immutable Registry it
// produces and the CUE loader for schema files.
package schema

import (
	"slices"
	"strings"
)

// ColumnType is the data type of a report column.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeNumber    ColumnType = "number"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeDateTime  ColumnType = "datetime"
	TypeTimeOfDay ColumnType = "timeofday"
)

// ColumnTypes lists the valid column types.
var ColumnTypes = []ColumnType{TypeString, TypeNumber, TypeBoolean, TypeDate, TypeDateTime, TypeTimeOfDay}

// Valid reports whether t is one of ColumnTypes.
func (t ColumnType) Valid() bool {
	return slices.Contains(ColumnTypes, t)
}

// SQLMapping ties a column to a physical column. A nil mapping means the
// column is not fetched by SQL.
type SQLMapping struct {
	SameName bool   // physical name equals the column id
	Table    string // empty for the base table
	Column   string // empty means the column id
}

// SameName returns a mapping whose physical name is the column id.
func SameName() *SQLMapping {
	return &SQLMapping{SameName: true}
}

// Mapped returns a mapping to table.column. Either part may be empty.
func Mapped(table, column string) *SQLMapping {
	return &SQLMapping{Table: table, Column: column}
}

// Name renders the physical name for column id. A column part that is
// already qualified (contains a dot) is not prefixed with the table.
func (m *SQLMapping) Name(id string) string {
	if m.SameName {
		return id
	}
	column := m.Column
	if column == "" {
		column = id
	}
	if m.Table == "" || strings.Contains(column, ".") {
		return column
	}
	return m.Table + "." + column
}

// Row gives the row compiler and virtual columns access to raw row values
// by column id.
type Row interface {
	Get(id string) (any, bool)
}

// VirtualFunc computes a virtual column from a row. It returns a plain
// value or a Formatted pair.
type VirtualFunc func(row Row) any

// FormatterFunc formats value; deps are the values of the formatter's
// required columns in declaration order.
type FormatterFunc func(value any, deps ...any) any

// Formatted is a cell carrying both the raw and the display value.
type Formatted struct {
	Value          any
	FormattedValue any
}

// ColumnDefinition describes one report column.
type ColumnDefinition struct {
	ID       string
	Type     ColumnType
	Label    string
	Requires []string
	SQL      *SQLMapping

	// Summable columns are added up when rows are regrouped in memory;
	// other columns keep the first non-nil value of the group.
	Summable bool

	Formatter         FormatterFunc
	FormatterRequires []string

	Virtual VirtualFunc
}

// IsSQL reports whether the column is fetched by SQL.
func (c *ColumnDefinition) IsSQL() bool { return c.SQL != nil }

// IsVirtual reports whether the column is computed from the row.
func (c *ColumnDefinition) IsVirtual() bool { return c.Virtual != nil }

// HasFormatter reports whether a formatter is attached.
func (c *ColumnDefinition) HasFormatter() bool { return c.Formatter != nil }

// DisplayLabel returns the label, falling back to the id.
func (c *ColumnDefinition) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ID
}

// SQLName returns the physical name, or "" for non-SQL columns.
func (c *ColumnDefinition) SQLName() string {
	if c.SQL == nil {
		return ""
	}
	return c.SQL.Name(c.ID)
}

func (c *ColumnDefinition) clone() *ColumnDefinition {
	cp := *c
	cp.Requires = append([]string(nil), c.Requires...)
	cp.FormatterRequires = append([]string(nil), c.FormatterRequires...)
	if c.SQL != nil {
		m := *c.SQL
		cp.SQL = &m
	}
	return &cp
}

// ColumnOptions are the declarable options of a column. Type defaults to
// TypeString.
type ColumnOptions struct {
	Type     ColumnType
	Label    string
	Requires []string
	SQL      *SQLMapping
	Summable bool
}

// TableDefinition describes a joinable table. DependsOn names a table that
// must be joined first.
type TableDefinition struct {
	Name      string
	Join      string
	DependsOn string
}

// TableOptions are the declarable options of a table.
type TableOptions struct {
	Join    string
	Depends string
}
