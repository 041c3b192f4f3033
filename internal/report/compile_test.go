package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reportql/internal/schema"
)

func peopleRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewBuilder().
		Column("firstname", schema.ColumnOptions{SQL: schema.SameName(), Label: "First name"}).
		Column("lastname", schema.ColumnOptions{SQL: schema.SameName()}).
		Column("salary", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName()}).
		Column("currency", schema.ColumnOptions{SQL: schema.SameName()}).
		VirtualColumn("fullname", schema.ColumnOptions{Requires: []string{"firstname", "lastname"}},
			func(row schema.Row) any {
				first, _ := row.Get("firstname")
				last, _ := row.Get("lastname")
				return fmt.Sprintf("%s %s", first, last)
			}).
		VirtualColumn("shout", schema.ColumnOptions{Requires: []string{"lastname"}},
			func(row schema.Row) any {
				last, _ := row.Get("lastname")
				return schema.Formatted{Value: last, FormattedValue: strings.ToUpper(fmt.Sprint(last))}
			}).
		Formatter("salary", func(v any, deps ...any) any {
			return fmt.Sprintf("%v %v", v, deps[0])
		}, "currency").
		Formatter("lastname", func(v any, deps ...any) any {
			return fmt.Sprintf("%v (%v)", v, deps[0])
		}, "fullname").
		Build()
	require.NoError(t, err)
	return reg
}

func TestCompileRow(t *testing.T) {
	reg := peopleRegistry(t)
	row := MapRow{"firstname": "Ada", "lastname": "Lovelace", "salary": 100, "currency": "EUR"}

	got := CompileRow(reg, row, []string{"firstname", "fullname", "salary", "shout", "adhoc"})
	assert.Equal(t, Row{
		"Ada",
		"Ada Lovelace",
		schema.Formatted{Value: 100, FormattedValue: "100 EUR"},
		schema.Formatted{Value: "Lovelace", FormattedValue: "LOVELACE"},
		nil,
	}, got)
}

func TestCompileRow_FormatterDependsOnVirtual(t *testing.T) {
	reg := peopleRegistry(t)
	row := MapRow{"firstname": "Ada", "lastname": "Lovelace"}

	got := CompileRow(reg, row, []string{"lastname"})
	assert.Equal(t, Row{schema.Formatted{Value: "Lovelace", FormattedValue: "Lovelace (Ada Lovelace)"}}, got)
}

func TestCompileRow_StructRows(t *testing.T) {
	type employee struct {
		Firstname string
		Lastname  string
	}
	reg := peopleRegistry(t)
	row, err := Accessor(employee{Firstname: "Grace", Lastname: "Hopper"})
	require.NoError(t, err)

	got := CompileRow(reg, row, []string{"fullname", "firstname"})
	assert.Equal(t, Row{"Grace Hopper", "Grace"}, got)
}

func TestCompile(t *testing.T) {
	reg := peopleRegistry(t)
	rows := []schema.Row{
		MapRow{"firstname": "Ada", "lastname": "Lovelace"},
		MapRow{"firstname": "Grace", "lastname": "Hopper"},
	}

	table := Compile(reg, rows, []string{"firstname", "fullname", "other"})
	assert.Equal(t, []Column{
		{ID: "firstname", Label: "First name", Type: schema.TypeString},
		{ID: "fullname", Label: "fullname", Type: schema.TypeString},
		{ID: "other", Label: "other", Type: schema.TypeString},
	}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Row{"Grace", "Grace Hopper", nil}, table.Rows[1])
}

func TestValue(t *testing.T) {
	reg := peopleRegistry(t)
	row := MapRow{"firstname": "Ada", "lastname": "Lovelace"}

	assert.Equal(t, "Ada Lovelace", Value(reg, row, "fullname"))
	assert.Equal(t, "Ada", Value(reg, row, "firstname"))
	assert.Nil(t, Value(reg, row, "missing"))
}
