package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/schema"
)

func testCompiler(t *testing.T) *Compiler {
	t.Helper()
	reg, err := schema.NewBuilder().
		From("people").
		Table("companies", schema.TableOptions{Join: "JOIN companies"}).
		Table("buildings", schema.TableOptions{Join: "JOIN buildings", Depends: "companies"}).
		Table("floors", schema.TableOptions{Join: "JOIN floors", Depends: "buildings"}).
		Column("id", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName()}).
		Column("name", schema.ColumnOptions{SQL: schema.Mapped("people", "name")}).
		Column("age", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.Mapped("", "age_years")}).
		Column("company", schema.ColumnOptions{SQL: schema.Mapped("companies", "name")}).
		Column("building", schema.ColumnOptions{SQL: schema.Mapped("buildings", "name")}).
		Column("floor", schema.ColumnOptions{SQL: schema.Mapped("floors", "number")}).
		Column("fullname", schema.ColumnOptions{Requires: []string{"name"}}).
		Build()
	require.NoError(t, err)
	return NewCompiler(reg)
}

func mustSpec(t *testing.T, query string) *queryspec.Spec {
	t.Helper()
	spec, err := queryspec.Parse(query)
	require.NoError(t, err)
	return spec
}

func TestColumnName(t *testing.T) {
	c := testCompiler(t)

	tests := []struct {
		id      string
		aliases Aliases
		want    string
		ok      bool
	}{
		{"id", nil, "id", true},
		{"name", nil, "people.name", true},
		{"age", nil, "age_years", true},
		{"company", nil, "companies.name", true},
		{"company", Aliases{"company": "c.title"}, "c.title", true},
		{"fullname", nil, "", false},
		{"unknown", nil, "", false},
		{"fullname", Aliases{"fullname": "x"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := c.ColumnName(tt.id, tt.aliases)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect(t *testing.T) {
	c := testCompiler(t)

	assert.Equal(t, "id, people.name name, age_years age, companies.name company",
		c.Select([]string{"id", "name", "fullname", "age", "company", "name"}, nil))
	assert.Equal(t, "n.full name, id",
		c.Select([]string{"name", "id"}, Aliases{"name": "n.full"}))
	assert.Equal(t, "", c.Select([]string{"fullname"}, nil))
}

func TestSelect_DottedID(t *testing.T) {
	reg, err := schema.NewBuilder().
		From("people").
		Table("companies", schema.TableOptions{Join: "JOIN companies"}).
		Column("people.name", schema.ColumnOptions{SQL: schema.SameName()}).
		Column("companies.name", schema.ColumnOptions{SQL: schema.Mapped("companies", "name")}).
		Column("total sales", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.Mapped("", "total")}).
		Column("id", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName()}).
		Build()
	require.NoError(t, err)
	c := NewCompiler(reg)

	assert.Equal(t, `people.name "people.name", companies.name "companies.name", total "total sales", id`,
		c.Select([]string{"people.name", "companies.name", "total sales", "id"}, nil))

	got, ok := c.GroupBy([]string{"people.name"}, nil)
	require.True(t, ok)
	assert.Equal(t, "people.name", got)
}

func TestQuoteAlias(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"name", "name"},
		{"_x1", "_x1"},
		{"1x", `"1x"`},
		{"a.b", `"a.b"`},
		{`say "hi"`, `"say ""hi"""`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteAlias(tt.id))
		})
	}
}

func TestGroupBy(t *testing.T) {
	c := testCompiler(t)

	got, ok := c.GroupBy([]string{"company", "fullname", "age"}, nil)
	require.True(t, ok)
	assert.Equal(t, "companies.name, age_years", got)

	_, ok = c.GroupBy([]string{"fullname"}, nil)
	assert.False(t, ok, "no SQL column means no group by")

	_, ok = c.GroupBy(nil, nil)
	assert.False(t, ok)
}

func TestOrderBy(t *testing.T) {
	c := testCompiler(t)

	got, ok := c.OrderBy(mustSpec(t, "order by company desc"), nil)
	require.True(t, ok)
	assert.Equal(t, "companies.name DESC", got)

	got, ok = c.OrderBy(mustSpec(t, "order by age"), Aliases{"age": "years"})
	require.True(t, ok)
	assert.Equal(t, "years ASC", got)

	_, ok = c.OrderBy(mustSpec(t, "select id"), nil)
	assert.False(t, ok)

	_, ok = c.OrderBy(mustSpec(t, "order by fullname"), nil)
	assert.False(t, ok)
}

func TestJoins(t *testing.T) {
	c := testCompiler(t)

	tests := []struct {
		name    string
		columns []string
		used    []string
		want    string
	}{
		{"dependency first", []string{"building", "company"}, nil, "JOIN companies JOIN buildings"},
		{"single table", []string{"company"}, nil, "JOIN companies"},
		{"deep chain", []string{"floor"}, nil, "JOIN companies JOIN buildings JOIN floors"},
		{"base table needs no join", []string{"id", "name", "age"}, nil, ""},
		{"non-sql columns skipped", []string{"fullname", "unknown"}, nil, ""},
		{"used columns", []string{"id"}, []string{"building"}, "JOIN companies JOIN buildings"},
		{"dedupe across chains", []string{"company", "floor", "building"}, nil, "JOIN companies JOIN buildings JOIN floors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Joins(tt.columns, tt.used...))
		})
	}
}

func TestWhere(t *testing.T) {
	c := testCompiler(t)
	spec := mustSpec(t, "where age >= 18 and age < '65' and company = 'Acme' and fullname = 'x' and id in (1, 2, 3)")

	where, args, ok := c.Where(spec, nil)
	require.True(t, ok)
	assert.Equal(t, "age_years >= ? AND age_years < ? AND companies.name = ? AND id IN (?, ?, ?)", where)
	assert.Equal(t, []any{"18", "65", "Acme", "1", "2", "3"}, args)
	assert.NotContains(t, where, "Acme", "values are parameters")

	assert.Equal(t, []string{"fullname"}, c.UnmappedConditions(spec))

	_, _, ok = c.Where(mustSpec(t, "where fullname = 'x'"), nil)
	assert.False(t, ok)
}
