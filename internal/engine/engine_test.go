package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/querysql"
	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/schema"
	"github.com/roach88/reportql/internal/tq"
)

type fetcherFunc func(ctx context.Context, stmt *querysql.Statement) ([]schema.Row, error)

func (f fetcherFunc) Fetch(ctx context.Context, stmt *querysql.Statement) ([]schema.Row, error) {
	return f(ctx, stmt)
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewBuilder().
		From("people").
		Table("companies", schema.TableOptions{Join: "JOIN companies ON companies.id = people.company_id"}).
		Column("firstname", schema.ColumnOptions{SQL: schema.SameName()}).
		Column("lastname", schema.ColumnOptions{SQL: schema.SameName()}).
		Column("age", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName()}).
		Column("company", schema.ColumnOptions{SQL: schema.Mapped("companies", "name")}).
		VirtualColumn("fullname", schema.ColumnOptions{Requires: []string{"firstname", "lastname"}},
			func(row schema.Row) any {
				first, _ := row.Get("firstname")
				last, _ := row.Get("lastname")
				return fmt.Sprintf("%v %v", first, last)
			}).
		VirtualColumn("adult", schema.ColumnOptions{Type: schema.TypeBoolean, Requires: []string{"age"}},
			func(row schema.Row) any {
				age, _ := row.Get("age")
				n, _ := age.(int)
				return n >= 18
			}).
		Build()
	require.NoError(t, err)
	return reg
}

func people() Rows {
	return Rows{
		report.MapRow{"firstname": "Ada", "lastname": "Lovelace", "company": "A"},
		report.MapRow{"firstname": "Grace", "lastname": "Hopper", "company": "B"},
		report.MapRow{"firstname": "Alan", "lastname": "Turing", "company": "C"},
	}
}

func TestPlan(t *testing.T) {
	e := New(testRegistry(t))

	p, err := e.Plan("select fullname, company where age >= 18 and adult = 'yes' order by fullname desc limit 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"fullname", "company"}, p.Selection)
	assert.Equal(t, []string{"firstname", "lastname", "fullname", "company"}, p.Required)
	assert.Equal(t, []string{"adult"}, p.Unmapped)
	assert.Equal(t, Fragments{
		Select: "firstname, lastname, companies.name company",
		Joins:  "JOIN companies ON companies.id = people.company_id",
		Where:  "age >= ?",
		Args:   []any{"18"},
	}, p.Fragments)

	require.NotNil(t, p.Statement)
	assert.Equal(t,
		"SELECT firstname, lastname, companies.name company FROM people"+
			" JOIN companies ON companies.id = people.company_id WHERE age >= ?",
		p.Statement.SQL)
	assert.False(t, p.Statement.Ordered)
	assert.False(t, p.Statement.Paged)
}

func TestPlan_Errors(t *testing.T) {
	reg := testRegistry(t)
	cyclic, err := schema.NewBuilder().
		VirtualColumn("a", schema.ColumnOptions{Requires: []string{"b"}}, func(schema.Row) any { return nil }).
		VirtualColumn("b", schema.ColumnOptions{Requires: []string{"a"}}, func(schema.Row) any { return nil }).
		Build()
	require.NoError(t, err)

	tests := []struct {
		name  string
		reg   *schema.Registry
		query string
		check func(error) bool
	}{
		{"syntax", reg, "select a limit x", tq.IsSyntaxError},
		{"or", reg, "select a where a = 1 or b = 2", queryspec.IsUnsupportedQuery},
		{"two orderings", reg, "select a order by a, b", queryspec.IsUnsupportedQuery},
		{"cycle", cyclic, "select a", resolve.IsCircularDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.reg).Plan(tt.query)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestExecute_InMemoryOrdering(t *testing.T) {
	e := New(testRegistry(t), WithFetcher(people()), WithRequestIDs(NewFixedGenerator("req-1")))

	res, err := e.Run(context.Background(), "select fullname, company order by fullname desc limit 2")
	require.NoError(t, err)

	assert.Equal(t, "req-1", res.RequestID)
	assert.Equal(t, []report.Row{
		{"Grace Hopper", "B"},
		{"Alan Turing", "C"},
	}, res.Table.Rows)
	assert.Equal(t, "fullname", res.Table.Columns[0].ID)
}

func TestExecute_InMemoryGrouping(t *testing.T) {
	reg, err := schema.NewBuilder().
		From("sales").
		Column("region", schema.ColumnOptions{SQL: schema.SameName()}).
		Column("year", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName()}).
		Column("amount", schema.ColumnOptions{Type: schema.TypeNumber, SQL: schema.SameName(), Summable: true}).
		VirtualColumn("decade", schema.ColumnOptions{Type: schema.TypeNumber, Requires: []string{"year"}},
			func(row schema.Row) any {
				year, _ := row.Get("year")
				n, _ := year.(int)
				return n / 10 * 10
			}).
		Build()
	require.NoError(t, err)

	var got *querysql.Statement
	rows := Rows{
		report.MapRow{"region": "north", "year": 2011, "amount": 1.5},
		report.MapRow{"region": "south", "year": 1999, "amount": 4.0},
		report.MapRow{"region": "east", "year": 2015, "amount": 3.5},
		report.MapRow{"region": "west", "year": 1990, "amount": 0.5},
		report.MapRow{"region": "north", "year": 2020, "amount": 1.0},
	}
	fetch := fetcherFunc(func(ctx context.Context, stmt *querysql.Statement) ([]schema.Row, error) {
		got = stmt
		return rows.Fetch(ctx, stmt)
	})
	e := New(reg, WithFetcher(fetch))

	res, err := e.Run(context.Background(), "select decade, amount group by decade order by amount desc limit 2")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "SELECT year, amount FROM sales", got.SQL)
	assert.Empty(t, got.Args)
	assert.False(t, got.Grouped)
	assert.False(t, got.Paged)

	assert.Equal(t, []report.Row{
		{2010, 6.0},
		{1990, 4.5},
	}, res.Table.Rows)
}

func TestExecute_TrustsSQLOrdering(t *testing.T) {
	var got *querysql.Statement
	fetch := fetcherFunc(func(ctx context.Context, stmt *querysql.Statement) ([]schema.Row, error) {
		got = stmt
		return people().Fetch(ctx, stmt)
	})
	e := New(testRegistry(t), WithFetcher(fetch), WithRequestIDs(NewFixedGenerator("r")))

	res, err := e.Run(context.Background(), "select firstname order by lastname limit 1")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "SELECT firstname, lastname FROM people ORDER BY lastname ASC LIMIT ?", got.SQL)
	assert.Equal(t, []any{1}, got.Args)
	assert.Len(t, res.Table.Rows, 3, "rows already ordered and paged by SQL are kept as fetched")
}

func TestExecute_Errors(t *testing.T) {
	reg := testRegistry(t)
	boom := errors.New("boom")

	t.Run("no fetcher", func(t *testing.T) {
		e := New(reg, WithRequestIDs(NewFixedGenerator("r")))
		_, err := e.Run(context.Background(), "select firstname")

		var ee *ExecError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, ErrCodeNoFetcher, ee.Code)
		assert.Equal(t, "r", ee.RequestID)
	})

	t.Run("no base table", func(t *testing.T) {
		bare, err := schema.NewBuilder().Column("a", schema.ColumnOptions{SQL: schema.SameName()}).Build()
		require.NoError(t, err)
		e := New(bare, WithFetcher(Rows{}), WithRequestIDs(NewFixedGenerator("r")))

		p, err := e.Plan("select a")
		require.NoError(t, err)
		assert.Nil(t, p.Statement)
		assert.Equal(t, "a", p.Fragments.Select)

		_, err = e.Execute(context.Background(), p)
		var ee *ExecError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, ErrCodeNoStatement, ee.Code)
	})

	t.Run("fetch failed", func(t *testing.T) {
		fetch := fetcherFunc(func(context.Context, *querysql.Statement) ([]schema.Row, error) {
			return nil, boom
		})
		e := New(reg, WithFetcher(fetch), WithRequestIDs(NewFixedGenerator("r")))
		_, err := e.Run(context.Background(), "select firstname")

		assert.True(t, IsFetchError(err))
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "req=r")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := New(reg, WithFetcher(people()), WithRequestIDs(NewFixedGenerator("r")))
		_, err := e.Run(ctx, "select firstname")

		assert.True(t, IsFetchError(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExecute_LogsUnmappedConditions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(testRegistry(t),
		WithFetcher(people()),
		WithRequestIDs(NewFixedGenerator("req-7")),
		WithLogger(logger),
	)

	res, err := e.Run(context.Background(), "select firstname where adult = 'true'")
	require.NoError(t, err)
	assert.Equal(t, []string{"condition on adult was not applied: column has no SQL mapping"}, res.Warnings())

	out := buf.String()
	assert.Contains(t, out, "condition on non-sql column not applied")
	assert.Contains(t, out, "column=adult")
	assert.Contains(t, out, "req_id=req-7")
	assert.Contains(t, out, "query planned")
}

func TestExecute_Aliases(t *testing.T) {
	var got *querysql.Statement
	fetch := fetcherFunc(func(_ context.Context, stmt *querysql.Statement) ([]schema.Row, error) {
		got = stmt
		return nil, nil
	})
	e := New(testRegistry(t),
		WithFetcher(fetch),
		WithRequestIDs(NewFixedGenerator("r")),
		WithAliases(querysql.Aliases{"company": "upper(companies.name)"}),
	)

	res, err := e.Run(context.Background(), "select company")
	require.NoError(t, err)
	assert.Equal(t, "SELECT upper(companies.name) company FROM people JOIN companies ON companies.id = people.company_id", got.SQL)
	assert.Empty(t, res.Table.Rows)
}
