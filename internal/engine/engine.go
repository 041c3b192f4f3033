package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/querysql"
	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/schema"
)

// Fetcher loads the rows a statement selects. Rows must expose every
// selected column under its column id. internal/store provides the SQLite
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, stmt *querysql.Statement) ([]schema.Row, error)
}

// Rows is a Fetcher over rows already in memory. It ignores the statement.
type Rows []schema.Row

// Fetch returns a copy of r.
func (r Rows) Fetch(ctx context.Context, _ *querysql.Statement) ([]schema.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]schema.Row(nil), r...), nil
}

// Fragments are the SQL pieces of a plan. Empty strings mean the piece
// does not apply.
type Fragments struct {
	Select  string
	Joins   string
	Where   string
	Args    []any
	GroupBy string
	OrderBy string
}

// Plan is everything known about a query before any row is fetched.
type Plan struct {
	Query     string
	Spec      *queryspec.Spec
	Selection []string // output columns, wildcard expanded
	Required  []string // columns to fetch or compute, dependencies first
	Fragments Fragments
	Statement *querysql.Statement // nil when the schema has no base table
	Unmapped  []string            // condition columns SQL cannot filter on
}

// Result is an executed query.
type Result struct {
	RequestID string
	Plan      *Plan
	Table     *report.Table
}

// Warnings describes the parts of the query that were not applied.
func (r *Result) Warnings() []string {
	if r.Plan == nil {
		return nil
	}
	var out []string
	for _, col := range r.Plan.Unmapped {
		out = append(out, fmt.Sprintf("condition on %s was not applied: column has no SQL mapping", col))
	}
	return out
}

// Engine plans and executes queries against one registry.
type Engine struct {
	reg     *schema.Registry
	sql     *querysql.Compiler
	fetcher Fetcher
	ids     RequestIDGenerator
	aliases querysql.Aliases
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the data source used by Execute.
func WithFetcher(f Fetcher) Option {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithRequestIDs sets the request id generator. Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithAliases overrides physical column names in generated SQL.
func WithAliases(a querysql.Aliases) Option {
	return func(e *Engine) {
		e.aliases = a
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New returns an Engine for reg.
func New(reg *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		sql:    querysql.NewCompiler(reg),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *schema.Registry {
	return e.reg
}

// Plan parses query and plans it. Errors are the parser's, simplifier's
// and resolver's own error types, unwrapped.
func (e *Engine) Plan(query string) (*Plan, error) {
	spec, err := queryspec.Parse(query)
	if err != nil {
		return nil, err
	}
	p, err := e.PlanSpec(spec)
	if err != nil {
		return nil, err
	}
	p.Query = query
	return p, nil
}

// PlanSpec plans an already simplified spec. The order column is resolved
// along with the selection so rows can be sorted in memory when SQL cannot
// order by it.
func (e *Engine) PlanSpec(spec *queryspec.Spec) (*Plan, error) {
	var extra []string
	if spec.OrderBy != nil {
		extra = append(extra, spec.OrderBy.Column)
	}
	required, err := resolve.Resolve(e.reg, spec, extra...)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Query:     spec.String(),
		Spec:      spec,
		Selection: resolve.ExpandSelection(e.reg, spec.Select),
		Required:  required,
		Unmapped:  e.sql.UnmappedConditions(spec),
	}
	p.Fragments.Select = e.sql.Select(required, e.aliases)
	p.Fragments.Joins = e.sql.Joins(required, spec.ConditionColumns()...)
	p.Fragments.Where, p.Fragments.Args, _ = e.sql.Where(spec, e.aliases)
	p.Fragments.GroupBy, _ = e.sql.GroupBy(spec.GroupBy, e.aliases)
	p.Fragments.OrderBy, _ = e.sql.OrderBy(spec, e.aliases)

	stmt, err := e.sql.Compile(spec, required, e.aliases)
	switch {
	case errors.Is(err, querysql.ErrNoBaseTable):
	case err != nil:
		return nil, err
	default:
		p.Statement = stmt
	}

	e.logger.Debug("query planned",
		"query", p.Query,
		"required", p.Required,
		"unmapped", p.Unmapped,
		"has_statement", p.Statement != nil,
	)
	return p, nil
}

// Execute fetches and compiles the rows of p.
func (e *Engine) Execute(ctx context.Context, p *Plan) (*Result, error) {
	reqID := e.ids.Generate()
	log := e.logger.With("req_id", reqID)

	if e.fetcher == nil {
		return nil, &ExecError{Code: ErrCodeNoFetcher, Message: "engine has no data source", RequestID: reqID}
	}
	if p.Statement == nil {
		return nil, &ExecError{Code: ErrCodeNoStatement, Message: "schema declares no base table", RequestID: reqID}
	}
	for _, col := range p.Unmapped {
		log.Warn("condition on non-sql column not applied", "column", col)
	}

	log.Debug("fetching", "sql", p.Statement.SQL, "args", p.Statement.Args)
	rows, err := e.fetcher.Fetch(ctx, p.Statement)
	if err != nil {
		return nil, &ExecError{Code: ErrCodeFetchFailed, Message: "fetch rows", RequestID: reqID, Err: err}
	}

	spec := p.Spec
	if !p.Statement.Grouped {
		before := len(rows)
		rows = report.Regroup(e.reg, rows, spec.GroupBy, p.Required)
		log.Debug("regrouped in memory", "group_by", spec.GroupBy, "rows", before, "groups", len(rows))
	}
	if !p.Statement.Ordered && spec.OrderBy != nil {
		report.Sort(e.reg, rows, spec.OrderBy.Column, spec.OrderBy.Direction == queryspec.Desc)
	}
	if !p.Statement.Paged {
		rows = report.Page(rows, spec.Limit, spec.Offset)
	}

	table := report.Compile(e.reg, rows, p.Selection)
	log.Debug("query executed", "rows", len(table.Rows), "columns", len(table.Columns))
	return &Result{RequestID: reqID, Plan: p, Table: table}, nil
}

// Run plans and executes query.
func (e *Engine) Run(ctx context.Context, query string) (*Result, error) {
	p, err := e.Plan(query)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, p)
}
