package schema

import (
	"fmt"
	"slices"
)

// Builder collects column and table declarations. It is the write phase of
// a schema: declare everything, then call Build once and share the
// resulting Registry. A Builder is not safe for concurrent use.
type Builder struct {
	base       string
	order      []string
	columns    map[string]*ColumnDefinition
	tableOrder []string
	tables     map[string]*TableDefinition

	formatterOrder []string
	formatters     map[string]pendingFormatter
}

type pendingFormatter struct {
	fn       FormatterFunc
	requires []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		columns:    make(map[string]*ColumnDefinition),
		tables:     make(map[string]*TableDefinition),
		formatters: make(map[string]pendingFormatter),
	}
}

// From sets the base table. Columns mapped to it need no join.
func (b *Builder) From(base string) *Builder {
	b.base = base
	return b
}

// Column declares a column. Re-declaring an id replaces its definition but
// keeps its original position.
func (b *Builder) Column(id string, opts ColumnOptions) *Builder {
	b.put(&ColumnDefinition{
		ID:       id,
		Type:     opts.Type,
		Label:    opts.Label,
		Requires: append([]string(nil), opts.Requires...),
		SQL:      opts.SQL,
		Summable: opts.Summable,
	})
	return b
}

// VirtualColumn declares a column computed by fn from the row.
func (b *Builder) VirtualColumn(id string, opts ColumnOptions, fn VirtualFunc) *Builder {
	b.put(&ColumnDefinition{
		ID:       id,
		Type:     opts.Type,
		Label:    opts.Label,
		Requires: append([]string(nil), opts.Requires...),
		SQL:      opts.SQL,
		Virtual:  fn,
	})
	return b
}

// Formatter attaches fn to column id. The required columns are added to the
// column's requirements and their values are passed to fn.
func (b *Builder) Formatter(id string, fn FormatterFunc, requires ...string) *Builder {
	if _, ok := b.formatters[id]; !ok {
		b.formatterOrder = append(b.formatterOrder, id)
	}
	b.formatters[id] = pendingFormatter{fn: fn, requires: append([]string(nil), requires...)}
	return b
}

// Table declares a joinable table.
func (b *Builder) Table(name string, opts TableOptions) *Builder {
	if _, ok := b.tables[name]; !ok {
		b.tableOrder = append(b.tableOrder, name)
	}
	b.tables[name] = &TableDefinition{Name: name, Join: opts.Join, DependsOn: opts.Depends}
	return b
}

func (b *Builder) put(col *ColumnDefinition) {
	if _, ok := b.columns[col.ID]; !ok {
		b.order = append(b.order, col.ID)
	}
	b.columns[col.ID] = col
}

// Build validates the declarations and returns the immutable Registry.
// Later changes to the Builder do not affect the returned Registry.
func (b *Builder) Build() (*Registry, error) {
	reg := &Registry{
		base:       b.base,
		order:      append([]string(nil), b.order...),
		columns:    make(map[string]*ColumnDefinition, len(b.columns)),
		tableOrder: append([]string(nil), b.tableOrder...),
		tables:     make(map[string]*TableDefinition, len(b.tables)),
	}
	for name, t := range b.tables {
		cp := *t
		reg.tables[name] = &cp
	}
	for id, c := range b.columns {
		reg.columns[id] = c.clone()
	}

	for _, id := range b.formatterOrder {
		f := b.formatters[id]
		col, ok := reg.columns[id]
		if !ok {
			return nil, &ConfigurationError{
				Subject: "formatter." + id,
				Message: "formatter for undeclared column",
			}
		}
		if f.fn == nil {
			return nil, &ConfigurationError{Subject: "formatter." + id, Message: "formatter function is nil"}
		}
		col.Formatter = f.fn
		col.FormatterRequires = f.requires
		col.Requires = appendUnique(col.Requires, f.requires...)
	}

	for _, name := range reg.tableOrder {
		if err := reg.checkTable(name); err != nil {
			return nil, err
		}
	}
	for _, id := range reg.order {
		if err := reg.checkColumn(reg.columns[id]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Registry is the read-only schema. It is safe for concurrent use; the
// definitions it returns must not be modified.
type Registry struct {
	base       string
	order      []string
	columns    map[string]*ColumnDefinition
	tableOrder []string
	tables     map[string]*TableDefinition
}

// Base returns the base table name, or "".
func (r *Registry) Base() string { return r.base }

// Len returns the number of columns.
func (r *Registry) Len() int { return len(r.order) }

// Column looks up a column by id.
func (r *Registry) Column(id string) (*ColumnDefinition, bool) {
	c, ok := r.columns[id]
	return c, ok
}

// Columns returns all columns in declaration order.
func (r *Registry) Columns() []*ColumnDefinition {
	cols := make([]*ColumnDefinition, len(r.order))
	for i, id := range r.order {
		cols[i] = r.columns[id]
	}
	return cols
}

// ColumnIDs returns all column ids in declaration order.
func (r *Registry) ColumnIDs() []string {
	return append([]string(nil), r.order...)
}

// Table looks up a table by name.
func (r *Registry) Table(name string) (*TableDefinition, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Tables returns all tables in declaration order.
func (r *Registry) Tables() []*TableDefinition {
	tables := make([]*TableDefinition, len(r.tableOrder))
	for i, name := range r.tableOrder {
		tables[i] = r.tables[name]
	}
	return tables
}

// IsSQLColumn reports whether id is a registered column with a SQL mapping.
func (r *Registry) IsSQLColumn(id string) bool {
	c, ok := r.columns[id]
	return ok && c.IsSQL()
}

// SQLColumns returns the ids of all SQL columns in declaration order.
func (r *Registry) SQLColumns() []string {
	var ids []string
	for _, id := range r.order {
		if r.columns[id].IsSQL() {
			ids = append(ids, id)
		}
	}
	return ids
}

// JoinChain returns the tables to join for name, the outermost dependency
// first and name last. Build has already rejected broken chains, so an
// error here means name itself is unknown.
func (r *Registry) JoinChain(name string) ([]*TableDefinition, error) {
	var chain []*TableDefinition
	seen := make(map[string]bool)
	for cur := name; cur != ""; {
		t, ok := r.tables[cur]
		if !ok {
			if cur == name {
				return nil, tableError(name, "table is not defined")
			}
			return nil, tableError(name, "depends on undefined table %q", cur)
		}
		if seen[cur] {
			return nil, tableError(name, "circular table dependency through %q", cur)
		}
		seen[cur] = true
		chain = append(chain, t)
		cur = t.DependsOn
	}
	slices.Reverse(chain)
	return chain, nil
}

func (r *Registry) checkTable(name string) error {
	t := r.tables[name]
	if t.Join == "" {
		return tableError(name, "join clause is required")
	}
	_, err := r.JoinChain(name)
	return err
}

func (r *Registry) checkColumn(c *ColumnDefinition) error {
	if c.Type == "" {
		c.Type = TypeString
	}
	if !c.Type.Valid() {
		return columnError(c.ID, "invalid type %q (valid: %v)", c.Type, ColumnTypes)
	}
	if c.Summable && c.Type != TypeNumber {
		return columnError(c.ID, "summable column must have type %q", TypeNumber)
	}
	if c.SQL == nil {
		return nil
	}
	if c.IsVirtual() {
		return columnError(c.ID, "virtual column cannot have a sql mapping")
	}
	if t := c.SQL.Table; t != "" && t != r.base {
		if _, ok := r.tables[t]; !ok {
			return columnError(c.ID, "sql mapping references undefined table %q", t)
		}
	}
	return nil
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

// String summarizes the registry for logs.
func (r *Registry) String() string {
	return fmt.Sprintf("schema(base=%q, columns=%d, tables=%d)", r.base, len(r.order), len(r.tableOrder))
}
