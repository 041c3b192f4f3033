package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/output"
)

// PlanView is the printable form of an engine plan.
type PlanView struct {
	Query     string   `json:"query"`
	Selection []string `json:"selection"`
	Required  []string `json:"required"`
	Select    string   `json:"select,omitempty"`
	Joins     string   `json:"joins,omitempty"`
	Where     string   `json:"where,omitempty"`
	Args      []any    `json:"args,omitempty"`
	GroupBy   string   `json:"group_by,omitempty"`
	OrderBy   string   `json:"order_by,omitempty"`
	SQL       string   `json:"sql,omitempty"`
	Grouped   bool     `json:"grouped"`
	Ordered   bool     `json:"ordered"`
	Paged     bool     `json:"paged"`
	Unmapped  []string `json:"unmapped,omitempty"`
}

// NewPlanView builds the view of p.
func NewPlanView(p *engine.Plan) PlanView {
	v := PlanView{
		Query:     p.Query,
		Selection: p.Selection,
		Required:  p.Required,
		Select:    p.Fragments.Select,
		Joins:     p.Fragments.Joins,
		Where:     p.Fragments.Where,
		Args:      p.Fragments.Args,
		GroupBy:   p.Fragments.GroupBy,
		OrderBy:   p.Fragments.OrderBy,
		Unmapped:  p.Unmapped,
	}
	if p.Statement != nil {
		v.SQL = p.Statement.SQL
		v.Grouped = p.Statement.Grouped
		v.Ordered = p.Statement.Ordered
		v.Paged = p.Statement.Paged
	}
	return v
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <query>",
		Short: "Compile a query against a schema without running it",
		Long: `Resolve the columns a query needs against the schema and print the
SQL fragments and the full statement that run would execute.

Example:
  reportql plan --schema people.cue "select fullname where company = 'Acme'"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runPlan(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := LoadSchema(opts.SchemaPath())
	if err != nil {
		return formatter.Fail(err)
	}

	eng := engine.New(reg, engine.WithLogger(formatter.Logger()))
	p, err := eng.Plan(query)
	if err != nil {
		return formatter.Fail(err)
	}

	view := NewPlanView(p)
	return formatter.Render(view, func(w io.Writer) error {
		output.WriteKeyValues(w, [2]string{"Part", "Value"}, view.rows())
		return nil
	})
}

func (v PlanView) rows() [][2]string {
	rows := [][2]string{
		{"query", v.Query},
		{"selection", strings.Join(v.Selection, ", ")},
		{"required", strings.Join(v.Required, ", ")},
	}
	add := func(key, value string) {
		if value != "" {
			rows = append(rows, [2]string{key, value})
		}
	}
	add("select", v.Select)
	add("joins", v.Joins)
	add("where", v.Where)
	if len(v.Args) > 0 {
		add("args", fmt.Sprint(v.Args))
	}
	add("group by", v.GroupBy)
	add("order by", v.OrderBy)
	add("sql", v.SQL)
	if v.SQL != "" {
		rows = append(rows,
			[2]string{"grouped", fmt.Sprint(v.Grouped)},
			[2]string{"ordered", fmt.Sprint(v.Ordered)},
			[2]string{"paged", fmt.Sprint(v.Paged)},
		)
	}
	add("unmapped", strings.Join(v.Unmapped, ", "))
	return rows
}
