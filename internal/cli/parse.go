package cli

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reportql/internal/output"
	"github.com/roach88/reportql/internal/queryspec"
)

// SpecView is the printable form of a simplified query.
type SpecView struct {
	Query      string            `json:"query"`
	Select     []string          `json:"select,omitempty"`
	Where      string            `json:"where,omitempty"`
	GroupBy    []string          `json:"group_by,omitempty"`
	OrderBy    string            `json:"order_by,omitempty"`
	Limit      *int              `json:"limit,omitempty"`
	Offset     *int              `json:"offset,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewSpecView builds the view of spec.
func NewSpecView(spec *queryspec.Spec) SpecView {
	v := SpecView{
		Query:   spec.String(),
		Select:  spec.Select,
		Where:   spec.WhereText(),
		GroupBy: spec.GroupBy,
		OrderBy: spec.OrderText(),
		Limit:   spec.Limit,
		Offset:  spec.Offset,
	}
	if attrs := spec.Attributes(); len(attrs) > 0 {
		v.Attributes = attrs
	}
	return v
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its simplified form",
		Long: `Parse query text in the restricted dialect and print the simplified
query: selection, conditions, grouping, ordering and paging.

No schema is needed. Queries outside the dialect (or, not, functions,
several order columns) are rejected with E202.

Example:
  reportql parse "select name where age >= 18 order by name desc limit 10"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	spec, err := queryspec.Parse(query)
	if err != nil {
		return formatter.Fail(err)
	}

	view := NewSpecView(spec)
	return formatter.Render(view, func(w io.Writer) error {
		output.WriteKeyValues(w, [2]string{"Clause", "Value"}, view.rows())
		return nil
	})
}

func (v SpecView) rows() [][2]string {
	rows := [][2]string{{"query", v.Query}}
	if len(v.Select) > 0 {
		rows = append(rows, [2]string{"select", strings.Join(v.Select, ", ")})
	}
	if v.Where != "" {
		rows = append(rows, [2]string{"where", v.Where})
	}
	if len(v.GroupBy) > 0 {
		rows = append(rows, [2]string{"group by", strings.Join(v.GroupBy, ", ")})
	}
	if v.OrderBy != "" {
		rows = append(rows, [2]string{"order by", v.OrderBy})
	}
	if v.Limit != nil {
		rows = append(rows, [2]string{"limit", strconv.Itoa(*v.Limit)})
	}
	if v.Offset != nil {
		rows = append(rows, [2]string{"offset", strconv.Itoa(*v.Offset)})
	}
	for _, key := range slices.Sorted(maps.Keys(v.Attributes)) {
		rows = append(rows, [2]string{"attr " + key, v.Attributes[key]})
	}
	return rows
}
