package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
)

// WriteText renders t as an aligned text table for terminals. Formatted
// cells show their formatted value.
func WriteText(w io.Writer, t *report.Table) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	table.SetHeader(header)

	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			if f, ok := v.(schema.Formatted); ok {
				record[i] = fmt.Sprint(f.FormattedValue)
				continue
			}
			record[i] = cellText(v, columnType(t, i))
		}
		table.Append(record)
	}
	table.Render()
}

// WriteKeyValues renders two-column key/value tables, used for plans and
// validation summaries.
func WriteKeyValues(w io.Writer, header [2]string, rows [][2]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header[:])
	for _, r := range rows {
		table.Append(r[:])
	}
	table.Render()
}
