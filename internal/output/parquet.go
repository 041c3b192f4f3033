package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
)

// WriteParquet writes t as a parquet file with one optional field per
// column, named by column id. Numbers are doubles, booleans are booleans
// and every other type is text as CSV writes it. Formatted cells are
// written as their raw value; nil cells are null.
//
// Parquet groups order their fields by name, so the field order of the file
// is not the column order of t.
func WriteParquet(w io.Writer, t *report.Table) error {
	names := parquetNames(t)

	group := make(parquet.Group, len(t.Columns))
	for i, c := range t.Columns {
		group[names[i]] = parquetNode(c.Type)
	}

	writer := parquet.NewGenericWriter[map[string]any](w, &parquet.WriterConfig{
		Schema: parquet.NewSchema("report", group),
	})

	records := make([]map[string]any, len(t.Rows))
	for r, row := range t.Rows {
		record := make(map[string]any, len(names))
		for i, name := range names {
			var v any
			if i < len(row) {
				v = row[i]
			}
			record[name] = parquetValue(v, t.Columns[i].Type)
		}
		records[r] = record
	}

	if len(records) > 0 {
		if _, err := writer.Write(records); err != nil {
			_ = writer.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// parquetNames returns the field name of every column: its id, or
// "column_<n>" for columns without one.
func parquetNames(t *report.Table) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.ID
		if names[i] == "" {
			names[i] = "column_" + strconv.Itoa(i)
		}
	}
	return names
}

func parquetNode(typ schema.ColumnType) parquet.Node {
	switch typ {
	case schema.TypeNumber:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case schema.TypeBoolean:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// parquetValue converts a cell to the Go type its field expects. Values a
// number column cannot hold are null.
func parquetValue(v any, typ schema.ColumnType) any {
	if f, ok := v.(schema.Formatted); ok {
		v = f.Value
	}
	if v == nil {
		return nil
	}
	switch typ {
	case schema.TypeNumber:
		f, ok := toFloat64(v)
		if !ok {
			return nil
		}
		return f
	case schema.TypeBoolean:
		return truthy(v)
	default:
		return cellText(v, typ)
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
