package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
)

// WriteCSV writes t as CSV. The header holds the column labels, falling
// back to the id and then the type; formatted cells are written as their
// raw value.
func WriteCSV(w io.Writer, t *report.Table) error {
	csvWriter := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		switch {
		case c.Label != "":
			header[i] = c.Label
		case c.ID != "":
			header[i] = c.ID
		default:
			header[i] = string(c.Type)
		}
	}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			if f, ok := v.(schema.Formatted); ok {
				v = f.Value
			}
			record[i] = cellText(v, columnType(t, i))
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func columnType(t *report.Table, i int) schema.ColumnType {
	if i < len(t.Columns) {
		return t.Columns[i].Type
	}
	return schema.TypeString
}

// cellText renders a raw value as plain text. Times use the layout of the
// column type.
func cellText(v any, typ schema.ColumnType) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		switch typ {
		case schema.TypeDate:
			return val.Format(time.DateOnly)
		case schema.TypeDateTime:
			return val.Format(time.DateTime)
		case schema.TypeTimeOfDay:
			return val.Format(time.TimeOnly)
		default:
			return val.Format(time.RFC3339)
		}
	default:
		return fmt.Sprintf("%v", val)
	}
}
