package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/reportql/internal/schema"
)

// Sort orders rows by the value of column id, stably. It is used when the
// ordering column is computed and SQL could not order by it. Nil sorts
// first in ascending order.
func Sort(reg *schema.Registry, rows []schema.Row, id string, desc bool) {
	type keyed struct {
		row schema.Row
		key any
	}
	items := make([]keyed, len(rows))
	for i, row := range rows {
		items[i] = keyed{row: row, key: sortKey(Value(reg, row, id))}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		c := compareValues(a.key, b.key)
		if desc {
			return -c
		}
		return c
	})
	for i, it := range items {
		rows[i] = it.row
	}
}

// Page applies offset and limit to rows. Nil means unset.
func Page[T any](rows []T, limit, offset *int) []T {
	if offset != nil {
		if *offset >= len(rows) {
			return rows[:0]
		}
		rows = rows[*offset:]
	}
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

func sortKey(v any) any {
	if f, ok := v.(schema.Formatted); ok {
		v = f.Value
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// compareValues orders nil < bool < numbers < times < everything else,
// comparing within a class by value and falling back to the printed form.
func compareValues(a, b any) int {
	ca, cb := class(a), class(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	switch ca {
	case 0:
		return 0
	case 1:
		return cmp.Compare(boolInt(a.(bool)), boolInt(b.(bool)))
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case 3:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func class(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 2
	case time.Time:
		return 3
	default:
		return 4
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
