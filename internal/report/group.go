package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/reportql/internal/schema"
)

// groupKeySep joins the key values of a group; it cannot appear in
// printed values of ordinary data.
const groupKeySep = "\x1f"

// Regroup collapses rows that share the values of keys into one row per
// group, in order of first appearance. Keys may be virtual columns.
//
// The collapsed row holds every column in fields: summable columns are the
// sum of the group's values (nil counts as zero), other columns keep the
// first non-nil value. It is used when SQL could not group because a key
// is computed.
func Regroup(reg *schema.Registry, rows []schema.Row, keys, fields []string) []schema.Row {
	var order []string
	groups := make(map[string]MapRow)
	for _, row := range rows {
		key := groupKey(reg, row, keys)
		acc, ok := groups[key]
		if !ok {
			acc = make(MapRow, len(fields))
			groups[key] = acc
			order = append(order, key)
		}
		for _, id := range fields {
			v, _ := row.Get(id)
			if c, ok := reg.Column(id); ok && c.Summable {
				acc[id] = addValues(acc[id], v)
				continue
			}
			if cur, seen := acc[id]; !seen || cur == nil {
				acc[id] = v
			}
		}
	}

	out := make([]schema.Row, len(order))
	for i, key := range order {
		out[i] = groups[key]
	}
	return out
}

// Collapse sums all rows into one. It returns nil for no rows.
func Collapse(reg *schema.Registry, rows []schema.Row, fields []string) schema.Row {
	grouped := Regroup(reg, rows, nil, fields)
	if len(grouped) == 0 {
		return nil
	}
	return grouped[0]
}

func groupKey(reg *schema.Registry, row schema.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, id := range keys {
		v := sortKey(Value(reg, row, id))
		if v != nil {
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, groupKeySep)
}

// addValues adds two cells. Integers stay int64 while both sides are
// integers; text is parsed as a number and anything unparsable counts as
// zero.
func addValues(a, b any) any {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt {
		return ai + bi
	}
	return numeric(a) + numeric(b)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func numeric(v any) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case []byte:
		s = string(n)
	default:
		return 0
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
