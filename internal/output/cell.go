package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/reportql/internal/schema"
)

// DateValue renders as the data-table date literal "Date(y, m, d)" with a
// zero-based month. A zero DateValue renders as null.
type DateValue struct {
	Time     time.Time
	WithTime bool
}

// String returns the literal without JSON quoting.
func (d DateValue) String() string {
	t := d.Time
	if d.WithTime {
		return fmt.Sprintf("Date(%d, %d, %d, %d, %d, %d)",
			t.Year(), int(t.Month())-1, t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("Date(%d, %d, %d)", t.Year(), int(t.Month())-1, t.Day())
}

// MarshalJSON implements json.Marshaler.
func (d DateValue) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ConvertCell converts a raw value for a column of type typ. Only the
// minimum needed for a valid data table is done: booleans are reduced to
// their truth value, dates and datetimes become DateValue, times of day
// become [h, m, s, ms]. Values that cannot be converted pass through.
func ConvertCell(v any, typ schema.ColumnType) any {
	switch typ {
	case schema.TypeBoolean:
		return truthy(v)
	case schema.TypeDate, schema.TypeDateTime:
		if v == nil {
			return nil
		}
		t, ok := toTime(v)
		if !ok {
			return v
		}
		return DateValue{Time: t, WithTime: typ == schema.TypeDateTime}
	case schema.TypeTimeOfDay:
		if v == nil {
			return nil
		}
		t, ok := toTime(v)
		if !ok {
			return v
		}
		return []int{t.Hour(), t.Minute(), t.Second(), t.Nanosecond() / int(time.Millisecond)}
	default:
		return v
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
		return b != ""
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	default:
		return true
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if parsed, err := time.Parse("15:04:05", s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
