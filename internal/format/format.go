// Package format provides the built-in cell formatters that schema files
// can select by name.
package format

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Func formats a raw cell value. deps are the values of the columns the
// formatter declared as requirements, in declaration order.
type Func = func(value any, deps ...any) any

// Names of the built-in formatters.
const (
	NameNumber  = "number"
	NameInteger = "integer"
	NamePercent = "percent"
)

// Lookup returns the built-in formatter called name, rendered for English.
func Lookup(name string) (Func, bool) {
	switch name {
	case NameNumber:
		return Number(language.English, 2), true
	case NameInteger:
		return Number(language.English, 0), true
	case NamePercent:
		return Percent(language.English, 1), true
	default:
		return nil, false
	}
}

// Names lists the built-in formatter names.
func Names() []string {
	return []string{NameInteger, NameNumber, NamePercent}
}

// Number renders numeric values with grouping separators and at most
// decimals fraction digits. Values that are not numbers are rendered as-is.
func Number(tag language.Tag, decimals int) Func {
	p := message.NewPrinter(tag)
	return func(value any, _ ...any) any {
		f, ok := toFloat(value)
		if !ok {
			return plain(value)
		}
		return p.Sprint(number.Decimal(f, number.MaxFractionDigits(decimals)))
	}
}

// Percent renders a ratio (0.25) as a percentage ("25%").
func Percent(tag language.Tag, decimals int) Func {
	p := message.NewPrinter(tag)
	return func(value any, _ ...any) any {
		f, ok := toFloat(value)
		if !ok {
			return plain(value)
		}
		return p.Sprint(number.Percent(f, number.MaxFractionDigits(decimals)))
	}
}

func plain(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// toFloat converts the numeric kinds a row may carry, including numeric
// strings as returned by some drivers.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
