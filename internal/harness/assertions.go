package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/reportql/internal/output"
	"github.com/roach88/reportql/internal/report"
)

// AssertionError is a mismatch between an expect clause and what a step
// produced.
type AssertionError struct {
	Field    string // expect field, e.g. "where" or "rows"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// CheckExpect compares a step result with its expect clause and returns
// one message per mismatch. A nil clause only requires success.
func CheckExpect(sr StepResult, exp *ExpectClause) []string {
	if exp == nil {
		if sr.Err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", sr.Err)}
		}
		return nil
	}

	if exp.Error != "" {
		if sr.Err == nil {
			return []string{mismatch("error", exp.Error+" error", "query succeeded")}
		}
		if kind := ErrorKind(sr.Err); kind != exp.Error {
			return []string{mismatch("error", exp.Error+" error", fmt.Sprintf("%s error: %v", kind, sr.Err))}
		}
		return nil
	}
	if sr.Err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", sr.Err)}
	}

	var errs []string
	check := func(field string, want, got any) {
		if !reflect.DeepEqual(want, got) {
			errs = append(errs, mismatch(field, fmt.Sprintf("%v", want), fmt.Sprintf("%v", got)))
		}
	}

	// nil means unchecked; an empty list expects none.
	checkStrings := func(field string, want, got []string) {
		if want != nil && !slices.Equal(want, got) {
			errs = append(errs, mismatch(field, fmt.Sprintf("%v", want), fmt.Sprintf("%v", got)))
		}
	}

	p := sr.Plan
	checkStrings("selection", exp.Selection, p.Selection)
	checkStrings("required", exp.Required, p.Required)
	checkStrings("unmapped", exp.Unmapped, p.Unmapped)
	checkString := func(field string, want *string, got string) {
		if want != nil {
			check(field, *want, got)
		}
	}
	checkString("select", exp.Select, p.Fragments.Select)
	checkString("joins", exp.Joins, p.Fragments.Joins)
	checkString("where", exp.Where, p.Fragments.Where)
	checkString("group_by", exp.GroupBy, p.Fragments.GroupBy)
	checkString("order_by", exp.OrderBy, p.Fragments.OrderBy)
	if exp.SQL != nil {
		sql := ""
		if p.Statement != nil {
			sql = p.Statement.SQL
		}
		check("sql", *exp.SQL, sql)
	}
	if exp.Args != nil {
		errs = append(errs, checkJSON("args", exp.Args, p.Fragments.Args)...)
	}

	if exp.Columns == nil && exp.Rows == nil {
		return errs
	}
	if sr.Result == nil {
		return append(errs, mismatch("rows", "executed query", "scenario has no data source"))
	}
	table := sr.Result.Table
	labels := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		labels[i] = c.Label
	}
	checkStrings("columns", exp.Columns, labels)
	if exp.Rows != nil {
		errs = append(errs, checkJSON("rows", exp.Rows, DisplayRows(table))...)
	}
	return errs
}

// DisplayRows converts a table the way the data-table response does and
// keeps, per cell, the formatted text if any and the value otherwise.
func DisplayRows(t *report.Table) [][]any {
	dt := output.NewDataTable(t)
	rows := make([][]any, len(dt.Rows))
	for i, row := range dt.Rows {
		cells := make([]any, len(row.C))
		for j, c := range row.C {
			if c.F != nil {
				cells[j] = c.F
				continue
			}
			cells[j] = c.V
		}
		rows[i] = cells
	}
	return rows
}

// checkJSON compares want and got after a JSON round trip, so YAML ints,
// driver int64s and converted cells compare by their JSON form.
func checkJSON(field string, want, got any) []string {
	w, err := normalizeJSON(want)
	if err != nil {
		return []string{fmt.Sprintf("%s: cannot compare expected value: %v", field, err)}
	}
	g, err := normalizeJSON(got)
	if err != nil {
		return []string{fmt.Sprintf("%s: cannot compare actual value: %v", field, err)}
	}
	if !reflect.DeepEqual(w, g) {
		return []string{mismatch(field, string(mustJSON(w)), string(mustJSON(g)))}
	}
	return nil
}

func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("%v", v))
	}
	return raw
}

func mismatch(field, expected, actual string) string {
	return (&AssertionError{Field: field, Expected: expected, Actual: actual}).Error()
}
