package schema

import (
	"fmt"
)

// Validation codes (E220-E229). These are warnings: a Registry with
// validation findings still works.
const (
	ErrUnknownRequire = "E220" // requires names an undeclared column
	ErrUnusedTable    = "E221" // table is neither mapped nor depended on
	ErrNoLabel        = "E222" // column has no label
)

// ValidationError is a non-fatal schema finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateOptions selects optional checks.
type ValidateOptions struct {
	RequireLabels bool
}

// Validate reports findings for reg in declaration order. Requirements on
// undeclared columns are legal (they resolve to themselves) but usually a
// typo, so they are reported.
func Validate(reg *Registry, opts ValidateOptions) []ValidationError {
	var errs []ValidationError

	used := make(map[string]bool)
	for _, t := range reg.Tables() {
		if t.DependsOn != "" {
			used[t.DependsOn] = true
		}
	}

	for _, c := range reg.Columns() {
		for _, req := range c.Requires {
			if _, ok := reg.Column(req); !ok {
				errs = append(errs, ValidationError{
					Field:   "column." + c.ID,
					Message: fmt.Sprintf("requires undeclared column %q", req),
					Code:    ErrUnknownRequire,
				})
			}
		}
		if c.SQL != nil && c.SQL.Table != "" {
			used[c.SQL.Table] = true
		}
		if opts.RequireLabels && c.Label == "" {
			errs = append(errs, ValidationError{
				Field:   "column." + c.ID,
				Message: "label is missing",
				Code:    ErrNoLabel,
			})
		}
	}

	for _, t := range reg.Tables() {
		if !used[t.Name] {
			errs = append(errs, ValidationError{
				Field:   "table." + t.Name,
				Message: "table is not used by any column",
				Code:    ErrUnusedTable,
			})
		}
	}
	return errs
}
