package harness

import (
	"errors"
	"slices"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/schema"
	"github.com/roach88/reportql/internal/tq"
)

// Error kinds a step can expect.
const (
	KindSyntax        = "syntax"
	KindUnsupported   = "unsupported"
	KindCircular      = "circular"
	KindConfiguration = "configuration"
	KindNoStatement   = "no_statement"
	KindFetch         = "fetch"
	KindOther         = "other"
)

// ErrorKinds lists the error kinds a scenario may expect.
var ErrorKinds = []string{KindSyntax, KindUnsupported, KindCircular, KindNoStatement, KindFetch}

func validErrorKind(kind string) bool {
	return slices.Contains(ErrorKinds, kind)
}

// ErrorKind classifies err by the typed errors of the query pipeline.
func ErrorKind(err error) string {
	var execErr *engine.ExecError
	switch {
	case tq.IsSyntaxError(err):
		return KindSyntax
	case queryspec.IsUnsupportedQuery(err):
		return KindUnsupported
	case resolve.IsCircularDependency(err):
		return KindCircular
	case schema.IsConfigurationError(err):
		return KindConfiguration
	case engine.IsFetchError(err):
		return KindFetch
	case errors.As(err, &execErr) && execErr.Code == engine.ErrCodeNoStatement:
		return KindNoStatement
	default:
		return KindOther
	}
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every step matched its expect clause.
	Pass bool `json:"pass"`

	// Steps holds one entry per flow step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// StepResult is what one query produced.
type StepResult struct {
	Query string       `json:"query"`
	Plan  *engine.Plan `json:"-"`
	// Result is nil when the step failed or the scenario has no data source.
	Result *engine.Result `json:"-"`
	// Err is the planning or execution error, if any.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a mismatch message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
