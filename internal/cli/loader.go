package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/queryspec"
	"github.com/roach88/reportql/internal/resolve"
	"github.com/roach88/reportql/internal/schema"
	"github.com/roach88/reportql/internal/tq"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeBadRequest = "E010" // Invalid data-source request parameters

	ErrCodeSyntax        = "E201" // Query syntax error
	ErrCodeUnsupported   = "E202" // Query outside the restricted dialect
	ErrCodeCircular      = "E203" // Circular column dependency
	ErrCodeConfiguration = "E204" // Invalid schema declaration
	ErrCodeFetch         = "E205" // Data source failure
	ErrCodeNoSchema      = "E206" // No schema given
	ErrCodeNoDatabase    = "E207" // No database given
	ErrCodeNoStatement   = "E208" // Schema has no base table to query

	// E220-E229 are schema validation findings, see schema.Validate.
	ErrCodeCycle = "E230" // Static requires cycle
)

// CommandError is an error raised by the CLI itself, with its code.
type CommandError struct {
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DescribeError maps err to an error code, a message and optional
// structured details.
func DescribeError(err error) (code, message string, details any) {
	var (
		syntaxErr *tq.SyntaxError
		unsupErr  *queryspec.UnsupportedQueryError
		cycleErr  *resolve.CircularDependencyError
		confErr   *schema.ConfigurationError
		execErr   *engine.ExecError
		cmdErr    *CommandError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeSyntax, syntaxErr.Error(), map[string]any{"pos": syntaxErr.Pos, "near": syntaxErr.Near}
	case errors.As(err, &unsupErr):
		return ErrCodeUnsupported, unsupErr.Error(), map[string]any{"pos": unsupErr.Pos, "reason": unsupErr.Reason}
	case errors.As(err, &cycleErr):
		return ErrCodeCircular, cycleErr.Error(), map[string]any{"column": cycleErr.Column, "path": cycleErr.Path}
	case errors.As(err, &confErr):
		var details map[string]any
		if confErr.Pos.IsValid() {
			details = map[string]any{"file": confErr.Pos.Filename(), "line": confErr.Pos.Line()}
		}
		return ErrCodeConfiguration, confErr.Error(), details
	case errors.As(err, &execErr):
		if execErr.Code == engine.ErrCodeNoStatement {
			return ErrCodeNoStatement, execErr.Error(), nil
		}
		return ErrCodeFetch, execErr.Error(), map[string]any{"req_id": execErr.RequestID}
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, err.Error(), nil
	case errors.As(err, &cmdErr):
		return cmdErr.Code, cmdErr.Message, nil
	default:
		return ErrCodeGeneric, err.Error(), nil
	}
}

// LoadSchema loads the registry from a CUE file or directory.
func LoadSchema(path string) (*schema.Registry, error) {
	if path == "" {
		return nil, &CommandError{Code: ErrCodeNoSchema, Message: "no schema given (use --schema or " + EnvSchema + ")"}
	}
	return schema.Load(path)
}
