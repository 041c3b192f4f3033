package schema

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// ConfigurationError reports an invalid schema declaration. It is raised
// while the schema is built and is fatal.
type ConfigurationError struct {
	Subject string // "column.<id>", "table.<name>", "formatter.<id>", ...
	Message string
	Pos     token.Pos // source position when loaded from CUE
}

func (e *ConfigurationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Subject, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

// IsConfigurationError reports whether err is or wraps a
// *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func columnError(id, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: "column." + id, Message: fmt.Sprintf(format, args...)}
}

func tableError(name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: "table." + name, Message: fmt.Sprintf(format, args...)}
}

// fromCUEError converts a CUE evaluation error, keeping the first position.
func fromCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigurationError{Subject: "cue", Message: err.Error()}
	}
	first := errs[0]
	ce := &ConfigurationError{Subject: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
