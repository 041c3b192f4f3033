package tq

import (
	"errors"
	"fmt"
)

// SyntaxError reports a grammar violation in query text.
type SyntaxError struct {
	Pos     int    // byte offset in the query text
	Near    string // offending token text
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("syntax error at offset %d near %q: %s", e.Pos, e.Near, e.Message)
}

func newSyntaxError(pos int, near, message string) *SyntaxError {
	return &SyntaxError{Pos: pos, Near: near, Message: message}
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
