package engine

import (
	"errors"
	"fmt"
)

// ExecError is returned by Execute when a planned query cannot be run.
// Planning errors (syntax, unsupported query, circular dependency) are
// returned unwrapped and never become an ExecError.
type ExecError struct {
	// Code identifies the error category.
	Code ExecErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the affected request.
	RequestID string

	// Err is the underlying cause, if any.
	Err error
}

// ExecErrorCode categorizes execution errors.
type ExecErrorCode string

const (
	// ErrCodeNoFetcher indicates the engine was built without a Fetcher.
	ErrCodeNoFetcher ExecErrorCode = "NO_FETCHER"

	// ErrCodeNoStatement indicates the plan has no SQL statement, because
	// the schema declares no base table.
	ErrCodeNoStatement ExecErrorCode = "NO_STATEMENT"

	// ErrCodeFetchFailed indicates the Fetcher returned an error.
	ErrCodeFetchFailed ExecErrorCode = "FETCH_FAILED"
)

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (req=%s)", e.RequestID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsFetchError returns true if the error is a failed fetch.
// Uses errors.As to handle wrapped errors.
func IsFetchError(err error) bool {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeFetchFailed
	}
	return false
}
