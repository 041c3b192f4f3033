package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// CircularDependencyError reports a requires cycle found while expanding
// Column. Path runs from Column to the revisited column.
type CircularDependencyError struct {
	Column string
	Path   []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("circular dependency in column %q", e.Column)
	}
	return fmt.Sprintf("circular dependency in column %q: %s", e.Column, strings.Join(e.Path, " -> "))
}

// IsCircularDependency reports whether err is or wraps a
// *CircularDependencyError.
func IsCircularDependency(err error) bool {
	var ce *CircularDependencyError
	return errors.As(err, &ce)
}
