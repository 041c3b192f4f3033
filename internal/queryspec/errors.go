package queryspec

import (
	"errors"
	"fmt"
)

// Reasons reported by UnsupportedQueryError.
const (
	ReasonOperator   = "operator forbidden, only AND is allowed"
	ReasonOrdering   = "only one ordering argument is allowed"
	ReasonPlacement  = "comparator placement: the left side of a comparison must be a column"
	ReasonQuotedStar = "quoted wildcard: `*` is not a column name"
)

// UnsupportedQueryError reports a query that parses but falls outside the
// restricted dialect.
type UnsupportedQueryError struct {
	Reason string
	Pos    int // byte offset of the offending construct
}

func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("unsupported query at offset %d: %s", e.Pos, e.Reason)
}

// IsUnsupportedQuery reports whether err is or wraps an
// *UnsupportedQueryError.
func IsUnsupportedQuery(err error) bool {
	var ue *UnsupportedQueryError
	return errors.As(err, &ue)
}
