package queryspec

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/reportql/internal/tq"
)

// String renders the spec back to query text. Parsing and simplifying the
// result yields an equal Spec.
func (s *Spec) String() string {
	var clauses []string

	if len(s.Select) > 0 {
		clauses = append(clauses, "select "+joinIdents(s.Select))
	}
	if where := s.WhereText(); where != "" {
		clauses = append(clauses, "where "+where)
	}
	if len(s.GroupBy) > 0 {
		clauses = append(clauses, "group by "+joinIdents(s.GroupBy))
	}
	if s.OrderBy != nil {
		clauses = append(clauses, "order by "+s.OrderText())
	}
	if s.Limit != nil {
		clauses = append(clauses, "limit "+strconv.Itoa(*s.Limit))
	}
	if s.Offset != nil {
		clauses = append(clauses, "offset "+strconv.Itoa(*s.Offset))
	}
	return strings.Join(clauses, " ")
}

// WhereText renders the conditions as a where predicate without the
// keyword. It returns "" when there are no conditions.
func (s *Spec) WhereText() string {
	var parts []string
	for _, c := range s.Conditions {
		col := QuoteIdent(c.Column)
		switch c.Kind {
		case KindEquals:
			parts = append(parts, col+" = "+QuoteValue(c.Value))
		case KindCompare:
			for _, cmp := range c.Comparisons {
				parts = append(parts, col+" "+cmp.Op+" "+QuoteValue(cmp.Value))
			}
		case KindIn:
			values := make([]string, len(c.Values))
			for i, v := range c.Values {
				values[i] = QuoteValue(v)
			}
			parts = append(parts, col+" in ("+strings.Join(values, ", ")+")")
		}
	}
	return strings.Join(parts, " and ")
}

// OrderText renders the ordering key without the keywords, or "" if unset.
func (s *Spec) OrderText() string {
	if s.OrderBy == nil {
		return ""
	}
	return QuoteIdent(s.OrderBy.Column) + " " + string(s.OrderBy.Direction)
}

func joinIdents(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		if id == Wildcard {
			quoted[i] = id
			continue
		}
		quoted[i] = QuoteIdent(id)
	}
	return strings.Join(quoted, ", ")
}

// QuoteIdent backtick-quotes id unless it lexes as a bare identifier.
func QuoteIdent(id string) string {
	if isBareIdent(id) {
		return id
	}
	return "`" + id + "`"
}

func isBareIdent(id string) bool {
	if id == "" || tq.IsKeyword(id) {
		return false
	}
	for i, r := range id {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '.'):
		default:
			return false
		}
	}
	return true
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteValue renders v as a single-quoted literal.
func QuoteValue(v string) string {
	return "'" + valueEscaper.Replace(v) + "'"
}
