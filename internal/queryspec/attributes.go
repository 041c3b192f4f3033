package queryspec

// Attribute key prefixes for range conditions.
const (
	FromPrefix = "from_"
	ToPrefix   = "to_"
)

// Attributes flattens the conditions into report configuration attributes.
//
//	col = v   -> col: v
//	col >= v  -> from_col: v
//	col <= v  -> to_col: v
//
// Other comparators and in lists have no attribute form and are skipped.
// The grouping columns are available as s.GroupBy.
func (s *Spec) Attributes() map[string]string {
	attrs := make(map[string]string, len(s.Conditions))
	for _, c := range s.Conditions {
		switch c.Kind {
		case KindEquals:
			attrs[c.Column] = c.Value
		case KindCompare:
			for _, cmp := range c.Comparisons {
				switch cmp.Op {
				case ">=":
					attrs[FromPrefix+c.Column] = cmp.Value
				case "<=":
					attrs[ToPrefix+c.Column] = cmp.Value
				}
			}
		}
	}
	return attrs
}
