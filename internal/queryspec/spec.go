// Package queryspec reduces a parsed query to the restricted form reports
// understand.
//
// A Spec holds the projection, a conjunction of per-column conditions, the
// grouping columns, at most one ordering key and the paging values. It is
// produced by Simplify and consumed by the resolver, the SQL synthesizer and
// the report configuration layer (Attributes).
package queryspec

// Wildcard in Select stands for every registered column.
const Wildcard = "*"

// Direction is the sort direction of an ordering key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is the single ordering key of a Spec.
type Order struct {
	Column    string
	Direction Direction
}

// ConditionKind discriminates the shapes a condition can take.
type ConditionKind int

const (
	// KindEquals is "col = value".
	KindEquals ConditionKind = iota
	// KindCompare is one or more range comparisons on the same column.
	KindCompare
	// KindIn is "col in (v1, v2, ...)".
	KindIn
)

func (k ConditionKind) String() string {
	switch k {
	case KindEquals:
		return "equals"
	case KindCompare:
		return "compare"
	case KindIn:
		return "in"
	default:
		return "unknown"
	}
}

// Comparison is one range comparison. Op is one of < > <= >= <> !=.
type Comparison struct {
	Op    string
	Value string
}

// Condition constrains a single column. Only the field matching Kind is
// set: Value for KindEquals, Comparisons for KindCompare, Values for KindIn.
type Condition struct {
	Column      string
	Kind        ConditionKind
	Value       string
	Comparisons []Comparison
	Values      []string
}

// Spec is the restricted query descriptor.
//
// Conditions keeps first-seen column order; a column appears at most once.
type Spec struct {
	Select     []string
	Conditions []Condition
	GroupBy    []string
	OrderBy    *Order
	Limit      *int
	Offset     *int
}

// Condition returns the condition on column, if any.
func (s *Spec) Condition(column string) (Condition, bool) {
	if i := s.conditionIndex(column); i >= 0 {
		return s.Conditions[i], true
	}
	return Condition{}, false
}

// ConditionColumns returns the constrained column ids in order.
func (s *Spec) ConditionColumns() []string {
	cols := make([]string, len(s.Conditions))
	for i, c := range s.Conditions {
		cols[i] = c.Column
	}
	return cols
}

// SetEquals sets "column = value", replacing any existing condition.
func (s *Spec) SetEquals(column, value string) {
	s.put(Condition{Column: column, Kind: KindEquals, Value: value})
}

// AddComparison appends a range comparison on column. An equality or in
// list already on the column is replaced.
func (s *Spec) AddComparison(column, op, value string) {
	cmp := Comparison{Op: op, Value: value}
	if i := s.conditionIndex(column); i >= 0 && s.Conditions[i].Kind == KindCompare {
		s.Conditions[i].Comparisons = append(s.Conditions[i].Comparisons, cmp)
		return
	}
	s.put(Condition{Column: column, Kind: KindCompare, Comparisons: []Comparison{cmp}})
}

// SetIn sets "column in (values...)", replacing any existing condition.
func (s *Spec) SetIn(column string, values ...string) {
	s.put(Condition{Column: column, Kind: KindIn, Values: append([]string(nil), values...)})
}

// put stores c, overwriting in place when the column is already constrained.
func (s *Spec) put(c Condition) {
	if i := s.conditionIndex(c.Column); i >= 0 {
		s.Conditions[i] = c
		return
	}
	s.Conditions = append(s.Conditions, c)
}

func (s *Spec) conditionIndex(column string) int {
	for i, c := range s.Conditions {
		if c.Column == column {
			return i
		}
	}
	return -1
}

// HasWildcard reports whether the selection contains the wildcard.
func (s *Spec) HasWildcard() bool {
	for _, id := range s.Select {
		if id == Wildcard {
			return true
		}
	}
	return false
}
