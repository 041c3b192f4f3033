package queryspec

import (
	"github.com/roach88/reportql/internal/tq"
)

// Parse parses query text and simplifies it in one step.
func Parse(text string) (*Spec, error) {
	q, err := tq.Parse(text)
	if err != nil {
		return nil, err
	}
	return Simplify(q)
}

// Simplify reduces a parsed query to a Spec.
//
// The where clause must be a conjunction. "=" sets a column's value (the
// last one wins), range comparators accumulate per column, and an "in" list
// replaces whatever the column had. More than one ordering key is rejected.
// Simplify returns an *UnsupportedQueryError for anything else.
func Simplify(q *tq.Query) (*Spec, error) {
	spec := &Spec{
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	for _, id := range q.Select {
		if err := checkColumnName(id.Name, id.Quoted, id.Pos); err != nil {
			return nil, err
		}
		spec.Select = append(spec.Select, id.Name)
	}
	for _, id := range q.GroupBy {
		if err := checkColumnName(id.Name, id.Quoted, id.Pos); err != nil {
			return nil, err
		}
		spec.GroupBy = append(spec.GroupBy, id.Name)
	}

	if q.Where != nil {
		if err := simplifyPredicate(spec, q.Where); err != nil {
			return nil, err
		}
	}

	switch len(q.OrderBy) {
	case 0:
	case 1:
		col := q.OrderBy[0].Column
		if err := checkColumnName(col.Name, col.Quoted, col.Pos); err != nil {
			return nil, err
		}
		dir := Asc
		if q.OrderBy[0].Desc {
			dir = Desc
		}
		spec.OrderBy = &Order{Column: q.OrderBy[0].Column.Name, Direction: dir}
	default:
		return nil, &UnsupportedQueryError{Reason: ReasonOrdering, Pos: q.OrderBy[1].Column.Pos}
	}

	return spec, nil
}

func simplifyPredicate(spec *Spec, p tq.Predicate) error {
	switch n := p.(type) {
	case *tq.Compound:
		if n.Op != tq.OpAnd {
			return &UnsupportedQueryError{Reason: ReasonOperator, Pos: predicatePos(n.Right)}
		}
		if err := simplifyPredicate(spec, n.Left); err != nil {
			return err
		}
		return simplifyPredicate(spec, n.Right)

	case *tq.Comparison:
		if !n.Left.IsColumn() {
			return &UnsupportedQueryError{Reason: ReasonPlacement, Pos: n.Left.Pos}
		}
		if err := checkColumnName(n.Left.Text, n.Left.Quoted, n.Left.Pos); err != nil {
			return err
		}
		if n.Op == "=" {
			spec.SetEquals(n.Left.Text, n.Right.Text)
		} else {
			spec.AddComparison(n.Left.Text, n.Op, n.Right.Text)
		}
		return nil

	case *tq.InList:
		if !n.Left.IsColumn() {
			return &UnsupportedQueryError{Reason: ReasonPlacement, Pos: n.Left.Pos}
		}
		if err := checkColumnName(n.Left.Text, n.Left.Quoted, n.Left.Pos); err != nil {
			return err
		}
		values := make([]string, len(n.Values))
		for i, v := range n.Values {
			values[i] = v.Text
		}
		spec.SetIn(n.Left.Text, values...)
		return nil

	default:
		return &UnsupportedQueryError{Reason: "unknown predicate"}
	}
}

// checkColumnName rejects a backtick-quoted "*". Spec stores bare names, so
// it would otherwise be indistinguishable from the select wildcard.
func checkColumnName(name string, quoted bool, pos int) error {
	if quoted && name == Wildcard {
		return &UnsupportedQueryError{Reason: ReasonQuotedStar, Pos: pos}
	}
	return nil
}

// predicatePos returns the offset of the left-most operand of p.
func predicatePos(p tq.Predicate) int {
	switch n := p.(type) {
	case *tq.Compound:
		return predicatePos(n.Left)
	case *tq.Comparison:
		return n.Left.Pos
	case *tq.InList:
		return n.Left.Pos
	default:
		return 0
	}
}
