package tq

// Query is the parsed form of a query. A nil slice or pointer means the
// clause was absent.
type Query struct {
	Select  []Identifier
	Where   Predicate
	GroupBy []Identifier
	OrderBy []OrderItem
	Limit   *int
	Offset  *int
}

// Wildcard is the select item that stands for every column.
const Wildcard = "*"

// Identifier names a column. Quoted is set for backtick identifiers.
type Identifier struct {
	Name   string
	Quoted bool
	Pos    int
}

// IsWildcard reports whether the identifier is the select wildcard.
func (id Identifier) IsWildcard() bool {
	return !id.Quoted && id.Name == Wildcard
}

// OrderItem is one "order by" key.
type OrderItem struct {
	Column Identifier
	Desc   bool
}

// Predicate is a node of the where-clause tree.
//
// This is a sealed interface: only Compound, Comparison and InList
// implement it.
type Predicate interface {
	predicateNode()
}

// BoolOp is the operator of a Compound predicate.
type BoolOp string

const (
	OpAnd BoolOp = "and"
	OpOr  BoolOp = "or"
)

// Compound joins two predicates with "and" or "or".
type Compound struct {
	Op    BoolOp
	Left  Predicate
	Right Predicate
}

func (*Compound) predicateNode() {}

// Comparison is "<left> <op> <right>" with op one of
// = < > <= >= <> !=.
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
}

func (*Comparison) predicateNode() {}

// InList is "<left> in (<value>, ...)".
type InList struct {
	Left   Operand
	Values []Operand
}

func (*InList) predicateNode() {}

// OperandKind classifies comparison operands.
type OperandKind int

const (
	OperandIdent OperandKind = iota
	OperandString
	OperandNumber
)

// Operand is a side of a comparison. Text is the decoded identifier or
// literal text.
type Operand struct {
	Kind   OperandKind
	Text   string
	Quoted bool // backtick identifier
	Pos    int
}

// IsColumn reports whether the operand names a column.
func (o Operand) IsColumn() bool {
	return o.Kind == OperandIdent
}
