// Package cql2 parses a subset of OGC CQL2 and evaluates it against item
// properties.
//
// The text form supports comparisons, LIKE, AND, OR, NOT and parentheses.
// Property names may contain ':' and '.', as STAC extension fields do
// (eo:cloud_cover, view:off_nadir). The JSON form accepts the same
// operators.
package cql2

// Operator names a comparison or logical operation.
type Operator string

const (
	OpEquals            Operator = "="
	OpNotEquals         Operator = "<>"
	OpLessThan          Operator = "<"
	OpLessThanEquals    Operator = "<="
	OpGreaterThan       Operator = ">"
	OpGreaterThanEquals Operator = ">="
	OpLike              Operator = "LIKE"

	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"
)

// normalizeOperator maps accepted spellings onto the canonical ones.
func normalizeOperator(op string) (Operator, bool) {
	switch op {
	case "=", "<", "<=", ">", ">=":
		return Operator(op), true
	case "<>", "!=":
		return OpNotEquals, true
	case "LIKE", "like", "Like":
		return OpLike, true
	}
	return "", false
}

type Expression interface {
	isExpr()
}

type Property struct {
	Name string
}

func (Property) isExpr() {}

// Literal holds a string, float64 or bool.
type Literal struct {
	Value any
}

func (Literal) isExpr() {}

type Comparison struct {
	Operator Operator
	Left     Property
	Right    Literal
}

func (*Comparison) isExpr() {}

type Logical struct {
	Operator Operator
	Left     Expression
	Right    Expression
}

func (*Logical) isExpr() {}

type Not struct {
	Expression Expression
}

func (*Not) isExpr() {}
