package cql2

import (
	"fmt"
	"strconv"
	"strings"
)

// SerializeText renders expr in the text encoding. Parsing the output
// yields an equal expression.
func SerializeText(expr Expression) (string, error) {
	if expr == nil {
		return "", fmt.Errorf("cql2: cannot serialize nil expression")
	}
	return serialize(expr, 0)
}

func serialize(expr Expression, parentPrecedence int) (string, error) {
	switch e := expr.(type) {
	case *Comparison:
		lit, err := serializeLiteral(e.Right.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", e.Left.Name, e.Operator, lit), nil

	case *Logical:
		p := precedence(e.Operator)
		left, err := serialize(e.Left, p)
		if err != nil {
			return "", err
		}
		right, err := serialize(e.Right, p+1)
		if err != nil {
			return "", err
		}
		out := fmt.Sprintf("%s %s %s", left, e.Operator, right)
		if parentPrecedence > p {
			out = "(" + out + ")"
		}
		return out, nil

	case *Not:
		inner, err := serialize(e.Expression, precedence(OpNot))
		if err != nil {
			return "", err
		}
		return "NOT " + inner, nil

	default:
		return "", fmt.Errorf("cql2: unsupported expression type %T", expr)
	}
}

func serializeLiteral(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		return strings.ToUpper(strconv.FormatBool(v)), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("cql2: unsupported literal type %T", value)
	}
}

func precedence(op Operator) int {
	switch op {
	case OpNot:
		return 3
	case OpAnd:
		return 2
	case OpOr:
		return 1
	default:
		return 0
	}
}
