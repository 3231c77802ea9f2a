package cql2

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseJSON parses the CQL2 JSON encoding. AND and OR accept two or more
// arguments.
func ParseJSON(input []byte) (Expression, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(input, &raw); err != nil {
		return nil, fmt.Errorf("cql2: %w", err)
	}
	expr, err := parseJSONExpr(raw)
	if err != nil {
		return nil, fmt.Errorf("cql2: %w", err)
	}
	if err := check(expr); err != nil {
		return nil, err
	}
	return expr, nil
}

func parseJSONExpr(data json.RawMessage) (Expression, error) {
	var node struct {
		Op   string            `json:"op"`
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	switch op := strings.ToUpper(node.Op); op {
	case "":
		return nil, errors.New("expression has no op")
	case "AND", "OR":
		if len(node.Args) < 2 {
			return nil, fmt.Errorf("%s requires at least 2 arguments", op)
		}
		result, err := parseJSONExpr(node.Args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range node.Args[1:] {
			next, err := parseJSONExpr(a)
			if err != nil {
				return nil, err
			}
			result = &Logical{Operator: Operator(op), Left: result, Right: next}
		}
		return result, nil
	case "NOT":
		if len(node.Args) != 1 {
			return nil, errors.New("NOT requires 1 argument")
		}
		inner, err := parseJSONExpr(node.Args[0])
		if err != nil {
			return nil, err
		}
		return &Not{Expression: inner}, nil
	}

	operator, ok := normalizeOperator(node.Op)
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", node.Op)
	}
	if len(node.Args) != 2 {
		return nil, fmt.Errorf("%s requires exactly 2 arguments", operator)
	}
	var prop struct {
		Property string `json:"property"`
	}
	if err := json.Unmarshal(node.Args[0], &prop); err != nil || prop.Property == "" {
		return nil, fmt.Errorf("%s: first argument must be a property", operator)
	}
	lit, err := parseJSONLiteral(node.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operator, err)
	}
	return &Comparison{Operator: operator, Left: Property{Name: prop.Property}, Right: lit}, nil
}

func parseJSONLiteral(data json.RawMessage) (Literal, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Literal{}, err
	}
	switch tv := v.(type) {
	case string, float64, bool:
		return Literal{Value: tv}, nil
	case map[string]any:
		// {"timestamp": "..."} and {"date": "..."} compare as text
		for _, k := range []string{"timestamp", "date"} {
			if s, ok := tv[k].(string); ok {
				return Literal{Value: s}, nil
			}
		}
	}
	return Literal{}, fmt.Errorf("unsupported literal %s", string(data))
}
