package cql2

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Filter is a compiled expression. It is immutable and safe for
// concurrent use.
type Filter struct {
	expr     Expression
	patterns map[*Comparison]*regexp.Regexp
}

// Compile parses input as CQL2 JSON when it starts with '{' and as CQL2
// text otherwise.
func Compile(input string) (*Filter, error) {
	var (
		expr Expression
		err  error
	)
	if s := strings.TrimSpace(input); strings.HasPrefix(s, "{") {
		expr, err = ParseJSON([]byte(s))
	} else {
		expr, err = ParseText(s)
	}
	if err != nil {
		return nil, err
	}
	return New(expr), nil
}

// New compiles a parsed expression.
func New(expr Expression) *Filter {
	f := &Filter{expr: expr, patterns: make(map[*Comparison]*regexp.Regexp)}
	f.prepare(expr)
	return f
}

func (f *Filter) prepare(e Expression) {
	switch v := e.(type) {
	case *Logical:
		f.prepare(v.Left)
		f.prepare(v.Right)
	case *Not:
		f.prepare(v.Expression)
	case *Comparison:
		if v.Operator == OpLike {
			pattern, _ := v.Right.Value.(string)
			f.patterns[v] = likePattern(pattern)
		}
	}
}

// likePattern translates LIKE wildcards: % is any run, _ one character.
func likePattern(p string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile("(?s)" + b.String())
}

// Expression returns the parsed tree.
func (f *Filter) Expression() Expression { return f.expr }

func (f *Filter) String() string {
	s, err := SerializeText(f.expr)
	if err != nil {
		return "<invalid>"
	}
	return s
}

// Match evaluates the filter. A comparison against a missing property, or
// against a value of another type, is false.
func (f *Filter) Match(props map[string]any) bool {
	if f == nil || f.expr == nil {
		return true
	}
	return f.eval(f.expr, props)
}

func (f *Filter) eval(e Expression, props map[string]any) bool {
	switch v := e.(type) {
	case *Logical:
		if v.Operator == OpAnd {
			return f.eval(v.Left, props) && f.eval(v.Right, props)
		}
		return f.eval(v.Left, props) || f.eval(v.Right, props)
	case *Not:
		return !f.eval(v.Expression, props)
	case *Comparison:
		val, ok := props[v.Left.Name]
		if !ok || val == nil {
			return false
		}
		if v.Operator == OpLike {
			s, ok := val.(string)
			return ok && f.patterns[v].MatchString(s)
		}
		return compare(v.Operator, val, v.Right.Value)
	}
	return false
}

func compare(op Operator, val, lit any) bool {
	switch l := lit.(type) {
	case float64:
		n, ok := number(val)
		if !ok {
			return false
		}
		return ordered(op, cmpFloat(n, l))
	case string:
		s, ok := val.(string)
		if !ok {
			return false
		}
		return ordered(op, strings.Compare(s, l))
	case bool:
		b, ok := val.(bool)
		if !ok {
			return false
		}
		switch op {
		case OpEquals:
			return b == l
		case OpNotEquals:
			return b != l
		}
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func ordered(op Operator, c int) bool {
	switch op {
	case OpEquals:
		return c == 0
	case OpNotEquals:
		return c != 0
	case OpLessThan:
		return c < 0
	case OpLessThanEquals:
		return c <= 0
	case OpGreaterThan:
		return c > 0
	case OpGreaterThanEquals:
		return c >= 0
	}
	return false
}
