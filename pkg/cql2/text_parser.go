package cql2

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	cqlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|LIKE)\b`},
		{Name: "Boolean", Pattern: `(?i)\b(true|false)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_:.]*`},
		{Name: "Number", Pattern: `[-+]?\d*\.?\d+([eE][-+]?\d+)?`},
		{Name: "String", Pattern: `"(\\"|[^"])*"|'(''|[^'])*'`},
		{Name: "Operator", Pattern: `<>|!=|<=|>=|[=<>]`},
		{Name: "Paren", Pattern: `[()]`},
		{Name: "whitespace", Pattern: `\s+`},
	})

	parser = participle.MustBuild[textExpression](
		participle.Lexer(cqlLexer),
		participle.Map(upperKeyword, "Keyword"),
		participle.Map(unquoteString, "String"),
	)
)

func upperKeyword(t lexer.Token) (lexer.Token, error) {
	t.Value = strings.ToUpper(t.Value)
	return t, nil
}

// unquoteString strips the quotes. Single-quoted strings escape a quote
// by doubling it, double-quoted ones with a backslash.
func unquoteString(t lexer.Token) (lexer.Token, error) {
	v := t.Value
	if len(v) < 2 {
		return t, fmt.Errorf("malformed string %s", v)
	}
	q := v[:1]
	v = v[1 : len(v)-1]
	if q == "'" {
		v = strings.ReplaceAll(v, "''", "'")
	} else {
		v = strings.ReplaceAll(v, `\"`, `"`)
	}
	t.Value = v
	return t, nil
}

type textExpression struct {
	Or []*textAnd `parser:"@@ ( 'OR' @@ )*"`
}

func (e *textExpression) toAST() Expression {
	result := e.Or[0].toAST()
	for _, next := range e.Or[1:] {
		result = &Logical{Operator: OpOr, Left: result, Right: next.toAST()}
	}
	return result
}

type textAnd struct {
	Terms []*textTerm `parser:"@@ ( 'AND' @@ )*"`
}

func (a *textAnd) toAST() Expression {
	result := a.Terms[0].toAST()
	for _, next := range a.Terms[1:] {
		result = &Logical{Operator: OpAnd, Left: result, Right: next.toAST()}
	}
	return result
}

type textTerm struct {
	Not        *textTerm       `parser:"  'NOT' @@"`
	Group      *textExpression `parser:"| '(' @@ ')'"`
	Comparison *textComparison `parser:"| @@"`
}

func (t *textTerm) toAST() Expression {
	switch {
	case t.Not != nil:
		return &Not{Expression: t.Not.toAST()}
	case t.Group != nil:
		return t.Group.toAST()
	default:
		return t.Comparison.toAST()
	}
}

type textComparison struct {
	Property string       `parser:"@Ident"`
	Op       string       `parser:"( @Operator | @'LIKE' )"`
	Value    *textLiteral `parser:"@@"`
}

func (c *textComparison) toAST() Expression {
	op, _ := normalizeOperator(c.Op)
	return &Comparison{Operator: op, Left: Property{Name: c.Property}, Right: c.Value.toLiteral()}
}

// Booleans are captured as text; participle sets a bool field to true on
// any match.
type textLiteral struct {
	Number  *float64 `parser:"  @Number"`
	String  *string  `parser:"| @String"`
	Boolean *string  `parser:"| @Boolean"`
}

func (l *textLiteral) toLiteral() Literal {
	switch {
	case l.Number != nil:
		return Literal{Value: *l.Number}
	case l.String != nil:
		return Literal{Value: *l.String}
	default:
		return Literal{Value: strings.EqualFold(*l.Boolean, "true")}
	}
}

// ParseText parses the CQL2 text encoding.
func ParseText(input string) (Expression, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("cql2: empty expression")
	}
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("cql2: %w", err)
	}
	ast := expr.toAST()
	if err := check(ast); err != nil {
		return nil, err
	}
	return ast, nil
}

// check rejects operator/literal pairs that can never match.
func check(e Expression) error {
	switch v := e.(type) {
	case *Logical:
		if err := check(v.Left); err != nil {
			return err
		}
		return check(v.Right)
	case *Not:
		return check(v.Expression)
	case *Comparison:
		if v.Operator == OpLike {
			if _, ok := v.Right.Value.(string); !ok {
				return fmt.Errorf("cql2: LIKE on %s needs a string pattern", v.Left.Name)
			}
		}
		if _, ok := v.Right.Value.(bool); ok && v.Operator != OpEquals && v.Operator != OpNotEquals {
			return fmt.Errorf("cql2: operator %s is not defined for booleans", v.Operator)
		}
	}
	return nil
}
