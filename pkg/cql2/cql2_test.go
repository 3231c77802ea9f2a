package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Expression
	}{
		{
			name:  "extension property",
			input: "eo:cloud_cover < 20",
			expected: &Comparison{
				Operator: OpLessThan,
				Left:     Property{Name: "eo:cloud_cover"},
				Right:    Literal{Value: 20.0},
			},
		},
		{
			name:  "not equals spelling",
			input: "platform != 'wyvern-dragonette-001'",
			expected: &Comparison{
				Operator: OpNotEquals,
				Left:     Property{Name: "platform"},
				Right:    Literal{Value: "wyvern-dragonette-001"},
			},
		},
		{
			name:  "lowercase keywords and false",
			input: "gsd <= 5.3 and not processed = false",
			expected: &Logical{
				Operator: OpAnd,
				Left: &Comparison{
					Operator: OpLessThanEquals,
					Left:     Property{Name: "gsd"},
					Right:    Literal{Value: 5.3},
				},
				Right: &Not{Expression: &Comparison{
					Operator: OpEquals,
					Left:     Property{Name: "processed"},
					Right:    Literal{Value: false},
				}},
			},
		},
		{
			name:  "grouping",
			input: `(a > 5 OR b < 10) AND status = "active"`,
			expected: &Logical{
				Operator: OpAnd,
				Left: &Logical{
					Operator: OpOr,
					Left:     &Comparison{Operator: OpGreaterThan, Left: Property{Name: "a"}, Right: Literal{Value: 5.0}},
					Right:    &Comparison{Operator: OpLessThan, Left: Property{Name: "b"}, Right: Literal{Value: 10.0}},
				},
				Right: &Comparison{Operator: OpEquals, Left: Property{Name: "status"}, Right: Literal{Value: "active"}},
			},
		},
		{
			name:  "like with escaped quote",
			input: "title LIKE 'O''Hare%'",
			expected: &Comparison{
				Operator: OpLike,
				Left:     Property{Name: "title"},
				Right:    Literal{Value: "O'Hare%"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, expr)
		})
	}
}

func TestParseText_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"this is not a valid expression",
		"(unclosed = 1",
		`name == "John"`,
		"gsd LIKE 5",
		"processed < true",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseText(input)
			assert.Error(t, err)
		})
	}
}

func TestParseJSON(t *testing.T) {
	expr, err := ParseJSON([]byte(`{
		"op": "and",
		"args": [
			{"op": "<", "args": [{"property": "eo:cloud_cover"}, 20]},
			{"op": "=", "args": [{"property": "platform"}, "a"]},
			{"op": "not", "args": [{"op": ">=", "args": [{"property": "datetime"}, {"timestamp": "2024-01-01T00:00:00Z"}]}]}
		]
	}`))
	require.NoError(t, err)

	text, err := SerializeText(expr)
	require.NoError(t, err)
	assert.Equal(t, "eo:cloud_cover < 20 AND platform = 'a' AND NOT datetime >= '2024-01-01T00:00:00Z'", text)

	for _, bad := range []string{
		`{"op": "and", "args": [{"op": "=", "args": [{"property": "a"}, 1]}]}`,
		`{"op": "between", "args": [{"property": "a"}, 1]}`,
		`{"op": "=", "args": [1, 1]}`,
		`{"args": []}`,
		`[1]`,
	} {
		_, err := ParseJSON([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestSerializeTextRoundTrip(t *testing.T) {
	for _, input := range []string{
		"a = 1 OR b = 2 AND c = 3",
		"(a = 1 OR b = 2) AND c = 3",
		"a = 1 AND (b = 2 AND c = 3)",
		"NOT (a = 1 OR b = 'x')",
		"flag <> TRUE",
	} {
		t.Run(input, func(t *testing.T) {
			expr, err := ParseText(input)
			require.NoError(t, err)
			text, err := SerializeText(expr)
			require.NoError(t, err)
			again, err := ParseText(text)
			require.NoError(t, err)
			assert.Equal(t, expr, again)
		})
	}
}

func TestFilterMatch(t *testing.T) {
	props := map[string]any{
		"eo:cloud_cover":   12.5,
		"platform":         "wyvern-dragonette-003",
		"instruments":      "dragonette",
		"processing:level": "L1B",
		"processed":        true,
		"gsd":              "5.3",
	}
	tests := []struct {
		filter string
		want   bool
	}{
		{"eo:cloud_cover < 20", true},
		{"eo:cloud_cover >= 20", false},
		{"platform LIKE 'wyvern-%'", true},
		{"platform LIKE 'wyvern-dragonette-00_'", true},
		{"platform LIKE 'dragonette%'", false},
		{"processing:level = 'L1B' AND processed = TRUE", true},
		{"processed <> true", false},
		{"missing = 1", false},
		{"NOT missing = 1", true},
		{"missing = 1 OR instruments = 'dragonette'", true},
		{"platform > 5", false},
		{"gsd < 6", true},
		{`{"op":"<","args":[{"property":"eo:cloud_cover"},10]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			f, err := Compile(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(props))
		})
	}
}

func TestNilFilterMatchesEverything(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match(nil))
}

func TestFilterString(t *testing.T) {
	f, err := Compile("eo:cloud_cover<20 and platform like 'w%'")
	require.NoError(t, err)
	assert.Equal(t, "eo:cloud_cover < 20 AND platform LIKE 'w%'", f.String())
}
