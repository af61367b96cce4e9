package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := Tokenize(input, nil, false)
	require.Nil(t, err, "tokenize %q", input)
	return tokens
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []Token
	}{
		{
			input: "a + b",
			expected: []Token{
				{Type: IDENT, Literal: "a", Pos: 0},
				{Type: PLUS, Literal: "+", Pos: 2},
				{Type: IDENT, Literal: "b", Pos: 4},
			},
		},
		{
			input: `\frac{123}{x^2}`,
			expected: []Token{
				{Type: COMMAND, Literal: "frac", Pos: 0},
				{Type: LBRACE, Literal: "{", Pos: 5},
				{Type: NUMBER, Literal: "123", Pos: 6},
				{Type: RBRACE, Literal: "}", Pos: 9},
				{Type: LBRACE, Literal: "{", Pos: 10},
				{Type: IDENT, Literal: "x", Pos: 11},
				{Type: CARET, Literal: "^", Pos: 12},
				{Type: NUMBER, Literal: "2", Pos: 13},
				{Type: RBRACE, Literal: "}", Pos: 14},
			},
		},
		{
			input: "(a * -5.5)",
			expected: []Token{
				{Type: LPAREN, Literal: "(", Pos: 0},
				{Type: IDENT, Literal: "a", Pos: 1},
				{Type: ASTERISK, Literal: "*", Pos: 3},
				{Type: MINUS, Literal: "-", Pos: 5},
				{Type: NUMBER, Literal: "5.5", Pos: 6},
				{Type: RPAREN, Literal: ")", Pos: 9},
			},
		},
	}

	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		assert.Equal(t, tt.expected, tokens, "input %q", tt.input)
	}
}

func TestLexerTokenKinds(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"1 <= 2", []TokenType{NUMBER, LE, NUMBER}},
		{"1 >= 2", []TokenType{NUMBER, GE, NUMBER}},
		{"1 != 2", []TokenType{NUMBER, NE, NUMBER}},
		{"1 == 2", []TokenType{NUMBER, EQUALS, NUMBER}},
		{`a \le b`, []TokenType{IDENT, LE, IDENT}},
		{`a \land b`, []TokenType{IDENT, AND, IDENT}},
		{`a \lor b`, []TokenType{IDENT, OR, IDENT}},
		{`a \oplus b`, []TokenType{IDENT, XOR, IDENT}},
		{`\neg a`, []TokenType{NOT, IDENT}},
		{`a \implies b`, []TokenType{IDENT, IMPLIES, IDENT}},
		{`a \iff b`, []TokenType{IDENT, IFF, IDENT}},
		{`a \cdot b`, []TokenType{IDENT, CDOT, IDENT}},
		{`a \times b`, []TokenType{IDENT, TIMES, IDENT}},
		{"x!", []TokenType{IDENT, EXCLAMATION}},
		{"x_1", []TokenType{IDENT, UNDERSCORE, NUMBER}},
		{"|x|", []TokenType{BAR, IDENT, BAR}},
		{`\|x\|`, []TokenType{DBLBAR, IDENT, DBLBAR}},
		{"[a]", []TokenType{LBRACKET, IDENT, RBRACKET}},
		{"a, b & c", []TokenType{IDENT, COMMA, IDENT, AMPERSAND, IDENT}},
		{`a \\ b`, []TokenType{IDENT, ROWSEP, IDENT}},
		// Unicode operator glyphs.
		{"a ≤ b", []TokenType{IDENT, LE, IDENT}},
		{"a ≠ b", []TokenType{IDENT, NE, IDENT}},
		{"a ∧ b", []TokenType{IDENT, AND, IDENT}},
		{"a − b", []TokenType{IDENT, MINUS, IDENT}},
		{"a · b", []TokenType{IDENT, CDOT, IDENT}},
		{"a × b", []TokenType{IDENT, TIMES, IDENT}},
	}

	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		got := make([]TokenType, len(tokens))
		for i, tok := range tokens {
			got[i] = tok.Type
		}
		assert.Equal(t, tt.types, got, "input %q", tt.input)
	}
}

func TestLexerCommands(t *testing.T) {
	tokens := lexAll(t, `\alpha + \Psi`)
	require.Len(t, tokens, 3)
	assert.Equal(t, Token{Type: IDENT, Literal: "alpha", Pos: 0}, tokens[0])
	assert.Equal(t, IDENT, tokens[2].Type)
	assert.Equal(t, "Psi", tokens[2].Literal)

	tokens = lexAll(t, `\mathbf{X}`)
	require.Len(t, tokens, 1)
	assert.Equal(t, Token{Type: IDENT, Literal: "mathbf:X", Pos: 0}, tokens[0])

	tokens = lexAll(t, `\begin{matrix} 1 \end{matrix}`)
	require.Len(t, tokens, 3)
	assert.Equal(t, BEGIN, tokens[0].Type)
	assert.Equal(t, "matrix", tokens[0].Literal)
	assert.Equal(t, END, tokens[2].Type)
	assert.Equal(t, "matrix", tokens[2].Literal)

	tokens = lexAll(t, `\text{otherwise}`)
	require.Len(t, tokens, 1)
	assert.Equal(t, TEXT, tokens[0].Type)
	assert.Equal(t, "otherwise", tokens[0].Literal)
}

func TestLexerDropsSpacingAndSizing(t *testing.T) {
	tests := []string{
		`a \, b`,
		`a \; b`,
		`a \: b`,
		`a \! b`,
		`a \quad b`,
		`a \qquad b`,
		`a \ b`,
	}
	for _, input := range tests {
		tokens := lexAll(t, input)
		require.Len(t, tokens, 2, "input %q", input)
		assert.Equal(t, IDENT, tokens[0].Type)
		assert.Equal(t, IDENT, tokens[1].Type)
	}

	tokens := lexAll(t, `\left( a \right)`)
	require.Len(t, tokens, 3)
	assert.Equal(t, LPAREN, tokens[0].Type)
	assert.Equal(t, RPAREN, tokens[2].Type)

	tokens = lexAll(t, `\Bigg[ a \Bigg]`)
	require.Len(t, tokens, 3)
	assert.Equal(t, LBRACKET, tokens[0].Type)
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"6.02e23", "6.02e23"},
		{"1E-9", "1E-9"},
		{"2e+10", "2e+10"},
	}
	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		require.Len(t, tokens, 1, "input %q", tt.input)
		assert.Equal(t, NUMBER, tokens[0].Type)
		assert.Equal(t, tt.literal, tokens[0].Literal)
	}

	// "2e" alone is a product of 2 and Euler's constant, not a number.
	tokens := lexAll(t, "2e")
	require.Len(t, tokens, 2)
	assert.Equal(t, NUMBER, tokens[0].Type)
	assert.Equal(t, IDENT, tokens[1].Type)
}

func TestLexerKeywords(t *testing.T) {
	tokens := lexAll(t, "let x = 5")
	require.Len(t, tokens, 4)
	assert.Equal(t, TEXT, tokens[0].Type)
	assert.Equal(t, "let", tokens[0].Literal)

	// Bare letter runs split into single-letter identifiers.
	tokens = lexAll(t, "xy")
	require.Len(t, tokens, 2)
	assert.Equal(t, "x", tokens[0].Literal)
	assert.Equal(t, "y", tokens[1].Literal)

	// With multi-letter identifiers enabled, the run stays whole.
	tokens, err := Tokenize("xy", nil, true)
	require.Nil(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "xy", tokens[0].Literal)
}

func TestLexerErrors(t *testing.T) {
	_, err := Tokenize(`\unknowncmd{x}`, nil, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	_, err = Tokenize(`\sqr{x}`, nil, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Suggestion, `\sqrt`)

	_, err = Tokenize(`a \`, nil, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "lone backslash")

	_, err = Tokenize(`\begin{matrix`, nil, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unterminated environment name")

	_, err = Tokenize(strings.Repeat("1", MaxInputLength+1), nil, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "maximum length")
}

func TestLexerExtensionRule(t *testing.T) {
	rules := map[string]CommandRule{
		"myconst": func(name string, pos int) Token {
			return Token{Type: NUMBER, Literal: "42", Pos: pos}
		},
	}
	tokens, err := Tokenize(`\myconst + 1`, rules, false)
	require.Nil(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, NUMBER, tokens[0].Type)
	assert.Equal(t, "42", tokens[0].Literal)
}
