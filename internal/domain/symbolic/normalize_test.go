package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/internal/domain/parser"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	p := parser.New(parser.DefaultConfig())
	expr, err := p.Parse(src)
	require.NoError(t, err, "parse %q", src)
	return expr
}

// normalizedEqual reports whether two sources normalize to the same
// canonical tree.
func normalizedEqual(t *testing.T, en *Engine, a, b string) bool {
	t.Helper()
	na, err := en.Normalize(parseExpr(t, a))
	require.NoError(t, err)
	nb, err := en.Normalize(parseExpr(t, b))
	require.NoError(t, err)
	return ast.Equal(na, nb)
}

func TestNormalizeCollapses(t *testing.T) {
	en := NewEngine()
	tests := []struct {
		input, want string
	}{
		{"0 + x", "x"},
		{"x + 0", "x"},
		{"1 * x", "x"},
		{"0 * x", "0"},
		{"x^0", "1"},
		{"x^1", "x"},
		{"x - x", "0"},
		{"x / x", "1"},
		{"x * x", "x^2"},
		{"x + x", "2x"},
		{"2 + 3", "5"},
		{"2 * 3 + 1", "7"},
		{"2^3", "8"},
		{"6 / 3", "2"},
		{"x + x + x", "3x"},
		{"2x + 3x", "5x"},
		{"x * x * x", "x^3"},
		{"x^2 * x^3", "x^5"},
	}
	for _, tt := range tests {
		assert.True(t, normalizedEqual(t, en, tt.input, tt.want),
			"%q should normalize like %q", tt.input, tt.want)
	}
}

func TestNormalizeCommutativeOrdering(t *testing.T) {
	en := NewEngine()
	// Operand order is canonical, so reordered sources agree.
	assert.True(t, normalizedEqual(t, en, "x + 1", "1 + x"))
	assert.True(t, normalizedEqual(t, en, "y + x", "x + y"))
	assert.True(t, normalizedEqual(t, en, "y * x * 2", "2 * x * y"))
	assert.True(t, normalizedEqual(t, en, "b + a + 3", "3 + a + b"))
}

func TestNormalizeAbsorbsNegation(t *testing.T) {
	en := NewEngine()
	got, err := en.Normalize(parseExpr(t, "-5"))
	require.NoError(t, err)
	lit, ok := got.(*ast.NumberLiteral)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, -5.0, lit.Value)

	// Double negation vanishes.
	assert.True(t, normalizedEqual(t, en, "-(-x)", "x"))
	// Subtraction of a negation is addition.
	assert.True(t, normalizedEqual(t, en, "x - (-y)", "x + y"))
}

func TestNormalizeIdempotent(t *testing.T) {
	en := NewEngine()
	for _, src := range []string{
		"2x + 3x + 1",
		"x * x + y",
		`\sin{x} + \sin{x}`,
		"(a + b) * c",
		"x^2 - y^2",
		"3 / (x + 1)",
	} {
		once, err := en.Normalize(parseExpr(t, src))
		require.NoError(t, err)
		twice, err := en.Normalize(once)
		require.NoError(t, err)
		assert.True(t, ast.Equal(once, twice), "normalize not idempotent for %q", src)
	}
}

func TestNormalizeDepthGuard(t *testing.T) {
	en := NewEngine()
	en.MaxDepth = 10
	deep := ast.Expr(&ast.Variable{Name: "x"})
	for i := 0; i < 50; i++ {
		deep = &ast.FunctionCall{Name: "sin", Arg: deep}
	}
	_, err := en.Normalize(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}
