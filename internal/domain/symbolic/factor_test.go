package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// factored parses src and returns its factored form.
func factored(t *testing.T, en *Engine, src string) ast.Expr {
	t.Helper()
	out, err := en.Factor(parseExpr(t, src))
	require.NoError(t, err)
	return out
}

func TestFactorDifferenceOfSquares(t *testing.T) {
	en := NewEngine()
	got := factored(t, en, "x^2 - 9")
	// (x−3)(x+3): expanding the result recovers the input.
	back, err := en.Expand(got)
	require.NoError(t, err)
	want, err := en.Normalize(parseExpr(t, "x^2 - 9"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back), "got %#v", got)

	// The result is an actual product.
	_, isMul := got.(*ast.BinaryExpr)
	require.True(t, isMul)

	got = factored(t, en, "4x^2 - 25")
	back, err = en.Expand(got)
	require.NoError(t, err)
	want, err = en.Normalize(parseExpr(t, "4x^2 - 25"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back))

	got = factored(t, en, "x^2 - y^2")
	back, err = en.Expand(got)
	require.NoError(t, err)
	want, err = en.Normalize(parseExpr(t, "x^2 - y^2"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back))
}

func TestFactorPerfectSquare(t *testing.T) {
	en := NewEngine()
	got := factored(t, en, "x^2 + 2x + 1")
	pow, ok := got.(*ast.BinaryExpr)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "^", pow.Op)

	back, err := en.Expand(got)
	require.NoError(t, err)
	want, err := en.Normalize(parseExpr(t, "x^2 + 2x + 1"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back))

	got = factored(t, en, "x^2 - 6x + 9")
	pow, ok = got.(*ast.BinaryExpr)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "^", pow.Op)
	back, err = en.Expand(got)
	require.NoError(t, err)
	want, err = en.Normalize(parseExpr(t, "x^2 - 6x + 9"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back))
}

func TestFactorCommonNumeric(t *testing.T) {
	en := NewEngine()
	got := factored(t, en, "6x + 9y")
	mul, ok := got.(*ast.BinaryExpr)
	require.True(t, ok, "got %T", got)
	require.Equal(t, "*", mul.Op)
	lit, ok := mul.Left.(*ast.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, 3.0, lit.Value)

	back, err := en.Expand(got)
	require.NoError(t, err)
	want, err := en.Normalize(parseExpr(t, "6x + 9y"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, back))
}

func TestFactorFallsBackToNormalized(t *testing.T) {
	en := NewEngine()
	got := factored(t, en, "x^2 + x + 1")
	want, err := en.Normalize(parseExpr(t, "x^2 + x + 1"))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))
}
