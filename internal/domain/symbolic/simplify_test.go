package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

func simplified(t *testing.T, en *Engine, src string) ast.Expr {
	t.Helper()
	out, err := en.Simplify(parseExpr(t, src))
	require.NoError(t, err)
	return out
}

func assertSimplifiesTo(t *testing.T, en *Engine, src, want string) {
	t.Helper()
	got := simplified(t, en, src)
	wantExpr, err := en.Normalize(parseExpr(t, want))
	require.NoError(t, err)
	assert.True(t, ast.Equal(wantExpr, got), "%q should simplify like %q", src, want)
}

func TestSimplifyTrigIdentities(t *testing.T) {
	en := NewEngine()
	assertSimplifiesTo(t, en, `\sin{0}`, "0")
	assertSimplifiesTo(t, en, `\cos{0}`, "1")
	assertSimplifiesTo(t, en, `\tan{0}`, "0")
	assertSimplifiesTo(t, en, `\cos{-x}`, `\cos{x}`)

	// Odd parity pulls the sign out.
	got := simplified(t, en, `\sin{-x}`)
	want, err := en.Normalize(parseExpr(t, `-\sin{x}`))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))
}

func TestSimplifyPythagorean(t *testing.T) {
	en := NewEngine()
	assertSimplifiesTo(t, en, `\sin^2 x + \cos^2 x`, "1")
	// The identity matches over a generic argument subtree.
	assertSimplifiesTo(t, en, `\sin^2{2x} + \cos^2{2x}`, "1")
	assertSimplifiesTo(t, en, `\sin^2 x + \cos^2 x + 5`, "6")
	assertSimplifiesTo(t, en, `3\sin^2 x + 3\cos^2 x`, "3")
	// Mismatched arguments stay put.
	got := simplified(t, en, `\sin^2 x + \cos^2 y`)
	_, isNumber := got.(*ast.NumberLiteral)
	assert.False(t, isNumber)
}

func TestSimplifyLogarithms(t *testing.T) {
	en := NewEngine()
	assertSimplifiesTo(t, en, `\ln{1}`, "0")
	assertSimplifiesTo(t, en, `\ln{e}`, "1")
	assertSimplifiesTo(t, en, `\log{1}`, "0")

	// The exponent rule needs a positivity assumption.
	got := simplified(t, en, `\ln{a^b}`)
	_, stillLog := got.(*ast.FunctionCall)
	assert.True(t, stillLog, "without assumptions the log stays")

	en.Assumptions.Assume("a", TagPositive)
	assertSimplifiesTo(t, en, `\ln{a^b}`, `b \ln{a}`)

	en.Assumptions.Assume("b", TagPositive)
	assertSimplifiesTo(t, en, `\ln{a b}`, `\ln{a} + \ln{b}`)
	assertSimplifiesTo(t, en, `\ln{\frac{a}{b}}`, `\ln{a} - \ln{b}`)
}

func TestSimplifyPowers(t *testing.T) {
	en := NewEngine()
	assertSimplifiesTo(t, en, "(x^2)^3", "x^6")
	assertSimplifiesTo(t, en, `\frac{1}{\frac{1}{x}}`, "x")
	assertSimplifiesTo(t, en, "e^0", "1")
	assertSimplifiesTo(t, en, "x^1 + 0", "x")
}

func TestSimplifyIdempotent(t *testing.T) {
	en := NewEngine()
	en.Assumptions.Assume("a", TagPositive)
	for _, src := range []string{
		`\sin^2 x + \cos^2 x + y`,
		`\ln{a^2}`,
		"2x + 3x",
		`\sin{-x} + \cos{-x}`,
		"(x^2)^3 / x",
	} {
		once := simplified(t, en, src)
		twice, err := en.Simplify(once)
		require.NoError(t, err)
		assert.True(t, ast.Equal(once, twice), "simplify not idempotent for %q", src)
	}
}
