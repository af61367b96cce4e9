package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

func assertExpandsTo(t *testing.T, en *Engine, src, want string) {
	t.Helper()
	got, err := en.Expand(parseExpr(t, src))
	require.NoError(t, err)
	wantExpr, err := en.Normalize(parseExpr(t, want))
	require.NoError(t, err)
	assert.True(t, ast.Equal(wantExpr, got), "%q should expand like %q", src, want)
}

func TestExpandProducts(t *testing.T) {
	en := NewEngine()
	assertExpandsTo(t, en, "(a + b)(c + d)", "ac + ad + bc + bd")
	assertExpandsTo(t, en, "(x + 1)(x + 2)", "x^2 + 3x + 2")
	assertExpandsTo(t, en, "2(x + 3)", "2x + 6")
	assertExpandsTo(t, en, "(x - 1)(x + 1)", "x^2 - 1")
}

func TestExpandBinomialTheorem(t *testing.T) {
	en := NewEngine()
	assertExpandsTo(t, en, "(a + b)^2", "a^2 + 2ab + b^2")
	assertExpandsTo(t, en, "(a + b)^3", "a^3 + 3a^2 b + 3a b^2 + b^3")
	assertExpandsTo(t, en, "(x - 2)^2", "x^2 - 4x + 4")
	assertExpandsTo(t, en, "(a + b)^0", "1")
}

func TestExpandNested(t *testing.T) {
	en := NewEngine()
	// Expansion applies recursively to all subtrees.
	assertExpandsTo(t, en, `\sin{(a + b)(c + d)}`, `\sin{ac + ad + bc + bd}`)
	assertExpandsTo(t, en, "((a + b)^2)(c + d)",
		"a^2 c + a^2 d + 2abc + 2abd + b^2 c + b^2 d")
}

func TestExpandTrig(t *testing.T) {
	en := NewEngine()
	got, err := en.ExpandTrig(parseExpr(t, `\sin{2x}`))
	require.NoError(t, err)
	want, err := en.Normalize(parseExpr(t, `2 \sin{x} \cos{x}`))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))

	got, err = en.ExpandTrig(parseExpr(t, `\cos{2x}`))
	require.NoError(t, err)
	want, err = en.Expand(parseExpr(t, `\cos^2 x - \sin^2 x`))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))

	got, err = en.ExpandTrig(parseExpr(t, `\sin{3x}`))
	require.NoError(t, err)
	want, err = en.Expand(parseExpr(t, `3\sin{x} - 4\sin^3 x`))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))

	// Untouched arguments pass through.
	got, err = en.ExpandTrig(parseExpr(t, `\sin{x}`))
	require.NoError(t, err)
	want, err = en.Normalize(parseExpr(t, `\sin{x}`))
	require.NoError(t, err)
	assert.True(t, ast.Equal(want, got))
}

func TestExpandIdempotent(t *testing.T) {
	en := NewEngine()
	for _, src := range []string{
		"(a + b)^2",
		"(x + 1)(x + 2)(x + 3)",
		"(a + b)(c + d) + 1",
	} {
		once, err := en.Expand(parseExpr(t, src))
		require.NoError(t, err)
		twice, err := en.Expand(once)
		require.NoError(t, err)
		assert.True(t, ast.Equal(once, twice), "expand not idempotent for %q", src)
	}
}
