package texmath

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

func num(t *testing.T, s *Service, src string, locals map[string]float64) float64 {
	t.Helper()
	res, err := s.Evaluate(src, Numbers(locals))
	require.NoError(t, err, "evaluate %q", src)
	n, err := res.AsNumeric()
	require.NoError(t, err, "result of %q is %s", src, res.Kind())
	return n
}

func TestServiceSeeds(t *testing.T) {
	s := New()

	assert.InDelta(t, 14, num(t, s, "2 + 3 * 4", nil), 1e-9)
	assert.InDelta(t, 5, num(t, s, `\sqrt{x^2 + y^2}`, map[string]float64{"x": 3, "y": 4}), 1e-9)
	assert.InDelta(t, 10, num(t, s, `\binom{5}{2}`, nil), 1e-9)
	assert.InDelta(t, 120, num(t, s, `\binom{10}{3}`, nil), 1e-9)
	assert.InDelta(t, -2, num(t, s, `\det(\begin{matrix}1&2\\3&4\end{matrix})`, nil), 1e-9)
	assert.InDelta(t, 15, num(t, s, `\sum_{i=1}^{5} i`, nil), 1e-9)
	assert.InDelta(t, 24, num(t, s, `\prod_{i=1}^{4} i`, nil), 1e-9)

	// differentiate("x^3", "x") evaluated at x = 2 is 12.
	deriv, err := s.Differentiate("x^3", "x", 1)
	require.NoError(t, err)
	res, err := s.EvaluateParsed(deriv, Numbers(map[string]float64{"x": 2}))
	require.NoError(t, err)
	n, _ := res.AsNumeric()
	assert.InDelta(t, 12, n, 1e-9)

	// sqrt(-1) branches to complex by default, NaN in real-only mode.
	res, err = s.Evaluate(`\sqrt{-1}`, nil)
	require.NoError(t, err)
	require.Equal(t, value.Complex, res.Kind())
	c, _ := res.AsComplex()
	assert.InDelta(t, 1, imag(c), 1e-12)

	realOnly := New(WithRealOnly(true))
	res, err = realOnly.Evaluate(`\sqrt{-1}`, nil)
	require.NoError(t, err)
	assert.True(t, res.IsNaN())

	// \frac12 round-trips like \frac{1}{2}; \frac123 is ambiguous.
	expr, err := s.Parse(`\frac12`)
	require.NoError(t, err)
	printed, err := s.ToLatex(expr)
	require.NoError(t, err)
	reference, err := s.Parse(`\frac{1}{2}`)
	require.NoError(t, err)
	reparsed, err := s.Parse(printed)
	require.NoError(t, err)
	assert.True(t, ast.Equal(reference, reparsed))

	_, err = s.Parse(`\frac123`)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "use braces")
}

func TestServiceValidate(t *testing.T) {
	s := New()
	v := s.Validate("2 + 2")
	assert.True(t, v.Valid)
	assert.Empty(t, v.SubErrors)

	v = s.Validate("2 +")
	require.False(t, v.Valid)
	assert.NotEmpty(t, v.Message)
	assert.NotEmpty(t, v.SubErrors)

	assert.True(t, s.IsValid("x^2"))
	assert.False(t, s.IsValid("(x"))

	// Unknown commands surface a nearest-command suggestion.
	v = s.Validate(`\sqr{4}`)
	require.False(t, v.Valid)
	assert.Contains(t, v.Suggestion, `\sqrt`)
}

func TestServiceConfigGetters(t *testing.T) {
	s := New(
		WithRealOnly(true),
		WithMaxDepth(123),
		WithCacheSize(7),
		WithImplicitMultiplication(false),
	)
	assert.True(t, s.RealOnly())
	assert.Equal(t, 123, s.MaxRecursionDepth())
	assert.Equal(t, 7, s.ParsedExpressionCacheSize())
	assert.False(t, s.AllowImplicitMultiplication())
}

func TestServiceCache(t *testing.T) {
	s := New(WithCacheSize(2))
	a, err := s.Parse("1 + 1")
	require.NoError(t, err)
	b, err := s.Parse("1 + 1")
	require.NoError(t, err)
	// Cache hits hand back the same tree.
	assert.Same(t, a.(*ast.BinaryExpr), b.(*ast.BinaryExpr))

	// Eviction is least-recently-used.
	_, err = s.Parse("2 + 2")
	require.NoError(t, err)
	_, err = s.Parse("3 + 3")
	require.NoError(t, err)
	assert.Equal(t, 2, s.cache.len())

	// Oversized inputs bypass the cache.
	long := "1 + " + strings.Repeat("1 + ", MaxCacheEntryLength/4) + "1"
	_, err = s.Parse(long)
	require.NoError(t, err)
	assert.Equal(t, 2, s.cache.len())
}

func TestServiceEnvironmentLifecycle(t *testing.T) {
	s := New()
	_, err := s.Evaluate("let a = 6", nil)
	require.NoError(t, err)
	assert.InDelta(t, 36, num(t, s, "a^2", nil), 1e-9)

	_, err = s.Evaluate("f(x) = 2x", nil)
	require.NoError(t, err)
	assert.InDelta(t, 14, num(t, s, "f(7)", nil), 1e-9)

	s.ClearEnvironment()
	_, err = s.Evaluate("a", nil)
	require.Error(t, err)
	assert.True(t, IsEvaluationError(err))

	// Constants are not user-shadowable through clearing.
	assert.InDelta(t, math.Pi, num(t, s, `\pi`, nil), 1e-12)
}

func TestServiceDepthSafety(t *testing.T) {
	s := New(WithMaxDepth(40))
	deep := strings.Repeat("(", 60) + "1" + strings.Repeat(")", 60)

	_, err := s.Parse(deep)
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	// Evaluate and every export visitor fail structurally, not by
	// blowing the goroutine stack.
	nested := ast.Expr(&ast.NumberLiteral{Value: 1})
	for i := 0; i < 600; i++ {
		nested = &ast.AbsExpr{Arg: nested}
	}
	_, err = s.EvaluateParsed(nested, nil)
	require.Error(t, err)
	_, err = s.ToLatex(nested)
	require.Error(t, err)
	_, err = s.ToMathML(nested)
	require.Error(t, err)
	_, err = s.ToJSON(nested)
	require.Error(t, err)
	_, err = s.ToSymPy(nested)
	require.Error(t, err)
}

func TestServiceRealOnlyConsistency(t *testing.T) {
	s := New(WithRealOnly(true))
	sources := []string{
		`\sqrt{-1}`,
		`\sqrt{-4} + 1`,
		`\ln{-5}`,
		`(-2)^{0.5}`,
		`\arcsin{2}`,
	}
	for _, src := range sources {
		res, err := s.Evaluate(src, nil)
		if err != nil {
			continue
		}
		assert.NotEqual(t, value.Complex, res.Kind(), "src %q produced a complex result in real-only mode", src)
	}
}

func TestServiceSymbolicPreservation(t *testing.T) {
	s := New()
	locals := map[string]float64{"a": 1.7, "b": -0.4, "c": 2.3, "d": 0.9, "x": 1.3}

	// eval(expand(e)) and eval(factor(e)) match eval(e).
	for _, src := range []string{
		"(a + b)^2",
		"(a + b)(c + d)",
		"(x + 1)(x + 2)",
		"x^2 - 9",
		"x^2 + 2x + 1",
		"6x + 9a",
	} {
		base := num(t, s, src, locals)

		expanded, err := s.Expand(src)
		require.NoError(t, err, "expand %q", src)
		res, err := s.EvaluateParsed(expanded, Numbers(locals))
		require.NoError(t, err)
		n, _ := res.AsNumeric()
		assert.InDelta(t, base, n, 1e-9, "expand changed the value of %q", src)

		factoredExpr, err := s.Factor(src)
		require.NoError(t, err, "factor %q", src)
		res, err = s.EvaluateParsed(factoredExpr, Numbers(locals))
		require.NoError(t, err)
		n, _ = res.AsNumeric()
		assert.InDelta(t, base, n, 1e-9, "factor changed the value of %q", src)
	}
}

func TestServiceDifferentiationNumericIdentity(t *testing.T) {
	s := New()
	// The symbolic derivative agrees with a central finite difference.
	cases := []struct {
		src string
		at  float64
	}{
		{"x^3", 2},
		{`\sin{x}`, 0.7},
		{`\exp{x} + x^2`, 1.1},
		{`\ln{x}`, 3},
		{`x \cos{x}`, 0.5},
		{`\sqrt{x}`, 4},
	}
	const h = 1e-5
	for _, tc := range cases {
		deriv, err := s.Differentiate(tc.src, "x", 1)
		require.NoError(t, err, "differentiate %q", tc.src)
		res, err := s.EvaluateParsed(deriv, Numbers(map[string]float64{"x": tc.at}))
		require.NoError(t, err)
		symbolic, err := res.AsNumeric()
		require.NoError(t, err)

		upper := num(t, s, tc.src, map[string]float64{"x": tc.at + h})
		lower := num(t, s, tc.src, map[string]float64{"x": tc.at - h})
		estimate := (upper - lower) / (2 * h)
		assert.InEpsilon(t, estimate, symbolic, 1e-4, "derivative of %q at %g", tc.src, tc.at)
	}
}

func TestServiceSimplifyIdempotence(t *testing.T) {
	s := New()
	for _, src := range []string{
		`\sin^2 x + \cos^2 x`,
		"2x + 3x + 0",
		"x * 1 + 0 * y",
		`\ln{1} + e^0`,
	} {
		once, err := s.Simplify(src)
		require.NoError(t, err)
		twice, err := s.SimplifyExpr(once)
		require.NoError(t, err)
		assert.True(t, ast.Equal(once, twice), "simplify not idempotent for %q", src)
	}
}

func TestServiceSolve(t *testing.T) {
	s := New()
	roots, err := s.Solve("x^2 - 5x + 6", "x")
	require.NoError(t, err)
	require.Len(t, roots, 2)

	// Real-only mode drops complex roots.
	realOnly := New(WithRealOnly(true))
	roots, err = realOnly.Solve("x^2 + 1", "x")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestServiceAssumptions(t *testing.T) {
	s := New()
	// Without assumptions the logarithm stays unexpanded.
	expr, err := s.Simplify(`\ln{a^2}`)
	require.NoError(t, err)
	_, isCall := expr.(*ast.FunctionCall)
	assert.True(t, isCall)

	s.Assume("a", "positive")
	expr, err = s.Simplify(`\ln{a^2}`)
	require.NoError(t, err)
	_, isCall = expr.(*ast.FunctionCall)
	assert.False(t, isCall, "positive assumption should pull the exponent out")

	s.ClearAssumptions()
	expr, err = s.Simplify(`\ln{a^2}`)
	require.NoError(t, err)
	_, isCall = expr.(*ast.FunctionCall)
	assert.True(t, isCall)
}

func TestServiceExtensions(t *testing.T) {
	ext := NewExtensions()
	ext.RegisterCommand("answer", func(name string, pos int) CommandToken {
		return CommandToken{Kind: TokenNumber, Text: "42"}
	})
	ext.RegisterCommand("twice", func(name string, pos int) CommandToken {
		return CommandToken{Kind: TokenFunction, Text: "twice"}
	})
	ext.RegisterEvaluator(func(e ast.Expr, locals map[string]value.Result, recur Recur) (value.Result, bool, error) {
		fc, ok := e.(*ast.FunctionCall)
		if !ok || fc.Name != "twice" {
			return value.Result{}, false, nil
		}
		inner, err := recur(fc.Arg)
		if err != nil {
			return value.Result{}, true, err
		}
		n, err := inner.AsNumeric()
		if err != nil {
			return value.Result{}, true, err
		}
		return value.NewNumeric(2 * n), true, nil
	})

	s := New(WithExtensions(ext))
	assert.InDelta(t, 43, num(t, s, `\answer + 1`, nil), 1e-9)
	assert.InDelta(t, 10, num(t, s, `\twice{5}`, nil), 1e-9)

	// Without the registry the commands stay unknown.
	plain := New()
	_, err := plain.Evaluate(`\answer`, nil)
	require.Error(t, err)
	assert.True(t, IsTokenizationError(err))
}

func TestServiceRoundTripLaw(t *testing.T) {
	s := New()
	for _, src := range []string{
		"2 + 3 * 4",
		`\frac{x}{y} + \sqrt{z}`,
		`\sum_{i=1}^{n} {i^2}`,
		`\begin{pmatrix} 1 & 2 \\ 3 & 4 \end{pmatrix}`,
	} {
		first, err := s.Parse(src)
		require.NoError(t, err)
		printed, err := s.ToLatex(first)
		require.NoError(t, err)
		second, err := s.Parse(printed)
		require.NoError(t, err)
		assert.True(t, ast.Equal(first, second), "round trip failed for %q via %q", src, printed)
	}
}
