package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

func parseOne(t *testing.T, input string) ast.Expr {
	t.Helper()
	p := New(DefaultConfig())
	expr, err := p.Parse(input)
	require.NoError(t, err, "parse %q", input)
	return expr
}

func parseErr(t *testing.T, input string) error {
	t.Helper()
	p := New(DefaultConfig())
	_, err := p.Parse(input)
	require.Error(t, err, "parse %q should fail", input)
	return err
}

// Helper to test number literals.
func testNumberLiteral(t *testing.T, expr ast.Expr, expected float64) bool {
	t.Helper()
	n, ok := expr.(*ast.NumberLiteral)
	if !ok {
		t.Errorf("expr not *ast.NumberLiteral. got=%T", expr)
		return false
	}
	if n.Value != expected {
		t.Errorf("n.Value not %f. got=%f", expected, n.Value)
		return false
	}
	return true
}

// Helper to test variable identifiers.
func testVariable(t *testing.T, expr ast.Expr, expected string) bool {
	t.Helper()
	v, ok := expr.(*ast.Variable)
	if !ok {
		t.Errorf("expr not *ast.Variable. got=%T", expr)
		return false
	}
	if v.Name != expected {
		t.Errorf("v.Name not %s. got=%s", expected, v.Name)
		return false
	}
	return true
}

func binary(t *testing.T, expr ast.Expr, op string) *ast.BinaryExpr {
	t.Helper()
	b, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok, "expr not *ast.BinaryExpr. got=%T", expr)
	require.Equal(t, op, b.Op)
	return b
}

func TestParsePrecedence(t *testing.T) {
	// 2 + 3 * 4 groups the product first.
	expr := parseOne(t, "2 + 3 * 4")
	add := binary(t, expr, "+")
	testNumberLiteral(t, add.Left, 2)
	mul := binary(t, add.Right, "*")
	testNumberLiteral(t, mul.Left, 3)
	testNumberLiteral(t, mul.Right, 4)

	// Power is right-associative.
	expr = parseOne(t, "2 ^ 3 ^ 2")
	pow := binary(t, expr, "^")
	testNumberLiteral(t, pow.Left, 2)
	inner := binary(t, pow.Right, "^")
	testNumberLiteral(t, inner.Left, 3)
	testNumberLiteral(t, inner.Right, 2)

	// Unary minus binds looser than power.
	expr = parseOne(t, "-x^2")
	neg, ok := expr.(*ast.UnaryExpr)
	require.True(t, ok, "got %T", expr)
	binary(t, neg.Operand, "^")

	// Parentheses override precedence.
	expr = parseOne(t, "(2 + 3) * 4")
	mul = binary(t, expr, "*")
	binary(t, mul.Left, "+")
}

func TestParseImplicitMultiplication(t *testing.T) {
	expr := parseOne(t, "2x")
	mul := binary(t, expr, "*")
	testNumberLiteral(t, mul.Left, 2)
	testVariable(t, mul.Right, "x")

	expr = parseOne(t, "xy")
	mul = binary(t, expr, "*")
	testVariable(t, mul.Left, "x")
	testVariable(t, mul.Right, "y")

	expr = parseOne(t, "2(x + 1)")
	mul = binary(t, expr, "*")
	testNumberLiteral(t, mul.Left, 2)
	binary(t, mul.Right, "+")

	// Implicit multiplication binds like explicit multiplication.
	expr = parseOne(t, "2x + 1")
	add := binary(t, expr, "+")
	binary(t, add.Left, "*")

	// Disabled: adjacent letters become one multi-letter variable.
	p := New(Config{ImplicitMultiplication: false})
	multi, err := p.Parse("foo + 1")
	require.NoError(t, err)
	add = binary(t, multi, "+")
	testVariable(t, add.Left, "foo")
}

func TestParseVariableCall(t *testing.T) {
	// A variable applied to an argument list parses as a call; the
	// evaluator decides between function application and product.
	expr := parseOne(t, "f(3)")
	fc, ok := expr.(*ast.FunctionCall)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "f", fc.Name)
	testNumberLiteral(t, fc.Arg, 3)

	expr = parseOne(t, "g(1, 2)")
	fc, ok = expr.(*ast.FunctionCall)
	require.True(t, ok, "got %T", expr)
	require.Len(t, fc.Args, 1)
}

func TestParseFrac(t *testing.T) {
	expr := parseOne(t, `\frac{1}{2}`)
	div := binary(t, expr, "/")
	testNumberLiteral(t, div.Left, 1)
	testNumberLiteral(t, div.Right, 2)

	// Braceless forms with two single tokens.
	assert.True(t, ast.Equal(parseOne(t, `\frac12`), parseOne(t, `\frac{1}{2}`)))
	assert.True(t, ast.Equal(parseOne(t, `\frac xy`), parseOne(t, `\frac{x}{y}`)))
	assert.True(t, ast.Equal(parseOne(t, `\frac1x`), parseOne(t, `\frac{1}{x}`)))

	// Three or more digits are ambiguous.
	err := parseErr(t, `\frac123`)
	assert.Contains(t, err.Error(), "use braces")
}

func TestParseDerivativeTemplate(t *testing.T) {
	expr := parseOne(t, `\frac{d}{dx}{x^2}`)
	d, ok := expr.(*ast.DerivativeExpr)
	require.True(t, ok, "got %T", expr)
	assert.False(t, d.IsPartial)
	assert.Equal(t, "x", d.Var)
	assert.Equal(t, 1, d.Order)
	binary(t, d.Body, "^")

	expr = parseOne(t, `\frac{d^{2}}{dx^{2}}(x^3)`)
	d, ok = expr.(*ast.DerivativeExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, 2, d.Order)

	expr = parseOne(t, `\frac{\partial}{\partial y}{x y}`)
	d, ok = expr.(*ast.DerivativeExpr)
	require.True(t, ok, "got %T", expr)
	assert.True(t, d.IsPartial)
	assert.Equal(t, "y", d.Var)
}

func TestParseSqrtAndLog(t *testing.T) {
	expr := parseOne(t, `\sqrt{x}`)
	fc, ok := expr.(*ast.FunctionCall)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "sqrt", fc.Name)
	assert.Nil(t, fc.Index)

	expr = parseOne(t, `\sqrt[3]{x}`)
	fc = expr.(*ast.FunctionCall)
	require.NotNil(t, fc.Index)
	testNumberLiteral(t, fc.Index, 3)

	expr = parseOne(t, `\log_{2}{x}`)
	fc = expr.(*ast.FunctionCall)
	assert.Equal(t, "log", fc.Name)
	require.NotNil(t, fc.Base)
	testNumberLiteral(t, fc.Base, 2)

	// Bare \log takes the next primary.
	expr = parseOne(t, `\log x`)
	fc = expr.(*ast.FunctionCall)
	assert.Nil(t, fc.Base)
	testVariable(t, fc.Arg, "x")
}

func TestParseSumProdIntegralLimit(t *testing.T) {
	expr := parseOne(t, `\sum_{i=1}^{5} i`)
	sum, ok := expr.(*ast.SumExpr)
	require.True(t, ok, "got %T", expr)
	assert.False(t, sum.IsProduct)
	assert.Equal(t, "i", sum.Var)
	testNumberLiteral(t, sum.Lower, 1)
	testNumberLiteral(t, sum.Upper, 5)
	testVariable(t, sum.Body, "i")

	expr = parseOne(t, `\prod_{k=1}^{4} k`)
	sum = expr.(*ast.SumExpr)
	assert.True(t, sum.IsProduct)

	expr = parseOne(t, `\int_{0}^{1} {x^2} dx`)
	integral, ok := expr.(*ast.IntegralExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "x", integral.Var)
	assert.False(t, integral.Closed)
	require.NotNil(t, integral.Lower)

	// Indefinite integral with a bare body.
	expr = parseOne(t, `\int x^2 dx`)
	integral = expr.(*ast.IntegralExpr)
	assert.Nil(t, integral.Lower)
	binary(t, integral.Body, "^")

	expr = parseOne(t, `\oint_{0}^{1} {x} dx`)
	integral = expr.(*ast.IntegralExpr)
	assert.True(t, integral.Closed)

	expr = parseOne(t, `\iint {x y} dx dy`)
	multi, ok := expr.(*ast.MultiIntegralExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, 2, multi.Order)
	assert.Equal(t, []string{"x", "y"}, multi.Vars)

	expr = parseOne(t, `\lim_{x \to 0} x`)
	lim, ok := expr.(*ast.LimitExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "x", lim.Var)
	assert.Equal(t, "", lim.Side)

	expr = parseOne(t, `\lim_{x \to 0^+} x`)
	lim = expr.(*ast.LimitExpr)
	assert.Equal(t, "+", lim.Side)
}

func TestParseBinomAbsVector(t *testing.T) {
	expr := parseOne(t, `\binom{5}{2}`)
	b, ok := expr.(*ast.BinomExpr)
	require.True(t, ok, "got %T", expr)
	testNumberLiteral(t, b.N, 5)
	testNumberLiteral(t, b.K, 2)

	expr = parseOne(t, `|x - 1|`)
	abs, ok := expr.(*ast.AbsExpr)
	require.True(t, ok, "got %T", expr)
	binary(t, abs.Arg, "-")

	// Nested bars: absolute value of an absolute value.
	expr = parseOne(t, `||x||`)
	abs, ok = expr.(*ast.AbsExpr)
	require.True(t, ok, "got %T", expr)
	_, ok = abs.Arg.(*ast.AbsExpr)
	assert.True(t, ok)

	expr = parseOne(t, `\vec{1, 2, 3}`)
	vec, ok := expr.(*ast.VectorExpr)
	require.True(t, ok, "got %T", expr)
	assert.Len(t, vec.Components, 3)
	assert.False(t, vec.Unit)

	expr = parseOne(t, `\hat{1, 0}`)
	vec = expr.(*ast.VectorExpr)
	assert.True(t, vec.Unit)

	expr = parseOne(t, `x!`)
	_, ok = expr.(*ast.FactorialExpr)
	assert.True(t, ok)
}

func TestParseMatrixEnvironments(t *testing.T) {
	for _, env := range []string{"matrix", "pmatrix", "bmatrix", "Bmatrix", "vmatrix", "Vmatrix"} {
		src := `\begin{` + env + `} 1 & 2 \\ 3 & 4 \end{` + env + `}`
		expr := parseOne(t, src)
		m, ok := expr.(*ast.MatrixExpr)
		require.True(t, ok, "env %s got %T", env, expr)
		assert.Equal(t, env, m.Style)
		require.Len(t, m.Rows, 2)
		require.Len(t, m.Rows[0], 2)
	}

	// Unequal row widths fail.
	err := parseErr(t, `\begin{matrix} 1 & 2 \\ 3 \end{matrix}`)
	assert.Contains(t, err.Error(), "cells")

	// Mismatched environment names fail.
	err = parseErr(t, `\begin{matrix} 1 \end{pmatrix}`)
	assert.Contains(t, err.Error(), "mismatched environment")

	// Unterminated environments fail at tokenization or parse.
	p := New(DefaultConfig())
	_, perr := p.Parse(`\begin{matrix} 1 & 2`)
	require.Error(t, perr)
}

func TestParseCases(t *testing.T) {
	expr := parseOne(t, `\begin{cases} x & x > 0 \\ -x & \text{otherwise} \end{cases}`)
	pw, ok := expr.(*ast.PiecewiseExpr)
	require.True(t, ok, "got %T", expr)
	require.Len(t, pw.Cases, 2)
	require.NotNil(t, pw.Cases[0].Condition)
	assert.Nil(t, pw.Cases[1].Condition)

	// otherwise anywhere but last fails.
	err := parseErr(t, `\begin{cases} x & \text{otherwise} \\ y & x > 0 \end{cases}`)
	assert.Contains(t, err.Error(), "otherwise")
}

func TestParseComparisonsAndLogic(t *testing.T) {
	expr := parseOne(t, "x < 5")
	cmp, ok := expr.(*ast.Comparison)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "<", cmp.Op)

	expr = parseOne(t, "1 < x <= 5")
	chain, ok := expr.(*ast.ChainedComparison)
	require.True(t, ok, "got %T", expr)
	require.Len(t, chain.Exprs, 3)
	assert.Equal(t, []string{"<", "<="}, chain.Ops)

	expr = parseOne(t, `x > 0 \land x < 1`)
	logic, ok := expr.(*ast.LogicExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "and", logic.Op)

	// xor binds tighter than or.
	expr = parseOne(t, `a \lor b \oplus c`)
	logic = expr.(*ast.LogicExpr)
	assert.Equal(t, "or", logic.Op)
	inner, ok := logic.Operands[1].(*ast.LogicExpr)
	require.True(t, ok)
	assert.Equal(t, "xor", inner.Op)

	// Implication is right-associative.
	expr = parseOne(t, `a \implies b \implies c`)
	logic = expr.(*ast.LogicExpr)
	assert.Equal(t, "implies", logic.Op)
	inner, ok = logic.Operands[1].(*ast.LogicExpr)
	require.True(t, ok)
	assert.Equal(t, "implies", inner.Op)
}

func TestParseTopLevelForms(t *testing.T) {
	expr := parseOne(t, "let a = 5")
	assign, ok := expr.(*ast.AssignmentExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "a", assign.Name)
	testNumberLiteral(t, assign.Value, 5)

	expr = parseOne(t, "f(x, y) = x + y")
	def, ok := expr.(*ast.FunctionDefExpr)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "f", def.Name)
	assert.Equal(t, []string{"x", "y"}, def.Params)
	binary(t, def.Body, "+")

	expr = parseOne(t, "x^2, x > 0")
	cond, ok := expr.(*ast.ConditionalExpr)
	require.True(t, ok, "got %T", expr)
	binary(t, cond.Value, "^")
	_, ok = cond.Condition.(*ast.Comparison)
	assert.True(t, ok)
}

func TestParseSubscriptsAndTranspose(t *testing.T) {
	expr := parseOne(t, "x_1")
	testVariable(t, expr, "x_1")

	expr = parseOne(t, "x_{12}")
	testVariable(t, expr, "x_12")

	expr = parseOne(t, "A^T")
	fc, ok := expr.(*ast.FunctionCall)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "transpose", fc.Name)
	testVariable(t, fc.Arg, "A")
}

func TestParseFunctionForms(t *testing.T) {
	// \sin^2 x squares the function value.
	expr := parseOne(t, `\sin^2 x`)
	pow := binary(t, expr, "^")
	fc, ok := pow.Left.(*ast.FunctionCall)
	require.True(t, ok, "got %T", pow.Left)
	assert.Equal(t, "sin", fc.Name)

	// \sin^{-1} is the inverse function.
	expr = parseOne(t, `\sin^{-1} x`)
	fc, ok = expr.(*ast.FunctionCall)
	require.True(t, ok, "got %T", expr)
	assert.Equal(t, "arcsin", fc.Name)

	expr = parseOne(t, `\operatorname{mod}(7, 3)`)
	fc = expr.(*ast.FunctionCall)
	assert.Equal(t, "mod", fc.Name)
	require.Len(t, fc.Args, 1)

	expr = parseOne(t, `\min(1, 2, 3)`)
	fc = expr.(*ast.FunctionCall)
	assert.Equal(t, "min", fc.Name)
	require.Len(t, fc.Args, 2)

	expr = parseOne(t, `\nabla {x^2 + y^2}`)
	_, ok = expr.(*ast.GradientExpr)
	assert.True(t, ok)
}

func TestParseDepthLimit(t *testing.T) {
	p := New(Config{ImplicitMultiplication: true, MaxDepth: 30})
	deep := strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40)
	_, err := p.Parse(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting depth")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"", "empty expression"},
		{"(1 + 2", "expected"},
		{"1 +", "empty expression"},
		{`\sqrt`, "missing argument"},
		{`\binom{1}`, "braced arguments"},
		{"1 2 3 )", "unexpected token"},
	}
	for _, tt := range tests {
		err := parseErr(t, tt.input)
		assert.Contains(t, err.Error(), tt.message, "input %q", tt.input)
	}
}

func TestParseAllRecovery(t *testing.T) {
	p := New(DefaultConfig())
	expr, errs := p.ParseAll(`1 + , 2 + 2`)
	assert.NotEmpty(t, errs)
	_ = expr

	expr, errs = p.ParseAll("3 + 4")
	assert.Empty(t, errs)
	require.NotNil(t, expr)
}
