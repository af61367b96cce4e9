package export

import (
	"strings"
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

// roundTripSources is the corpus for the round-trip law: for every
// accepted source, parse(print(parse(s))) equals parse(s).
var roundTripSources = []string{
	"2 + 3 * 4",
	"x^2 - 1",
	"2 ^ 3 ^ 2",
	"-x + 1",
	"2x + 3y",
	`\frac{1}{2}`,
	`\frac12`,
	`\frac{x + 1}{x - 1}`,
	`\sqrt{x}`,
	`\sqrt[3]{x + 1}`,
	`\log_{2}{x}`,
	`\ln{x}`,
	`\sin{x} + \cos{x}`,
	`\sin{2x}^2`,
	"|x - 1|",
	"5!",
	"x_1 + x_2",
	`\alpha + \beta`,
	`\mathbf{X} + 1`,
	`x \cdot y`,
	`\vec{1, 2} \times \vec{3, 4}`,
	"x < 5",
	"1 < x <= 5",
	`x > 0 \land x < 1`,
	`\neg (x > 0)`,
	`a \implies b \implies c`,
	`a \iff b \lor c`,
	`\sum_{i=1}^{5} i`,
	`\prod_{k=1}^{4} k`,
	`\sum_{i=1}^{n} i + 1`,
	`2 + \sum_{i=1}^{n} {i^2}`,
	`\int_{0}^{1} {x^2} dx`,
	`\int {x} dx`,
	`\oint_{0}^{1} {x} dx`,
	`\iint {x y} dx dy`,
	`\lim_{x \to 0} {x}`,
	`\lim_{x \to 0^+} {x}`,
	`\frac{d}{dx}{x^2}`,
	`\frac{d^{2}}{dx^{2}}{x^3}`,
	`\frac{\partial}{\partial y}{x y}`,
	`\nabla {x^2 + y^2}`,
	`\binom{5}{2}`,
	`\begin{pmatrix} 1 & 2 \\ 3 & 4 \end{pmatrix}`,
	`\begin{vmatrix} a & b \\ c & d \end{vmatrix}`,
	`\begin{cases} x & x > 0 \\ -x & \text{otherwise} \end{cases}`,
	`\vec{1, 2, 3}`,
	`\hat{1, 0}`,
	"let a = 5",
	"f(x, y) = x + y",
	"x^2, x > 0",
	"A^T",
	`\min(1, 2)`,
	`\operatorname{mod}(7, 3)`,
	`\|\vec{3, 4}\|`,
	"(x + 1)(x - 1)",
	"2e3 + 1",
}

func TestLatexRoundTrip(t *testing.T) {
	for _, src := range roundTripSources {
		first := parseExpr(t, src)
		printed, err := Latex(first)
		require.NoError(t, err, "print %q", src)
		second := parseExpr(t, printed)
		assert.True(t, ast.Equal(first, second),
			"round trip failed for %q: printed %q", src, printed)
	}
}

func TestLatexOutputShapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`\frac12`, `\frac{1}{2}`},
		{"1/2", `\frac{1}{2}`},
		{"x^2", "x^{2}"},
		{`\sqrt{x}`, `\sqrt{x}`},
		{"2 + 3 * 4", "2 + 3 * 4"},
		{"(2 + 3) * 4", "(2 + 3) * 4"},
		{`\pi`, `\pi`},
		{`\alpha`, `\alpha`},
		{`\mathbf{X}`, `\mathbf{X}`},
		{"x_1", "x_1"},
	}
	for _, tt := range tests {
		printed, err := Latex(parseExpr(t, tt.src))
		require.NoError(t, err)
		assert.Equal(t, tt.want, printed, "src %q", tt.src)
	}
}

func TestLatexEmitsBracesForPrecedence(t *testing.T) {
	// (a+b)*c must not print as a+b*c.
	printed, err := Latex(parseExpr(t, "(a + b) * c"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(printed, "("), "printed %q", printed)

	// (2^3)^2 must keep its grouping against right-associative ^.
	left := &ast.BinaryExpr{
		Op:    "^",
		Left:  &ast.BinaryExpr{Op: "^", Left: &ast.NumberLiteral{Value: 2}, Right: &ast.NumberLiteral{Value: 3}},
		Right: &ast.NumberLiteral{Value: 2},
	}
	printed, err = Latex(left)
	require.NoError(t, err)
	reparsed := parseExpr(t, printed)
	assert.True(t, ast.Equal(left, reparsed), "printed %q", printed)
}

func TestLatexDepthGuard(t *testing.T) {
	deep := ast.Expr(&ast.Variable{Name: "x"})
	for i := 0; i < MaxDepth+10; i++ {
		deep = &ast.AbsExpr{Arg: deep}
	}
	_, err := Latex(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}
