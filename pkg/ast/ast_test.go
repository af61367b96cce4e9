package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(v float64) *NumberLiteral { return &NumberLiteral{Value: v} }
func v(name string) *Variable    { return &Variable{Name: name} }

func TestEqual(t *testing.T) {
	a := &BinaryExpr{Op: "+", Left: n(1), Right: v("x")}
	b := &BinaryExpr{Op: "+", Left: n(1), Right: v("x")}
	c := &BinaryExpr{Op: "+", Left: n(2), Right: v("x")}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, n(1)))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))

	f1 := &FunctionCall{Name: "log", Arg: v("x"), Base: n(2)}
	f2 := &FunctionCall{Name: "log", Arg: v("x"), Base: n(2)}
	f3 := &FunctionCall{Name: "log", Arg: v("x")}
	assert.True(t, Equal(f1, f2))
	assert.False(t, Equal(f1, f3))

	m1 := &MatrixExpr{Rows: [][]Expr{{n(1), n(2)}, {n(3), n(4)}}, Style: "pmatrix"}
	m2 := &MatrixExpr{Rows: [][]Expr{{n(1), n(2)}, {n(3), n(4)}}, Style: "pmatrix"}
	m3 := &MatrixExpr{Rows: [][]Expr{{n(1), n(2)}, {n(3), n(4)}}, Style: "bmatrix"}
	assert.True(t, Equal(m1, m2))
	assert.False(t, Equal(m1, m3))
}

func TestClone(t *testing.T) {
	orig := &BinaryExpr{
		Op:   "*",
		Left: &FunctionCall{Name: "sin", Arg: v("x")},
		Right: &PiecewiseExpr{Cases: []PiecewiseCase{
			{Value: n(1), Condition: &Comparison{Op: "<", Left: v("x"), Right: n(0)}},
			{Value: n(2)},
		}},
	}
	copied := Clone(orig)
	require.True(t, Equal(orig, copied))

	// Mutating the copy leaves the original untouched.
	copied.(*BinaryExpr).Left.(*FunctionCall).Arg = v("y")
	assert.False(t, Equal(orig, copied))
	assert.Equal(t, "x", orig.Left.(*FunctionCall).Arg.(*Variable).Name)
}

func TestVariables(t *testing.T) {
	expr := &BinaryExpr{
		Op:   "+",
		Left: &BinaryExpr{Op: "*", Left: v("b"), Right: v("a")},
		Right: &SumExpr{
			Var:   "i",
			Lower: n(1),
			Upper: v("n"),
			Body:  &BinaryExpr{Op: "*", Left: v("i"), Right: v("c")},
		},
	}
	assert.Equal(t, []string{"a", "b", "c", "n"}, Variables(expr))

	def := &FunctionDefExpr{Name: "f", Params: []string{"x"}, Body: &BinaryExpr{Op: "+", Left: v("x"), Right: v("k")}}
	assert.Equal(t, []string{"k"}, Variables(def))

	integral := &IntegralExpr{Var: "t", Body: &BinaryExpr{Op: "*", Left: v("t"), Right: v("w")}}
	assert.Equal(t, []string{"w"}, Variables(integral))
}

func TestSubstitute(t *testing.T) {
	expr := &BinaryExpr{Op: "+", Left: v("x"), Right: &FunctionCall{Name: "sin", Arg: v("x")}}
	got := Substitute(expr, "x", n(3))
	want := &BinaryExpr{Op: "+", Left: n(3), Right: &FunctionCall{Name: "sin", Arg: n(3)}}
	assert.True(t, Equal(want, got))

	// Bound occurrences stay.
	sum := &SumExpr{Var: "i", Lower: n(1), Upper: v("i"), Body: v("i")}
	got = Substitute(sum, "i", n(9))
	gotSum := got.(*SumExpr)
	assert.True(t, Equal(v("i"), gotSum.Body))
	assert.True(t, Equal(n(9), gotSum.Upper))
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 1, Depth(n(1)))
	assert.Equal(t, 2, Depth(&BinaryExpr{Op: "+", Left: n(1), Right: n(2)}))
	nested := Expr(n(1))
	for i := 0; i < 10; i++ {
		nested = &UnaryExpr{Op: "-", Operand: nested}
	}
	assert.Equal(t, 11, Depth(nested))
}
