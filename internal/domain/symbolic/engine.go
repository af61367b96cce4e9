// Package symbolic implements the tree-to-tree rewrite passes:
// normalization, simplification, expansion, factoring, differentiation,
// integration and the quadratic solver. All passes are pure, depth
// bounded, and idempotent up to structural normalization.
package symbolic

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Default rewrite limits.
const (
	DefaultMaxDepth      = 500
	DefaultMaxIterations = 100
)

// Engine coordinates the rewrite passes and carries the assumptions
// table consulted by the logarithm rules.
type Engine struct {
	MaxDepth      int
	MaxIterations int
	Assumptions   *Assumptions
}

// NewEngine creates an engine with stock limits and no assumptions.
func NewEngine() *Engine {
	return &Engine{
		MaxDepth:      DefaultMaxDepth,
		MaxIterations: DefaultMaxIterations,
		Assumptions:   NewAssumptions(),
	}
}

func (en *Engine) depthError() error {
	return matherr.NewEvaluation("rewrite depth exceeds maximum of %d", en.MaxDepth)
}

// --- tree builders and recognizers ---

func num(v float64) *ast.NumberLiteral {
	return &ast.NumberLiteral{Value: v}
}

func variable(name string) *ast.Variable {
	return &ast.Variable{Name: name}
}

func addExpr(l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: "+", Left: l, Right: r}
}

func subExpr(l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: "-", Left: l, Right: r}
}

func mulExpr(l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: "*", Left: l, Right: r}
}

func divExpr(l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: "/", Left: l, Right: r}
}

func powExpr(l, r ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{Op: "^", Left: l, Right: r}
}

func call(name string, arg ast.Expr) *ast.FunctionCall {
	return &ast.FunctionCall{Name: name, Arg: arg}
}

// numValue recognizes a concrete number, looking through unary minus.
func numValue(e ast.Expr) (float64, bool) {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return x.Value, true
	case *ast.UnaryExpr:
		if x.Op == "-" {
			if v, ok := numValue(x.Operand); ok {
				return -v, true
			}
		}
	}
	return 0, false
}

func isNum(e ast.Expr, v float64) bool {
	got, ok := numValue(e)
	return ok && got == v
}

func isInteger(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

// exprKey produces the stable ordering and grouping key used for
// commutative operand sorting and like-term collection.
func exprKey(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return fmt.Sprintf("0#%g", x.Value)
	case *ast.Variable:
		return "1#" + x.Name
	case *ast.UnaryExpr:
		return "2#neg(" + exprKey(x.Operand) + ")"
	case *ast.BinaryExpr:
		return "2#" + x.Op + "(" + exprKey(x.Left) + "," + exprKey(x.Right) + ")"
	case *ast.FunctionCall:
		var sb strings.Builder
		sb.WriteString("2#fn:" + x.Name + "(")
		if x.Base != nil {
			sb.WriteString("base:" + exprKey(x.Base) + ";")
		}
		if x.Index != nil {
			sb.WriteString("index:" + exprKey(x.Index) + ";")
		}
		if x.Arg != nil {
			sb.WriteString(exprKey(x.Arg))
		}
		for _, a := range x.Args {
			sb.WriteString("," + exprKey(a))
		}
		sb.WriteString(")")
		return sb.String()
	case *ast.AbsExpr:
		return "2#abs(" + exprKey(x.Arg) + ")"
	case *ast.FactorialExpr:
		return "2#fact(" + exprKey(x.Value) + ")"
	case *ast.BinomExpr:
		return "2#binom(" + exprKey(x.N) + "," + exprKey(x.K) + ")"
	}
	// Remaining variants order after everything else, keyed by their
	// child structure.
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("3#%T(", e))
	for i, c := range ast.Children(e) {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(exprKey(c))
	}
	sb.WriteString(")")
	return sb.String()
}

// containsVar reports whether the named variable occurs free in e.
func containsVar(e ast.Expr, name string) bool {
	for _, v := range ast.Variables(e) {
		if v == name {
			return true
		}
	}
	return false
}
