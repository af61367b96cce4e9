package symbolic

import (
	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Integrate returns an antiderivative of e with respect to the named
// variable using the syntactic rule set: powers, 1/x, the exponential,
// sine and cosine, linearity, and piecewise cases. There is no general
// substitution; expressions outside the rule set fail with an
// evaluation error so callers can fall back to numeric quadrature.
func (en *Engine) Integrate(e ast.Expr, name string) (ast.Expr, error) {
	normalized, err := en.Normalize(e)
	if err != nil {
		return nil, err
	}
	anti, err := en.integrateNode(normalized, name, 0)
	if err != nil {
		return nil, err
	}
	return en.Simplify(anti)
}

func (en *Engine) integrateNode(e ast.Expr, name string, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	// Constants integrate to c·x.
	if !containsVar(e, name) {
		return mulExpr(ast.Clone(e), variable(name)), nil
	}

	switch x := e.(type) {
	case *ast.Variable:
		// ∫ x dx = x²/2.
		return divExpr(powExpr(variable(name), num(2)), num(2)), nil

	case *ast.BinaryExpr:
		switch x.Op {
		case "+", "-":
			l, err := en.integrateNode(x.Left, name, depth+1)
			if err != nil {
				return nil, err
			}
			r, err := en.integrateNode(x.Right, name, depth+1)
			if err != nil {
				return nil, err
			}
			return &ast.BinaryExpr{Op: x.Op, Left: l, Right: r}, nil

		case "*":
			// Constant multiples factor out.
			if !containsVar(x.Left, name) {
				inner, err := en.integrateNode(x.Right, name, depth+1)
				if err != nil {
					return nil, err
				}
				return mulExpr(ast.Clone(x.Left), inner), nil
			}
			if !containsVar(x.Right, name) {
				inner, err := en.integrateNode(x.Left, name, depth+1)
				if err != nil {
					return nil, err
				}
				return mulExpr(ast.Clone(x.Right), inner), nil
			}

		case "/":
			// c/x integrates to c·ln|x|.
			if !containsVar(x.Left, name) && isBareVar(x.Right, name) {
				return mulExpr(ast.Clone(x.Left), call("ln", &ast.AbsExpr{Arg: variable(name)})), nil
			}
			if !containsVar(x.Right, name) {
				inner, err := en.integrateNode(x.Left, name, depth+1)
				if err != nil {
					return nil, err
				}
				return divExpr(inner, ast.Clone(x.Right)), nil
			}

		case "^":
			// Power rule on a bare variable base.
			if isBareVar(x.Left, name) {
				if n, ok := numValue(x.Right); ok {
					if n == -1 {
						return call("ln", &ast.AbsExpr{Arg: variable(name)}), nil
					}
					return divExpr(powExpr(variable(name), num(n+1)), num(n+1)), nil
				}
			}
			// ∫ e^x dx = e^x.
			if base, ok := x.Left.(*ast.Variable); ok && base.Name == "e" && isBareVar(x.Right, name) {
				return powExpr(variable("e"), variable(name)), nil
			}
		}

	case *ast.FunctionCall:
		if isBareVar(x.Arg, name) {
			switch x.Name {
			case "exp":
				return call("exp", variable(name)), nil
			case "sin":
				return mulExpr(num(-1), call("cos", variable(name))), nil
			case "cos":
				return call("sin", variable(name)), nil
			}
		}

	case *ast.PiecewiseExpr:
		cases := make([]ast.PiecewiseCase, len(x.Cases))
		for i, c := range x.Cases {
			anti, err := en.integrateNode(c.Value, name, depth+1)
			if err != nil {
				return nil, err
			}
			cases[i] = ast.PiecewiseCase{Value: anti, Condition: ast.Clone(c.Condition)}
		}
		return &ast.PiecewiseExpr{Cases: cases}, nil
	}

	return nil, matherr.NewEvaluation("no antiderivative rule applies")
}

func isBareVar(e ast.Expr, name string) bool {
	v, ok := e.(*ast.Variable)
	return ok && v.Name == name
}
