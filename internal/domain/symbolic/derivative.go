package symbolic

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// MaxDerivativeOrder bounds repeated differentiation.
const MaxDerivativeOrder = 10

// Differentiate returns the order-th derivative of e with respect to
// the named variable, simplified.
func (en *Engine) Differentiate(e ast.Expr, name string, order int) (ast.Expr, error) {
	if order < 1 || order > MaxDerivativeOrder {
		return nil, matherr.NewEvaluation("derivative order %d out of range [1, %d]", order, MaxDerivativeOrder)
	}
	cur := e
	for i := 0; i < order; i++ {
		d, err := en.derive(cur, name, 0)
		if err != nil {
			return nil, err
		}
		cur, err = en.Simplify(d)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (en *Engine) derive(e ast.Expr, name string, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		return num(0), nil

	case *ast.Variable:
		if x.Name == name {
			return num(1), nil
		}
		// Other variables and the named constants are all constant.
		return num(0), nil

	case *ast.UnaryExpr:
		d, err := en.derive(x.Operand, name, depth+1)
		if err != nil {
			return nil, err
		}
		return mulExpr(num(-1), d), nil

	case *ast.BinaryExpr:
		return en.deriveBinary(x, name, depth)

	case *ast.FunctionCall:
		return en.deriveFunction(x, name, depth)

	case *ast.AbsExpr:
		du, err := en.derive(x.Arg, name, depth+1)
		if err != nil {
			return nil, err
		}
		return mulExpr(call("sign", ast.Clone(x.Arg)), du), nil

	case *ast.ConditionalExpr:
		dv, err := en.derive(x.Value, name, depth+1)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalExpr{Value: dv, Condition: ast.Clone(x.Condition)}, nil

	case *ast.PiecewiseExpr:
		cases := make([]ast.PiecewiseCase, len(x.Cases))
		for i, c := range x.Cases {
			dv, err := en.derive(c.Value, name, depth+1)
			if err != nil {
				return nil, err
			}
			cases[i] = ast.PiecewiseCase{Value: dv, Condition: ast.Clone(c.Condition)}
		}
		return &ast.PiecewiseExpr{Cases: cases}, nil

	case *ast.SumExpr:
		if x.Var == name {
			return num(0), nil
		}
		db, err := en.derive(x.Body, name, depth+1)
		if err != nil {
			return nil, err
		}
		if x.IsProduct {
			return nil, matherr.NewEvaluation("cannot differentiate through a product operator")
		}
		return &ast.SumExpr{
			IsProduct: false,
			Var:       x.Var,
			Lower:     ast.Clone(x.Lower),
			Upper:     ast.Clone(x.Upper),
			Body:      db,
		}, nil

	case *ast.DerivativeExpr:
		inner, err := en.Differentiate(x.Body, x.Var, x.Order)
		if err != nil {
			return nil, err
		}
		return en.derive(inner, name, depth+1)
	}

	return nil, matherr.NewEvaluation("cannot differentiate node of type %T", e)
}

func (en *Engine) deriveBinary(x *ast.BinaryExpr, name string, depth int) (ast.Expr, error) {
	switch x.Op {
	case "+", "-":
		dl, err := en.derive(x.Left, name, depth+1)
		if err != nil {
			return nil, err
		}
		dr, err := en.derive(x.Right, name, depth+1)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: x.Op, Left: dl, Right: dr}, nil

	case "*":
		du, err := en.derive(x.Left, name, depth+1)
		if err != nil {
			return nil, err
		}
		dv, err := en.derive(x.Right, name, depth+1)
		if err != nil {
			return nil, err
		}
		return addExpr(
			mulExpr(du, ast.Clone(x.Right)),
			mulExpr(ast.Clone(x.Left), dv),
		), nil

	case "/":
		du, err := en.derive(x.Left, name, depth+1)
		if err != nil {
			return nil, err
		}
		dv, err := en.derive(x.Right, name, depth+1)
		if err != nil {
			return nil, err
		}
		return divExpr(
			subExpr(
				mulExpr(du, ast.Clone(x.Right)),
				mulExpr(ast.Clone(x.Left), dv),
			),
			powExpr(ast.Clone(x.Right), num(2)),
		), nil

	case "^":
		u, v := x.Left, x.Right
		if n, ok := numValue(v); ok {
			// Power rule: d(u^n) = n·u^(n-1)·u'.
			du, err := en.derive(u, name, depth+1)
			if err != nil {
				return nil, err
			}
			return mulExpr(
				mulExpr(num(n), powExpr(ast.Clone(u), num(n-1))),
				du,
			), nil
		}
		if !containsVar(v, name) {
			du, err := en.derive(u, name, depth+1)
			if err != nil {
				return nil, err
			}
			return mulExpr(
				mulExpr(ast.Clone(v), powExpr(ast.Clone(u), subExpr(ast.Clone(v), num(1)))),
				du,
			), nil
		}
		// General rule: d(u^v) = u^v · (v'·ln u + v·u'/u).
		du, err := en.derive(u, name, depth+1)
		if err != nil {
			return nil, err
		}
		dv, err := en.derive(v, name, depth+1)
		if err != nil {
			return nil, err
		}
		return mulExpr(
			powExpr(ast.Clone(u), ast.Clone(v)),
			addExpr(
				mulExpr(dv, call("ln", ast.Clone(u))),
				divExpr(mulExpr(ast.Clone(v), du), ast.Clone(u)),
			),
		), nil
	}
	return nil, matherr.NewEvaluation("cannot differentiate operator %q", x.Op)
}

func (en *Engine) deriveFunction(x *ast.FunctionCall, name string, depth int) (ast.Expr, error) {
	u := x.Arg
	du, err := en.derive(u, name, depth+1)
	if err != nil {
		return nil, err
	}
	chain := func(outer ast.Expr) ast.Expr {
		return mulExpr(outer, du)
	}

	switch x.Name {
	case "sin":
		return chain(call("cos", ast.Clone(u))), nil
	case "cos":
		return chain(mulExpr(num(-1), call("sin", ast.Clone(u)))), nil
	case "tan":
		return chain(divExpr(num(1), powExpr(call("cos", ast.Clone(u)), num(2)))), nil
	case "sec":
		return chain(mulExpr(call("sec", ast.Clone(u)), call("tan", ast.Clone(u)))), nil
	case "csc":
		return chain(mulExpr(num(-1), mulExpr(call("csc", ast.Clone(u)), call("cot", ast.Clone(u))))), nil
	case "cot":
		return chain(mulExpr(num(-1), divExpr(num(1), powExpr(call("sin", ast.Clone(u)), num(2))))), nil
	case "arcsin":
		return chain(divExpr(num(1), call("sqrt", subExpr(num(1), powExpr(ast.Clone(u), num(2)))))), nil
	case "arccos":
		return chain(mulExpr(num(-1), divExpr(num(1), call("sqrt", subExpr(num(1), powExpr(ast.Clone(u), num(2))))))), nil
	case "arctan":
		return chain(divExpr(num(1), addExpr(num(1), powExpr(ast.Clone(u), num(2))))), nil
	case "sinh":
		return chain(call("cosh", ast.Clone(u))), nil
	case "cosh":
		return chain(call("sinh", ast.Clone(u))), nil
	case "tanh":
		return chain(divExpr(num(1), powExpr(call("cosh", ast.Clone(u)), num(2)))), nil
	case "exp":
		return chain(call("exp", ast.Clone(u))), nil
	case "ln":
		return chain(divExpr(num(1), ast.Clone(u))), nil
	case "log":
		base := 10.0
		if x.Base != nil {
			b, ok := numValue(x.Base)
			if !ok {
				return nil, matherr.NewEvaluation("cannot differentiate a logarithm with symbolic base")
			}
			base = b
		}
		return chain(divExpr(num(1), mulExpr(ast.Clone(u), num(math.Log(base))))), nil
	case "sqrt":
		if x.Index != nil {
			n, ok := numValue(x.Index)
			if !ok || n == 0 {
				return nil, matherr.NewEvaluation("cannot differentiate a root with symbolic index")
			}
			return chain(mulExpr(
				num(1/n),
				powExpr(ast.Clone(u), num(1/n-1)),
			)), nil
		}
		return chain(divExpr(num(1), mulExpr(num(2), call("sqrt", ast.Clone(u))))), nil
	case "abs":
		return chain(call("sign", ast.Clone(u))), nil
	case "sign":
		// sign' is zero everywhere, conventionally including zero.
		return num(0), nil
	}
	return nil, matherr.NewEvaluation("cannot differentiate function %q", x.Name)
}
