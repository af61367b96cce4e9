package export

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// SymPy serializes a tree to SymPy surface syntax.
func SymPy(e ast.Expr) (string, error) {
	var sb strings.Builder
	if err := writeSymPy(&sb, e, precLowest, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SymPyScript produces a complete script skeleton: the free variables
// are declared with symbols() and the expression printed.
func SymPyScript(e ast.Expr) (string, error) {
	body, err := SymPy(e)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("from sympy import *\n\n")
	vars := []string{}
	for _, v := range ast.Variables(e) {
		if name, ok := sympyVariable(v); ok {
			vars = append(vars, name)
		}
	}
	if len(vars) > 0 {
		sb.WriteString(strings.Join(vars, ", "))
		sb.WriteString(fmt.Sprintf(" = symbols(%q)\n", strings.Join(vars, " ")))
	}
	sb.WriteString("expr = " + body + "\n")
	sb.WriteString("print(expr)\n")
	return sb.String(), nil
}

// sympyVariable maps an identifier to its SymPy spelling; constants
// report ok=false since the toolkit provides them.
func sympyVariable(name string) (string, bool) {
	switch name {
	case "e", "pi", "infty", "inf", "i":
		return "", false
	}
	return sympyName(name), true
}

func sympyName(name string) string {
	name = strings.ReplaceAll(name, ":", "_")
	return name
}

func writeSymPy(sb *strings.Builder, e ast.Expr, parent, depth int) error {
	if depth > MaxDepth {
		return depthExceeded()
	}

	wrap := func(prec int, inner func() error) error {
		if prec < parent {
			sb.WriteString("(")
			if err := inner(); err != nil {
				return err
			}
			sb.WriteString(")")
			return nil
		}
		return inner()
	}
	args := func(parts ...ast.Expr) error {
		for i, p := range parts {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeSymPy(sb, p, precLowest, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	fn := func(name string, parts ...ast.Expr) error {
		sb.WriteString(name + "(")
		if err := args(parts...); err != nil {
			return err
		}
		sb.WriteString(")")
		return nil
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		if x.Value < 0 {
			return wrap(precUnary, func() error {
				sb.WriteString(latexNumber(x.Value))
				return nil
			})
		}
		sb.WriteString(latexNumber(x.Value))
		return nil

	case *ast.Variable:
		switch x.Name {
		case "e":
			sb.WriteString("E")
		case "pi":
			sb.WriteString("pi")
		case "infty", "inf":
			sb.WriteString("oo")
		case "i":
			sb.WriteString("I")
		case "i (index)":
			sb.WriteString("i")
		default:
			sb.WriteString(sympyName(x.Name))
		}
		return nil

	case *ast.UnaryExpr:
		return wrap(precUnary, func() error {
			sb.WriteString("-")
			return writeSymPy(sb, x.Operand, precUnary, depth+1)
		})

	case *ast.BinaryExpr:
		infix := func(op string, prec int) error {
			return wrap(prec, func() error {
				if err := writeSymPy(sb, x.Left, prec, depth+1); err != nil {
					return err
				}
				sb.WriteString(op)
				return writeSymPy(sb, x.Right, prec+1, depth+1)
			})
		}
		switch x.Op {
		case "+":
			return infix(" + ", precAdd)
		case "-":
			return infix(" - ", precAdd)
		case "*", "dot", "cross":
			return infix("*", precMul)
		case "/":
			return infix("/", precMul)
		case "^":
			return wrap(precPow, func() error {
				if err := writeSymPy(sb, x.Left, precPow+1, depth+1); err != nil {
					return err
				}
				sb.WriteString("**")
				return writeSymPy(sb, x.Right, precPow, depth+1)
			})
		}
		return matherr.NewEvaluation("cannot serialize operator %q", x.Op)

	case *ast.FunctionCall:
		return writeSymPyFunction(sb, x, depth, fn)

	case *ast.AbsExpr:
		return fn("Abs", x.Arg)

	case *ast.FactorialExpr:
		return fn("factorial", x.Value)

	case *ast.Comparison:
		switch x.Op {
		case "=":
			return fn("Eq", x.Left, x.Right)
		case "!=":
			return fn("Ne", x.Left, x.Right)
		}
		return wrap(precCompare, func() error {
			if err := writeSymPy(sb, x.Left, precCompare, depth+1); err != nil {
				return err
			}
			sb.WriteString(" " + x.Op + " ")
			return writeSymPy(sb, x.Right, precCompare+1, depth+1)
		})

	case *ast.ChainedComparison:
		sb.WriteString("And(")
		for i := range x.Ops {
			if i > 0 {
				sb.WriteString(", ")
			}
			pair := &ast.Comparison{Op: x.Ops[i], Left: x.Exprs[i], Right: x.Exprs[i+1]}
			if err := writeSymPy(sb, pair, precLowest, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString(")")
		return nil

	case *ast.LogicExpr:
		names := map[string]string{
			"and": "And", "or": "Or", "xor": "Xor",
			"not": "Not", "implies": "Implies", "iff": "Equivalent",
		}
		name, ok := names[x.Op]
		if !ok {
			return matherr.NewEvaluation("cannot serialize logic operator %q", x.Op)
		}
		return fn(name, x.Operands...)

	case *ast.ConditionalExpr:
		sb.WriteString("Piecewise((")
		if err := args(x.Value, x.Condition); err != nil {
			return err
		}
		sb.WriteString("))")
		return nil

	case *ast.PiecewiseExpr:
		sb.WriteString("Piecewise(")
		for i, c := range x.Cases {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			if err := writeSymPy(sb, c.Value, precLowest, depth+1); err != nil {
				return err
			}
			sb.WriteString(", ")
			if c.Condition == nil {
				sb.WriteString("True")
			} else if err := writeSymPy(sb, c.Condition, precLowest, depth+1); err != nil {
				return err
			}
			sb.WriteString(")")
		}
		sb.WriteString(")")
		return nil

	case *ast.SumExpr:
		name := "Sum"
		if x.IsProduct {
			name = "Product"
		}
		sb.WriteString(name + "(")
		body := x.Body
		if x.Var == "i" {
			// Inside its own sum, i is the index symbol, not the imaginary
			// unit; a name no parsed variable can carry marks it.
			body = ast.Substitute(body, "i", &ast.Variable{Name: "i (index)"})
		}
		if err := writeSymPy(sb, body, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(", (" + sympyName(x.Var) + ", ")
		if err := args(x.Lower, x.Upper); err != nil {
			return err
		}
		sb.WriteString("))")
		return nil

	case *ast.LimitExpr:
		sb.WriteString("Limit(")
		if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(", " + sympyName(x.Var) + ", ")
		if err := writeSymPy(sb, x.Approaches, precLowest, depth+1); err != nil {
			return err
		}
		if x.Side != "" {
			sb.WriteString(fmt.Sprintf(", dir=%q", x.Side))
		}
		sb.WriteString(")")
		return nil

	case *ast.IntegralExpr:
		sb.WriteString("integrate(")
		if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
			return err
		}
		if x.Lower != nil && x.Upper != nil {
			sb.WriteString(", (" + sympyName(x.Var) + ", ")
			if err := args(x.Lower, x.Upper); err != nil {
				return err
			}
			sb.WriteString(")")
		} else {
			sb.WriteString(", " + sympyName(x.Var))
		}
		sb.WriteString(")")
		return nil

	case *ast.MultiIntegralExpr:
		sb.WriteString("integrate(")
		if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
			return err
		}
		for i, v := range x.Vars {
			var lower, upper ast.Expr
			if i < len(x.Lowers) {
				lower = x.Lowers[i]
			}
			if i < len(x.Uppers) {
				upper = x.Uppers[i]
			}
			if lower == nil && len(x.Lowers) > 0 {
				lower = x.Lowers[0]
			}
			if upper == nil && len(x.Uppers) > 0 {
				upper = x.Uppers[0]
			}
			if lower != nil && upper != nil {
				sb.WriteString(", (" + sympyName(v) + ", ")
				if err := args(lower, upper); err != nil {
					return err
				}
				sb.WriteString(")")
			} else {
				sb.WriteString(", " + sympyName(v))
			}
		}
		sb.WriteString(")")
		return nil

	case *ast.DerivativeExpr:
		sb.WriteString("diff(")
		if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(fmt.Sprintf(", %s, %d)", sympyName(x.Var), x.Order))
		return nil

	case *ast.GradientExpr:
		vars := ast.Variables(x.Body)
		sb.WriteString("Matrix([")
		for i, v := range vars {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("diff(")
			if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
				return err
			}
			sb.WriteString(", " + sympyName(v) + ")")
		}
		sb.WriteString("])")
		return nil

	case *ast.BinomExpr:
		return fn("binomial", x.N, x.K)

	case *ast.MatrixExpr:
		sb.WriteString("Matrix([")
		for i, r := range x.Rows {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("[")
			if err := args(r...); err != nil {
				return err
			}
			sb.WriteString("]")
		}
		sb.WriteString("])")
		return nil

	case *ast.VectorExpr:
		sb.WriteString("Matrix([")
		if err := args(x.Components...); err != nil {
			return err
		}
		sb.WriteString("])")
		return nil

	case *ast.AssignmentExpr:
		sb.WriteString(sympyName(x.Name) + " = ")
		return writeSymPy(sb, x.Value, precLowest, depth+1)

	case *ast.FunctionDefExpr:
		params := make([]string, len(x.Params))
		for i, p := range x.Params {
			params[i] = sympyName(p)
		}
		sb.WriteString(sympyName(x.Name) + " = Lambda((" + strings.Join(params, ", ") + "), ")
		if err := writeSymPy(sb, x.Body, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(")")
		return nil
	}

	return matherr.NewEvaluation("cannot serialize node of type %T", e)
}

func writeSymPyFunction(sb *strings.Builder, x *ast.FunctionCall, depth int, fn func(string, ...ast.Expr) error) error {
	switch x.Name {
	case "arcsin", "arccos", "arctan":
		return fn("a"+x.Name[3:], x.Arg)
	case "ln":
		return fn("log", x.Arg)
	case "log":
		if x.Base != nil {
			return fn("log", x.Arg, x.Base)
		}
		return fn("log", x.Arg, &ast.NumberLiteral{Value: 10})
	case "sqrt":
		if x.Index != nil {
			return fn("root", x.Arg, x.Index)
		}
		return fn("sqrt", x.Arg)
	case "abs":
		return fn("Abs", x.Arg)
	case "ceil":
		return fn("ceiling", x.Arg)
	case "tr":
		return fn("trace", x.Arg)
	case "transpose":
		return fn("transpose", x.Arg)
	case "inverse":
		if err := fn("Inverse", x.Arg); err != nil {
			return err
		}
		return nil
	case "fib", "fibonacci":
		return fn("fibonacci", x.Arg)
	case "factorial":
		return fn("factorial", x.Arg)
	case "sign":
		return fn("sign", x.Arg)
	}
	parts := append([]ast.Expr{x.Arg}, x.Args...)
	return fn(x.Name, parts...)
}
