package export

import (
	"encoding/json"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// JSONTree converts a tree to a structured map: every node carries a
// "type" field naming the variant plus one field per payload slot.
func JSONTree(e ast.Expr) (map[string]any, error) {
	return jsonNode(e, 0)
}

// JSON serializes the tree dump to a JSON document.
func JSON(e ast.Expr) (string, error) {
	m, err := JSONTree(e)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(m)
	if err != nil {
		return "", matherr.NewEvaluation("cannot marshal tree: %s", err)
	}
	return string(out), nil
}

func jsonNode(e ast.Expr, depth int) (map[string]any, error) {
	if depth > MaxDepth {
		return nil, depthExceeded()
	}
	child := func(c ast.Expr) (any, error) {
		if c == nil {
			return nil, nil
		}
		return jsonNode(c, depth+1)
	}
	children := func(cs []ast.Expr) (any, error) {
		out := make([]any, len(cs))
		for i, c := range cs {
			n, err := child(c)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		return map[string]any{"type": "NumberLiteral", "value": x.Value}, nil
	case *ast.Variable:
		return map[string]any{"type": "Variable", "name": x.Name}, nil
	case *ast.UnaryExpr:
		operand, err := child(x.Operand)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "UnaryExpr", "op": x.Op, "operand": operand}, nil
	case *ast.BinaryExpr:
		left, err := child(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := child(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "BinaryExpr", "op": x.Op, "left": left, "right": right}, nil
	case *ast.FunctionCall:
		arg, err := child(x.Arg)
		if err != nil {
			return nil, err
		}
		out := map[string]any{"type": "FunctionCall", "name": x.Name, "arg": arg}
		if x.Base != nil {
			if out["base"], err = child(x.Base); err != nil {
				return nil, err
			}
		}
		if x.Index != nil {
			if out["index"], err = child(x.Index); err != nil {
				return nil, err
			}
		}
		if len(x.Args) > 0 {
			if out["args"], err = children(x.Args); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *ast.AbsExpr:
		arg, err := child(x.Arg)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "AbsoluteValue", "arg": arg}, nil
	case *ast.FactorialExpr:
		v, err := child(x.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Factorial", "value": v}, nil
	case *ast.Comparison:
		left, err := child(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := child(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Comparison", "op": x.Op, "left": left, "right": right}, nil
	case *ast.ChainedComparison:
		exprs, err := children(x.Exprs)
		if err != nil {
			return nil, err
		}
		ops := make([]any, len(x.Ops))
		for i, op := range x.Ops {
			ops[i] = op
		}
		return map[string]any{"type": "ChainedComparison", "exprs": exprs, "ops": ops}, nil
	case *ast.LogicExpr:
		operands, err := children(x.Operands)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "LogicOp", "op": x.Op, "operands": operands}, nil
	case *ast.ConditionalExpr:
		v, err := child(x.Value)
		if err != nil {
			return nil, err
		}
		cond, err := child(x.Condition)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "ConditionalExpr", "value": v, "condition": cond}, nil
	case *ast.PiecewiseExpr:
		cases := make([]any, len(x.Cases))
		for i, c := range x.Cases {
			v, err := child(c.Value)
			if err != nil {
				return nil, err
			}
			cond, err := child(c.Condition)
			if err != nil {
				return nil, err
			}
			cases[i] = map[string]any{"value": v, "condition": cond}
		}
		return map[string]any{"type": "PiecewiseExpr", "cases": cases}, nil
	case *ast.SumExpr:
		lower, err := child(x.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := child(x.Upper)
		if err != nil {
			return nil, err
		}
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		kind := "SumExpr"
		if x.IsProduct {
			kind = "ProductExpr"
		}
		return map[string]any{"type": kind, "var": x.Var, "lower": lower, "upper": upper, "body": body}, nil
	case *ast.LimitExpr:
		target, err := child(x.Approaches)
		if err != nil {
			return nil, err
		}
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		out := map[string]any{"type": "LimitExpr", "var": x.Var, "approaches": target, "body": body}
		if x.Side != "" {
			out["side"] = x.Side
		}
		return out, nil
	case *ast.IntegralExpr:
		lower, err := child(x.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := child(x.Upper)
		if err != nil {
			return nil, err
		}
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type": "IntegralExpr", "var": x.Var,
			"lower": lower, "upper": upper, "body": body, "closed": x.Closed,
		}, nil
	case *ast.MultiIntegralExpr:
		lowers, err := children(x.Lowers)
		if err != nil {
			return nil, err
		}
		uppers, err := children(x.Uppers)
		if err != nil {
			return nil, err
		}
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		vars := make([]any, len(x.Vars))
		for i, v := range x.Vars {
			vars[i] = v
		}
		return map[string]any{
			"type": "MultiIntegralExpr", "order": x.Order, "vars": vars,
			"lowers": lowers, "uppers": uppers, "body": body,
		}, nil
	case *ast.DerivativeExpr:
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		kind := "DerivativeExpr"
		if x.IsPartial {
			kind = "PartialDerivativeExpr"
		}
		return map[string]any{"type": kind, "var": x.Var, "order": x.Order, "body": body}, nil
	case *ast.GradientExpr:
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "GradientExpr", "body": body}, nil
	case *ast.BinomExpr:
		n, err := child(x.N)
		if err != nil {
			return nil, err
		}
		k, err := child(x.K)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "BinomExpr", "n": n, "k": k}, nil
	case *ast.MatrixExpr:
		rows := make([]any, len(x.Rows))
		for i, r := range x.Rows {
			row, err := children(r)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return map[string]any{"type": "MatrixExpr", "style": x.Style, "rows": rows}, nil
	case *ast.VectorExpr:
		comps, err := children(x.Components)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "VectorExpr", "components": comps, "unit": x.Unit}, nil
	case *ast.AssignmentExpr:
		v, err := child(x.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "AssignmentExpr", "name": x.Name, "value": v}, nil
	case *ast.FunctionDefExpr:
		body, err := child(x.Body)
		if err != nil {
			return nil, err
		}
		params := make([]any, len(x.Params))
		for i, p := range x.Params {
			params[i] = p
		}
		return map[string]any{"type": "FunctionDefinitionExpr", "name": x.Name, "params": params, "body": body}, nil
	}
	return nil, matherr.NewEvaluation("cannot serialize node of type %T", e)
}
