package ast

// Map rebuilds e with every direct sub-expression replaced by f(child).
// Leaves are returned unchanged. Nil children stay nil.
func Map(e Expr, f func(Expr) Expr) Expr {
	apply := func(c Expr) Expr {
		if c == nil {
			return nil
		}
		return f(c)
	}
	switch x := e.(type) {
	case *UnaryExpr:
		return &UnaryExpr{Op: x.Op, Operand: apply(x.Operand)}
	case *BinaryExpr:
		return &BinaryExpr{Op: x.Op, Left: apply(x.Left), Right: apply(x.Right)}
	case *FunctionCall:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = apply(a)
		}
		if x.Args == nil {
			args = nil
		}
		return &FunctionCall{
			Name:  x.Name,
			Arg:   apply(x.Arg),
			Base:  apply(x.Base),
			Index: apply(x.Index),
			Args:  args,
		}
	case *AbsExpr:
		return &AbsExpr{Arg: apply(x.Arg)}
	case *FactorialExpr:
		return &FactorialExpr{Value: apply(x.Value)}
	case *Comparison:
		return &Comparison{Op: x.Op, Left: apply(x.Left), Right: apply(x.Right)}
	case *ChainedComparison:
		exprs := make([]Expr, len(x.Exprs))
		for i, sub := range x.Exprs {
			exprs[i] = apply(sub)
		}
		ops := make([]string, len(x.Ops))
		copy(ops, x.Ops)
		return &ChainedComparison{Exprs: exprs, Ops: ops}
	case *LogicExpr:
		ops := make([]Expr, len(x.Operands))
		for i, sub := range x.Operands {
			ops[i] = apply(sub)
		}
		return &LogicExpr{Op: x.Op, Operands: ops}
	case *ConditionalExpr:
		return &ConditionalExpr{Value: apply(x.Value), Condition: apply(x.Condition)}
	case *PiecewiseExpr:
		cases := make([]PiecewiseCase, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = PiecewiseCase{Value: apply(c.Value), Condition: apply(c.Condition)}
		}
		return &PiecewiseExpr{Cases: cases}
	case *SumExpr:
		return &SumExpr{
			IsProduct: x.IsProduct,
			Var:       x.Var,
			Lower:     apply(x.Lower),
			Upper:     apply(x.Upper),
			Body:      apply(x.Body),
		}
	case *LimitExpr:
		return &LimitExpr{Var: x.Var, Approaches: apply(x.Approaches), Body: apply(x.Body), Side: x.Side}
	case *IntegralExpr:
		return &IntegralExpr{
			Var:    x.Var,
			Lower:  apply(x.Lower),
			Upper:  apply(x.Upper),
			Body:   apply(x.Body),
			Closed: x.Closed,
		}
	case *MultiIntegralExpr:
		vars := make([]string, len(x.Vars))
		copy(vars, x.Vars)
		lowers := make([]Expr, len(x.Lowers))
		for i, b := range x.Lowers {
			lowers[i] = apply(b)
		}
		uppers := make([]Expr, len(x.Uppers))
		for i, b := range x.Uppers {
			uppers[i] = apply(b)
		}
		return &MultiIntegralExpr{Order: x.Order, Vars: vars, Lowers: lowers, Uppers: uppers, Body: apply(x.Body)}
	case *DerivativeExpr:
		return &DerivativeExpr{IsPartial: x.IsPartial, Var: x.Var, Order: x.Order, Body: apply(x.Body)}
	case *GradientExpr:
		return &GradientExpr{Body: apply(x.Body)}
	case *BinomExpr:
		return &BinomExpr{N: apply(x.N), K: apply(x.K)}
	case *MatrixExpr:
		rows := make([][]Expr, len(x.Rows))
		for i, row := range x.Rows {
			cells := make([]Expr, len(row))
			for j, cell := range row {
				cells[j] = apply(cell)
			}
			rows[i] = cells
		}
		return &MatrixExpr{Rows: rows, Style: x.Style}
	case *VectorExpr:
		comps := make([]Expr, len(x.Components))
		for i, c := range x.Components {
			comps[i] = apply(c)
		}
		return &VectorExpr{Components: comps, Unit: x.Unit}
	case *AssignmentExpr:
		return &AssignmentExpr{Name: x.Name, Value: apply(x.Value)}
	case *FunctionDefExpr:
		params := make([]string, len(x.Params))
		copy(params, x.Params)
		return &FunctionDefExpr{Name: x.Name, Params: params, Body: apply(x.Body)}
	}
	return e
}

// Substitute replaces every free occurrence of the named variable with
// repl. Occurrences bound by a sum, product, integral, limit or
// function definition are left alone.
func Substitute(e Expr, name string, repl Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *Variable:
		if x.Name == name {
			return Clone(repl)
		}
		return x
	case *SumExpr:
		out := &SumExpr{
			IsProduct: x.IsProduct,
			Var:       x.Var,
			Lower:     Substitute(x.Lower, name, repl),
			Upper:     Substitute(x.Upper, name, repl),
			Body:      x.Body,
		}
		if x.Var != name {
			out.Body = Substitute(x.Body, name, repl)
		}
		return out
	case *IntegralExpr:
		out := &IntegralExpr{
			Var:    x.Var,
			Lower:  Substitute(x.Lower, name, repl),
			Upper:  Substitute(x.Upper, name, repl),
			Body:   x.Body,
			Closed: x.Closed,
		}
		if x.Var != name {
			out.Body = Substitute(x.Body, name, repl)
		}
		return out
	case *LimitExpr:
		out := &LimitExpr{
			Var:        x.Var,
			Approaches: Substitute(x.Approaches, name, repl),
			Body:       x.Body,
			Side:       x.Side,
		}
		if x.Var != name {
			out.Body = Substitute(x.Body, name, repl)
		}
		return out
	case *MultiIntegralExpr:
		for _, bound := range x.Vars {
			if bound == name {
				out := Map(x, func(c Expr) Expr { return Substitute(c, name, repl) }).(*MultiIntegralExpr)
				out.Body = x.Body
				return out
			}
		}
	case *FunctionDefExpr:
		for _, p := range x.Params {
			if p == name {
				return x
			}
		}
	}
	return Map(e, func(c Expr) Expr {
		return Substitute(c, name, repl)
	})
}
