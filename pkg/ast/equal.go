package ast

// Equal reports whether two expressions are structurally equal. It is
// the canonical equality relation shared by the round-trip tests and
// the rewrite-rule matcher.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *NumberLiteral:
		y, ok := b.(*NumberLiteral)
		return ok && x.Value == y.Value
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Name != y.Name || !Equal(x.Arg, y.Arg) ||
			!Equal(x.Base, y.Base) || !Equal(x.Index, y.Index) {
			return false
		}
		return equalSlices(x.Args, y.Args)
	case *AbsExpr:
		y, ok := b.(*AbsExpr)
		return ok && Equal(x.Arg, y.Arg)
	case *FactorialExpr:
		y, ok := b.(*FactorialExpr)
		return ok && Equal(x.Value, y.Value)
	case *Comparison:
		y, ok := b.(*Comparison)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *ChainedComparison:
		y, ok := b.(*ChainedComparison)
		if !ok || len(x.Ops) != len(y.Ops) {
			return false
		}
		for i := range x.Ops {
			if x.Ops[i] != y.Ops[i] {
				return false
			}
		}
		return equalSlices(x.Exprs, y.Exprs)
	case *LogicExpr:
		y, ok := b.(*LogicExpr)
		return ok && x.Op == y.Op && equalSlices(x.Operands, y.Operands)
	case *ConditionalExpr:
		y, ok := b.(*ConditionalExpr)
		return ok && Equal(x.Value, y.Value) && Equal(x.Condition, y.Condition)
	case *PiecewiseExpr:
		y, ok := b.(*PiecewiseExpr)
		if !ok || len(x.Cases) != len(y.Cases) {
			return false
		}
		for i := range x.Cases {
			if !Equal(x.Cases[i].Value, y.Cases[i].Value) ||
				!Equal(x.Cases[i].Condition, y.Cases[i].Condition) {
				return false
			}
		}
		return true
	case *SumExpr:
		y, ok := b.(*SumExpr)
		return ok && x.IsProduct == y.IsProduct && x.Var == y.Var &&
			Equal(x.Lower, y.Lower) && Equal(x.Upper, y.Upper) && Equal(x.Body, y.Body)
	case *LimitExpr:
		y, ok := b.(*LimitExpr)
		return ok && x.Var == y.Var && x.Side == y.Side &&
			Equal(x.Approaches, y.Approaches) && Equal(x.Body, y.Body)
	case *IntegralExpr:
		y, ok := b.(*IntegralExpr)
		return ok && x.Var == y.Var && x.Closed == y.Closed &&
			Equal(x.Lower, y.Lower) && Equal(x.Upper, y.Upper) && Equal(x.Body, y.Body)
	case *MultiIntegralExpr:
		y, ok := b.(*MultiIntegralExpr)
		if !ok || x.Order != y.Order || len(x.Vars) != len(y.Vars) {
			return false
		}
		for i := range x.Vars {
			if x.Vars[i] != y.Vars[i] {
				return false
			}
		}
		return equalSlices(x.Lowers, y.Lowers) && equalSlices(x.Uppers, y.Uppers) &&
			Equal(x.Body, y.Body)
	case *DerivativeExpr:
		y, ok := b.(*DerivativeExpr)
		return ok && x.IsPartial == y.IsPartial && x.Var == y.Var &&
			x.Order == y.Order && Equal(x.Body, y.Body)
	case *GradientExpr:
		y, ok := b.(*GradientExpr)
		return ok && Equal(x.Body, y.Body)
	case *BinomExpr:
		y, ok := b.(*BinomExpr)
		return ok && Equal(x.N, y.N) && Equal(x.K, y.K)
	case *MatrixExpr:
		y, ok := b.(*MatrixExpr)
		if !ok || x.Style != y.Style || len(x.Rows) != len(y.Rows) {
			return false
		}
		for i := range x.Rows {
			if !equalSlices(x.Rows[i], y.Rows[i]) {
				return false
			}
		}
		return true
	case *VectorExpr:
		y, ok := b.(*VectorExpr)
		return ok && x.Unit == y.Unit && equalSlices(x.Components, y.Components)
	case *AssignmentExpr:
		y, ok := b.(*AssignmentExpr)
		return ok && x.Name == y.Name && Equal(x.Value, y.Value)
	case *FunctionDefExpr:
		y, ok := b.(*FunctionDefExpr)
		if !ok || x.Name != y.Name || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i] != y.Params[i] {
				return false
			}
		}
		return Equal(x.Body, y.Body)
	}
	return false
}

func equalSlices(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the expression.
func Clone(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case *NumberLiteral:
		return &NumberLiteral{Value: x.Value}
	case *Variable:
		return &Variable{Name: x.Name}
	case *UnaryExpr:
		return &UnaryExpr{Op: x.Op, Operand: Clone(x.Operand)}
	case *BinaryExpr:
		return &BinaryExpr{Op: x.Op, Left: Clone(x.Left), Right: Clone(x.Right)}
	case *FunctionCall:
		return &FunctionCall{
			Name:  x.Name,
			Arg:   Clone(x.Arg),
			Base:  Clone(x.Base),
			Index: Clone(x.Index),
			Args:  cloneSlice(x.Args),
		}
	case *AbsExpr:
		return &AbsExpr{Arg: Clone(x.Arg)}
	case *FactorialExpr:
		return &FactorialExpr{Value: Clone(x.Value)}
	case *Comparison:
		return &Comparison{Op: x.Op, Left: Clone(x.Left), Right: Clone(x.Right)}
	case *ChainedComparison:
		ops := make([]string, len(x.Ops))
		copy(ops, x.Ops)
		return &ChainedComparison{Exprs: cloneSlice(x.Exprs), Ops: ops}
	case *LogicExpr:
		return &LogicExpr{Op: x.Op, Operands: cloneSlice(x.Operands)}
	case *ConditionalExpr:
		return &ConditionalExpr{Value: Clone(x.Value), Condition: Clone(x.Condition)}
	case *PiecewiseExpr:
		cases := make([]PiecewiseCase, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = PiecewiseCase{Value: Clone(c.Value), Condition: Clone(c.Condition)}
		}
		return &PiecewiseExpr{Cases: cases}
	case *SumExpr:
		return &SumExpr{
			IsProduct: x.IsProduct,
			Var:       x.Var,
			Lower:     Clone(x.Lower),
			Upper:     Clone(x.Upper),
			Body:      Clone(x.Body),
		}
	case *LimitExpr:
		return &LimitExpr{Var: x.Var, Approaches: Clone(x.Approaches), Body: Clone(x.Body), Side: x.Side}
	case *IntegralExpr:
		return &IntegralExpr{
			Var:    x.Var,
			Lower:  Clone(x.Lower),
			Upper:  Clone(x.Upper),
			Body:   Clone(x.Body),
			Closed: x.Closed,
		}
	case *MultiIntegralExpr:
		vars := make([]string, len(x.Vars))
		copy(vars, x.Vars)
		return &MultiIntegralExpr{
			Order:  x.Order,
			Vars:   vars,
			Lowers: cloneSlice(x.Lowers),
			Uppers: cloneSlice(x.Uppers),
			Body:   Clone(x.Body),
		}
	case *DerivativeExpr:
		return &DerivativeExpr{IsPartial: x.IsPartial, Var: x.Var, Order: x.Order, Body: Clone(x.Body)}
	case *GradientExpr:
		return &GradientExpr{Body: Clone(x.Body)}
	case *BinomExpr:
		return &BinomExpr{N: Clone(x.N), K: Clone(x.K)}
	case *MatrixExpr:
		rows := make([][]Expr, len(x.Rows))
		for i, r := range x.Rows {
			rows[i] = cloneSlice(r)
		}
		return &MatrixExpr{Rows: rows, Style: x.Style}
	case *VectorExpr:
		return &VectorExpr{Components: cloneSlice(x.Components), Unit: x.Unit}
	case *AssignmentExpr:
		return &AssignmentExpr{Name: x.Name, Value: Clone(x.Value)}
	case *FunctionDefExpr:
		params := make([]string, len(x.Params))
		copy(params, x.Params)
		return &FunctionDefExpr{Name: x.Name, Params: params, Body: Clone(x.Body)}
	}
	return e
}

func cloneSlice(in []Expr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = Clone(e)
	}
	return out
}
