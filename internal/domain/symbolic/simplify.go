package symbolic

import (
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Simplify applies normalization plus the identity families: trig
// zeros and parity, the Pythagorean identity, logarithm laws (guarded
// by assumptions), and power collapses.
func (en *Engine) Simplify(e ast.Expr) (ast.Expr, error) {
	cur := e
	for i := 0; i < en.MaxIterations; i++ {
		normalized, err := en.Normalize(cur)
		if err != nil {
			return nil, err
		}
		rewritten, err := en.simplifyRules(normalized, 0)
		if err != nil {
			return nil, err
		}
		if ast.Equal(rewritten, cur) {
			return rewritten, nil
		}
		cur = rewritten
	}
	return cur, nil
}

func (en *Engine) simplifyRules(e ast.Expr, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	// Children first.
	var walkErr error
	e = ast.Map(e, func(c ast.Expr) ast.Expr {
		if walkErr != nil {
			return c
		}
		s, err := en.simplifyRules(c, depth+1)
		if err != nil {
			walkErr = err
			return c
		}
		return s
	})
	if walkErr != nil {
		return nil, walkErr
	}

	switch x := e.(type) {
	case *ast.FunctionCall:
		return en.simplifyFunction(x), nil
	case *ast.BinaryExpr:
		switch x.Op {
		case "+":
			return en.applyPythagorean(x), nil
		case "^":
			// (x^a)^b collapses to x^(a*b).
			if inner, ok := x.Left.(*ast.BinaryExpr); ok && inner.Op == "^" {
				return powExpr(inner.Left, mulExpr(inner.Right, x.Right)), nil
			}
		case "/":
			// Reciprocal collapse: 1/(1/x) is x.
			if isNum(x.Left, 1) {
				if inner, ok := x.Right.(*ast.BinaryExpr); ok && inner.Op == "/" && isNum(inner.Left, 1) {
					return inner.Right, nil
				}
			}
		}
	}
	return e, nil
}

// negatedArgument recognizes a normalized negative argument and
// returns its positive counterpart.
func negatedArgument(e ast.Expr) (ast.Expr, bool) {
	if v, ok := numValue(e); ok && v < 0 {
		return num(-v), true
	}
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == "*" {
		if v, ok := numValue(b.Left); ok && v < 0 {
			if v == -1 {
				return b.Right, true
			}
			return mulExpr(num(-v), b.Right), true
		}
	}
	return nil, false
}

func (en *Engine) simplifyFunction(x *ast.FunctionCall) ast.Expr {
	switch x.Name {
	case "sin":
		if isNum(x.Arg, 0) {
			return num(0)
		}
		if pos, ok := negatedArgument(x.Arg); ok {
			return mulExpr(num(-1), call("sin", pos))
		}
	case "cos":
		if isNum(x.Arg, 0) {
			return num(1)
		}
		if pos, ok := negatedArgument(x.Arg); ok {
			return call("cos", pos)
		}
	case "tan":
		if isNum(x.Arg, 0) {
			return num(0)
		}
		if pos, ok := negatedArgument(x.Arg); ok {
			return mulExpr(num(-1), call("tan", pos))
		}
	case "ln":
		return en.simplifyLog(x, true)
	case "log":
		return en.simplifyLog(x, false)
	case "exp":
		if isNum(x.Arg, 0) {
			return num(1)
		}
	case "sqrt":
		if x.Index == nil {
			if isNum(x.Arg, 0) {
				return num(0)
			}
			if isNum(x.Arg, 1) {
				return num(1)
			}
			// sqrt(u^2) is |u|.
			if p, ok := x.Arg.(*ast.BinaryExpr); ok && p.Op == "^" && isNum(p.Right, 2) {
				return &ast.AbsExpr{Arg: p.Left}
			}
		}
	}
	return x
}

func (en *Engine) simplifyLog(x *ast.FunctionCall, natural bool) ast.Expr {
	logOf := func(arg ast.Expr) ast.Expr {
		out := call(x.Name, arg)
		out.Base = x.Base
		return out
	}

	if isNum(x.Arg, 1) {
		return num(0)
	}
	if natural {
		if v, ok := x.Arg.(*ast.Variable); ok && v.Name == "e" {
			return num(1)
		}
	} else if x.Base == nil && isNum(x.Arg, 10) {
		return num(1)
	}

	switch arg := x.Arg.(type) {
	case *ast.BinaryExpr:
		switch arg.Op {
		case "^":
			// log(a^b) pulls the exponent out when a is known positive.
			if en.Assumptions.isPositive(arg.Left) {
				return mulExpr(arg.Right, logOf(arg.Left))
			}
		case "*":
			if en.Assumptions.isPositive(arg.Left) && en.Assumptions.isPositive(arg.Right) {
				return addExpr(logOf(arg.Left), logOf(arg.Right))
			}
		case "/":
			if en.Assumptions.isPositive(arg.Left) && en.Assumptions.isPositive(arg.Right) {
				return subExpr(logOf(arg.Left), logOf(arg.Right))
			}
		}
	}
	return x
}

// applyPythagorean rewrites c·sin²(u) + c·cos²(u) within an addition
// chain to the constant c, matching over a generic argument subtree.
func (en *Engine) applyPythagorean(e *ast.BinaryExpr) ast.Expr {
	var terms []term
	collectTerms(e, 1, &terms)

	type trigTerm struct {
		idx   int
		coeff float64
		fn    string
		arg   string
	}
	classify := func(t term) (trigTerm, bool) {
		p, ok := t.core.(*ast.BinaryExpr)
		if !ok || p.Op != "^" || !isNum(p.Right, 2) {
			return trigTerm{}, false
		}
		fc, ok := p.Left.(*ast.FunctionCall)
		if !ok || (fc.Name != "sin" && fc.Name != "cos") {
			return trigTerm{}, false
		}
		return trigTerm{coeff: t.coeff, fn: fc.Name, arg: exprKey(fc.Arg)}, true
	}

	sines := map[string]int{}
	for i, t := range terms {
		if tt, ok := classify(t); ok && tt.fn == "sin" {
			sines[tt.arg] = i
		}
	}

	changed := false
	removed := map[int]bool{}
	extra := 0.0
	for i, t := range terms {
		tt, ok := classify(t)
		if !ok || tt.fn != "cos" || removed[i] {
			continue
		}
		j, ok := sines[tt.arg]
		if !ok || removed[j] || terms[j].coeff != t.coeff {
			continue
		}
		removed[i] = true
		removed[j] = true
		extra += t.coeff
		changed = true
	}
	if !changed {
		return e
	}

	var rebuilt ast.Expr = num(extra)
	for i, t := range terms {
		if removed[i] {
			continue
		}
		var node ast.Expr
		switch {
		case t.core == nil:
			node = num(t.coeff)
		case t.coeff == 1:
			node = t.core
		default:
			node = mulExpr(num(t.coeff), t.core)
		}
		rebuilt = addExpr(rebuilt, node)
	}
	return rebuilt
}
