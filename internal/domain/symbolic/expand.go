package symbolic

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// maxExpansionExponent bounds the binomial expansion.
const maxExpansionExponent = 20

// Expand distributes products over sums, applying the binomial theorem
// to integer powers of sums, recursively over all subtrees.
func (en *Engine) Expand(e ast.Expr) (ast.Expr, error) {
	cur := e
	for i := 0; i < en.MaxIterations; i++ {
		normalized, err := en.Normalize(cur)
		if err != nil {
			return nil, err
		}
		expanded, err := en.expandOnce(normalized, 0)
		if err != nil {
			return nil, err
		}
		expanded, err = en.Normalize(expanded)
		if err != nil {
			return nil, err
		}
		if ast.Equal(expanded, cur) {
			return expanded, nil
		}
		cur = expanded
	}
	return cur, nil
}

func (en *Engine) expandOnce(e ast.Expr, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	var walkErr error
	e = ast.Map(e, func(c ast.Expr) ast.Expr {
		if walkErr != nil {
			return c
		}
		x, err := en.expandOnce(c, depth+1)
		if err != nil {
			walkErr = err
			return c
		}
		return x
	})
	if walkErr != nil {
		return nil, walkErr
	}

	b, ok := e.(*ast.BinaryExpr)
	if !ok {
		return e, nil
	}

	switch b.Op {
	case "*":
		if isAddition(b.Left) || isAddition(b.Right) {
			return distribute(b.Left, b.Right), nil
		}
	case "^":
		n, isConst := numValue(b.Right)
		if isConst && isInteger(n) && n >= 0 && n <= maxExpansionExponent && isAddition(b.Left) {
			return en.expandPower(b.Left, int(n)), nil
		}
		// A numeric coefficient leaves an integer power: (c·u)^n = cⁿ·uⁿ.
		if c, rest := splitCoefficient(b.Left); isConst && isInteger(n) && rest != nil && c != 1 {
			return mulExpr(num(math.Pow(c, n)), powExpr(ast.Clone(rest), num(n))), nil
		}
	}
	return e, nil
}

func isAddition(e ast.Expr) bool {
	b, ok := e.(*ast.BinaryExpr)
	return ok && (b.Op == "+" || b.Op == "-")
}

func addends(e ast.Expr) []ast.Expr {
	if b, ok := e.(*ast.BinaryExpr); ok {
		switch b.Op {
		case "+":
			return append(addends(b.Left), addends(b.Right)...)
		case "-":
			right := addends(b.Right)
			negated := make([]ast.Expr, len(right))
			for i, r := range right {
				negated[i] = mulExpr(num(-1), r)
			}
			return append(addends(b.Left), negated...)
		}
	}
	return []ast.Expr{e}
}

// distribute multiplies two (possibly additive) operands term by term.
func distribute(l, r ast.Expr) ast.Expr {
	var sum ast.Expr
	for _, lt := range addends(l) {
		for _, rt := range addends(r) {
			p := mulExpr(ast.Clone(lt), ast.Clone(rt))
			if sum == nil {
				sum = p
			} else {
				sum = addExpr(sum, p)
			}
		}
	}
	return sum
}

// expandPower applies the binomial theorem for a two-term base and
// repeated distribution beyond that.
func (en *Engine) expandPower(base ast.Expr, n int) ast.Expr {
	if n == 0 {
		return num(1)
	}
	parts := addends(base)
	if len(parts) == 2 {
		a, b := parts[0], parts[1]
		var sum ast.Expr
		for k := 0; k <= n; k++ {
			c := binomialCoefficient(n, k)
			termExpr := mulExpr(num(c), mulExpr(
				powExpr(ast.Clone(a), num(float64(n-k))),
				powExpr(ast.Clone(b), num(float64(k))),
			))
			if sum == nil {
				sum = termExpr
			} else {
				sum = addExpr(sum, termExpr)
			}
		}
		return sum
	}
	out := ast.Clone(base)
	for i := 1; i < n; i++ {
		out = distribute(out, base)
	}
	return out
}

func binomialCoefficient(n, k int) float64 {
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result = result * float64(n-i) / float64(i+1)
	}
	return math.Round(result)
}

// ExpandTrig rewrites multiple-angle and half-angle forms of sin, cos
// and tan via the standard identities, then expands algebraically.
func (en *Engine) ExpandTrig(e ast.Expr) (ast.Expr, error) {
	cur, err := en.Normalize(e)
	if err != nil {
		return nil, err
	}
	for i := 0; i < en.MaxIterations; i++ {
		rewritten, err := en.expandTrigOnce(cur, 0)
		if err != nil {
			return nil, err
		}
		rewritten, err = en.Normalize(rewritten)
		if err != nil {
			return nil, err
		}
		if ast.Equal(rewritten, cur) {
			break
		}
		cur = rewritten
	}
	return en.Expand(cur)
}

func (en *Engine) expandTrigOnce(e ast.Expr, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	var walkErr error
	e = ast.Map(e, func(c ast.Expr) ast.Expr {
		if walkErr != nil {
			return c
		}
		x, err := en.expandTrigOnce(c, depth+1)
		if err != nil {
			walkErr = err
			return c
		}
		return x
	})
	if walkErr != nil {
		return nil, walkErr
	}

	fc, ok := e.(*ast.FunctionCall)
	if !ok {
		return e, nil
	}
	switch fc.Name {
	case "sin", "cos", "tan":
	default:
		return e, nil
	}

	coeff, rest := splitCoefficient(fc.Arg)
	if rest == nil {
		return e, nil
	}

	switch coeff {
	case 2:
		s := call("sin", ast.Clone(rest))
		c := call("cos", ast.Clone(rest))
		switch fc.Name {
		case "sin":
			return mulExpr(num(2), mulExpr(s, c)), nil
		case "cos":
			return subExpr(powExpr(c, num(2)), powExpr(s, num(2))), nil
		case "tan":
			t := call("tan", ast.Clone(rest))
			return divExpr(
				mulExpr(num(2), t),
				subExpr(num(1), powExpr(call("tan", ast.Clone(rest)), num(2))),
			), nil
		}
	case 3:
		s := call("sin", ast.Clone(rest))
		c := call("cos", ast.Clone(rest))
		switch fc.Name {
		case "sin":
			return subExpr(
				mulExpr(num(3), s),
				mulExpr(num(4), powExpr(call("sin", ast.Clone(rest)), num(3))),
			), nil
		case "cos":
			return subExpr(
				mulExpr(num(4), powExpr(c, num(3))),
				mulExpr(num(3), call("cos", ast.Clone(rest))),
			), nil
		case "tan":
			return divExpr(
				call("sin", mulExpr(num(3), ast.Clone(rest))),
				call("cos", mulExpr(num(3), ast.Clone(rest))),
			), nil
		}
	case 4:
		// 4x reads as 2·(2x); the double-angle form of the inner 2x
		// expands further on the next pass.
		inner := mulExpr(num(2), ast.Clone(rest))
		switch fc.Name {
		case "sin":
			return mulExpr(num(2), mulExpr(call("sin", inner), call("cos", ast.Clone(inner)))), nil
		case "cos":
			return subExpr(powExpr(call("cos", inner), num(2)), powExpr(call("sin", ast.Clone(inner)), num(2))), nil
		case "tan":
			return divExpr(
				mulExpr(num(2), call("tan", inner)),
				subExpr(num(1), powExpr(call("tan", ast.Clone(inner)), num(2))),
			), nil
		}
	case 0.5:
		c := call("cos", ast.Clone(rest))
		switch fc.Name {
		case "sin":
			return call("sqrt", divExpr(subExpr(num(1), c), num(2))), nil
		case "cos":
			return call("sqrt", divExpr(addExpr(num(1), c), num(2))), nil
		case "tan":
			return divExpr(
				subExpr(num(1), call("cos", ast.Clone(rest))),
				call("sin", ast.Clone(rest)),
			), nil
		}
	}
	return e, nil
}
