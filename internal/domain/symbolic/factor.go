package symbolic

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Factor recognizes difference-of-squares, perfect-square trinomials
// and common numeric factors on normalized trees; anything else comes
// back normalized but otherwise untouched.
func (en *Engine) Factor(e ast.Expr) (ast.Expr, error) {
	normalized, err := en.Normalize(e)
	if err != nil {
		return nil, err
	}
	return en.factorOnce(normalized, 0)
}

func (en *Engine) factorOnce(e ast.Expr, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}

	var walkErr error
	e = ast.Map(e, func(c ast.Expr) ast.Expr {
		if walkErr != nil {
			return c
		}
		f, err := en.factorOnce(c, depth+1)
		if err != nil {
			walkErr = err
			return c
		}
		return f
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if !isAddition(e) {
		return e, nil
	}

	var terms []term
	collectTerms(e, 1, &terms)

	if out, ok := en.factorDifferenceOfSquares(terms); ok {
		return out, nil
	}
	if out, ok := en.factorPerfectSquare(terms); ok {
		return out, nil
	}
	if out, ok := en.factorCommonNumeric(terms); ok {
		return out, nil
	}
	return e, nil
}

// squareRootOf recognizes a term that is a perfect square and returns
// its square root: the coefficient must be a perfect square and every
// factor of the core must carry an even integer exponent.
func squareRootOf(t term) (ast.Expr, bool) {
	c := t.coeff
	if c <= 0 {
		return nil, false
	}
	s := math.Sqrt(c)
	if s != math.Trunc(s) {
		return nil, false
	}
	if t.core == nil {
		return num(s), true
	}

	var factors []factor
	coeff := 1.0
	collectFactors(t.core, &factors, &coeff)
	if coeff != 1 {
		return nil, false
	}
	var roots []factor
	for _, f := range factors {
		if !isInteger(f.exp) || int64(f.exp)%2 != 0 {
			return nil, false
		}
		roots = append(roots, factor{base: f.base, exp: f.exp / 2})
	}
	root := rebuildFactorChain(roots)
	if s != 1 {
		root = mulExpr(num(s), root)
	}
	return root, true
}

func rebuildFactorChain(factors []factor) ast.Expr {
	var chain ast.Expr
	for i := len(factors) - 1; i >= 0; i-- {
		f := factors[i]
		var node ast.Expr
		if f.exp == 1 {
			node = f.base
		} else {
			node = powExpr(f.base, num(f.exp))
		}
		if chain == nil {
			chain = node
		} else {
			chain = mulExpr(node, chain)
		}
	}
	if chain == nil {
		return num(1)
	}
	return chain
}

// factorDifferenceOfSquares matches A² − B² and yields (A−B)(A+B).
func (en *Engine) factorDifferenceOfSquares(terms []term) (ast.Expr, bool) {
	if len(terms) != 2 {
		return nil, false
	}
	pos, neg := terms[0], terms[1]
	if pos.coeff < 0 {
		pos, neg = neg, pos
	}
	if pos.coeff <= 0 || neg.coeff >= 0 {
		return nil, false
	}
	a, ok := squareRootOf(pos)
	if !ok {
		return nil, false
	}
	b, ok := squareRootOf(term{coeff: -neg.coeff, core: neg.core})
	if !ok {
		return nil, false
	}
	return mulExpr(
		subExpr(ast.Clone(a), ast.Clone(b)),
		addExpr(a, b),
	), true
}

// factorPerfectSquare matches A² ± 2AB + B² and yields (A±B)².
func (en *Engine) factorPerfectSquare(terms []term) (ast.Expr, bool) {
	if len(terms) != 3 {
		return nil, false
	}
	// Try every assignment of the outer squares.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			k := 3 - i - j
			a, ok := squareRootOf(terms[i])
			if !ok {
				continue
			}
			b, ok := squareRootOf(terms[j])
			if !ok {
				continue
			}
			mid := terms[k]
			for _, sign := range []float64{1, -1} {
				want, err := en.Normalize(mulExpr(num(2*sign), mulExpr(ast.Clone(a), ast.Clone(b))))
				if err != nil {
					continue
				}
				var midExpr ast.Expr
				if mid.core == nil {
					midExpr = num(mid.coeff)
				} else if mid.coeff == 1 {
					midExpr = mid.core
				} else {
					midExpr = mulExpr(num(mid.coeff), mid.core)
				}
				got, err := en.Normalize(midExpr)
				if err != nil {
					continue
				}
				if ast.Equal(want, got) {
					inner := addExpr(ast.Clone(a), ast.Clone(b))
					if sign < 0 {
						inner = subExpr(ast.Clone(a), ast.Clone(b))
					}
					return powExpr(inner, num(2)), true
				}
			}
		}
	}
	return nil, false
}

// factorCommonNumeric extracts a shared integer GCD from every
// coefficient: k·A ± k·B becomes k·(A ± B).
func (en *Engine) factorCommonNumeric(terms []term) (ast.Expr, bool) {
	if len(terms) < 2 {
		return nil, false
	}
	g := 0.0
	for _, t := range terms {
		c := math.Abs(t.coeff)
		if c != math.Trunc(c) {
			return nil, false
		}
		g = gcdFloat(g, c)
	}
	if g <= 1 {
		return nil, false
	}
	var inner ast.Expr
	for _, t := range terms {
		c := t.coeff / g
		var node ast.Expr
		switch {
		case t.core == nil:
			node = num(c)
		case c == 1:
			node = t.core
		default:
			node = mulExpr(num(c), t.core)
		}
		if inner == nil {
			inner = node
		} else {
			inner = addExpr(inner, node)
		}
	}
	return mulExpr(num(g), inner), true
}

func gcdFloat(a, b float64) float64 {
	for b != 0 {
		a, b = b, math.Mod(a, b)
	}
	return a
}
