package symbolic

import (
	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Solve finds the roots of a linear or quadratic polynomial in the
// named variable. The input may be an equation (lhs = rhs) or a bare
// expression implicitly equal to zero. Symbolic coefficients are
// allowed; the returned roots then contain square-root subtrees. With
// realOnly set, a numerically negative discriminant yields no roots.
func (en *Engine) Solve(e ast.Expr, name string, realOnly bool) ([]ast.Expr, error) {
	if cmp, ok := e.(*ast.Comparison); ok {
		if cmp.Op != "=" {
			return nil, matherr.NewEvaluation("can only solve equalities")
		}
		e = subExpr(ast.Clone(cmp.Left), ast.Clone(cmp.Right))
	}
	normalized, err := en.Normalize(e)
	if err != nil {
		return nil, err
	}

	coeffs, err := en.collectPolynomial(normalized, name)
	if err != nil {
		return nil, err
	}
	a, b, c := coeffs[2], coeffs[1], coeffs[0]

	simplifyAll := func(roots []ast.Expr) ([]ast.Expr, error) {
		out := make([]ast.Expr, len(roots))
		for i, r := range roots {
			s, err := en.Simplify(r)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}

	if a == nil {
		if b == nil {
			return nil, matherr.NewEvaluation("expression is constant in %q", name)
		}
		// B·x + C = 0 has the single root -C/B.
		if c == nil {
			c = num(0)
		}
		return simplifyAll([]ast.Expr{
			divExpr(mulExpr(num(-1), c), b),
		})
	}

	if b == nil {
		b = num(0)
	}
	if c == nil {
		c = num(0)
	}

	disc := subExpr(
		powExpr(ast.Clone(b), num(2)),
		mulExpr(num(4), mulExpr(ast.Clone(a), ast.Clone(c))),
	)
	discN, err := en.Normalize(disc)
	if err != nil {
		return nil, err
	}

	if dv, ok := numValue(discN); ok && dv < 0 {
		if realOnly {
			return nil, nil
		}
		// Complex pair: (-B ± i·√(-D)) / (2A).
		re := divExpr(mulExpr(num(-1), ast.Clone(b)), mulExpr(num(2), ast.Clone(a)))
		im := divExpr(call("sqrt", num(-dv)), mulExpr(num(2), ast.Clone(a)))
		return simplifyAll([]ast.Expr{
			addExpr(ast.Clone(re), mulExpr(ast.Clone(im), variable("i"))),
			subExpr(re, mulExpr(im, variable("i"))),
		})
	}

	root := call("sqrt", discN)
	twoA := mulExpr(num(2), ast.Clone(a))
	return simplifyAll([]ast.Expr{
		divExpr(addExpr(mulExpr(num(-1), ast.Clone(b)), ast.Clone(root)), ast.Clone(twoA)),
		divExpr(subExpr(mulExpr(num(-1), ast.Clone(b)), root), twoA),
	})
}

// collectPolynomial splits a normalized expression into coefficients
// of x^0, x^1 and x^2. Higher powers and non-polynomial occurrences of
// the variable fail.
func (en *Engine) collectPolynomial(e ast.Expr, name string) ([3]ast.Expr, error) {
	var coeffs [3]ast.Expr
	var terms []term
	collectTerms(e, 1, &terms)

	accumulate := func(degree int, contribution ast.Expr) {
		if coeffs[degree] == nil {
			coeffs[degree] = contribution
		} else {
			coeffs[degree] = addExpr(coeffs[degree], contribution)
		}
	}

	for _, t := range terms {
		if t.core == nil {
			accumulate(0, num(t.coeff))
			continue
		}

		var factors []factor
		coeff := t.coeff
		collectFactors(t.core, &factors, &coeff)

		degree := 0
		var rest []factor
		for _, f := range factors {
			if isBareVar(f.base, name) {
				if !isInteger(f.exp) || f.exp < 0 || f.exp > 2 {
					return coeffs, matherr.NewEvaluation("expression is not a quadratic in %q", name)
				}
				degree += int(f.exp)
				continue
			}
			if containsVar(f.base, name) {
				return coeffs, matherr.NewEvaluation("expression is not a quadratic in %q", name)
			}
			rest = append(rest, f)
		}
		if degree > 2 {
			return coeffs, matherr.NewEvaluation("expression is not a quadratic in %q", name)
		}

		var contribution ast.Expr
		if len(rest) == 0 {
			contribution = num(coeff)
		} else {
			chain := rebuildFactorChain(rest)
			if coeff == 1 {
				contribution = chain
			} else {
				contribution = mulExpr(num(coeff), chain)
			}
		}
		accumulate(degree, contribution)
	}

	// Drop coefficients that normalize to zero.
	for i, c := range coeffs {
		if c == nil {
			continue
		}
		n, err := en.Normalize(c)
		if err != nil {
			return coeffs, err
		}
		if v, ok := numValue(n); ok && v == 0 {
			coeffs[i] = nil
			continue
		}
		coeffs[i] = n
	}
	return coeffs, nil
}
