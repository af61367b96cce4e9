package symbolic

import (
	"math"
	"sort"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Normalize canonicalizes a tree for structural comparison: flattened
// and re-associated commutative chains, folded numeric leaves, absorbed
// negation, operands ordered by a stable key, and the collapse family
// (0+e, 1·e, 0·e, e^0, e^1, e/e, e−e, x·x, x+x).
func (en *Engine) Normalize(e ast.Expr) (ast.Expr, error) {
	cur := e
	for i := 0; i < en.MaxIterations; i++ {
		next, err := en.normalizeOnce(cur, 0)
		if err != nil {
			return nil, err
		}
		if ast.Equal(next, cur) {
			return next, nil
		}
		cur = next
	}
	return cur, nil
}

func (en *Engine) normalizeOnce(e ast.Expr, depth int) (ast.Expr, error) {
	if depth > en.MaxDepth {
		return nil, en.depthError()
	}
	switch x := e.(type) {
	case *ast.NumberLiteral, *ast.Variable:
		return e, nil

	case *ast.UnaryExpr:
		operand, err := en.normalizeOnce(x.Operand, depth+1)
		if err != nil {
			return nil, err
		}
		if v, ok := numValue(operand); ok {
			return num(-v), nil
		}
		return en.rebuildMul([]factor{{base: num(-1)}, {base: operand}}), nil

	case *ast.BinaryExpr:
		left, err := en.normalizeOnce(x.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := en.normalizeOnce(x.Right, depth+1)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "+", "-":
			return en.normalizeAdd(&ast.BinaryExpr{Op: x.Op, Left: left, Right: right}), nil
		case "*":
			return en.normalizeMul(&ast.BinaryExpr{Op: "*", Left: left, Right: right}), nil
		case "/":
			return en.normalizeDiv(left, right), nil
		case "^":
			return en.normalizePow(left, right), nil
		}
		return &ast.BinaryExpr{Op: x.Op, Left: left, Right: right}, nil
	}

	// Every other node normalizes its children in place.
	var walkErr error
	out := ast.Map(e, func(c ast.Expr) ast.Expr {
		if walkErr != nil {
			return c
		}
		n, err := en.normalizeOnce(c, depth+1)
		if err != nil {
			walkErr = err
			return c
		}
		return n
	})
	return out, walkErr
}

// term is one summand: coeff times a non-numeric core (core nil means
// a pure constant).
type term struct {
	coeff float64
	core  ast.Expr
	key   string
}

// factor is one multiplicand: base raised to a numeric exponent.
type factor struct {
	base ast.Expr
	exp  float64
	key  string
}

func collectTerms(e ast.Expr, sign float64, out *[]term) {
	switch x := e.(type) {
	case *ast.BinaryExpr:
		switch x.Op {
		case "+":
			collectTerms(x.Left, sign, out)
			collectTerms(x.Right, sign, out)
			return
		case "-":
			collectTerms(x.Left, sign, out)
			collectTerms(x.Right, -sign, out)
			return
		}
	case *ast.UnaryExpr:
		if x.Op == "-" {
			collectTerms(x.Operand, -sign, out)
			return
		}
	}
	coeff, core := splitCoefficient(e)
	*out = append(*out, term{coeff: sign * coeff, core: core})
}

// splitCoefficient peels the numeric coefficient off a normalized
// product chain.
func splitCoefficient(e ast.Expr) (float64, ast.Expr) {
	if v, ok := numValue(e); ok {
		return v, nil
	}
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == "*" {
		if v, ok := numValue(b.Left); ok {
			return v, b.Right
		}
	}
	return 1, e
}

func (en *Engine) normalizeAdd(e ast.Expr) ast.Expr {
	var terms []term
	collectTerms(e, 1, &terms)

	constant := 0.0
	grouped := map[string]*term{}
	order := []string{}
	for _, t := range terms {
		if t.core == nil {
			constant += t.coeff
			continue
		}
		key := exprKey(t.core)
		if g, ok := grouped[key]; ok {
			g.coeff += t.coeff
			continue
		}
		copied := t
		copied.key = key
		grouped[key] = &copied
		order = append(order, key)
	}
	sort.Strings(order)

	var kept []term
	for _, key := range order {
		g := grouped[key]
		if g.coeff == 0 {
			continue
		}
		kept = append(kept, *g)
	}

	if len(kept) == 0 {
		return num(constant)
	}

	// Numbers order first; remaining terms follow their canonical key,
	// re-associated into a right-leaning chain.
	var chain ast.Expr
	for i := len(kept) - 1; i >= 0; i-- {
		t := kept[i]
		var node ast.Expr
		if t.coeff == 1 {
			node = t.core
		} else {
			node = mulExpr(num(t.coeff), t.core)
		}
		if chain == nil {
			chain = node
		} else {
			chain = addExpr(node, chain)
		}
	}
	if constant != 0 {
		chain = addExpr(num(constant), chain)
	}
	return chain
}

func collectFactors(e ast.Expr, out *[]factor, coeff *float64) {
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == "*" {
		collectFactors(b.Left, out, coeff)
		collectFactors(b.Right, out, coeff)
		return
	}
	if v, ok := numValue(e); ok {
		*coeff *= v
		return
	}
	if b, ok := e.(*ast.BinaryExpr); ok && b.Op == "^" {
		if n, ok := numValue(b.Right); ok {
			*out = append(*out, factor{base: b.Left, exp: n})
			return
		}
	}
	*out = append(*out, factor{base: e, exp: 1})
}

func (en *Engine) normalizeMul(e ast.Expr) ast.Expr {
	var factors []factor
	coeff := 1.0
	collectFactors(e, &factors, &coeff)

	if coeff == 0 {
		return num(0)
	}

	grouped := map[string]*factor{}
	order := []string{}
	for _, f := range factors {
		key := exprKey(f.base)
		if g, ok := grouped[key]; ok {
			g.exp += f.exp
			continue
		}
		copied := f
		copied.key = key
		grouped[key] = &copied
		order = append(order, key)
	}
	sort.Strings(order)

	var kept []factor
	for _, key := range order {
		g := grouped[key]
		if g.exp == 0 {
			continue
		}
		kept = append(kept, *g)
	}

	if len(kept) == 0 {
		return num(coeff)
	}
	out := kept
	if coeff != 1 {
		out = append([]factor{{base: num(coeff)}}, kept...)
	}
	return en.rebuildMul(out)
}

// rebuildMul chains factors right-leaning; a factor with exp 0 is the
// plain base (used for the literal coefficient slot).
func (en *Engine) rebuildMul(factors []factor) ast.Expr {
	var chain ast.Expr
	for i := len(factors) - 1; i >= 0; i-- {
		f := factors[i]
		var node ast.Expr
		switch {
		case f.exp == 0 || f.exp == 1:
			node = f.base
		default:
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

func (en *Engine) normalizeDiv(left, right ast.Expr) ast.Expr {
	if lv, ok := numValue(left); ok {
		if rv, ok := numValue(right); ok && rv != 0 {
			return num(lv / rv)
		}
		if lv == 0 && !isNum(right, 0) {
			return num(0)
		}
	}
	if isNum(right, 1) {
		return left
	}
	// Division by a numeric constant reads as multiplication by its
	// reciprocal so products can fold across it.
	if rv, ok := numValue(right); ok && rv != 0 {
		return en.normalizeMul(mulExpr(num(1/rv), left))
	}
	if exprKey(left) == exprKey(right) && !isNum(left, 0) {
		return num(1)
	}
	return divExpr(left, right)
}

func (en *Engine) normalizePow(left, right ast.Expr) ast.Expr {
	if isNum(right, 0) {
		// x^0 is 1, including 0^0 by convention.
		return num(1)
	}
	if isNum(right, 1) {
		return left
	}
	if lv, ok := numValue(left); ok {
		if rv, ok := numValue(right); ok {
			folded := math.Pow(lv, rv)
			if !math.IsNaN(folded) && !math.IsInf(folded, 0) {
				return num(folded)
			}
		}
	}
	return powExpr(left, right)
}
