package eval

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// limitTolerance is the relative agreement required between successive
// limit samples.
const limitTolerance = 1e-6

func (ev *Evaluator) evalSumProd(x *ast.SumExpr, scope *env, depth int) (value.Result, error) {
	if x.Lower == nil || x.Upper == nil {
		return value.Result{}, matherr.NewEvaluation("sum/product requires both bounds")
	}
	lower, err := ev.evalFiniteInt(x.Lower, scope, depth, "lower bound")
	if err != nil {
		return value.Result{}, err
	}
	upper, err := ev.evalFiniteInt(x.Upper, scope, depth, "upper bound")
	if err != nil {
		return value.Result{}, err
	}

	// Empty-range convention: sums give 0, products give 1.
	if upper < lower {
		if x.IsProduct {
			return value.NewNumeric(1), nil
		}
		return value.NewNumeric(0), nil
	}
	count := upper - lower + 1
	if count > int64(ev.IterationCap) {
		return value.Result{}, matherr.NewEvaluation("iteration count %d exceeds cap of %d", count, ev.IterationCap)
	}

	var acc value.Result
	if x.IsProduct {
		acc = value.NewNumeric(1)
	} else {
		acc = value.NewNumeric(0)
	}
	frame := map[string]value.Result{}
	loop := scope.child(frame)
	for i := lower; i <= upper; i++ {
		frame[x.Var] = value.NewNumeric(float64(i))
		v, err := ev.eval(x.Body, loop, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		if x.IsProduct {
			acc, err = ev.multiply(acc, v)
		} else {
			acc, err = add(acc, v)
		}
		if err != nil {
			return value.Result{}, err
		}
	}
	return acc, nil
}

func (ev *Evaluator) evalFiniteInt(e ast.Expr, scope *env, depth int, what string) (int64, error) {
	r, err := ev.eval(e, scope, depth+1)
	if err != nil {
		return 0, err
	}
	n, err := r.AsNumeric()
	if err != nil {
		return 0, matherr.NewEvaluation("%s is not real: %s", what, err)
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, matherr.NewEvaluation("%s must be finite", what)
	}
	return int64(math.Round(n)), nil
}

func (ev *Evaluator) evalLimit(x *ast.LimitExpr, scope *env, depth int) (value.Result, error) {
	target, err := ev.eval(x.Approaches, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	a, err := target.AsNumeric()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("limit target is not real: %s", err)
	}

	sample := func(t float64) (float64, bool) {
		frame := map[string]value.Result{x.Var: value.NewNumeric(t)}
		r, err := ev.eval(x.Body, scope.child(frame), depth+1)
		if err != nil {
			return 0, false
		}
		v, err := r.AsNumeric()
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}

	// x -> ±∞ samples a geometric sequence of large finite surrogates.
	if math.IsInf(a, 0) {
		sign := 1.0
		if math.IsInf(a, -1) {
			sign = -1
		}
		prev, okPrev := sample(sign * 10)
		for k := 1; k <= ev.LimitHalvings; k++ {
			cur, ok := sample(sign * math.Pow(10, float64(k+1)))
			if ok && okPrev && relativeAgree(prev, cur) {
				return value.NewNumeric(cur), nil
			}
			prev, okPrev = cur, ok
		}
		return value.NaN(), nil
	}

	sideLimit := func(dir float64) (float64, bool) {
		eps := 0.1
		prev, okPrev := sample(a + dir*eps)
		for k := 0; k < ev.LimitHalvings; k++ {
			eps /= 2
			cur, ok := sample(a + dir*eps)
			if ok && okPrev && relativeAgree(prev, cur) {
				return cur, true
			}
			prev, okPrev = cur, ok
		}
		return prev, false
	}

	switch x.Side {
	case "+":
		if v, ok := sideLimit(1); ok {
			return value.NewNumeric(v), nil
		}
	case "-":
		if v, ok := sideLimit(-1); ok {
			return value.NewNumeric(v), nil
		}
	default:
		right, okR := sideLimit(1)
		left, okL := sideLimit(-1)
		if okR && okL && relativeAgree(left, right) {
			return value.NewNumeric((left + right) / 2), nil
		}
	}
	return value.NaN(), nil
}

func relativeAgree(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= limitTolerance*math.Max(scale, 1)
}

func (ev *Evaluator) evalIntegral(x *ast.IntegralExpr, scope *env, depth int) (value.Result, error) {
	// Indefinite integrals route to the symbolic integrator and the
	// antiderivative is evaluated in the current environment.
	if x.Lower == nil || x.Upper == nil {
		anti, err := ev.sym.Integrate(ev.inlineUserFunctions(x.Body, depth), x.Var)
		if err != nil {
			return value.Result{}, err
		}
		return ev.eval(anti, scope, depth+1)
	}

	lo, err := ev.evalClampedBound(x.Lower, scope, depth)
	if err != nil {
		return value.Result{}, err
	}
	hi, err := ev.evalClampedBound(x.Upper, scope, depth)
	if err != nil {
		return value.Result{}, err
	}

	integrand := func(t float64) (float64, error) {
		frame := map[string]value.Result{x.Var: value.NewNumeric(t)}
		r, err := ev.eval(x.Body, scope.child(frame), depth+1)
		if err != nil {
			return 0, err
		}
		v, err := r.AsNumeric()
		if err != nil {
			return 0, matherr.NewEvaluation("integrand is not real: %s", err)
		}
		return v, nil
	}
	v, err := ev.simpson(integrand, lo, hi)
	if err != nil {
		return value.Result{}, err
	}
	return value.NewNumeric(v), nil
}

// evalClampedBound resolves an integration bound, clamping infinities
// to the configured finite surrogate (a documented approximation).
func (ev *Evaluator) evalClampedBound(e ast.Expr, scope *env, depth int) (float64, error) {
	r, err := ev.eval(e, scope, depth+1)
	if err != nil {
		return 0, err
	}
	v, err := r.AsNumeric()
	if err != nil {
		return 0, matherr.NewEvaluation("integration bound is not real: %s", err)
	}
	if math.IsInf(v, 1) {
		return ev.InfinityBound, nil
	}
	if math.IsInf(v, -1) {
		return -ev.InfinityBound, nil
	}
	return v, nil
}

// simpson integrates with the composite Simpson rule over the
// configured number of subintervals.
func (ev *Evaluator) simpson(f func(float64) (float64, error), lo, hi float64) (float64, error) {
	n := ev.SimpsonIntervals
	if n < 2 {
		n = 2
	}
	if n%2 != 0 {
		n++
	}
	h := (hi - lo) / float64(n)
	if h == 0 {
		return 0, nil
	}
	sum, err := f(lo)
	if err != nil {
		return 0, err
	}
	last, err := f(hi)
	if err != nil {
		return 0, err
	}
	sum += last
	for i := 1; i < n; i++ {
		v, err := f(lo + float64(i)*h)
		if err != nil {
			return 0, err
		}
		if i%2 == 1 {
			sum += 4 * v
		} else {
			sum += 2 * v
		}
	}
	return sum * h / 3, nil
}

func (ev *Evaluator) evalMultiIntegral(x *ast.MultiIntegralExpr, scope *env, depth int) (value.Result, error) {
	los := make([]float64, x.Order)
	his := make([]float64, x.Order)
	for i := 0; i < x.Order; i++ {
		lowerExpr := x.Lowers[i]
		upperExpr := x.Uppers[i]
		// A single bound pair applies to every declared variable.
		if lowerExpr == nil {
			lowerExpr = x.Lowers[0]
		}
		if upperExpr == nil {
			upperExpr = x.Uppers[0]
		}
		if lowerExpr == nil || upperExpr == nil {
			return value.Result{}, matherr.NewEvaluation("multi-integral requires bounds for numeric evaluation")
		}
		var err error
		los[i], err = ev.evalClampedBound(lowerExpr, scope, depth)
		if err != nil {
			return value.Result{}, err
		}
		his[i], err = ev.evalClampedBound(upperExpr, scope, depth)
		if err != nil {
			return value.Result{}, err
		}
	}

	// Iterated Simpson in the declared variable order, with a reduced
	// grid per axis to keep the total sample count bounded.
	n := ev.SimpsonIntervals
	for n > 64 && powIntCost(n, x.Order) > ev.IterationCap {
		n /= 2
	}

	frame := map[string]value.Result{}
	loop := scope.child(frame)
	var integrate func(axis int) (float64, error)
	integrate = func(axis int) (float64, error) {
		f := func(t float64) (float64, error) {
			frame[x.Vars[axis]] = value.NewNumeric(t)
			if axis == x.Order-1 {
				r, err := ev.eval(x.Body, loop, depth+1)
				if err != nil {
					return 0, err
				}
				v, err := r.AsNumeric()
				if err != nil {
					return 0, matherr.NewEvaluation("integrand is not real: %s", err)
				}
				return v, nil
			}
			return integrate(axis + 1)
		}
		saved := ev.SimpsonIntervals
		ev.SimpsonIntervals = n
		defer func() { ev.SimpsonIntervals = saved }()
		return ev.simpson(f, los[axis], his[axis])
	}
	v, err := integrate(0)
	if err != nil {
		return value.Result{}, err
	}
	return value.NewNumeric(v), nil
}

func powIntCost(n, order int) int {
	cost := 1
	for i := 0; i < order; i++ {
		if cost > 1<<30/(n+1) {
			return 1 << 30
		}
		cost *= n + 1
	}
	return cost
}
