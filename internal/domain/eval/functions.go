package eval

import (
	"math"
	"math/cmplx"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// Integer-overflow protection limits for the memoized helpers.
const (
	MaxFactorial = 170
	MaxFibonacci = 1476
)

// Process-wide memo tables, read-only after initialization.
var (
	factorialMemo [MaxFactorial + 1]float64
	fibonacciMemo [MaxFibonacci + 1]float64
)

func init() {
	factorialMemo[0] = 1
	for i := 1; i <= MaxFactorial; i++ {
		factorialMemo[i] = factorialMemo[i-1] * float64(i)
	}
	fibonacciMemo[0] = 0
	fibonacciMemo[1] = 1
	for i := 2; i <= MaxFibonacci; i++ {
		fibonacciMemo[i] = fibonacciMemo[i-1] + fibonacciMemo[i-2]
	}
}

func factorial(n float64) (float64, error) {
	if n < 0 || n != math.Trunc(n) {
		return 0, matherr.NewEvaluation("factorial requires a non-negative integer, got %g", n)
	}
	if n > MaxFactorial {
		return 0, matherr.NewEvaluation("factorial overflow: %g exceeds %d", n, MaxFactorial)
	}
	return factorialMemo[int(n)], nil
}

func fibonacci(n float64) (float64, error) {
	if n < 0 || n != math.Trunc(n) {
		return 0, matherr.NewEvaluation("fibonacci requires a non-negative integer, got %g", n)
	}
	if n > MaxFibonacci {
		return 0, matherr.NewEvaluation("fibonacci overflow: %g exceeds %d", n, MaxFibonacci)
	}
	return fibonacciMemo[int(n)], nil
}

// binomial computes C(n, k) multiplicatively so that moderate n stay
// exact where the factorial quotient would overflow.
func binomial(n, k float64) (float64, error) {
	if n != math.Trunc(n) || k != math.Trunc(k) {
		return 0, matherr.NewEvaluation("binomial requires integer operands")
	}
	if k < 0 || k > n || n < 0 {
		return 0, nil
	}
	if k > n-k {
		k = n - k
	}
	result := 1.0
	for i := 0.0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return math.Round(result), nil
}

// builtinNames lists every function the evaluator knows, for
// nearest-name suggestions.
var builtinNames = []string{
	"sin", "cos", "tan", "sec", "csc", "cot",
	"arcsin", "arccos", "arctan",
	"sinh", "cosh", "tanh",
	"exp", "ln", "log", "sqrt", "abs", "norm",
	"floor", "ceil", "round", "sign",
	"min", "max", "gcd", "lcm", "mod",
	"det", "tr", "transpose", "inverse",
	"fib", "fibonacci", "factorial",
}

func (ev *Evaluator) evalFunctionCall(x *ast.FunctionCall, scope *env, depth int) (value.Result, error) {
	// User-defined functions take precedence over the catalogue.
	if r, ok := ev.globals.Get(x.Name); ok {
		if def, err := r.AsFunction(); err == nil {
			return ev.callUserFunction(def, x, scope, depth)
		}
	}

	switch x.Name {
	case "sqrt":
		return ev.evalSqrt(x, scope, depth)
	case "log":
		return ev.evalLog(x, scope, depth)
	case "min", "max", "gcd", "lcm", "mod":
		return ev.evalMultiArg(x, scope, depth)
	}

	if isUnaryBuiltin(x.Name) {
		arg, err := ev.eval(x.Arg, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		return ev.applyUnaryBuiltin(x.Name, arg)
	}

	// A single-letter call like x(y+1) over a plain variable is
	// implicit multiplication.
	if r, ok := scope.lookup(x.Name); ok && len(x.Args) == 0 {
		arg, err := ev.eval(x.Arg, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		return ev.multiply(r, arg)
	}

	err := matherr.NewEvaluation("unknown function %q", x.Name)
	if s := matherr.Nearest(x.Name, builtinNames); s != "" {
		err.WithSuggestion("did you mean " + s + "?")
	}
	return value.Result{}, err
}

func (ev *Evaluator) callUserFunction(def *ast.FunctionDefExpr, x *ast.FunctionCall, scope *env, depth int) (value.Result, error) {
	args := append([]ast.Expr{x.Arg}, x.Args...)
	if len(args) != len(def.Params) {
		return value.Result{}, matherr.NewEvaluation("%s expects %d argument(s), got %d", def.Name, len(def.Params), len(args))
	}
	frame := make(map[string]value.Result, len(args))
	for i, param := range def.Params {
		v, err := ev.eval(args[i], scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		frame[param] = v
	}
	// The depth budget doubles as cycle detection for self-referential
	// definitions.
	res, err := ev.eval(def.Body, scope.child(frame), depth+1)
	if err != nil {
		if me, ok := err.(*matherr.MathError); ok && me.Kind == matherr.Evaluation && depth > ev.MaxDepth-2 {
			return value.Result{}, matherr.NewEvaluation("cycle detected in definition of %q", def.Name)
		}
		return value.Result{}, err
	}
	return res, nil
}

func (ev *Evaluator) evalSqrt(x *ast.FunctionCall, scope *env, depth int) (value.Result, error) {
	arg, err := ev.eval(x.Arg, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	n := 2.0
	if x.Index != nil {
		idx, err := ev.eval(x.Index, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		n, err = idx.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("root index must be real: %s", err)
		}
		if n == 0 {
			return value.Result{}, matherr.NewEvaluation("root index must be non-zero")
		}
	}

	switch arg.Kind() {
	case value.Numeric:
		v, _ := arg.AsNumeric()
		if v >= 0 {
			return value.NewNumeric(math.Pow(v, 1/n)), nil
		}
		// Odd integer roots of negatives stay real.
		if n == math.Trunc(n) && int64(n)%2 != 0 {
			return value.NewNumeric(-math.Pow(-v, 1/n)), nil
		}
		if ev.RealOnly {
			return value.NaN(), nil
		}
		return value.NewComplex(cmplx.Pow(complex(v, 0), complex(1/n, 0))), nil
	case value.Complex:
		if ev.RealOnly {
			return value.NaN(), nil
		}
		c, _ := arg.AsComplex()
		return value.NewComplex(cmplx.Pow(c, complex(1/n, 0))), nil
	case value.Interval:
		lo, hi, _ := arg.AsInterval()
		if lo < 0 {
			return value.Result{}, matherr.NewEvaluation("root of an interval with negative lower bound")
		}
		return value.NewInterval(math.Pow(lo, 1/n), math.Pow(hi, 1/n)), nil
	}
	return value.Result{}, matherr.NewEvaluation("sqrt requires a scalar, got %s", arg.Kind())
}

func (ev *Evaluator) evalLog(x *ast.FunctionCall, scope *env, depth int) (value.Result, error) {
	arg, err := ev.eval(x.Arg, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	base := 10.0
	if x.Base != nil {
		b, err := ev.eval(x.Base, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		base, err = b.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("logarithm base must be real: %s", err)
		}
		if base <= 0 || base == 1 {
			return value.Result{}, matherr.NewEvaluation("logarithm base must be positive and not 1")
		}
	}
	ln, err := ev.naturalLog(arg)
	if err != nil {
		return value.Result{}, err
	}
	return ev.divide(ln, value.NewNumeric(math.Log(base)))
}

func (ev *Evaluator) naturalLog(arg value.Result) (value.Result, error) {
	switch arg.Kind() {
	case value.Numeric:
		v, _ := arg.AsNumeric()
		if v == 0 {
			return value.Result{}, matherr.NewEvaluation("logarithm of zero")
		}
		if v > 0 {
			return value.NewNumeric(math.Log(v)), nil
		}
		if ev.RealOnly {
			return value.NaN(), nil
		}
		return value.NewComplex(cmplx.Log(complex(v, 0))), nil
	case value.Complex:
		if ev.RealOnly {
			return value.NaN(), nil
		}
		c, _ := arg.AsComplex()
		return value.NewComplex(cmplx.Log(c)), nil
	case value.Interval:
		lo, hi, _ := arg.AsInterval()
		if lo <= 0 {
			return value.Result{}, matherr.NewEvaluation("logarithm of an interval reaching zero")
		}
		return value.NewInterval(math.Log(lo), math.Log(hi)), nil
	}
	return value.Result{}, matherr.NewEvaluation("logarithm requires a scalar, got %s", arg.Kind())
}

func (ev *Evaluator) evalMultiArg(x *ast.FunctionCall, scope *env, depth int) (value.Result, error) {
	exprs := append([]ast.Expr{x.Arg}, x.Args...)
	vals := make([]float64, len(exprs))
	for i, e := range exprs {
		r, err := ev.eval(e, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		vals[i], err = r.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("%s requires real arguments: %s", x.Name, err)
		}
	}
	switch x.Name {
	case "min":
		out := vals[0]
		for _, v := range vals[1:] {
			out = math.Min(out, v)
		}
		return value.NewNumeric(out), nil
	case "max":
		out := vals[0]
		for _, v := range vals[1:] {
			out = math.Max(out, v)
		}
		return value.NewNumeric(out), nil
	case "gcd", "lcm":
		if len(vals) < 2 {
			return value.Result{}, matherr.NewEvaluation("%s requires two arguments", x.Name)
		}
		out, err := gcdInt(vals[0], vals[1])
		if err != nil {
			return value.Result{}, err
		}
		for _, v := range vals[2:] {
			out, err = gcdInt(out, v)
			if err != nil {
				return value.Result{}, err
			}
		}
		if x.Name == "gcd" {
			return value.NewNumeric(out), nil
		}
		// lcm(a,b) = |a*b| / gcd(a,b), folded pairwise.
		lcm := vals[0]
		for _, v := range vals[1:] {
			g, err := gcdInt(lcm, v)
			if err != nil {
				return value.Result{}, err
			}
			if g == 0 {
				lcm = 0
				continue
			}
			lcm = math.Abs(lcm*v) / g
		}
		return value.NewNumeric(lcm), nil
	case "mod":
		if len(vals) != 2 {
			return value.Result{}, matherr.NewEvaluation("mod requires two arguments")
		}
		if vals[1] == 0 {
			return value.Result{}, matherr.NewEvaluation("modulo by zero")
		}
		return value.NewNumeric(math.Mod(vals[0], vals[1])), nil
	}
	return value.Result{}, matherr.NewEvaluation("unknown function %q", x.Name)
}

func gcdInt(a, b float64) (float64, error) {
	if a != math.Trunc(a) || b != math.Trunc(b) {
		return 0, matherr.NewEvaluation("gcd requires integer arguments")
	}
	x, y := math.Abs(a), math.Abs(b)
	for y != 0 {
		x, y = y, math.Mod(x, y)
	}
	return x, nil
}

func isUnaryBuiltin(name string) bool {
	switch name {
	case "sin", "cos", "tan", "sec", "csc", "cot",
		"arcsin", "arccos", "arctan",
		"sinh", "cosh", "tanh",
		"exp", "ln", "abs", "norm",
		"floor", "ceil", "round", "sign",
		"det", "tr", "transpose", "inverse",
		"fib", "fibonacci", "factorial":
		return true
	}
	return false
}

func (ev *Evaluator) applyUnaryBuiltin(name string, arg value.Result) (value.Result, error) {
	switch name {
	case "ln":
		return ev.naturalLog(arg)
	case "abs":
		return absolute(arg)
	case "norm":
		n, err := vectorNorm(arg)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(n), nil
	case "det":
		d, err := determinant(arg)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(d), nil
	case "tr":
		t, err := matrixTrace(arg)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(t), nil
	case "transpose":
		return matrixTranspose(arg)
	case "inverse":
		return matrixInverse(arg)
	case "factorial":
		n, err := arg.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("factorial requires a real operand: %s", err)
		}
		f, err := factorial(n)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(f), nil
	case "fib", "fibonacci":
		n, err := arg.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("fibonacci requires a real operand: %s", err)
		}
		f, err := fibonacci(n)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(f), nil
	}

	// Interval arguments extend monotone kernels by endpoint mapping.
	if arg.Kind() == value.Interval {
		lo, hi, _ := arg.AsInterval()
		switch name {
		case "exp":
			return value.NewInterval(math.Exp(lo), math.Exp(hi)), nil
		case "sinh":
			return value.NewInterval(math.Sinh(lo), math.Sinh(hi)), nil
		case "tanh":
			return value.NewInterval(math.Tanh(lo), math.Tanh(hi)), nil
		case "arctan":
			return value.NewInterval(math.Atan(lo), math.Atan(hi)), nil
		case "floor":
			return value.NewInterval(math.Floor(lo), math.Floor(hi)), nil
		case "ceil":
			return value.NewInterval(math.Ceil(lo), math.Ceil(hi)), nil
		}
		return value.Result{}, matherr.NewEvaluation("%s does not extend to intervals", name)
	}

	if arg.Kind() == value.Complex {
		if ev.RealOnly {
			return value.NaN(), nil
		}
		c, _ := arg.AsComplex()
		out, err := complexKernel(name, c)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewComplex(out), nil
	}

	v, err := arg.AsNumeric()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("%s requires a scalar: %s", name, err)
	}

	switch name {
	case "sin":
		return value.NewNumeric(math.Sin(v)), nil
	case "cos":
		return value.NewNumeric(math.Cos(v)), nil
	case "tan":
		return value.NewNumeric(math.Tan(v)), nil
	case "sec":
		return value.NewNumeric(1 / math.Cos(v)), nil
	case "csc":
		return value.NewNumeric(1 / math.Sin(v)), nil
	case "cot":
		return value.NewNumeric(1 / math.Tan(v)), nil
	case "arcsin":
		if v < -1 || v > 1 {
			if ev.RealOnly {
				return value.NaN(), nil
			}
			return value.NewComplex(cmplx.Asin(complex(v, 0))), nil
		}
		return value.NewNumeric(math.Asin(v)), nil
	case "arccos":
		if v < -1 || v > 1 {
			if ev.RealOnly {
				return value.NaN(), nil
			}
			return value.NewComplex(cmplx.Acos(complex(v, 0))), nil
		}
		return value.NewNumeric(math.Acos(v)), nil
	case "arctan":
		return value.NewNumeric(math.Atan(v)), nil
	case "sinh":
		return value.NewNumeric(math.Sinh(v)), nil
	case "cosh":
		return value.NewNumeric(math.Cosh(v)), nil
	case "tanh":
		return value.NewNumeric(math.Tanh(v)), nil
	case "exp":
		return value.NewNumeric(math.Exp(v)), nil
	case "floor":
		return value.NewNumeric(math.Floor(v)), nil
	case "ceil":
		return value.NewNumeric(math.Ceil(v)), nil
	case "round":
		return value.NewNumeric(math.Round(v)), nil
	case "sign":
		switch {
		case v > 0:
			return value.NewNumeric(1), nil
		case v < 0:
			return value.NewNumeric(-1), nil
		}
		return value.NewNumeric(0), nil
	}
	return value.Result{}, matherr.NewEvaluation("unknown function %q", name)
}

func complexKernel(name string, c complex128) (complex128, error) {
	switch name {
	case "sin":
		return cmplx.Sin(c), nil
	case "cos":
		return cmplx.Cos(c), nil
	case "tan":
		return cmplx.Tan(c), nil
	case "sec":
		return 1 / cmplx.Cos(c), nil
	case "csc":
		return 1 / cmplx.Sin(c), nil
	case "cot":
		return 1 / cmplx.Tan(c), nil
	case "arcsin":
		return cmplx.Asin(c), nil
	case "arccos":
		return cmplx.Acos(c), nil
	case "arctan":
		return cmplx.Atan(c), nil
	case "sinh":
		return cmplx.Sinh(c), nil
	case "cosh":
		return cmplx.Cosh(c), nil
	case "tanh":
		return cmplx.Tanh(c), nil
	case "exp":
		return cmplx.Exp(c), nil
	}
	return 0, matherr.NewEvaluation("%s does not extend to complex arguments", name)
}
