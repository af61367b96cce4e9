package eval

import (
	"math"
	"math/cmplx"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// comparisonTolerance is the relative tolerance for scalar equality.
const comparisonTolerance = 1e-9

func (ev *Evaluator) evalBinary(x *ast.BinaryExpr, scope *env, depth int) (value.Result, error) {
	left, err := ev.eval(x.Left, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}

	// An implicit product of a variable and a group may in fact be a
	// call on a function value; the parser already folds that shape,
	// so here every operand is a plain value.
	right, err := ev.eval(x.Right, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}

	switch x.Op {
	case "+":
		return add(left, right)
	case "-":
		return subtract(left, right)
	case "*":
		return ev.multiply(left, right)
	case "/":
		return ev.divide(left, right)
	case "^":
		return ev.power(left, right)
	case "dot":
		return dotProduct(left, right, ev)
	case "cross":
		return crossProduct(left, right, ev)
	}
	return value.Result{}, matherr.NewEvaluation("unknown binary operator %q", x.Op)
}

func bothNumeric(a, b value.Result) bool {
	return a.Kind() == value.Numeric && b.Kind() == value.Numeric
}

func requireNoBoolean(a, b value.Result) error {
	if a.Kind() == value.Boolean || b.Kind() == value.Boolean {
		return matherr.NewEvaluation("boolean in numeric context")
	}
	return nil
}

func add(a, b value.Result) (value.Result, error) {
	if err := requireNoBoolean(a, b); err != nil {
		return value.Result{}, err
	}
	switch {
	case bothNumeric(a, b):
		x, _ := a.AsNumeric()
		y, _ := b.AsNumeric()
		return value.NewNumeric(x + y), nil
	case a.Kind() == value.Interval || b.Kind() == value.Interval:
		alo, ahi, err := a.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("+", a, b)
		}
		blo, bhi, err := b.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("+", a, b)
		}
		return value.NewInterval(alo+blo, ahi+bhi), nil
	case a.Kind() == value.Matrix && b.Kind() == value.Matrix:
		return matrixAdd(a, b, 1)
	case a.Kind() == value.Vector && b.Kind() == value.Vector:
		return vectorAdd(a, b, 1)
	case isScalar(a) && isScalar(b):
		x, _ := a.AsComplex()
		y, _ := b.AsComplex()
		return value.NewComplex(x + y), nil
	}
	return value.Result{}, typeMismatch("+", a, b)
}

func subtract(a, b value.Result) (value.Result, error) {
	if err := requireNoBoolean(a, b); err != nil {
		return value.Result{}, err
	}
	switch {
	case bothNumeric(a, b):
		x, _ := a.AsNumeric()
		y, _ := b.AsNumeric()
		return value.NewNumeric(x - y), nil
	case a.Kind() == value.Interval || b.Kind() == value.Interval:
		alo, ahi, err := a.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("-", a, b)
		}
		blo, bhi, err := b.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("-", a, b)
		}
		return value.NewInterval(alo-bhi, ahi-blo), nil
	case a.Kind() == value.Matrix && b.Kind() == value.Matrix:
		return matrixAdd(a, b, -1)
	case a.Kind() == value.Vector && b.Kind() == value.Vector:
		return vectorAdd(a, b, -1)
	case isScalar(a) && isScalar(b):
		x, _ := a.AsComplex()
		y, _ := b.AsComplex()
		return value.NewComplex(x - y), nil
	}
	return value.Result{}, typeMismatch("-", a, b)
}

func (ev *Evaluator) multiply(a, b value.Result) (value.Result, error) {
	if err := requireNoBoolean(a, b); err != nil {
		return value.Result{}, err
	}
	switch {
	case bothNumeric(a, b):
		x, _ := a.AsNumeric()
		y, _ := b.AsNumeric()
		return value.NewNumeric(x * y), nil
	case a.Kind() == value.Interval || b.Kind() == value.Interval:
		alo, ahi, err := a.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("*", a, b)
		}
		blo, bhi, err := b.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("*", a, b)
		}
		return intervalMul(alo, ahi, blo, bhi), nil
	case a.Kind() == value.Matrix && b.Kind() == value.Matrix:
		return matrixMul(a, b)
	case a.Kind() == value.Matrix && b.Kind() == value.Numeric:
		return matrixScale(a, b)
	case a.Kind() == value.Numeric && b.Kind() == value.Matrix:
		return matrixScale(b, a)
	case a.Kind() == value.Vector && b.Kind() == value.Numeric:
		return vectorScale(a, b)
	case a.Kind() == value.Numeric && b.Kind() == value.Vector:
		return vectorScale(b, a)
	case isScalar(a) && isScalar(b):
		x, _ := a.AsComplex()
		y, _ := b.AsComplex()
		return value.NewComplex(x * y), nil
	}
	return value.Result{}, typeMismatch("*", a, b)
}

func (ev *Evaluator) divide(a, b value.Result) (value.Result, error) {
	if err := requireNoBoolean(a, b); err != nil {
		return value.Result{}, err
	}
	switch {
	case bothNumeric(a, b):
		x, _ := a.AsNumeric()
		y, _ := b.AsNumeric()
		if y == 0 {
			return value.Result{}, matherr.NewEvaluation("division by zero")
		}
		return value.NewNumeric(x / y), nil
	case a.Kind() == value.Interval || b.Kind() == value.Interval:
		alo, ahi, err := a.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("/", a, b)
		}
		blo, bhi, err := b.AsInterval()
		if err != nil {
			return value.Result{}, typeMismatch("/", a, b)
		}
		if blo <= 0 && bhi >= 0 {
			return value.Result{}, matherr.NewEvaluation("division by an interval containing zero")
		}
		return intervalMul(alo, ahi, 1/bhi, 1/blo), nil
	case a.Kind() == value.Matrix && b.Kind() == value.Numeric:
		y, _ := b.AsNumeric()
		if y == 0 {
			return value.Result{}, matherr.NewEvaluation("division by zero")
		}
		return matrixScale(a, value.NewNumeric(1/y))
	case a.Kind() == value.Vector && b.Kind() == value.Numeric:
		y, _ := b.AsNumeric()
		if y == 0 {
			return value.Result{}, matherr.NewEvaluation("division by zero")
		}
		return vectorScale(a, value.NewNumeric(1/y))
	case isScalar(a) && isScalar(b):
		x, _ := a.AsComplex()
		y, _ := b.AsComplex()
		if y == 0 {
			return value.Result{}, matherr.NewEvaluation("division by zero")
		}
		return value.NewComplex(x / y), nil
	}
	return value.Result{}, typeMismatch("/", a, b)
}

// power implements ^ across the scalar and matrix domains. x^0 is 1,
// including 0^0 by combinatorial convention.
func (ev *Evaluator) power(a, b value.Result) (value.Result, error) {
	if err := requireNoBoolean(a, b); err != nil {
		return value.Result{}, err
	}

	if a.Kind() == value.Matrix {
		n, err := b.AsNumeric()
		if err != nil || n != math.Trunc(n) {
			return value.Result{}, matherr.NewEvaluation("matrix exponent must be an integer")
		}
		return matrixPower(a, int(n))
	}

	if bothNumeric(a, b) {
		x, _ := a.AsNumeric()
		y, _ := b.AsNumeric()
		if y == math.Trunc(y) && math.Abs(y) <= 1<<30 {
			return value.NewNumeric(powInt(x, int64(y))), nil
		}
		if x < 0 {
			// Negative base to a non-integer exponent escalates to the
			// principal complex branch, or NaN in real-only mode.
			if ev.RealOnly {
				return value.NaN(), nil
			}
			return value.NewComplex(cmplx.Pow(complex(x, 0), complex(y, 0))), nil
		}
		return value.NewNumeric(math.Pow(x, y)), nil
	}

	if isScalar(a) && isScalar(b) {
		if ev.RealOnly {
			return value.NaN(), nil
		}
		x, _ := a.AsComplex()
		y, _ := b.AsComplex()
		if imag(y) == 0 && real(y) == math.Trunc(real(y)) && math.Abs(real(y)) <= 1<<30 {
			return value.NewComplex(cpowInt(x, int64(real(y)))), nil
		}
		return value.NewComplex(cmplx.Pow(x, y)), nil
	}
	return value.Result{}, typeMismatch("^", a, b)
}

// powInt raises a real base to an integer exponent by squaring.
func powInt(x float64, n int64) float64 {
	if n == 0 {
		return 1
	}
	if n < 0 {
		return 1 / powInt(x, -n)
	}
	result := 1.0
	base := x
	for n > 0 {
		if n&1 == 1 {
			result *= base
		}
		base *= base
		n >>= 1
	}
	return result
}

// cpowInt raises a complex base to an integer exponent by squaring.
func cpowInt(x complex128, n int64) complex128 {
	if n == 0 {
		return 1
	}
	if n < 0 {
		return 1 / cpowInt(x, -n)
	}
	result := complex128(1)
	base := x
	for n > 0 {
		if n&1 == 1 {
			result *= base
		}
		base *= base
		n >>= 1
	}
	return result
}

func intervalMul(alo, ahi, blo, bhi float64) value.Result {
	p1, p2, p3, p4 := alo*blo, alo*bhi, ahi*blo, ahi*bhi
	lo := math.Min(math.Min(p1, p2), math.Min(p3, p4))
	hi := math.Max(math.Max(p1, p2), math.Max(p3, p4))
	return value.NewInterval(lo, hi)
}

func isScalar(r value.Result) bool {
	switch r.Kind() {
	case value.Numeric, value.Complex:
		return true
	}
	return false
}

func typeMismatch(op string, a, b value.Result) error {
	return matherr.NewEvaluation("type mismatch: cannot apply %q to %s and %s", op, a.Kind(), b.Kind())
}

func negate(r value.Result) (value.Result, error) {
	switch r.Kind() {
	case value.Numeric:
		n, _ := r.AsNumeric()
		return value.NewNumeric(-n), nil
	case value.Complex:
		c, _ := r.AsComplex()
		return value.NewComplex(-c), nil
	case value.Interval:
		lo, hi, _ := r.AsInterval()
		return value.NewInterval(-hi, -lo), nil
	case value.Vector:
		v, _ := r.AsVector()
		out := make([]float64, len(v))
		for i, c := range v {
			out[i] = -c
		}
		return value.NewVector(out), nil
	case value.Matrix:
		m, rows, cols, _ := r.AsMatrix()
		out := make([]float64, len(m))
		for i, c := range m {
			out[i] = -c
		}
		return value.NewMatrix(out, rows, cols), nil
	}
	return value.Result{}, matherr.NewEvaluation("cannot negate a %s result", r.Kind())
}

func absolute(r value.Result) (value.Result, error) {
	switch r.Kind() {
	case value.Numeric:
		n, _ := r.AsNumeric()
		return value.NewNumeric(math.Abs(n)), nil
	case value.Complex:
		c, _ := r.AsComplex()
		return value.NewNumeric(cmplx.Abs(c)), nil
	case value.Interval:
		lo, hi, _ := r.AsInterval()
		if lo <= 0 && hi >= 0 {
			return value.NewInterval(0, math.Max(-lo, hi)), nil
		}
		return value.NewInterval(math.Min(math.Abs(lo), math.Abs(hi)), math.Max(math.Abs(lo), math.Abs(hi))), nil
	case value.Vector:
		v, _ := r.AsVector()
		sum := 0.0
		for _, c := range v {
			sum += c * c
		}
		return value.NewNumeric(math.Sqrt(sum)), nil
	case value.Matrix:
		// |A| reads as the determinant.
		d, err := determinant(r)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(d), nil
	}
	return value.Result{}, matherr.NewEvaluation("cannot take the absolute value of a %s result", r.Kind())
}

func compare(op string, a, b value.Result) (bool, error) {
	// Matrix and vector comparisons are elementwise with tolerance.
	if a.Kind() == value.Matrix || a.Kind() == value.Vector ||
		b.Kind() == value.Matrix || b.Kind() == value.Vector {
		switch op {
		case "=":
			return a.EqualTo(b, comparisonTolerance), nil
		case "!=":
			return !a.EqualTo(b, comparisonTolerance), nil
		}
		return false, matherr.NewEvaluation("cannot order %s and %s results", a.Kind(), b.Kind())
	}

	if a.Kind() == value.Boolean || b.Kind() == value.Boolean {
		ab, errA := a.AsBoolean()
		bb, errB := b.AsBoolean()
		if errA != nil || errB != nil {
			return false, matherr.NewEvaluation("cannot compare %s and %s results", a.Kind(), b.Kind())
		}
		switch op {
		case "=":
			return ab == bb, nil
		case "!=":
			return ab != bb, nil
		}
		return false, matherr.NewEvaluation("cannot order boolean results")
	}

	x, errA := a.AsNumeric()
	y, errB := b.AsNumeric()
	if errA != nil || errB != nil {
		// Complex equality falls back to modulus of the difference.
		if op == "=" || op == "!=" {
			eq := a.EqualTo(b, comparisonTolerance)
			if op == "=" {
				return eq, nil
			}
			return !eq, nil
		}
		return false, matherr.NewEvaluation("cannot order %s and %s results", a.Kind(), b.Kind())
	}

	switch op {
	case "<":
		return x < y, nil
	case "<=":
		return x <= y, nil
	case ">":
		return x > y, nil
	case ">=":
		return x >= y, nil
	case "=":
		return nearlyEqual(x, y), nil
	case "!=":
		return !nearlyEqual(x, y), nil
	case "in":
		lo, hi, err := b.AsInterval()
		if err != nil {
			return false, matherr.NewEvaluation("right side of ∈ must be an interval")
		}
		return x >= lo && x <= hi, nil
	}
	return false, matherr.NewEvaluation("unknown comparison operator %q", op)
}

func nearlyEqual(x, y float64) bool {
	if x == y {
		return true
	}
	diff := math.Abs(x - y)
	scale := math.Max(math.Abs(x), math.Abs(y))
	return diff <= comparisonTolerance*math.Max(scale, 1)
}
