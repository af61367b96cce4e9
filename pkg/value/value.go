// Package value defines the closed set of result variants produced by
// evaluation: real scalars, complex numbers, matrices, vectors,
// intervals, booleans and function values.
package value

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// Kind discriminates the result variants.
type Kind int

const (
	Numeric Kind = iota
	Complex
	Matrix
	Vector
	Interval
	Boolean
	Function
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Complex:
		return "complex"
	case Matrix:
		return "matrix"
	case Vector:
		return "vector"
	case Interval:
		return "interval"
	case Boolean:
		return "boolean"
	case Function:
		return "function"
	default:
		return fmt.Sprintf("unknown kind (%d)", int(k))
	}
}

// imagTolerance decides when a complex result collapses to a real one.
const imagTolerance = 1e-12

// Result is the tagged union of evaluation outcomes. The zero value is
// Numeric(0).
type Result struct {
	kind Kind

	num  float64
	c    complex128
	mat  []float64
	rows int
	cols int
	vec  []float64
	lo   float64
	hi   float64
	b    bool
	fn   *ast.FunctionDefExpr
}

// NewNumeric wraps a real scalar.
func NewNumeric(v float64) Result {
	return Result{kind: Numeric, num: v}
}

// NewComplex wraps a complex scalar. A negligible imaginary part
// collapses to Numeric so that purely-real computations stay real.
func NewComplex(c complex128) Result {
	if math.Abs(imag(c)) < imagTolerance {
		return Result{kind: Numeric, num: real(c)}
	}
	return Result{kind: Complex, c: c}
}

// NewMatrix wraps row-major matrix data of the given shape.
func NewMatrix(data []float64, rows, cols int) Result {
	return Result{kind: Matrix, mat: data, rows: rows, cols: cols}
}

// NewVector wraps a component list.
func NewVector(components []float64) Result {
	return Result{kind: Vector, vec: components}
}

// NewInterval wraps [lo, hi].
func NewInterval(lo, hi float64) Result {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Result{kind: Interval, lo: lo, hi: hi}
}

// NewBoolean wraps a truth value.
func NewBoolean(b bool) Result {
	return Result{kind: Boolean, b: b}
}

// NewFunction wraps a user-defined function value.
func NewFunction(def *ast.FunctionDefExpr) Result {
	return Result{kind: Function, fn: def}
}

// Kind returns the variant tag.
func (r Result) Kind() Kind { return r.kind }

// AsNumeric coerces to a real scalar. Intervals collapse to their
// midpoint; a complex with (numerically) zero imaginary part is
// accepted; everything else fails.
func (r Result) AsNumeric() (float64, error) {
	switch r.kind {
	case Numeric:
		return r.num, nil
	case Interval:
		return (r.lo + r.hi) / 2, nil
	case Complex:
		if math.Abs(imag(r.c)) < imagTolerance {
			return real(r.c), nil
		}
		return 0, fmt.Errorf("cannot use %s result as a real number", r.kind)
	}
	return 0, fmt.Errorf("cannot use %s result as a real number", r.kind)
}

// AsComplex coerces to a complex scalar.
func (r Result) AsComplex() (complex128, error) {
	switch r.kind {
	case Numeric:
		return complex(r.num, 0), nil
	case Complex:
		return r.c, nil
	case Interval:
		return complex((r.lo+r.hi)/2, 0), nil
	}
	return 0, fmt.Errorf("cannot use %s result as a complex number", r.kind)
}

// AsMatrix returns the row-major data and shape.
func (r Result) AsMatrix() ([]float64, int, int, error) {
	if r.kind != Matrix {
		return nil, 0, 0, fmt.Errorf("cannot use %s result as a matrix", r.kind)
	}
	return r.mat, r.rows, r.cols, nil
}

// AsVector returns the component list.
func (r Result) AsVector() ([]float64, error) {
	if r.kind != Vector {
		return nil, fmt.Errorf("cannot use %s result as a vector", r.kind)
	}
	return r.vec, nil
}

// AsInterval returns the bounds. A plain numeric widens to a
// degenerate interval.
func (r Result) AsInterval() (float64, float64, error) {
	switch r.kind {
	case Interval:
		return r.lo, r.hi, nil
	case Numeric:
		return r.num, r.num, nil
	}
	return 0, 0, fmt.Errorf("cannot use %s result as an interval", r.kind)
}

// AsBoolean returns the truth value. Numbers are truthy iff non-zero.
func (r Result) AsBoolean() (bool, error) {
	switch r.kind {
	case Boolean:
		return r.b, nil
	case Numeric:
		return r.num != 0, nil
	}
	return false, fmt.Errorf("cannot use %s result as a boolean", r.kind)
}

// AsFunction returns the function definition.
func (r Result) AsFunction() (*ast.FunctionDefExpr, error) {
	if r.kind != Function {
		return nil, fmt.Errorf("cannot use %s result as a function", r.kind)
	}
	return r.fn, nil
}

// String renders the result for display.
func (r Result) String() string {
	switch r.kind {
	case Numeric:
		return formatFloat(r.num)
	case Complex:
		re, im := real(r.c), imag(r.c)
		if im >= 0 {
			return fmt.Sprintf("%s + %si", formatFloat(re), formatFloat(im))
		}
		return fmt.Sprintf("%s - %si", formatFloat(re), formatFloat(-im))
	case Matrix:
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < r.rows; i++ {
			if i > 0 {
				sb.WriteString("; ")
			}
			for j := 0; j < r.cols; j++ {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(formatFloat(r.mat[i*r.cols+j]))
			}
		}
		sb.WriteString("]")
		return sb.String()
	case Vector:
		parts := make([]string, len(r.vec))
		for i, v := range r.vec {
			parts[i] = formatFloat(v)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Interval:
		return fmt.Sprintf("[%s, %s]", formatFloat(r.lo), formatFloat(r.hi))
	case Boolean:
		if r.b {
			return "true"
		}
		return "false"
	case Function:
		return fmt.Sprintf("%s(%s)", r.fn.Name, strings.Join(r.fn.Params, ", "))
	}
	return "<invalid>"
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 && !math.IsInf(v, 0) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// IsNaN reports whether the result is the Numeric NaN marker used for
// unmatched piecewise cases and real-only fallbacks.
func (r Result) IsNaN() bool {
	return r.kind == Numeric && math.IsNaN(r.num)
}

// NaN is the canonical undefined result.
func NaN() Result {
	return NewNumeric(math.NaN())
}

// EqualTo compares two results for equality within tol. Matrices and
// vectors compare elementwise; kinds must be compatible.
func (r Result) EqualTo(other Result, tol float64) bool {
	switch r.kind {
	case Numeric, Complex:
		a, errA := r.AsComplex()
		b, errB := other.AsComplex()
		return errA == nil && errB == nil && cmplx.Abs(a-b) <= tol
	case Matrix:
		od, orows, ocols, err := other.AsMatrix()
		if err != nil || orows != r.rows || ocols != r.cols {
			return false
		}
		for i := range r.mat {
			if math.Abs(r.mat[i]-od[i]) > tol {
				return false
			}
		}
		return true
	case Vector:
		ov, err := other.AsVector()
		if err != nil || len(ov) != len(r.vec) {
			return false
		}
		for i := range r.vec {
			if math.Abs(r.vec[i]-ov[i]) > tol {
				return false
			}
		}
		return true
	case Interval:
		lo, hi, err := other.AsInterval()
		return err == nil && math.Abs(lo-r.lo) <= tol && math.Abs(hi-r.hi) <= tol
	case Boolean:
		b, err := other.AsBoolean()
		return err == nil && b == r.b
	}
	return false
}
