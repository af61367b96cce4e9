package eval

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

func matrixAdd(a, b value.Result, sign float64) (value.Result, error) {
	ad, ar, ac, _ := a.AsMatrix()
	bd, br, bc, _ := b.AsMatrix()
	if ar != br || ac != bc {
		return value.Result{}, matherr.NewEvaluation("matrix shape mismatch: %dx%d and %dx%d", ar, ac, br, bc)
	}
	out := make([]float64, len(ad))
	for i := range ad {
		out[i] = ad[i] + sign*bd[i]
	}
	return value.NewMatrix(out, ar, ac), nil
}

func vectorAdd(a, b value.Result, sign float64) (value.Result, error) {
	av, _ := a.AsVector()
	bv, _ := b.AsVector()
	if len(av) != len(bv) {
		return value.Result{}, matherr.NewEvaluation("vector dimension mismatch: %d and %d", len(av), len(bv))
	}
	out := make([]float64, len(av))
	for i := range av {
		out[i] = av[i] + sign*bv[i]
	}
	return value.NewVector(out), nil
}

func matrixScale(m, s value.Result) (value.Result, error) {
	md, rows, cols, _ := m.AsMatrix()
	k, _ := s.AsNumeric()
	out := make([]float64, len(md))
	for i := range md {
		out[i] = k * md[i]
	}
	return value.NewMatrix(out, rows, cols), nil
}

func vectorScale(v, s value.Result) (value.Result, error) {
	vd, _ := v.AsVector()
	k, _ := s.AsNumeric()
	out := make([]float64, len(vd))
	for i := range vd {
		out[i] = k * vd[i]
	}
	return value.NewVector(out), nil
}

func matrixMul(a, b value.Result) (value.Result, error) {
	ad, ar, ac, _ := a.AsMatrix()
	bd, br, bc, _ := b.AsMatrix()
	if ac != br {
		return value.Result{}, matherr.NewEvaluation("matrix inner dimensions disagree: %dx%d times %dx%d", ar, ac, br, bc)
	}
	out := make([]float64, ar*bc)
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			sum := 0.0
			for k := 0; k < ac; k++ {
				sum += ad[i*ac+k] * bd[k*bc+j]
			}
			out[i*bc+j] = sum
		}
	}
	return value.NewMatrix(out, ar, bc), nil
}

func identityMatrix(n int) value.Result {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		out[i*n+i] = 1
	}
	return value.NewMatrix(out, n, n)
}

func matrixPower(m value.Result, n int) (value.Result, error) {
	_, rows, cols, _ := m.AsMatrix()
	if rows != cols {
		return value.Result{}, matherr.NewEvaluation("matrix power requires a square matrix")
	}
	if n == -1 {
		return matrixInverse(m)
	}
	if n < 0 {
		inv, err := matrixInverse(m)
		if err != nil {
			return value.Result{}, err
		}
		return matrixPower(inv, -n)
	}
	result := identityMatrix(rows)
	var err error
	for i := 0; i < n; i++ {
		result, err = matrixMul(result, m)
		if err != nil {
			return value.Result{}, err
		}
	}
	return result, nil
}

// determinant uses cofactor expansion up to 3x3 and LU decomposition
// with partial pivoting beyond that.
func determinant(m value.Result) (float64, error) {
	d, rows, cols, err := m.AsMatrix()
	if err != nil {
		return 0, matherr.NewEvaluation("determinant requires a matrix")
	}
	if rows != cols {
		return 0, matherr.NewEvaluation("determinant requires a square matrix, got %dx%d", rows, cols)
	}
	switch rows {
	case 1:
		return d[0], nil
	case 2:
		return d[0]*d[3] - d[1]*d[2], nil
	case 3:
		return d[0]*(d[4]*d[8]-d[5]*d[7]) -
			d[1]*(d[3]*d[8]-d[5]*d[6]) +
			d[2]*(d[3]*d[7]-d[4]*d[6]), nil
	}
	return luDeterminant(d, rows), nil
}

func luDeterminant(data []float64, n int) float64 {
	a := make([]float64, len(data))
	copy(a, data)
	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row*n+col]) > math.Abs(a[pivot*n+col]) {
				pivot = row
			}
		}
		if a[pivot*n+col] == 0 {
			return 0
		}
		if pivot != col {
			for k := 0; k < n; k++ {
				a[col*n+k], a[pivot*n+k] = a[pivot*n+k], a[col*n+k]
			}
			det = -det
		}
		det *= a[col*n+col]
		for row := col + 1; row < n; row++ {
			factor := a[row*n+col] / a[col*n+col]
			for k := col; k < n; k++ {
				a[row*n+k] -= factor * a[col*n+k]
			}
		}
	}
	return det
}

// matrixInverse uses the adjugate over the determinant up to 3x3 and
// Gauss-Jordan elimination beyond.
func matrixInverse(m value.Result) (value.Result, error) {
	d, rows, cols, err := m.AsMatrix()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("inverse requires a matrix")
	}
	if rows != cols {
		return value.Result{}, matherr.NewEvaluation("inverse requires a square matrix, got %dx%d", rows, cols)
	}
	det, err := determinant(m)
	if err != nil {
		return value.Result{}, err
	}
	if math.Abs(det) < 1e-300 {
		return value.Result{}, matherr.NewEvaluation("matrix is singular")
	}
	if rows <= 3 {
		adj := adjugate(d, rows)
		for i := range adj {
			adj[i] /= det
		}
		return value.NewMatrix(adj, rows, cols), nil
	}
	return gaussJordanInverse(d, rows)
}

func adjugate(d []float64, n int) []float64 {
	out := make([]float64, n*n)
	if n == 1 {
		out[0] = 1
		return out
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			minor := minorMatrix(d, n, i, j)
			cof := luDeterminant(minor, n-1)
			if (i+j)%2 == 1 {
				cof = -cof
			}
			// Adjugate is the transpose of the cofactor matrix.
			out[j*n+i] = cof
		}
	}
	return out
}

func minorMatrix(d []float64, n, skipRow, skipCol int) []float64 {
	out := make([]float64, 0, (n-1)*(n-1))
	for i := 0; i < n; i++ {
		if i == skipRow {
			continue
		}
		for j := 0; j < n; j++ {
			if j == skipCol {
				continue
			}
			out = append(out, d[i*n+j])
		}
	}
	return out
}

func gaussJordanInverse(data []float64, n int) (value.Result, error) {
	a := make([]float64, len(data))
	copy(a, data)
	inv := make([]float64, n*n)
	for i := 0; i < n; i++ {
		inv[i*n+i] = 1
	}
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row*n+col]) > math.Abs(a[pivot*n+col]) {
				pivot = row
			}
		}
		if a[pivot*n+col] == 0 {
			return value.Result{}, matherr.NewEvaluation("matrix is singular")
		}
		if pivot != col {
			for k := 0; k < n; k++ {
				a[col*n+k], a[pivot*n+k] = a[pivot*n+k], a[col*n+k]
				inv[col*n+k], inv[pivot*n+k] = inv[pivot*n+k], inv[col*n+k]
			}
		}
		p := a[col*n+col]
		for k := 0; k < n; k++ {
			a[col*n+k] /= p
			inv[col*n+k] /= p
		}
		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := a[row*n+col]
			for k := 0; k < n; k++ {
				a[row*n+k] -= factor * a[col*n+k]
				inv[row*n+k] -= factor * inv[col*n+k]
			}
		}
	}
	return value.NewMatrix(inv, n, n), nil
}

func matrixTranspose(m value.Result) (value.Result, error) {
	d, rows, cols, err := m.AsMatrix()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("transpose requires a matrix")
	}
	out := make([]float64, len(d))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = d[i*cols+j]
		}
	}
	return value.NewMatrix(out, cols, rows), nil
}

func matrixTrace(m value.Result) (float64, error) {
	d, rows, cols, err := m.AsMatrix()
	if err != nil {
		return 0, matherr.NewEvaluation("trace requires a matrix")
	}
	if rows != cols {
		return 0, matherr.NewEvaluation("trace requires a square matrix, got %dx%d", rows, cols)
	}
	sum := 0.0
	for i := 0; i < rows; i++ {
		sum += d[i*cols+i]
	}
	return sum, nil
}

// dotProduct is the \cdot operator: the dot product on vectors, plain
// multiplication elsewhere.
func dotProduct(a, b value.Result, ev *Evaluator) (value.Result, error) {
	if a.Kind() == value.Vector && b.Kind() == value.Vector {
		av, _ := a.AsVector()
		bv, _ := b.AsVector()
		if len(av) != len(bv) {
			return value.Result{}, matherr.NewEvaluation("vector dimension mismatch: %d and %d", len(av), len(bv))
		}
		sum := 0.0
		for i := range av {
			sum += av[i] * bv[i]
		}
		return value.NewNumeric(sum), nil
	}
	return ev.multiply(a, b)
}

// crossProduct is the \times operator: the cross product on 3-vectors,
// plain multiplication elsewhere.
func crossProduct(a, b value.Result, ev *Evaluator) (value.Result, error) {
	if a.Kind() == value.Vector && b.Kind() == value.Vector {
		av, _ := a.AsVector()
		bv, _ := b.AsVector()
		if len(av) != 3 || len(bv) != 3 {
			return value.Result{}, matherr.NewEvaluation("cross product requires 3-vectors")
		}
		return value.NewVector([]float64{
			av[1]*bv[2] - av[2]*bv[1],
			av[2]*bv[0] - av[0]*bv[2],
			av[0]*bv[1] - av[1]*bv[0],
		}), nil
	}
	return ev.multiply(a, b)
}

// vectorNorm is the Euclidean norm for vectors and the Frobenius norm
// for matrices.
func vectorNorm(r value.Result) (float64, error) {
	switch r.Kind() {
	case value.Vector:
		v, _ := r.AsVector()
		sum := 0.0
		for _, c := range v {
			sum += c * c
		}
		return math.Sqrt(sum), nil
	case value.Matrix:
		d, _, _, _ := r.AsMatrix()
		sum := 0.0
		for _, c := range d {
			sum += c * c
		}
		return math.Sqrt(sum), nil
	case value.Numeric:
		n, _ := r.AsNumeric()
		return math.Abs(n), nil
	}
	return 0, matherr.NewEvaluation("norm requires a vector or matrix, got %s", r.Kind())
}
