package spline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// smoothValues solves the natural smoothing spline problem: minimize
// sum (y_i - f(x_i))^2 + lambda * integral f''(t)^2 dt over twice
// differentiable f. The minimizer is a natural cubic spline, so it is fully
// determined by its values at the knots; those values are returned and the
// caller reconstructs the curve with an exact natural-cubic fit.
//
// Reinsch's banded formulation: with Q and R assembled from the knot
// spacings, the interior second derivatives gamma satisfy
//
//	(R + lambda Qt Q) gamma = Qt y
//
// and the fitted knot values are y - lambda Q gamma. The system matrix is
// symmetric positive definite, so a Cholesky solve applies.
func smoothValues(x, y []float64, lambda float64) ([]float64, error) {
	if lambda < 0 {
		return nil, fmt.Errorf("spline: smoothing factor must be >= 0, got %v", lambda)
	}
	n := len(x)
	if lambda == 0 {
		out := make([]float64, n)
		copy(out, y)
		return out, nil
	}

	m := n - 2
	h := make([]float64, n-1)
	for i := range h {
		h[i] = x[i+1] - x[i]
	}

	// Q is n by m; column j couples knots j, j+1 and j+2.
	q := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		q.Set(j, j, 1/h[j])
		q.Set(j+1, j, -1/h[j]-1/h[j+1])
		q.Set(j+2, j, 1/h[j+1])
	}

	// R is m by m, symmetric tridiagonal.
	r := mat.NewSymDense(m, nil)
	for j := 0; j < m; j++ {
		r.SetSym(j, j, (h[j]+h[j+1])/3)
		if j+1 < m {
			r.SetSym(j, j+1, h[j+1]/6)
		}
	}

	var qtq mat.Dense
	qtq.Mul(q.T(), q)

	lhs := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			lhs.SetSym(i, j, r.At(i, j)+lambda*qtq.At(i, j))
		}
	}

	rhs := mat.NewVecDense(m, nil)
	rhs.MulVec(q.T(), mat.NewVecDense(n, y))

	var chol mat.Cholesky
	if ok := chol.Factorize(lhs); !ok {
		return nil, fmt.Errorf("spline: smoothing system not positive definite")
	}
	gamma := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(gamma, rhs); err != nil {
		return nil, fmt.Errorf("spline: smoothing solve: %w", err)
	}

	var qg mat.VecDense
	qg.MulVec(q, gamma)

	out := make([]float64, n)
	for i := range out {
		out[i] = y[i] - lambda*qg.AtVec(i)
	}
	return out, nil
}
