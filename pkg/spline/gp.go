package spline

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// defaultGPNoise is the jitter added to the kernel diagonal when
// Options.Noise is zero. It keeps the Cholesky factorization stable for
// closely spaced samples.
const defaultGPNoise = 1e-8

// gpFit is a Gaussian process regression with an RBF kernel,
// k(a, b) = exp(-gamma (a-b)^2). The posterior mean and its derivative are
// linear in the weights alpha = (K + noise I)^-1 y.
type gpFit struct {
	xs    []float64
	alpha []float64
	gamma float64
}

func newGPFit(x, y []float64, gamma, noise float64) (*gpFit, error) {
	n := len(x)
	if gamma <= 0 {
		gamma = medianGamma(x)
	}
	if noise <= 0 {
		noise = defaultGPNoise
	}

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := x[i] - x[j]
			v := math.Exp(-gamma * d * d)
			if i == j {
				v += noise
			}
			k.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return nil, fmt.Errorf("spline: gp kernel matrix not positive definite")
	}
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("spline: gp solve: %w", err)
	}

	xs := make([]float64, n)
	copy(xs, x)
	return &gpFit{xs: xs, alpha: alpha.RawVector().Data, gamma: gamma}, nil
}

// medianGamma selects the RBF bandwidth with the median heuristic:
// gamma = 1 / median(pairwise squared distances).
func medianGamma(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return 1.0
	}

	distances := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			diff := x[i] - x[j]
			if d := diff * diff; d > 0 {
				distances = append(distances, d)
			}
		}
	}
	if len(distances) == 0 {
		return 1.0
	}

	sort.Float64s(distances)
	median := distances[len(distances)/2]
	if median == 0 {
		return 1.0
	}
	return 1.0 / median
}

func (g *gpFit) predict(x float64) float64 {
	var sum float64
	for i, xi := range g.xs {
		d := x - xi
		sum += g.alpha[i] * math.Exp(-g.gamma*d*d)
	}
	return sum
}

func (g *gpFit) derivative(x float64) float64 {
	var sum float64
	for i, xi := range g.xs {
		d := x - xi
		sum += g.alpha[i] * -2 * g.gamma * d * math.Exp(-g.gamma*d*d)
	}
	return sum
}
