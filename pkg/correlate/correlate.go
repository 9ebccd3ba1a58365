// Package correlate pairs samples from two marginal distributions into a
// joint sample with a requested correlation, and builds the log-normal
// marginals used for ground layer turbulence integrals.
package correlate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// ErrNoConvergence reports that the swap budget ran out before the joint
// sample reached the requested correlation. It is a convergence failure,
// distinct from invalid-argument errors.
var ErrNoConvergence = errors.New("correlate: did not reach requested correlation")

// swapDivisor sets the swap window as a fraction of the sorted-value
// range. Ad hoc, but wide enough to mix neighbours in a pass over the
// dataset without destroying the marginal shape.
const swapDivisor = 15

// maxPassesPerSample bounds the swap iterations at 100 per sample.
const maxPassesPerSample = 100

// InduceCorrelation pairs two equally sized marginal samples into a joint
// sample whose Pearson correlation is at most rho.
//
// Both samples are sorted ascending, a perfectly rank-correlated pairing,
// and entries of the second are then repeatedly swapped with a randomly
// chosen entry of similar value until the correlation first drops to rho
// or below. Swapping only permutes, so both marginals are preserved
// exactly. The sorted x and the permuted y are returned as copies along
// with the achieved correlation; the inputs are untouched.
//
// rho must lie in [-1, 1]. Targets well below the correlation reachable by
// windowed swaps exhaust the budget and return ErrNoConvergence. The rng
// drives the swap choices; fix its seed for reproducible pairings.
func InduceCorrelation(x, y []float64, rho float64, rng *rand.Rand) (xs, ys []float64, achieved float64, err error) {
	if len(x) != len(y) {
		return nil, nil, 0, fmt.Errorf("correlate: sample sizes differ: %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return nil, nil, 0, fmt.Errorf("correlate: need at least 2 samples, got %d", n)
	}
	if rho < -1 || rho > 1 || math.IsNaN(rho) {
		return nil, nil, 0, fmt.Errorf("correlate: rho must be in [-1, 1], got %v", rho)
	}
	if rng == nil {
		return nil, nil, 0, errors.New("correlate: rng must not be nil")
	}

	xs = append([]float64(nil), x...)
	ys = append([]float64(nil), y...)
	sort.Float64s(xs)
	sort.Float64s(ys)

	window := (ys[n-1] - ys[0]) / swapDivisor
	if window <= 0 {
		return nil, nil, 0, errors.New("correlate: y samples are all equal")
	}

	achieved = stat.Correlation(xs, ys, nil)
	if achieved <= rho {
		return xs, ys, achieved, nil
	}

	valid := make([]int, 0, n)
	for i := 0; i < maxPassesPerSample*n; i++ {
		first := i % n

		// Candidate swap partners: every entry within the window of the
		// first. The first itself always qualifies, so the set is never
		// empty.
		valid = valid[:0]
		for j, v := range ys {
			if math.Abs(v-ys[first]) < window {
				valid = append(valid, j)
			}
		}
		swap := valid[rng.Intn(len(valid))]
		ys[first], ys[swap] = ys[swap], ys[first]

		achieved = stat.Correlation(xs, ys, nil)
		if achieved <= rho {
			return xs, ys, achieved, nil
		}
	}
	return nil, nil, achieved, fmt.Errorf("%w: rho=%v, reached %v after %d swaps",
		ErrNoConvergence, rho, achieved, maxPassesPerSample*n)
}
