package turbulence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/jmeyers314/psf-weather-station/pkg/spline"
)

// integrationSamples is how many equally spaced altitude samples span the
// whole [edges[0], edges[last]] range before per-bin integration.
const integrationSamples = 1000

// IntegrateBins integrates a Cn2 profile into altitude bins, returning one
// turbulence integral J per bin in m^(1/3).
//
// The profile (h, cn2) is sampled at altitudes h in km; edges, also in km,
// bound len(edges)-1 contiguous bins. Cn2 is interpolated in log space with
// an exact spline fit, sampled on a uniform grid across the full range, and
// integrated per bin with the trapezoidal rule over the samples strictly
// inside that bin. A bin narrower than the sample spacing captures fewer
// than two samples and integrates to J = 0.
//
// Bins may extend beyond the profile altitudes only within the spline
// extrapolation tolerance; farther edges return spline.ErrOutOfRange.
func IntegrateBins(h, cn2, edges []float64) ([]float64, error) {
	if len(h) != len(cn2) {
		return nil, fmt.Errorf("%w: len(h)=%d, len(cn2)=%d", ErrUnequalLengths, len(h), len(cn2))
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 edges, got %d", ErrBadEdges, len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("%w: edges[%d]=%v, edges[%d]=%v",
				ErrBadEdges, i-1, edges[i-1], i, edges[i])
		}
	}

	logCn2 := make([]float64, len(cn2))
	for i, c := range cn2 {
		// !(c > 0) also rejects NaN, which the Osborn model emits for a
		// vanishing potential temperature gradient.
		if !(c > 0) {
			return nil, fmt.Errorf("%w: cn2[%d]=%v", ErrNonPositive, i, c)
		}
		logCn2[i] = math.Log(c)
	}

	fit, err := spline.NewFit(h, logCn2, spline.Options{Mode: spline.Exact})
	if err != nil {
		return nil, fmt.Errorf("turbulence: fitting log cn2: %w", err)
	}

	samples := make([]float64, integrationSamples)
	floats.Span(samples, edges[0], edges[len(edges)-1])

	j := make([]float64, len(edges)-1)
	hBin := make([]float64, 0, integrationSamples)
	cnBin := make([]float64, 0, integrationSamples)
	for b := range j {
		hBin, cnBin = hBin[:0], cnBin[:0]
		for _, hs := range samples {
			if hs <= edges[b] || hs >= edges[b+1] {
				continue
			}
			v, err := fit.At(hs)
			if err != nil {
				return nil, fmt.Errorf("turbulence: interpolating cn2 at %v km: %w", hs, err)
			}
			hBin = append(hBin, hs)
			cnBin = append(cnBin, math.Exp(v))
		}
		if len(hBin) < 2 {
			continue
		}
		// Samples are in km; scale so J comes out in m^(1/3).
		j[b] = integrate.Trapezoidal(hBin, cnBin) * 1000
	}
	return j, nil
}
