// Package turbulence implements optical turbulence strength models for the
// free atmosphere and the integration of Cn2 profiles into discrete layers.
//
// The Osborn model (Osborn et al 2018, MNRAS 480) derives a Cn2 profile
// from forecast pressure, temperature and wind shear profiles. The Hufnagel
// model is a classic parametric alternative that needs only altitude and
// wind speed. Both return Cn2 up to a dimensionful calibration factor, so
// relative weights between altitudes are meaningful while absolute values
// require calibration against seeing measurements.
package turbulence

import (
	"errors"
	"fmt"
	"math"
)

const (
	gravity = 9.8 // m/s^2

	// rOverCp is the gas constant over the specific heat capacity at
	// constant pressure for dry air.
	rOverCp = 0.286

	// refPressure is the potential temperature reference pressure, Pa.
	refPressure = 1000 * 100
)

// Typed conditions, testable with errors.Is.
var (
	ErrUnequalLengths = errors.New("turbulence: profile slices must have equal lengths")
	ErrNonPositive    = errors.New("turbulence: value must be positive")
	ErrBelowMinHeight = errors.New("turbulence: hufnagel model requires altitudes of at least 3 km")
	ErrBadEdges       = errors.New("turbulence: bin edges must be strictly increasing")
)

// OsbornInput bundles the vertical profiles the Osborn model consumes.
// All slices must have the same length, one entry per altitude level, with
// pressure in Pa and temperature in K. The gradients are with respect to
// altitude and must share one altitude unit between them.
type OsbornInput struct {
	P    []float64 // pressure
	T    []float64 // temperature
	DPDz []float64 // vertical pressure gradient
	DTDz []float64 // vertical temperature gradient
	DUDz []float64 // vertical shear of the eastward wind component
	DVDz []float64 // vertical shear of the northward wind component
}

func (in OsbornInput) validate() error {
	n := len(in.P)
	for _, s := range [][]float64{in.T, in.DPDz, in.DTDz, in.DUDz, in.DVDz} {
		if len(s) != n {
			return fmt.Errorf("%w: P has %d levels", ErrUnequalLengths, n)
		}
	}
	for i := 0; i < n; i++ {
		if in.P[i] <= 0 {
			return fmt.Errorf("%w: P[%d]=%v", ErrNonPositive, i, in.P[i])
		}
		if in.T[i] <= 0 {
			return fmt.Errorf("%w: T[%d]=%v", ErrNonPositive, i, in.T[i])
		}
	}
	return nil
}

// PotentialTemperature returns the potential temperature profile
//
//	Theta = T * (P0 / P)^(R/cp)
//
// and its vertical gradient, for pressure in Pa and temperature in K.
func PotentialTemperature(p, t, dpdz, dtdz []float64) (theta, dtheta []float64, err error) {
	n := len(p)
	if len(t) != n || len(dpdz) != n || len(dtdz) != n {
		return nil, nil, ErrUnequalLengths
	}

	theta = make([]float64, n)
	dtheta = make([]float64, n)
	for i := 0; i < n; i++ {
		amp := math.Pow(refPressure/p[i], rOverCp)
		theta[i] = t[i] * amp
		dtheta[i] = amp * (dtdz[i] - rOverCp*t[i]*dpdz[i]/p[i])
	}
	return theta, dtheta, nil
}

// Osborn evaluates the Osborn et al 2018 Cn2 model:
//
//	Cn2 = L^(4/3) * (80e-6 * P * Theta' / (T * Theta))^2
//	L   = sqrt(2 * E * Theta / (g * |Theta'|))
//	E   = u'^2 + v'^2
//
// The absolute value in L absorbs the occasional numerically negative
// potential temperature gradient; in the free atmosphere the gradient is
// positive. A gradient of exactly zero makes the length scale diverge and
// yields NaN for that level.
func Osborn(in OsbornInput) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	theta, dtheta, err := PotentialTemperature(in.P, in.T, in.DPDz, in.DTDz)
	if err != nil {
		return nil, err
	}

	cn2 := make([]float64, len(in.P))
	for i := range cn2 {
		shear := in.DUDz[i]*in.DUDz[i] + in.DVDz[i]*in.DVDz[i]
		lz := math.Sqrt(2 * theta[i] / gravity * shear / math.Abs(dtheta[i]))

		ratio := 80e-6 * in.P[i] * dtheta[i] / (in.T[i] * theta[i])
		cn2[i] = math.Pow(lz, 4.0/3.0) * ratio * ratio
	}
	return cn2, nil
}
