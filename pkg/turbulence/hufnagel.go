package turbulence

import (
	"fmt"
	"math"
)

// hufnagelMinKm is the lowest altitude, in km, where the Hufnagel model
// holds. The parametrization describes free-atmosphere turbulence only.
const hufnagelMinKm = 3.0

// Hufnagel evaluates the Hufnagel Cn2 model at altitudes h (km above
// ground, each at least 3 km) for wind speeds v (m/s):
//
//	Cn2 = 2.2e-53 * z^10 * (v/27)^2 * exp(-z/1000) + 1e-16 * exp(-z/1500)
//
// with z the altitude in meters. Altitudes below 3 km return
// ErrBelowMinHeight.
func Hufnagel(h, v []float64) ([]float64, error) {
	if len(h) != len(v) {
		return nil, fmt.Errorf("%w: len(h)=%d, len(v)=%d", ErrUnequalLengths, len(h), len(v))
	}
	for i, hi := range h {
		if hi < hufnagelMinKm {
			return nil, fmt.Errorf("%w: h[%d]=%v km", ErrBelowMinHeight, i, hi)
		}
	}

	cn2 := make([]float64, len(h))
	for i := range cn2 {
		z := h[i] * 1000 // km to m
		wind := v[i] / 27
		cn2[i] = 2.2e-53*math.Pow(z, 10)*wind*wind*math.Exp(-z*1e-3) +
			1e-16*math.Exp(-z*1.5e-3)
	}
	return cn2, nil
}
