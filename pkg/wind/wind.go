// Package wind converts between wind vector components and meteorological
// compass directions, and smooths direction time series so that they can be
// interpolated without 0/360 wraparound artifacts.
//
// Directions follow the meteorological convention: degrees east of north
// that the wind blows FROM. Components follow the mathematical convention:
// u is the eastward component and v the northward component of the flow.
package wind

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ToDirection converts wind vector components (u eastward, v northward, m/s)
// to the direction the wind is blowing from, in degrees east of north on
// [0, 360).
func ToDirection(u, v float64) float64 {
	d := math.Atan2(u, v) * 180 / math.Pi
	return math.Mod(d+180, 360)
}

// ToComponents converts a wind speed (m/s) and a direction (degrees east of
// north, "from" convention) to eastward and northward flow components.
// It inverts ToDirection: ToDirection(ToComponents(s, d)) == d for s > 0.
func ToComponents(speed, dir float64) (u, v float64) {
	sin, cos := math.Sincos((dir - 180) * math.Pi / 180)
	return speed * sin, speed * cos
}

// Offsets considered when unwrapping a direction series. Ties resolve to
// the earliest entry.
var wrapOffsets = [5]float64{720, 360, 0, -360, -720}

// SmoothDirections unwraps a sequence of directions (degrees) so that
// successive values never jump across the 0/360 boundary. Each value is
// replaced by whichever of value+{720,360,0,-360,-720} lies closest to the
// previously smoothed value. The whole series is then shifted by multiples
// of 360 until its mean lies within [-180, 180].
//
// The output is congruent to the input modulo 360 but varies continuously,
// which is what spline interpolation of a direction profile requires.
func SmoothDirections(dirs []float64) []float64 {
	if len(dirs) == 0 {
		return nil
	}

	smoothed := make([]float64, len(dirs))
	smoothed[0] = dirs[0]
	for i := 0; i < len(dirs)-1; i++ {
		best := dirs[i+1] + wrapOffsets[0]
		for _, off := range wrapOffsets[1:] {
			opt := dirs[i+1] + off
			if math.Abs(opt-smoothed[i]) < math.Abs(best-smoothed[i]) {
				best = opt
			}
		}
		smoothed[i+1] = best
	}

	for stat.Mean(smoothed, nil) > 180 {
		shift(smoothed, -360)
	}
	for stat.Mean(smoothed, nil) < -180 {
		shift(smoothed, 360)
	}
	return smoothed
}

func shift(s []float64, by float64) {
	for i := range s {
		s[i] += by
	}
}
