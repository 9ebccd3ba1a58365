package telemetry

import (
	"sort"
	"time"

	"github.com/jmeyers314/psf-weather-station/pkg/wind"
)

// DefaultWindow is the half-width of the matching window around each
// reference time.
const DefaultWindow = 30 * time.Minute

// Matched holds per-reference-time telemetry medians, aligned to the
// reference times that had data in every series, plus wind components
// derived from the matched speed and direction.
type Matched struct {
	Times []time.Time
	Speed []float64
	Dir   []float64
	Temp  []float64
	U     []float64
	V     []float64
}

// Len returns the number of matched reference times.
func (m Matched) Len() int { return len(m.Times) }

// Match reduces each telemetry series to its median within window of each
// reference time. The three series are windowed independently; a reference
// time lacking samples in any one of them is dropped, so the result may be
// empty. A window of zero or less selects DefaultWindow.
func Match(tel Telemetry, ref []time.Time, window time.Duration) Matched {
	if window <= 0 {
		window = DefaultWindow
	}

	var m Matched
	for _, rt := range ref {
		s, okS := windowMedian(tel.Speed, rt, window)
		d, okD := windowMedian(tel.Dir, rt, window)
		tk, okT := windowMedian(tel.Temp, rt, window)
		if !okS || !okD || !okT {
			continue
		}
		u, v := wind.ToComponents(s, d)
		m.Times = append(m.Times, rt)
		m.Speed = append(m.Speed, s)
		m.Dir = append(m.Dir, d)
		m.Temp = append(m.Temp, tk)
		m.U = append(m.U, u)
		m.V = append(m.V, v)
	}
	return m
}

// windowMedian is the median of the series values with timestamps strictly
// within window of t. The second return is false when no sample qualifies.
func windowMedian(s Series, t time.Time, window time.Duration) (float64, bool) {
	var vals []float64
	for i, ts := range s.Times {
		d := ts.Sub(t)
		if d < 0 {
			d = -d
		}
		if d < window {
			vals = append(vals, s.Values[i])
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return median(vals), true
}

// median returns the midpoint median, averaging the two central values for
// even counts. vals is reordered in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
