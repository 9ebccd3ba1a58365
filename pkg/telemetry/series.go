// Package telemetry prepares ground weather station measurements and
// global forecast profiles for the parameter pipeline: masking of raw
// series, median matching of telemetry onto forecast timestamps, and
// per-instance forecast processing.
package telemetry

import (
	"errors"
	"fmt"
	"time"
)

// Typed conditions, testable with errors.Is.
var (
	ErrLengthMismatch = errors.New("telemetry: times and values lengths differ")
	ErrUnordered      = errors.New("telemetry: timestamps must be strictly increasing")
	ErrLevelMismatch  = errors.New("telemetry: forecast level profiles must share one length")
)

// Series is a timestamped sequence of scalar measurements with strictly
// increasing timestamps. Times and Values are parallel.
type Series struct {
	Times  []time.Time
	Values []float64
}

// NewSeries validates and builds a Series. The slices are retained, not
// copied.
func NewSeries(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return Series{}, fmt.Errorf("%w: index %d (%v) not after index %d (%v)",
				ErrUnordered, i, times[i], i-1, times[i-1])
		}
	}
	return Series{Times: times, Values: values}, nil
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Values) }

// Mask returns a reduced copy of s holding only the samples keep reports
// true for.
func (s Series) Mask(keep func(t time.Time, v float64) bool) Series {
	var out Series
	for i, v := range s.Values {
		if keep(s.Times[i], v) {
			out.Times = append(out.Times, s.Times[i])
			out.Values = append(out.Values, v)
		}
	}
	return out
}

// Telemetry bundles the masked ground measurement series.
type Telemetry struct {
	Speed Series // wind speed, m/s
	Dir   Series // wind direction, degrees east of north
	Temp  Series // air temperature, K
}

// maxCredibleSpeed is the wind speed, m/s, at or above which anemometer
// readings are treated as faulty.
const maxCredibleSpeed = 40

// ProcessTelemetry masks raw ground station series for use in matching:
// exact zeros are dropped from every series as instrument dropouts, wind
// speeds at or above 40 m/s are dropped as faulty, and temperatures
// convert from Celsius to Kelvin.
func ProcessTelemetry(speed, dir, temp Series) Telemetry {
	out := Telemetry{
		Speed: speed.Mask(func(_ time.Time, v float64) bool { return v != 0 && v < maxCredibleSpeed }),
		Dir:   dir.Mask(func(_ time.Time, v float64) bool { return v != 0 }),
		Temp:  temp.Mask(func(_ time.Time, v float64) bool { return v != 0 }),
	}
	for i, v := range out.Temp.Values {
		out.Temp.Values[i] = v + 273.15
	}
	return out
}
