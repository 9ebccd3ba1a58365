package telemetry

import (
	"fmt"
	"math"
	"time"

	"github.com/jmeyers314/psf-weather-station/pkg/wind"
)

// Instance is one forecast output: vertical wind and temperature profiles
// valid at one time. After Process, profiles run ground upward and carry
// derived speed and direction.
type Instance struct {
	Time  time.Time
	U     []float64 // eastward wind component per level, m/s
	V     []float64 // northward wind component per level, m/s
	T     []float64 // temperature per level, K
	Speed []float64 // derived wind speed per level, m/s
	Phi   []float64 // derived wind direction per level, degrees east of north
}

// ForecastSet is a collection of forecast instances on a fixed set of
// model levels. H and P describe the levels ground upward: altitude in km
// and pressure in Pa. Raw instance profiles arrive in the opposite order,
// top of atmosphere first, as global forecast files are distributed;
// Process reverses them to match H.
type ForecastSet struct {
	H         []float64
	P         []float64
	Instances []Instance
}

// FilterFunc reports whether a forecast instance at time t should be kept.
type FilterFunc func(t time.Time) bool

// FilterHour drops instances whose local hour equals h. Global forecast
// archives include a daytime run that tells nothing about observing
// conditions; FilterHour(12) removes it.
func FilterHour(h int) FilterFunc {
	return func(t time.Time) bool { return t.Hour() != h }
}

// Times returns the instance timestamps, in order.
func (fs ForecastSet) Times() []time.Time {
	times := make([]time.Time, len(fs.Instances))
	for i, inst := range fs.Instances {
		times[i] = inst.Time
	}
	return times
}

// Process prepares raw forecast instances: level order is reversed to run
// ground upward, wind speed and direction profiles are derived, and
// instances rejected by keep are dropped. A nil keep keeps every instance.
// Level axes H and P pass through unchanged.
func (fs ForecastSet) Process(keep FilterFunc) (ForecastSet, error) {
	out := ForecastSet{H: fs.H, P: fs.P}
	for _, inst := range fs.Instances {
		if keep != nil && !keep(inst.Time) {
			continue
		}
		n := len(inst.U)
		if len(inst.V) != n || len(inst.T) != n || (fs.H != nil && len(fs.H) != n) {
			return ForecastSet{}, fmt.Errorf("%w: instance at %v", ErrLevelMismatch, inst.Time)
		}

		p := Instance{
			Time:  inst.Time,
			U:     reversed(inst.U),
			V:     reversed(inst.V),
			T:     reversed(inst.T),
			Speed: make([]float64, n),
			Phi:   make([]float64, n),
		}
		for i := range p.Speed {
			p.Speed[i] = math.Hypot(p.U[i], p.V[i])
			p.Phi[i] = wind.ToDirection(p.U[i], p.V[i])
		}
		out.Instances = append(out.Instances, p)
	}
	return out, nil
}

func reversed(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
