// Package params assembles layered atmospheric parameter sets: per layer,
// a turbulence integral and a wind vector, generated from matched
// telemetry and forecast data and convertible into the sky frame of a
// telescope pointing.
package params

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmeyers314/psf-weather-station/pkg/frames"
	"github.com/jmeyers314/psf-weather-station/pkg/wind"
)

// Typed conditions, testable with errors.Is.
var (
	ErrInvalidSet       = errors.New("params: invalid parameter set")
	ErrBadConfig        = errors.New("params: invalid generator configuration")
	ErrInsufficientData = errors.New("params: not enough matched instances")
)

// Set is one realization of layered atmospheric parameters. All per-layer
// slices are parallel; Edges bounds the len(J) altitude bins the integrals
// were computed over. Altitudes are in km and, after ToSkyFrame, measure
// distance along the line of sight rather than height.
type Set struct {
	Time time.Time
	Site frames.Site

	U     []float64 // eastward wind per layer, m/s
	V     []float64 // northward wind per layer, m/s
	Speed []float64 // wind speed per layer, m/s
	Phi   []float64 // wind direction per layer, degrees east of north
	J     []float64 // turbulence integral per layer, m^(1/3)
	H     []float64 // representative layer altitude, km
	Edges []float64 // layer boundaries, km, len(J)+1
}

// Validate checks the structural invariants: parallel lengths, strictly
// increasing edges with one more entry than layers, layer altitudes inside
// their bins, and non-negative integrals and speeds.
func (s *Set) Validate() error {
	n := len(s.J)
	if n == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidSet)
	}
	for name, sl := range map[string][]float64{
		"u": s.U, "v": s.V, "speed": s.Speed, "phi": s.Phi, "h": s.H,
	} {
		if len(sl) != n {
			return fmt.Errorf("%w: %s has %d entries for %d layers", ErrInvalidSet, name, len(sl), n)
		}
	}
	if len(s.Edges) != n+1 {
		return fmt.Errorf("%w: %d edges for %d layers", ErrInvalidSet, len(s.Edges), n)
	}
	for i := 1; i < len(s.Edges); i++ {
		if s.Edges[i] <= s.Edges[i-1] {
			return fmt.Errorf("%w: edges not increasing at %d", ErrInvalidSet, i)
		}
	}
	for i := 0; i < n; i++ {
		if s.H[i] < s.Edges[i] || s.H[i] > s.Edges[i+1] {
			return fmt.Errorf("%w: layer %d altitude %v outside bin [%v, %v]",
				ErrInvalidSet, i, s.H[i], s.Edges[i], s.Edges[i+1])
		}
		if s.J[i] < 0 {
			return fmt.Errorf("%w: layer %d has negative integral %v", ErrInvalidSet, i, s.J[i])
		}
		if s.Speed[i] < 0 {
			return fmt.Errorf("%w: layer %d has negative speed %v", ErrInvalidSet, i, s.Speed[i])
		}
		if s.Phi[i] < 0 || s.Phi[i] > 360 {
			return fmt.Errorf("%w: layer %d direction %v outside [0, 360]", ErrInvalidSet, i, s.Phi[i])
		}
	}
	return nil
}

// ToSkyFrame converts the set into the frame of a telescope pointing at
// altitude alt and azimuth az, degrees. Wind vectors are rotated onto sky
// north and east with the boresight component dropped, speeds and
// directions recomputed, and the altitudes, edges and turbulence integrals
// stretched by the secant of the zenith angle into line-of-sight
// quantities. The receiver is unchanged.
func (s *Set) ToSkyFrame(alt, az float64) (*Set, error) {
	basis := s.Site.Basis()
	sky, err := frames.Pointing(alt, az, basis)
	if err != nil {
		return nil, err
	}
	sec, err := frames.SecZenith(alt)
	if err != nil {
		return nil, err
	}

	n := len(s.J)
	out := &Set{
		Time: s.Time,
		Site: s.Site,
		U:    make([]float64, n), V: make([]float64, n),
		Speed: make([]float64, n), Phi: make([]float64, n),
		J: make([]float64, n), H: make([]float64, n),
		Edges: make([]float64, len(s.Edges)),
	}
	for i := 0; i < n; i++ {
		skyV, skyU := sky.RotateWind(s.V[i], s.U[i], basis)
		out.V[i], out.U[i] = skyV, skyU
		out.Speed[i] = math.Hypot(skyU, skyV)
		out.Phi[i] = wind.ToDirection(skyU, skyV)
		out.J[i] = s.J[i] * sec
		out.H[i] = s.H[i] * sec
	}
	for i, e := range s.Edges {
		out.Edges[i] = e * sec
	}
	return out, nil
}
