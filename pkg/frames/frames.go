// Package frames builds the orthonormal bases that relate an observatory's
// local horizon frame to the sky frame of a telescope pointing, and applies
// them: rotating wind vectors into the pointing's tangent plane and
// stretching vertical distances into line-of-sight distances.
package frames

import (
	"errors"
	"fmt"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"
)

// Typed conditions, testable with errors.Is.
var (
	ErrBadAltitude = errors.New("frames: pointing altitude out of range")
	ErrPoleAligned = errors.New("frames: boresight aligned with the celestial pole")
)

// Basis is an observatory's local orthonormal frame, expressed in
// geocentric coordinates with the z axis through the north celestial pole.
type Basis struct {
	North  r3.Vec
	East   r3.Vec
	Zenith r3.Vec
}

// ObservatoryBasis returns the local North/East/Zenith frame of a site at
// geodetic latitude and longitude, both in degrees.
func ObservatoryBasis(lat, lon float64) Basis {
	sinLat, cosLat := unit.AngleFromDeg(lat).Sincos()
	sinLon, cosLon := unit.AngleFromDeg(lon).Sincos()

	north := r3.Vec{X: -cosLon * sinLat, Y: -sinLon * sinLat, Z: cosLat}
	zenith := r3.Vec{X: cosLon * cosLat, Y: sinLon * cosLat, Z: sinLat}
	return Basis{North: north, East: r3.Cross(north, zenith), Zenith: zenith}
}

// SkyBasis is the orthonormal frame attached to a telescope pointing: sky
// north and east spanning the tangent plane, plus the boresight direction.
type SkyBasis struct {
	North     r3.Vec
	East      r3.Vec
	Boresight r3.Vec
}

// Pointing returns the sky frame of a telescope at site basis b aimed at
// altitude alt above the horizon and azimuth az east of north, in degrees.
// Altitudes outside (0, 90] return ErrBadAltitude. A boresight along the
// celestial pole axis leaves sky east undefined and returns ErrPoleAligned.
func Pointing(alt, az float64, b Basis) (SkyBasis, error) {
	if alt <= 0 || alt > 90 {
		return SkyBasis{}, fmt.Errorf("%w: alt=%v degrees", ErrBadAltitude, alt)
	}
	sinAlt, cosAlt := unit.AngleFromDeg(alt).Sincos()
	sinAz, cosAz := unit.AngleFromDeg(az).Sincos()

	// Compass direction the telescope faces, lifted by the altitude angle.
	compass := r3.Add(r3.Scale(cosAz, b.North), r3.Scale(sinAz, b.East))
	boresight := r3.Add(r3.Scale(sinAlt, b.Zenith), r3.Scale(cosAlt, compass))

	east := r3.Cross(r3.Vec{Z: 1}, boresight)
	norm := r3.Norm(east)
	if norm < 1e-12 {
		return SkyBasis{}, fmt.Errorf("%w: alt=%v az=%v", ErrPoleAligned, alt, az)
	}
	east = r3.Scale(1/norm, east)

	return SkyBasis{North: r3.Cross(boresight, east), East: east, Boresight: boresight}, nil
}

// RotateWind projects an observatory-frame wind vector, v northward and u
// eastward in site basis b, onto the pointing's sky north and east axes.
// The boresight component is discarded: only motion across the line of
// sight moves the turbulence pattern over the pupil.
func (s SkyBasis) RotateWind(v, u float64, b Basis) (skyV, skyU float64) {
	w := r3.Add(r3.Scale(v, b.North), r3.Scale(u, b.East))
	return r3.Dot(s.North, w), r3.Dot(s.East, w)
}

// SecZenith is the secant of the zenith angle for a pointing at altitude
// alt degrees: the factor that stretches vertical distances into distances
// along the line of sight. Altitudes outside (0, 90] return ErrBadAltitude.
func SecZenith(alt float64) (float64, error) {
	if alt <= 0 || alt > 90 {
		return 0, fmt.Errorf("%w: alt=%v degrees", ErrBadAltitude, alt)
	}
	return 1 / unit.AngleFromDeg(90-alt).Cos(), nil
}
