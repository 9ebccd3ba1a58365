package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Moon describes the moon at one time: phase fraction (0 new, 0.5 full),
// illuminated fraction, and whether it is waxing.
type Moon struct {
	Phase        float64
	Illumination float64
	Waxing       bool
}

// MoonState computes the moon phase at time t from the ecliptic longitudes
// of the sun and moon. Dominant-term series, accurate to about a percent of
// illumination, plenty for observing-condition context.
func MoonState(t time.Time) Moon {
	T := (julian.TimeToJD(t.UTC()) - 2451545.0) / 36525.0

	elong := fixAngle(moonLongitude(T) - sunLongitude(T))
	return Moon{
		Phase:        elong / 360,
		Illumination: (1 - math.Cos(degToRad(elong))) / 2,
		Waxing:       elong < 180,
	}
}

// Name returns the common eight-phase name.
func (m Moon) Name() string {
	switch {
	case m.Illumination < 0.01:
		return "new moon"
	case m.Illumination > 0.99:
		return "full moon"
	case m.Illumination >= 0.49 && m.Illumination <= 0.51:
		if m.Waxing {
			return "first quarter"
		}
		return "third quarter"
	case m.Illumination < 0.5:
		if m.Waxing {
			return "waxing crescent"
		}
		return "waning crescent"
	default:
		if m.Waxing {
			return "waxing gibbous"
		}
		return "waning gibbous"
	}
}

// sunLongitude is the sun's apparent ecliptic longitude in degrees, the
// same series Elevation uses.
func sunLongitude(T float64) float64 {
	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	return fixAngle(L0 + C)
}

// moonLongitude is the moon's ecliptic longitude in degrees, dominant terms
// of the Meeus chapter 47 series.
func moonLongitude(T float64) float64 {
	L := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841
	D := 297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868
	Mp := 134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699

	dRad := degToRad(fixAngle(D))
	mpRad := degToRad(fixAngle(Mp))
	return fixAngle(L +
		6.289*math.Sin(mpRad) +
		1.274*math.Sin(2*dRad-mpRad) +
		0.658*math.Sin(2*dRad) +
		0.214*math.Sin(2*mpRad) +
		0.110*math.Sin(dRad))
}
