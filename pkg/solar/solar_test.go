package solar

import (
	"testing"
	"time"
)

func TestElevation(t *testing.T) {
	tests := []struct {
		name     string
		when     time.Time
		lat, lon float64
		min, max float64
	}{
		{
			name: "equinox noon on the equator",
			when: time.Date(2019, time.March, 20, 12, 0, 0, 0, time.UTC),
			lat:  0, lon: 0,
			min: 80, max: 90.6,
		},
		{
			name: "equinox midnight on the equator",
			when: time.Date(2019, time.March, 20, 0, 0, 0, 0, time.UTC),
			lat:  0, lon: 0,
			min: -90.6, max: -80,
		},
		{
			name: "cerro pachon winter night",
			when: time.Date(2019, time.June, 21, 5, 0, 0, 0, time.UTC),
			lat:  -30.2446, lon: -70.7494,
			min: -90, max: -20,
		},
		{
			name: "cerro pachon summer afternoon",
			when: time.Date(2019, time.December, 21, 17, 0, 0, 0, time.UTC),
			lat:  -30.2446, lon: -70.7494,
			min: 60, max: 90.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Elevation(tt.when, tt.lat, tt.lon)
			if got < tt.min || got > tt.max {
				t.Errorf("Elevation = %v, want within [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestNightFilter(t *testing.T) {
	keep := NightFilter(-30.2446, -70.7494, -14)

	night := time.Date(2019, time.June, 21, 5, 0, 0, 0, time.UTC)
	if !keep(night) {
		t.Error("astronomical night rejected")
	}
	noon := time.Date(2019, time.December, 21, 17, 0, 0, 0, time.UTC)
	if keep(noon) {
		t.Error("daytime accepted")
	}
}
