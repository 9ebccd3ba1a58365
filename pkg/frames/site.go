package frames

import (
	"fmt"
	"sort"
)

// Site describes an observatory location.
type Site struct {
	Name       string
	Latitude   float64 // degrees, north positive
	Longitude  float64 // degrees, east positive
	AltitudeKm float64 // ground altitude above sea level, km
}

// Basis returns the site's local North/East/Zenith frame.
func (s Site) Basis() Basis {
	return ObservatoryBasis(s.Latitude, s.Longitude)
}

// Preset observatory sites.
var sites = map[string]Site{
	"cerro-pachon":  {Name: "cerro-pachon", Latitude: -30.2446, Longitude: -70.7494, AltitudeKm: 2.715},
	"cerro-tololo":  {Name: "cerro-tololo", Latitude: -30.1690, Longitude: -70.8063, AltitudeKm: 2.2},
	"cerro-paranal": {Name: "cerro-paranal", Latitude: -24.6275, Longitude: -70.4044, AltitudeKm: 2.64},
	"mauna-kea":     {Name: "mauna-kea", Latitude: 19.8260, Longitude: -155.4747, AltitudeKm: 4.2},
	"la-palma":      {Name: "la-palma", Latitude: 28.7606, Longitude: -17.8816, AltitudeKm: 2.396},
}

// DefaultSite returns Cerro Pachon, the site the model defaults target.
func DefaultSite() Site {
	return sites["cerro-pachon"]
}

// LookupSite returns a preset site by name.
func LookupSite(name string) (Site, error) {
	s, ok := sites[name]
	if !ok {
		return Site{}, fmt.Errorf("frames: unknown site %q, have %v", name, SiteNames())
	}
	return s, nil
}

// SiteNames lists the preset site names, sorted.
func SiteNames() []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
