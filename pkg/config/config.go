// Package config loads simulator configuration from YAML files and
// converts it into generator settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/jmeyers314/psf-weather-station/pkg/frames"
	"github.com/jmeyers314/psf-weather-station/pkg/params"
	"github.com/jmeyers314/psf-weather-station/pkg/spline"
)

// Config mirrors the simulator YAML file. Load layers the file over
// Default, so absent keys keep their default values.
type Config struct {
	Site SiteConfig `yaml:"site,omitempty"`

	// Edges are the layer boundaries in km. Empty derives a default
	// layering from the site altitude.
	Edges []float64 `yaml:"edges,omitempty"`

	WindowMinutes  int            `yaml:"window-minutes,omitempty"`
	GridPoints     int            `yaml:"grid-points,omitempty"`
	Profile        ProfileConfig  `yaml:"profile,omitempty"`
	Ground         GroundConfig   `yaml:"ground,omitempty"`
	FreeAtmosphere MarginalConfig `yaml:"free-atmosphere,omitempty"`
	Pointing       PointingConfig `yaml:"pointing,omitempty"`

	// NightOnly restricts forecast instances to times when the sun sits
	// below MaxSunElevation degrees.
	NightOnly       bool    `yaml:"night-only"`
	MaxSunElevation float64 `yaml:"max-sun-elevation,omitempty"`

	// Days is the length of the synthesized weather archive.
	Days int `yaml:"days,omitempty"`

	// Seed drives the random draws; zero seeds from the wall clock.
	Seed uint64 `yaml:"seed,omitempty"`
}

// SiteConfig selects the observatory. A preset name takes precedence; set
// name to the empty string to use explicit coordinates.
type SiteConfig struct {
	Name       string  `yaml:"name"`
	Latitude   float64 `yaml:"latitude,omitempty"`
	Longitude  float64 `yaml:"longitude,omitempty"`
	AltitudeKm float64 `yaml:"altitude-km,omitempty"`
}

// ProfileConfig selects the fit used to resample forecast profiles: exact,
// cubic, smoothing or gp.
type ProfileConfig struct {
	Mode   string  `yaml:"mode,omitempty"`
	Factor float64 `yaml:"factor,omitempty"`
	Gamma  float64 `yaml:"gamma,omitempty"`
	Noise  float64 `yaml:"noise,omitempty"`
}

// GroundConfig parametrizes the ground layer turbulence draw.
type GroundConfig struct {
	Rho   float64 `yaml:"rho,omitempty"`
	Sigma float64 `yaml:"sigma,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
}

// MarginalConfig parametrizes a log-normal marginal.
type MarginalConfig struct {
	Sigma float64 `yaml:"sigma,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
}

// PointingConfig is the telescope pointing the parameter set is converted
// to, in degrees.
type PointingConfig struct {
	Altitude float64 `yaml:"altitude,omitempty"`
	Azimuth  float64 `yaml:"azimuth,omitempty"`
}

// Default returns the simulator defaults: the default site, the default
// generator settings, a two week synthetic archive restricted to nautical
// darkness, and a mid-altitude pointing.
func Default() Config {
	gen := params.DefaultConfig()
	return Config{
		Site:          SiteConfig{Name: gen.Site.Name},
		WindowMinutes: int(gen.Window / time.Minute),
		GridPoints:    gen.GridPoints,
		Profile:       ProfileConfig{Mode: gen.Profile.Mode.String()},
		Ground: GroundConfig{
			Rho:   gen.GroundRho,
			Sigma: gen.GroundSigma,
			Scale: gen.GroundScale,
		},
		FreeAtmosphere: MarginalConfig{
			Sigma: gen.FASigma,
			Scale: gen.FAScale,
		},
		Pointing:        PointingConfig{Altitude: 60, Azimuth: 150},
		NightOnly:       true,
		MaxSunElevation: -12,
		Days:            16,
	}
}

// Load reads a YAML simulator configuration file, layered over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// GeneratorConfig resolves the site and converts the configuration into
// generator settings.
func (c Config) GeneratorConfig() (params.Config, error) {
	site, err := c.Site.resolve()
	if err != nil {
		return params.Config{}, err
	}
	opts, err := c.Profile.options()
	if err != nil {
		return params.Config{}, err
	}

	gen := params.Config{
		Site:        site,
		Edges:       c.Edges,
		Window:      time.Duration(c.WindowMinutes) * time.Minute,
		GridPoints:  c.GridPoints,
		Profile:     opts,
		GroundRho:   c.Ground.Rho,
		GroundSigma: c.Ground.Sigma,
		GroundScale: c.Ground.Scale,
		FASigma:     c.FreeAtmosphere.Sigma,
		FAScale:     c.FreeAtmosphere.Scale,
	}
	if len(gen.Edges) == 0 {
		gen.Edges = defaultEdges(site.AltitudeKm)
	}
	return gen, nil
}

func (s SiteConfig) resolve() (frames.Site, error) {
	if s.Name != "" {
		return frames.LookupSite(s.Name)
	}
	if s.Latitude == 0 && s.Longitude == 0 {
		return frames.Site{}, fmt.Errorf("config: site needs a preset name or explicit coordinates")
	}
	return frames.Site{
		Name:       "custom",
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		AltitudeKm: s.AltitudeKm,
	}, nil
}

func (p ProfileConfig) options() (spline.Options, error) {
	opts := spline.Options{Factor: p.Factor, Gamma: p.Gamma, Noise: p.Noise}
	switch p.Mode {
	case "", "exact":
		opts.Mode = spline.Exact
	case "cubic":
		opts.Mode = spline.Cubic
	case "smoothing":
		opts.Mode = spline.Smoothing
	case "gp":
		opts.Mode = spline.GP
	default:
		return spline.Options{}, fmt.Errorf("config: unknown profile mode %q", p.Mode)
	}
	return opts, nil
}

// defaultEdges places a 250 m ground layer under free atmosphere bins up to
// 18 km, skipping boundaries the ground layer already covers.
func defaultEdges(ground float64) []float64 {
	edges := []float64{ground, ground + 0.25}
	for _, e := range []float64{6, 10, 14, 18} {
		if e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}
