package params

import (
	"errors"
	"math"
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"github.com/jmeyers314/psf-weather-station/pkg/telemetry"
)

var genBase = time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)

// Synthetic standard-atmosphere-like profiles with a jet near 12 km. The
// linear v component keeps the wind shear nonzero everywhere.
func uProfile(h float64) float64 { return 4 + 18*math.Exp(-(h-12)*(h-12)/16) }
func vProfile(h float64) float64 { return 1 + 0.2*h }
func tProfile(h float64) float64 {
	if h < 11 {
		return 288.15 - 6.5*h
	}
	return 216.65
}

// genForecast builds raw forecast instances every 3 hours over the given
// number of days, profiles top of atmosphere first as distributed, and
// processes them with the noon filter.
func genForecast(t *testing.T, days int) telemetry.ForecastSet {
	t.Helper()

	const nLevels = 26
	h := make([]float64, nLevels)
	p := make([]float64, nLevels)
	for i := range h {
		h[i] = float64(i)
		p[i] = 101325 * math.Exp(-h[i]/8)
	}

	raw := telemetry.ForecastSet{H: h, P: p}
	for k := 0; k < 8*days; k++ {
		inst := telemetry.Instance{Time: genBase.Add(time.Duration(3*k) * time.Hour)}
		for i := nLevels - 1; i >= 0; i-- {
			inst.U = append(inst.U, uProfile(h[i])+0.3*math.Sin(float64(k)))
			inst.V = append(inst.V, vProfile(h[i]))
			inst.T = append(inst.T, tProfile(h[i]))
		}
		raw.Instances = append(raw.Instances, inst)
	}

	fc, err := raw.Process(telemetry.FilterHour(12))
	if err != nil {
		t.Fatalf("processing forecast: %v", err)
	}
	return fc
}

// genTelemetry builds ground station series sampled every 10 minutes with a
// daily cycle, so windowed medians vary from instance to instance.
func genTelemetry(t *testing.T, days int) telemetry.Telemetry {
	t.Helper()

	n := 144 * days
	times := make([]time.Time, n)
	speed := make([]float64, n)
	dir := make([]float64, n)
	temp := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = genBase.Add(time.Duration(10*i) * time.Minute)
		day := float64(i) / 144
		speed[i] = 5 + 2*math.Sin(2*math.Pi*day) + 0.7*math.Cos(float64(7*i))
		dir[i] = 180 + 40*math.Sin(2*math.Pi*day+0.5)
		temp[i] = 12 - 3*math.Sin(2*math.Pi*day)
	}

	mk := func(vals []float64) telemetry.Series {
		s, err := telemetry.NewSeries(times, vals)
		if err != nil {
			t.Fatalf("building series: %v", err)
		}
		return s
	}
	return telemetry.ProcessTelemetry(mk(speed), mk(dir), mk(temp))
}

func TestGenerateProducesValidSet(t *testing.T) {
	fc := genForecast(t, 16)
	tel := genTelemetry(t, 16)

	cfg := DefaultConfig()
	gen, err := NewGenerator(cfg, nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	at := genBase.Add(6 * time.Hour)
	set, err := gen.Generate(tel, fc, at, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := set.Validate(); err != nil {
		t.Fatalf("generated set invalid: %v", err)
	}

	if !set.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", set.Time, at)
	}
	if got, want := len(set.J), len(cfg.Edges)-1; got != want {
		t.Fatalf("layers = %d, want %d", got, want)
	}
	for i := range set.J {
		if set.J[i] <= 0 {
			t.Errorf("J[%d] = %v, want > 0", i, set.J[i])
		}
		if want := (cfg.Edges[i] + cfg.Edges[i+1]) / 2; set.H[i] != want {
			t.Errorf("H[%d] = %v, want bin midpoint %v", i, set.H[i], want)
		}
	}

	// The ground layer wind is the matched telemetry, not the forecast.
	m := telemetry.Match(tel, fc.Times(), cfg.Window)
	idx := -1
	for i, mt := range m.Times {
		if mt.Equal(at) {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("no matched instance at %v", at)
	}
	if set.U[0] != m.U[idx] || set.V[0] != m.V[idx] {
		t.Errorf("ground wind = (%v, %v), want (%v, %v)", set.U[0], set.V[0], m.U[idx], m.V[idx])
	}
	if set.Speed[0] != m.Speed[idx] || set.Phi[0] != m.Dir[idx] {
		t.Errorf("ground speed/dir = (%v, %v), want (%v, %v)",
			set.Speed[0], set.Phi[0], m.Speed[idx], m.Dir[idx])
	}

	// The generated set converts cleanly into a pointing frame.
	sky, err := set.ToSkyFrame(55, 310)
	if err != nil {
		t.Fatalf("ToSkyFrame: %v", err)
	}
	if err := sky.Validate(); err != nil {
		t.Errorf("sky frame set invalid: %v", err)
	}
}

func TestGeneratePicksNearestInstance(t *testing.T) {
	fc := genForecast(t, 16)
	tel := genTelemetry(t, 16)

	gen, err := NewGenerator(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	// 07:10 sits between the 06:00 and 09:00 instances, nearer the first.
	set, err := gen.Generate(tel, fc, genBase.Add(7*time.Hour+10*time.Minute), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := genBase.Add(6 * time.Hour); !set.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", set.Time, want)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	fc := genForecast(t, 16)
	tel := genTelemetry(t, 16)

	gen, err := NewGenerator(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	at := genBase.Add(18 * time.Hour)

	s1, err := gen.Generate(tel, fc, at, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	s2, err := gen.Generate(tel, fc, at, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	for i := range s1.J {
		if s1.J[i] != s2.J[i] || s1.U[i] != s2.U[i] || s1.Speed[i] != s2.Speed[i] {
			t.Fatalf("layer %d differs between identically seeded runs", i)
		}
	}

	s3, err := gen.Generate(tel, fc, at, rand.New(rand.NewSource(10)))
	if err != nil {
		t.Fatalf("third Generate: %v", err)
	}
	if s3.J[0] == s1.J[0] {
		t.Errorf("ground draw identical across different seeds")
	}
}

func TestGenerateInsufficientData(t *testing.T) {
	fc := genForecast(t, 16)

	// Telemetry covering a single instance cannot support the ground
	// layer pairing.
	times := []time.Time{
		genBase.Add(5*time.Hour + 50*time.Minute),
		genBase.Add(6 * time.Hour),
		genBase.Add(6*time.Hour + 10*time.Minute),
	}
	mk := func(vals []float64) telemetry.Series {
		s, err := telemetry.NewSeries(times, vals)
		if err != nil {
			t.Fatalf("building series: %v", err)
		}
		return s
	}
	tel := telemetry.ProcessTelemetry(
		mk([]float64{5, 6, 7}), mk([]float64{120, 130, 140}), mk([]float64{10, 11, 12}))

	gen, err := NewGenerator(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	_, err = gen.Generate(tel, fc, genBase.Add(6*time.Hour), rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Generate = %v, want ErrInsufficientData", err)
	}
}

func TestGenerateRejectsBadArguments(t *testing.T) {
	fc := genForecast(t, 16)
	tel := genTelemetry(t, 16)
	gen, err := NewGenerator(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	at := genBase.Add(6 * time.Hour)

	if _, err := gen.Generate(tel, fc, at, nil); err == nil {
		t.Error("nil rng accepted")
	}

	noLevels := fc
	noLevels.H = nil
	if _, err := gen.Generate(tel, noLevels, at, rand.New(rand.NewSource(1))); err == nil {
		t.Error("forecast set without level axes accepted")
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	if _, err := NewGenerator(DefaultConfig(), nil); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no edges", func(c *Config) { c.Edges = nil }},
		{"one edge", func(c *Config) { c.Edges = c.Edges[:1] }},
		{"edges not increasing", func(c *Config) { c.Edges[2] = c.Edges[1] }},
		{"first edge below site", func(c *Config) { c.Edges[0] = c.Site.AltitudeKm - 1 }},
		{"grid too small", func(c *Config) { c.GridPoints = 2 }},
		{"rho above one", func(c *Config) { c.GroundRho = 1.5 }},
		{"zero ground sigma", func(c *Config) { c.GroundSigma = 0 }},
		{"half fa marginal", func(c *Config) { c.FAScale = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewGenerator(cfg, nil); !errors.Is(err, ErrBadConfig) {
				t.Errorf("NewGenerator = %v, want ErrBadConfig", err)
			}
		})
	}
}
