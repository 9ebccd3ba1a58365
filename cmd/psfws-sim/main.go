// psfws-sim synthesizes a ground weather archive and matching forecast
// instances for an observatory site, generates a layered atmospheric
// parameter set from them, and prints it in both the observatory and the
// telescope pointing frame.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"golang.org/x/exp/rand"

	"github.com/jmeyers314/psf-weather-station/internal/log"
	"github.com/jmeyers314/psf-weather-station/pkg/config"
	"github.com/jmeyers314/psf-weather-station/pkg/params"
	"github.com/jmeyers314/psf-weather-station/pkg/solar"
	"github.com/jmeyers314/psf-weather-station/pkg/telemetry"
	"github.com/jmeyers314/psf-weather-station/pkg/turbulence"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to YAML configuration; built-in defaults when empty")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	seed := flag.Uint64("seed", 0, "Random seed; overrides the configuration when nonzero")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("psfws-sim %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			log.Errorf("Failed to load configuration: %v", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	if err := run(cfg); err != nil {
		log.Errorf("Simulation error: %v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return err
	}
	gen, err := params.NewGenerator(genCfg, log.GetSugaredLogger())
	if err != nil {
		return err
	}

	site := genCfg.Site
	days := cfg.Days
	if days < 2 {
		days = 2
	}
	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)

	rng := rand.New(rand.NewSource(cfg.Seed))
	tel, fcRaw, err := synthesize(start, days, rng)
	if err != nil {
		return err
	}

	// Drop the uninformative noon run, and optionally everything outside
	// astronomical observing hours.
	keep := telemetry.FilterHour(12)
	if cfg.NightOnly {
		noon := keep
		night := solar.NightFilter(site.Latitude, site.Longitude, cfg.MaxSunElevation)
		keep = func(t time.Time) bool { return noon(t) && night(t) }
	}
	fc, err := fcRaw.Process(keep)
	if err != nil {
		return err
	}
	log.Infof("Synthesized %d days of weather for %s: %d wind samples, %d of %d forecast instances kept",
		days, site.Name, tel.Speed.Len(), len(fc.Instances), len(fcRaw.Instances))

	at := start.Add(time.Duration(days/2*24+6) * time.Hour)
	set, err := gen.Generate(tel, fc, at, rng)
	if err != nil {
		return err
	}

	moon := solar.MoonState(set.Time)
	fmt.Printf("Atmospheric parameters for %s\n", site.Name)
	fmt.Printf("=====================================\n\n")
	fmt.Printf("Instance: %s    Seed: %d\n", set.Time.Format(time.RFC3339), cfg.Seed)
	fmt.Printf("Moon: %.0f%% illuminated (%s)\n\n", 100*moon.Illumination, moon.Name())

	printSet("Observatory frame (altitudes above sea level)", set)

	sky, err := set.ToSkyFrame(cfg.Pointing.Altitude, cfg.Pointing.Azimuth)
	if err != nil {
		return err
	}
	fmt.Printf("\n")
	printSet(fmt.Sprintf("Sky frame at alt %.1f az %.1f (line-of-sight distances)",
		cfg.Pointing.Altitude, cfg.Pointing.Azimuth), sky)

	printHufnagel(set)
	return nil
}

// synthesize builds a ground weather archive and matching forecast
// instances with a diurnal cycle, a few-day synoptic drift and instrument
// noise.
func synthesize(start time.Time, days int, rng *rand.Rand) (telemetry.Telemetry, telemetry.ForecastSet, error) {
	const levels = 26
	h := make([]float64, levels)
	p := make([]float64, levels)
	for i := range h {
		h[i] = float64(i)
		p[i] = 101325 * math.Exp(-h[i]/8)
	}

	fc := telemetry.ForecastSet{H: h, P: p}
	for k := 0; k < 8*days; k++ {
		synoptic := 3 * math.Sin(2*math.Pi*float64(k)/28)
		inst := telemetry.Instance{Time: start.Add(time.Duration(3*k) * time.Hour)}
		// Raw forecast profiles run top of atmosphere first.
		for i := levels - 1; i >= 0; i-- {
			alt := h[i]
			jet := 18 * math.Exp(-(alt-12)*(alt-12)/16)
			inst.U = append(inst.U, 4+jet+synoptic+rng.NormFloat64()*0.5)
			inst.V = append(inst.V, 1+0.2*alt+0.5*synoptic+rng.NormFloat64()*0.5)
			inst.T = append(inst.T, stdTemperature(alt)+rng.NormFloat64()*0.3)
		}
		fc.Instances = append(fc.Instances, inst)
	}

	n := days * 144
	times := make([]time.Time, n)
	speed := make([]float64, n)
	dir := make([]float64, n)
	temp := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = start.Add(time.Duration(10*i) * time.Minute)
		day := float64(i) / 144
		synoptic := 1.5 * math.Sin(2*math.Pi*day/3.5)
		speed[i] = 5.5 + 2*math.Sin(2*math.Pi*day) + synoptic + rng.NormFloat64()*0.4
		if speed[i] < 0.5 {
			speed[i] = 0.5
		}
		dir[i] = math.Mod(200+50*math.Sin(2*math.Pi*day+1)+rng.NormFloat64()*5+360, 360)
		temp[i] = 12 - 6*math.Cos(2*math.Pi*day) + rng.NormFloat64()*0.3
	}

	var tel telemetry.Telemetry
	sp, err := telemetry.NewSeries(times, speed)
	if err != nil {
		return tel, fc, err
	}
	dr, err := telemetry.NewSeries(times, dir)
	if err != nil {
		return tel, fc, err
	}
	tp, err := telemetry.NewSeries(times, temp)
	if err != nil {
		return tel, fc, err
	}
	return telemetry.ProcessTelemetry(sp, dr, tp), fc, nil
}

func stdTemperature(h float64) float64 {
	if h < 11 {
		return 288.15 - 6.5*h
	}
	return 216.65
}

func printSet(title string, set *params.Set) {
	fmt.Printf("%s\n", title)
	fmt.Printf("  %-5s %9s %9s %9s %9s %10s %13s\n",
		"layer", "h [km]", "u [m/s]", "v [m/s]", "spd", "phi [deg]", "J [m^1/3]")
	total := 0.0
	for i := range set.J {
		fmt.Printf("  %-5d %9.3f %9.2f %9.2f %9.2f %10.1f %13.3e\n",
			i, set.H[i], set.U[i], set.V[i], set.Speed[i], set.Phi[i], set.J[i])
		total += set.J[i]
	}
	fmt.Printf("  total J = %.3e m^(1/3), r0 = %.3f m at 500 nm\n", total, friedParameter(total))
}

// friedParameter is r0 at 500 nm for an integrated turbulence strength.
func friedParameter(j float64) float64 {
	k := 2 * math.Pi / 500e-9
	return math.Pow(0.423*k*k*j, -3.0/5.0)
}

// printHufnagel shows the parametric Hufnagel Cn2 at the free atmosphere
// layers as a reference against the forecast-driven integrals.
func printHufnagel(set *params.Set) {
	var h, v []float64
	for i := range set.H {
		if set.H[i] >= 3 {
			h = append(h, set.H[i])
			v = append(v, set.Speed[i])
		}
	}
	if len(h) == 0 {
		return
	}
	cn2, err := turbulence.Hufnagel(h, v)
	if err != nil {
		log.Warnf("Hufnagel comparison unavailable: %v", err)
		return
	}
	fmt.Printf("\nHufnagel model Cn2 at the free atmosphere layers:\n")
	for i := range h {
		fmt.Printf("  %6.2f km: %.3e m^(-2/3)\n", h[i], cn2[i])
	}
}
