package params

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/jmeyers314/psf-weather-station/pkg/correlate"
	"github.com/jmeyers314/psf-weather-station/pkg/frames"
	"github.com/jmeyers314/psf-weather-station/pkg/spline"
	"github.com/jmeyers314/psf-weather-station/pkg/telemetry"
	"github.com/jmeyers314/psf-weather-station/pkg/turbulence"
	"github.com/jmeyers314/psf-weather-station/pkg/wind"
)

const (
	// defaultGridPoints is the resampling resolution for the vertical
	// profiles feeding the turbulence model.
	defaultGridPoints = 100

	// groundLayerDepth is the default thickness of the ground layer bin, km.
	groundLayerDepth = 0.25

	// minProfileLevels is the fewest combined ground-plus-forecast levels a
	// profile fit accepts.
	minProfileLevels = 4
)

// Config parametrizes a Generator.
type Config struct {
	// Site is the observatory the telemetry was recorded at.
	Site frames.Site

	// Edges are the layer boundaries in km, strictly increasing, starting
	// at or above the site altitude. The first bin is the ground layer.
	Edges []float64

	// Window is the telemetry matching half-width; zero or less selects
	// telemetry.DefaultWindow.
	Window time.Duration

	// GridPoints is the resampling resolution; zero selects the default.
	GridPoints int

	// Profile selects the fit used to resample wind and temperature
	// profiles. The zero value is an exact natural-cubic fit.
	Profile spline.Options

	// GroundRho is the ceiling on the Pearson correlation between ground
	// wind speed and the drawn ground layer integrals, in [-1, 1].
	GroundRho float64

	// GroundSigma and GroundScale parametrize the log-normal marginal the
	// ground layer turbulence integrals are drawn from.
	GroundSigma float64
	GroundScale float64

	// FASigma and FAScale, when both positive, parametrize a log-normal
	// draw of the total free atmosphere integral; the modeled bins are
	// rescaled to sum to the draw. Left zero, the model output is used
	// as-is.
	FASigma float64
	FAScale float64
}

// DefaultConfig returns a configuration for the default site with a 250 m
// ground layer, free atmosphere bins to 18 km, Gaussian process profile
// fits, and marginals representative of published ground layer and free
// atmosphere seeing fits.
func DefaultConfig() Config {
	site := frames.DefaultSite()
	g := site.AltitudeKm
	return Config{
		Site:        site,
		Edges:       []float64{g, g + groundLayerDepth, 6, 10, 14, 18},
		Window:      telemetry.DefaultWindow,
		GridPoints:  defaultGridPoints,
		Profile:     spline.Options{Mode: spline.GP},
		GroundRho:   0.6,
		GroundSigma: 0.6,
		GroundScale: 2.0e-13,
		FASigma:     0.8,
		FAScale:     4.0e-13,
	}
}

func (c Config) validate() error {
	if len(c.Edges) < 2 {
		return fmt.Errorf("%w: need at least 2 edges, got %d", ErrBadConfig, len(c.Edges))
	}
	for i := 1; i < len(c.Edges); i++ {
		if c.Edges[i] <= c.Edges[i-1] {
			return fmt.Errorf("%w: edges not increasing at %d", ErrBadConfig, i)
		}
	}
	if c.Edges[0] < c.Site.AltitudeKm {
		return fmt.Errorf("%w: first edge %v km below site altitude %v km",
			ErrBadConfig, c.Edges[0], c.Site.AltitudeKm)
	}
	if c.GridPoints != 0 && c.GridPoints < minProfileLevels {
		return fmt.Errorf("%w: grid points %d below minimum %d", ErrBadConfig, c.GridPoints, minProfileLevels)
	}
	if c.GroundRho < -1 || c.GroundRho > 1 {
		return fmt.Errorf("%w: ground rho %v outside [-1, 1]", ErrBadConfig, c.GroundRho)
	}
	if c.GroundSigma <= 0 || c.GroundScale <= 0 {
		return fmt.Errorf("%w: ground marginal needs positive sigma and scale", ErrBadConfig)
	}
	if (c.FASigma > 0) != (c.FAScale > 0) {
		return fmt.Errorf("%w: free atmosphere marginal needs both sigma and scale", ErrBadConfig)
	}
	return nil
}

// Generator turns telemetry and forecast data into parameter Sets.
type Generator struct {
	cfg    Config
	logger *zap.SugaredLogger
}

// NewGenerator validates cfg and returns a Generator. A nil logger
// disables logging.
func NewGenerator(cfg Config, logger *zap.SugaredLogger) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.GridPoints == 0 {
		cfg.GridPoints = defaultGridPoints
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Generate produces the parameter Set for the forecast instance nearest to
// at.
//
// Telemetry is matched to the forecast instance times; instances without
// coverage in every telemetry series are dropped, and at least two must
// survive for the ground layer correlation. The selected instance's profiles
// are spliced with the matched ground values, resampled onto a uniform
// altitude grid, run through the Osborn turbulence model and integrated into
// the configured bins. The ground layer integral is replaced by a draw from
// the log-normal marginal, paired to the matched ground wind speeds with
// correlation at most GroundRho across all surviving instances.
//
// fc must have been processed so its profiles run ground upward. rng drives
// the marginal draws and the correlation pairing; fix its seed for
// reproducible sets.
func (g *Generator) Generate(tel telemetry.Telemetry, fc telemetry.ForecastSet, at time.Time, rng *rand.Rand) (*Set, error) {
	if rng == nil {
		return nil, errors.New("params: rng must not be nil")
	}
	if len(fc.H) != len(fc.P) || len(fc.H) < minProfileLevels {
		return nil, fmt.Errorf("params: forecast set needs parallel level altitudes and pressures, got %d and %d",
			len(fc.H), len(fc.P))
	}

	matched := telemetry.Match(tel, fc.Times(), g.cfg.Window)
	if matched.Len() < 2 {
		return nil, fmt.Errorf("%w: %d of %d forecast instances have telemetry coverage",
			ErrInsufficientData, matched.Len(), len(fc.Instances))
	}
	g.logger.Debugf("Matched telemetry to %d of %d forecast instances", matched.Len(), len(fc.Instances))

	idx := nearestTime(matched.Times, at)
	inst, err := instanceAt(fc, matched.Times[idx])
	if err != nil {
		return nil, err
	}

	prof, err := g.spliceProfiles(matched, idx, fc, inst)
	if err != nil {
		return nil, err
	}

	set, err := g.modelTurbulence(prof, inst.Time)
	if err != nil {
		return nil, err
	}

	// Ground layer wind comes from the telescope-height telemetry, not
	// from the lowest forecast levels.
	set.U[0], set.V[0] = matched.U[idx], matched.V[idx]
	set.Speed[0], set.Phi[0] = matched.Speed[idx], matched.Dir[idx]

	if err := g.drawIntegrals(set, matched, idx, rng); err != nil {
		return nil, err
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	g.logger.Debugf("Generated %d-layer parameter set for %v", len(set.J), set.Time)
	return set, nil
}

// profile is the spliced ground-plus-forecast column for one instance.
type profile struct {
	h, u, v, t, p []float64
}

// spliceProfiles stacks the matched ground values under the forecast levels
// above the site. Ground pressure is interpolated from the forecast level
// pressures.
func (g *Generator) spliceProfiles(matched telemetry.Matched, idx int, fc telemetry.ForecastSet, inst telemetry.Instance) (profile, error) {
	ground := g.cfg.Site.AltitudeKm

	pFit, err := spline.NewFit(fc.H, fc.P, spline.Options{Mode: spline.Exact})
	if err != nil {
		return profile{}, fmt.Errorf("params: fitting level pressures: %w", err)
	}
	p0, err := pFit.At(ground)
	if err != nil {
		return profile{}, fmt.Errorf("params: ground pressure at %v km: %w", ground, err)
	}

	prof := profile{
		h: []float64{ground},
		u: []float64{matched.U[idx]},
		v: []float64{matched.V[idx]},
		t: []float64{matched.Temp[idx]},
		p: []float64{p0},
	}
	for i, hi := range fc.H {
		if hi <= ground {
			continue
		}
		prof.h = append(prof.h, hi)
		prof.u = append(prof.u, inst.U[i])
		prof.v = append(prof.v, inst.V[i])
		prof.t = append(prof.t, inst.T[i])
		prof.p = append(prof.p, fc.P[i])
	}
	if len(prof.h) < minProfileLevels {
		return profile{}, fmt.Errorf("params: only %d forecast levels above site altitude %v km",
			len(prof.h)-1, ground)
	}
	return prof, nil
}

// modelTurbulence resamples the profile onto a uniform grid spanning the
// bins, evaluates the Osborn model and integrates it, and fills the
// per-layer winds at the bin midpoints.
func (g *Generator) modelTurbulence(prof profile, at time.Time) (*Set, error) {
	edges := g.cfg.Edges
	grid := make([]float64, g.cfg.GridPoints)
	floats.Span(grid, edges[0], edges[len(edges)-1])

	uFit, err := spline.NewFit(prof.h, prof.u, g.cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("params: fitting u profile: %w", err)
	}
	vFit, err := spline.NewFit(prof.h, prof.v, g.cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("params: fitting v profile: %w", err)
	}
	tFit, err := spline.NewFit(prof.h, prof.t, g.cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("params: fitting temperature profile: %w", err)
	}
	pFit, err := spline.NewFit(prof.h, prof.p, spline.Options{Mode: spline.Exact})
	if err != nil {
		return nil, fmt.Errorf("params: fitting pressure profile: %w", err)
	}

	_, duGrid, err := evalGrid(uFit, grid)
	if err != nil {
		return nil, fmt.Errorf("params: resampling u: %w", err)
	}
	_, dvGrid, err := evalGrid(vFit, grid)
	if err != nil {
		return nil, fmt.Errorf("params: resampling v: %w", err)
	}
	tGrid, dtGrid, err := evalGrid(tFit, grid)
	if err != nil {
		return nil, fmt.Errorf("params: resampling temperature: %w", err)
	}
	pGrid, dpGrid, err := evalGrid(pFit, grid)
	if err != nil {
		return nil, fmt.Errorf("params: resampling pressure: %w", err)
	}

	// Gradients here are per km, matching the calibration of the model
	// constants.
	cn2, err := turbulence.Osborn(turbulence.OsbornInput{
		P: pGrid, T: tGrid,
		DPDz: dpGrid, DTDz: dtGrid,
		DUDz: duGrid, DVDz: dvGrid,
	})
	if err != nil {
		return nil, err
	}
	j, err := turbulence.IntegrateBins(grid, cn2, edges)
	if err != nil {
		return nil, err
	}

	n := len(j)
	set := &Set{
		Time: at,
		Site: g.cfg.Site,
		U:    make([]float64, n), V: make([]float64, n),
		Speed: make([]float64, n), Phi: make([]float64, n),
		J: j, H: make([]float64, n),
		Edges: append([]float64(nil), edges...),
	}
	for i := 0; i < n; i++ {
		set.H[i] = (edges[i] + edges[i+1]) / 2
		if set.U[i], err = uFit.At(set.H[i]); err != nil {
			return nil, fmt.Errorf("params: layer %d wind: %w", i, err)
		}
		if set.V[i], err = vFit.At(set.H[i]); err != nil {
			return nil, fmt.Errorf("params: layer %d wind: %w", i, err)
		}
		set.Speed[i] = math.Hypot(set.U[i], set.V[i])
		set.Phi[i] = wind.ToDirection(set.U[i], set.V[i])
	}
	return set, nil
}

// evalGrid evaluates a fit and its derivative at every grid point.
func evalGrid(f *spline.Fit, grid []float64) (ys, dys []float64, err error) {
	ys = make([]float64, len(grid))
	dys = make([]float64, len(grid))
	for i, x := range grid {
		if ys[i], err = f.At(x); err != nil {
			return nil, nil, err
		}
		if dys[i], err = f.Derivative(x); err != nil {
			return nil, nil, err
		}
	}
	return ys, dys, nil
}

// drawIntegrals replaces the modeled ground layer integral with a draw from
// the ground marginal, paired to the matched wind speeds, and optionally
// rescales the free atmosphere bins to a drawn total.
func (g *Generator) drawIntegrals(set *Set, matched telemetry.Matched, idx int, rng *rand.Rand) error {
	dist, err := correlate.LogNormal(g.cfg.GroundSigma, g.cfg.GroundScale, rng)
	if err != nil {
		return err
	}
	draws := make([]float64, matched.Len())
	for i := range draws {
		draws[i] = dist.Rand()
	}

	xs, ys, achieved, err := correlate.InduceCorrelation(matched.Speed, draws, g.cfg.GroundRho, rng)
	if err != nil {
		return fmt.Errorf("params: pairing ground integrals with wind speed: %w", err)
	}
	g.logger.Debugf("Ground layer correlation %.3f against target %.3f over %d instances",
		achieved, g.cfg.GroundRho, len(xs))
	set.J[0] = ys[rankOf(matched.Speed, idx)]

	if g.cfg.FASigma > 0 && g.cfg.FAScale > 0 {
		faDist, err := correlate.LogNormal(g.cfg.FASigma, g.cfg.FAScale, rng)
		if err != nil {
			return err
		}
		total := 0.0
		for _, v := range set.J[1:] {
			total += v
		}
		if total <= 0 {
			return fmt.Errorf("%w: free atmosphere bins integrate to zero", ErrInvalidSet)
		}
		scale := faDist.Rand() / total
		for i := 1; i < len(set.J); i++ {
			set.J[i] *= scale
		}
	}
	return nil
}

// nearestTime returns the index of the time closest to at, the earliest on
// ties.
func nearestTime(times []time.Time, at time.Time) int {
	best := 0
	bestD := absDuration(times[0].Sub(at))
	for i, t := range times[1:] {
		if d := absDuration(t.Sub(at)); d < bestD {
			best, bestD = i+1, d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// instanceAt finds the forecast instance with the given timestamp.
func instanceAt(fc telemetry.ForecastSet, at time.Time) (telemetry.Instance, error) {
	for _, inst := range fc.Instances {
		if inst.Time.Equal(at) {
			return inst, nil
		}
	}
	return telemetry.Instance{}, fmt.Errorf("params: no forecast instance at %v", at)
}

// rankOf returns the position the idx-th value takes when the slice is
// sorted ascending, with ties broken by original index. This is the row the
// value occupies in the sorted output of the correlation pairing.
func rankOf(vals []float64, idx int) int {
	rank := 0
	for i, v := range vals {
		if v < vals[idx] || (v == vals[idx] && i < idx) {
			rank++
		}
	}
	return rank
}
