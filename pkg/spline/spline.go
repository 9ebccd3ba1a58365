// Package spline fits smooth curves to sampled meteorological profiles and
// evaluates them, with derivatives, at arbitrary points.
//
// Four fitting modes are available: exact natural-cubic and not-a-knot cubic
// interpolation (gonum/interp), a natural smoothing spline with a curvature
// penalty (Reinsch's formulation, solved with gonum/mat), and Gaussian
// process regression with an RBF kernel. All modes share the same
// validation and evaluation surface.
package spline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Mode selects the fitting method.
type Mode int

const (
	// Exact fits a natural cubic spline through every sample. This is the
	// zero-penalty limit of the Smoothing mode.
	Exact Mode = iota
	// Cubic fits a not-a-knot cubic spline through every sample.
	Cubic
	// Smoothing fits a natural cubic smoothing spline, trading fidelity to
	// the samples against integrated squared curvature via Options.Factor.
	Smoothing
	// GP fits a Gaussian process regression with an RBF kernel.
	GP
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Cubic:
		return "cubic"
	case Smoothing:
		return "smoothing"
	case GP:
		return "gp"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RangeTolerance is the fraction of the sample span by which an evaluation
// point may lie outside [x[0], x[n-1]] before At and Derivative refuse to
// extrapolate.
const RangeTolerance = 0.10

// Typed conditions, testable with errors.Is.
var (
	ErrLengthMismatch = errors.New("spline: x and y lengths differ")
	ErrNotIncreasing  = errors.New("spline: x values must be strictly increasing")
	ErrTooFewPoints   = errors.New("spline: too few sample points")
	ErrOutOfRange     = errors.New("spline: evaluation point outside sample range")
)

// Options configures a fit.
type Options struct {
	Mode Mode

	// Factor is the curvature penalty for Smoothing mode. Zero reproduces
	// the exact fit; larger values give flatter curves. Ignored otherwise.
	Factor float64

	// Gamma is the RBF bandwidth for GP mode. Zero selects the median
	// heuristic over the pairwise squared sample distances. Ignored
	// otherwise.
	Gamma float64

	// Noise is added to the GP kernel diagonal for numerical stability and
	// to absorb observation noise. Zero selects a small default jitter.
	// Ignored outside GP mode.
	Noise float64
}

// DefaultOptions returns options for an exact natural-cubic fit.
func DefaultOptions() Options {
	return Options{Mode: Exact}
}

// Fit is a fitted curve ready for evaluation.
type Fit struct {
	lo, hi float64

	curve interp.DerivativePredictor // Exact, Cubic and Smoothing modes
	gp    *gpFit                     // GP mode
}

func minPoints(m Mode) int {
	if m == GP {
		return 2
	}
	return 4
}

func validate(x, y []float64, m Mode) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: len(x)=%d, len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}
	if min := minPoints(m); len(x) < min {
		return fmt.Errorf("%w: %s mode needs at least %d, got %d", ErrTooFewPoints, m, min, len(x))
	}
	for i := 1; i < len(x); i++ {
		if x[i] <= x[i-1] {
			return fmt.Errorf("%w: x[%d]=%v, x[%d]=%v", ErrNotIncreasing, i-1, x[i-1], i, x[i])
		}
	}
	return nil
}

// NewFit fits a curve to the samples (x, y). The x values must be strictly
// increasing. The input slices are not retained.
func NewFit(x, y []float64, opts Options) (*Fit, error) {
	if err := validate(x, y, opts.Mode); err != nil {
		return nil, err
	}

	f := &Fit{lo: x[0], hi: x[len(x)-1]}
	switch opts.Mode {
	case Exact:
		var nc interp.NaturalCubic
		if err := nc.Fit(x, y); err != nil {
			return nil, fmt.Errorf("spline: exact fit: %w", err)
		}
		f.curve = &nc
	case Cubic:
		var cc interp.NotAKnotCubic
		if err := cc.Fit(x, y); err != nil {
			return nil, fmt.Errorf("spline: cubic fit: %w", err)
		}
		f.curve = &cc
	case Smoothing:
		smoothed, err := smoothValues(x, y, opts.Factor)
		if err != nil {
			return nil, err
		}
		var nc interp.NaturalCubic
		if err := nc.Fit(x, smoothed); err != nil {
			return nil, fmt.Errorf("spline: smoothing fit: %w", err)
		}
		f.curve = &nc
	case GP:
		gp, err := newGPFit(x, y, opts.Gamma, opts.Noise)
		if err != nil {
			return nil, err
		}
		f.gp = gp
	default:
		return nil, fmt.Errorf("spline: unknown mode %v", opts.Mode)
	}
	return f, nil
}

func (f *Fit) checkRange(x float64) error {
	margin := RangeTolerance * (f.hi - f.lo)
	if x < f.lo-margin || x > f.hi+margin {
		return fmt.Errorf("%w: x=%v, samples span [%v, %v]", ErrOutOfRange, x, f.lo, f.hi)
	}
	return nil
}

// At evaluates the fitted curve at x. Points within RangeTolerance of the
// sample span are extrapolated; farther points return ErrOutOfRange.
func (f *Fit) At(x float64) (float64, error) {
	if err := f.checkRange(x); err != nil {
		return 0, err
	}
	if f.gp != nil {
		return f.gp.predict(x), nil
	}
	return f.curve.Predict(x), nil
}

// Derivative evaluates dy/dx of the fitted curve at x, under the same range
// policy as At.
func (f *Fit) Derivative(x float64) (float64, error) {
	if err := f.checkRange(x); err != nil {
		return 0, err
	}
	if f.gp != nil {
		return f.gp.derivative(x), nil
	}
	return f.curve.PredictDerivative(x), nil
}

// Eval fits (x, y) once and evaluates values and derivatives at every
// target. It is the bulk form of NewFit/At/Derivative.
func Eval(x, y, targets []float64, opts Options) (ys, dys []float64, err error) {
	f, err := NewFit(x, y, opts)
	if err != nil {
		return nil, nil, err
	}
	ys = make([]float64, len(targets))
	dys = make([]float64, len(targets))
	for i, t := range targets {
		if ys[i], err = f.At(t); err != nil {
			return nil, nil, err
		}
		if dys[i], err = f.Derivative(t); err != nil {
			return nil, nil, err
		}
	}
	return ys, dys, nil
}
