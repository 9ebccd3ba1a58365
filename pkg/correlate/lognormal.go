package correlate

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogNormal builds the distribution of a variable whose logarithm is
// normal with standard deviation sigma and mean log(scale). The
// (sigma, scale) parametrization matches published fits of ground layer
// turbulence integrals. A nil src falls back to the global random source.
func LogNormal(sigma, scale float64, src rand.Source) (distuv.LogNormal, error) {
	if sigma <= 0 || scale <= 0 {
		return distuv.LogNormal{}, fmt.Errorf(
			"correlate: lognormal parameters must be positive, got sigma=%v scale=%v", sigma, scale)
	}
	return distuv.LogNormal{Mu: math.Log(scale), Sigma: sigma, Src: src}, nil
}
