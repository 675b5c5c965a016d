package eval

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is the sampling support of one uncertain parameter: a
// bounded continuous distribution queried through its quantile function.
// Samplers draw uniforms and map them through Quantile, so any bounded
// shape plugs in.
type Distribution interface {
	// Quantile maps p in [0, 1] into the distribution's value space.
	Quantile(p float64) float64
	// Bounds returns the support [lower, upper].
	Bounds() (lower, upper float64)
}

type uniformDist struct {
	d distuv.Uniform
}

// Uniform is a flat distribution over [lower, upper].
func Uniform(lower, upper float64) (Distribution, error) {
	if lower >= upper {
		return nil, fmt.Errorf("uniform bounds must satisfy lower < upper, got [%g, %g]", lower, upper)
	}
	return &uniformDist{d: distuv.Uniform{Min: lower, Max: upper}}, nil
}

func (u *uniformDist) Quantile(p float64) float64 { return u.d.Quantile(p) }
func (u *uniformDist) Bounds() (float64, float64) { return u.d.Min, u.d.Max }

type triangularDist struct {
	d            distuv.Triangle
	lower, upper float64
}

// Triangular is a triangle distribution over [lower, upper] peaking at
// mode, the usual shape for expert-elicited process uncertainty.
func Triangular(lower, mode, upper float64) (Distribution, error) {
	if lower >= upper || mode < lower || mode > upper {
		return nil, fmt.Errorf("triangular bounds must satisfy lower <= mode <= upper with lower < upper, got (%g, %g, %g)",
			lower, mode, upper)
	}
	return &triangularDist{
		d:     distuv.NewTriangle(lower, upper, mode, nil),
		lower: lower,
		upper: upper,
	}, nil
}

func (t *triangularDist) Quantile(p float64) float64 { return t.d.Quantile(p) }
func (t *triangularDist) Bounds() (float64, float64) { return t.lower, t.upper }
