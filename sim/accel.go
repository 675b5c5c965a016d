package sim

import (
	"fmt"
	"math"
)

// Accelerator proposes the next recycle guess from successive fixed-point
// iterates. x is the guess the pass started from and gx the value the pass
// regenerated; Next returns the guess for the following pass. Reset clears
// iterate history between independent convergence runs.
type Accelerator interface {
	Reset()
	Next(x, gx []float64) []float64
}

// NewAccelerator builds the strategy selected by a ConvergeOptions.Method
// name. The empty name selects plain substitution.
func NewAccelerator(method string) (Accelerator, error) {
	switch method {
	case "", MethodFixedPoint:
		return &fixedPoint{}, nil
	case MethodWegstein:
		return &wegstein{qmin: wegsteinQMin, qmax: wegsteinQMax}, nil
	case MethodAitken:
		return &aitken{}, nil
	}
	return nil, fmt.Errorf("unknown method %q; valid: fixedpoint, wegstein, aitken", method)
}

// fixedPoint is naive successive substitution: the regenerated value
// becomes the next guess unchanged.
type fixedPoint struct{}

func (*fixedPoint) Reset() {}

func (*fixedPoint) Next(_, gx []float64) []float64 {
	next := make([]float64, len(gx))
	copy(next, gx)
	return next
}

// Wegstein q bounds. Negative q extrapolates a monotone approach, q in
// (0, 1) damps an oscillating one; q is clamped to keep a misbehaving
// secant slope from destabilizing the loop.
const (
	wegsteinQMin = -5.0
	wegsteinQMax = 0.5
)

// wegstein applies the bounded per-element secant update
// x' = q*x + (1-q)*g(x) with q = s/(s-1), s the secant slope of g.
type wegstein struct {
	qmin, qmax float64
	xPrev      []float64
	gPrev      []float64
	have       bool
}

func (w *wegstein) Reset() {
	w.xPrev = nil
	w.gPrev = nil
	w.have = false
}

func (w *wegstein) Next(x, gx []float64) []float64 {
	next := make([]float64, len(gx))
	if !w.have || len(w.xPrev) != len(x) {
		copy(next, gx) // no history yet: substitution step
	} else {
		for i := range x {
			var q float64
			dx := x[i] - w.xPrev[i]
			if math.Abs(dx) > 1e-14 {
				s := (gx[i] - w.gPrev[i]) / dx
				if math.Abs(s-1) > 1e-14 {
					q = s / (s - 1)
				}
			}
			if q < w.qmin {
				q = w.qmin
			} else if q > w.qmax {
				q = w.qmax
			}
			next[i] = q*x[i] + (1-q)*gx[i]
		}
	}
	w.xPrev = append(w.xPrev[:0], x...)
	w.gPrev = append(w.gPrev[:0], gx...)
	w.have = true
	return next
}

// aitken alternates a plain substitution step with an elementwise
// delta-squared extrapolation over the last three iterates.
type aitken struct {
	x0   []float64 // iterate before the stored substitution step
	x1   []float64 // g(x0)
	have bool
}

func (a *aitken) Reset() {
	a.x0 = nil
	a.x1 = nil
	a.have = false
}

func (a *aitken) Next(x, gx []float64) []float64 {
	next := make([]float64, len(gx))
	if !a.have || len(a.x0) != len(gx) {
		// Substitution step; remember (x0, x1) for the extrapolation.
		a.x0 = append(a.x0[:0], x...)
		a.x1 = append(a.x1[:0], gx...)
		a.have = true
		copy(next, gx)
		return next
	}
	// x is x1 and gx is x2 = g(x1): extrapolate per element.
	for i := range gx {
		denom := gx[i] - 2*a.x1[i] + a.x0[i]
		if math.Abs(denom) > 1e-14 {
			d := a.x1[i] - a.x0[i]
			next[i] = a.x0[i] - d*d/denom
		} else {
			next[i] = gx[i]
		}
	}
	a.have = false
	return next
}
