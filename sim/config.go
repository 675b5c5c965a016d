package sim

import "fmt"

// Default convergence settings. Flow tolerances follow the usual
// sequential-modular practice of a relative criterion with a small
// absolute floor for near-empty recycles.
const (
	DefaultRelFlowTol    = 1e-3 // relative error on component and total flows
	DefaultAbsFlowTol    = 1e-6 // kmol/h floor below which flow error is ignored
	DefaultTempTol       = 0.1  // K, absolute
	DefaultMaxIterations = 100
)

// Accelerator method names accepted by ConvergeOptions.Method.
const (
	MethodFixedPoint = "fixedpoint"
	MethodWegstein   = "wegstein"
	MethodAitken     = "aitken"
)

var validMethods = map[string]bool{
	MethodFixedPoint: true,
	MethodWegstein:   true,
	MethodAitken:     true,
	"":               true, // empty selects the default
}

// ConvergeOptions groups the recycle convergence settings of a System.
// The zero value selects all defaults.
type ConvergeOptions struct {
	RelFlowTol    float64 // relative flow error tolerance (default 1e-3)
	AbsFlowTol    float64 // absolute flow error floor in kmol/h (default 1e-6)
	TempTol       float64 // absolute temperature tolerance in K (default 0.1)
	MaxIterations int     // iteration ceiling (default 100)
	Method        string  // "fixedpoint" (default), "wegstein", or "aitken"
}

// withDefaults returns a copy with zero fields replaced by defaults.
func (o ConvergeOptions) withDefaults() ConvergeOptions {
	if o.RelFlowTol == 0 {
		o.RelFlowTol = DefaultRelFlowTol
	}
	if o.AbsFlowTol == 0 {
		o.AbsFlowTol = DefaultAbsFlowTol
	}
	if o.TempTol == 0 {
		o.TempTol = DefaultTempTol
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Method == "" {
		o.Method = MethodFixedPoint
	}
	return o
}

// Validate rejects unusable settings before they reach a convergence loop.
func (o ConvergeOptions) Validate() error {
	if o.RelFlowTol < 0 {
		return fmt.Errorf("relative flow tolerance must be non-negative, got %g", o.RelFlowTol)
	}
	if o.AbsFlowTol < 0 {
		return fmt.Errorf("absolute flow tolerance must be non-negative, got %g", o.AbsFlowTol)
	}
	if o.TempTol < 0 {
		return fmt.Errorf("temperature tolerance must be non-negative, got %g", o.TempTol)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("max iterations must be non-negative, got %d", o.MaxIterations)
	}
	if !validMethods[o.Method] {
		return fmt.Errorf("unknown method %q; valid: fixedpoint, wegstein, aitken", o.Method)
	}
	return nil
}
