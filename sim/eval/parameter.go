package eval

import (
	"fmt"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Kind classifies how far a parameter's influence reaches and therefore
// how much of the flowsheet must be re-simulated after its setter runs.
type Kind uint8

const (
	// Isolated parameters change values read only at metric time, like
	// prices. No re-simulation.
	Isolated Kind = iota
	// Design parameters change one unit's sizing basis. The unit's
	// design state is refreshed; streams are untouched.
	Design
	// Cost parameters change one unit's costing basis. Same refresh
	// scope as Design.
	Cost
	// Coupled parameters perturb the material or energy balance, so the
	// element's downstream block is re-simulated.
	Coupled
)

func (k Kind) String() string {
	switch k {
	case Isolated:
		return "isolated"
	case Design:
		return "design"
	case Cost:
		return "cost"
	case Coupled:
		return "coupled"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// BoundsError reports a sample value outside a parameter's distribution
// support. It is raised before any model state changes.
type BoundsError struct {
	Parameter string
	Value     float64
	Lower     float64
	Upper     float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("parameter %s: value %g outside support [%g, %g]",
		e.Parameter, e.Value, e.Lower, e.Upper)
}

// Setter writes a sampled value into model state: a unit field, a stream
// flow, a price. It must not simulate; the model owns that.
type Setter func(v float64) error

// ParameterConfig declares one uncertain input for Model.AddParameter.
//
// The element fields scope the re-simulation. Design and Cost require
// Unit, which must maintain design state. Coupled takes either Unit or,
// when Unit is nil, Stream; a coupled stream with no consumer needs no
// re-simulation at all. Isolated ignores both.
type ParameterConfig struct {
	Name     string // unique display name
	Units    string // display units for reports, e.g. "kmol/h"
	Kind     Kind
	Unit     sim.Unit
	Stream   sim.StreamID
	Setter   Setter
	Baseline float64 // nominal value reported alongside the distribution
	Dist     Distribution
}

// Parameter is a registered uncertain input. The re-simulation callback
// matching its kind and element is fixed at registration time, so call
// sites only ever invoke Apply.
type Parameter struct {
	ParameterConfig

	pos      int // element's topological position; -1 for non-coupled
	order    int // registration sequence
	simulate func() error
}

// Apply checks v against the distribution support, runs the setter, then
// the bound re-simulation. A bounds violation leaves all state untouched.
func (p *Parameter) Apply(v float64) error {
	lo, hi := p.Dist.Bounds()
	if v < lo || v > hi {
		return &BoundsError{Parameter: p.Name, Value: v, Lower: lo, Upper: hi}
	}
	if err := p.Setter(v); err != nil {
		return fmt.Errorf("parameter %s: %w", p.Name, err)
	}
	if p.simulate == nil {
		return nil
	}
	return p.simulate()
}

// Position returns the topological position of the parameter's element,
// or -1 for non-coupled kinds.
func (p *Parameter) Position() int { return p.pos }
