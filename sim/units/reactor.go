package units

import (
	"fmt"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Reactor converts a fraction of one key reactant into a product by a
// single irreversible reaction A -> yield*B. The balance is isothermal
// apart from an optional fixed temperature rise across the vessel.
//
// Design fills DesignResults and PurchaseCost from the converged outlet:
//   - "Reactor volume": working volume from residence time (m3)
//   - "Residence time": Tau echoed back (hr)
//
// The purchase cost scales from a base vessel by the six-tenths rule.
type Reactor struct {
	name     string
	in, out  sim.StreamID
	reactant string
	product  string

	// Conversion is the fractional conversion of the reactant, in [0, 1].
	Conversion float64
	// Yield is the moles of product formed per mole reactant converted.
	Yield float64
	// TempRise is a fixed outlet temperature rise in K (0 = isothermal).
	TempRise float64

	// Tau is the residence time in hours used for sizing.
	Tau float64
	// MolarVolume converts molar to volumetric flow, m3/kmol.
	MolarVolume float64
	// WorkingFraction is the filled fraction of total vessel volume.
	WorkingFraction float64
	// BaseCost (USD) of a BaseVolume (m3) vessel at BaseCEPCI.
	BaseCost   float64
	BaseVolume float64
	// CEPCI escalates the purchase cost to the campaign's cost year.
	CEPCI float64

	DesignResults map[string]float64
	PurchaseCost  float64
}

// NewReactor wires a conversion reactor. Sizing and cost fields start at
// library defaults and stay exported for uncertainty parameters.
func NewReactor(name string, in, out sim.StreamID, reactant, product string, conversion, yield float64) *Reactor {
	return &Reactor{
		name:            name,
		in:              in,
		out:             out,
		reactant:        reactant,
		product:         product,
		Conversion:      conversion,
		Yield:           yield,
		Tau:             8,
		MolarVolume:     0.018,
		WorkingFraction: 0.9,
		BaseCost:        52000,
		BaseVolume:      8,
		CEPCI:           DefaultCEPCI,
	}
}

func (r *Reactor) Name() string            { return r.name }
func (r *Reactor) Inlets() []sim.StreamID  { return []sim.StreamID{r.in} }
func (r *Reactor) Outlets() []sim.StreamID { return []sim.StreamID{r.out} }

func (r *Reactor) Run(fs *sim.Flowsheet) error {
	if r.Conversion < 0 || r.Conversion > 1 {
		return sim.Infeasiblef(r.name, "conversion %g outside [0, 1]", r.Conversion)
	}
	if r.Yield < 0 {
		return sim.Infeasiblef(r.name, "yield %g is negative", r.Yield)
	}
	ia, ok := fs.ComponentIndex(r.reactant)
	if !ok {
		return fmt.Errorf("unit %s: reactant %q not in component slate", r.name, r.reactant)
	}
	ib, ok := fs.ComponentIndex(r.product)
	if !ok {
		return fmt.Errorf("unit %s: product %q not in component slate", r.name, r.product)
	}

	in := fs.Stream(r.in)
	out := fs.Stream(r.out)
	copy(out.Flows, in.Flows)
	converted := r.Conversion * in.Flows[ia]
	out.Flows[ia] -= converted
	out.Flows[ib] += r.Yield * converted
	for i, f := range out.Flows {
		if f < 0 {
			return sim.Infeasiblef(r.name, "negative flow %g kmol/h of %s", f, fs.Components()[i])
		}
	}
	out.T = in.T + r.TempRise
	out.P = in.P
	out.Phase = in.Phase
	return nil
}

// Design sizes the vessel from the current outlet flow and refreshes the
// purchase cost. Streams are not touched.
func (r *Reactor) Design(fs *sim.Flowsheet) error {
	if r.Tau <= 0 {
		return fmt.Errorf("unit %s: residence time must be positive, got %g", r.name, r.Tau)
	}
	if r.WorkingFraction <= 0 || r.WorkingFraction > 1 {
		return fmt.Errorf("unit %s: working fraction %g outside (0, 1]", r.name, r.WorkingFraction)
	}
	out := fs.Stream(r.out)
	volume := out.Total() * r.MolarVolume * r.Tau / r.WorkingFraction
	r.DesignResults = map[string]float64{
		"Reactor volume": volume,
		"Residence time": r.Tau,
	}
	r.PurchaseCost = scaleCost(r.BaseCost, r.BaseVolume, volume, BaseCEPCI, r.CEPCI)
	return nil
}
