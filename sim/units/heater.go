package units

import (
	"fmt"
	"math"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Heater brings its inlet to a target outlet temperature. The duty comes
// from a constant molar heat capacity; sizing treats the exchanger as a
// fixed-coefficient surface against a utility at a constant approach
// temperature difference.
//
// Design fills DesignResults and PurchaseCost:
//   - "Area": heat transfer area (m2)
//   - "Duty": exchanged duty (kW), negative when cooling
type Heater struct {
	name    string
	in, out sim.StreamID

	// Target is the outlet temperature in K.
	Target float64
	// Cp is the molar heat capacity in kJ/kmol/K.
	Cp float64
	// U is the overall heat transfer coefficient in kW/m2/K.
	U float64
	// ApproachDT is the utility approach temperature difference in K.
	ApproachDT float64
	// BaseCost (USD) of a BaseArea (m2) exchanger at BaseCEPCI.
	BaseCost float64
	BaseArea float64
	// CEPCI escalates the purchase cost to the campaign's cost year.
	CEPCI float64

	// Duty is the last computed duty in kW, refreshed by Run.
	Duty float64

	DesignResults map[string]float64
	PurchaseCost  float64
}

// NewHeater wires a heater (or cooler, for targets below the inlet
// temperature) with library default transfer and cost settings.
func NewHeater(name string, in, out sim.StreamID, target float64) *Heater {
	return &Heater{
		name:       name,
		in:         in,
		out:        out,
		Target:     target,
		Cp:         75.3,
		U:          0.5,
		ApproachDT: 10,
		BaseCost:   9000,
		BaseArea:   20,
		CEPCI:      DefaultCEPCI,
	}
}

func (h *Heater) Name() string            { return h.name }
func (h *Heater) Inlets() []sim.StreamID  { return []sim.StreamID{h.in} }
func (h *Heater) Outlets() []sim.StreamID { return []sim.StreamID{h.out} }

func (h *Heater) Run(fs *sim.Flowsheet) error {
	if h.Target <= 0 {
		return sim.Infeasiblef(h.name, "target temperature %g K is not physical", h.Target)
	}
	in := fs.Stream(h.in)
	out := fs.Stream(h.out)
	copy(out.Flows, in.Flows)
	out.T = h.Target
	out.P = in.P
	out.Phase = in.Phase
	// kmol/h * kJ/kmol/K * K = kJ/h; 3600 kJ/h per kW.
	h.Duty = in.Total() * h.Cp * (h.Target - in.T) / 3600
	return nil
}

// Design sizes the exchanger surface from the last duty and refreshes the
// purchase cost. Streams are not touched.
func (h *Heater) Design(fs *sim.Flowsheet) error {
	if h.U <= 0 {
		return fmt.Errorf("unit %s: heat transfer coefficient must be positive, got %g", h.name, h.U)
	}
	if h.ApproachDT <= 0 {
		return fmt.Errorf("unit %s: approach temperature difference must be positive, got %g", h.name, h.ApproachDT)
	}
	area := math.Abs(h.Duty) / (h.U * h.ApproachDT)
	h.DesignResults = map[string]float64{
		"Area": area,
		"Duty": h.Duty,
	}
	h.PurchaseCost = scaleCost(h.BaseCost, h.BaseArea, area, BaseCEPCI, h.CEPCI)
	return nil
}
