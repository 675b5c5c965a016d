package units

import (
	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Mixer combines any number of inlet streams into one outlet: flows sum
// component-wise, the outlet temperature is the flow-weighted mean, and
// the outlet pressure is the lowest inlet pressure. Empty inlets are
// tolerated; with no material the outlet keeps the first inlet's
// intensive state.
type Mixer struct {
	name string
	ins  []sim.StreamID
	out  sim.StreamID
}

// NewMixer wires a mixer over its inlet and outlet streams.
func NewMixer(name string, ins []sim.StreamID, out sim.StreamID) *Mixer {
	return &Mixer{name: name, ins: ins, out: out}
}

func (m *Mixer) Name() string            { return m.name }
func (m *Mixer) Inlets() []sim.StreamID  { return m.ins }
func (m *Mixer) Outlets() []sim.StreamID { return []sim.StreamID{m.out} }

func (m *Mixer) Run(fs *sim.Flowsheet) error {
	out := fs.Stream(m.out)
	for i := range out.Flows {
		out.Flows[i] = 0
	}
	var heat, total float64
	minP := 0.0
	for k, id := range m.ins {
		in := fs.Stream(id)
		for i, f := range in.Flows {
			out.Flows[i] += f
		}
		t := in.Total()
		heat += t * in.T
		total += t
		if k == 0 || in.P < minP {
			minP = in.P
		}
	}
	if total > 0 {
		out.T = heat / total
	} else if len(m.ins) > 0 {
		out.T = fs.Stream(m.ins[0]).T
	}
	if len(m.ins) > 0 {
		out.P = minP
		out.Phase = fs.Stream(m.ins[0]).Phase
	}
	return nil
}
