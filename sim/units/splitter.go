package units

import (
	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Splitter divides one inlet between two outlets with a single split
// fraction applied uniformly to every component. Both outlets copy the
// inlet's intensive state. The split is an exported field so uncertainty
// parameters can adjust it between simulations.
type Splitter struct {
	name            string
	in, top, bottom sim.StreamID

	// Split is the fraction of every component sent to the top outlet;
	// the remainder leaves through the bottom. Must lie in [0, 1].
	Split float64
}

// NewSplitter wires a splitter sending fraction split to top and the rest
// to bottom.
func NewSplitter(name string, in, top, bottom sim.StreamID, split float64) *Splitter {
	return &Splitter{name: name, in: in, top: top, bottom: bottom, Split: split}
}

func (s *Splitter) Name() string            { return s.name }
func (s *Splitter) Inlets() []sim.StreamID  { return []sim.StreamID{s.in} }
func (s *Splitter) Outlets() []sim.StreamID { return []sim.StreamID{s.top, s.bottom} }

func (s *Splitter) Run(fs *sim.Flowsheet) error {
	if s.Split < 0 || s.Split > 1 {
		return sim.Infeasiblef(s.name, "split fraction %g outside [0, 1]", s.Split)
	}
	in := fs.Stream(s.in)
	top := fs.Stream(s.top)
	bot := fs.Stream(s.bottom)
	for i, f := range in.Flows {
		top.Flows[i] = s.Split * f
		bot.Flows[i] = f - top.Flows[i]
	}
	top.T, bot.T = in.T, in.T
	top.P, bot.P = in.P, in.P
	top.Phase, bot.Phase = in.Phase, in.Phase
	return nil
}
