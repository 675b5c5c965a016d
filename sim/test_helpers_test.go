package sim

import "testing"

// Minimal unit operations for engine tests: linear balances with run
// counters, enough to drive acyclic passes, recycle loops, and block
// derivation without pulling in the real unit library.

// source writes constant flows and temperature to its outlet.
type source struct {
	name  string
	out   StreamID
	flows []float64
	temp  float64
	runs  int
}

func (s *source) Name() string        { return s.name }
func (s *source) Inlets() []StreamID  { return nil }
func (s *source) Outlets() []StreamID { return []StreamID{s.out} }

func (s *source) Run(fs *Flowsheet) error {
	s.runs++
	out := fs.Stream(s.out)
	copy(out.Flows, s.flows)
	out.T = s.temp
	return nil
}

// blend sums inlet flows; outlet temperature is flow-weighted.
type blend struct {
	name string
	ins  []StreamID
	out  StreamID
	runs int
}

func (b *blend) Name() string        { return b.name }
func (b *blend) Inlets() []StreamID  { return b.ins }
func (b *blend) Outlets() []StreamID { return []StreamID{b.out} }

func (b *blend) Run(fs *Flowsheet) error {
	b.runs++
	out := fs.Stream(b.out)
	for i := range out.Flows {
		out.Flows[i] = 0
	}
	var heat, total float64
	for _, id := range b.ins {
		in := fs.Stream(id)
		for i, f := range in.Flows {
			out.Flows[i] += f
		}
		heat += in.Total() * in.T
		total += in.Total()
	}
	if total > 0 {
		out.T = heat / total
	}
	return nil
}

// scale multiplies every component flow by a factor, temperature passthrough.
type scale struct {
	name    string
	in, out StreamID
	factor  float64
	runs    int
}

func (s *scale) Name() string        { return s.name }
func (s *scale) Inlets() []StreamID  { return []StreamID{s.in} }
func (s *scale) Outlets() []StreamID { return []StreamID{s.out} }

func (s *scale) Run(fs *Flowsheet) error {
	s.runs++
	in := fs.Stream(s.in)
	out := fs.Stream(s.out)
	for i, f := range in.Flows {
		out.Flows[i] = s.factor * f
	}
	out.T = in.T
	return nil
}

// divert routes fraction frac of every inlet flow to reject, the rest to keep.
type divert struct {
	name             string
	in, keep, reject StreamID
	frac             float64
	runs             int
}

func (d *divert) Name() string        { return d.name }
func (d *divert) Inlets() []StreamID  { return []StreamID{d.in} }
func (d *divert) Outlets() []StreamID { return []StreamID{d.keep, d.reject} }

func (d *divert) Run(fs *Flowsheet) error {
	d.runs++
	in := fs.Stream(d.in)
	keep := fs.Stream(d.keep)
	rej := fs.Stream(d.reject)
	for i, f := range in.Flows {
		rej.Flows[i] = d.frac * f
		keep.Flows[i] = f - rej.Flows[i]
	}
	keep.T, rej.T = in.T, in.T
	return nil
}

// setTemp pins the outlet temperature, flow passthrough.
type setTemp struct {
	name    string
	in, out StreamID
	temp    float64
	runs    int
}

func (h *setTemp) Name() string        { return h.name }
func (h *setTemp) Inlets() []StreamID  { return []StreamID{h.in} }
func (h *setTemp) Outlets() []StreamID { return []StreamID{h.out} }

func (h *setTemp) Run(fs *Flowsheet) error {
	h.runs++
	in := fs.Stream(h.in)
	out := fs.Stream(h.out)
	copy(out.Flows, in.Flows)
	out.T = h.temp
	return nil
}

// failing returns an infeasible-state error on every run.
type failing struct {
	name    string
	in, out StreamID
}

func (f *failing) Name() string        { return f.name }
func (f *failing) Inlets() []StreamID  { return []StreamID{f.in} }
func (f *failing) Outlets() []StreamID { return []StreamID{f.out} }

func (f *failing) Run(fs *Flowsheet) error {
	return Infeasiblef(f.name, "forced failure for testing")
}

// loopFixture is the canonical recycle scenario: a feed source into a
// mixer that also takes the recycle, a conversion step, and a splitter
// that diverts part of its outlet back to the mixer.
//
//	FEED -> mix -> rxn -> split -> PRODUCT
//	         ^______________|  (recycle)
type loopFixture struct {
	fs                                    *Flowsheet
	feed, mixed, effluent, product, recyc StreamID
	src                                   *source
	mix                                   *blend
	rxn                                   *scale
	split                                 *divert
	net                                   *Network
}

// newLoopFixture builds the scenario with the given feed rate, reactant
// conversion, and recycle split fraction. The analytic recycle flow is
//
//	r = s(1-c)F / (1 - s(1-c))
func newLoopFixture(t *testing.T, feed, conversion, splitFrac float64) *loopFixture {
	t.Helper()
	fs := NewFlowsheet("A")
	ids := make([]StreamID, 5)
	for i, name := range []string{"feed", "mixed", "effluent", "product", "recycle"} {
		id, err := fs.NewStream(name)
		if err != nil {
			t.Fatalf("NewStream(%s): %v", name, err)
		}
		ids[i] = id
	}
	f := &loopFixture{
		fs:       fs,
		feed:     ids[0],
		mixed:    ids[1],
		effluent: ids[2],
		product:  ids[3],
		recyc:    ids[4],
	}
	f.src = &source{name: "FEED", out: f.feed, flows: []float64{feed}, temp: 298.15}
	f.mix = &blend{name: "MIX", ins: []StreamID{f.feed, f.recyc}, out: f.mixed}
	f.rxn = &scale{name: "RXN", in: f.mixed, out: f.effluent, factor: 1 - conversion}
	f.split = &divert{name: "SPLIT", in: f.effluent, keep: f.product, reject: f.recyc, frac: splitFrac}

	f.net = NewNetwork("plant")
	f.net.Add(f.src, f.mix, f.rxn, f.split)
	f.net.SetRecycle(f.recyc)
	return f
}

// analyticRecycle is the fixed-point recycle flow of a loopFixture.
func analyticRecycle(feed, conversion, splitFrac float64) float64 {
	q := splitFrac * (1 - conversion)
	return q * feed / (1 - q)
}
