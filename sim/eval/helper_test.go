package eval

import (
	"testing"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/units"
)

// plant is the canonical recycle loop the model tests evaluate against:
// feed and recycle into a mixer, a conversion reactor, and a splitter
// returning 30% of its inlet to the mixer.
type plant struct {
	fs      *sim.Flowsheet
	feed    sim.StreamID
	product sim.StreamID
	recycle sim.StreamID
	mix     *units.Mixer
	rxn     *units.Reactor
	split   *units.Splitter
	sys     *sim.System
}

func newPlant(t *testing.T) *plant {
	t.Helper()
	fs := sim.NewFlowsheet("glucose", "ethanol")
	feed, _ := fs.NewStream("feed")
	mixed, _ := fs.NewStream("mixed")
	effluent, _ := fs.NewStream("effluent")
	product, _ := fs.NewStream("product")
	recycle, _ := fs.NewStream("recycle")
	if err := fs.SetFlow(feed, "glucose", 100); err != nil {
		t.Fatalf("SetFlow: %v", err)
	}

	p := &plant{fs: fs, feed: feed, product: product, recycle: recycle}
	p.mix = units.NewMixer("MIX", []sim.StreamID{feed, recycle}, mixed)
	p.rxn = units.NewReactor("RXN", mixed, effluent, "glucose", "ethanol", 0.6, 1)
	p.split = units.NewSplitter("SPLIT", effluent, product, recycle, 0.7)

	net := sim.NewNetwork("plant")
	net.Add(p.mix, p.rxn, p.split)
	net.SetRecycle(recycle)
	sys, err := sim.New(fs, net, sim.ConvergeOptions{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.sys = sys
	return p
}

// conversionParam is the standard coupled parameter on the reactor.
func (p *plant) conversionParam(t *testing.T) ParameterConfig {
	t.Helper()
	dist, err := Uniform(0.2, 0.9)
	if err != nil {
		t.Fatalf("Uniform: %v", err)
	}
	return ParameterConfig{
		Name:     "conversion",
		Units:    "frac",
		Kind:     Coupled,
		Unit:     p.rxn,
		Setter:   func(v float64) error { p.rxn.Conversion = v; return nil },
		Baseline: 0.6,
		Dist:     dist,
	}
}

func mustUniform(t *testing.T, lo, hi float64) Distribution {
	t.Helper()
	d, err := Uniform(lo, hi)
	if err != nil {
		t.Fatalf("Uniform(%g, %g): %v", lo, hi, err)
	}
	return d
}

// productFlow reads the product stream's total molar flow.
func (p *plant) productFlow() (float64, error) {
	return p.fs.Stream(p.product).Total(), nil
}
