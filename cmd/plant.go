package cmd

import (
	"fmt"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/units"
)

// plant is the constructed demo flowsheet with handles to the pieces the
// CLI reports on and perturbs: fresh glucose feed and recycle into a
// mixer, a conversion reactor, a splitter returning part of the effluent,
// and a heater on the product line.
type plant struct {
	fs      *sim.Flowsheet
	feed    sim.StreamID
	mixed   sim.StreamID
	efflu   sim.StreamID
	product sim.StreamID
	hot     sim.StreamID
	recycle sim.StreamID

	mix   *units.Mixer
	rxn   *units.Reactor
	split *units.Splitter
	heat  *units.Heater

	sys *sim.System
}

// buildPlant assembles the demo loop from scenario numbers. The topology
// is fixed; only unit settings and the feed come from the scenario.
func buildPlant(sc *Scenario) (*plant, error) {
	fs := sim.NewFlowsheet("glucose", "ethanol")
	p := &plant{fs: fs}

	streams := []struct {
		id   *sim.StreamID
		name string
	}{
		{&p.feed, "feed"},
		{&p.mixed, "mixed"},
		{&p.efflu, "effluent"},
		{&p.product, "product"},
		{&p.hot, "hot product"},
		{&p.recycle, "recycle"},
	}
	for _, s := range streams {
		id, err := fs.NewStream(s.name)
		if err != nil {
			return nil, fmt.Errorf("building flowsheet: %w", err)
		}
		*s.id = id
	}

	if err := fs.SetFlow(p.feed, "glucose", sc.Feed.Glucose); err != nil {
		return nil, fmt.Errorf("building flowsheet: %w", err)
	}
	fs.Stream(p.feed).T = sc.Feed.Temperature
	fs.Stream(p.hot).Price = sc.ProductPrice

	p.mix = units.NewMixer("MIX", []sim.StreamID{p.feed, p.recycle}, p.mixed)
	p.rxn = units.NewReactor("RXN", p.mixed, p.efflu, "glucose", "ethanol",
		sc.Reactor.Conversion, sc.Reactor.Yield)
	if sc.Reactor.Tau > 0 {
		p.rxn.Tau = sc.Reactor.Tau
	}
	p.rxn.TempRise = sc.Reactor.TempRise
	p.split = units.NewSplitter("SPLIT", p.efflu, p.product, p.recycle,
		1-sc.Splitter.RecycleFraction)
	p.heat = units.NewHeater("HEAT", p.product, p.hot, sc.Heater.Target)

	net := sim.NewNetwork(sc.Name)
	net.Add(p.mix, p.rxn, p.split, p.heat)
	net.SetRecycle(p.recycle)

	sys, err := sim.New(fs, net, sc.Converge.Options())
	if err != nil {
		return nil, fmt.Errorf("building flowsheet: %w", err)
	}
	p.sys = sys
	return p, nil
}
