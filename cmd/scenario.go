package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
)

// Scenario is the top-level numeric configuration of the demo
// biorefinery loop. The flowsheet topology itself is fixed; the scenario
// sets feed, unit, convergence, and campaign settings.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Name         string       `yaml:"name"`
	Feed         FeedSpec     `yaml:"feed"`
	Reactor      ReactorSpec  `yaml:"reactor"`
	Splitter     SplitterSpec `yaml:"splitter"`
	Heater       HeaterSpec   `yaml:"heater"`
	ProductPrice float64      `yaml:"product_price"` // USD/kmol on the product line
	Converge     ConvergeSpec `yaml:"converge"`
	Campaign     CampaignSpec `yaml:"campaign"`
}

// FeedSpec sets the fresh feed entering the mixer.
type FeedSpec struct {
	Glucose     float64 `yaml:"glucose"`               // kmol/h
	Temperature float64 `yaml:"temperature,omitempty"` // K (default 298.15)
}

// ReactorSpec sets the conversion reactor.
type ReactorSpec struct {
	Conversion float64 `yaml:"conversion"`          // fraction of glucose converted
	Yield      float64 `yaml:"yield"`               // kmol ethanol per kmol glucose converted
	Tau        float64 `yaml:"tau,omitempty"`       // residence time, hr
	TempRise   float64 `yaml:"temp_rise,omitempty"` // adiabatic temperature rise, K
}

// SplitterSpec sets the recycle splitter.
type SplitterSpec struct {
	RecycleFraction float64 `yaml:"recycle_fraction"` // fraction of effluent returned to the mixer
}

// HeaterSpec sets the product heater.
type HeaterSpec struct {
	Target float64 `yaml:"target"` // outlet temperature, K
}

// ConvergeSpec mirrors the solver's convergence options; zero fields
// select the solver defaults.
type ConvergeSpec struct {
	Method        string  `yaml:"method,omitempty"`
	MaxIterations int     `yaml:"max_iterations,omitempty"`
	RelFlowTol    float64 `yaml:"rel_flow_tol,omitempty"`
	AbsFlowTol    float64 `yaml:"abs_flow_tol,omitempty"`
	TempTol       float64 `yaml:"temp_tol,omitempty"`
}

// Options converts the YAML section into solver options.
func (c ConvergeSpec) Options() sim.ConvergeOptions {
	return sim.ConvergeOptions{
		RelFlowTol:    c.RelFlowTol,
		AbsFlowTol:    c.AbsFlowTol,
		TempTol:       c.TempTol,
		MaxIterations: c.MaxIterations,
		Method:        c.Method,
	}
}

// CampaignSpec sets the Monte Carlo campaign run by evaluate.
type CampaignSpec struct {
	Seed    int64   `yaml:"seed"`
	Samples int     `yaml:"samples"`
	Rule    string  `yaml:"rule"`
	Spread  float64 `yaml:"spread,omitempty"` // relative half-width of the uncertainty triangles (default 0.15)
}

// Valid value registries.
var (
	validSampleRules = map[string]bool{
		"random": true, "latin": true, "halton": true,
	}
)

// DefaultScenario returns the built-in demo: 100 kmol/h glucose feed,
// 60% conversion, 30% of the reactor effluent recycled, product heated
// to 351 K.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name: "demo biorefinery",
		Feed: FeedSpec{
			Glucose:     100,
			Temperature: 298.15,
		},
		Reactor: ReactorSpec{
			Conversion: 0.6,
			Yield:      1,
			Tau:        8,
			TempRise:   4,
		},
		Splitter: SplitterSpec{
			RecycleFraction: 0.3,
		},
		Heater: HeaterSpec{
			Target: 351,
		},
		ProductPrice: 25,
		Campaign: CampaignSpec{
			Seed:    42,
			Samples: 200,
			Rule:    "latin",
			Spread:  0.15,
		},
	}
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.Feed.Temperature == 0 {
		sc.Feed.Temperature = 298.15
	}
	if sc.Campaign.Spread == 0 {
		sc.Campaign.Spread = 0.15
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that all fields in the scenario are usable.
func (s *Scenario) Validate() error {
	if s.Feed.Glucose <= 0 {
		return fmt.Errorf("feed glucose must be positive, got %g", s.Feed.Glucose)
	}
	if s.Feed.Temperature <= 0 {
		return fmt.Errorf("feed temperature must be positive, got %g", s.Feed.Temperature)
	}
	if s.Reactor.Conversion < 0 || s.Reactor.Conversion > 1 {
		return fmt.Errorf("reactor conversion must be in [0, 1], got %g", s.Reactor.Conversion)
	}
	if s.Reactor.Yield <= 0 {
		return fmt.Errorf("reactor yield must be positive, got %g", s.Reactor.Yield)
	}
	if s.Reactor.Tau < 0 {
		return fmt.Errorf("reactor tau must be non-negative, got %g", s.Reactor.Tau)
	}
	if s.Splitter.RecycleFraction < 0 || s.Splitter.RecycleFraction >= 1 {
		return fmt.Errorf("splitter recycle_fraction must be in [0, 1), got %g", s.Splitter.RecycleFraction)
	}
	if s.Heater.Target <= 0 {
		return fmt.Errorf("heater target must be positive, got %g", s.Heater.Target)
	}
	if s.ProductPrice < 0 {
		return fmt.Errorf("product_price must be non-negative, got %g", s.ProductPrice)
	}
	if err := s.Converge.Options().Validate(); err != nil {
		return fmt.Errorf("converge: %w", err)
	}
	if s.Campaign.Samples < 0 {
		return fmt.Errorf("campaign samples must be non-negative, got %d", s.Campaign.Samples)
	}
	if s.Campaign.Rule != "" && !validSampleRules[s.Campaign.Rule] {
		return fmt.Errorf("unknown campaign rule %q; valid: random, latin, halton", s.Campaign.Rule)
	}
	if s.Campaign.Spread < 0 || s.Campaign.Spread > 0.5 {
		return fmt.Errorf("campaign spread must be in [0, 0.5], got %g", s.Campaign.Spread)
	}
	return nil
}
