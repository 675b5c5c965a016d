package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/flowsheet-sim/flowsheet-sim/sim/eval"
	"github.com/flowsheet-sim/flowsheet-sim/sim/results"
)

var (
	evalSamples int    // Sample count override (0 = use scenario campaign setting)
	evalRule    string // Sampling rule override (empty = use scenario campaign setting)
	csvPath     string // CSV output path (empty = no CSV)
	storeDSN    string // SQLite result store DSN (empty = no store)
	campaignTag string // Run name recorded in the store (empty = scenario name)
)

// evaluateCmd runs the Monte Carlo campaign over the scenario's
// uncertain parameters
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a Monte Carlo parameter campaign and report metric sensitivities",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		sc := loadScenario()

		p, err := buildPlant(sc)
		if err != nil {
			logrus.Fatalf("Building flowsheet: %v", err)
		}
		m, err := buildModel(p, sc)
		if err != nil {
			logrus.Fatalf("Building model: %v", err)
		}

		n := sc.Campaign.Samples
		if evalSamples > 0 {
			n = evalSamples
		}
		rule := sc.Campaign.Rule
		if evalRule != "" {
			rule = evalRule
		}
		if rule == "" {
			rule = "latin"
		}

		x, err := m.Sample(n, rule)
		if err != nil {
			logrus.Fatalf("Sampling: %v", err)
		}
		if err := m.LoadSamples(x); err != nil {
			logrus.Fatalf("Loading samples: %v", err)
		}

		startTime := time.Now()
		failures, err := m.EvaluateAll()
		if err != nil {
			logrus.Fatalf("Evaluating: %v", err)
		}
		printCampaignReport(m, rule, failures, time.Since(startTime))

		if csvPath != "" {
			if err := writeTableCSV(csvPath, m.Table()); err != nil {
				logrus.Fatalf("Writing CSV: %v", err)
			}
			fmt.Printf("Result table written to %s\n", csvPath)
		}
		if storeDSN != "" {
			name := campaignTag
			if name == "" {
				name = sc.Name
			}
			runID, err := saveRun(storeDSN, name, m.Table())
			if err != nil {
				logrus.Fatalf("Saving campaign: %v", err)
			}
			fmt.Printf("Campaign saved as run %s\n", runID)
		}
	},
}

// paramDecl describes one uncertain input: where the value lands in the
// flowsheet and the triangle it is drawn from.
type paramDecl struct {
	name, units string
	kind        eval.Kind
	unit        sim.Unit
	stream      sim.StreamID
	base        float64
	limit       float64 // upper clamp for fractional quantities; 0 = none
	set         func(float64) error
}

// buildModel registers the campaign's uncertain parameters and response
// metrics on top of a constructed plant. Every distribution is a triangle
// peaking at the scenario baseline with the campaign's relative spread.
func buildModel(p *plant, sc *Scenario) (*eval.Model, error) {
	m := eval.NewModel(p.sys, sc.Campaign.Seed)
	spread := sc.Campaign.Spread

	decls := []paramDecl{
		{
			name: "feed rate", units: "kmol/h", kind: eval.Coupled,
			stream: p.feed, base: sc.Feed.Glucose,
			set: func(v float64) error { return p.fs.SetFlow(p.feed, "glucose", v) },
		},
		{
			name: "conversion", units: "frac", kind: eval.Coupled,
			unit: p.rxn, base: sc.Reactor.Conversion, limit: 1,
			set: func(v float64) error { p.rxn.Conversion = v; return nil },
		},
		{
			name: "recycle fraction", units: "frac", kind: eval.Coupled,
			unit: p.split, base: sc.Splitter.RecycleFraction, limit: 0.99,
			set: func(v float64) error { p.split.Split = 1 - v; return nil },
		},
		{
			name: "residence time", units: "hr", kind: eval.Design,
			unit: p.rxn, base: p.rxn.Tau,
			set: func(v float64) error { p.rxn.Tau = v; return nil },
		},
		{
			name: "heat coefficient", units: "kW/m2/K", kind: eval.Design,
			unit: p.heat, base: p.heat.U,
			set: func(v float64) error { p.heat.U = v; return nil },
		},
		{
			name: "cost index", units: "", kind: eval.Cost,
			unit: p.rxn, base: p.rxn.CEPCI,
			set: func(v float64) error { p.rxn.CEPCI = v; return nil },
		},
	}
	// A zero price carries no uncertainty, so the price parameter is only
	// registered when the scenario prices the product.
	if sc.ProductPrice > 0 {
		decls = append(decls, paramDecl{
			name: "product price", units: "USD/kmol", kind: eval.Isolated,
			base: sc.ProductPrice,
			set:  func(v float64) error { p.fs.Stream(p.hot).Price = v; return nil },
		})
	}

	for _, d := range decls {
		dist, err := around(d.base, spread, d.limit)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", d.name, err)
		}
		stream := sim.NoStream
		if d.unit == nil && d.kind == eval.Coupled {
			stream = d.stream
		}
		if _, err := m.AddParameter(eval.ParameterConfig{
			Name:     d.name,
			Units:    d.units,
			Kind:     d.kind,
			Unit:     d.unit,
			Stream:   stream,
			Setter:   d.set,
			Baseline: d.base,
			Dist:     dist,
		}); err != nil {
			return nil, err
		}
	}

	metrics := []struct {
		name, units string
		fn          func() (float64, error)
	}{
		{"product flow", "kmol/h", func() (float64, error) { return p.fs.Stream(p.hot).Total(), nil }},
		{"recycle flow", "kmol/h", func() (float64, error) { return p.fs.Stream(p.recycle).Total(), nil }},
		{"heater duty", "kW", func() (float64, error) { return p.heat.Duty, nil }},
		{"capital cost", "USD", func() (float64, error) { return p.rxn.PurchaseCost + p.heat.PurchaseCost, nil }},
		{"revenue", "USD/h", func() (float64, error) {
			s := p.fs.Stream(p.hot)
			return s.Price * s.Total(), nil
		}},
	}
	for _, mt := range metrics {
		if err := m.AddMetric(mt.name, mt.units, mt.fn); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// around builds the campaign's standard uncertainty shape: a triangle
// peaking at base with relative half-width spread, optionally clamped.
func around(base, spread, limit float64) (eval.Distribution, error) {
	lo, hi := base*(1-spread), base*(1+spread)
	if limit > 0 && hi > limit {
		hi = limit
	}
	return eval.Triangular(lo, base, hi)
}

// printCampaignReport displays the campaign outcome and a parameter-by-
// metric table of Spearman rank correlations.
func printCampaignReport(m *eval.Model, rule string, failures int, elapsed time.Duration) {
	table := m.Table()
	fmt.Println("=== Evaluation Campaign ===")
	fmt.Printf("Samples              : %d (%s)\n", len(table.Rows), rule)
	fmt.Printf("Failures             : %d\n", failures)
	fmt.Printf("Elapsed              : %s\n", elapsed.Round(time.Millisecond))

	rhos := make(map[string][]float64, len(table.MetricNames))
	for _, metric := range table.MetricNames {
		rho, err := m.Spearman(metric)
		if err != nil {
			logrus.Warnf("Skipping sensitivity summary: %v", err)
			return
		}
		rhos[metric] = rho
	}

	fmt.Println("=== Spearman Rank Correlations ===")
	fmt.Printf("%-22s", "parameter")
	for _, metric := range table.MetricNames {
		fmt.Printf(" %14s", metric)
	}
	fmt.Println()
	for i, param := range m.Parameters() {
		fmt.Printf("%-22s", param.Name)
		for _, metric := range table.MetricNames {
			fmt.Printf(" %14.3f", rhos[metric][i])
		}
		fmt.Println()
	}
}

// writeTableCSV writes the result table to a file.
func writeTableCSV(path string, t *eval.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := results.WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// saveRun persists the result table to a SQLite store and returns the
// generated run ID.
func saveRun(dsn, name string, t *eval.Table) (string, error) {
	store, err := results.NewStore(dsn)
	if err != nil {
		return "", err
	}
	defer store.Close() //nolint:errcheck // read path is done before close

	return store.SaveTable(context.Background(), name, t)
}

// init sets up evaluate flags
func init() {
	evaluateCmd.Flags().IntVar(&evalSamples, "samples", 0, "Sample count (0 = scenario campaign setting)")
	evaluateCmd.Flags().StringVar(&evalRule, "rule", "", "Sampling rule: random, latin, halton (empty = scenario campaign setting)")
	evaluateCmd.Flags().StringVar(&csvPath, "csv", "", "Write the result table to this CSV file")
	evaluateCmd.Flags().StringVar(&storeDSN, "store", "", "Save the campaign to this SQLite DSN")
	evaluateCmd.Flags().StringVar(&campaignTag, "name", "", "Run name recorded in the store (default: scenario name)")
}
