package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runCmd simulates the scenario once and prints a stream report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the flowsheet once and print stream and design reports",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		sc := loadScenario()

		p, err := buildPlant(sc)
		if err != nil {
			logrus.Fatalf("Building flowsheet: %v", err)
		}

		startTime := time.Now()
		if err := p.sys.Simulate(); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printReport(p, sc, time.Since(startTime))
	},
}

// printReport displays the converged flowsheet: solver summary, the
// stream table, and unit design results.
func printReport(p *plant, sc *Scenario, elapsed time.Duration) {
	fmt.Println("=== Flowsheet Simulation ===")
	fmt.Printf("Scenario             : %s\n", sc.Name)
	fmt.Printf("Converged            : %v\n", p.sys.Converged())
	fmt.Printf("Iterations           : %d\n", p.sys.Iterations)
	fmt.Printf("Elapsed              : %s\n", elapsed.Round(time.Microsecond))

	hot := p.fs.Stream(p.hot)
	fmt.Printf("Product Flow         : %.3f kmol/h\n", hot.Total())
	if hot.Price > 0 {
		fmt.Printf("Revenue              : %.2f USD/h\n", hot.Price*hot.Total())
	}

	fmt.Println("=== Streams ===")
	fmt.Printf("%-14s %9s %9s", "name", "T [K]", "P [Pa]")
	for _, c := range p.fs.Components() {
		fmt.Printf(" %10s", c)
	}
	fmt.Printf(" %10s\n", "total")
	for _, s := range p.fs.Streams() {
		fmt.Printf("%-14s %9.2f %9.0f", s.Name, s.T, s.P)
		for _, f := range s.Flows {
			fmt.Printf(" %10.3f", f)
		}
		fmt.Printf(" %10.3f\n", s.Total())
	}

	fmt.Println("=== Design ===")
	printDesign("RXN", p.rxn.DesignResults, p.rxn.PurchaseCost)
	printDesign("HEAT", p.heat.DesignResults, p.heat.PurchaseCost)
}

func printDesign(unit string, results map[string]float64, purchaseCost float64) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-6s %-16s : %.4g\n", unit, k, results[k])
	}
	fmt.Printf("%-6s %-16s : %.2f USD\n", unit, "Purchase cost", purchaseCost)
}
