package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	scenarioPath string // YAML scenario file; built-in demo scenario when empty
	logLevel     string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "flowsheet-sim",
	Short: "Steady-state flowsheet simulator with recycle convergence and Monte Carlo sensitivity analysis",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log flag before any subcommand work.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadScenario resolves the --scenario flag into a validated scenario.
func loadScenario() *Scenario {
	if scenarioPath == "" {
		return DefaultScenario()
	}
	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		logrus.Fatalf("Loading scenario: %v", err)
	}
	return sc
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file (built-in demo when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evaluateCmd)
}
