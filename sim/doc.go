// Package sim provides the core steady-state flowsheet simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - stream.go: Flowsheet arena, stream identity, and material state
//   - network.go: Declared unit order, nesting, and recycle designation
//   - system.go: Validation, the pass loop, and recycle convergence
//
// # Architecture
//
// The sim package defines the engine and its interfaces; implementations
// live in sub-packages:
//   - sim/units/: Unit operation library (mixers, splitters, reactors, heaters)
//   - sim/eval/: Parametric models, sampling, and batch evaluation
//   - sim/results/: Evaluation result persistence (CSV, SQLite)
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Unit: one steady-state balance step over flowsheet streams
//   - Designer: post-convergence sizing and cost refresh
//   - Accelerator: next-iterate proposal for recycle convergence
//     (fixed-point substitution, bounded Wegstein, alternating Aitken)
package sim
