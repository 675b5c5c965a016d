// Package eval layers parametric uncertainty evaluation over a converged
// sim.System: uncertain inputs become Parameters bound to the smallest
// re-simulation that their change requires, metrics read the flowsheet
// after each update, and Monte Carlo campaigns run sample matrices
// through the model row by row.
//
// The campaign workflow is Sample (or bring your own matrix), then
// LoadSamples, then EvaluateAll. LoadSamples reorders rows so consecutive
// evaluations change coupled parameters as little as possible, which lets
// every recycle solve warm-start close to its previous fixed point.
package eval
