// Package units provides the concrete unit operation library: mixers,
// splitters, conversion reactors, and heaters. Each unit implements
// sim.Unit; Reactor and Heater also implement sim.Designer and maintain
// sizing results and a purchase cost scaled by the six-tenths rule.
//
// The models are deliberately shallow. They carry the balances and cost
// scaling needed to drive recycle convergence and uncertainty campaigns,
// not rigorous thermodynamics.
package units
