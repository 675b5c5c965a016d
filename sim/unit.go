package sim

// Unit is a computation node in a flowsheet: Run reads its inlet streams
// and writes its outlet streams in place. The engine treats units as
// opaque; it only requires that Run is deterministic given unchanged
// inlets, terminates without exposing internal iteration, and never
// mutates an inlet. A physically infeasible result (negative flow,
// impossible split) is reported as *InfeasibleStateError.
type Unit interface {
	Name() string
	Inlets() []StreamID
	Outlets() []StreamID
	Run(fs *Flowsheet) error
}

// Designer is implemented by units that maintain sizing and cost state.
// Design refreshes that state from the current stream values without
// touching any stream, so it is safe to call on a single unit after a
// design or cost attribute changes. System.Simulate calls it on every
// Designer unit after convergence.
type Designer interface {
	Design(fs *Flowsheet) error
}
