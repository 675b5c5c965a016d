package sim

import "fmt"

// InfeasibleStateError reports a unit balance that produced a physically
// invalid result for its current inputs. It is not retried within a
// convergence attempt: the convergence loop surfaces it as a failure of
// the whole Simulate call.
type InfeasibleStateError struct {
	Unit   string
	Detail string
}

func (e *InfeasibleStateError) Error() string {
	return fmt.Sprintf("unit %s: infeasible state: %s", e.Unit, e.Detail)
}

// Infeasiblef builds an *InfeasibleStateError with a formatted detail.
func Infeasiblef(unit, format string, args ...any) *InfeasibleStateError {
	return &InfeasibleStateError{Unit: unit, Detail: fmt.Sprintf(format, args...)}
}

// ConvergenceError reports that a recycle loop hit its iteration ceiling
// before meeting tolerance. FlowError is the last relative flow error,
// TempError the last absolute temperature error in K.
type ConvergenceError struct {
	System     string
	Iterations int
	FlowError  float64
	TempError  float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("system %s: not converged after %d iterations (flow error %.3g, temperature error %.3g K)",
		e.System, e.Iterations, e.FlowError, e.TempError)
}
