package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// step is one executable entry of a System's path: a leaf unit or a child
// System that converges completely before the pass continues.
type step struct {
	unit Unit
	sub  *System
}

// System drives a Network to a self-consistent steady state. An acyclic
// network is executed in a single pass; a network with a designated
// recycle stream is solved by fixed-point iteration on that stream's
// state, warm-starting from whatever value the stream currently holds.
// Nested sub-networks are wrapped into child Systems and converge
// inner-most first.
type System struct {
	Name string

	fs      *Flowsheet
	net     *Network
	path    []step
	units   []Unit         // every unit in scope, flattened in execution order
	pos     map[string]int // unit name -> flattened position
	recycle StreamID

	producer map[StreamID]Unit
	consumer map[StreamID]Unit

	opts  ConvergeOptions
	accel Accelerator

	// Iterations is the pass count of the last solve; TotalIterations
	// accumulates across solves and is the warm-start cost signal the
	// evaluation layer minimizes.
	Iterations      int
	TotalIterations int

	converged bool
	blocks    map[string]*Block
}

// New validates a network against its flowsheet and wraps it into a
// System. Validation checks stream ownership (at most one producer and one
// consumer per stream), that every cycle is broken by a designated recycle
// stream, and that the declared order runs every producer before its
// consumers once recycle edges are cut.
func New(fs *Flowsheet, net *Network, opts ConvergeOptions) (*System, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("system %s: %w", net.Name, err)
	}
	opts = opts.withDefaults()
	accel, err := NewAccelerator(opts.Method)
	if err != nil {
		return nil, fmt.Errorf("system %s: %w", net.Name, err)
	}

	s := &System{
		Name:    net.Name,
		fs:      fs,
		net:     net,
		recycle: net.Recycle,
		opts:    opts,
		accel:   accel,
		blocks:  make(map[string]*Block),
	}

	for _, it := range net.Items {
		switch {
		case it.Unit != nil:
			s.path = append(s.path, step{unit: it.Unit})
		case it.Sub != nil:
			child, err := New(fs, it.Sub, opts)
			if err != nil {
				return nil, err
			}
			s.path = append(s.path, step{sub: child})
		default:
			return nil, fmt.Errorf("system %s: empty network item", net.Name)
		}
	}

	if err := s.index(); err != nil {
		return nil, err
	}
	if err := s.validateOrder(); err != nil {
		return nil, err
	}
	return s, nil
}

// index flattens the unit list, assigns topological positions, and builds
// the stream producer/consumer maps.
func (s *System) index() error {
	s.units = s.net.Units()
	if len(s.units) == 0 {
		return fmt.Errorf("system %s: network has no units", s.Name)
	}
	s.pos = make(map[string]int, len(s.units))
	s.producer = make(map[StreamID]Unit)
	s.consumer = make(map[StreamID]Unit)

	for i, u := range s.units {
		name := u.Name()
		if _, dup := s.pos[name]; dup {
			return fmt.Errorf("system %s: duplicate unit name %q", s.Name, name)
		}
		s.pos[name] = i
	}
	for _, u := range s.units {
		for _, id := range u.Outlets() {
			if err := s.checkStream(u, id); err != nil {
				return err
			}
			if prev, taken := s.producer[id]; taken {
				return fmt.Errorf("system %s: stream %q produced by both %s and %s",
					s.Name, s.fs.Stream(id).Name, prev.Name(), u.Name())
			}
			s.producer[id] = u
		}
		for _, id := range u.Inlets() {
			if err := s.checkStream(u, id); err != nil {
				return err
			}
			if prev, taken := s.consumer[id]; taken {
				return fmt.Errorf("system %s: stream %q consumed by both %s and %s; fan-out requires a splitter",
					s.Name, s.fs.Stream(id).Name, prev.Name(), u.Name())
			}
			s.consumer[id] = u
		}
	}

	if s.recycle != NoStream {
		if _, ok := s.producer[s.recycle]; !ok {
			return fmt.Errorf("system %s: recycle stream %q is not produced within the network",
				s.Name, s.fs.Stream(s.recycle).Name)
		}
		if _, ok := s.consumer[s.recycle]; !ok {
			return fmt.Errorf("system %s: recycle stream %q is not consumed within the network",
				s.Name, s.fs.Stream(s.recycle).Name)
		}
	}
	return nil
}

func (s *System) checkStream(u Unit, id StreamID) error {
	if id < 0 || int(id) >= len(s.fs.streams) {
		return fmt.Errorf("system %s: unit %s references unknown stream id %d", s.Name, u.Name(), id)
	}
	return nil
}

// validateOrder confirms that cutting the designated recycle streams
// leaves an acyclic graph and that the declared sequence is a topological
// order of it.
func (s *System) validateOrder() error {
	cut := make(map[StreamID]bool)
	for _, id := range s.net.Recycles() {
		cut[id] = true
	}

	// Kahn's algorithm over the cut graph: leftovers mean a cycle no
	// recycle designation breaks.
	inDegree := make(map[string]int, len(s.units))
	succ := make(map[string][]string, len(s.units))
	for _, u := range s.units {
		inDegree[u.Name()] = 0
	}
	for id, p := range s.producer {
		if cut[id] {
			continue
		}
		c, ok := s.consumer[id]
		if !ok || c == p {
			if ok && c == p {
				return fmt.Errorf("system %s: unit %s feeds itself via stream %q without a recycle designation",
					s.Name, p.Name(), s.fs.Stream(id).Name)
			}
			continue
		}
		succ[p.Name()] = append(succ[p.Name()], c.Name())
		inDegree[c.Name()]++
	}
	queue := make([]string, 0, len(s.units))
	for _, u := range s.units { // declared order keeps this deterministic
		if inDegree[u.Name()] == 0 {
			queue = append(queue, u.Name())
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range succ[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited < len(s.units) {
		var stuck []string
		for _, u := range s.units {
			if inDegree[u.Name()] > 0 {
				stuck = append(stuck, u.Name())
			}
		}
		return fmt.Errorf("system %s: cycle through %v is not broken by any recycle designation", s.Name, stuck)
	}

	// The declared sequence itself must respect every uncut edge.
	for id, p := range s.producer {
		if cut[id] {
			continue
		}
		c, ok := s.consumer[id]
		if !ok || c == p {
			continue
		}
		if s.pos[p.Name()] >= s.pos[c.Name()] {
			return fmt.Errorf("system %s: %s consumes stream %q before %s produces it; declared order is not a valid execution order",
				s.Name, c.Name(), s.fs.Stream(id).Name, p.Name())
		}
	}
	return nil
}

// Flowsheet returns the flowsheet this system runs on.
func (s *System) Flowsheet() *Flowsheet { return s.fs }

// Units returns every unit in scope in execution order, nested networks
// flattened.
func (s *System) Units() []Unit { return s.units }

// Position returns a unit's topological position within the system.
func (s *System) Position(name string) (int, bool) {
	p, ok := s.pos[name]
	return p, ok
}

// Recycle returns the designated top-level recycle stream, or NoStream.
func (s *System) Recycle() StreamID { return s.recycle }

// Producer returns the unit whose outlet produces the stream, if any.
func (s *System) Producer(id StreamID) (Unit, bool) {
	u, ok := s.producer[id]
	return u, ok
}

// Consumer returns the unit whose inlet consumes the stream, if any.
func (s *System) Consumer(id StreamID) (Unit, bool) {
	u, ok := s.consumer[id]
	return u, ok
}

// Converged reports whether the last solve met tolerance.
func (s *System) Converged() bool { return s.converged }

// Simulate converges the network, then refreshes design and cost state on
// every unit that maintains it. Re-simulating a converged system is cheap:
// iteration warm-starts from the stored recycle value.
func (s *System) Simulate() error {
	if err := s.solve(); err != nil {
		return err
	}
	return s.designAll()
}

// solve resolves the recycle fixed point without touching design state.
func (s *System) solve() error {
	s.Iterations = 0
	s.converged = false

	if s.recycle == NoStream {
		if err := s.runOnce(); err != nil {
			return err
		}
		s.converged = true
		return nil
	}

	s.accel.Reset()
	rec := s.fs.Stream(s.recycle)
	x := rec.recycleState()
	var lastRel, lastTemp float64
	for it := 1; it <= s.opts.MaxIterations; it++ {
		s.Iterations = it
		s.TotalIterations++
		rec.setRecycleState(x)
		if err := s.runOnce(); err != nil {
			return err
		}
		gx := rec.recycleState()
		flowAbs, flowRel, tempAbs := stateError(x, gx)
		lastRel, lastTemp = flowRel, tempAbs
		logrus.Debugf("[%s] iteration %d: flow error %.3g (abs %.3g kmol/h), temperature error %.3g K",
			s.Name, it, flowRel, flowAbs, tempAbs)
		if (flowRel <= s.opts.RelFlowTol || flowAbs <= s.opts.AbsFlowTol) && tempAbs <= s.opts.TempTol {
			s.converged = true
			logrus.Debugf("[%s] converged in %d iterations", s.Name, it)
			return nil
		}
		x = s.accel.Next(x, gx)
	}
	return &ConvergenceError{
		System:     s.Name,
		Iterations: s.opts.MaxIterations,
		FlowError:  lastRel,
		TempError:  lastTemp,
	}
}

// runOnce executes every path element once in declared order. Child
// systems converge their own recycle completely; each child solve is one
// atomic step of this pass.
func (s *System) runOnce() error {
	for _, st := range s.path {
		if st.unit != nil {
			if err := st.unit.Run(s.fs); err != nil {
				return err
			}
		} else if err := st.sub.solve(); err != nil {
			return err
		}
	}
	return nil
}

// designAll refreshes sizing/cost state over the whole flattened unit
// list, nested systems included.
func (s *System) designAll() error {
	for _, u := range s.units {
		if d, ok := u.(Designer); ok {
			if err := d.Design(s.fs); err != nil {
				return err
			}
		}
	}
	return nil
}

// EmptyRecycles resets every recycle stream in scope to the cold state:
// zero flows at 298.15 K. The next solve then starts from the domain
// default instead of the previously converged value.
func (s *System) EmptyRecycles() {
	for _, id := range s.net.Recycles() {
		st := s.fs.Stream(id)
		for i := range st.Flows {
			st.Flows[i] = 0
		}
		st.T = 298.15
	}
}

// stateError measures the distance between successive recycle iterates:
// the worst of per-component and total absolute flow differences, the same
// relative to total flow, and the absolute temperature difference.
func stateError(x, gx []float64) (flowAbs, flowRel, tempAbs float64) {
	n := len(gx) - 1
	var totX, totG float64
	for i := 0; i < n; i++ {
		if d := math.Abs(gx[i] - x[i]); d > flowAbs {
			flowAbs = d
		}
		totX += x[i]
		totG += gx[i]
	}
	if d := math.Abs(totG - totX); d > flowAbs {
		flowAbs = d
	}
	den := math.Abs(totG)
	if den < 1e-12 {
		den = 1e-12
	}
	flowRel = flowAbs / den
	tempAbs = math.Abs(gx[n] - x[n])
	return flowAbs, flowRel, tempAbs
}
