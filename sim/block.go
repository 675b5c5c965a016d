package sim

import "fmt"

// Block is the minimal downstream closure of one unit, runnable as a
// system of its own. Simulating a block re-runs only the units whose
// state can change when that unit's behavior changes; everything upstream
// keeps its current stream values. Recycle loops are swallowed whole: if
// the closure reaches any unit of a loop, reachability over the recycle
// edge pulls in the rest, and the loop's designation is preserved so the
// block converges it.
type Block struct {
	Start string
	sys   *System
}

// Simulate converges the block's sub-system against the shared flowsheet.
func (b *Block) Simulate() error { return b.sys.Simulate() }

// System exposes the derived sub-system, mainly for inspection in tests.
func (b *Block) System() *System { return b.sys }

// Block derives (and caches) the downstream closure of start. The start
// unit must belong to this system.
func (s *System) Block(start Unit) (*Block, error) {
	if start == nil {
		return nil, fmt.Errorf("system %s: block of nil unit", s.Name)
	}
	name := start.Name()
	if _, ok := s.pos[name]; !ok {
		return nil, fmt.Errorf("system %s: unit %q is not part of the system", s.Name, name)
	}
	if b, ok := s.blocks[name]; ok {
		return b, nil
	}

	keep := s.downstream(start)
	net := s.subnetwork(s.net, keep)
	net.Name = fmt.Sprintf("%s[%s+]", s.Name, name)
	sub, err := New(s.fs, net, s.opts)
	if err != nil {
		return nil, fmt.Errorf("deriving block of %s: %w", name, err)
	}
	b := &Block{Start: name, sys: sub}
	s.blocks[name] = b
	return b, nil
}

// downstream computes forward reachability from start over every
// producer-to-consumer edge, recycle edges included.
func (s *System) downstream(start Unit) map[string]bool {
	succ := make(map[string][]string, len(s.units))
	for id, p := range s.producer {
		if c, ok := s.consumer[id]; ok && c != p {
			succ[p.Name()] = append(succ[p.Name()], c.Name())
		}
	}
	keep := map[string]bool{start.Name(): true}
	queue := []string{start.Name()}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, next := range succ[name] {
			if !keep[next] {
				keep[next] = true
				queue = append(queue, next)
			}
		}
	}
	return keep
}

// subnetwork projects a network onto a unit subset, preserving nesting.
// A recycle designation survives only when its producer is kept; a loop
// entered anywhere is fully reachable over its recycle edge, so a kept
// producer implies the whole loop is kept.
func (s *System) subnetwork(n *Network, keep map[string]bool) *Network {
	out := &Network{Name: n.Name, Recycle: NoStream}
	for _, it := range n.Items {
		switch {
		case it.Unit != nil:
			if keep[it.Unit.Name()] {
				out.Items = append(out.Items, Item{Unit: it.Unit})
			}
		case it.Sub != nil:
			sub := s.subnetwork(it.Sub, keep)
			if len(sub.Items) > 0 {
				out.Items = append(out.Items, Item{Sub: sub})
			}
		}
	}
	if n.Recycle != NoStream {
		if p, ok := s.producer[n.Recycle]; ok && keep[p.Name()] {
			out.Recycle = n.Recycle
		}
	}
	return out
}
