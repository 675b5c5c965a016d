package sim

import "fmt"

// StreamID is a stable index into a Flowsheet's stream arena. Units and
// Networks refer to streams only through StreamIDs, never through direct
// pointers, so recycle relations stay plain (producer, consumer) index
// pairs that the convergence loop can snapshot without copying the graph.
type StreamID int

// NoStream marks the absence of a stream reference, e.g. the recycle slot
// of an acyclic Network.
const NoStream StreamID = -1

// Phase labels the bulk phase of a stream.
type Phase uint8

const (
	Liquid Phase = iota
	Gas
	Solid
)

func (p Phase) String() string {
	switch p {
	case Liquid:
		return "liquid"
	case Gas:
		return "gas"
	case Solid:
		return "solid"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Stream is one material flow record: per-component molar flows in kmol/h
// plus intensive state. A stream is produced by at most one unit outlet and
// consumed by at most one unit inlet; the producing unit mutates it in
// place during Run.
type Stream struct {
	ID    StreamID
	Name  string
	Flows []float64 // kmol/h, indexed by the flowsheet component slate
	T     float64   // K
	P     float64   // Pa
	Phase Phase
	Price float64 // USD/kmol, used only at metric-evaluation time
}

// Total returns the total molar flow in kmol/h.
func (s *Stream) Total() float64 {
	var total float64
	for _, f := range s.Flows {
		total += f
	}
	return total
}

// Clone returns a deep copy of the stream record.
func (s *Stream) Clone() *Stream {
	c := *s
	c.Flows = make([]float64, len(s.Flows))
	copy(c.Flows, s.Flows)
	return &c
}

// recycleState packs the stream state iterated on during convergence:
// component flows followed by temperature. Pressure propagates by plain
// substitution and is excluded.
func (s *Stream) recycleState() []float64 {
	v := make([]float64, len(s.Flows)+1)
	copy(v, s.Flows)
	v[len(s.Flows)] = s.T
	return v
}

// setRecycleState writes a packed state vector back into the stream.
func (s *Stream) setRecycleState(v []float64) {
	copy(s.Flows, v[:len(s.Flows)])
	s.T = v[len(s.Flows)]
}

// Flowsheet owns the component slate and the arena of stream records shared
// by every unit, System, and Block built on it.
type Flowsheet struct {
	components []string
	index      map[string]int
	streams    []*Stream
	names      map[string]StreamID
}

// NewFlowsheet creates an empty flowsheet over an ordered component slate.
func NewFlowsheet(components ...string) *Flowsheet {
	fs := &Flowsheet{
		components: components,
		index:      make(map[string]int, len(components)),
		names:      make(map[string]StreamID),
	}
	for i, c := range components {
		fs.index[c] = i
	}
	return fs
}

// Components returns the ordered component slate.
func (fs *Flowsheet) Components() []string {
	return fs.components
}

// ComponentIndex returns the slate position of a component name.
func (fs *Flowsheet) ComponentIndex(name string) (int, bool) {
	i, ok := fs.index[name]
	return i, ok
}

// NewStream registers a stream record and returns its ID. New streams start
// empty at 298.15 K and 101325 Pa, liquid.
func (fs *Flowsheet) NewStream(name string) (StreamID, error) {
	if _, exists := fs.names[name]; exists {
		return NoStream, fmt.Errorf("stream %q already defined", name)
	}
	id := StreamID(len(fs.streams))
	s := &Stream{
		ID:    id,
		Name:  name,
		Flows: make([]float64, len(fs.components)),
		T:     298.15,
		P:     101325,
		Phase: Liquid,
	}
	fs.streams = append(fs.streams, s)
	fs.names[name] = id
	return id, nil
}

// Stream returns the record for id. The id must come from NewStream on this
// flowsheet.
func (fs *Flowsheet) Stream(id StreamID) *Stream {
	return fs.streams[id]
}

// StreamByName looks a stream up by its registered name.
func (fs *Flowsheet) StreamByName(name string) (*Stream, bool) {
	id, ok := fs.names[name]
	if !ok {
		return nil, false
	}
	return fs.streams[id], true
}

// Streams returns all registered stream records in creation order.
func (fs *Flowsheet) Streams() []*Stream {
	return fs.streams
}

// SetFlow assigns one component flow on a stream.
func (fs *Flowsheet) SetFlow(id StreamID, component string, kmolPerH float64) error {
	i, ok := fs.index[component]
	if !ok {
		return fmt.Errorf("unknown component %q; slate: %v", component, fs.components)
	}
	fs.streams[id].Flows[i] = kmolPerH
	return nil
}

// Flow reads one component flow from a stream.
func (fs *Flowsheet) Flow(id StreamID, component string) (float64, error) {
	i, ok := fs.index[component]
	if !ok {
		return 0, fmt.Errorf("unknown component %q; slate: %v", component, fs.components)
	}
	return fs.streams[id].Flows[i], nil
}
