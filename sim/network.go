package sim

// Item is one entry in a Network path. Exactly one field is set: a leaf
// Unit, or a nested sub-Network that converges on its own before the
// enclosing path continues.
type Item struct {
	Unit Unit
	Sub  *Network
}

// Network declares an ordered execution path over the acyclic skeleton of
// a flowsheet section, together with at most one designated recycle
// stream. The declared order must run every producer before its consumers
// once recycle edges are cut; System construction validates this rather
// than trusting insertion order.
type Network struct {
	Name    string
	Items   []Item
	Recycle StreamID
}

// NewNetwork creates an empty acyclic network.
func NewNetwork(name string) *Network {
	return &Network{Name: name, Recycle: NoStream}
}

// Add appends units to the execution path in the given order.
func (n *Network) Add(units ...Unit) {
	for _, u := range units {
		n.Items = append(n.Items, Item{Unit: u})
	}
}

// AddSub appends a nested sub-network to the execution path.
func (n *Network) AddSub(sub *Network) {
	n.Items = append(n.Items, Item{Sub: sub})
}

// SetRecycle designates the stream whose value is guessed and corrected to
// break this network's cycle.
func (n *Network) SetRecycle(id StreamID) {
	n.Recycle = id
}

// Units returns every unit in the path, nested networks included, in
// declared depth-first order.
func (n *Network) Units() []Unit {
	var units []Unit
	for _, it := range n.Items {
		if it.Unit != nil {
			units = append(units, it.Unit)
		} else if it.Sub != nil {
			units = append(units, it.Sub.Units()...)
		}
	}
	return units
}

// Recycles returns this network's recycle stream followed by those of all
// nested networks, depth-first.
func (n *Network) Recycles() []StreamID {
	var ids []StreamID
	if n.Recycle != NoStream {
		ids = append(ids, n.Recycle)
	}
	for _, it := range n.Items {
		if it.Sub != nil {
			ids = append(ids, it.Sub.Recycles()...)
		}
	}
	return ids
}
