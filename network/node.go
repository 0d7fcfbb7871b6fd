package network

// NodeID uniquely identifies a node for the node's lifetime. The low 32 bits
// are the node's slot index; the high 32 bits are a version incremented each
// time a slot is reused, so a stale id never resolves to a newer node.
type NodeID uint64

func makeNodeID(index, version uint32) NodeID {
	return NodeID(version)<<32 | NodeID(index)
}

// Index returns the node's dense slot index, suitable for indexing per-node
// side tables.
func (id NodeID) Index() uint32 { return uint32(id) }

// Version returns the slot-reuse version of the id.
func (id NodeID) Version() uint32 { return uint32(id >> 32) }

// Kind tags the role a node plays in the network. The compilation core
// branches on kind only where a role has special rules (leaf connection
// arity); evaluation goes through the callback
// regardless of kind.
type Kind uint8

const (
	// KindCallback is a generic computation node.
	KindCallback Kind = iota
	// KindTimeInput is the program's singleton time input node.
	KindTimeInput
	// KindAttributeInput sources a scene attribute's resolved value.
	KindAttributeInput
	// KindLeaf anchors a requested value at the edge of the network.
	KindLeaf
)

// EvalFunc computes a node's output value. Implementations pull input values
// through the EvalContext and must not retain it.
type EvalFunc func(ec *EvalContext) (any, error)

// Node is a vertex of the dataflow network: named input connectors, one
// value-bearing output connector, and an evaluation callback.
//
// Nodes are created and deleted only through their owning Network; pointers
// handed to callers are non-owning.
type Node struct {
	id       NodeID
	network  *Network
	kind     Kind
	callback EvalFunc

	inputOrder []string
	inputs     map[string]*Input
	output     Output

	debugName func() string
}

// ID returns the node's unique id.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's role tag.
func (n *Node) Kind() Kind { return n.kind }

// Network returns the owning network.
func (n *Node) Network() *Network { return n.network }

// Output returns the node's output connector.
func (n *Node) Output() *Output { return &n.output }

// Input returns the named input connector, or nil if no connection has ever
// been made to that name.
func (n *Node) Input(name string) *Input {
	return n.inputs[name]
}

// Inputs returns the node's input connectors in first-connection order.
func (n *Node) Inputs() []*Input {
	result := make([]*Input, 0, len(n.inputOrder))
	for _, name := range n.inputOrder {
		result = append(result, n.inputs[name])
	}
	return result
}

// SetDebugName sets a fixed debug name for the node.
func (n *Node) SetDebugName(name string) {
	n.debugName = func() string { return name }
}

// SetDebugNameCallback defers debug-name construction until first use.
func (n *Node) SetDebugNameCallback(fn func() string) {
	n.debugName = fn
}

// DebugName returns the node's debug name, or a generated placeholder.
func (n *Node) DebugName() string {
	if n.debugName != nil {
		return n.debugName()
	}
	return "node#" + itoa(uint64(n.id.Index()))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// ensureInput returns the named input connector, creating it if needed.
// Caller holds the network lock.
func (n *Node) ensureInput(name string) *Input {
	if in, ok := n.inputs[name]; ok {
		return in
	}
	in := &Input{node: n, name: name}
	if n.inputs == nil {
		n.inputs = make(map[string]*Input)
	}
	n.inputs[name] = in
	n.inputOrder = append(n.inputOrder, name)
	return in
}

// Input is a named input connector holding the connections that feed it.
type Input struct {
	node  *Node
	name  string
	conns []Connection
}

// Node returns the node the input belongs to.
func (in *Input) Node() *Node { return in.node }

// Name returns the input's name.
func (in *Input) Name() string { return in.name }

// Connections returns the input's incoming connections in connection order.
func (in *Input) Connections() []Connection {
	in.node.network.mu.Lock()
	defer in.node.network.mu.Unlock()
	return append([]Connection(nil), in.conns...)
}

// DebugName identifies the input for diagnostics.
func (in *Input) DebugName() string {
	return in.node.DebugName() + "." + in.name
}

// Connection is one edge of the network: a masked source output feeding an
// input connector.
type Connection struct {
	Source *Output
	Mask   Mask
}

// Output is a node's value-bearing output connector.
type Output struct {
	node *Node

	// TypeName names the output's value type for diagnostics and leaf-node
	// typing; the network itself never interprets it.
	TypeName string

	// consumers tracks inputs connected to this output, so deleting the
	// owning node can sever downstream edges.
	consumers []*Input
}

// Node returns the node owning this output.
func (o *Output) Node() *Node { return o.node }
