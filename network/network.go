package network

import (
	"sort"
	"sync"
)

// EditMonitor observes structural edits to a Network. Monitors are invoked
// with the network lock held; they must not re-enter the network.
type EditMonitor interface {
	// WillDeleteNode is called before node is removed, while its id and
	// connections are still intact.
	WillDeleteNode(node *Node)
}

// Network owns a set of nodes and the connections between them.
//
// Topology mutations are internally synchronized: any number of goroutines
// may add nodes and connections concurrently (compilation), and a single
// goroutine may delete and disconnect (uncompilation) provided no adds
// overlap, matching the engine's phase separation.
type Network struct {
	mu       sync.Mutex
	slots    []*Node
	versions []uint32
	free     []uint32
	count    int
	monitors []EditMonitor
}

// New returns an empty network.
func New() *Network {
	return &Network{}
}

// AddEditMonitor registers a monitor for structural edits.
func (net *Network) AddEditMonitor(m EditMonitor) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.monitors = append(net.monitors, m)
}

// NewNode creates a node of the given kind with the given evaluation
// callback. The returned pointer is owned by the network; deletion is the
// network's responsibility, never the caller's.
func (net *Network) NewNode(kind Kind, callback EvalFunc) *Node {
	net.mu.Lock()
	defer net.mu.Unlock()

	var index uint32
	if n := len(net.free); n > 0 {
		index = net.free[n-1]
		net.free = net.free[:n-1]
	} else {
		index = uint32(len(net.slots))
		net.slots = append(net.slots, nil)
		net.versions = append(net.versions, 0)
	}

	node := &Node{
		id:       makeNodeID(index, net.versions[index]),
		network:  net,
		kind:     kind,
		callback: callback,
	}
	node.output.node = node
	net.slots[index] = node
	net.count++
	return node
}

// NodeByID returns the node with the given id, or nil if the id is stale or
// was never issued.
func (net *Network) NodeByID(id NodeID) *Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	index := id.Index()
	if int(index) >= len(net.slots) {
		return nil
	}
	node := net.slots[index]
	if node == nil || node.id != id {
		return nil
	}
	return node
}

// NodeCount returns the number of live nodes.
func (net *Network) NodeCount() int {
	net.mu.Lock()
	defer net.mu.Unlock()
	return net.count
}

// Nodes returns the live nodes in id-index order.
func (net *Network) Nodes() []*Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	result := make([]*Node, 0, net.count)
	for _, node := range net.slots {
		if node != nil {
			result = append(result, node)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].id.Index() < result[b].id.Index()
	})
	return result
}

// Connect adds a connection from src to the named input on node. Null
// masked outputs are the caller's concern; src.Output must be non-nil.
func (net *Network) Connect(src MaskedOutput, node *Node, inputName string) {
	net.mu.Lock()
	defer net.mu.Unlock()
	input := node.ensureInput(inputName)
	input.conns = append(input.conns, Connection{Source: src.Output, Mask: src.Mask})
	src.Output.consumers = append(src.Output.consumers, input)
}

// DisconnectInput removes all incoming connections of input.
func (net *Network) DisconnectInput(input *Input) {
	net.mu.Lock()
	defer net.mu.Unlock()
	net.disconnectInputLocked(input)
}

func (net *Network) disconnectInputLocked(input *Input) {
	for _, conn := range input.conns {
		conn.Source.removeConsumer(input)
	}
	input.conns = nil
}

func (o *Output) removeConsumer(input *Input) {
	for i, consumer := range o.consumers {
		if consumer == input {
			o.consumers = append(o.consumers[:i], o.consumers[i+1:]...)
			return
		}
	}
}

// DeleteNode disconnects and deletes node: edit monitors are notified, all
// incoming connections are dropped, all downstream connections from the
// node's output are severed, and the node's slot is recycled with a bumped
// version.
//
// Returns the inputs that lost connections downstream of the deleted node,
// so callers can schedule their recompilation.
func (net *Network) DeleteNode(node *Node) []*Input {
	net.mu.Lock()
	defer net.mu.Unlock()

	for _, m := range net.monitors {
		m.WillDeleteNode(node)
	}

	// Sever incoming edges.
	for _, name := range node.inputOrder {
		net.disconnectInputLocked(node.inputs[name])
	}

	// Sever downstream edges, collecting the orphaned inputs.
	disconnected := make([]*Input, 0, len(node.output.consumers))
	for _, consumer := range node.output.consumers {
		kept := consumer.conns[:0]
		for _, conn := range consumer.conns {
			if conn.Source != &node.output {
				kept = append(kept, conn)
			}
		}
		consumer.conns = kept
		disconnected = append(disconnected, consumer)
	}
	node.output.consumers = nil

	index := node.id.Index()
	net.slots[index] = nil
	net.versions[index]++
	net.free = append(net.free, index)
	net.count--
	return disconnected
}
