package exec

import (
	"errors"
	"sync"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// Program owns a compiled network and the data structures that must have
// exactly one instance per network:
//
//   - the compiled-output cache tracking which output provides the value of
//     each output key;
//   - the uncompilation table tracking the conditions under which nodes and
//     connections must be deleted;
//   - the recompilation-info side table;
//   - the leaf-node cache sharing one leaf node per requested source;
//   - the singleton time input node.
//
// Some of these structures must be updated whenever the network is
// modified, so compilation never touches the network directly: every node
// construction and connection goes through the Program, which records the
// journal-derived uncompilation rules as a side effect.
type Program struct {
	network       *network.Network
	timeInputNode *network.Node

	cache         compiledOutputCache
	uncompilation *uncompilationTable
	recompInfo    recompilationInfoTable

	mu sync.Mutex

	// leafNodes shares one leaf node per requested value key, keyed by the
	// value key's debug name, which is stable across scene changes.
	leafNodes    map[string]*network.Node
	disconnected map[*network.Input]bool
}

// NewProgram returns a program owning an empty network and its singleton
// time input node.
func NewProgram() *Program {
	p := &Program{
		network:       network.New(),
		uncompilation: newUncompilationTable(),
		leafNodes:     make(map[string]*network.Node),
		disconnected:  make(map[*network.Input]bool),
	}
	p.network.AddEditMonitor(&programEditMonitor{program: p})

	// The singleton time input node is constructed outside the journaled
	// path: it is never uncompiled.
	p.timeInputNode = p.network.NewNode(network.KindTimeInput,
		func(ec *network.EvalContext) (any, error) {
			return ec.Time(), nil
		})
	p.timeInputNode.SetDebugName("time")
	p.timeInputNode.Output().TypeName = TimeValueType
	return p
}

// Network returns the owned network.
func (p *Program) Network() *network.Network { return p.network }

// TimeInputNode returns the program's singleton time input node. The
// builtin time computation's factory returns this node instead of creating
// a new one, so all time-dependent computations share a single source.
func (p *Program) TimeInputNode() *network.Node { return p.timeInputNode }

// CreateCallbackNode adds a generic computation node evaluating callback.
// Uncompilation rules for the node are recorded from journal.
func (p *Program) CreateCallbackNode(
	journal *scene.Journal, callback network.EvalFunc, resultType scene.ValueType,
) *network.Node {
	node := p.network.NewNode(network.KindCallback, callback)
	node.Output().TypeName = string(resultType)
	p.addNode(journal, node)
	return node
}

// CreateAttributeInputNode adds a node sourcing the resolved value of the
// attribute behind query. Uncompilation rules are recorded from journal.
func (p *Program) CreateAttributeInputNode(
	journal *scene.Journal, query scene.AttributeQuery, valueType scene.ValueType,
) *network.Node {
	node := p.network.NewNode(network.KindAttributeInput,
		func(ec *network.EvalContext) (any, error) {
			value, ok := query.Value()
			if !ok {
				return nil, errors.New(
					"no authored value for attribute " + string(query.Path()))
			}
			return value, nil
		})
	node.Output().TypeName = string(valueType)
	p.addNode(journal, node)
	return node
}

// GetOrCreateLeafNode returns the leaf node anchored for the value key with
// the given debug name, creating it on the first request. created reports
// whether a new node was added; re-used leaf nodes keep their existing
// connections (a disconnected one is reconnected by input recompilation).
func (p *Program) GetOrCreateLeafNode(
	journal *scene.Journal, leafKey string, source network.MaskedOutput,
) (node *network.Node, created bool) {
	p.mu.Lock()
	if existing, ok := p.leafNodes[leafKey]; ok {
		p.mu.Unlock()
		return existing, false
	}
	p.mu.Unlock()

	node = p.network.NewNode(network.KindLeaf,
		func(ec *network.EvalContext) (any, error) {
			values, err := ec.InputValues(leafInputName)
			if err != nil {
				return nil, err
			}
			if len(values) != 1 {
				return nil, errors.New("leaf node requires exactly one source")
			}
			return values[0], nil
		})
	node.Output().TypeName = source.Output.TypeName
	p.addNode(journal, node)

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.leafNodes[leafKey]; ok {
		// A concurrent request won the race; discard ours.
		p.mu.Unlock()
		p.network.DeleteNode(node)
		p.mu.Lock()
		return existing, false
	}
	p.leafNodes[leafKey] = node
	return node, true
}

// addNode updates per-node data structures for a newly-added node.
func (p *Program) addNode(journal *scene.Journal, node *network.Node) {
	p.uncompilation.addRulesForNode(node.ID(), journal)
}

// Connect connects all non-null masked outputs in sources to the input
// named inputName on node; null outputs are skipped. The call is required
// even when sources is empty so the input's uncompilation rules are
// recorded from journal.
func (p *Program) Connect(
	journal *scene.Journal,
	sources []network.MaskedOutput,
	node *network.Node,
	inputName string,
) {
	for _, source := range sources {
		if source.IsNull() {
			continue
		}
		p.network.Connect(source, node, inputName)
	}
	p.uncompilation.addRulesForInput(node.ID(), inputName, journal)
}

// GetCompiledOutput returns the masked output provided by the given output
// key identity, and whether an entry exists. A found-but-null output means
// the key is already known to have no output.
func (p *Program) GetCompiledOutput(
	identity OutputKeyIdentity,
) (network.MaskedOutput, bool) {
	return p.cache.find(identity)
}

// SetCompiledOutput establishes that identity is provided by output.
// Returns false if a mapping already existed, in which case it is not
// modified.
func (p *Program) SetCompiledOutput(
	identity OutputKeyIdentity, output network.MaskedOutput,
) bool {
	return p.cache.insert(identity, output)
}

// setNodeRecompilationInfo records the provider and input keys needed to
// recompile node's inputs.
func (p *Program) setNodeRecompilationInfo(
	node *network.Node, provider scene.Object, inputKeys *InputKeyVector,
) {
	p.recompInfo.set(node, provider, inputKeys)
}

// nodeRecompilationInfo returns node's recompilation info, or nil.
func (p *Program) nodeRecompilationInfo(
	node *network.Node,
) *nodeRecompilationInfo {
	return p.recompInfo.get(node)
}

// disconnectAndDeleteNode removes node from the network. Cache entries and
// recompilation info are purged first (via the edit monitor), and inputs
// downstream of the node are queued for recompilation.
func (p *Program) disconnectAndDeleteNode(node *network.Node) {
	orphaned := p.network.DeleteNode(node)
	p.mu.Lock()
	for _, input := range orphaned {
		p.disconnected[input] = true
	}
	p.mu.Unlock()
}

// disconnectInput severs the input's incoming connections and queues it for
// recompilation.
func (p *Program) disconnectInput(input *network.Input) {
	p.network.DisconnectInput(input)
	p.mu.Lock()
	p.disconnected[input] = true
	p.mu.Unlock()
}

// takeDisconnectedInputs drains the set of inputs awaiting recompilation.
func (p *Program) takeDisconnectedInputs() []*network.Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.disconnected) == 0 {
		return nil
	}
	inputs := make([]*network.Input, 0, len(p.disconnected))
	for input := range p.disconnected {
		inputs = append(inputs, input)
	}
	p.disconnected = make(map[*network.Input]bool)
	return inputs
}

// programEditMonitor keeps the program's side structures consistent with
// network deletions.
type programEditMonitor struct {
	program *Program
}

// WillDeleteNode purges the compiled-output cache entries owned by the
// node, drops its recompilation info, and forgets any leaf-node cache
// entries involving it. Invoked with the network lock held.
func (m *programEditMonitor) WillDeleteNode(node *network.Node) {
	p := m.program
	p.cache.eraseByNodeID(node.ID())
	p.recompInfo.clear(node)

	p.mu.Lock()
	for leafKey, leaf := range p.leafNodes {
		if leaf == node {
			delete(p.leafNodes, leafKey)
		}
	}
	// A deleted node needs no recompilation of its own inputs.
	for input := range p.disconnected {
		if input.Node() == node {
			delete(p.disconnected, input)
		}
	}
	p.mu.Unlock()
}
