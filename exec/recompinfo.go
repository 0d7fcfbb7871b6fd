package exec

import (
	"sync"
	"sync/atomic"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// nodeRecompilationInfo holds what is needed to recompile a node's inputs
// after uncompilation disconnects them: the provider object, which serves
// as the input resolution origin, and the node's input key vector.
type nodeRecompilationInfo struct {
	provider  scene.Object
	inputKeys *InputKeyVector
}

// recompilationInfoTable is a dense per-node side table of recompilation
// info, keyed by node index.
//
// Storage is a grow-only vector of pre-allocated slots with a per-slot
// constructed flag: concurrent setters race only on growth, never on
// construction of a given slot, and readers never observe a partially
// constructed entry.
type recompilationInfoTable struct {
	mu    sync.RWMutex
	slots []*recompilationSlot
}

type recompilationSlot struct {
	constructed atomic.Bool
	info        nodeRecompilationInfo
}

// set records the recompilation info for node. Info can be set once per
// node life; setting it again is a no-op (the singleton time input node is
// returned for every compiled output key of the time computation).
//
// May be called concurrently with itself; not with get or clear.
func (t *recompilationInfoTable) set(
	node *network.Node, provider scene.Object, inputKeys *InputKeyVector,
) {
	slot := t.growTo(node.ID().Index())
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot.constructed.Load() {
		return
	}
	slot.info = nodeRecompilationInfo{provider: provider, inputKeys: inputKeys}
	slot.constructed.Store(true)
}

// get returns the recompilation info for node, or nil if none was set.
func (t *recompilationInfoTable) get(node *network.Node) *nodeRecompilationInfo {
	index := node.ID().Index()
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(index) >= len(t.slots) {
		return nil
	}
	slot := t.slots[index]
	if !slot.constructed.Load() {
		return nil
	}
	return &slot.info
}

// clear de-initializes the info for a deleted node, if it has any.
func (t *recompilationInfoTable) clear(node *network.Node) {
	index := node.ID().Index()
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(index) >= len(t.slots) {
		return
	}
	slot := t.slots[index]
	slot.constructed.Store(false)
	slot.info = nodeRecompilationInfo{}
}

// growTo ensures a slot exists for index and returns it.
func (t *recompilationInfoTable) growTo(index uint32) *recompilationSlot {
	t.mu.RLock()
	if int(index) < len(t.slots) {
		slot := t.slots[index]
		t.mu.RUnlock()
		return slot
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	for int(index) >= len(t.slots) {
		t.slots = append(t.slots, &recompilationSlot{})
	}
	return t.slots[index]
}
