package exec

import (
	"sync"

	"github.com/rstelzleni/execgraph/network"
)

// compiledOutputCache maps output-key identities to the masked outputs that
// provide them.
//
// Inserts succeed only when the key is absent; losing inserters read the
// winner. An entry holding a null masked output is a valid memo meaning
// "already determined to have no output"; a truly absent entry means "not
// computed yet".
//
// A reverse index by node id supports uncompilation: deleting a node purges
// all entries whose masked output is owned by that node.
type compiledOutputCache struct {
	// outputs maps OutputKeyIdentity -> network.MaskedOutput.
	outputs sync.Map

	// reverse maps network.NodeID -> *reverseEntry.
	reverse sync.Map
}

type reverseEntry struct {
	mu   sync.Mutex
	keys []OutputKeyIdentity
}

// insert establishes that key is provided by mo. Returns true if a new
// mapping was inserted, false if a mapping already existed, in which case
// the existing mapping is not modified.
//
// insert may be called concurrently with itself and find.
func (c *compiledOutputCache) insert(
	key OutputKeyIdentity, mo network.MaskedOutput,
) bool {
	if _, loaded := c.outputs.LoadOrStore(key, mo); loaded {
		return false
	}
	if !mo.IsNull() {
		nodeID := mo.Output.Node().ID()
		entry, _ := c.reverse.LoadOrStore(nodeID, &reverseEntry{})
		re := entry.(*reverseEntry)
		re.mu.Lock()
		re.keys = append(re.keys, key)
		re.mu.Unlock()
	}
	return true
}

// find returns the masked output for key and whether an entry exists. The
// returned output may be null even when found; see the type comment.
func (c *compiledOutputCache) find(
	key OutputKeyIdentity,
) (network.MaskedOutput, bool) {
	value, ok := c.outputs.Load(key)
	if !ok {
		return network.MaskedOutput{}, false
	}
	return value.(network.MaskedOutput), true
}

// eraseByNodeID removes all forward entries whose masked outputs are owned
// by the node with the given id, plus the reverse entry.
//
// Not safe to call concurrently with insert or find; uncompilation runs
// single-threaded after compilation quiesces.
func (c *compiledOutputCache) eraseByNodeID(nodeID network.NodeID) {
	entry, ok := c.reverse.LoadAndDelete(nodeID)
	if !ok {
		return
	}
	re := entry.(*reverseEntry)
	for _, key := range re.keys {
		c.outputs.Delete(key)
	}
}
