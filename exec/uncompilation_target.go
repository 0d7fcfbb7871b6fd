package exec

import (
	"fmt"
	"sync/atomic"

	"github.com/rstelzleni/execgraph/network"
)

// uncompilationTarget identifies one network object an uncompilation rule
// tears down: a whole node, or a single input. Targets form a small tagged
// union dispatched by type switch in the uncompiler.
type uncompilationTarget interface {
	// description identifies the target for debug output.
	description() string
}

// nodeUncompilationTarget targets a node by id.
type nodeUncompilationTarget struct {
	nodeID network.NodeID
}

func (t nodeUncompilationTarget) description() string {
	return fmt.Sprintf("node %d", t.nodeID)
}

// inputUncompilationTarget targets a named input on a node.
//
// The target is a shared pointer to an identity carrying an atomic valid
// flag: when the input is uncompiled, every rule referencing the same
// identity short-circuits without reinspecting the network. Recompiling the
// input creates fresh rules with a fresh identity, which this invalidation
// does not touch.
type inputUncompilationTarget struct {
	identity *inputTargetIdentity
}

type inputTargetIdentity struct {
	nodeID    network.NodeID
	inputName string
	invalid   atomic.Bool
}

func newInputUncompilationTarget(
	nodeID network.NodeID, inputName string,
) inputUncompilationTarget {
	return inputUncompilationTarget{
		identity: &inputTargetIdentity{nodeID: nodeID, inputName: inputName},
	}
}

func (t inputUncompilationTarget) nodeID() network.NodeID { return t.identity.nodeID }

func (t inputUncompilationTarget) inputName() string { return t.identity.inputName }

// isValid reports whether the target has not been invalidated by an earlier
// scene change.
func (t inputUncompilationTarget) isValid() bool {
	return !t.identity.invalid.Load()
}

// invalidate marks the target invalid so other rules for the same input do
// not attempt to uncompile it again in a later round of change processing.
func (t inputUncompilationTarget) invalidate() {
	t.identity.invalid.Store(true)
}

func (t inputUncompilationTarget) description() string {
	return fmt.Sprintf("input %q on node %d", t.identity.inputName, t.identity.nodeID)
}
