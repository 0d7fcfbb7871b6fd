package exec

import (
	"github.com/rstelzleni/execgraph/scene"
)

// ValueKey identifies a requested value: a computation name anchored at the
// scene object that provides it.
type ValueKey struct {
	// Provider is the scene object that owns the requested computation.
	Provider scene.Object

	// ComputationName names the requested computation.
	ComputationName string
}

// DebugName returns a human-readable description of the value key for
// diagnostic purposes. Value keys are not durable across scene changes, so
// callers that need the name later collect it eagerly.
func (k ValueKey) DebugName() string {
	return string(k.Provider.Path(nil)) + ":" + k.ComputationName
}
