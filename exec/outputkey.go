package exec

import "github.com/rstelzleni/execgraph/scene"

// OutputKey identifies a compiled output within the network: a computation
// definition paired with the provider object it is compiled for.
type OutputKey struct {
	// Provider is the scene object the computation is compiled for.
	Provider scene.Object

	// Definition is the computation definition to compile.
	Definition Definition
}

// Identity returns the key's stable identity. Two output keys compare equal
// iff their provider paths and definition identities are equal; the identity
// is usable as a hash-map key independent of the live provider object.
func (k OutputKey) Identity() OutputKeyIdentity {
	return OutputKeyIdentity{
		ProviderPath: k.Provider.Path(nil),
		Definition:   k.Definition,
	}
}

// OutputKeyIdentity is the comparable identity of an OutputKey.
type OutputKeyIdentity struct {
	ProviderPath scene.Path
	Definition   Definition
}

// DebugName returns a human-readable description of the identity.
func (id OutputKeyIdentity) DebugName() string {
	return string(id.ProviderPath) + ":" + id.Definition.ComputationName()
}
