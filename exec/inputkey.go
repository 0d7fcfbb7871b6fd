package exec

import "github.com/rstelzleni/execgraph/scene"

// DynamicTraversal indicates the part of provider resolution that is
// implemented by compilation logic. This part of the traversal can search
// through the scene and can branch out, potentially finding multiple
// providers.
type DynamicTraversal uint8

const (
	// TraversalLocal means the local traversal path directly indicates the
	// computation provider.
	TraversalLocal DynamicTraversal = iota

	// TraversalRelationshipTargetedObjects finds providers by traversing
	// relationship targets, applying relationship forwarding, to the
	// targeted objects.
	TraversalRelationshipTargetedObjects

	// TraversalNamespaceAncestor finds the provider by traversing upward in
	// namespace.
	TraversalNamespaceAncestor
)

// ProviderResolution describes how to find a provider, starting from the
// object that owns the computation to which an input key belongs.
type ProviderResolution struct {
	// LocalTraversal is the first part of provider resolution: a path
	// relative to the origin object ("." to stay, ".." for the parent, a
	// property name to descend), or the absolute root "/" to start at the
	// stage pseudo-root.
	LocalTraversal string

	// DynamicTraversal selects the second, scene-searching part.
	DynamicTraversal DynamicTraversal
}

// InputKey describes, relative to an origin object, how to locate and
// identify one input to a computation.
type InputKey struct {
	// InputName uniquely addresses the input value on the consuming node.
	InputName string

	// ComputationName is the requested computation name.
	ComputationName string

	// ResultType is the requested computation result type. UnknownType is
	// permitted only for leaf requests and matches any result type.
	ResultType scene.ValueType

	// ProviderResolution describes how to find the provider.
	ProviderResolution ProviderResolution

	// Optional inputs tolerate resolving to no source.
	Optional bool
}

// InputKeyVector is a shared, immutable vector of input keys. Definitions
// hand the same vector to every compilation of a node, and recompilation
// info retains a reference so disconnected inputs can be re-resolved without
// consulting the definition again.
type InputKeyVector struct {
	keys []InputKey
}

var emptyInputKeys = &InputKeyVector{}

// NewInputKeyVector returns a shared vector holding the given keys. The
// caller must not retain the slice.
func NewInputKeyVector(keys ...InputKey) *InputKeyVector {
	if len(keys) == 0 {
		return emptyInputKeys
	}
	return &InputKeyVector{keys: keys}
}

// EmptyInputKeys returns the shared empty vector.
func EmptyInputKeys() *InputKeyVector { return emptyInputKeys }

// Get returns the underlying keys. Callers must not modify the result.
func (v *InputKeyVector) Get() []InputKey { return v.keys }

// Find returns the key with the given input name, or nil.
func (v *InputKeyVector) Find(inputName string) *InputKey {
	for i := range v.keys {
		if v.keys[i].InputName == inputName {
			return &v.keys[i]
		}
	}
	return nil
}
