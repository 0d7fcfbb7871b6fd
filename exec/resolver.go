package exec

import (
	"github.com/rstelzleni/execgraph/scene"
)

// inputResolver performs input resolution.
//
// Resolution is a small state machine. The state is the current scene
// object, which begins at the resolution origin; each transition traverses
// to a related scene object. The resolver journals every traversal step it
// performs, so the resulting journal exactly characterizes the scene
// conditions that would invalidate the result.
//
// A single inputResolver resolves a single input key; resolveInput
// constructs one per call to prevent reuse.
type inputResolver struct {
	currentPrim      scene.Prim
	currentAttribute scene.Attribute
	current          scene.Object

	stage    scene.Stage
	registry *DefinitionRegistry
	journal  *scene.Journal
}

// resolveInput walks the scene from origin as described by key and returns
// the output keys naming the computation's providers.
//
// An input that traverses off the scene, or whose provider does not define
// the requested computation with a matching result type, resolves to zero
// output keys; the caller decides whether that is an error. Today inputs
// resolve to zero or one output keys; the vector return anticipates
// fan-out traversals.
func resolveInput(
	stage scene.Stage,
	registry *DefinitionRegistry,
	origin scene.Object,
	key InputKey,
	j *scene.Journal,
) []OutputKey {
	r := &inputResolver{stage: stage, registry: registry, journal: j}

	// Initialize the current object from the most appropriate origin type.
	switch {
	case origin.IsPrim():
		r.setPrim(origin.AsPrim())
	case origin.IsAttribute():
		r.setAttribute(origin.AsAttribute())
	default:
		return nil
	}
	return r.resolve(key)
}

func (r *inputResolver) setPrim(prim scene.Prim) {
	r.currentPrim = prim
	r.currentAttribute = nil
	r.current = prim
}

func (r *inputResolver) setAttribute(attr scene.Attribute) {
	r.currentAttribute = attr
	r.currentPrim = nil
	r.current = attr
}

func (r *inputResolver) resolve(key InputKey) []OutputKey {
	if r.current == nil {
		return nil
	}

	local := key.ProviderResolution.LocalTraversal

	// If the local traversal is the absolute root path, the stage
	// pseudo-root is the provider.
	if scene.Path(local).IsAbsoluteRoot() {
		r.setPrim(r.stage.PseudoRoot(r.journal))
	} else {
		// Otherwise verify we have a valid current object (thereby
		// journaling a dependency on it) and perform the local traversal.
		if !r.current.IsValid(r.journal) {
			return nil
		}
		if !r.traverseRelative(local) {
			return nil
		}
	}

	var definition Definition
	switch key.ProviderResolution.DynamicTraversal {
	case TraversalLocal:
		definition = r.findComputationDefinition(key.ComputationName, key.ResultType)

	case TraversalNamespaceAncestor:
		definition = r.traverseToNamespaceAncestor(key.ComputationName, key.ResultType)

	case TraversalRelationshipTargetedObjects:
		// Declared by the enumeration but not realized by the present
		// core; input keys specifying it are refused.
		return nil
	}

	if definition == nil {
		return nil
	}
	return []OutputKey{{Provider: r.current, Definition: definition}}
}

// traverseRelative updates the current object by traversing along each
// component of a relative path. On false, the current object is the first
// invalid object encountered.
func (r *inputResolver) traverseRelative(relative string) bool {
	components, ok := scene.ParseRelative(relative)
	if !ok {
		return false
	}

	for _, component := range components {
		switch component {
		case ".":
			continue
		case "..":
			if !r.traverseToParent() {
				return false
			}
		default:
			// A property name component moves to the named attribute on
			// the current prim.
			if !r.traverseToAttribute(component) {
				return false
			}
		}

		// After each hop, stop if we encountered an invalid object.
		if !r.current.IsValid(r.journal) {
			return false
		}
	}
	return true
}

func (r *inputResolver) traverseToParent() bool {
	if r.currentPrim != nil {
		r.setPrim(r.currentPrim.Parent(r.journal))
		return true
	}
	if r.currentAttribute != nil {
		r.setPrim(r.currentAttribute.Prim(r.journal))
		return true
	}
	return false
}

func (r *inputResolver) traverseToAttribute(name string) bool {
	if r.currentPrim == nil {
		return false
	}
	r.setAttribute(r.currentPrim.Attribute(name, r.journal))
	return true
}

// traverseToNamespaceAncestor updates the current object to the nearest
// namespace ancestor that defines the named computation with the given
// result type, returning its definition. If no ancestor provides the
// computation, the current object ends at the pseudo-root and nil is
// returned.
func (r *inputResolver) traverseToNamespaceAncestor(
	computationName string, resultType scene.ValueType,
) Definition {
	if r.currentPrim == nil || r.currentPrim.IsPseudoRoot() {
		return nil
	}
	if !r.currentPrim.IsValid(r.journal) {
		return nil
	}

	r.setPrim(r.currentPrim.Parent(r.journal))
	for !r.currentPrim.IsPseudoRoot() {
		definition := r.registry.GetComputationDefinition(
			r.currentPrim, computationName, r.journal)
		if definition != nil &&
			definition.ResultType(r.currentPrim, r.journal) == resultType {
			return definition
		}
		r.setPrim(r.currentPrim.Parent(r.journal))
	}
	return nil
}

// findComputationDefinition checks the registry for a computation registered
// for the current object.
//
// If the input key's result type is unknown, computations of any result
// type are allowed (leaf compilation requests computations of unknown
// result type). Otherwise the found definition's result type must match.
func (r *inputResolver) findComputationDefinition(
	computationName string, resultType scene.ValueType,
) Definition {
	definition := r.registry.GetComputationDefinition(
		r.current, computationName, r.journal)
	if definition == nil {
		return nil
	}
	if resultType == scene.UnknownType ||
		resultType == definition.ResultType(r.current, r.journal) {
		return definition
	}
	return nil
}
