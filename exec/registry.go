package exec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// ComputationRegistration describes one plugin prim computation to register
// against a schema type.
type ComputationRegistration struct {
	// Name is the computation name. Names under the builtin prefix are
	// rejected.
	Name string

	// ResultType is the computation's result type.
	ResultType scene.ValueType

	// Callback evaluates the compiled node.
	Callback network.EvalFunc

	// InputKeys describe the computation's inputs, in definition order.
	InputKeys []InputKey
}

// DefinitionRegistry maps a provider's schema configuration to computation
// definitions.
//
// The registry has two phases separated by a registration barrier: embedders
// register plugin computations at load time; the first lookup freezes the
// registry, and later registrations are rejected as coding errors. Lookups
// are thread-safe, journal their scene reads, and return definitions that
// are referentially stable for the registry's lifetime.
type DefinitionRegistry struct {
	mu     sync.Mutex
	frozen atomic.Bool

	// primComputations maps schemaType -> computationName -> definition.
	primComputations map[string]map[string]*pluginDefinition

	// composed caches per-SchemaConfigKey composed prim definitions.
	composed sync.Map // scene.SchemaConfigKey -> *composedPrimDefinition

	time         timeDefinition
	computeValue *computeValueDefinition
}

// composedPrimDefinition contains the definitions for all computations that
// can be found on a prim with one schema configuration.
type composedPrimDefinition struct {
	byName map[string]*pluginDefinition
}

// NewDefinitionRegistry returns an empty, unfrozen registry.
func NewDefinitionRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{
		primComputations: make(map[string]map[string]*pluginDefinition),
		computeValue:     newComputeValueDefinition(),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *DefinitionRegistry
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *DefinitionRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewDefinitionRegistry()
	})
	return defaultRegistry
}

// RegisterPrimComputation registers a plugin prim computation for providers
// whose typed or applied schemas include schemaType.
func (r *DefinitionRegistry) RegisterPrimComputation(
	schemaType string, reg ComputationRegistration,
) error {
	if IsBuiltinComputationName(reg.Name) {
		return fmt.Errorf("register %q for schema %q: %w",
			reg.Name, schemaType, ErrBuiltinPrefix)
	}
	if r.frozen.Load() {
		return fmt.Errorf("register %q for schema %q: %w",
			reg.Name, schemaType, ErrRegistryFrozen)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.primComputations[schemaType]
	if !ok {
		byName = make(map[string]*pluginDefinition)
		r.primComputations[schemaType] = byName
	}
	if _, exists := byName[reg.Name]; exists {
		return fmt.Errorf("register %q for schema %q: %w",
			reg.Name, schemaType, ErrDuplicateComputation)
	}
	byName[reg.Name] = &pluginDefinition{
		name:       reg.Name,
		resultType: reg.ResultType,
		inputKeys:  NewInputKeyVector(reg.InputKeys...),
		callback:   reg.Callback,
	}
	return nil
}

// GetComputationDefinition returns the definition for the computation named
// computationName registered for provider, or nil if none exists. Scene
// reads needed to identify the provider's schema configuration are recorded
// in j.
//
// The first call freezes registration.
func (r *DefinitionRegistry) GetComputationDefinition(
	provider scene.Object, computationName string, j *scene.Journal,
) Definition {
	r.frozen.Store(true)

	// Builtins resolve without consulting the schema configuration.
	if computationName == ComputeTime {
		if provider.IsPrim() {
			return r.time
		}
		return nil
	}
	if computationName == ComputeValue {
		if provider.IsAttribute() {
			return r.computeValue
		}
		return nil
	}

	// Plugin computations exist on prims only for now.
	prim := provider.AsPrim()
	if prim == nil {
		return nil
	}
	composed := r.composedDefinition(prim, j)
	if def, ok := composed.byName[computationName]; ok {
		return def
	}
	return nil
}

// composedDefinition returns the composed prim definition for prim's schema
// configuration, composing and caching it on first use.
func (r *DefinitionRegistry) composedDefinition(
	prim scene.Prim, j *scene.Journal,
) *composedPrimDefinition {
	key := prim.SchemaConfigKey(j)
	if cached, ok := r.composed.Load(key); ok {
		return cached.(*composedPrimDefinition)
	}

	// Compose: the typed schema first, then applied schemas in order.
	// Earlier registrations win name collisions.
	composed := &composedPrimDefinition{byName: make(map[string]*pluginDefinition)}
	schemas := append([]string{prim.TypeName(j)}, prim.AppliedSchemas(j)...)
	r.mu.Lock()
	for _, schemaType := range schemas {
		for name, def := range r.primComputations[schemaType] {
			if _, exists := composed.byName[name]; !exists {
				composed.byName[name] = def
			}
		}
	}
	r.mu.Unlock()

	// Racing composers build equivalent values; first writer wins so every
	// caller observes one referentially-stable composition.
	actual, _ := r.composed.LoadOrStore(key, composed)
	return actual.(*composedPrimDefinition)
}
