package exec

import (
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// Definition is an immutable computation definition: it names a computation,
// describes its result type and inputs, and knows how to produce a concrete
// network node for a given provider.
//
// Definitions are referentially stable for the lifetime of a registry;
// output-key identity compares definitions by reference.
type Definition interface {
	// ComputationName returns the computation's name.
	ComputationName() string

	// ResultType returns the computation's result type for the given
	// provider. Scene reads are recorded in j.
	ResultType(provider scene.Object, j *scene.Journal) scene.ValueType

	// ExtractionType returns the type used when extracting computed values.
	// Today this coincides with ResultType for every builtin; it is a
	// separate accessor so a later scalar/array distinction does not change
	// the interface.
	ExtractionType(provider scene.Object) scene.ValueType

	// InputKeys returns the computation's input keys for the given
	// provider, journaling any scene reads needed to derive them into j.
	InputKeys(provider scene.Object, j *scene.Journal) *InputKeyVector

	// CompileNode produces the network node computing this definition for
	// provider. Scene reads are journaled into nodeJournal; the node is
	// created through program so uncompilation bookkeeping cannot be
	// skipped. Returns nil on failure.
	CompileNode(
		provider scene.Object,
		nodeJournal *scene.Journal,
		program *Program,
	) *network.Node
}

// timeDefinition is the builtin time computation. It has no inputs, and its
// factory returns the program's singleton time input node.
type timeDefinition struct{}

func (timeDefinition) ComputationName() string { return ComputeTime }

func (timeDefinition) ResultType(scene.Object, *scene.Journal) scene.ValueType {
	return TimeValueType
}

func (timeDefinition) ExtractionType(scene.Object) scene.ValueType {
	return TimeValueType
}

func (timeDefinition) InputKeys(scene.Object, *scene.Journal) *InputKeyVector {
	return emptyInputKeys
}

func (timeDefinition) CompileNode(
	_ scene.Object, nodeJournal *scene.Journal, program *Program,
) *network.Node {
	if nodeJournal == nil || program == nil {
		return nil
	}
	return program.TimeInputNode()
}

// computeValueDefinition is the builtin attribute-value computation. Its
// provider must be an attribute; the compiled node wraps the attribute's
// value-query object and consumes the stage time.
type computeValueDefinition struct {
	inputKeys *InputKeyVector
}

func newComputeValueDefinition() *computeValueDefinition {
	return &computeValueDefinition{
		inputKeys: NewInputKeyVector(InputKey{
			InputName:       timeInputName,
			ComputationName: ComputeTime,
			ResultType:      TimeValueType,
			ProviderResolution: ProviderResolution{
				LocalTraversal:   string(scene.AbsoluteRoot),
				DynamicTraversal: TraversalLocal,
			},
			Optional: false,
		}),
	}
}

func (d *computeValueDefinition) ComputationName() string { return ComputeValue }

func (d *computeValueDefinition) ResultType(
	provider scene.Object, j *scene.Journal,
) scene.ValueType {
	attr := provider.AsAttribute()
	if attr == nil {
		return scene.UnknownType
	}
	return attr.ValueTypeName(j)
}

func (d *computeValueDefinition) ExtractionType(provider scene.Object) scene.ValueType {
	attr := provider.AsAttribute()
	if attr == nil {
		return scene.UnknownType
	}
	return attr.ValueTypeName(nil)
}

func (d *computeValueDefinition) InputKeys(
	scene.Object, *scene.Journal,
) *InputKeyVector {
	return d.inputKeys
}

func (d *computeValueDefinition) CompileNode(
	provider scene.Object, nodeJournal *scene.Journal, program *Program,
) *network.Node {
	if nodeJournal == nil || program == nil {
		return nil
	}
	attr := provider.AsAttribute()
	if attr == nil {
		return nil
	}
	valueType := attr.ValueTypeName(nodeJournal)
	return program.CreateAttributeInputNode(nodeJournal, attr.Query(), valueType)
}

// pluginDefinition is a computation registered by an embedder against a
// schema type. Its result type and input keys are fixed at registration.
type pluginDefinition struct {
	name       string
	resultType scene.ValueType
	inputKeys  *InputKeyVector
	callback   network.EvalFunc
}

func (d *pluginDefinition) ComputationName() string { return d.name }

func (d *pluginDefinition) ResultType(
	scene.Object, *scene.Journal,
) scene.ValueType {
	return d.resultType
}

func (d *pluginDefinition) ExtractionType(scene.Object) scene.ValueType {
	return d.resultType
}

func (d *pluginDefinition) InputKeys(
	scene.Object, *scene.Journal,
) *InputKeyVector {
	return d.inputKeys
}

func (d *pluginDefinition) CompileNode(
	_ scene.Object, nodeJournal *scene.Journal, program *Program,
) *network.Node {
	if nodeJournal == nil || program == nil {
		return nil
	}
	return program.CreateCallbackNode(nodeJournal, d.callback, d.resultType)
}
