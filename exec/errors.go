package exec

import "errors"

// ErrNoDefinition indicates that no computation definition exists for a
// requested computation name at a provider.
var ErrNoDefinition = errors.New("no computation definition for provider")

// ErrTypeMismatch indicates that a computation definition was found but its
// result type does not match the requested result type.
var ErrTypeMismatch = errors.New("computation result type mismatch")

// ErrLeafSourceCount indicates that a leaf request resolved to a number of
// source outputs other than exactly one.
var ErrLeafSourceCount = errors.New("leaf request must resolve to exactly one source")

// ErrRequiredInputUnfilled indicates that a non-optional input remained
// unconnected after all of its source tasks completed.
var ErrRequiredInputUnfilled = errors.New("required input has no source")

// ErrBuiltinPrefix indicates an attempt to register a plugin computation
// whose name uses the reserved builtin prefix.
var ErrBuiltinPrefix = errors.New("computation name uses reserved builtin prefix")

// ErrRegistryFrozen indicates an attempt to register a computation after the
// registry served its first lookup.
var ErrRegistryFrozen = errors.New("definition registry is frozen after first use")

// ErrDuplicateComputation indicates that a schema already registers a
// computation under the same name.
var ErrDuplicateComputation = errors.New("computation already registered for schema")

// ErrUnsupportedTraversal indicates an input key using a dynamic traversal
// mode the compiler refuses (RelationshipTargetedObjects).
var ErrUnsupportedTraversal = errors.New("unsupported dynamic traversal mode")
