package exec

import "strings"

// BuiltinComputationNamePrefix begins the name of every builtin computation.
// Plugin computations may not register names under this prefix.
const BuiltinComputationNamePrefix = "__"

// Builtin computation names.
const (
	// ComputeTime computes the current time on the stage. Its factory does
	// not create a new node; it returns the program's singleton time input
	// node, so all time-dependent computations share a single source.
	ComputeTime = BuiltinComputationNamePrefix + "computeTime"

	// ComputeValue computes the provider attribute's resolved value. The
	// computation provider must be an attribute.
	ComputeValue = BuiltinComputationNamePrefix + "computeValue"
)

// TimeValueType is the result type of the builtin time computation.
const TimeValueType = "__time"

// IsBuiltinComputationName reports whether name uses the reserved builtin
// prefix.
func IsBuiltinComputationName(name string) bool {
	return strings.HasPrefix(name, BuiltinComputationNamePrefix)
}

// timeInputName is the name of the time input on attribute input nodes.
const timeInputName = "time"

// leafInputName is the name of the single input on leaf nodes.
const leafInputName = "in"
