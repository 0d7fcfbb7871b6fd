// Package network provides the dataflow network that compilation builds and
// incrementally rewrites: nodes with named input connectors, value-bearing
// outputs, masked connections, and deletion bookkeeping.
//
// The network describes topology only. Evaluation semantics live in each
// node's callback, which the compilation core treats as opaque; a minimal
// memoized pull evaluator is provided for tests and tools.
package network

// Mask selects which elements of an array-valued output are live on a given
// connection. Bit i set means element i flows across the connection.
type Mask struct {
	bits []uint64
	size int
}

// AllOnes returns a mask of the given size with every element selected.
func AllOnes(size int) Mask {
	words := (size + 63) / 64
	bits := make([]uint64, words)
	for i := range bits {
		bits[i] = ^uint64(0)
	}
	if rem := size % 64; rem != 0 && words > 0 {
		bits[words-1] = (uint64(1) << rem) - 1
	}
	return Mask{bits: bits, size: size}
}

// Size returns the number of elements the mask covers.
func (m Mask) Size() int { return m.size }

// IsSet reports whether element i is selected.
func (m Mask) IsSet(i int) bool {
	if i < 0 || i >= m.size {
		return false
	}
	return m.bits[i/64]&(uint64(1)<<(i%64)) != 0
}

// IsEmpty reports whether no element is selected.
func (m Mask) IsEmpty() bool {
	for _, w := range m.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// MaskedOutput pairs a node output with the mask of elements live on a
// connection from it. The zero value is the null masked output.
type MaskedOutput struct {
	Output *Output
	Mask   Mask
}

// IsNull reports whether the masked output refers to no output.
func (mo MaskedOutput) IsNull() bool { return mo.Output == nil }
