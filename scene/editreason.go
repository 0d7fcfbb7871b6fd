package scene

import "strings"

// EditReason is a set of scene-change kinds that should trigger edits to the
// compiled network.
//
// The set is stored as a bitmask, where each bit represents a different type
// of scene change. EditReasons are manipulated with the standard bitwise
// operators:
//
//	reasons := scene.ResyncedObject | scene.ChangedTargetPaths
//	if reasons&scene.ResyncedObject != scene.None { ... }
//
// The zero value is None.
type EditReason uint32

const (
	// None contains no edit reasons.
	None EditReason = 0

	// ResyncedObject indicates that something about an object has changed.
	// This includes recursive resyncs on namespace ancestors.
	ResyncedObject EditReason = 1 << iota >> 1

	// ChangedPropertyList indicates that the list of properties on a prim
	// has changed. This includes renames of the prim's properties.
	ChangedPropertyList

	// ChangedTargetPaths indicates that the list of target paths on a
	// relationship has changed.
	ChangedTargetPaths
)

// Contains reports whether other's reasons are entirely contained by r.
func (r EditReason) Contains(other EditReason) bool {
	return r&other == other
}

// Intersects reports whether r and other share any reason.
func (r EditReason) Intersects(other EditReason) bool {
	return r&other != None
}

// String returns a comma-separated list of the pre-defined edit reasons that
// make up this value.
func (r EditReason) String() string {
	if r == None {
		return "None"
	}
	var parts []string
	if r.Contains(ResyncedObject) {
		parts = append(parts, "ResyncedObject")
	}
	if r.Contains(ChangedPropertyList) {
		parts = append(parts, "ChangedPropertyList")
	}
	if r.Contains(ChangedTargetPaths) {
		parts = append(parts, "ChangedTargetPaths")
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, ", ")
}
