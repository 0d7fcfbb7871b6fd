// Package scene defines the read-only, journaling view over a composed scene
// database that the compilation engine consumes.
//
// The package has three layers:
//   - value types shared with the compiler: Path, EditReason, Journal
//   - the scene-object interfaces: Object, Prim, Attribute, Relationship,
//     Stage, AttributeQuery
//   - an in-memory Stage implementation used by tests and embedders that do
//     not bring their own scene adapter
//
// Every accessor that could influence a compilation decision takes an
// optional *Journal and records the minimal (path, reason) entry sufficient
// to invalidate the caller when the scene changes.
package scene

import "strings"

// Path is an absolute, hierarchical identifier for a scene object.
//
// Paths use "/" to separate prim names and "." to introduce a property name:
//
//	/            the absolute root
//	/A/B         a prim
//	/A/B.attr    a property on /A/B
//
// The zero value is the empty (invalid) path. Paths are plain strings so they
// are cheap to copy, comparable with ==, and usable as map keys.
type Path string

// AbsoluteRoot is the distinguished path of the stage pseudo-root.
const AbsoluteRoot = Path("/")

// Relative-path components understood by ParseRelative.
const (
	selfComponent   = "."
	parentComponent = ".."
)

// IsEmpty reports whether p is the empty path.
func (p Path) IsEmpty() bool { return p == "" }

// IsAbsolute reports whether p begins at the absolute root.
func (p Path) IsAbsolute() bool { return len(p) > 0 && p[0] == '/' }

// IsAbsoluteRoot reports whether p is the absolute root path.
func (p Path) IsAbsoluteRoot() bool { return p == AbsoluteRoot }

// IsPropertyPath reports whether p identifies a property (attribute or
// relationship) rather than a prim.
func (p Path) IsPropertyPath() bool {
	return strings.IndexByte(string(p), '.') >= 0
}

// Name returns the final path component: the property name for property
// paths, otherwise the prim name. The absolute root has an empty name.
func (p Path) Name() string {
	if i := strings.LastIndexByte(string(p), '.'); i >= 0 {
		return string(p[i+1:])
	}
	if i := strings.LastIndexByte(string(p), '/'); i >= 0 {
		return string(p[i+1:])
	}
	return string(p)
}

// Parent returns the path of the enclosing scene object: the owning prim for
// property paths, the parent prim otherwise. The parent of the absolute root
// is the empty path.
func (p Path) Parent() Path {
	if p.IsAbsoluteRoot() || p.IsEmpty() {
		return ""
	}
	if i := strings.LastIndexByte(string(p), '.'); i >= 0 {
		return p[:i]
	}
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return AbsoluteRoot
	}
	return p[:i]
}

// AppendChild returns the path of the named child prim.
func (p Path) AppendChild(name string) Path {
	if p.IsAbsoluteRoot() {
		return Path("/" + name)
	}
	return p + Path("/"+name)
}

// AppendProperty returns the path of the named property on p.
func (p Path) AppendProperty(name string) Path {
	return p + Path("."+name)
}

// HasPrefix reports whether p equals prefix or descends from it. The
// absolute root is a prefix of every absolute path. A property path descends
// from its owning prim and that prim's ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsEmpty() || p.IsEmpty() {
		return false
	}
	if prefix.IsAbsoluteRoot() {
		return p.IsAbsolute()
	}
	if p == prefix {
		return true
	}
	if !strings.HasPrefix(string(p), string(prefix)) {
		return false
	}
	// The next byte must begin a new component, or the match is a false
	// positive like /Foo matching /FooBar.
	switch p[len(prefix)] {
	case '/', '.':
		return true
	}
	return false
}

// ParseRelative splits a relative traversal path into its components.
// Recognized components are ".", "..", and property names. Returns nil for
// the empty string (stay put) and ok=false for absolute inputs.
func ParseRelative(relative string) (components []string, ok bool) {
	if relative == "" {
		return nil, true
	}
	if relative[0] == '/' {
		return nil, false
	}
	return strings.Split(relative, "/"), true
}
