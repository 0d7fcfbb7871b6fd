package scene

// ValueType names the type of an attribute value or computation result.
//
// The compilation core only ever compares value types for equality; it does
// not interpret them. The zero value is UnknownType, which matches any type
// during leaf-request resolution.
type ValueType string

// UnknownType is the unknown value type. Input keys with an unknown result
// type accept computations of any result type; only leaf requests use this.
const UnknownType ValueType = ""

// SchemaConfigKey is an opaque, equality-comparable summary of a prim's
// typed and applied schemas. Prims with identical typed and applied schemas
// have equal keys, and the key is stable while the defining layers do not
// change.
type SchemaConfigKey string

// Object is the common interface of all scene objects.
//
// Accessors taking a *Journal record the minimal (path, reason) entry
// sufficient to invalidate the caller under the kinds of scene change that
// could perturb the result; passing nil skips journaling.
//
// Accessors never return nil objects: traversing off the edge of the scene
// yields an invalid object whose IsValid reports false, so callers can keep
// walking and check validity once per hop.
type Object interface {
	// IsValid reports whether the object currently exists in the scene.
	IsValid(j *Journal) bool

	// Path returns the object's scene path. Valid on invalid objects, where
	// it returns the path the object was addressed by.
	Path(j *Journal) Path

	// Name returns the object's name (the final path component).
	Name(j *Journal) string

	// Prim returns the prim enclosing this object: the owning prim for
	// properties, the prim itself for prims.
	Prim(j *Journal) Prim

	// IsPrim reports whether the object is a prim.
	IsPrim() bool
	// IsAttribute reports whether the object is an attribute.
	IsAttribute() bool
	// IsRelationship reports whether the object is a relationship.
	IsRelationship() bool

	// AsPrim downcasts to Prim, or returns nil. Identity is preserved
	// across casts: the result has the same path and schema configuration.
	AsPrim() Prim
	// AsAttribute downcasts to Attribute, or returns nil.
	AsAttribute() Attribute
	// AsRelationship downcasts to Relationship, or returns nil.
	AsRelationship() Relationship
}

// Prim is a scene prim.
type Prim interface {
	Object

	// Parent returns the prim's namespace parent. The parent of the
	// pseudo-root is invalid.
	Parent(j *Journal) Prim

	// Attribute returns the named attribute on this prim.
	Attribute(name string, j *Journal) Attribute

	// Relationship returns the named relationship on this prim.
	Relationship(name string, j *Journal) Relationship

	// TypeName returns the prim's typed schema name.
	TypeName(j *Journal) string

	// AppliedSchemas returns the prim's applied API schemas in order.
	AppliedSchemas(j *Journal) []string

	// IsPseudoRoot reports whether this prim is the stage pseudo-root.
	IsPseudoRoot() bool

	// SchemaConfigKey returns the prim's schema configuration key.
	SchemaConfigKey(j *Journal) SchemaConfigKey
}

// Attribute is a scene attribute.
type Attribute interface {
	Object

	// ValueTypeName returns the attribute's declared value type.
	ValueTypeName(j *Journal) ValueType

	// Query returns a value-query object bound to this attribute. The query
	// remains usable after the attribute handle is discarded.
	Query() AttributeQuery
}

// Relationship is a scene relationship.
type Relationship interface {
	Object

	// Targets returns the relationship's authored target paths.
	Targets(j *Journal) []Path

	// ForwardedTargets returns the relationship's target paths with
	// relationship forwarding applied transitively: targets that name other
	// relationships are followed, cycles are broken with a visited set, and
	// each reachable target appears exactly once.
	ForwardedTargets(j *Journal) []Path
}

// AttributeQuery resolves values for one attribute.
//
// Queries capture value-resolution state at construction; Refresh re-reads
// that state after scene changes that do not resync the attribute.
type AttributeQuery interface {
	// Path returns the path of the attribute the query is bound to.
	Path() Path

	// Value returns the attribute's resolved value, or ok=false if the
	// attribute has no authored value.
	Value() (value any, ok bool)

	// Refresh re-initializes value-resolution state. Seam for finer-grained
	// change notification; resyncs recompile the owning node instead.
	Refresh()
}

// Stage is the read-only view of a composed scene.
//
// Implementations must be safe for concurrent readers.
type Stage interface {
	// PseudoRoot returns the stage's pseudo-root prim.
	PseudoRoot(j *Journal) Prim

	// PrimAtPath returns the prim at path.
	PrimAtPath(path Path, j *Journal) Prim

	// AttributeAtPath returns the attribute at path.
	AttributeAtPath(path Path, j *Journal) Attribute

	// RelationshipAtPath returns the relationship at path.
	RelationshipAtPath(path Path, j *Journal) Relationship

	// ObjectAtPath returns the object at path, whatever its kind.
	ObjectAtPath(path Path, j *Journal) Object
}
