package scene

import (
	"sort"
	"strings"
	"sync"
)

// MemStage is an in-memory Stage implementation.
//
// It is the reference scene adapter used by this repository's tests and by
// embedders that do not bring their own composed-scene backend. Reads are
// safe for any number of concurrent readers; mutations must not overlap
// reads, matching the engine's model of single-threaded change processing
// with parallel compilation.
//
// Mutators return the EditReason a real scene would report for the change,
// so tests can feed the result straight into change processing:
//
//	st := scene.NewMemStage()
//	st.DefinePrim("/Rig", "Rig")
//	reason := st.RemovePrim("/Rig") // ResyncedObject
type MemStage struct {
	mu    sync.RWMutex
	prims map[Path]*memPrimSpec
}

type memPrimSpec struct {
	typeName       string
	appliedSchemas []string
	attrs          map[string]*memAttrSpec
	rels           map[string][]Path
}

type memAttrSpec struct {
	valueType ValueType
	value     any
	hasValue  bool
}

// NewMemStage returns a stage containing only the pseudo-root.
func NewMemStage() *MemStage {
	return &MemStage{
		prims: map[Path]*memPrimSpec{
			AbsoluteRoot: {attrs: map[string]*memAttrSpec{}, rels: map[string][]Path{}},
		},
	}
}

// DefinePrim creates or retypes the prim at path, creating ancestor prims as
// needed. Returns the edit reason for the change.
func (s *MemStage) DefinePrim(path Path, typeName string) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := path; !p.IsEmpty() && !p.IsAbsoluteRoot(); p = p.Parent() {
		if _, ok := s.prims[p]; !ok {
			s.prims[p] = &memPrimSpec{
				attrs: map[string]*memAttrSpec{},
				rels:  map[string][]Path{},
			}
		}
	}
	s.prims[path].typeName = typeName
	return ResyncedObject
}

// SetAppliedSchemas replaces the applied API schemas of the prim at path.
func (s *MemStage) SetAppliedSchemas(path Path, schemas ...string) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	if spec, ok := s.prims[path]; ok {
		spec.appliedSchemas = append([]string(nil), schemas...)
	}
	return ResyncedObject
}

// RemovePrim removes the prim at path and all of its descendants.
func (s *MemStage) RemovePrim(path Path) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.prims {
		if p.HasPrefix(path) {
			delete(s.prims, p)
		}
	}
	return ResyncedObject
}

// SetAttribute creates or updates an attribute on the prim at primPath.
// Creating a new attribute changes the prim's property list; updating an
// existing attribute's value is an info-only change.
func (s *MemStage) SetAttribute(
	primPath Path, name string, valueType ValueType, value any,
) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.prims[primPath]
	if !ok {
		return None
	}
	if existing, ok := spec.attrs[name]; ok {
		existing.valueType = valueType
		existing.value = value
		existing.hasValue = true
		return None
	}
	spec.attrs[name] = &memAttrSpec{valueType: valueType, value: value, hasValue: true}
	return ChangedPropertyList
}

// RemoveAttribute removes the named attribute from the prim at primPath.
func (s *MemStage) RemoveAttribute(primPath Path, name string) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	if spec, ok := s.prims[primPath]; ok {
		delete(spec.attrs, name)
	}
	return ChangedPropertyList
}

// SetRelationship creates or replaces the named relationship's targets.
func (s *MemStage) SetRelationship(
	primPath Path, name string, targets ...Path,
) EditReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.prims[primPath]
	if !ok {
		return None
	}
	_, existed := spec.rels[name]
	spec.rels[name] = append([]Path(nil), targets...)
	if existed {
		return ChangedTargetPaths
	}
	return ChangedPropertyList
}

// Stage interface.

// PseudoRoot returns the pseudo-root prim.
func (s *MemStage) PseudoRoot(j *Journal) Prim {
	return s.PrimAtPath(AbsoluteRoot, j)
}

// PrimAtPath returns the prim at path, which may be invalid.
func (s *MemStage) PrimAtPath(path Path, j *Journal) Prim {
	return memPrim{memObject{stage: s, path: path}}
}

// AttributeAtPath returns the attribute at path, which may be invalid.
func (s *MemStage) AttributeAtPath(path Path, j *Journal) Attribute {
	return memAttribute{memObject{stage: s, path: path}}
}

// RelationshipAtPath returns the relationship at path, which may be invalid.
func (s *MemStage) RelationshipAtPath(path Path, j *Journal) Relationship {
	return memRelationship{memObject{stage: s, path: path}}
}

// ObjectAtPath returns the object at path, whatever its kind.
func (s *MemStage) ObjectAtPath(path Path, j *Journal) Object {
	if !path.IsPropertyPath() {
		return s.PrimAtPath(path, j)
	}
	s.mu.RLock()
	spec, ok := s.prims[path.Parent()]
	var isRel bool
	if ok {
		_, isRel = spec.rels[path.Name()]
	}
	s.mu.RUnlock()
	if isRel {
		return s.RelationshipAtPath(path, j)
	}
	return s.AttributeAtPath(path, j)
}

// memObject carries the state shared by all in-memory scene handles. Handles
// are cheap values addressing the stage by path; validity is evaluated at
// call time against the live scene.
type memObject struct {
	stage *MemStage
	path  Path
}

func (o memObject) Path(j *Journal) Path { return o.path }

func (o memObject) Name(j *Journal) string { return o.path.Name() }

// ownerSpec returns the spec of the prim owning this object, or nil, and the
// property name when the object is a property.
func (o memObject) ownerSpec() (*memPrimSpec, string) {
	if o.path.IsPropertyPath() {
		spec := o.stage.prims[o.path.Parent()]
		return spec, o.path.Name()
	}
	return o.stage.prims[o.path], ""
}

type memPrim struct{ memObject }

func (p memPrim) IsValid(j *Journal) bool {
	if j != nil {
		j.Add(p.path, ResyncedObject)
	}
	p.stage.mu.RLock()
	defer p.stage.mu.RUnlock()
	_, ok := p.stage.prims[p.path]
	return ok
}

func (p memPrim) Prim(j *Journal) Prim { return p }

func (p memPrim) IsPrim() bool         { return true }
func (p memPrim) IsAttribute() bool    { return false }
func (p memPrim) IsRelationship() bool { return false }

func (p memPrim) AsPrim() Prim                 { return p }
func (p memPrim) AsAttribute() Attribute       { return nil }
func (p memPrim) AsRelationship() Relationship { return nil }

func (p memPrim) IsPseudoRoot() bool { return p.path.IsAbsoluteRoot() }

func (p memPrim) Parent(j *Journal) Prim {
	if j != nil {
		j.Add(p.path, ResyncedObject)
	}
	return memPrim{memObject{stage: p.stage, path: p.path.Parent()}}
}

func (p memPrim) Attribute(name string, j *Journal) Attribute {
	if j != nil {
		j.Add(p.path, ResyncedObject|ChangedPropertyList)
	}
	return memAttribute{memObject{stage: p.stage, path: p.path.AppendProperty(name)}}
}

func (p memPrim) Relationship(name string, j *Journal) Relationship {
	if j != nil {
		j.Add(p.path, ResyncedObject|ChangedPropertyList)
	}
	return memRelationship{memObject{stage: p.stage, path: p.path.AppendProperty(name)}}
}

func (p memPrim) TypeName(j *Journal) string {
	if j != nil {
		j.Add(p.path, ResyncedObject)
	}
	p.stage.mu.RLock()
	defer p.stage.mu.RUnlock()
	if spec, ok := p.stage.prims[p.path]; ok {
		return spec.typeName
	}
	return ""
}

func (p memPrim) AppliedSchemas(j *Journal) []string {
	if j != nil {
		j.Add(p.path, ResyncedObject)
	}
	p.stage.mu.RLock()
	defer p.stage.mu.RUnlock()
	if spec, ok := p.stage.prims[p.path]; ok {
		return append([]string(nil), spec.appliedSchemas...)
	}
	return nil
}

func (p memPrim) SchemaConfigKey(j *Journal) SchemaConfigKey {
	if j != nil {
		j.Add(p.path, ResyncedObject)
	}
	p.stage.mu.RLock()
	defer p.stage.mu.RUnlock()
	spec, ok := p.stage.prims[p.path]
	if !ok {
		return ""
	}
	// Prims with identical typed and applied schemas compare equal.
	var b strings.Builder
	b.WriteString(spec.typeName)
	schemas := append([]string(nil), spec.appliedSchemas...)
	sort.Strings(schemas)
	for _, schema := range schemas {
		b.WriteByte('|')
		b.WriteString(schema)
	}
	return SchemaConfigKey(b.String())
}

type memAttribute struct{ memObject }

func (a memAttribute) IsValid(j *Journal) bool {
	if j != nil {
		j.Add(a.path, ResyncedObject)
	}
	a.stage.mu.RLock()
	defer a.stage.mu.RUnlock()
	spec, name := a.ownerSpec()
	if spec == nil {
		return false
	}
	_, ok := spec.attrs[name]
	return ok
}

func (a memAttribute) Prim(j *Journal) Prim {
	if j != nil {
		j.Add(a.path, ResyncedObject)
	}
	return memPrim{memObject{stage: a.stage, path: a.path.Parent()}}
}

func (a memAttribute) IsPrim() bool         { return false }
func (a memAttribute) IsAttribute() bool    { return true }
func (a memAttribute) IsRelationship() bool { return false }

func (a memAttribute) AsPrim() Prim                 { return nil }
func (a memAttribute) AsAttribute() Attribute       { return a }
func (a memAttribute) AsRelationship() Relationship { return nil }

func (a memAttribute) ValueTypeName(j *Journal) ValueType {
	if j != nil {
		j.Add(a.path, ResyncedObject)
	}
	a.stage.mu.RLock()
	defer a.stage.mu.RUnlock()
	spec, name := a.ownerSpec()
	if spec == nil {
		return UnknownType
	}
	if attr, ok := spec.attrs[name]; ok {
		return attr.valueType
	}
	return UnknownType
}

func (a memAttribute) Query() AttributeQuery {
	return &memAttributeQuery{stage: a.stage, path: a.path}
}

type memRelationship struct{ memObject }

func (r memRelationship) IsValid(j *Journal) bool {
	if j != nil {
		j.Add(r.path, ResyncedObject)
	}
	r.stage.mu.RLock()
	defer r.stage.mu.RUnlock()
	spec, name := r.ownerSpec()
	if spec == nil {
		return false
	}
	_, ok := spec.rels[name]
	return ok
}

func (r memRelationship) Prim(j *Journal) Prim {
	if j != nil {
		j.Add(r.path, ResyncedObject)
	}
	return memPrim{memObject{stage: r.stage, path: r.path.Parent()}}
}

func (r memRelationship) IsPrim() bool         { return false }
func (r memRelationship) IsAttribute() bool    { return false }
func (r memRelationship) IsRelationship() bool { return true }

func (r memRelationship) AsPrim() Prim                 { return nil }
func (r memRelationship) AsAttribute() Attribute       { return nil }
func (r memRelationship) AsRelationship() Relationship { return r }

func (r memRelationship) Targets(j *Journal) []Path {
	if j != nil {
		j.Add(r.path, ResyncedObject|ChangedTargetPaths)
	}
	r.stage.mu.RLock()
	defer r.stage.mu.RUnlock()
	spec, name := r.ownerSpec()
	if spec == nil {
		return nil
	}
	return append([]Path(nil), spec.rels[name]...)
}

func (r memRelationship) ForwardedTargets(j *Journal) []Path {
	return ForwardTargets(r.stage, r, j)
}

// memAttributeQuery resolves values by re-reading the live scene. Refresh is
// a no-op because no resolution state is cached; it exists as the seam for
// finer-grained change notification.
type memAttributeQuery struct {
	stage *MemStage
	path  Path
}

func (q *memAttributeQuery) Path() Path { return q.path }

func (q *memAttributeQuery) Value() (any, bool) {
	q.stage.mu.RLock()
	defer q.stage.mu.RUnlock()
	spec, ok := q.stage.prims[q.path.Parent()]
	if !ok {
		return nil, false
	}
	attr, ok := spec.attrs[q.path.Name()]
	if !ok || !attr.hasValue {
		return nil, false
	}
	return attr.value, true
}

func (q *memAttributeQuery) Refresh() {}
