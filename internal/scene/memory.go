// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Compile-time interface check.
var _ Graph = (*Memory)(nil)

type attribute struct {
	spec   AttrSpec
	value  any
	inputs map[int]NodeID
}

type node struct {
	id        NodeID
	name      string
	typ       NodeType
	parent    NodeID
	children  []NodeID
	attrs     map[string]*attribute
	attrOrder []string
}

// Memory is an in-memory Graph. It is the headless host used by tests and
// by the command line tool, and it round-trips through scene files.
//
// Message connections are stored once per direction: the destination
// attribute keeps its inputs by index, and a reverse index maps each source
// to the plugs it feeds, so both directions resolve in constant time.
type Memory struct {
	mu        sync.RWMutex
	nodes     map[NodeID]*node
	order     []NodeID
	outputs   map[NodeID][]Plug
	weights   map[NodeID]map[NodeID]float64
	selection []NodeID
}

// NewMemory creates an empty scene.
func NewMemory() *Memory {
	return &Memory{
		nodes:   make(map[NodeID]*node),
		outputs: make(map[NodeID][]Plug),
		weights: make(map[NodeID]map[NodeID]float64),
	}
}

func notFound(id NodeID) error {
	return oops.In("scene").Code("NODE_NOT_FOUND").With("node", id.String()).Wrap(ErrNodeNotFound)
}

func attrNotFound(n *node, attr string) error {
	return oops.In("scene").Code("ATTR_NOT_FOUND").
		With("node", n.name).
		With("attr", attr).
		Wrap(ErrAttrNotFound)
}

// CreateNode creates a node of type t.
func (m *Memory) CreateNode(t NodeType, name string, parent NodeID) (NodeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createNodeLocked(NewNodeID(), t, name, parent)
}

func (m *Memory) createNodeLocked(id NodeID, t NodeType, name string, parent NodeID) (NodeID, error) {
	if name == "" {
		return Null, oops.In("scene").With("type", string(t)).Errorf("node name cannot be empty")
	}
	n := &node{
		id:    id,
		name:  name,
		typ:   t,
		attrs: make(map[string]*attribute),
	}
	if t.IsDAG() {
		if !IsNull(parent) {
			p, ok := m.nodes[parent]
			if !ok {
				return Null, notFound(parent)
			}
			if !p.typ.IsDAG() {
				return Null, oops.In("scene").With("parent", p.name).Errorf("cannot parent under dependency node")
			}
			n.parent = parent
			p.children = append(p.children, id)
		}
		n.addAttr(AttrSpec{Name: AttrMatrix, Kind: KindMatrix}, Identity())
		n.addAttr(AttrSpec{Name: AttrVisibility, Kind: KindBool}, true)
		if t == TypeJoint {
			n.addAttr(AttrSpec{Name: AttrDrawStyle, Kind: KindEnum, Enum: []string{"bone", "box", "none"}}, DrawStyleBone)
		}
	}
	m.nodes[id] = n
	m.order = append(m.order, id)
	return id, nil
}

func (n *node) addAttr(spec AttrSpec, value any) {
	a := &attribute{spec: spec, value: value}
	if spec.Kind == KindMessage {
		a.inputs = make(map[int]NodeID)
	}
	n.attrs[spec.Name] = a
	n.attrOrder = append(n.attrOrder, spec.Name)
}

// Delete removes a node and its DAG descendants.
func (m *Memory) Delete(id NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return notFound(id)
	}
	if !IsNull(n.parent) {
		if p, ok := m.nodes[n.parent]; ok {
			p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
		}
	}
	m.deleteLocked(id)
	return nil
}

func (m *Memory) deleteLocked(id NodeID) {
	n, ok := m.nodes[id]
	if !ok {
		return
	}
	for _, c := range slices.Clone(n.children) {
		m.deleteLocked(c)
	}

	// Drop inputs into this node.
	for _, a := range n.attrs {
		for idx, src := range a.inputs {
			m.removeOutput(src, Plug{Node: id, Attr: a.spec.Name, Index: idx})
		}
	}
	// Drop outputs from this node.
	for _, p := range m.outputs[id] {
		if dst, ok := m.nodes[p.Node]; ok {
			if a, ok := dst.attrs[p.Attr]; ok {
				delete(a.inputs, p.Index)
			}
		}
	}
	delete(m.outputs, id)

	delete(m.weights, id)
	for _, w := range m.weights {
		delete(w, id)
	}

	delete(m.nodes, id)
	m.order = slices.DeleteFunc(m.order, func(o NodeID) bool { return o == id })
}

func (m *Memory) removeOutput(src NodeID, p Plug) {
	m.outputs[src] = slices.DeleteFunc(m.outputs[src], func(o Plug) bool { return o == p })
	if len(m.outputs[src]) == 0 {
		delete(m.outputs, src)
	}
}

// Exists reports whether the node is alive.
func (m *Memory) Exists(id NodeID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.nodes[id]
	return ok
}

// Name returns the node's name, or "" for unknown nodes.
func (m *Memory) Name(id NodeID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return n.name
	}
	return ""
}

// Rename changes a node's name.
func (m *Memory) Rename(id NodeID, name string) error {
	if name == "" {
		return oops.In("scene").Errorf("node name cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return notFound(id)
	}
	n.name = name
	return nil
}

// Type returns the node type, or "" for unknown nodes.
func (m *Memory) Type(id NodeID) NodeType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return n.typ
	}
	return ""
}

// Parent returns the DAG parent, or Null for world-level and dependency nodes.
func (m *Memory) Parent(id NodeID) NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return n.parent
	}
	return Null
}

// SetParent reparents a DAG node. Null parents it under the world.
func (m *Memory) SetParent(id, parent NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return notFound(id)
	}
	if !n.typ.IsDAG() {
		return oops.In("scene").With("node", n.name).Errorf("cannot parent dependency node")
	}
	if !IsNull(parent) {
		p, ok := m.nodes[parent]
		if !ok {
			return notFound(parent)
		}
		for cur := parent; !IsNull(cur); cur = m.nodes[cur].parent {
			if cur == id {
				return oops.In("scene").With("node", n.name).With("parent", p.name).Errorf("cannot parent node under its own descendant")
			}
		}
	}
	if !IsNull(n.parent) {
		if old, ok := m.nodes[n.parent]; ok {
			old.children = slices.DeleteFunc(old.children, func(c NodeID) bool { return c == id })
		}
	}
	n.parent = parent
	if !IsNull(parent) {
		m.nodes[parent].children = append(m.nodes[parent].children, id)
	}
	return nil
}

// Children returns the direct DAG children in insertion order.
func (m *Memory) Children(id NodeID) []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return slices.Clone(n.children)
	}
	return nil
}

// Ls returns every node whose name matches pattern.
func (m *Memory) Ls(pattern string) ([]NodeID, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.In("scene").With("pattern", pattern).Wrap(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []NodeID
	for _, id := range m.order {
		if g.Match(m.nodes[id].name) {
			out = append(out, id)
		}
	}
	return out, nil
}

// AddAttr adds a custom attribute. Adding an existing attribute is an error.
func (m *Memory) AddAttr(id NodeID, spec AttrSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return notFound(id)
	}
	if spec.Name == "" || spec.Name == "message" {
		return oops.In("scene").With("attr", spec.Name).Errorf("invalid attribute name")
	}
	if _, exists := n.attrs[spec.Name]; exists {
		return oops.In("scene").With("node", n.name).With("attr", spec.Name).Errorf("attribute already exists")
	}
	n.addAttr(spec, zeroValue(spec.Kind))
	return nil
}

func zeroValue(k AttrKind) any {
	switch k {
	case KindFloat:
		return 0.0
	case KindInt, KindEnum:
		return 0
	case KindBool:
		return false
	case KindString:
		return ""
	case KindMatrix:
		return Identity()
	case KindVector:
		return math32.Vector3{}
	case KindPoints:
		return []Point(nil)
	case KindFloats:
		return []float64(nil)
	default:
		return nil
	}
}

// HasAttr reports whether the node carries attr.
func (m *Memory) HasAttr(id NodeID, attr string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		_, has := n.attrs[attr]
		return has
	}
	return false
}

// Attrs lists the node's attributes in creation order.
func (m *Memory) Attrs(id NodeID) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		return slices.Clone(n.attrOrder)
	}
	return nil
}

// AttrKind returns the kind of attr.
func (m *Memory) AttrKind(id NodeID, attr string) (AttrKind, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[id]; ok {
		if a, has := n.attrs[attr]; has {
			return a.spec.Kind, true
		}
	}
	return 0, false
}

// SetAttr writes a value, coercing compatible numeric types.
func (m *Memory) SetAttr(id NodeID, attr string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return notFound(id)
	}
	a, ok := n.attrs[attr]
	if !ok {
		return attrNotFound(n, attr)
	}
	v, err := coerce(a.spec.Kind, value)
	if err != nil {
		return oops.In("scene").With("node", n.name).With("attr", attr).Wrap(err)
	}
	a.value = v
	return nil
}

func coerce(k AttrKind, value any) (any, error) {
	switch k {
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case KindInt, KindEnum:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		}
	case KindBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case KindString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case KindMatrix:
		switch v := value.(type) {
		case math32.Matrix4:
			return v, nil
		case *math32.Matrix4:
			return *v, nil
		}
	case KindVector:
		if v, ok := value.(math32.Vector3); ok {
			return v, nil
		}
	case KindPoints:
		if v, ok := value.([]Point); ok {
			return slices.Clone(v), nil
		}
	case KindFloats:
		if v, ok := value.([]float64); ok {
			return slices.Clone(v), nil
		}
	case KindMessage:
		return nil, fmt.Errorf("message attributes hold connections, not values")
	}
	return nil, fmt.Errorf("cannot store %T in %s attribute", value, k)
}

// GetAttr reads a value. Slice values are returned as copies.
func (m *Memory) GetAttr(id NodeID, attr string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok {
		return nil, notFound(id)
	}
	a, ok := n.attrs[attr]
	if !ok {
		return nil, attrNotFound(n, attr)
	}
	switch v := a.value.(type) {
	case []Point:
		return slices.Clone(v), nil
	case []float64:
		return slices.Clone(v), nil
	default:
		return v, nil
	}
}

// Connect wires src.message into dst.
func (m *Memory) Connect(src NodeID, dst Plug) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[src]; !ok {
		return notFound(src)
	}
	d, ok := m.nodes[dst.Node]
	if !ok {
		return notFound(dst.Node)
	}
	a, ok := d.attrs[dst.Attr]
	if !ok {
		return attrNotFound(d, dst.Attr)
	}
	if a.spec.Kind != KindMessage {
		return oops.In("scene").With("node", d.name).With("attr", dst.Attr).Errorf("only message attributes accept connections")
	}
	if !a.spec.Multi {
		dst.Index = 0
	}
	if dst.Index < 0 {
		return oops.In("scene").With("index", dst.Index).Errorf("negative plug index")
	}
	if prev, taken := a.inputs[dst.Index]; taken {
		m.removeOutput(prev, dst)
	}
	a.inputs[dst.Index] = src
	m.outputs[src] = append(m.outputs[src], dst)
	return nil
}

// Disconnect removes a connection. Missing connections are ignored.
func (m *Memory) Disconnect(src NodeID, dst Plug) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.nodes[dst.Node]
	if !ok {
		return notFound(dst.Node)
	}
	a, ok := d.attrs[dst.Attr]
	if !ok {
		return attrNotFound(d, dst.Attr)
	}
	if !a.spec.Multi {
		dst.Index = 0
	}
	if cur, ok := a.inputs[dst.Index]; ok && cur == src {
		delete(a.inputs, dst.Index)
		m.removeOutput(src, dst)
	}
	return nil
}

// Inputs returns the sources connected into attr, ordered by index.
func (m *Memory) Inputs(id NodeID, attr string) []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok {
		return nil
	}
	a, ok := n.attrs[attr]
	if !ok || len(a.inputs) == 0 {
		return nil
	}
	indices := make([]int, 0, len(a.inputs))
	for idx := range a.inputs {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	out := make([]NodeID, 0, len(indices))
	for _, idx := range indices {
		out = append(out, a.inputs[idx])
	}
	return out
}

// Outputs returns every plug fed by id.message, in connection order.
func (m *Memory) Outputs(id NodeID) []Plug {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.outputs[id])
}

// NextIndex returns the first index past the highest connected element.
func (m *Memory) NextIndex(id NodeID, attr string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok {
		return 0
	}
	a, ok := n.attrs[attr]
	if !ok {
		return 0
	}
	next := 0
	for idx := range a.inputs {
		if idx >= next {
			next = idx + 1
		}
	}
	return next
}

// Selection returns the live selected nodes.
func (m *Memory) Selection() []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]NodeID, 0, len(m.selection))
	for _, id := range m.selection {
		if _, ok := m.nodes[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Select replaces the selection.
func (m *Memory) Select(ids ...NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = slices.Clone(ids)
}

var constraintTypes = map[ConstraintKind]NodeType{
	ConstraintParent:     TypeParentConstraint,
	ConstraintPoint:      TypePointConstraint,
	ConstraintAim:        TypeAimConstraint,
	ConstraintScale:      TypeScaleConstraint,
	ConstraintPoleVector: TypePoleVectorConstraint,
}

// Constraint attributes.
const (
	AttrConstraintTargets     = "targets"
	AttrConstraintDriven      = "constrained"
	AttrConstraintKeepsOffset = "maintain_offset"
)

// CreateConstraint records a constraint node under driven. Memory does not
// evaluate constraints; it keeps the wiring so the rig can be inspected.
func (m *Memory) CreateConstraint(kind ConstraintKind, drivers []NodeID, driven NodeID, maintainOffset bool) (NodeID, error) {
	t, ok := constraintTypes[kind]
	if !ok {
		return Null, oops.In("scene").With("kind", string(kind)).Errorf("unknown constraint kind")
	}
	if len(drivers) == 0 {
		return Null, oops.In("scene").With("kind", string(kind)).Errorf("constraint needs at least one driver")
	}

	name := m.Name(driven)
	if name == "" {
		return Null, notFound(driven)
	}
	c, err := m.CreateNode(t, name+"_"+string(t), driven)
	if err != nil {
		return Null, err
	}
	for _, spec := range []AttrSpec{
		{Name: AttrConstraintTargets, Kind: KindMessage, Multi: true},
		{Name: AttrConstraintDriven, Kind: KindMessage},
		{Name: AttrConstraintKeepsOffset, Kind: KindBool},
	} {
		if err := m.AddAttr(c, spec); err != nil {
			return Null, err
		}
	}
	for i, d := range drivers {
		if err := m.Connect(d, Plug{Node: c, Attr: AttrConstraintTargets, Index: i}); err != nil {
			return Null, err
		}
	}
	if err := m.Connect(driven, Plug{Node: c, Attr: AttrConstraintDriven}); err != nil {
		return Null, err
	}
	if err := m.SetAttr(c, AttrConstraintKeepsOffset, maintainOffset); err != nil {
		return Null, err
	}
	return c, nil
}

// IK handle attributes.
const (
	AttrIKStart  = "start_joint"
	AttrIKEnd    = "end_effector"
	AttrIKSolver = "solver"
)

// CreateIKHandle records an IK handle spanning start..end.
func (m *Memory) CreateIKHandle(solver IKSolver, start, end NodeID) (NodeID, error) {
	name := m.Name(start)
	if name == "" {
		return Null, notFound(start)
	}
	if !m.Exists(end) {
		return Null, notFound(end)
	}
	h, err := m.CreateNode(TypeIKHandle, name+"_ikHandle", Null)
	if err != nil {
		return Null, err
	}
	for _, spec := range []AttrSpec{
		{Name: AttrIKStart, Kind: KindMessage},
		{Name: AttrIKEnd, Kind: KindMessage},
		{Name: AttrIKSolver, Kind: KindString},
	} {
		if err := m.AddAttr(h, spec); err != nil {
			return Null, err
		}
	}
	if err := m.Connect(start, Plug{Node: h, Attr: AttrIKStart}); err != nil {
		return Null, err
	}
	if err := m.Connect(end, Plug{Node: h, Attr: AttrIKEnd}); err != nil {
		return Null, err
	}
	return h, m.SetAttr(h, AttrIKSolver, string(solver))
}

// Skin cluster attributes.
const (
	AttrSkinGeometry   = "geometry"
	AttrSkinInfluences = "influences"
)

// CreateSkinCluster binds joints to geometry with equal weights.
func (m *Memory) CreateSkinCluster(geometry NodeID, joints []NodeID) (NodeID, error) {
	name := m.Name(geometry)
	if name == "" {
		return Null, notFound(geometry)
	}
	if len(joints) == 0 {
		return Null, oops.In("scene").With("geometry", name).Errorf("skin cluster needs at least one joint")
	}
	sc, err := m.CreateNode(TypeSkinCluster, name+"_skinCluster", Null)
	if err != nil {
		return Null, err
	}
	if err := m.AddAttr(sc, AttrSpec{Name: AttrSkinGeometry, Kind: KindMessage}); err != nil {
		return Null, err
	}
	if err := m.AddAttr(sc, AttrSpec{Name: AttrSkinInfluences, Kind: KindMessage, Multi: true}); err != nil {
		return Null, err
	}
	if err := m.Connect(geometry, Plug{Node: sc, Attr: AttrSkinGeometry}); err != nil {
		return Null, err
	}

	w := make(map[NodeID]float64, len(joints))
	for i, j := range joints {
		if err := m.Connect(j, Plug{Node: sc, Attr: AttrSkinInfluences, Index: i}); err != nil {
			return Null, err
		}
		w[j] = 1.0 / float64(len(joints))
	}

	m.mu.Lock()
	m.weights[sc] = w
	m.mu.Unlock()
	return sc, nil
}

// SetSkinWeight sets the total weight an influence carries in a cluster.
func (m *Memory) SetSkinWeight(cluster, joint NodeID, weight float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.weights[cluster]
	if !ok {
		return notFound(cluster)
	}
	if _, ok := w[joint]; !ok {
		return oops.In("scene").With("joint", joint.String()).Errorf("joint is not an influence of the skin cluster")
	}
	w[joint] = weight
	return nil
}

// SkinWeights returns the weight joint carries in each cluster it influences.
func (m *Memory) SkinWeights(joint NodeID) map[NodeID]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[NodeID]float64)
	for cluster, w := range m.weights {
		if v, ok := w[joint]; ok {
			out[cluster] = v
		}
	}
	return out
}
