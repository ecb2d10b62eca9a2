// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package rig is the rig controller. A rig is a root transform holding four
// org transforms (skeleton, control, guide, geometry) and a sibling rig meta
// node that links to them and stores the behaviour list.
//
// A rig is either editable (no component control roots under the control
// org) or built. Edit and Build move between the two; components, behaviours
// and processes are resolved through a registry.Factories.
package rig

import (
	"log/slog"
	"slices"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/registry"
	"github.com/crabrig/crab/internal/scene"
)

var tracer = otel.Tracer("crab/rig")

// Rig meta and root attributes.
const (
	AttrRigMarker     = "crab_rig"
	AttrRigRoot       = "rig_root_link"
	AttrSkeletonOrg   = "skeleton_root_link"
	AttrControlOrg    = "control_root_link"
	AttrGuideOrg      = "guide_root_link"
	AttrGeometryOrg   = "geometry_root_link"
	AttrBehaviourData = "behaviour_data"
	AttrIsClean       = "is_clean"

	// LabelBehaviourNodes tags the nodes behaviours create during Build.
	LabelBehaviourNodes = "BehaviourNodes"
)

// Error codes.
const (
	ErrRigNotFound          = "RIG_NOT_FOUND"
	ErrInvalidName          = "INVALID_NAME"
	ErrUnknownPlugin        = "UNKNOWN_PLUGIN"
	ErrSkeletonFailed       = "COMPONENT_SKELETON_FAILED"
	ErrComponentBuildFailed = "COMPONENT_BUILD_FAILED"
	ErrComponentEditFailed  = "COMPONENT_EDIT_FAILED"
	ErrBehaviourFailed      = "BEHAVIOUR_FAILED"
	ErrProcessFailed        = "PROCESS_FAILED"
)

// State is the resting state of a rig.
type State int

// Rig states.
const (
	Editable State = iota
	Built
)

func (s State) String() string {
	if s == Built {
		return "built"
	}
	return "editable"
}

// Rig is a handle on one rig in a scene. It holds no state of its own
// besides the meta node; everything else is read from the scene.
type Rig struct {
	g         scene.Graph
	meta      scene.NodeID
	factories *registry.Factories
	signals   *Signals
	logger    *slog.Logger
}

// Option configures a Rig handle.
type Option func(*Rig)

// WithFactories resolves plugins from f instead of registry.Default.
func WithFactories(f *registry.Factories) Option {
	return func(r *Rig) {
		r.factories = f
	}
}

// WithSignals publishes progress on s.
func WithSignals(s *Signals) Option {
	return func(r *Rig) {
		r.signals = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rig) {
		r.logger = l
	}
}

func newRig(g scene.Graph, m scene.NodeID, opts []Option) *Rig {
	r := &Rig{g: g, meta: m}
	for _, opt := range opts {
		opt(r)
	}
	if r.factories == nil {
		r.factories = registry.Default()
	}
	if r.signals == nil {
		r.signals = NewSignals()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("rig", r.Name())
	return r
}

// Create builds a new, editable rig called name.
func Create(g scene.Graph, name string, opts ...Option) (*Rig, error) {
	errb := oops.In("rig").With("rig", name)
	if name == "" {
		return nil, errb.Code(ErrInvalidName).Errorf("rig name cannot be empty")
	}

	root, err := g.CreateNode(scene.TypeTransform, name, scene.Null)
	if err != nil {
		return nil, errb.Wrap(err)
	}
	if err := g.AddAttr(root, scene.AttrSpec{Name: AttrIsClean, Kind: scene.KindBool}); err != nil {
		return nil, errb.Wrap(err)
	}
	if err := g.SetAttr(root, AttrIsClean, true); err != nil {
		return nil, errb.Wrap(err)
	}

	m, err := g.CreateNode(scene.TypeNetwork, naming.MakeName(g, naming.Meta, name, naming.Middle, 1), scene.Null)
	if err != nil {
		return nil, errb.Wrap(err)
	}
	specs := []scene.AttrSpec{
		{Name: AttrRigMarker, Kind: scene.KindBool},
		{Name: AttrRigRoot, Kind: scene.KindMessage},
		{Name: AttrSkeletonOrg, Kind: scene.KindMessage},
		{Name: AttrControlOrg, Kind: scene.KindMessage},
		{Name: AttrGuideOrg, Kind: scene.KindMessage},
		{Name: AttrGeometryOrg, Kind: scene.KindMessage},
		{Name: AttrBehaviourData, Kind: scene.KindString},
	}
	for _, spec := range specs {
		if err := g.AddAttr(m, spec); err != nil {
			return nil, errb.With("attr", spec.Name).Wrap(err)
		}
	}
	if err := g.SetAttr(m, AttrRigMarker, true); err != nil {
		return nil, errb.Wrap(err)
	}
	if err := g.SetAttr(m, AttrBehaviourData, "[]"); err != nil {
		return nil, errb.Wrap(err)
	}
	if err := g.Connect(root, scene.Plug{Node: m, Attr: AttrRigRoot}); err != nil {
		return nil, errb.Wrap(err)
	}

	orgs := []struct{ description, attr string }{
		{"skeleton", AttrSkeletonOrg},
		{"controls", AttrControlOrg},
		{"guides", AttrGuideOrg},
		{"geometry", AttrGeometryOrg},
	}
	for _, o := range orgs {
		org, err := g.CreateNode(scene.TypeTransform, naming.MakeName(g, naming.Org, name+" "+o.description, naming.Middle, 1), root)
		if err != nil {
			return nil, errb.Wrap(err)
		}
		if err := g.Connect(org, scene.Plug{Node: m, Attr: o.attr}); err != nil {
			return nil, errb.With("attr", o.attr).Wrap(err)
		}
	}

	r := newRig(g, m, opts)
	r.logger.Info("rig created")
	return r, nil
}

// IsRigMeta reports whether id is a rig meta node.
func IsRigMeta(g scene.Graph, id scene.NodeID) bool {
	return scene.Bool(g, id, AttrRigMarker)
}

// All returns every rig in the scene, in creation order.
func All(g scene.Graph, opts ...Option) []*Rig {
	ids, err := g.Ls("*")
	if err != nil {
		return nil
	}
	var out []*Rig
	for _, id := range ids {
		if IsRigMeta(g, id) {
			out = append(out, newRig(g, id, opts))
		}
	}
	return out
}

// FromNode returns the rig that owns node. node may be the rig meta, a
// component meta, or any DAG node below the rig root.
func FromNode(g scene.Graph, node scene.NodeID, opts ...Option) (*Rig, error) {
	if IsRigMeta(g, node) {
		return newRig(g, node, opts), nil
	}
	n := node
	if meta.IsComponentMeta(g, n) {
		n = meta.SkeletonRoot(g, n)
	}
	for ; !scene.IsNull(n); n = g.Parent(n) {
		for _, p := range g.Outputs(n) {
			if p.Attr == AttrRigRoot && IsRigMeta(g, p.Node) {
				return newRig(g, p.Node, opts), nil
			}
		}
	}
	return nil, oops.In("rig").Code(ErrRigNotFound).With("node", g.Name(node)).Errorf("node does not belong to a rig")
}

// Find returns the rig whose root is called name.
func Find(g scene.Graph, name string, opts ...Option) (*Rig, error) {
	for _, r := range All(g, opts...) {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, oops.In("rig").Code(ErrRigNotFound).With("rig", name).Errorf("no rig named %q", name)
}

// Graph returns the scene the rig lives in.
func (r *Rig) Graph() scene.Graph { return r.g }

// Meta returns the rig meta node.
func (r *Rig) Meta() scene.NodeID { return r.meta }

// Factories returns the plugin factories the rig resolves against.
func (r *Rig) Factories() *registry.Factories { return r.factories }

// Signals returns the progress signals of the rig.
func (r *Rig) Signals() *Signals { return r.signals }

// Node returns the rig root transform.
func (r *Rig) Node() scene.NodeID { return scene.Input(r.g, r.meta, AttrRigRoot) }

// Name returns the name of the rig root.
func (r *Rig) Name() string { return r.g.Name(r.Node()) }

// SkeletonOrg returns the org holding every component skeleton.
func (r *Rig) SkeletonOrg() scene.NodeID { return scene.Input(r.g, r.meta, AttrSkeletonOrg) }

// ControlOrg returns the org holding every component control root.
func (r *Rig) ControlOrg() scene.NodeID { return scene.Input(r.g, r.meta, AttrControlOrg) }

// GuideOrg returns the org holding every component guide root.
func (r *Rig) GuideOrg() scene.NodeID { return scene.Input(r.g, r.meta, AttrGuideOrg) }

// GeometryOrg returns the org holding the deformed geometry.
func (r *Rig) GeometryOrg() scene.NodeID { return scene.Input(r.g, r.meta, AttrGeometryOrg) }

// IsClean reports whether the last build finished. A build that fails
// leaves it false until the next successful Edit or Build.
func (r *Rig) IsClean() bool { return scene.Bool(r.g, r.Node(), AttrIsClean) }

func (r *Rig) setClean(clean bool) error {
	root := r.Node()
	if err := scene.EnsureAttr(r.g, root, scene.AttrSpec{Name: AttrIsClean, Kind: scene.KindBool}); err != nil {
		return err
	}
	return r.g.SetAttr(root, AttrIsClean, clean)
}

// State reports whether the rig is built.
func (r *Rig) State() State {
	if len(r.ControlRoots()) > 0 {
		return Built
	}
	return Editable
}

// Track records node as created by a behaviour so that Edit deletes it.
func (r *Rig) Track(node scene.NodeID) error {
	return meta.Tag(r.g, node, LabelBehaviourNodes, r.meta)
}

// Delete removes the rig root, everything below it, and the rig meta.
// Component metas of the rig are deleted too.
func (r *Rig) Delete() error {
	metas := make([]scene.NodeID, 0)
	for _, root := range r.SkeletonRoots() {
		metas = append(metas, meta.IsComponentRoot(r.g, root))
	}
	for _, n := range append(metas, r.Node(), r.meta) {
		if scene.IsNull(n) || !r.g.Exists(n) {
			continue
		}
		if err := r.g.Delete(n); err != nil {
			return oops.In("rig").With("rig", r.Name()).With("node", r.g.Name(n)).Wrap(err)
		}
	}
	return nil
}

// SkeletonRoots returns the component skeleton roots below the skeleton
// org, in depth-first post-order.
func (r *Rig) SkeletonRoots() []scene.NodeID {
	return r.roots(r.SkeletonOrg(), meta.SkeletonRoot)
}

// GuideRoots returns the component guide roots below the guide org.
func (r *Rig) GuideRoots() []scene.NodeID {
	return r.roots(r.GuideOrg(), meta.GuideRoot)
}

// ControlRoots returns the component control roots below the control org.
func (r *Rig) ControlRoots() []scene.NodeID {
	return r.roots(r.ControlOrg(), meta.ControlRoot)
}

func (r *Rig) roots(org scene.NodeID, link func(scene.Graph, scene.NodeID) scene.NodeID) []scene.NodeID {
	if scene.IsNull(org) {
		return nil
	}
	var out []scene.NodeID
	for _, n := range scene.Descendants(r.g, org) {
		m := meta.IsComponentRoot(r.g, n)
		if !scene.IsNull(m) && link(r.g, m) == n {
			out = append(out, n)
		}
	}
	return out
}

// byDepth orders nodes shallowest first, keeping the input order for ties.
func byDepth(g scene.Graph, nodes []scene.NodeID) []scene.NodeID {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b scene.NodeID) int {
		return scene.Depth(g, a) - scene.Depth(g, b)
	})
	return out
}
