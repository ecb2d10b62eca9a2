// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package component

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// AttrBound is the message attribute on a joint whose input is the control
// driving it.
const AttrBound = "bound"

// Labels the framework tags on every component meta.
const (
	LabelBindConstraints = "BindConstraints"
)

// Base carries the identity of one component instance and the operations
// the framework provides to every component. Components receive it from
// Descriptor.New and must not replace it.
type Base struct {
	g          scene.Graph
	identifier string
	version    string
	options    Options
	meta       scene.NodeID
	logger     *slog.Logger
}

// NewBase creates the base of a component that has no meta yet.
func NewBase(g scene.Graph, identifier, version string, options Options) *Base {
	return &Base{
		g:          g,
		identifier: identifier,
		version:    version,
		options:    options,
		logger:     slog.Default().With("component", identifier),
	}
}

// FromMeta creates the base of an existing component from its meta node.
func FromMeta(g scene.Graph, m scene.NodeID) (*Base, error) {
	if !meta.IsComponentMeta(g, m) {
		return nil, oops.In("component").Code("NODE_NOT_FOUND").With("node", m.String()).Errorf("not a component meta")
	}
	opts, err := meta.Options(g, m)
	if err != nil {
		return nil, err
	}
	b := NewBase(g, meta.Identifier(g, m), meta.Version(g, m), opts)
	b.meta = m
	return b, nil
}

// Graph returns the scene the component lives in.
func (b *Base) Graph() scene.Graph { return b.g }

// Identifier returns the plugin identifier.
func (b *Base) Identifier() string { return b.identifier }

// Version returns the plugin version.
func (b *Base) Version() string { return b.version }

// Options returns the live option bag.
func (b *Base) Options() Options { return b.options }

// Logger returns a logger tagged with the component identifier.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Meta returns the component meta node, or Null before the skeleton exists.
func (b *Base) Meta() scene.NodeID { return b.meta }

// HasMeta reports whether the component meta exists.
func (b *Base) HasMeta() bool {
	return !scene.IsNull(b.meta) && b.g.Exists(b.meta)
}

// EnsureMeta creates the component meta on first use.
func (b *Base) EnsureMeta() (scene.NodeID, error) {
	if b.HasMeta() {
		return b.meta, nil
	}
	m, err := meta.Create(b.g, b.identifier, b.version, b.options)
	if err != nil {
		return scene.Null, err
	}
	b.meta = m
	return m, nil
}

// SaveOptions writes the option bag back to the meta.
func (b *Base) SaveOptions() error {
	if !b.HasMeta() {
		return nil
	}
	return meta.SetOptions(b.g, b.meta, b.options)
}

// Name makes a unique name with the component's description and side.
func (b *Base) Name(prefix, suffix string) string {
	return naming.MakeName(b.g, prefix, b.options.Description()+" "+suffix, b.side(), 1)
}

func (b *Base) side() string {
	if s := b.options.Side(); s != "" {
		return s
	}
	return naming.Middle
}

// MarkAsSkeletalRoot links joint as the skeleton root, creating the meta
// if needed.
func (b *Base) MarkAsSkeletalRoot(joint scene.NodeID) error {
	m, err := b.EnsureMeta()
	if err != nil {
		return err
	}
	return meta.MarkAsSkeletalRoot(b.g, joint, m)
}

// SkeletonRoot returns the skeleton root, or Null.
func (b *Base) SkeletonRoot() scene.NodeID {
	if !b.HasMeta() {
		return scene.Null
	}
	return meta.SkeletonRoot(b.g, b.meta)
}

// GuideRoot returns the guide root, or Null.
func (b *Base) GuideRoot() scene.NodeID {
	if !b.HasMeta() {
		return scene.Null
	}
	return meta.GuideRoot(b.g, b.meta)
}

// ControlRoot returns the control root, or Null.
func (b *Base) ControlRoot() scene.NodeID {
	if !b.HasMeta() {
		return scene.Null
	}
	return meta.ControlRoot(b.g, b.meta)
}

// CreateGuideRoot creates the guide root transform under parent. It is not
// idempotent; the rig calls it once.
func (b *Base) CreateGuideRoot(parent scene.NodeID) (scene.NodeID, error) {
	return b.createRoot(parent, "guides", meta.MarkAsGuideRoot)
}

// CreateControlRoot creates the control root transform under parent. It is
// not idempotent; the rig calls it once per build.
func (b *Base) CreateControlRoot(parent scene.NodeID) (scene.NodeID, error) {
	return b.createRoot(parent, "controls", meta.MarkAsControlRoot)
}

func (b *Base) createRoot(parent scene.NodeID, suffix string, mark func(scene.Graph, scene.NodeID, scene.NodeID) error) (scene.NodeID, error) {
	m, err := b.EnsureMeta()
	if err != nil {
		return scene.Null, err
	}
	root, err := b.g.CreateNode(scene.TypeTransform, b.Name(naming.Org, suffix), parent)
	if err != nil {
		return scene.Null, oops.In("component").With("component", b.identifier).Wrap(err)
	}
	if err := mark(b.g, root, m); err != nil {
		return scene.Null, err
	}
	return root, nil
}

// Tag indexes node under label on the component meta.
func (b *Base) Tag(node scene.NodeID, label string) error {
	m, err := b.EnsureMeta()
	if err != nil {
		return err
	}
	return meta.Tag(b.g, node, label, m)
}

// Find returns the nodes tagged with label.
func (b *Base) Find(label string) []scene.NodeID {
	if !b.HasMeta() {
		return nil
	}
	return meta.Find(b.g, label, b.meta)
}

// FindFirst returns the first node tagged with label, or Null.
func (b *Base) FindFirst(label string) scene.NodeID {
	if !b.HasMeta() {
		return scene.Null
	}
	return meta.FindFirst(b.g, label, b.meta)
}

// Bind makes control drive joint. With constrain set it adds parent and
// scale constraints; either way it records control as the joint's bound
// driver, which the rig uses to parent downstream control roots.
func (b *Base) Bind(joint, control scene.NodeID, constrain bool) error {
	if constrain {
		for _, kind := range []scene.ConstraintKind{scene.ConstraintParent, scene.ConstraintScale} {
			c, err := b.g.CreateConstraint(kind, []scene.NodeID{control}, joint, true)
			if err != nil {
				return oops.In("component").
					With("component", b.identifier).
					With("joint", b.g.Name(joint)).
					With("control", b.g.Name(control)).
					Wrap(err)
			}
			if err := b.Tag(c, LabelBindConstraints); err != nil {
				return err
			}
		}
	}
	if err := scene.EnsureAttr(b.g, joint, scene.AttrSpec{Name: AttrBound, Kind: scene.KindMessage}); err != nil {
		return err
	}
	return b.g.Connect(control, scene.Plug{Node: joint, Attr: AttrBound})
}

// ClearBindings deletes the constraints Bind created. Deleting the controls
// already cut the bound connections.
func (b *Base) ClearBindings() {
	for _, c := range b.Find(LabelBindConstraints) {
		if err := b.g.Delete(c); err != nil {
			b.logger.Warn("failed to delete bind constraint", "node", b.g.Name(c), "error", err)
		}
	}
}

// ParentComponent returns the meta of the component whose skeleton holds
// this component's skeleton root, or Null.
func (b *Base) ParentComponent() scene.NodeID {
	root := b.SkeletonRoot()
	if scene.IsNull(root) {
		return scene.Null
	}
	return meta.ResolveFromNode(b.g, b.g.Parent(root))
}

// ChildComponents returns the metas of components parented below this one.
// Without recursive only direct children are returned.
func (b *Base) ChildComponents(recursive bool) []scene.NodeID {
	root := b.SkeletonRoot()
	if scene.IsNull(root) {
		return nil
	}
	var out []scene.NodeID
	for _, n := range scene.Descendants(b.g, root) {
		m := meta.IsComponentRoot(b.g, n)
		if scene.IsNull(m) || m == b.meta || meta.SkeletonRoot(b.g, m) != n {
			continue
		}
		if !recursive && meta.ResolveFromNode(b.g, b.g.Parent(n)) != b.meta {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Joints returns the joints that belong to this component: the skeleton
// root and its descendants, minus those of child components.
func (b *Base) Joints() []scene.NodeID {
	root := b.SkeletonRoot()
	if scene.IsNull(root) {
		return nil
	}
	out := []scene.NodeID{root}
	for _, n := range scene.Descendants(b.g, root) {
		if b.g.Type(n) == scene.TypeJoint && meta.ResolveFromNode(b.g, n) == b.meta {
			out = append(out, n)
		}
	}
	return out
}
