// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import (
	"context"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

// Instance is a live component: the framework half (Base) and the plugin
// half (Component) of one component meta.
type Instance struct {
	*component.Base
	component.Component
}

// Instance returns the live component of meta node m. When the stored
// version is no longer installed the highest installed version is used.
func (r *Rig) Instance(m scene.NodeID) (*Instance, error) {
	b, err := component.FromMeta(r.g, m)
	if err != nil {
		return nil, err
	}
	d, ok := r.factories.Components.RequestVersion(b.Identifier(), b.Version())
	if !ok {
		d, ok = r.factories.Components.Request(b.Identifier())
		if !ok {
			return nil, oops.In("rig").Code(ErrUnknownPlugin).
				With("component", b.Identifier()).
				With("version", b.Version()).
				Errorf("component type is not installed")
		}
		r.logger.Warn("component version not installed, using latest",
			"component", b.Identifier(), "stored", b.Version(), "using", d.Version())
	}
	return &Instance{Base: b, Component: d.New(b)}, nil
}

// Components returns the live components of the rig in skeleton post-order.
// Components whose type cannot be resolved are logged and skipped.
func (r *Rig) Components() []*Instance {
	var out []*Instance
	for _, root := range r.SkeletonRoots() {
		inst, err := r.Instance(meta.IsComponentRoot(r.g, root))
		if err != nil {
			errutil.LogWarn(context.Background(), r.logger, "skipping component", err, "node", r.g.Name(root))
			continue
		}
		out = append(out, inst)
	}
	return out
}

// AddComponent creates a component of type typ below parent, which
// defaults to the skeleton org. An empty version requests the highest
// installed one. options override the plugin defaults. The scene selection
// is restored on return.
//
// On a built rig the new guide is created hidden and left unlinked; the
// next Edit links it.
func (r *Rig) AddComponent(ctx context.Context, typ string, parent scene.NodeID, version string, options map[string]any) (inst *Instance, err error) {
	ctx, span := tracer.Start(ctx, "rig.add_component",
		trace.WithAttributes(
			attribute.String("rig", r.Name()),
			attribute.String("component", typ),
		),
	)
	start := time.Now()
	defer func() {
		RecordTransition(TransitionAddComponent, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	selection := r.g.Selection()
	defer r.g.Select(selection...)

	errb := oops.In("rig").With("rig", r.Name()).With("component", typ)

	var (
		d  component.Descriptor
		ok bool
	)
	if version == "" {
		d, ok = r.factories.Components.Request(typ)
	} else {
		d, ok = r.factories.Components.RequestVersion(typ, version)
	}
	if !ok {
		err := errb.Code(ErrUnknownPlugin).With("version", version).Errorf("unknown component type")
		errutil.LogWarn(ctx, r.logger, "cannot add component", err)
		return nil, err
	}

	opts := d.DefaultOptions().Merge(options)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if scene.IsNull(parent) {
		parent = r.SkeletonOrg()
	}

	b := component.NewBase(r.g, d.Identifier(), d.Version(), opts)
	added := &Instance{Base: b, Component: d.New(b)}

	guideRoot := scene.Null
	defer func() {
		if err != nil {
			r.discard(ctx, added, guideRoot)
		}
	}()

	var created bool
	if perr := errb.Recover(func() {
		created, err = added.CreateSkeleton(ctx, parent)
	}); perr != nil {
		err = perr
	}
	if err != nil {
		return nil, wrapCode(errb, ErrSkeletonFailed, err)
	}
	if !created {
		return nil, errb.Code(ErrSkeletonFailed).Errorf("create_skeleton reported failure")
	}
	if !added.HasMeta() {
		r.logger.Warn("component created no meta", "component", typ)
		return added, nil
	}

	guideRoot, err = added.CreateGuideRoot(r.GuideOrg())
	if err != nil {
		return nil, errb.Code(ErrSkeletonFailed).Wrap(err)
	}
	if perr := errb.Recover(func() {
		err = added.CreateGuide(ctx, guideRoot)
	}); perr != nil {
		err = perr
	}
	if err != nil {
		return nil, wrapCode(errb, ErrSkeletonFailed, err)
	}

	if r.State() == Built {
		if err := r.g.SetAttr(guideRoot, scene.AttrVisibility, false); err != nil {
			return nil, errb.Wrap(err)
		}
	} else if err := added.LinkGuide(ctx); err != nil {
		return nil, wrapCode(errb, ErrComponentEditFailed, err)
	}

	r.logger.Info("component added", "component", typ, "version", d.Version(), "meta", r.g.Name(added.Meta()))
	return added, nil
}

// discard deletes whatever a failed AddComponent left behind.
func (r *Rig) discard(ctx context.Context, inst *Instance, guideRoot scene.NodeID) {
	nodes := []scene.NodeID{guideRoot}
	if inst.HasMeta() {
		nodes = append(nodes, inst.GuideRoot(), inst.SkeletonRoot(), inst.Meta())
	}
	for _, n := range nodes {
		if !scene.IsNull(n) {
			r.deleteQuietly(n, "partial component")
		}
	}
	r.logger.WarnContext(ctx, "discarded partially added component", "component", inst.Identifier())
}

// RemoveComponent removes the component owning node. A built rig is edited
// first so child components get their guides back. It returns false with a
// REMOVAL_REFUSED error while any of the component's joints is skinned.
//
// Components implementing component.Remover remove themselves; all others
// use Base.Remove.
func (r *Rig) RemoveComponent(ctx context.Context, node scene.NodeID) (bool, error) {
	m := meta.ResolveFromNode(r.g, node)
	if scene.IsNull(m) {
		return false, oops.In("rig").Code("NODE_NOT_FOUND").With("node", r.g.Name(node)).Errorf("node does not belong to a component")
	}
	if r.State() == Built {
		if err := r.Edit(ctx); err != nil {
			return false, err
		}
	}

	var remove func() error
	inst, err := r.Instance(m)
	switch {
	case err == nil:
		remove = inst.Base.Remove
		if rm, ok := inst.Component.(component.Remover); ok {
			remove = rm.Remove
		}
	case errutil.Code(err) == ErrUnknownPlugin:
		b, err := component.FromMeta(r.g, m)
		if err != nil {
			return false, err
		}
		inst = &Instance{Base: b}
		remove = b.Remove
	default:
		return false, err
	}

	if err := remove(); err != nil {
		errutil.LogWarn(ctx, r.logger, "component removal refused", err)
		return false, err
	}
	r.logger.Info("component removed", "component", inst.Identifier())
	return true, nil
}

// wrapCode wraps err, adding code only if err carries none yet.
func wrapCode(b oops.OopsErrorBuilder, code string, err error) error {
	if errutil.Code(err) != "" {
		return b.Wrap(err)
	}
	return b.Code(code).Wrap(err)
}
