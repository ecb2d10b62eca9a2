// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/process"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

type hook struct {
	name string
	fn   func(process.Process) func(context.Context, process.Rig) error
}

var (
	hookSnapshot  = hook{"snapshot", func(p process.Process) func(context.Context, process.Rig) error { return p.Snapshot }}
	hookPostEdit  = hook{"post_edit", func(p process.Process) func(context.Context, process.Rig) error { return p.PostEdit }}
	hookPreBuild  = hook{"pre_build", func(p process.Process) func(context.Context, process.Rig) error { return p.PreBuild }}
	hookPostBuild = hook{"post_build", func(p process.Process) func(context.Context, process.Rig) error { return p.PostBuild }}
)

// Edit tears the control rig down and relinks the guides. It is a no-op on
// an editable rig whose last build finished; a rig left unclean by a failed
// build is edited again to recover it.
func (r *Rig) Edit(ctx context.Context) error {
	if r.State() == Editable && r.IsClean() {
		return nil
	}
	return r.transition(ctx, TransitionEdit, &r.signals.EditStarted, &r.signals.EditComplete, r.edit)
}

// Build edits the rig, then builds every component's controls, applies the
// behaviours in order and runs the process hooks around them. A failure
// aborts the build and leaves the rig unclean.
func (r *Rig) Build(ctx context.Context) error {
	if err := r.Edit(ctx); err != nil {
		return err
	}
	return r.transition(ctx, TransitionBuild, &r.signals.BuildStarted, &r.signals.BuildComplete, r.build)
}

func (r *Rig) transition(ctx context.Context, name string, started *Signal[int], complete *Signal[bool], run func(context.Context, []*Instance) error) (err error) {
	ctx, span := tracer.Start(ctx, "rig."+name,
		trace.WithAttributes(attribute.String("rig", r.Name())),
	)
	start := time.Now()
	comps := r.Components()
	span.SetAttributes(attribute.Int("components", len(comps)))

	defer func() {
		RecordTransition(name, err, time.Since(start))
		complete.Emit(err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			errutil.LogError(r.logger, "rig "+name+" failed", err)
		} else {
			r.logger.Info("rig "+name+" complete", "components", len(comps), "duration", time.Since(start))
		}
		span.End()
	}()

	started.Emit(len(comps))
	if perr := oops.In("rig").With("rig", r.Name()).With("transition", name).Recover(func() {
		err = run(ctx, comps)
	}); perr != nil {
		err = perr
	}
	return err
}

func (r *Rig) edit(ctx context.Context, comps []*Instance) error {
	procs := r.factories.ActiveProcesses()
	if err := r.runHook(ctx, procs, hookSnapshot); err != nil {
		return err
	}

	r.signals.PerformingAction.Emit("removing controls")
	for _, root := range r.ControlRoots() {
		r.deleteQuietly(root, "control root")
	}
	for _, n := range meta.Find(r.g, LabelBehaviourNodes, r.meta) {
		r.deleteQuietly(n, "behaviour node")
	}
	for _, c := range comps {
		c.ClearBindings()
	}

	if err := r.runHook(ctx, procs, hookPostEdit); err != nil {
		return err
	}

	for _, c := range comps {
		r.signals.PerformingAction.Emit("linking " + r.g.Name(c.Meta()))
		if guide := c.GuideRoot(); !scene.IsNull(guide) {
			if err := r.g.SetAttr(guide, scene.AttrVisibility, true); err != nil {
				return oops.In("rig").With("rig", r.Name()).With("node", r.g.Name(guide)).Wrap(err)
			}
		}
		if err := c.LinkGuide(ctx); err != nil {
			return componentErr(c, ErrComponentEditFailed, "link_guide", err)
		}
		if err := c.SaveOptions(); err != nil {
			return componentErr(c, ErrComponentEditFailed, "link_guide", err)
		}
	}
	return r.setClean(true)
}

func (r *Rig) build(ctx context.Context, comps []*Instance) error {
	if err := r.setClean(false); err != nil {
		return err
	}
	procs := r.factories.ActiveProcesses()
	if err := r.runHook(ctx, procs, hookPreBuild); err != nil {
		return err
	}

	for _, c := range comps {
		r.signals.PerformingAction.Emit("unlinking " + r.g.Name(c.Meta()))
		if guide := c.GuideRoot(); !scene.IsNull(guide) {
			if err := r.g.SetAttr(guide, scene.AttrVisibility, false); err != nil {
				return oops.In("rig").With("rig", r.Name()).With("node", r.g.Name(guide)).Wrap(err)
			}
		}
		if err := c.UnlinkGuide(ctx); err != nil {
			return componentErr(c, ErrComponentBuildFailed, "unlink_guide", err)
		}
	}

	roots := make(map[scene.NodeID]*Instance, len(comps))
	order := make([]scene.NodeID, 0, len(comps))
	for _, c := range comps {
		root := c.SkeletonRoot()
		roots[root] = c
		order = append(order, root)
	}
	for _, root := range byDepth(r.g, order) {
		c := roots[root]
		r.signals.PerformingAction.Emit("building " + r.g.Name(c.Meta()))
		if err := r.buildComponent(ctx, c); err != nil {
			return err
		}
	}

	if err := r.applyBehaviours(ctx); err != nil {
		return err
	}
	if err := r.runHook(ctx, procs, hookPostBuild); err != nil {
		return err
	}
	return r.setClean(true)
}

func (r *Rig) buildComponent(ctx context.Context, c *Instance) error {
	parent := r.ControlParent(c.SkeletonRoot())
	root, err := c.CreateControlRoot(parent)
	if err != nil {
		return componentErr(c, ErrComponentBuildFailed, "create_rig", err)
	}
	ok, err := c.CreateRig(ctx, root)
	if err != nil {
		return componentErr(c, ErrComponentBuildFailed, "create_rig", err)
	}
	if !ok {
		return componentErr(c, ErrComponentBuildFailed, "create_rig", fmt.Errorf("create_rig reported failure"))
	}
	return c.SaveOptions()
}

// ControlParent returns the control a component rooted at skeletonRoot
// builds below: the bound driver of the nearest bound ancestor joint, or the
// control org.
func (r *Rig) ControlParent(skeletonRoot scene.NodeID) scene.NodeID {
	org := r.SkeletonOrg()
	for n := r.g.Parent(skeletonRoot); !scene.IsNull(n) && n != org; n = r.g.Parent(n) {
		if ctl := scene.Input(r.g, n, component.AttrBound); !scene.IsNull(ctl) && r.g.Exists(ctl) {
			return ctl
		}
	}
	return r.ControlOrg()
}

func (r *Rig) runHook(ctx context.Context, procs []process.Process, h hook) error {
	for _, p := range procs {
		r.signals.PerformingAction.Emit(h.name + " " + p.Identifier())
		if err := h.fn(p)(ctx, r); err != nil {
			return wrapCode(oops.In("rig").
				With("rig", r.Name()).
				With("process", p.Identifier()).
				With("hook", h.name), ErrProcessFailed, err)
		}
	}
	return nil
}

func (r *Rig) deleteQuietly(n scene.NodeID, what string) {
	if !r.g.Exists(n) {
		return
	}
	name := r.g.Name(n)
	if err := r.g.Delete(n); err != nil {
		r.logger.Warn("failed to delete "+what, "node", name, "error", err)
	}
}

func componentErr(c *Instance, code, step string, err error) error {
	return wrapCode(oops.In("rig").
		With("component", c.Identifier()).
		With("meta", c.Graph().Name(c.Meta())).
		With("step", step), code, err)
}
