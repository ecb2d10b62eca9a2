// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package component

import (
	"context"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// Singular tags and option names.
const (
	SingularIdentifier = "Singular"
	SingularVersion    = "1.0.0"

	LabelJoints      = "Joints"
	LabelGuides      = "Guides"
	LabelGuideLinks  = "GuideLinks"
	LabelControls    = "Controls"
	OptionControlRad = "control_radius"
)

// SingularDescriptor describes the built-in single-joint component.
type SingularDescriptor struct{}

// Identifier returns "Singular".
func (SingularDescriptor) Identifier() string { return SingularIdentifier }

// Version returns the component version.
func (SingularDescriptor) Version() string { return SingularVersion }

// DefaultOptions returns the Singular option bag.
func (SingularDescriptor) DefaultOptions() Options {
	o := Defaults("Singular")
	o[OptionControlRad] = 1.0
	return o
}

// New creates a Singular instance.
func (SingularDescriptor) New(b *Base) Component {
	return &Singular{Base: b}
}

// Singular is one joint, one guide and one control.
type Singular struct {
	*Base
}

// CreateSkeleton creates the joint under parent.
func (s *Singular) CreateSkeleton(_ context.Context, parent scene.NodeID) (bool, error) {
	g := s.Graph()
	joint, err := g.CreateNode(scene.TypeJoint, s.Name(naming.Skeleton, ""), parent)
	if err != nil {
		return false, oops.In("component").With("component", s.Identifier()).Wrap(err)
	}
	if err := s.MarkAsSkeletalRoot(joint); err != nil {
		return false, err
	}
	if err := s.Tag(joint, LabelJoints); err != nil {
		return false, err
	}
	return true, nil
}

// CreateGuide places a locator guide on the joint.
func (s *Singular) CreateGuide(_ context.Context, parent scene.NodeID) error {
	g := s.Graph()
	joint := s.FindFirst(LabelJoints)
	if scene.IsNull(joint) {
		return oops.In("component").With("component", s.Identifier()).Errorf("joint is not tagged")
	}
	guide, err := g.CreateNode(scene.TypeTransform, s.Name(naming.Guide, ""), parent)
	if err != nil {
		return err
	}
	if _, err := g.CreateNode(scene.TypeLocator, g.Name(guide)+"Shape", guide); err != nil {
		return err
	}
	if err := scene.SetWorldMatrix(g, guide, scene.WorldMatrix(g, joint)); err != nil {
		return err
	}
	return s.Tag(guide, LabelGuides)
}

// LinkGuide point-constrains the joint to the guide. An existing link is
// kept.
func (s *Singular) LinkGuide(context.Context) error {
	g := s.Graph()
	guide, joint := s.FindFirst(LabelGuides), s.FindFirst(LabelJoints)
	if scene.IsNull(guide) || scene.IsNull(joint) || len(s.Find(LabelGuideLinks)) > 0 {
		return nil
	}
	c, err := g.CreateConstraint(scene.ConstraintPoint, []scene.NodeID{guide}, joint, false)
	if err != nil {
		return err
	}
	return s.Tag(c, LabelGuideLinks)
}

// UnlinkGuide bakes the guide position into the joint and removes the link.
func (s *Singular) UnlinkGuide(context.Context) error {
	g := s.Graph()
	guide, joint := s.FindFirst(LabelGuides), s.FindFirst(LabelJoints)
	if !scene.IsNull(guide) && !scene.IsNull(joint) {
		world := scene.WorldMatrix(g, joint)
		pos := scene.WorldMatrix(g, guide)
		world[12], world[13], world[14] = pos[12], pos[13], pos[14]
		if err := scene.SetWorldMatrix(g, joint, world); err != nil {
			return err
		}
	}
	for _, c := range s.Find(LabelGuideLinks) {
		if err := g.Delete(c); err != nil {
			s.Logger().Warn("failed to delete guide link", "node", g.Name(c), "error", err)
		}
	}
	return nil
}

// CreateRig builds one circle control on the joint and binds the joint to it.
func (s *Singular) CreateRig(_ context.Context, parent scene.NodeID) (bool, error) {
	g := s.Graph()
	joint := s.FindFirst(LabelJoints)
	if scene.IsNull(joint) {
		return false, oops.In("component").With("component", s.Identifier()).Errorf("joint is not tagged")
	}
	control, err := g.CreateNode(scene.TypeTransform, s.Name(naming.Control, ""), parent)
	if err != nil {
		return false, err
	}
	radius := s.Options().Float(OptionControlRad, 1)
	if _, err := scene.CreateCurve(g, g.Name(control)+"Shape", control, scene.CircleCurve(radius)); err != nil {
		return false, err
	}
	if err := scene.SetWorldMatrix(g, control, scene.WorldMatrix(g, joint)); err != nil {
		return false, err
	}
	if err := s.Tag(control, LabelControls); err != nil {
		return false, err
	}
	if err := s.Bind(joint, control, true); err != nil {
		return false, err
	}
	return true, nil
}
