// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"context"

	"github.com/crabrig/crab/internal/scene"
)

// BoneHideIdentifier names the bone hiding process.
const BoneHideIdentifier = "BoneHide"

// BoneHide hides joints in the built rig and shows them again for editing.
type BoneHide struct {
	Hooks
}

// Identifier returns "BoneHide".
func (BoneHide) Identifier() string { return BoneHideIdentifier }

// Version returns the process version.
func (BoneHide) Version() string { return "1.0.0" }

// PostEdit draws joints as bones.
func (BoneHide) PostEdit(_ context.Context, r Rig) error {
	return setDrawStyle(r, scene.DrawStyleBone)
}

// PostBuild hides joints.
func (BoneHide) PostBuild(_ context.Context, r Rig) error {
	return setDrawStyle(r, scene.DrawStyleNone)
}

func setDrawStyle(r Rig, style int) error {
	g := r.Graph()
	for _, j := range Joints(r) {
		if !g.HasAttr(j, scene.AttrDrawStyle) {
			continue
		}
		if err := g.SetAttr(j, scene.AttrDrawStyle, style); err != nil {
			return err
		}
	}
	return nil
}
