// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"context"
	"encoding/json"
	"strings"

	"cogentcore.org/core/math32"
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/scene"
)

// PoseValidationIdentifier names the pose validation process.
const PoseValidationIdentifier = "PoseValidation"

// AttrAPose is the string attribute on the rig meta holding the joint
// matrices captured before the last build.
const AttrAPose = "a_pose"

// ErrPoseMismatch is the code returned when an edit is declined because
// joints moved away from the stored pose.
const ErrPoseMismatch = "POSE_MISMATCH"

const poseTolerance = 1e-4

// ConfirmFunc asks the user whether to continue. It returns true to proceed.
type ConfirmFunc func(ctx context.Context, message string) bool

// PoseValidation stores the joint pose the rig was built from and checks it
// before Edit destroys the controls. A posed rig loses its pose on edit, so
// the user is asked first. Without a Confirm function the mismatch is logged
// and the edit proceeds.
type PoseValidation struct {
	Hooks
	Confirm ConfirmFunc
}

// Identifier returns "PoseValidation".
func (PoseValidation) Identifier() string { return PoseValidationIdentifier }

// Version returns the process version.
func (PoseValidation) Version() string { return "1.0.0" }

// PreBuild stores the local matrix of every joint.
func (PoseValidation) PreBuild(_ context.Context, r Rig) error {
	g := r.Graph()
	pose := make(map[string]math32.Matrix4)
	for _, j := range Joints(r) {
		pose[g.Name(j)] = scene.LocalMatrix(g, j)
	}
	data, err := json.Marshal(pose)
	if err != nil {
		return oops.In("process").With("process", PoseValidationIdentifier).Wrap(err)
	}
	return ensureString(g, r.Meta(), AttrAPose, string(data))
}

// Snapshot compares the joints against the stored pose.
func (p PoseValidation) Snapshot(ctx context.Context, r Rig) error {
	moved, err := MovedJoints(r)
	if err != nil || len(moved) == 0 {
		return err
	}
	msg := "joints are not in the stored pose: " + strings.Join(moved, ", ") + ". Continue and lose the pose?"
	if p.Confirm == nil {
		logger(PoseValidationIdentifier, r).Warn("joints are not in the stored pose, continuing", "joints", moved)
		return nil
	}
	if !p.Confirm(ctx, msg) {
		return oops.In("process").Code(ErrPoseMismatch).With("joints", moved).Errorf("edit declined: rig is posed")
	}
	return nil
}

// MovedJoints returns the names of joints whose local matrix differs from
// the stored pose. Joints missing from either side are ignored.
func MovedJoints(r Rig) ([]string, error) {
	g := r.Graph()
	data := scene.String(g, r.Meta(), AttrAPose)
	if data == "" {
		return nil, nil
	}
	var pose map[string]math32.Matrix4
	if err := json.Unmarshal([]byte(data), &pose); err != nil {
		return nil, oops.In("process").With("process", PoseValidationIdentifier).Code("PROCESS_FAILED").Wrap(err)
	}
	var moved []string
	for _, j := range Joints(r) {
		name := g.Name(j)
		stored, ok := pose[name]
		if !ok {
			continue
		}
		current := scene.LocalMatrix(g, j)
		for i := range current {
			if math32.Abs(current[i]-stored[i]) > poseTolerance {
				moved = append(moved, name)
				break
			}
		}
	}
	return moved, nil
}
