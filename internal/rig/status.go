// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import (
	"github.com/crabrig/crab/internal/behaviour"
	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/scene"
)

// ComponentStatus describes one component of a rig.
type ComponentStatus struct {
	Meta        string `json:"meta"`
	Identifier  string `json:"identifier"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Side        string `json:"side"`
	Parent      string `json:"parent,omitempty"`
	Built       bool   `json:"built"`
}

// Status is a read-only summary of a rig.
type Status struct {
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Clean      bool              `json:"clean"`
	Components []ComponentStatus `json:"components"`
	Behaviours behaviour.Records `json:"behaviours"`
}

// Status reads the summary of the rig from the scene. It does not resolve
// plugins, so components of uninstalled types are listed too.
func (r *Rig) Status() (Status, error) {
	s := Status{
		Name:  r.Name(),
		State: r.State().String(),
		Clean: r.IsClean(),
	}
	for _, root := range r.SkeletonRoots() {
		m := meta.IsComponentRoot(r.g, root)
		opts, err := meta.Options(r.g, m)
		if err != nil {
			return Status{}, err
		}
		cs := ComponentStatus{
			Meta:       r.g.Name(m),
			Identifier: meta.Identifier(r.g, m),
			Version:    meta.Version(r.g, m),
			Built:      !scene.IsNull(meta.ControlRoot(r.g, m)),
		}
		cs.Description, _ = opts["description"].(string)
		cs.Side, _ = opts["side"].(string)
		if parent := meta.ResolveFromNode(r.g, r.g.Parent(root)); !scene.IsNull(parent) {
			cs.Parent = r.g.Name(parent)
		}
		s.Components = append(s.Components, cs)
	}
	records, err := r.Behaviours()
	if err != nil {
		return Status{}, err
	}
	s.Behaviours = records
	return s, nil
}
