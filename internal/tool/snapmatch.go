// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package tool

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/internal/snap"
)

// SnapMatchIdentifier names the snap matching tool.
const SnapMatchIdentifier = "snap-match"

// ArgLabel is the snap label argument.
const ArgLabel = "label"

// SnapMatch matches the targets of a snap label onto their sources. With no
// label it lists the known labels instead.
type SnapMatch struct{}

// Identifier returns "snap-match".
func (SnapMatch) Identifier() string { return SnapMatchIdentifier }

// Version returns the tool version.
func (SnapMatch) Version() string { return "1.0.0" }

// Description returns the tool summary.
func (SnapMatch) Description() string { return "Match snap targets onto their sources" }

// Run matches the label in args.
func (SnapMatch) Run(_ context.Context, g scene.Graph, args map[string]any) (Result, error) {
	label, _ := args[ArgLabel].(string)
	if label == "" {
		labels := snap.Labels(g)
		if len(labels) == 0 {
			return Result{Message: "no snap labels"}, nil
		}
		return Result{Message: fmt.Sprintf("snap labels: %v", labels)}, nil
	}
	moved, err := snap.Match(g, label)
	if err != nil {
		return Result{}, oops.In("tool").With("tool", SnapMatchIdentifier).Wrap(err)
	}
	return Result{Message: fmt.Sprintf("matched %d node(s) for %q", len(moved), label), Nodes: moved}, nil
}
