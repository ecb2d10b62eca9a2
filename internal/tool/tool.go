// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package tool defines tool plugins: one-shot actions a user runs against
// a scene, outside the rig lifecycle.
package tool

import (
	"context"

	"github.com/crabrig/crab/internal/scene"
)

// Tool is a tool plugin.
type Tool interface {
	Identifier() string
	Version() string
	// Description is a one-line summary shown in tool listings.
	Description() string
	// Run performs the action. args are tool-specific.
	Run(ctx context.Context, g scene.Graph, args map[string]any) (Result, error)
}

// Result reports what a tool changed.
type Result struct {
	Message string
	Nodes   []scene.NodeID
}

// Identify returns the identifier of t. It is the factory's identity accessor.
func Identify(t Tool) string {
	return t.Identifier()
}

// VersionOf returns the version of t. It is the factory's version accessor.
func VersionOf(t Tool) string {
	return t.Version()
}
