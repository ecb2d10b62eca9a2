// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package behaviour

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/scene"
)

// Constrain options.
const (
	ConstrainIdentifier = "Constrain"
	ConstrainVersion    = "1.0.0"

	OptionKind           = "kind"
	OptionDrivers        = "drivers"
	OptionDriven         = "driven"
	OptionMaintainOffset = "maintain_offset"
)

// Constrain constrains one node to others by name. It is the simplest
// cross-component wiring: a space or a follow relationship.
type Constrain struct{}

// Identifier returns "Constrain".
func (Constrain) Identifier() string { return ConstrainIdentifier }

// Version returns the behaviour version.
func (Constrain) Version() string { return ConstrainVersion }

// DefaultOptions returns a parent constraint with no targets.
func (Constrain) DefaultOptions() map[string]any {
	return map[string]any{
		OptionKind:           string(scene.ConstraintParent),
		OptionDrivers:        []any{},
		OptionDriven:         "",
		OptionMaintainOffset: true,
	}
}

var constraintKinds = []scene.ConstraintKind{
	scene.ConstraintParent,
	scene.ConstraintPoint,
	scene.ConstraintAim,
	scene.ConstraintScale,
	scene.ConstraintPoleVector,
}

// Apply creates the constraint and tracks it.
func (Constrain) Apply(_ context.Context, r Rig, options map[string]any) error {
	g := r.Graph()
	kind := scene.ConstraintKind(stringOpt(options, OptionKind, string(scene.ConstraintParent)))
	if !slices.Contains(constraintKinds, kind) {
		return oops.In("behaviour").Code("INVALID_OPTIONS").With("kind", string(kind)).Errorf("unknown constraint kind")
	}

	drivenName := stringOpt(options, OptionDriven, "")
	driven, ok := scene.FindByName(g, drivenName)
	if !ok {
		return oops.In("behaviour").Code("NODE_NOT_FOUND").With("driven", drivenName).Errorf("driven node not found")
	}

	var drivers []scene.NodeID
	for _, name := range stringsOpt(options, OptionDrivers) {
		id, ok := scene.FindByName(g, name)
		if !ok {
			return oops.In("behaviour").Code("NODE_NOT_FOUND").With("driver", name).Errorf("driver node not found")
		}
		drivers = append(drivers, id)
	}
	if len(drivers) == 0 {
		return oops.In("behaviour").Code("INVALID_OPTIONS").Errorf("no drivers given")
	}

	maintain, _ := options[OptionMaintainOffset].(bool)
	if _, set := options[OptionMaintainOffset]; !set {
		maintain = true
	}
	c, err := g.CreateConstraint(kind, drivers, driven, maintain)
	if err != nil {
		return oops.In("behaviour").With("driven", drivenName).Wrap(err)
	}
	slog.Debug("behaviour constraint created", "kind", kind, "driven", drivenName, "drivers", len(drivers))
	return r.Track(c)
}

func stringOpt(options map[string]any, key, def string) string {
	if s, ok := options[key].(string); ok && s != "" {
		return s
	}
	return def
}

// stringsOpt accepts a single name or a list of names.
func stringsOpt(options map[string]any, key string) []string {
	switch v := options[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	default:
		return nil
	}
}
