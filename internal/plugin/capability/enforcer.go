// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package capability gates the scene access of sandboxed plugins.
//
// A manifest grants capabilities as gobwas/glob patterns over dotted names,
// where '*' stays inside one segment and '**' spans any number of them:
// "scene.*" grants scene.read and scene.write, "**" grants everything.
package capability

import (
	"maps"
	"slices"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the Lua host functions.
const (
	SceneRead        = "scene.read"
	SceneWrite       = "scene.write"
	MetaWrite        = "meta.write"
	ConstraintCreate = "constraint.create"
)

// Known lists every capability a host function may require.
var Known = []string{SceneRead, SceneWrite, MetaWrite, ConstraintCreate}

type grant struct {
	pattern string
	match   glob.Glob
}

func compile(patterns []string) ([]grant, error) {
	out := make([]grant, 0, len(patterns))
	for i, p := range patterns {
		errb := oops.In("capability").Code("INVALID_CAPABILITY").With("index", i).With("pattern", p)
		if p == "" {
			return nil, errb.Errorf("empty capability pattern")
		}
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, errb.Wrap(err)
		}
		out = append(out, grant{pattern: p, match: g})
	}
	return out, nil
}

// Enforcer records the grants of each loaded plugin. It is safe for
// concurrent use and its zero value is ready.
type Enforcer struct {
	mu     sync.RWMutex
	grants map[string][]grant
}

// NewEnforcer returns an empty Enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{grants: map[string][]grant{}}
}

// SetGrants replaces the grants of plugin. Nothing changes when a pattern
// fails to compile.
func (e *Enforcer) SetGrants(plugin string, patterns []string) error {
	if plugin == "" {
		return oops.In("capability").Code("INVALID_CAPABILITY").Errorf("plugin name cannot be empty")
	}
	compiled, err := compile(patterns)
	if err != nil {
		return oops.With("plugin", plugin).Wrap(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grants == nil {
		e.grants = map[string][]grant{}
	}
	e.grants[plugin] = compiled
	return nil
}

// RemoveGrants forgets plugin.
func (e *Enforcer) RemoveGrants(plugin string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, plugin)
}

// Grants returns the patterns granted to plugin, or nil when it is unknown.
func (e *Enforcer) Grants(plugin string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gs, ok := e.grants[plugin]
	if !ok {
		return nil
	}
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.pattern
	}
	return out
}

// Effective returns the Known capabilities plugin holds.
func (e *Enforcer) Effective(plugin string) []string {
	var out []string
	for _, c := range Known {
		if e.Check(plugin, c) {
			out = append(out, c)
		}
	}
	return out
}

// Unmatched returns the patterns granted to plugin that match no Known
// capability.
func (e *Enforcer) Unmatched(plugin string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []string
	for _, g := range e.grants[plugin] {
		if !slices.ContainsFunc(Known, g.match.Match) {
			out = append(out, g.pattern)
		}
	}
	return out
}

// Plugins returns the names holding grants, sorted.
func (e *Enforcer) Plugins() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.grants))
}

// Check reports whether plugin holds capability.
func (e *Enforcer) Check(plugin, capability string) bool {
	if capability == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.ContainsFunc(e.grants[plugin], func(g grant) bool {
		return g.match.Match(capability)
	})
}

// Require is Check returning a CAPABILITY_DENIED error on refusal.
func (e *Enforcer) Require(plugin, capability string) error {
	if e.Check(plugin, capability) {
		return nil
	}
	return oops.In("capability").Code("CAPABILITY_DENIED").
		With("plugin", plugin).
		With("capability", capability).
		Errorf("%s requires %s", plugin, capability)
}
