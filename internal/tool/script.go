// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package tool

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	pluginlua "github.com/crabrig/crab/internal/plugin/lua"
	"github.com/crabrig/crab/internal/scene"
)

// FnRun is the Lua entry point of a tool script.
const FnRun = "run"

// Script is a tool implemented by a Lua script. run(args) may return a
// message string.
type Script struct {
	script *pluginlua.Script
}

// LoadScript returns the LOAD_SOURCE loader for tool scripts.
func LoadScript(funcs *hostfunc.Functions) plugin.LoadFunc[Tool] {
	return func(m *plugin.Manifest, dir string) (Tool, error) {
		s, err := pluginlua.Load(context.Background(), m, dir, funcs)
		if err != nil {
			return nil, err
		}
		return &Script{script: s}, nil
	}
}

// NewScript wraps a loaded script.
func NewScript(s *pluginlua.Script) *Script {
	return &Script{script: s}
}

// Identifier returns the manifest name.
func (s *Script) Identifier() string { return s.script.Name() }

// Version returns the manifest version.
func (s *Script) Version() string { return s.script.Version() }

// Description returns the manifest description.
func (s *Script) Description() string { return s.script.Manifest().Description }

// Run calls run(args).
func (s *Script) Run(ctx context.Context, g scene.Graph, args map[string]any) (Result, error) {
	if args == nil {
		args = map[string]any{}
	}
	ret, err := s.script.Call(ctx, g, FnRun, nil, args)
	if err != nil {
		return Result{}, oops.In("tool").With("tool", s.Identifier()).Wrap(err)
	}
	if ret == nil {
		return Result{}, nil
	}
	return Result{Message: fmt.Sprint(ret)}, nil
}
