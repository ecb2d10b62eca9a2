// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package lua

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	"github.com/crabrig/crab/internal/scene"
)

// Script is a loaded Lua plugin. Every Call runs in a fresh state, so
// scripts cannot keep state between calls; anything that must persist
// belongs in the scene.
type Script struct {
	manifest *plugin.Manifest
	code     string
	defines  map[string]bool
	factory  *StateFactory
	funcs    *hostfunc.Functions
}

// Load reads the entry file of a lua-runtime manifest, checks that it runs,
// and grants the manifest's capabilities to the plugin.
func Load(ctx context.Context, m *plugin.Manifest, dir string, funcs *hostfunc.Functions) (*Script, error) {
	if m.Runtime != plugin.RuntimeLua || m.LuaPlugin == nil {
		return nil, oops.In("lua").Code("PLUGIN_LOAD_FAILED").With("plugin", m.Name).Errorf("not a lua plugin")
	}
	entryPath := filepath.Clean(filepath.Join(dir, m.LuaPlugin.Entry))
	code, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, oops.In("lua").Code("PLUGIN_LOAD_FAILED").
			With("plugin", m.Name).
			With("path", entryPath).
			Hint("failed to read entry file").
			Wrap(err)
	}
	return New(ctx, m, string(code), funcs)
}

// New builds a Script from source. The chunk is executed once in a
// throwaway state to catch syntax errors and record its functions.
func New(ctx context.Context, m *plugin.Manifest, code string, funcs *hostfunc.Functions) (*Script, error) {
	if funcs == nil {
		return nil, oops.In("lua").With("plugin", m.Name).Errorf("host functions are required")
	}
	s := &Script{
		manifest: m,
		code:     code,
		defines:  make(map[string]bool),
		factory:  NewStateFactory(WithPrintLogger(funcs.Logger().With("plugin", m.Name))),
		funcs:    funcs,
	}

	if err := funcs.Enforcer().SetGrants(m.Name, m.Capabilities); err != nil {
		return nil, oops.In("lua").Code("INVALID_MANIFEST").With("plugin", m.Name).Wrap(err)
	}
	if unknown := funcs.Enforcer().Unmatched(m.Name); len(unknown) > 0 {
		funcs.Logger().Warn("plugin requests capabilities that do not exist",
			"plugin", m.Name, "patterns", unknown, "granted", funcs.Enforcer().Effective(m.Name))
	}

	L, err := s.factory.NewState(ctx)
	if err != nil {
		funcs.Enforcer().RemoveGrants(m.Name)
		return nil, oops.In("lua").With("plugin", m.Name).Hint("failed to create validation state").Wrap(err)
	}
	defer L.Close()
	funcs.Register(L, m.Name, scene.NewMemory())

	builtin := make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		builtin[k.String()] = true
	})
	if err := L.DoString(code); err != nil {
		funcs.Enforcer().RemoveGrants(m.Name)
		return nil, oops.In("lua").Code("PLUGIN_LOAD_FAILED").
			With("plugin", m.Name).
			Hint("script failed to load").
			Wrap(err)
	}
	L.G.Global.ForEach(func(k, v lua.LValue) {
		if v.Type() == lua.LTFunction && !builtin[k.String()] {
			s.defines[k.String()] = true
		}
	})
	return s, nil
}

// Manifest returns the plugin manifest.
func (s *Script) Manifest() *plugin.Manifest {
	return s.manifest
}

// Name returns the plugin identifier.
func (s *Script) Name() string {
	return s.manifest.Name
}

// Version returns the plugin version.
func (s *Script) Version() string {
	return s.manifest.Version
}

// Defines reports whether the script declares a global function fn.
func (s *Script) Defines(fn string) bool {
	return s.defines[fn]
}

// Functions lists the global functions the script declares, sorted.
func (s *Script) Functions() []string {
	out := make([]string, 0, len(s.defines))
	for name := range s.defines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Call runs fn(args...) against g and returns its first result converted to
// Go. Calling a function the script does not define is a no-op returning nil.
func (s *Script) Call(ctx context.Context, g scene.Graph, fn string, extra []hostfunc.Func, args ...any) (any, error) {
	if !s.Defines(fn) {
		return nil, nil
	}

	L, err := s.factory.NewState(ctx)
	if err != nil {
		return nil, oops.In("lua").With("plugin", s.manifest.Name).Hint("failed to create state").Wrap(err)
	}
	defer L.Close()

	s.funcs.Register(L, s.manifest.Name, g, extra...)
	if err := L.DoString(s.code); err != nil {
		return nil, oops.In("lua").With("plugin", s.manifest.Name).With("function", fn).Hint("failed to load code").Wrap(err)
	}

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = hostfunc.ToLua(L, a)
	}
	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, largs...); err != nil {
		return nil, oops.In("lua").With("plugin", s.manifest.Name).With("function", fn).Wrap(err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return hostfunc.ToGo(ret), nil
}

// Truthy reports whether a Call result counts as success: anything but nil
// and false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
