// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package hostfunc provides the crab module to Lua plugins.
//
// Host functions expose the scene to plugins in a controlled way. Every
// function that reads or writes the scene requires a capability from the
// plugin's manifest.
//
//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package hostfunc

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/internal/scene"
)

// ModuleName is the Lua global holding the host functions.
const ModuleName = "crab"

// Func is an extra host function installed next to the built-ins. An empty
// Capability means the function is always allowed.
type Func struct {
	Name       string
	Capability string
	Fn         lua.LGFunction
}

// Functions provides host functions to Lua plugins.
type Functions struct {
	enforcer *capability.Enforcer
	logger   *slog.Logger
}

// Option configures Functions.
type Option func(*Functions)

// WithLogger sets the logger behind crab.log.
func WithLogger(l *slog.Logger) Option {
	return func(f *Functions) {
		f.logger = l
	}
}

// New creates host functions. Panics if enforcer is nil.
func New(enforcer *capability.Enforcer, opts ...Option) *Functions {
	if enforcer == nil {
		panic("hostfunc.New: enforcer cannot be nil")
	}
	f := &Functions{enforcer: enforcer}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Logger returns the logger behind crab.log.
func (f *Functions) Logger() *slog.Logger {
	return f.logger
}

// Enforcer returns the capability enforcer shared by every plugin.
func (f *Functions) Enforcer() *capability.Enforcer {
	return f.enforcer
}

// Register installs the crab module in ls, bound to plugin and g.
func (f *Functions) Register(ls *lua.LState, plugin string, g scene.Graph, extra ...Func) {
	mod := ls.NewTable()

	ls.SetField(mod, "log", ls.NewFunction(f.logFn(plugin)))

	// Reads
	for name, fn := range map[string]lua.LGFunction{
		"exists":         existsFn(g),
		"name":           nameFn(g),
		"type":           typeFn(g),
		"parent":         parentFn(g),
		"children":       childrenFn(g),
		"find_node":      findNodeFn(g),
		"get_attr":       getAttrFn(g),
		"inputs":         inputsFn(g),
		"world_position": worldPositionFn(g),
		"make_name":      makeNameFn(g),
		"find":           findFn(g),
		"find_first":     findFirstFn(g),
	} {
		ls.SetField(mod, name, ls.NewFunction(f.wrap(plugin, capability.SceneRead, fn)))
	}

	// Writes
	for name, fn := range map[string]lua.LGFunction{
		"create_node":        createNodeFn(g),
		"create_control":     createControlFn(g),
		"delete":             deleteFn(g),
		"rename":             renameFn(g),
		"set_parent":         setParentFn(g),
		"add_attr":           addAttrFn(g),
		"set_attr":           setAttrFn(g),
		"connect":            connectFn(g),
		"set_translation":    setTranslationFn(g),
		"set_world_position": setWorldPositionFn(g),
	} {
		ls.SetField(mod, name, ls.NewFunction(f.wrap(plugin, capability.SceneWrite, fn)))
	}

	ls.SetField(mod, "tag", ls.NewFunction(f.wrap(plugin, capability.MetaWrite, tagFn(g))))
	ls.SetField(mod, "constrain", ls.NewFunction(f.wrap(plugin, capability.ConstraintCreate, constrainFn(g))))

	for _, e := range extra {
		fn := e.Fn
		if e.Capability != "" {
			fn = f.wrap(plugin, e.Capability, fn)
		}
		ls.SetField(mod, e.Name, ls.NewFunction(fn))
	}

	ls.SetGlobal(ModuleName, mod)
}

func (f *Functions) wrap(plugin, capName string, fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if !f.enforcer.Check(plugin, capName) {
			L.RaiseError("capability denied: %s requires %s", plugin, capName)
			return 0
		}
		return fn(L)
	}
}

func (f *Functions) logFn(plugin string) lua.LGFunction {
	return func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)

		logger := f.logger.With("plugin", plugin)
		switch level {
		case "debug":
			logger.Debug(message)
		case "info":
			logger.Info(message)
		case "warn":
			logger.Warn(message)
		case "error":
			logger.Error(message)
		default:
			L.ArgError(1, "invalid log level "+level+"; expected debug, info, warn or error")
		}
		return 0
	}
}
