// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package registry owns the plugin factories of one process: components,
// behaviours, processes and tools. Scanning plugin directories is slow, so
// the default set is built once on first use and kept until Reload.
package registry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crabrig/crab/internal/behaviour"
	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	"github.com/crabrig/crab/internal/process"
	"github.com/crabrig/crab/internal/tool"
	"github.com/crabrig/crab/internal/xdg"
)

// Catalogs of compiled-in plugins. A plugin.yaml with runtime go names one
// of these symbols.
var (
	Components = plugin.NewCatalog[component.Descriptor]()
	Behaviours = plugin.NewCatalog[behaviour.Behaviour]()
	Processes  = plugin.NewCatalog[process.Process]()
	Tools      = plugin.NewCatalog[tool.Tool]()
)

var catalogOnce sync.Once

func fillCatalogs() {
	catalogOnce.Do(func() {
		Components.Add("singular", component.SingularDescriptor{})
		Behaviours.Add("constrain", behaviour.Constrain{})
		Processes.Add("shape-info", process.ShapeInfo{})
		Processes.Add("bone-hide", process.BoneHide{})
		Processes.Add("colour", process.Colour{})
		Processes.Add("layers", process.Layers{})
		Processes.Add("pose-validation", process.PoseValidation{})
		Tools.Add("snap-match", tool.SnapMatch{})
	})
}

// Factories holds one factory per plugin kind and the host functions their
// Lua plugins share.
type Factories struct {
	Funcs      *hostfunc.Functions
	Components *plugin.Factory[component.Descriptor]
	Behaviours *plugin.Factory[behaviour.Behaviour]
	Processes  *plugin.Factory[process.Process]
	Tools      *plugin.Factory[tool.Tool]
}

type options struct {
	paths    []string
	env      bool
	builtins bool
	confirm  process.ConfirmFunc
	logger   *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithPaths adds plugin directories scanned with the Guess mechanism.
func WithPaths(paths ...string) Option {
	return func(o *options) {
		o.paths = append(o.paths, paths...)
	}
}

// WithoutEnv ignores CRAB_PLUGIN_PATHS.
func WithoutEnv() Option {
	return func(o *options) {
		o.env = false
	}
}

// WithoutDefaultPaths skips the install and user plugin directories.
func WithoutDefaultPaths() Option {
	return func(o *options) {
		o.builtins = false
	}
}

// WithConfirm routes pose validation prompts to fn.
func WithConfirm(fn process.ConfirmFunc) Option {
	return func(o *options) {
		o.confirm = fn
	}
}

// WithLogger sets the logger for load warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// DefaultPaths returns the install plugin directory (next to the
// executable), the shared XDG data directories and the user plugin
// directory.
func DefaultPaths() []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "plugins"))
	}
	out = append(out, xdg.SystemPluginDirs()...)
	return append(out, xdg.PluginDir())
}

// New builds a fresh set of factories. Built-in plugins are registered
// first, so processes run before discovered ones.
func New(opts ...Option) *Factories {
	o := options{env: true, builtins: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	fillCatalogs()

	paths := o.paths
	if o.builtins {
		paths = append(DefaultPaths(), paths...)
	}
	funcs := hostfunc.New(capability.NewEnforcer(), hostfunc.WithLogger(o.logger))

	f := &Factories{Funcs: funcs}
	f.Components = newFactory(plugin.KindComponent, component.Identify, component.VersionOf,
		Components.Importer(), component.LoadScript(funcs), paths, o,
		[]component.Descriptor{component.SingularDescriptor{}})
	f.Behaviours = newFactory(plugin.KindBehaviour, behaviour.Identify, behaviour.VersionOf,
		Behaviours.Importer(), behaviour.LoadScript(funcs), paths, o,
		[]behaviour.Behaviour{behaviour.Constrain{}})
	f.Processes = newFactory(plugin.KindProcess, process.Identify, process.VersionOf,
		Processes.Importer(), process.LoadScript(funcs), paths, o,
		[]process.Process{
			process.ShapeInfo{},
			process.BoneHide{},
			process.Colour{},
			process.Layers{},
			process.PoseValidation{Confirm: o.confirm},
		})
	f.Tools = newFactory(plugin.KindTool, tool.Identify, tool.VersionOf,
		Tools.Importer(), tool.LoadScript(funcs), paths, o,
		[]tool.Tool{tool.SnapMatch{}})
	return f
}

func newFactory[T any](kind plugin.Kind, identify, version func(T) string, importer, source plugin.LoadFunc[T], paths []string, o options, builtins []T) *plugin.Factory[T] {
	fopts := []plugin.Option[T]{
		plugin.WithRegistered(builtins...),
		plugin.WithImporter(importer),
		plugin.WithSourceLoader(source),
		plugin.WithPaths[T](plugin.Guess, paths...),
		plugin.WithLogger[T](o.logger),
	}
	if !o.env {
		fopts = append(fopts, plugin.WithoutEnv[T]())
	}
	return plugin.NewFactory(kind, identify, version, fopts...)
}

// AddPath scans path in every factory.
func (f *Factories) AddPath(path string, mechanism plugin.Mechanism) {
	f.Components.AddPath(path, mechanism)
	f.Behaviours.AddPath(path, mechanism)
	f.Processes.AddPath(path, mechanism)
	f.Tools.AddPath(path, mechanism)
}

// RemovePath forgets path in every factory.
func (f *Factories) RemovePath(path string) {
	f.Components.RemovePath(path)
	f.Behaviours.RemovePath(path)
	f.Processes.RemovePath(path)
	f.Tools.RemovePath(path)
}

// Reload rescans every factory. Not safe to call concurrently with itself.
func (f *Factories) Reload() {
	f.Components.Reload()
	f.Behaviours.Reload()
	f.Processes.Reload()
	f.Tools.Reload()
}

// Identifiers returns the plugin identifiers the factory of kind holds.
func (f *Factories) Identifiers(kind plugin.Kind) []string {
	switch kind {
	case plugin.KindComponent:
		return f.Components.Identifiers()
	case plugin.KindBehaviour:
		return f.Behaviours.Identifiers()
	case plugin.KindProcess:
		return f.Processes.Identifiers()
	case plugin.KindTool:
		return f.Tools.Identifiers()
	}
	return nil
}

// Watch reloads each factory when files below its paths change and calls
// notify, which may run concurrently for different kinds, after each reload.
// stop releases every watcher.
func (f *Factories) Watch(ctx context.Context, debounce time.Duration, notify func(plugin.Kind)) (stop func(), err error) {
	var stops []func()
	stopAll := func() {
		for _, s := range stops {
			s()
		}
	}
	for _, watch := range []func(context.Context, time.Duration, func(plugin.Kind)) (func(), error){
		f.Components.Watch,
		f.Behaviours.Watch,
		f.Processes.Watch,
		f.Tools.Watch,
	} {
		s, err := watch(ctx, debounce, notify)
		if err != nil {
			stopAll()
			return nil, err
		}
		stops = append(stops, s)
	}
	return stopAll, nil
}

// ActiveProcesses returns the highest version of every process identifier,
// in registration then discovery order.
func (f *Factories) ActiveProcesses() []process.Process {
	var out []process.Process
	seen := make(map[string]bool)
	for _, p := range f.Processes.Plugins() {
		id := p.Identifier()
		if seen[id] {
			continue
		}
		seen[id] = true
		if best, ok := f.Processes.Request(id); ok {
			out = append(out, best)
		}
	}
	return out
}

var (
	defaultMu  sync.Mutex
	defaultSet *Factories
)

// Default returns the process-wide factories, building them on first use.
func Default() *Factories {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSet == nil {
		defaultSet = New()
	}
	return defaultSet
}

// SetDefault replaces the process-wide factories. The CLI uses it to apply
// configuration before the first Default call.
func SetDefault(f *Factories) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSet = f
}
