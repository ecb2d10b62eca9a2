// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package plugin discovers, loads, versions and dispenses plugins.
//
// A Factory serves one extension point (components, behaviours, processes
// or tools). Plugins reach a factory either by manual registration or by
// discovery: every plugin.yaml below an added path whose kind matches the
// factory is loaded with the path's mechanism.
package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// Mechanism selects how discovered plugins are loaded.
type Mechanism int

// Loading mechanisms.
const (
	// Import resolves go-runtime plugins against compiled-in code.
	Import Mechanism = iota
	// LoadSource loads lua-runtime plugins from their script.
	LoadSource
	// Guess tries Import and falls back to LoadSource.
	Guess
)

func (m Mechanism) String() string {
	switch m {
	case Import:
		return "import"
	case LoadSource:
		return "load_source"
	case Guess:
		return "guess"
	default:
		return "unknown"
	}
}

// ParseMechanism parses the String form of a mechanism.
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(s) {
	case "import":
		return Import, nil
	case "load_source", "source":
		return LoadSource, nil
	case "guess", "":
		return Guess, nil
	default:
		return Guess, fmt.Errorf("unknown mechanism %q", s)
	}
}

// LoadFunc turns a manifest found in dir into a plugin.
type LoadFunc[T any] func(m *Manifest, dir string) (T, error)

// Option configures a Factory.
type Option[T any] func(*Factory[T])

// WithImporter sets the loader used by the Import mechanism.
func WithImporter[T any](fn LoadFunc[T]) Option[T] {
	return func(f *Factory[T]) {
		f.importer = fn
	}
}

// WithSourceLoader sets the loader used by the LoadSource mechanism.
func WithSourceLoader[T any](fn LoadFunc[T]) Option[T] {
	return func(f *Factory[T]) {
		f.source = fn
	}
}

// WithPaths adds directories scanned at construction.
func WithPaths[T any](mechanism Mechanism, paths ...string) Option[T] {
	return func(f *Factory[T]) {
		for _, p := range paths {
			f.paths = append(f.paths, searchPath{path: filepath.Clean(p), mechanism: mechanism})
		}
	}
}

// WithoutEnv stops the factory from reading CRAB_PLUGIN_PATHS.
func WithoutEnv[T any]() Option[T] {
	return func(f *Factory[T]) {
		f.useEnv = false
	}
}

// WithRegistered registers plugins before the first scan, so they precede
// every discovered plugin in Plugins order. Invalid values are logged and
// skipped.
func WithRegistered[T any](values ...T) Option[T] {
	return func(f *Factory[T]) {
		f.registered = append(f.registered, values...)
	}
}

// WithLogger sets the logger used for load warnings.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(f *Factory[T]) {
		f.logger = l
	}
}

type searchPath struct {
	path      string
	mechanism Mechanism
}

type entry[T any] struct {
	value    T
	id       string
	version  *semver.Version
	manifest *Manifest
	dir      string
	manual   bool
}

// Info describes one loaded plugin.
type Info struct {
	Identifier string
	Version    string
	Kind       Kind
	// Source is the plugin directory, or "registered" for manual entries.
	Source  string
	Runtime Runtime
}

// Factory discovers and dispenses plugins of one kind.
//
// Reads are safe for concurrent use. AddPath, RemovePath and Reload take the
// write lock for the whole scan and are not re-entrant.
type Factory[T any] struct {
	kind     Kind
	identify func(T) string
	version  func(T) string
	importer LoadFunc[T]
	source   LoadFunc[T]
	useEnv   bool
	logger   *slog.Logger

	registered []T

	mu      sync.RWMutex
	paths   []searchPath
	entries []entry[T]
}

// NewFactory creates a factory and scans its initial paths. identify and
// version extract a plugin's identifier and version string.
func NewFactory[T any](kind Kind, identify, version func(T) string, opts ...Option[T]) *Factory[T] {
	f := &Factory[T]{
		kind:     kind,
		identify: identify,
		version:  version,
		useEnv:   true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.useEnv {
		envPaths, err := EnvPaths()
		if err != nil {
			f.logger.Warn("ignoring plugin path environment", "var", EnvPathsVar, "error", err)
		}
		for _, p := range envPaths {
			f.paths = append(f.paths, searchPath{path: filepath.Clean(p), mechanism: Guess})
		}
	}

	for _, v := range f.registered {
		if err := f.Register(v); err != nil {
			f.logger.Warn("skipping invalid registered plugin", "kind", f.kind, "error", err)
		}
	}
	f.registered = nil

	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = dedupePaths(f.paths)
	for _, p := range f.paths {
		f.scanLocked(p)
	}
	return f
}

func dedupePaths(paths []searchPath) []searchPath {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p.path] {
			continue
		}
		seen[p.path] = true
		out = append(out, p)
	}
	return out
}

// Kind returns the extension point the factory serves.
func (f *Factory[T]) Kind() Kind {
	return f.kind
}

// Register adds a plugin directly. Registered plugins survive Reload and
// RemovePath.
func (f *Factory[T]) Register(value T) error {
	id := f.identify(value)
	if id == "" {
		return oops.In("plugin").Code("INVALID_MANIFEST").With("kind", string(f.kind)).Errorf("plugin identifier is empty")
	}
	v, err := semver.NewVersion(f.version(value))
	if err != nil {
		return oops.In("plugin").Code("INVALID_MANIFEST").
			With("plugin", id).
			With("version", f.version(value)).
			Wrap(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry[T]{value: value, id: id, version: v, manual: true})
	return nil
}

// AddPath scans path with mechanism and remembers it for Reload. Adding a
// known path again changes its mechanism and rescans everything.
func (f *Factory[T]) AddPath(path string, mechanism Mechanism) {
	p := searchPath{path: filepath.Clean(path), mechanism: mechanism}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.paths {
		if f.paths[i].path == p.path {
			f.paths[i].mechanism = mechanism
			f.reloadLocked()
			return
		}
	}
	f.paths = append(f.paths, p)
	f.scanLocked(p)
}

// RemovePath forgets path and rebuilds the factory from the remaining paths.
func (f *Factory[T]) RemovePath(path string) {
	clean := filepath.Clean(path)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = slices.DeleteFunc(f.paths, func(p searchPath) bool { return p.path == clean })
	f.reloadLocked()
}

// Paths returns the scanned directories in the order they were added.
func (f *Factory[T]) Paths() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.paths))
	for i, p := range f.paths {
		out[i] = p.path
	}
	return out
}

// Reload drops every discovered plugin and rescans all paths with their
// original mechanisms.
func (f *Factory[T]) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloadLocked()
}

func (f *Factory[T]) reloadLocked() {
	f.entries = slices.DeleteFunc(f.entries, func(e entry[T]) bool { return !e.manual })
	for _, p := range f.paths {
		f.scanLocked(p)
	}
}

func (f *Factory[T]) scanLocked(p searchPath) {
	if _, err := os.Stat(p.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("plugin path does not exist", "kind", f.kind, "path", p.path)
			return
		}
		f.logger.Warn("cannot read plugin path", "kind", f.kind, "path", p.path, "error", err)
		return
	}

	_ = filepath.WalkDir(p.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			f.logger.Warn("skipping unreadable plugin path", "kind", f.kind, "path", path, "error", err)
			return nil
		}
		if d.IsDir() || d.Name() != ManifestFile {
			return nil
		}
		f.loadManifestLocked(path, p.mechanism)
		return nil
	})
}

func (f *Factory[T]) loadManifestLocked(path string, mechanism Mechanism) {
	dir := filepath.Dir(path)
	data, err := os.ReadFile(path) //nolint:gosec // path comes from walking a configured plugin directory
	if err != nil {
		f.logger.Warn("skipping plugin without readable manifest", "kind", f.kind, "dir", dir, "error", err)
		RecordLoad(f.kind, mechanism, StatusFailed)
		return
	}
	m, err := ParseManifest(data)
	if err != nil {
		f.logger.Warn("skipping plugin with invalid manifest", "kind", f.kind, "dir", dir, "error", err)
		RecordLoad(f.kind, mechanism, StatusFailed)
		return
	}
	if m.Kind != f.kind {
		return
	}

	value, err := f.load(m, dir, mechanism)
	if err != nil {
		f.logger.Warn("failed to load plugin",
			"kind", f.kind,
			"plugin", m.Name,
			"mechanism", mechanism.String(),
			"error", err)
		RecordLoad(f.kind, mechanism, StatusFailed)
		return
	}

	id := f.identify(value)
	v, err := semver.NewVersion(f.version(value))
	if id == "" || err != nil {
		f.logger.Warn("skipping plugin with invalid identity",
			"kind", f.kind,
			"plugin", m.Name,
			"identifier", id,
			"version", f.version(value))
		RecordLoad(f.kind, mechanism, StatusSkipped)
		return
	}

	f.entries = append(f.entries, entry[T]{value: value, id: id, version: v, manifest: m, dir: dir})
	RecordLoad(f.kind, mechanism, StatusLoaded)
	f.logger.Debug("loaded plugin", "kind", f.kind, "plugin", id, "version", v.Original(), "dir", dir)
}

func (f *Factory[T]) load(m *Manifest, dir string, mechanism Mechanism) (T, error) {
	var zero T
	switch mechanism {
	case Import:
		if f.importer == nil {
			return zero, oops.In("plugin").Code("PLUGIN_LOAD_FAILED").Errorf("no importer configured")
		}
		return f.importer(m, dir)
	case LoadSource:
		if f.source == nil {
			return zero, oops.In("plugin").Code("PLUGIN_LOAD_FAILED").Errorf("no source loader configured")
		}
		return f.source(m, dir)
	default:
		var importErr error
		if f.importer != nil {
			v, err := f.importer(m, dir)
			if err == nil {
				return v, nil
			}
			importErr = err
		}
		if f.source != nil {
			return f.source(m, dir)
		}
		if importErr != nil {
			return zero, importErr
		}
		return zero, oops.In("plugin").Code("PLUGIN_LOAD_FAILED").Errorf("no loader configured")
	}
}

// Identifiers returns every known identifier, sorted.
func (f *Factory[T]) Identifiers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range f.entries {
		if !seen[e.id] {
			seen[e.id] = true
			out = append(out, e.id)
		}
	}
	sort.Strings(out)
	return out
}

// Versions returns the distinct versions of id, ascending.
func (f *Factory[T]) Versions(id string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var vs []*semver.Version
	for _, e := range f.entries {
		if e.id != id {
			continue
		}
		if !slices.ContainsFunc(vs, e.version.Equal) {
			vs = append(vs, e.version)
		}
	}
	sort.Sort(semver.Collection(vs))
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Original()
	}
	return out
}

// Request returns the highest version of id. Among entries with equal
// versions the first inserted wins. A miss is logged at warning.
func (f *Factory[T]) Request(id string) (T, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	best := -1
	for i, e := range f.entries {
		if e.id != id {
			continue
		}
		if best < 0 || e.version.GreaterThan(f.entries[best].version) {
			best = i
		}
	}
	if best < 0 {
		f.logger.Warn("unknown plugin requested", "kind", f.kind, "plugin", id)
		var zero T
		return zero, false
	}
	return f.entries[best].value, true
}

// RequestVersion returns id at exactly version. A miss is logged at warning.
func (f *Factory[T]) RequestVersion(id, version string) (T, bool) {
	var zero T
	want, err := semver.NewVersion(version)
	if err != nil {
		f.logger.Warn("invalid plugin version requested", "kind", f.kind, "plugin", id, "version", version, "error", err)
		return zero, false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.entries {
		if e.id == id && e.version.Equal(want) {
			return e.value, true
		}
	}
	f.logger.Warn("unknown plugin version requested", "kind", f.kind, "plugin", id, "version", version)
	return zero, false
}

// Plugins returns every loaded plugin in insertion order.
func (f *Factory[T]) Plugins() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.value
	}
	return out
}

// Describe returns one Info per loaded plugin in insertion order.
func (f *Factory[T]) Describe() []Info {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Info, len(f.entries))
	for i, e := range f.entries {
		info := Info{Identifier: e.id, Version: e.version.Original(), Kind: f.kind, Source: "registered", Runtime: RuntimeGo}
		if !e.manual {
			info.Source = e.dir
			info.Runtime = e.manifest.Runtime
		}
		out[i] = info
	}
	return out
}
