// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"sort"
	"sync"

	"github.com/samber/oops"
)

// Catalog holds compiled-in plugins by symbol. It is what the IMPORT
// mechanism resolves against: a manifest with runtime go names a symbol
// that some package registered at init time.
type Catalog[T any] struct {
	mu      sync.RWMutex
	symbols map[string]T
}

// NewCatalog creates an empty catalog.
func NewCatalog[T any]() *Catalog[T] {
	return &Catalog[T]{symbols: make(map[string]T)}
}

// Add registers value under symbol, replacing any previous value.
func (c *Catalog[T]) Add(symbol string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbols[symbol] = value
}

// Lookup returns the value registered under symbol.
func (c *Catalog[T]) Lookup(symbol string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.symbols[symbol]
	return v, ok
}

// Symbols returns the registered symbols, sorted.
func (c *Catalog[T]) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.symbols))
	for s := range c.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Importer returns a LoadFunc that resolves go-runtime manifests against c.
func (c *Catalog[T]) Importer() LoadFunc[T] {
	return func(m *Manifest, _ string) (T, error) {
		var zero T
		if m.Runtime != RuntimeGo || m.GoPlugin == nil {
			return zero, oops.In("plugin").Code("PLUGIN_LOAD_FAILED").
				With("plugin", m.Name).
				With("runtime", string(m.Runtime)).
				Errorf("plugin is not importable")
		}
		v, ok := c.Lookup(m.GoPlugin.Symbol)
		if !ok {
			return zero, oops.In("plugin").Code("PLUGIN_LOAD_FAILED").
				With("plugin", m.Name).
				With("symbol", m.GoPlugin.Symbol).
				Errorf("symbol is not compiled in")
		}
		return v, nil
	}
}
