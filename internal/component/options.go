// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package component

import (
	"maps"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/naming"
)

// Option names every component carries.
const (
	OptionDescription = "description"
	OptionSide        = "side"
)

// Options is a component's option bag.
type Options map[string]any

var optionsValidate = validator.New()

type coreOptions struct {
	Description string `validate:"required,excludesall=_:"`
	Side        string `validate:"required,oneof=LF RT MD FR BK TP BT"`
}

// Defaults returns the minimal option bag: a description and the middle side.
func Defaults(description string) Options {
	return Options{OptionDescription: description, OptionSide: naming.Middle}
}

// Merge returns a copy of o with overrides applied.
func (o Options) Merge(overrides map[string]any) Options {
	out := maps.Clone(o)
	if out == nil {
		out = Options{}
	}
	maps.Copy(out, overrides)
	return out
}

// String returns the string option key, or "".
func (o Options) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Float returns the numeric option key, or def.
func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// Bool returns the bool option key, or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Description returns the description option.
func (o Options) Description() string {
	return o.String(OptionDescription)
}

// Side returns the side option.
func (o Options) Side() string {
	return o.String(OptionSide)
}

// Validate checks that description is non-empty without underscores and
// side is a known location.
func (o Options) Validate() error {
	if err := optionsValidate.Struct(coreOptions{
		Description: o.Description(),
		Side:        o.Side(),
	}); err != nil {
		return oops.In("component").Code("INVALID_OPTIONS").
			With("description", o.Description()).
			With("side", o.Side()).
			Wrap(err)
	}
	return nil
}
