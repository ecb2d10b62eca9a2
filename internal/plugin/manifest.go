// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the file name discovery looks for.
const ManifestFile = "plugin.yaml"

// Kind is the extension point a plugin implements.
type Kind string

// Plugin kinds.
const (
	KindComponent Kind = "component"
	KindBehaviour Kind = "behaviour"
	KindProcess   Kind = "process"
	KindTool      Kind = "tool"
)

// Runtime identifies how a plugin's code is provided.
type Runtime string

// Plugin runtimes.
const (
	// RuntimeGo plugins are compiled into the binary and resolved from a Catalog.
	RuntimeGo Runtime = "go"
	// RuntimeLua plugins are Lua scripts loaded in a sandbox.
	RuntimeLua Runtime = "lua"
)

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name         string     `yaml:"name" json:"name" validate:"required,max=64,plugin_name" jsonschema:"pattern=^[A-Za-z][A-Za-z0-9-]*$,maxLength=64"`
	Version      string     `yaml:"version" json:"version" validate:"required,plugin_version"`
	Kind         Kind       `yaml:"kind" json:"kind" validate:"oneof=component behaviour process tool" jsonschema:"enum=component,enum=behaviour,enum=process,enum=tool"`
	Runtime      Runtime    `yaml:"runtime" json:"runtime" validate:"oneof=go lua" jsonschema:"enum=go,enum=lua"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Capabilities []string   `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	GoPlugin     *GoConfig  `yaml:"go-plugin,omitempty" json:"go-plugin,omitempty" validate:"required_if=Runtime go"`
	LuaPlugin    *LuaConfig `yaml:"lua-plugin,omitempty" json:"lua-plugin,omitempty" validate:"required_if=Runtime lua"`
}

// GoConfig holds compiled-in plugin configuration.
type GoConfig struct {
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry" json:"entry" validate:"required"`
}

// namePattern validates plugin identifiers. Component identifiers are
// conventionally CamelCase ("Singular"), so upper case is allowed.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

var manifestValidate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("plugin_name", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("plugin_version", func(fl validator.FieldLevel) bool {
		_, err := semver.NewVersion(fl.Field().String())
		return err == nil
	})
	return v
}()

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	errb := oops.In("plugin").Code("INVALID_MANIFEST")
	if len(data) == 0 {
		return nil, errb.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errb.Wrapf(err, "invalid YAML")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest constraints and reports the first violation.
func (m *Manifest) Validate() error {
	err := manifestValidate.Struct(m)
	if err == nil {
		return nil
	}
	errb := oops.In("plugin").Code("INVALID_MANIFEST").With("plugin", m.Name)
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return errb.Wrap(err)
	}
	fe := fields[0]
	return errb.With("field", fe.StructNamespace()).Errorf("%s", m.violation(fe))
}

func (m *Manifest) violation(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "Manifest.Name":
		if fe.Tag() == "max" {
			return fmt.Sprintf("name must be %s characters or less, got %d", fe.Param(), len(m.Name))
		}
		return fmt.Sprintf("name %q must start with a letter and contain only letters, digits and hyphens", m.Name)
	case "Manifest.Version":
		if fe.Tag() == "required" {
			return "version is required"
		}
		return fmt.Sprintf("version %q is not a semantic version", m.Version)
	case "Manifest.Kind":
		return fmt.Sprintf("kind must be component, behaviour, process or tool, got %q", m.Kind)
	case "Manifest.Runtime":
		return fmt.Sprintf("runtime must be 'go' or 'lua', got %q", m.Runtime)
	case "Manifest.GoPlugin", "Manifest.GoPlugin.Symbol":
		return "go-plugin.symbol is required when runtime is go"
	case "Manifest.LuaPlugin", "Manifest.LuaPlugin.Entry":
		return "lua-plugin.entry is required when runtime is lua"
	}
	return fe.Error()
}
