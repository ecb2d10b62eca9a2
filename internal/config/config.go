// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package config loads crab's settings. Sources are applied in order,
// later ones winning: built-in defaults, the YAML config file, CRAB_*
// environment variables, then command-line flags that were set explicitly.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/crabrig/crab/internal/xdg"
)

// ErrInvalidConfig is the code of every load or validation failure.
const ErrInvalidConfig = "INVALID_CONFIG"

// Config holds every setting of the crab command.
type Config struct {
	// Scene is the scene file commands operate on.
	Scene string `koanf:"scene" env:"CRAB_SCENE"`
	// PluginPaths are scanned in addition to the default plugin directories.
	PluginPaths []string `koanf:"plugin_paths" env:"CRAB_PLUGIN_PATHS" envSeparator:";"`
	// NoDefaultPaths skips the install and user plugin directories.
	NoDefaultPaths bool `koanf:"no_default_paths"`
	// Interactive asks on the terminal before discarding a moved pose.
	Interactive bool    `koanf:"interactive"`
	Log         Log     `koanf:"log"`
	Metrics     Metrics `koanf:"metrics"`
}

// Log configures logging.
type Log struct {
	Format string `koanf:"format" env:"CRAB_LOG_FORMAT" validate:"oneof=text json"`
	Level  string `koanf:"level" env:"CRAB_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Metrics configures the Prometheus textfile written after each command.
type Metrics struct {
	// Textfile is the path written; empty disables it.
	Textfile string `koanf:"textfile" env:"CRAB_METRICS_TEXTFILE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log: Log{Format: "text", Level: "info"},
	}
}

// flagKeys maps the flags RegisterFlags defines to config keys.
var flagKeys = map[string]string{
	"scene":            "scene",
	"plugin-path":      "plugin_paths",
	"no-default-paths": "no_default_paths",
	"interactive":      "interactive",
	"log-format":       "log.format",
	"log-level":        "log.level",
	"metrics-textfile": "metrics.textfile",
}

// RegisterFlags adds the config flags to set.
func RegisterFlags(set *pflag.FlagSet) {
	d := Default()
	set.String("config", "", "config file (default "+xdg.ConfigFile()+")")
	set.StringP("scene", "s", d.Scene, "scene file")
	set.StringSlice("plugin-path", nil, "extra plugin directory (repeatable)")
	set.Bool("no-default-paths", false, "skip the install and user plugin directories")
	set.Bool("interactive", false, "confirm pose changes on the terminal")
	set.String("log-format", d.Log.Format, "log format: text or json")
	set.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	set.String("metrics-textfile", "", "write Prometheus metrics to this file")
}

// Load reads the configuration. path names the config file; when empty the
// default location is used and may be missing. set may be nil.
func Load(path string, set *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	errb := oops.In("config").Code(ErrInvalidConfig)

	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errb.With("path", path).Wrap(err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errb.With("path", path).Wrap(err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errb.With("path", path).Wrap(err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, errb.With("source", "environment").Wrap(err)
	}

	if set != nil {
		fk := koanf.New(".")
		provider := posflag.ProviderWithFlag(set, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(set, f)
		})
		if err := fk.Load(provider, nil); err != nil {
			return nil, errb.With("source", "flags").Wrap(err)
		}
		if err := fk.Unmarshal("", &cfg); err != nil {
			return nil, errb.With("source", "flags").Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return oops.In("config").Code(ErrInvalidConfig).Wrap(err)
	}
	return nil
}
