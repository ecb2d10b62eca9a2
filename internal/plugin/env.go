// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"github.com/caarlos0/env/v11"
)

// EnvPathsVar is the environment variable holding extra plugin directories.
const EnvPathsVar = "CRAB_PLUGIN_PATHS"

type envConfig struct {
	Paths []string `env:"CRAB_PLUGIN_PATHS" envSeparator:";"`
}

// EnvPaths returns the plugin directories listed in CRAB_PLUGIN_PATHS,
// skipping empty entries.
func EnvPaths() ([]string, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	out := cfg.Paths[:0]
	for _, p := range cfg.Paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
