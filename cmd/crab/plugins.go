// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/plugin"
)

func newPluginsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugins",
		Aliases: []string{"plugin"},
		Short:   "Inspect installed plugins and validate manifests",
	}
	cmd.AddCommand(newPluginsListCmd(a))
	cmd.AddCommand(newPluginsValidateCmd())
	cmd.AddCommand(newPluginsWatchCmd(a))
	return cmd
}

func newPluginsWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload plugins whenever their directories change",
		Long: `Watch every plugin directory and rescan it when files change, printing
the plugins each factory holds after the reload. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var mu sync.Mutex
			stop, err := a.factories.Watch(ctx, debounce, func(kind plugin.Kind) {
				mu.Lock()
				defer mu.Unlock()
				cmd.Printf("reloaded %s plugins: %s\n", kind, strings.Join(a.factories.Identifiers(kind), ", "))
			})
			if err != nil {
				return err
			}
			defer stop()

			cmd.Printf("watching %d plugin directories\n", len(a.factories.Components.Paths()))
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", plugin.DefaultDebounce, "quiet period before a reload")
	return cmd
}

type pluginsListConfig struct {
	kind string
	json bool
}

func newPluginsListCmd(a *app) *cobra.Command {
	cfg := &pluginsListConfig{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the plugins the factories loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPluginsList(cmd, a, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.kind, "kind", "k", "", "only list plugins of this kind (component, behaviour, process, tool)")
	cmd.Flags().BoolVar(&cfg.json, "json", false, "output in JSON format")
	return cmd
}

func runPluginsList(cmd *cobra.Command, a *app, cfg *pluginsListConfig) error {
	f := a.factories
	all := slices.Concat(
		f.Components.Describe(),
		f.Behaviours.Describe(),
		f.Processes.Describe(),
		f.Tools.Describe(),
	)
	infos := all[:0]
	for _, info := range all {
		if cfg.kind == "" || string(info.Kind) == cfg.kind {
			infos = append(infos, info)
		}
	}
	if cfg.json {
		return writeJSON(cmd.OutOrStdout(), infos)
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{string(info.Kind), info.Identifier, info.Version, string(info.Runtime), info.Source})
	}
	renderTable(cmd.OutOrStdout(), "no plugins", []string{"KIND", "IDENTIFIER", "VERSION", "RUNTIME", "SOURCE"}, rows)
	return nil
}

func newPluginsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate plugin manifests against the schema",
		Long: `Validate plugin.yaml files. A directory argument validates the manifest
inside it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, arg := range args {
				path := arg
				if st, err := os.Stat(path); err == nil && st.IsDir() {
					path = filepath.Join(path, plugin.ManifestFile)
				}
				if msg := validateManifest(path); msg != "" {
					failed++
					cmd.Printf("%s: %s\n", path, msg)
					continue
				}
				cmd.Printf("%s: ok\n", path)
			}
			if failed > 0 {
				return oops.In("cli").Code("INVALID_MANIFEST").With("failed", failed).
					Errorf("%d of %d manifest(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}

// validateManifest returns a description of what is wrong with the manifest
// at path, or "" when it is valid.
func validateManifest(path string) string {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user argument
	if err != nil {
		return err.Error()
	}
	if err := plugin.ValidateSchema(data); err != nil {
		return strings.TrimSpace(plugin.FormatSchemaError(err))
	}
	if _, err := plugin.ParseManifest(data); err != nil {
		return fmt.Sprintf("invalid manifest: %v", err)
	}
	return ""
}
