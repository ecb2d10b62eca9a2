// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/config"
	"github.com/crabrig/crab/internal/logging"
	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/process"
	"github.com/crabrig/crab/internal/registry"
	"github.com/crabrig/crab/internal/rig"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/internal/store"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg       *config.Config
	factories *registry.Factories
	logger    *slog.Logger
	metrics   *prometheus.Registry
}

// NewRootCmd creates the root command for the crab CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "crab",
		Short: "Crab - modular character rigging",
		Long: `Crab composes a deformable skeleton and an animator control rig from
versioned component, behaviour and process plugins, and moves a rig between
its editable and built states without losing rigger intent.

Every command operates on a scene file given by --scene or CRAB_SCENE.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.writeMetrics()
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRigCmd(a))
	cmd.AddCommand(newComponentCmd(a))
	cmd.AddCommand(newBehaviourCmd(a))
	cmd.AddCommand(newPluginsCmd(a))
	cmd.AddCommand(newToolCmd(a))
	cmd.AddCommand(newSnapCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return oops.In("cli").Wrap(err)
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.SetDefault("crab", version, logging.Options{
		Format: cfg.Log.Format,
		Level:  level,
		Writer: cmd.ErrOrStderr(),
	})

	opts := []registry.Option{
		registry.WithoutEnv(),
		registry.WithPaths(cfg.PluginPaths...),
		registry.WithLogger(a.logger),
	}
	if cfg.NoDefaultPaths {
		opts = append(opts, registry.WithoutDefaultPaths())
	}
	if cfg.Interactive {
		opts = append(opts, registry.WithConfirm(promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())))
	}
	a.factories = registry.New(opts...)
	registry.SetDefault(a.factories)

	a.metrics = prometheus.NewRegistry()
	rig.RegisterMetrics(a.metrics)
	plugin.RegisterMetrics(a.metrics)
	return nil
}

func (a *app) writeMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.metrics); err != nil {
		return oops.In("cli").With("path", a.cfg.Metrics.Textfile).Wrap(err)
	}
	return nil
}

// promptConfirm asks a yes/no question on out and reads the answer from in.
func promptConfirm(in io.Reader, out io.Writer) process.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, message string) bool {
		fmt.Fprintf(out, "%s [y/N] ", message)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func (a *app) scenePath() (string, error) {
	if a.cfg.Scene == "" {
		return "", oops.In("cli").Code("NO_SCENE").Hint("pass --scene or set CRAB_SCENE").Errorf("no scene file given")
	}
	return a.cfg.Scene, nil
}

// loadScene reads the scene file. A missing file is an empty scene when
// create is set.
func (a *app) loadScene(ctx context.Context, create bool) (*scene.Memory, error) {
	path, err := a.scenePath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if create {
			return scene.NewMemory(), nil
		}
		return nil, oops.In("cli").Code("SCENE_NOT_FOUND").With("path", path).Errorf("scene file does not exist")
	}
	return store.LoadFile(ctx, path)
}

func (a *app) saveScene(ctx context.Context, g *scene.Memory) error {
	path, err := a.scenePath()
	if err != nil {
		return err
	}
	return store.SaveFile(ctx, path, g)
}

func (a *app) rigOptions() []rig.Option {
	return []rig.Option{rig.WithFactories(a.factories), rig.WithLogger(a.logger)}
}

// findRig returns the rig called name, or the only rig when name is empty.
func (a *app) findRig(g scene.Graph, name string) (*rig.Rig, error) {
	if name != "" {
		return rig.Find(g, name, a.rigOptions()...)
	}
	all := rig.All(g, a.rigOptions()...)
	switch len(all) {
	case 0:
		return nil, oops.In("cli").Code(rig.ErrRigNotFound).Errorf("scene has no rig")
	case 1:
		return all[0], nil
	default:
		return nil, oops.In("cli").Code("RIG_AMBIGUOUS").With("rigs", len(all)).Hint("pass --rig").Errorf("scene has several rigs")
	}
}

// nodeByName resolves a node name given on the command line.
func nodeByName(g scene.Graph, name string) (scene.NodeID, error) {
	id, ok := scene.FindByName(g, name)
	if !ok {
		return scene.Null, oops.In("cli").Code("NODE_NOT_FOUND").With("node", name).Errorf("no node named %q", name)
	}
	return id, nil
}
