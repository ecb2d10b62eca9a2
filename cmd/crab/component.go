// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/scene"
)

func newComponentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "component",
		Aliases: []string{"comp"},
		Short:   "Add, remove and list rig components",
	}
	cmd.AddCommand(newComponentAddCmd(a))
	cmd.AddCommand(newComponentRemoveCmd(a))
	cmd.AddCommand(newComponentListCmd(a))
	return cmd
}

type componentAddConfig struct {
	rig         string
	parent      string
	version     string
	description string
	side        string
	options     []string
}

func newComponentAddCmd(a *app) *cobra.Command {
	cfg := &componentAddConfig{}
	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Add a component to a rig",
		Long: `Add a component of the given type. The skeleton is created below --parent
(a joint name) or the rig's skeleton org, and the guide is linked unless the
rig is built.

Options are key=value pairs read as YAML values:

  crab component add Singular --side LF --option radius=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComponentAdd(cmd, a, cfg, args[0])
		},
	}
	cmd.Flags().StringVar(&cfg.rig, "rig", "", "rig name (defaults to the only rig in the scene)")
	cmd.Flags().StringVarP(&cfg.parent, "parent", "p", "", "name of the joint to build below")
	cmd.Flags().StringVar(&cfg.version, "version", "", "component version (defaults to the latest)")
	cmd.Flags().StringVarP(&cfg.description, "description", "d", "", "component description")
	cmd.Flags().StringVar(&cfg.side, "side", "", "component side (LF, RT, MD, FR, BK, TP, BT)")
	cmd.Flags().StringArrayVarP(&cfg.options, "option", "o", nil, "component option as key=value (repeatable)")
	return cmd
}

func runComponentAdd(cmd *cobra.Command, a *app, cfg *componentAddConfig, typ string) error {
	ctx := cmd.Context()
	options, err := parseAssignments(cfg.options)
	if err != nil {
		return err
	}
	if cfg.description != "" {
		options[component.OptionDescription] = cfg.description
	}
	if cfg.side != "" {
		options[component.OptionSide] = cfg.side
	}

	g, err := a.loadScene(ctx, false)
	if err != nil {
		return err
	}
	r, err := a.findRig(g, cfg.rig)
	if err != nil {
		return err
	}
	parent := scene.Null
	if cfg.parent != "" {
		if parent, err = nodeByName(g, cfg.parent); err != nil {
			return err
		}
	}

	inst, err := r.AddComponent(ctx, typ, parent, cfg.version, options)
	if err != nil {
		return err
	}
	if err := a.saveScene(ctx, g); err != nil {
		return err
	}
	if inst.HasMeta() {
		cmd.Printf("added %s %s as %s\n", inst.Identifier(), inst.Version(), g.Name(inst.Meta()))
	} else {
		cmd.Printf("added %s %s\n", inst.Identifier(), inst.Version())
	}
	return nil
}

func newComponentRemoveCmd(a *app) *cobra.Command {
	var rigName string
	cmd := &cobra.Command{
		Use:   "remove <node>",
		Short: "Remove the component owning a node",
		Long: `Remove the component that owns the named node: its meta, a joint, a
guide or a control. Removal is refused while any of its joints is skinned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			r, err := a.findRig(g, rigName)
			if err != nil {
				return err
			}
			node, err := nodeByName(g, args[0])
			if err != nil {
				return err
			}
			if _, err := r.RemoveComponent(ctx, node); err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("removed component owning %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&rigName, "rig", "", "rig name (defaults to the only rig in the scene)")
	return cmd
}

func newComponentListCmd(a *app) *cobra.Command {
	cfg := &statusConfig{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the components of a rig",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadScene(cmd.Context(), false)
			if err != nil {
				return err
			}
			r, err := a.findRig(g, cfg.rig)
			if err != nil {
				return err
			}
			status, err := r.Status()
			if err != nil {
				return err
			}
			if cfg.json {
				return writeJSON(cmd.OutOrStdout(), status.Components)
			}
			rows := make([][]string, 0, len(status.Components))
			for _, c := range status.Components {
				rows = append(rows, []string{c.Meta, c.Identifier, c.Version, c.Description, c.Side, c.Parent})
			}
			renderTable(cmd.OutOrStdout(), "no components", []string{"META", "TYPE", "VERSION", "DESCRIPTION", "SIDE", "PARENT"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.rig, "rig", "", "rig name (defaults to the only rig in the scene)")
	cmd.Flags().BoolVar(&cfg.json, "json", false, "output in JSON format")
	return cmd
}
