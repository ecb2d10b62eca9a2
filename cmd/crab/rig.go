// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/rig"
)

func newRigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rig",
		Short: "Create, inspect, build and edit rigs",
	}
	cmd.AddCommand(newRigCreateCmd(a))
	cmd.AddCommand(newRigListCmd(a))
	cmd.AddCommand(newRigStatusCmd(a))
	cmd.AddCommand(newRigTransitionCmd(a, "build", "Build the control rig from the guides"))
	cmd.AddCommand(newRigTransitionCmd(a, "edit", "Tear the control rig down and relink the guides"))
	cmd.AddCommand(newRigDeleteCmd(a))
	return cmd
}

func newRigCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty rig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, true)
			if err != nil {
				return err
			}
			r, err := rig.Create(g, args[0], a.rigOptions()...)
			if err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("created rig %s\n", r.Name())
			return nil
		},
	}
}

func newRigListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the rigs in the scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadScene(cmd.Context(), false)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, r := range rig.All(g, a.rigOptions()...) {
				records, err := r.Behaviours()
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					r.Name(),
					r.State().String(),
					strconv.FormatBool(r.IsClean()),
					strconv.Itoa(len(r.SkeletonRoots())),
					strconv.Itoa(len(records)),
				})
			}
			renderTable(cmd.OutOrStdout(), "no rigs", []string{"NAME", "STATE", "CLEAN", "COMPONENTS", "BEHAVIOURS"}, rows)
			return nil
		},
	}
}

type statusConfig struct {
	rig  string
	json bool
}

func newRigStatusCmd(a *app) *cobra.Command {
	cfg := &statusConfig{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the components and behaviours of a rig",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRigStatus(cmd, a, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.rig, "rig", "", "rig name (defaults to the only rig in the scene)")
	cmd.Flags().BoolVar(&cfg.json, "json", false, "output in JSON format")
	return cmd
}

func runRigStatus(cmd *cobra.Command, a *app, cfg *statusConfig) error {
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
	out := cmd.OutOrStdout()
	if cfg.json {
		return writeJSON(out, status)
	}

	state := status.State
	if !status.Clean {
		state += " (unclean)"
	}
	fmt.Fprintf(out, "Rig %s: %s\n", status.Name, state)

	rows := make([][]string, 0, len(status.Components))
	for _, c := range status.Components {
		rows = append(rows, []string{c.Meta, c.Identifier, c.Version, c.Side, c.Parent, strconv.FormatBool(c.Built)})
	}
	renderTable(out, "no components", []string{"META", "TYPE", "VERSION", "SIDE", "PARENT", "BUILT"}, rows)

	rows = rows[:0]
	for i, b := range status.Behaviours {
		rows = append(rows, []string{strconv.Itoa(i), b.ID.String(), b.Type, formatOptions(b.Options)})
	}
	renderTable(out, "no behaviours", []string{"#", "ID", "TYPE", "OPTIONS"}, rows)
	return nil
}

func newRigTransitionCmd(a *app, name, short string) *cobra.Command {
	var rigName string
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			r, err := a.findRig(g, rigName)
			if err != nil {
				return err
			}

			s := r.Signals()
			defer s.PerformingAction.Subscribe(func(action string) {
				a.logger.Debug("rig action", "rig", r.Name(), "action", action)
			})()

			if name == "build" {
				err = r.Build(ctx)
			} else {
				err = r.Edit(ctx)
			}
			// A failed transition leaves the rig unclean; save it so the
			// next edit can recover.
			if serr := a.saveScene(ctx, g); serr != nil && err == nil {
				err = serr
			}
			if err != nil {
				return err
			}
			cmd.Printf("rig %s is %s\n", r.Name(), r.State())
			return nil
		},
	}
	cmd.Flags().StringVar(&rigName, "rig", "", "rig name (defaults to the only rig in the scene)")
	return cmd
}

func newRigDeleteCmd(a *app) *cobra.Command {
	var rigName string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a rig and its components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			r, err := a.findRig(g, rigName)
			if err != nil {
				return err
			}
			name := r.Name()
			if err := r.Delete(); err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("deleted rig %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&rigName, "rig", "", "rig name (defaults to the only rig in the scene)")
	return cmd
}
