// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/discipline"
	"github.com/discipline-project/discipline/lib/statefile"
)

func extendCommand() *cli.Command {
	var configs configFlags

	return &cli.Command{
		Name:    "extend",
		Summary: "Lengthen the countdown blocks on the user",
		Description: `Add time to every countdown in the user's block indicator.

A countdown blocks while time remains, so extending it keeps the user
blocked for longer. An exhausted countdown starts blocking again.

The state file is rewritten in place, so stop the daemon first. Either
every countdown is extended or, if one would overflow, none is.`,
		Usage: "discipline extend <duration> [flags]",
		Examples: []cli.Example{
			{
				Description: "Keep the user blocked for another half hour",
				Command:     "discipline extend 30m",
			},
		},
		Flags: func(flagSet *pflag.FlagSet) {
			configs.register(flagSet)
		},
		Run: func(env cli.Env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one duration argument, got %d", len(args))
			}
			parsed, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			duration, err := chrono.FromStd(parsed)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}

			cfg, err := configs.load()
			if err != nil {
				return err
			}
			options, err := stateOptions(cfg)
			if err != nil {
				return err
			}
			snapshot, err := statefile.Load(cfg.Paths.State, options)
			if err != nil {
				return err
			}

			extended, err := discipline.ExtendCountdowns(snapshot.UserAccess.BlockIndicator, duration)
			if err != nil {
				return err
			}
			if extended == 0 {
				fmt.Fprintln(env.Stdout, "no countdowns to extend")
				return nil
			}
			if err := statefile.Save(cfg.Paths.State, snapshot, options); err != nil {
				return err
			}
			env.Logger().Info("countdowns extended",
				"command", "extend",
				"count", extended,
				"duration", duration.String(),
				"path", cfg.Paths.State,
			)
			fmt.Fprintf(env.Stdout, "extended %d countdown(s) by %s\n", extended, duration)
			return nil
		},
	}
}
