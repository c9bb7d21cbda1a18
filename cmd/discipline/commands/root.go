// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the discipline admin CLI command tree.
package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/config"
	"github.com/discipline-project/discipline/lib/statefile"
	"github.com/discipline-project/discipline/lib/version"
)

// Root returns the top-level command.
func Root() *cli.Command {
	return &cli.Command{
		Name: "discipline",
		Description: `Administer the discipline daemon.

The daemon enforces the schedule in its state file. These commands
create that file from a policy, inspect it, and lengthen its countdown
blocks. Commands that write the state file should be run while the
daemon is stopped; a running daemon overwrites the file on its next
sync.`,
		Subcommands: []*cli.Command{
			initCommand(),
			statusCommand(),
			checkPolicyCommand(),
			extendCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(env cli.Env, args []string) error {
			fmt.Fprintf(env.Stdout, "discipline %s\n", version.Full())
			return nil
		},
	}
}

// configFlags is the --config flag shared by commands that read the
// daemon's configuration.
type configFlags struct {
	path string
}

func (c *configFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.path, "config", "", "path to discipline.yaml (default: $"+config.EnvironmentVariable+")")
}

func (c *configFlags) load() (*config.Config, error) {
	if c.path != "" {
		return config.LoadFile(c.path)
	}
	return config.Load()
}

// stateOptions returns the sealing options configured for cfg.
func stateOptions(cfg *config.Config) (statefile.Options, error) {
	if cfg.Paths.Identity == "" {
		return statefile.Options{}, nil
	}
	return statefile.LoadIdentityFile(cfg.Paths.Identity)
}
