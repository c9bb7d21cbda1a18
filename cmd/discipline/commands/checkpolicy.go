// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/policy"
)

func checkPolicyCommand() *cli.Command {
	var configs configFlags

	return &cli.Command{
		Name:    "check-policy",
		Summary: "Validate a policy file",
		Description: `Validate a policy file.

Parses the file the way the daemon does on first run and prints the
resulting block indicators. Exits with status 1 when the policy is
invalid. Without an argument, checks paths.policy from the config.`,
		Usage: "discipline check-policy [<file>] [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a draft before installing it",
				Command:     "discipline check-policy ./policy.jsonc",
			},
		},
		Flags: func(flagSet *pflag.FlagSet) {
			configs.register(flagSet)
		},
		Run: func(env cli.Env, args []string) error {
			var path string
			switch len(args) {
			case 0:
				cfg, err := configs.load()
				if err != nil {
					return err
				}
				path = cfg.Paths.Policy
			case 1:
				path = args[0]
			default:
				return fmt.Errorf("expected at most one policy file, got %d arguments", len(args))
			}

			parsed, err := policy.ReadFile(path)
			if err != nil {
				fmt.Fprintf(env.Stdout, "invalid: %v\n", err)
				return &cli.ExitError{Code: 1}
			}

			fmt.Fprintf(env.Stdout, "%s: ok\n", path)
			fmt.Fprintf(env.Stdout, "  user:    %s\n", parsed.Username)
			if parsed.Password == "" {
				fmt.Fprintf(env.Stdout, "  password: not set (init needs --prompt-password)\n")
			}
			fmt.Fprintf(env.Stdout, "  user block:    %s\n", parsed.UserBlock)
			fmt.Fprintf(env.Stdout, "  network block: %s\n", parsed.NetworkBlock)
			fmt.Fprintf(env.Stdout, "  device block:  %s\n", parsed.DeviceBlock)
			return nil
		},
	}
}
