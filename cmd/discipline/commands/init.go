// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/discipline"
	"github.com/discipline-project/discipline/lib/policy"
	"github.com/discipline-project/discipline/lib/statefile"
)

// readPassword prompts on the terminal without echo. Tests replace it.
var readPassword = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--prompt-password requires a terminal on stdin")
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func initCommand() *cli.Command {
	var (
		configs          configFlags
		policyPath       string
		promptPassword   bool
		force            bool
		generateIdentity bool
	)

	return &cli.Command{
		Name:    "init",
		Summary: "Write a fresh state file from a policy",
		Description: `Write a fresh state file from a policy.

The policy's block indicators become the daemon's regulators with all
countdowns at their configured totals. A new private password is
generated for blocked logins. The normal password comes from the
policy, or from the terminal with --prompt-password so it never has to
be written to disk in plain text.`,
		Usage: "discipline init [flags]",
		Examples: []cli.Example{
			{
				Description: "Initialize from the configured policy, typing the password",
				Command:     "discipline init --prompt-password",
			},
			{
				Description: "Seal the state file with a new age identity",
				Command:     "discipline init --generate-identity",
			},
		},
		Flags: func(flagSet *pflag.FlagSet) {
			configs.register(flagSet)
			flagSet.StringVar(&policyPath, "policy", "", "policy file (default: paths.policy from the config)")
			flagSet.BoolVar(&promptPassword, "prompt-password", false, "read the normal password from the terminal")
			flagSet.BoolVar(&force, "force", false, "replace an existing state file")
			flagSet.BoolVar(&generateIdentity, "generate-identity", false, "create the age identity at paths.identity before writing")
		},
		Run: func(env cli.Env, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			cfg, err := configs.load()
			if err != nil {
				return err
			}
			logger := env.Logger().With("command", "init")

			if policyPath == "" {
				policyPath = cfg.Paths.Policy
			}
			parsed, err := policy.ReadFile(policyPath)
			if err != nil {
				return err
			}
			if promptPassword {
				password, err := confirmPassword(parsed.Username)
				if err != nil {
					return err
				}
				parsed.Password = password
			}

			if _, err := os.Stat(cfg.Paths.State); err == nil && !force {
				return fmt.Errorf("state file %s already exists (use --force to replace it)", cfg.Paths.State)
			}
			if err := cfg.EnsurePaths(); err != nil {
				return err
			}

			if generateIdentity {
				if cfg.Paths.Identity == "" {
					return errors.New("--generate-identity needs paths.identity in the config")
				}
				recipient, err := statefile.GenerateIdentityFile(cfg.Paths.Identity)
				if err != nil {
					return err
				}
				fmt.Fprintf(env.Stdout, "identity written to %s\npublic key: %s\n", cfg.Paths.Identity, recipient)
			}
			options, err := stateOptions(cfg)
			if err != nil {
				return err
			}

			snapshot, err := discipline.SnapshotFromPolicy(parsed)
			if err != nil {
				return err
			}
			if err := statefile.Save(cfg.Paths.State, snapshot, options); err != nil {
				return err
			}
			logger.Info("state file written",
				"path", cfg.Paths.State,
				"policy", policyPath,
				"user", parsed.Username,
				"sealed", options.Sealed(),
			)
			fmt.Fprintf(env.Stdout, "state written to %s\n", cfg.Paths.State)
			return nil
		},
	}
}

// confirmPassword reads the normal password twice.
func confirmPassword(username string) (string, error) {
	first, err := readPassword(fmt.Sprintf("normal password for %s: ", username))
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	second, err := readPassword("repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}
