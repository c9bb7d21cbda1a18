// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Env is the outside world as a command sees it.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
}

// StdEnv returns the process's standard streams.
func StdEnv() Env {
	return Env{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Command is a node in the command tree. A node with Subcommands and
// no Run is a group; selecting it without a subcommand prints help.
type Command struct {
	Name        string
	Summary     string
	Description string

	// Usage overrides the synthesized usage line.
	Usage    string
	Examples []Example

	// Flags registers the command's flags. Flag destinations are
	// usually variables captured by Run.
	Flags func(flags *pflag.FlagSet)

	Subcommands []*Command
	Run         func(env Env, args []string) error
}

// Example is a usage example shown in help.
type Example struct {
	Description string
	Command     string
}

// Execute selects the command named by the leading arguments, parses
// its flags, and runs it.
func (c *Command) Execute(env Env, args []string) error {
	path := []*Command{c}
	selected := c
	for len(args) > 0 && len(selected.Subcommands) > 0 {
		arg := args[0]
		if arg == "help" || arg == "-h" || arg == "--help" {
			writeHelp(env.Stderr, path)
			return nil
		}
		if strings.HasPrefix(arg, "-") {
			break
		}
		next := selected.subcommand(arg)
		if next == nil {
			return unknownCommand(path, arg)
		}
		path = append(path, next)
		selected = next
		args = args[1:]
	}

	if selected.Run == nil {
		writeHelp(env.Stderr, path)
		return fmt.Errorf("%s needs a subcommand", pathName(path))
	}

	flags := selected.flagSet(pathName(path))
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			writeHelp(env.Stderr, path)
			return nil
		}
		return flagError(path, flags, args, err)
	}
	return selected.Run(env, flags.Args())
}

func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// flagSet builds a fresh, silent flag set for c.
func (c *Command) flagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	if c.Flags != nil {
		c.Flags(flags)
	}
	return flags
}

func pathName(path []*Command) string {
	names := make([]string, len(path))
	for i, command := range path {
		names[i] = command.Name
	}
	return strings.Join(names, " ")
}

func unknownCommand(path []*Command, name string) error {
	parent := path[len(path)-1]
	candidates := make([]string, len(parent.Subcommands))
	for i, sub := range parent.Subcommands {
		candidates[i] = sub.Name
	}
	message := fmt.Sprintf("unknown command %q", name)
	if suggestion, ok := closest(name, candidates); ok {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, pathName(path))
}

func flagError(path []*Command, flags *pflag.FlagSet, args []string, err error) error {
	message := err.Error()
	if name, ok := undefinedFlag(flags, args); ok {
		var candidates []string
		flags.VisitAll(func(flag *pflag.Flag) {
			candidates = append(candidates, flag.Name)
		})
		if suggestion, ok := closest(name, candidates); ok {
			message += fmt.Sprintf(" (did you mean --%s?)", suggestion)
		}
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, pathName(path))
}

// undefinedFlag returns the name of the first long flag in args that
// flags does not define.
func undefinedFlag(flags *pflag.FlagSet, args []string) (string, bool) {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if flags.Lookup(name) == nil {
			return name, true
		}
	}
	return "", false
}
