// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true)
	commentStyle = lipgloss.NewStyle().Faint(true)
)

// writeHelp prints help for the last command in path.
func writeHelp(w io.Writer, path []*Command) {
	command := path[len(path)-1]
	name := pathName(path)

	switch {
	case command.Description != "":
		fmt.Fprintf(w, "%s\n\n", command.Description)
	case command.Summary != "":
		fmt.Fprintf(w, "%s\n\n", command.Summary)
	}

	usage := command.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(command.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "%s\n  %s\n", sectionStyle.Render("Usage:"), usage)

	if len(command.Subcommands) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Commands:"))
		table := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, sub := range command.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if defaults := command.flagSet(name).FlagUsages(); defaults != "" {
		fmt.Fprintf(w, "\n%s\n%s", sectionStyle.Render("Flags:"), defaults)
	}

	if len(command.Examples) > 0 {
		fmt.Fprintf(w, "\n%s\n", sectionStyle.Render("Examples:"))
		var blocks []string
		for _, example := range command.Examples {
			block := "  " + example.Command
			if example.Description != "" {
				block = commentStyle.Render("  # "+example.Description) + "\n" + block
			}
			blocks = append(blocks, block)
		}
		fmt.Fprintln(w, strings.Join(blocks, "\n\n"))
	}

	if len(command.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more about a command.\n", name)
	}
}
