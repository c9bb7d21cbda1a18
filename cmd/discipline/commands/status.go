// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/codec"
	"github.com/discipline-project/discipline/lib/indicator"
	"github.com/discipline-project/discipline/lib/statefile"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	blockedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	allowedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	treeStyle     = lipgloss.NewStyle().PaddingLeft(4)
	sectionIndent = "  "
)

// now is the wall clock used by status. Tests replace it.
var now = time.Now

func statusCommand() *cli.Command {
	var (
		configs configFlags
		raw     bool
	)

	return &cli.Command{
		Name:    "status",
		Summary: "Show the persisted state",
		Description: `Show the persisted state.

Reads the state file and prints each regulator with its block
indicator and whether that indicator is active right now. Evaluation
happens on a copy: countdowns in the file are not consumed.`,
		Usage: "discipline status [flags]",
		Examples: []cli.Example{
			{
				Description: "Dump the decoded snapshot in CBOR diagnostic notation",
				Command:     "discipline status --raw",
			},
		},
		Flags: func(flagSet *pflag.FlagSet) {
			configs.register(flagSet)
			flagSet.BoolVar(&raw, "raw", false, "print the snapshot in CBOR diagnostic notation")
		},
		Run: func(env cli.Env, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
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
			if raw {
				return writeRaw(env.Stdout, snapshot)
			}
			fmt.Fprintf(env.Stdout, "%s %s\n", labelStyle.Render("state:"), cfg.Paths.State)
			renderStatus(env.Stdout, snapshot, chrono.FromTime(now()))
			return nil
		},
	}
}

func writeRaw(w io.Writer, snapshot *statefile.Snapshot) error {
	encoded, err := codec.Marshal(snapshot)
	if err != nil {
		return err
	}
	diagnostic, err := codec.Diagnose(encoded)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, diagnostic)
	return nil
}

// renderStatus writes a styled summary of snapshot. Indicators are
// evaluated on clones.
func renderStatus(w io.Writer, snapshot *statefile.Snapshot, at chrono.DateTime) {
	fmt.Fprintf(w, "%s %s (%s)\n", labelStyle.Render("now:"), at, at.Weekday())

	fmt.Fprintf(w, "\n%s\n", headingStyle.Render("device access"))
	writeIndicator(w, snapshot.DeviceAccess.BlockIndicator, at)

	fmt.Fprintf(w, "\n%s\n", headingStyle.Render("network access"))
	fmt.Fprintf(w, "%s%s %s\n", sectionIndent, labelStyle.Render("applied:"),
		verdict(!snapshot.NetworkAccess.Allowed, "blocked", "allowed"))
	writeIndicator(w, snapshot.NetworkAccess.BlockIndicator, at)

	fmt.Fprintf(w, "\n%s\n", headingStyle.Render("user access ("+snapshot.UserAccess.Username+")"))
	fmt.Fprintf(w, "%s%s %s\n", sectionIndent, labelStyle.Render("applied:"),
		verdict(snapshot.UserAccess.Blocked, "private password", "normal password"))
	writeIndicator(w, snapshot.UserAccess.BlockIndicator, at)
	if countdowns := countdownSummary(snapshot.UserAccess.BlockIndicator); countdowns != "" {
		fmt.Fprintf(w, "%s%s %s\n", sectionIndent, labelStyle.Render("countdowns:"), countdowns)
	}
}

func writeIndicator(w io.Writer, block *indicator.Indicator, at chrono.DateTime) {
	active := block.Clone().IsActive(at)
	fmt.Fprintf(w, "%s%s %s\n", sectionIndent, labelStyle.Render("block now:"),
		verdict(active, "yes", "no"))
	fmt.Fprintf(w, "%s%s\n%s\n", sectionIndent, labelStyle.Render("block:"),
		treeStyle.Render(block.String()))
}

func verdict(blocked bool, blockedText, allowedText string) string {
	if blocked {
		return blockedStyle.Render(blockedText)
	}
	return allowedStyle.Render(allowedText)
}

// countdownSummary lists the remaining time of every countdown in tree.
func countdownSummary(tree *indicator.Indicator) string {
	var remaining []string
	tree.Walk(func(node *indicator.Indicator) {
		if node.Kind() == indicator.KindCountdown {
			remaining = append(remaining, node.Remaining().String())
		}
	})
	return strings.Join(remaining, ", ")
}
