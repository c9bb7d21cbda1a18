// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the discipline
// admin CLI.
//
// A [Command] tree is dispatched by [Command.Execute]: leading
// positional arguments select subcommands, the remaining arguments are
// parsed with a [pflag.FlagSet] the framework creates and the command
// populates, and the command's Run receives an [Env] holding the
// output streams. Misspelled subcommands and flags get a "did you
// mean" suggestion by edit distance.
package cli
