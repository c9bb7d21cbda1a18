// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// discipline is the administrator's CLI for the discipline daemon: it
// writes the initial state file, shows what the daemon has persisted,
// validates policy files, and lengthens countdown blocks.
package main

import (
	"os"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/cmd/discipline/commands"
	"github.com/discipline-project/discipline/lib/process"
)

func main() {
	process.Exit(commands.Root().Execute(cli.StdEnv(), os.Args[1:]))
}
