// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Logger returns a logger writing to e.Stderr: text for a terminal,
// JSON otherwise so the output matches the daemon's journal entries.
func (e Env) Logger() *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if file, ok := e.Stderr.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(e.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(e.Stderr, options))
}
