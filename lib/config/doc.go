// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the discipline
// daemon and its admin CLI.
//
// Configuration is loaded from a single file specified by either the
// DISCIPLINE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search: the file that governs a
// machine's restrictions must be the one the administrator named.
//
// The file may contain development and production sections that
// override base values when [Config].Environment matches. Production
// disables the debug HTTP surface unless the production section turns
// it back on explicitly.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DISCIPLINE_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// This package depends on no other discipline packages.
package config
