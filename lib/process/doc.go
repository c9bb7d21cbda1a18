// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error handler shared by the
// daemon and the admin CLI. Errors that reach main() are reported on
// stderr, where the structured logger may not exist yet.
package process
