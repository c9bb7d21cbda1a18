// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what the daemon and the admin CLI were built
// from. The revision and commit time come from the VCS stamp the go
// command embeds; only [Version] is injected with -ldflags:
//
//	go build -ldflags "-X github.com/discipline-project/discipline/lib/version.Version=1.0.0" ./cmd/...
package version
