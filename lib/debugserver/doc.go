// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package debugserver exposes the daemon's state and manual sync
// triggers over plain-text HTTP, for an administrator on the same
// machine:
//
//	GET  /state         current regulators and indicators
//	POST /sync/time     rate-limited system clock sync
//	POST /sync/user     sync user access now
//	POST /sync/device   sync device access now
//	POST /sync/network  sync network access now
//
// The endpoints are unauthenticated and must only be bound to a
// loopback address. A failing sync answers 500 with the error text;
// the server keeps serving. Response bodies are for humans and may
// change between releases.
package debugserver
