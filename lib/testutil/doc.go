// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] bound channel waits with a real
// timer. Tests otherwise drive time through clock.Fake; these helpers
// are the only place wall-clock timeouts appear, and they exist only
// to turn a hung test into a failure.
//
// [WriteFile] lays down policy and config fixtures. All helpers call
// t.Fatalf on failure.
package testutil
