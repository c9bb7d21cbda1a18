// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package regulator pairs a status indicator with an enforcement
// action on the host.
//
// Each regulator's Sync is one reconciliation pass: evaluate the block
// indicator, compare it with the cached enforcement state, issue at
// most one host call, and update the cache only when that call
// succeeds. The cache records what was last applied, not what the
// indicator currently says, so repeated syncs in the same state issue
// no host calls and a failed call is retried on the next sync.
//
//   - [UserAccess] swaps a user's password between the normal one and
//     a private one the user does not know.
//   - [NetworkAccess] blocks and allows the machine's network.
//   - [DeviceAccess] powers the machine off whenever its indicator is
//     active. It has no cache: a successful shutdown ends the process.
//
// Regulators are not safe for concurrent use. The discipline package
// holds one mutex per regulator around every Sync.
package regulator
