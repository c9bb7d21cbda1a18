// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package discipline ties the regulators, the host capabilities, time
// synchronization, and the state file into the daemon's control loop.
//
// [Open] loads the persisted [statefile.Snapshot], or builds and saves
// a fresh one through an [Initializer] on first run. [Discipline.Run]
// then syncs every regulator once and keeps them in step with three
// independent tickers:
//
//   - user access every 5 minutes,
//   - network access every minute,
//   - device access every 5 seconds, each tick preceded by a
//     rate-limited system clock sync so that a clock wound back by
//     the user is corrected before the device decision is made.
//
// A failed tick is logged and the loop carries on; the next tick
// retries. Every successful sync persists the full snapshot, so the
// cached blocked/allowed flags and countdown progress survive restarts.
//
// Each regulator has its own mutex. The loop and the debug surface
// ([Discipline.SyncUserAccess] and friends, called from the debug HTTP
// server) can run concurrently without overlapping OS calls on the
// same regulator. Saving takes the three regulator locks in a fixed
// order: device, network, user.
package discipline
