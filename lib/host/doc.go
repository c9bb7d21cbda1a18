// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package host provides the operating-system capabilities that
// regulators enforce through: changing a user's password, toggling
// network access, powering off the device and stepping the system
// clock.
//
// [Capabilities] is the full set. Consumers declare the narrow subset
// they need (regulator.PasswordChanger, timesync.ClockSyncer, ...) and
// accept any implementation; [Linux] is the production one, and tests
// substitute recording fakes.
//
// Every operation takes a context and returns an error. Timeouts are
// the caller's context deadline; this package imposes none of its own.
package host
