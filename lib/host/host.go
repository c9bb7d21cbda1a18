// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package host

import "context"

// Capabilities is everything the daemon asks of the operating system.
type Capabilities interface {
	// ShutdownDevice powers the machine off. On success the calling
	// process usually does not get to observe the return.
	ShutdownDevice(ctx context.Context) error

	// BlockNetwork disables network access for the machine.
	BlockNetwork(ctx context.Context) error

	// AllowNetwork re-enables network access.
	AllowNetwork(ctx context.Context) error

	// ChangeUserPassword sets username's login password.
	ChangeUserPassword(ctx context.Context, username, password string) error

	// SyncSystemClock steps the system clock to network time.
	SyncSystemClock(ctx context.Context) error
}
