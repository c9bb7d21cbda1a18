// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/indicator"
)

// PasswordChanger is the host capability UserAccess enforces through.
type PasswordChanger interface {
	ChangeUserPassword(ctx context.Context, username, password string) error
}

// NetworkSwitch is the host capability NetworkAccess enforces through.
type NetworkSwitch interface {
	BlockNetwork(ctx context.Context) error
	AllowNetwork(ctx context.Context) error
}

// PowerSwitch is the host capability DeviceAccess enforces through.
type PowerSwitch interface {
	ShutdownDevice(ctx context.Context) error
}

var errNoIndicator = errors.New("regulator: block indicator is nil")

// UserAccess blocks a user's login by replacing their password.
//
// It encodes as the array [username, password, blocked, indicator].
type UserAccess struct {
	_ struct{} `cbor:",toarray"`

	Username string
	Password string

	// Blocked is true while the private password is applied.
	Blocked bool

	BlockIndicator *indicator.Indicator
}

// NewUserAccess returns an unblocked regulator for username.
func NewUserAccess(username, password string, block *indicator.Indicator) *UserAccess {
	return &UserAccess{Username: username, Password: password, BlockIndicator: block}
}

// Sync reconciles the user's password with the indicator at now.
// privatePassword is the password applied while blocked.
func (u *UserAccess) Sync(ctx context.Context, changer PasswordChanger, now chrono.DateTime, privatePassword string) error {
	if u.BlockIndicator == nil {
		return errNoIndicator
	}
	active := u.BlockIndicator.IsActive(now)
	switch {
	case active && !u.Blocked:
		if err := changer.ChangeUserPassword(ctx, u.Username, privatePassword); err != nil {
			return fmt.Errorf("blocking user %s: %w", u.Username, err)
		}
		u.Blocked = true
	case !active && u.Blocked:
		if err := changer.ChangeUserPassword(ctx, u.Username, u.Password); err != nil {
			return fmt.Errorf("unblocking user %s: %w", u.Username, err)
		}
		u.Blocked = false
	}
	return nil
}

// ClearCache marks the user unblocked without touching the host. Use
// it after restoring the password out of band.
func (u *UserAccess) ClearCache() {
	u.Blocked = false
}

// NetworkAccess blocks the machine's network. It encodes as the array
// [allowed, indicator].
type NetworkAccess struct {
	_ struct{} `cbor:",toarray"`

	// Allowed is false while the network block is applied.
	Allowed bool

	BlockIndicator *indicator.Indicator
}

// NewNetworkAccess returns a regulator that starts with the network
// allowed.
func NewNetworkAccess(block *indicator.Indicator) *NetworkAccess {
	return &NetworkAccess{Allowed: true, BlockIndicator: block}
}

// Sync reconciles network access with the indicator at now.
func (n *NetworkAccess) Sync(ctx context.Context, network NetworkSwitch, now chrono.DateTime) error {
	if n.BlockIndicator == nil {
		return errNoIndicator
	}
	active := n.BlockIndicator.IsActive(now)
	switch {
	case active && n.Allowed:
		if err := network.BlockNetwork(ctx); err != nil {
			return fmt.Errorf("blocking network: %w", err)
		}
		n.Allowed = false
	case !active && !n.Allowed:
		if err := network.AllowNetwork(ctx); err != nil {
			return fmt.Errorf("allowing network: %w", err)
		}
		n.Allowed = true
	}
	return nil
}

// DeviceAccess powers the machine off while its indicator is active.
// It encodes as the array [indicator].
type DeviceAccess struct {
	_ struct{} `cbor:",toarray"`

	BlockIndicator *indicator.Indicator
}

// NewDeviceAccess returns a device regulator.
func NewDeviceAccess(block *indicator.Indicator) *DeviceAccess {
	return &DeviceAccess{BlockIndicator: block}
}

// Sync shuts the device down if the indicator is active at now.
func (d *DeviceAccess) Sync(ctx context.Context, power PowerSwitch, now chrono.DateTime) error {
	if d.BlockIndicator == nil {
		return errNoIndicator
	}
	if !d.BlockIndicator.IsActive(now) {
		return nil
	}
	if err := power.ShutdownDevice(ctx); err != nil {
		return fmt.Errorf("shutting down device: %w", err)
	}
	return nil
}
