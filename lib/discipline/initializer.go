// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package discipline

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/discipline-project/discipline/lib/policy"
	"github.com/discipline-project/discipline/lib/statefile"
)

// privatePasswordBytes is the entropy of a generated private password.
const privatePasswordBytes = 24

// NewPrivatePassword returns a random password that nobody knows, to be
// applied while the user is blocked.
func NewPrivatePassword() (string, error) {
	buffer := make([]byte, privatePasswordBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("generating private password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// ErrNoPassword is returned when a policy without a normal password is
// used to build a snapshot. The admin CLI fills the password in from the
// terminal; the daemon cannot.
var ErrNoPassword = errors.New("policy does not set user.password")

// SnapshotFromPolicy builds a first-run snapshot: fresh regulators from
// the policy and a newly generated private password.
func SnapshotFromPolicy(parsed *policy.Policy) (*statefile.Snapshot, error) {
	if parsed.Password == "" {
		return nil, ErrNoPassword
	}
	privatePassword, err := NewPrivatePassword()
	if err != nil {
		return nil, err
	}
	user, network, device := parsed.Regulators()
	return &statefile.Snapshot{
		PrivatePassword: privatePassword,
		UserAccess:      user,
		NetworkAccess:   network,
		DeviceAccess:    device,
	}, nil
}

// PolicyInitializer returns an Initializer that reads the policy file
// at policyPath.
func PolicyInitializer(policyPath string) Initializer {
	return func(statePath string) (*statefile.Snapshot, error) {
		parsed, err := policy.ReadFile(policyPath)
		if err != nil {
			return nil, err
		}
		return SnapshotFromPolicy(parsed)
	}
}
