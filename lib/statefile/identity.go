// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"fmt"
	"os"

	"filippo.io/age"
)

// LoadIdentityFile reads an age identity file and returns Options that
// seal to, and unseal with, every X25519 identity in it.
func LoadIdentityFile(path string) (Options, error) {
	file, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return Options{}, fmt.Errorf("parsing identity file %s: %w", path, err)
	}

	var options Options
	for _, identity := range identities {
		x25519, ok := identity.(*age.X25519Identity)
		if !ok {
			continue
		}
		options.Identities = append(options.Identities, x25519)
		options.Recipients = append(options.Recipients, x25519.Recipient())
	}
	if len(options.Identities) == 0 {
		return Options{}, fmt.Errorf("identity file %s contains no X25519 identities", path)
	}
	return options, nil
}

// GenerateIdentityFile writes a fresh X25519 identity to path with mode
// 0600 and returns its public recipient string. An existing file is
// never overwritten.
func GenerateIdentityFile(path string) (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating age identity: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("creating identity file: %w", err)
	}
	recipient := identity.Recipient().String()
	_, err = fmt.Fprintf(file, "# public key: %s\n%s\n", recipient, identity.String())
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	return recipient, nil
}
