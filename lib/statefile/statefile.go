// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/zeebo/blake3"

	"github.com/discipline-project/discipline/lib/codec"
	"github.com/discipline-project/discipline/lib/indicator"
	"github.com/discipline-project/discipline/lib/regulator"
)

// Version is the envelope format written by Save.
const Version = 1

var (
	// ErrChecksum is returned by Load when the payload does not match
	// its checksum.
	ErrChecksum = errors.New("statefile: checksum mismatch")

	// ErrSealed is returned by Load when the file is sealed and no
	// identity was supplied.
	ErrSealed = errors.New("statefile: file is sealed and no identity is configured")
)

// checksumKey is the BLAKE3 domain key for payload checksums: the ASCII
// name of the domain, zero-padded to 32 bytes.
var checksumKey = [32]byte{
	'd', 'i', 's', 'c', 'i', 'p', 'l', 'i', 'n', 'e', '.', 's', 't', 'a', 't', 'e',
	'.', 'p', 'a', 'y', 'l', 'o', 'a', 'd', 0, 0, 0, 0, 0, 0, 0, 0,
}

// Snapshot is everything the daemon persists.
type Snapshot struct {
	_ struct{} `cbor:",toarray"`

	// PrivatePassword is applied to the user while login is blocked.
	PrivatePassword string

	UserAccess    *regulator.UserAccess
	DeviceAccess  *regulator.DeviceAccess
	NetworkAccess *regulator.NetworkAccess
}

// Validate reports whether every regulator is present with an
// indicator.
func (s *Snapshot) Validate() error {
	switch {
	case s.PrivatePassword == "":
		return errors.New("snapshot has no private password")
	case s.UserAccess == nil || s.UserAccess.BlockIndicator == nil:
		return errors.New("snapshot has no user access regulator")
	case s.UserAccess.Username == "":
		return errors.New("snapshot user access regulator has no username")
	case s.DeviceAccess == nil || s.DeviceAccess.BlockIndicator == nil:
		return errors.New("snapshot has no device access regulator")
	case s.NetworkAccess == nil || s.NetworkAccess.BlockIndicator == nil:
		return errors.New("snapshot has no network access regulator")
	}
	trees := []struct {
		name string
		tree *indicator.Indicator
	}{
		{"user access", s.UserAccess.BlockIndicator},
		{"device access", s.DeviceAccess.BlockIndicator},
		{"network access", s.NetworkAccess.BlockIndicator},
	}
	for _, entry := range trees {
		if depth := entry.tree.Depth(); depth > indicator.MaxDepth {
			return fmt.Errorf("snapshot %s indicator is %d levels deep, limit is %d", entry.name, depth, indicator.MaxDepth)
		}
	}
	return nil
}

// Options controls sealing. The zero value writes and reads plaintext
// payloads.
type Options struct {
	// Recipients seal the payload on Save. Empty means plaintext.
	Recipients []age.Recipient

	// Identities unseal the payload on Load.
	Identities []age.Identity
}

// Sealed reports whether Save will encrypt.
func (o Options) Sealed() bool { return len(o.Recipients) > 0 }

type envelope struct {
	Version  uint   `cbor:"version"`
	Checksum []byte `cbor:"checksum"`
	Sealed   bool   `cbor:"sealed"`
	Payload  []byte `cbor:"payload"`
}

// Encode returns the file contents for snapshot.
func Encode(snapshot *Snapshot, options Options) ([]byte, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	payload, err := codec.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	if options.Sealed() {
		payload, err = seal(payload, options.Recipients)
		if err != nil {
			return nil, err
		}
	}
	data, err := codec.Marshal(envelope{
		Version:  Version,
		Checksum: checksum(payload),
		Sealed:   options.Sealed(),
		Payload:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// Decode parses file contents produced by Encode.
func Decode(data []byte, options Options) (*Snapshot, error) {
	var file envelope
	if err := codec.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if file.Version != Version {
		return nil, fmt.Errorf("unsupported state file version %d (want %d)", file.Version, Version)
	}
	if !bytes.Equal(file.Checksum, checksum(file.Payload)) {
		return nil, ErrChecksum
	}

	payload := file.Payload
	if file.Sealed {
		if len(options.Identities) == 0 {
			return nil, ErrSealed
		}
		var err error
		payload, err = unseal(payload, options.Identities)
		if err != nil {
			return nil, err
		}
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Save atomically replaces the state file at path.
func Save(path string, snapshot *Snapshot, options Options) error {
	data, err := Encode(snapshot, options)
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Load reads the state file at path. A missing file yields an error
// wrapping os.ErrNotExist.
func Load(path string, options Options) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	snapshot, err := Decode(data, options)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return snapshot, nil
}

func checksum(payload []byte) []byte {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic("statefile: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hasher.Sum(nil)
}

func seal(plaintext []byte, recipients []age.Recipient) ([]byte, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

func unseal(ciphertext []byte, identities []age.Identity) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("unsealing state: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading unsealed state: %w", err)
	}
	return plaintext, nil
}

// writeAtomic writes data to a temporary file beside path, syncs it,
// and renames it into place. The parent directory must exist.
func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary state file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming state file into place: %w", err)
	}

	// The rename is only durable once the directory entry is flushed.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}
