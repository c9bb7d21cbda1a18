// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile persists the daemon's regulators between runs.
//
// A state file is a single CBOR map, the envelope:
//
//	{"version": 1, "checksum": h'…', "sealed": false, "payload": h'…'}
//
// The payload is the CBOR encoding of a [Snapshot]: the private
// password and the three regulators with their indicator trees and
// cached flags. The checksum is a BLAKE3 keyed hash of the payload
// bytes as stored, so truncation and bit rot are detected before any
// decoding happens. When [Options] carries an age recipient the
// payload is encrypted with filippo.io/age before hashing; loading a
// sealed file then requires the matching identity.
//
// [Save] writes atomically (temporary file, fsync, rename, fsync of the
// parent directory) with mode 0600, so a crash mid-write leaves the
// previous state intact. [Load] on a missing file returns an error
// wrapping [os.ErrNotExist], which callers treat as a first run.
package statefile
