// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration shared by every
// Discipline package that persists state.
//
// The state file, the regulators and the status indicator trees are
// all encoded through this package. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2), so the same logical state
// always produces identical bytes and the statefile checksum is stable
// across saves. The decoder is strict: duplicate map keys and unknown
// struct fields are errors, because every byte it reads was written
// by this program and anything unexpected means corruption.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that need a custom wire shape (the tagged arrays used for
// indicators) implement cbor.Marshaler and cbor.Unmarshaler in terms
// of [Marshal], [Unmarshal] and [RawMessage].
package codec
