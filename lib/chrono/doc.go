// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package chrono provides the bounded temporal value types that status
// indicators are evaluated against.
//
// Hour and Minute are ordinals, not wall-clock numbers: the hour 00:xx
// is Hour 1 and 23:xx is Hour 24; the minute :00 is Minute 1 and :59
// is Minute 60. Use [HourOf] and [MinuteOf] to convert from wall-clock
// values. Weekday follows time.Weekday (Sunday is 0).
//
// Every type has a checked constructor that reports whether the value
// is in range and an Unchecked variant for trusted inputs (decoding a
// state file this process wrote). Unchecked constructors do not
// validate; callers own the invariant.
//
// [Duration] is a non-negative millisecond count capped at
// [MaxSafeInteger]. Subtraction saturates at zero; addition past the
// ceiling returns [ErrOverflow].
//
// [DateTime] is an absolute instant in epoch milliseconds, clamped to
// [0, MaxSafeInteger]. Its calendar accessors are computed in a fixed
// UTC+03:00 zone regardless of the host's locale.
//
// This package depends on no other Discipline packages.
package chrono
