// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chrono

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxSafeInteger is the ceiling for Duration and DateTime values
// (2^53 - 1), the largest integer every consumer of the state file can
// represent exactly.
const MaxSafeInteger = 1<<53 - 1

// ErrOverflow is returned when Duration arithmetic would exceed
// MaxSafeInteger.
var ErrOverflow = errors.New("chrono: duration exceeds maximum safe integer")

// Duration is a non-negative span in milliseconds.
type Duration uint64

// NewDuration validates a millisecond count.
func NewDuration(milliseconds int64) (Duration, error) {
	if milliseconds < 0 {
		return 0, fmt.Errorf("chrono: negative duration %dms", milliseconds)
	}
	if milliseconds > MaxSafeInteger {
		return 0, ErrOverflow
	}
	return Duration(milliseconds), nil
}

// FromStd converts a time.Duration, truncating to milliseconds.
func FromStd(d time.Duration) (Duration, error) {
	return NewDuration(d.Milliseconds())
}

// Milliseconds, Seconds, Minutes and Hours build literal durations,
// saturating at MaxSafeInteger.
func Milliseconds(n uint64) Duration { return saturate(n) }
func Seconds(n uint32) Duration      { return saturate(uint64(n) * 1000) }
func Minutes(n uint32) Duration      { return saturate(uint64(n) * 60 * 1000) }
func Hours(n uint32) Duration        { return saturate(uint64(n) * 60 * 60 * 1000) }

func saturate(n uint64) Duration {
	if n > MaxSafeInteger {
		return MaxSafeInteger
	}
	return Duration(n)
}

// Add returns d + other, or ErrOverflow when the sum exceeds
// MaxSafeInteger.
func (d Duration) Add(other Duration) (Duration, error) {
	if uint64(other) > MaxSafeInteger-uint64(d) {
		return d, ErrOverflow
	}
	return d + other, nil
}

// Sub returns d - other, or zero when other is larger.
func (d Duration) Sub(other Duration) Duration {
	if other >= d {
		return 0
	}
	return d - other
}

// IsZero reports whether d is zero.
func (d Duration) IsZero() bool { return d == 0 }

// Milliseconds returns the raw count.
func (d Duration) Milliseconds() uint64 { return uint64(d) }

// maxStdMilliseconds is the largest Duration a time.Duration can hold,
// about 292 years.
const maxStdMilliseconds = math.MaxInt64 / 1_000_000

// Std converts to a time.Duration, saturating at math.MaxInt64.
func (d Duration) Std() time.Duration {
	if uint64(d) > maxStdMilliseconds {
		return math.MaxInt64
	}
	return time.Duration(d) * time.Millisecond
}

// String formats d like time.Duration. Spans too long for a
// time.Duration are printed as whole hours, minutes and seconds.
func (d Duration) String() string {
	if uint64(d) <= maxStdMilliseconds {
		return d.Std().String()
	}
	seconds := uint64(d) / 1000
	return fmt.Sprintf("%dh%dm%ds", seconds/3600, seconds/60%60, seconds%60)
}
