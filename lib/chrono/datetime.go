// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chrono

import "time"

// zone is the fixed UTC+03:00 offset every calendar accessor uses.
// It is deliberately independent of the host's configured locale.
var zone = time.FixedZone("UTC+03:00", 3*60*60)

// Zone returns the location DateTime accessors are computed in.
func Zone() *time.Location { return zone }

// DateTime is an absolute instant with millisecond precision.
type DateTime struct {
	milliseconds int64
}

// FromMilliseconds builds a DateTime from epoch milliseconds, clamped
// to [0, MaxSafeInteger].
func FromMilliseconds(milliseconds int64) DateTime {
	return DateTime{milliseconds: clamp(milliseconds)}
}

// FromTime converts a time.Time.
func FromTime(t time.Time) DateTime {
	return FromMilliseconds(t.UnixMilli())
}

func clamp(milliseconds int64) int64 {
	if milliseconds < 0 {
		return 0
	}
	if milliseconds > MaxSafeInteger {
		return MaxSafeInteger
	}
	return milliseconds
}

// Milliseconds returns epoch milliseconds.
func (d DateTime) Milliseconds() int64 { return d.milliseconds }

// Std returns the instant as a time.Time in Zone.
func (d DateTime) Std() time.Time {
	return time.UnixMilli(d.milliseconds).In(zone)
}

func (d DateTime) Hour() Hour {
	return Hour(d.Std().Hour() + 1)
}

func (d DateTime) Minute() Minute {
	return Minute(d.Std().Minute() + 1)
}

func (d DateTime) Weekday() Weekday {
	return Weekday(d.Std().Weekday())
}

// TimeOfDay returns the hour and minute of d.
func (d DateTime) TimeOfDay() Time {
	local := d.Std()
	return Time{hour: Hour(local.Hour() + 1), minute: Minute(local.Minute() + 1)}
}

// Since returns d - earlier, or zero when earlier is after d.
func (d DateTime) Since(earlier DateTime) Duration {
	if earlier.milliseconds >= d.milliseconds {
		return 0
	}
	return Duration(d.milliseconds - earlier.milliseconds)
}

// Add returns d shifted forward by duration, clamped to MaxSafeInteger.
func (d DateTime) Add(duration Duration) DateTime {
	if uint64(duration) > uint64(MaxSafeInteger-d.milliseconds) {
		return DateTime{milliseconds: MaxSafeInteger}
	}
	return DateTime{milliseconds: d.milliseconds + int64(duration)}
}

// Subtract returns d shifted backward by duration, clamped to zero.
func (d DateTime) Subtract(duration Duration) DateTime {
	if uint64(duration) >= uint64(d.milliseconds) {
		return DateTime{}
	}
	return DateTime{milliseconds: d.milliseconds - int64(duration)}
}

func (d DateTime) Before(other DateTime) bool { return d.milliseconds < other.milliseconds }
func (d DateTime) After(other DateTime) bool  { return d.milliseconds > other.milliseconds }
func (d DateTime) Equal(other DateTime) bool  { return d.milliseconds == other.milliseconds }

func (d DateTime) String() string {
	return d.Std().Format(time.RFC3339)
}
