// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chrono

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hour is an hour-of-day ordinal in [MinHour, MaxHour].
type Hour uint8

const (
	MinHour Hour = 1
	MaxHour Hour = 24
)

// NewHour returns the hour with the given ordinal, or false when the
// ordinal is outside [1, 24].
func NewHour(ordinal int) (Hour, bool) {
	if ordinal < int(MinHour) || ordinal > int(MaxHour) {
		return 0, false
	}
	return Hour(ordinal), true
}

// UncheckedHour converts ordinal without validation.
func UncheckedHour(ordinal int) Hour {
	return Hour(ordinal)
}

// HourOf returns the ordinal for a wall-clock hour in [0, 23].
func HourOf(clockHour int) (Hour, bool) {
	return NewHour(clockHour + 1)
}

// AM returns the ordinal for clockHour o'clock in the morning (12 is
// midnight). Panics when clockHour is outside [1, 12]; intended for
// literals.
func AM(clockHour int) Hour {
	if clockHour < 1 || clockHour > 12 {
		panic(fmt.Sprintf("chrono: AM hour %d out of range [1, 12]", clockHour))
	}
	return Hour(clockHour%12 + 1)
}

// PM returns the ordinal for clockHour o'clock in the afternoon or
// evening (12 is noon). Panics when clockHour is outside [1, 12].
func PM(clockHour int) Hour {
	if clockHour < 1 || clockHour > 12 {
		panic(fmt.Sprintf("chrono: PM hour %d out of range [1, 12]", clockHour))
	}
	return Hour(clockHour%12 + 13)
}

// ClockHour returns the wall-clock hour in [0, 23].
func (h Hour) ClockHour() int { return int(h) - 1 }

// Valid reports whether h is within [MinHour, MaxHour].
func (h Hour) Valid() bool { return h >= MinHour && h <= MaxHour }

// Minute is a minute-of-hour ordinal in [MinMinute, MaxMinute].
type Minute uint8

const (
	MinMinute Minute = 1
	MaxMinute Minute = 60
)

// NewMinute returns the minute with the given ordinal, or false when
// the ordinal is outside [1, 60].
func NewMinute(ordinal int) (Minute, bool) {
	if ordinal < int(MinMinute) || ordinal > int(MaxMinute) {
		return 0, false
	}
	return Minute(ordinal), true
}

// UncheckedMinute converts ordinal without validation.
func UncheckedMinute(ordinal int) Minute {
	return Minute(ordinal)
}

// MinuteOf returns the ordinal for a wall-clock minute in [0, 59].
func MinuteOf(clockMinute int) (Minute, bool) {
	return NewMinute(clockMinute + 1)
}

// ClockMinute returns the wall-clock minute in [0, 59].
func (m Minute) ClockMinute() int { return int(m) - 1 }

// Valid reports whether m is within [MinMinute, MaxMinute].
func (m Minute) Valid() bool { return m >= MinMinute && m <= MaxMinute }

// Weekday is a day of the week, Sunday = 0.
type Weekday uint8

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// NewWeekday returns the weekday with the given number, or false when
// it is outside [0, 6].
func NewWeekday(number int) (Weekday, bool) {
	if number < int(Sunday) || number > int(Saturday) {
		return 0, false
	}
	return Weekday(number), true
}

// UncheckedWeekday converts number without validation.
func UncheckedWeekday(number int) Weekday {
	return Weekday(number)
}

// ParseWeekday accepts a full or three-letter English day name,
// case-insensitively.
func ParseWeekday(name string) (Weekday, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for day := Sunday; day <= Saturday; day++ {
		full := strings.ToLower(time.Weekday(day).String())
		if lowered == full || lowered == full[:3] {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// Valid reports whether w is within [Sunday, Saturday].
func (w Weekday) Valid() bool { return w <= Saturday }

func (w Weekday) String() string {
	if !w.Valid() {
		return "Weekday(" + strconv.Itoa(int(w)) + ")"
	}
	return time.Weekday(w).String()
}

// Time is a time of day with minute precision.
type Time struct {
	hour   Hour
	minute Minute
}

// NewTime combines an hour and minute.
func NewTime(hour Hour, minute Minute) Time {
	return Time{hour: hour, minute: minute}
}

// ParseTime parses a 24-hour wall-clock "HH:MM" string.
func ParseTime(value string) (Time, error) {
	hourText, minuteText, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return Time{}, fmt.Errorf("time %q: expected HH:MM", value)
	}
	clockHour, err := strconv.Atoi(hourText)
	if err != nil {
		return Time{}, fmt.Errorf("time %q: hour: %w", value, err)
	}
	clockMinute, err := strconv.Atoi(minuteText)
	if err != nil {
		return Time{}, fmt.Errorf("time %q: minute: %w", value, err)
	}
	hour, ok := HourOf(clockHour)
	if !ok {
		return Time{}, fmt.Errorf("time %q: hour %d out of range [0, 23]", value, clockHour)
	}
	minute, ok := MinuteOf(clockMinute)
	if !ok {
		return Time{}, fmt.Errorf("time %q: minute %d out of range [0, 59]", value, clockMinute)
	}
	return NewTime(hour, minute), nil
}

func (t Time) Hour() Hour     { return t.hour }
func (t Time) Minute() Minute { return t.minute }

// MillisecondOfDay is the ordering key for Time.
func (t Time) MillisecondOfDay() uint32 {
	return (uint32(t.hour)-1)*uint32(time.Hour/time.Millisecond) +
		(uint32(t.minute)-1)*uint32(time.Minute/time.Millisecond)
}

// Compare returns -1, 0 or +1 as t is before, equal to or after other.
func (t Time) Compare(other Time) int {
	a, b := t.MillisecondOfDay(), other.MillisecondOfDay()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t Time) Before(other Time) bool { return t.Compare(other) < 0 }
func (t Time) After(other Time) bool  { return t.Compare(other) > 0 }

// String renders the wall-clock form, e.g. "07:05".
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.hour.ClockHour(), t.minute.ClockMinute())
}
