// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package indicator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/discipline-project/discipline/lib/chrono"
)

// Kind tags the variant of an Indicator. The numeric values are the
// wire tags in the state file and must not change.
type Kind uint8

const (
	KindOr           Kind = 0
	KindAnd          Kind = 1
	KindCountdown    Kind = 2
	KindTimeRange    Kind = 3
	KindHourRange    Kind = 4
	KindMinuteRange  Kind = 5
	KindWeekdayRange Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindOr:
		return "or"
	case KindAnd:
		return "and"
	case KindCountdown:
		return "countdown"
	case KindTimeRange:
		return "time_range"
	case KindHourRange:
		return "hour_range"
	case KindMinuteRange:
		return "minute_range"
	case KindWeekdayRange:
		return "weekday_range"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ErrNotCountdown is returned by Extend on non-countdown indicators.
var ErrNotCountdown = errors.New("indicator: not a countdown")

// Indicator is one node of a status indicator tree. Construct it with
// the package-level constructors; the zero value is an empty Or.
type Indicator struct {
	kind Kind

	// items holds the children of Or and And.
	items []*Indicator

	// timeFrom and timeTill bound a TimeRange.
	timeFrom chrono.Time
	timeTill chrono.Time

	// from and till bound Hour, Minute and Weekday ranges as raw
	// ordinals.
	from uint8
	till uint8

	// remaining and previousSync are the countdown state. synced is
	// false until the first evaluation.
	remaining    chrono.Duration
	previousSync chrono.DateTime
	synced       bool
}

// Or is active when at least one item is active. Items must be
// non-nil; the Or takes ownership of them.
func Or(items ...*Indicator) *Indicator {
	return &Indicator{kind: KindOr, items: items}
}

// And is active when it has items and every item is active.
func And(items ...*Indicator) *Indicator {
	return &Indicator{kind: KindAnd, items: items}
}

// TimeRange is active when the time of day is within [from, till].
func TimeRange(from, till chrono.Time) *Indicator {
	return &Indicator{kind: KindTimeRange, timeFrom: from, timeTill: till}
}

// HourRange is active when the hour is within [from, till].
func HourRange(from, till chrono.Hour) *Indicator {
	return &Indicator{kind: KindHourRange, from: uint8(from), till: uint8(till)}
}

// MinuteRange is active when the minute is within [from, till].
func MinuteRange(from, till chrono.Minute) *Indicator {
	return &Indicator{kind: KindMinuteRange, from: uint8(from), till: uint8(till)}
}

// WeekdayRange is active when the weekday is within [from, till].
func WeekdayRange(from, till chrono.Weekday) *Indicator {
	return &Indicator{kind: KindWeekdayRange, from: uint8(from), till: uint8(till)}
}

// Countdown is active while it has time remaining. The clock starts at
// its first evaluation.
func Countdown(remaining chrono.Duration) *Indicator {
	return &Indicator{kind: KindCountdown, remaining: remaining}
}

// Kind returns the variant tag.
func (i *Indicator) Kind() Kind { return i.kind }

// Items returns the children of an Or or And. The slice is shared with
// the indicator; callers must not modify it.
func (i *Indicator) Items() []*Indicator { return i.items }

// Remaining returns a countdown's remaining time as of its last
// evaluation. Zero for other kinds.
func (i *Indicator) Remaining() chrono.Duration { return i.remaining }

// PreviousSync returns the instant of a countdown's last evaluation,
// or false if it has never been evaluated.
func (i *Indicator) PreviousSync() (chrono.DateTime, bool) {
	return i.previousSync, i.synced
}

// IsActive evaluates the tree at now. Countdown nodes reached during
// evaluation are advanced to now.
func (i *Indicator) IsActive(now chrono.DateTime) bool {
	switch i.kind {
	case KindOr:
		for _, item := range i.items {
			if item.IsActive(now) {
				return true
			}
		}
		return false

	case KindAnd:
		if len(i.items) == 0 {
			return false
		}
		for _, item := range i.items {
			if !item.IsActive(now) {
				return false
			}
		}
		return true

	case KindCountdown:
		previous := now
		if i.synced {
			previous = i.previousSync
		}
		i.remaining = i.remaining.Sub(now.Since(previous))
		i.previousSync = now
		i.synced = true
		return i.remaining > 0

	case KindTimeRange:
		current := now.TimeOfDay()
		return i.timeFrom.Compare(current) <= 0 && current.Compare(i.timeTill) <= 0

	case KindHourRange:
		return i.contains(uint8(now.Hour()))

	case KindMinuteRange:
		return i.contains(uint8(now.Minute()))

	case KindWeekdayRange:
		return i.contains(uint8(now.Weekday()))
	}
	panic(fmt.Sprintf("indicator: IsActive on unknown kind %d", i.kind))
}

func (i *Indicator) contains(value uint8) bool {
	return i.from <= value && value <= i.till
}

// Extend adds time to a countdown, reviving it if it was exhausted.
func (i *Indicator) Extend(duration chrono.Duration) error {
	if i.kind != KindCountdown {
		return ErrNotCountdown
	}
	extended, err := i.remaining.Add(duration)
	if err != nil {
		return fmt.Errorf("extending countdown by %v: %w", duration, err)
	}
	i.remaining = extended
	return nil
}

// MaxDepth is the deepest tree a state file may hold, counting the root
// and the leaf. Each level costs two CBOR nesting levels, and the
// decoder refuses anything past codec.MaxNestedLevels.
const MaxDepth = 24

// Depth returns the number of nodes on the longest path from i to a
// leaf. A lone range or countdown has depth 1.
func (i *Indicator) Depth() int {
	deepest := 0
	for _, item := range i.items {
		deepest = max(deepest, item.Depth())
	}
	return deepest + 1
}

// Walk calls visit for i and every descendant, depth first.
func (i *Indicator) Walk(visit func(*Indicator)) {
	visit(i)
	for _, item := range i.items {
		item.Walk(visit)
	}
}

// Clone returns a deep copy.
func (i *Indicator) Clone() *Indicator {
	clone := *i
	if i.items != nil {
		clone.items = make([]*Indicator, len(i.items))
		for index, item := range i.items {
			clone.items[index] = item.Clone()
		}
	}
	return &clone
}

// String renders the tree on one line for status output.
func (i *Indicator) String() string {
	var builder strings.Builder
	i.format(&builder)
	return builder.String()
}

func (i *Indicator) format(builder *strings.Builder) {
	switch i.kind {
	case KindOr, KindAnd:
		if i.kind == KindOr {
			builder.WriteString("any(")
		} else {
			builder.WriteString("all(")
		}
		for index, item := range i.items {
			if index > 0 {
				builder.WriteString(", ")
			}
			item.format(builder)
		}
		builder.WriteString(")")
	case KindCountdown:
		fmt.Fprintf(builder, "countdown(%v left)", i.remaining)
	case KindTimeRange:
		fmt.Fprintf(builder, "time(%v..%v)", i.timeFrom, i.timeTill)
	case KindHourRange:
		fmt.Fprintf(builder, "hours(%02d..%02d)",
			chrono.Hour(i.from).ClockHour(), chrono.Hour(i.till).ClockHour())
	case KindMinuteRange:
		fmt.Fprintf(builder, "minutes(%02d..%02d)",
			chrono.Minute(i.from).ClockMinute(), chrono.Minute(i.till).ClockMinute())
	case KindWeekdayRange:
		fmt.Fprintf(builder, "weekdays(%v..%v)", chrono.Weekday(i.from), chrono.Weekday(i.till))
	default:
		builder.WriteString(i.kind.String())
	}
}
