// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package indicator

import (
	"fmt"

	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/codec"
)

// cborNull is the CBOR encoding of null.
var cborNull = []byte{0xf6}

// fieldCounts is the number of elements after the kind tag.
var fieldCounts = map[Kind]int{
	KindOr:           1,
	KindAnd:          1,
	KindCountdown:    2,
	KindTimeRange:    4,
	KindHourRange:    2,
	KindMinuteRange:  2,
	KindWeekdayRange: 2,
}

// MarshalCBOR encodes the indicator as a tagged array:
//
//	[0, [items...]]                              Or
//	[1, [items...]]                              And
//	[2, remainingMs, previousSyncMs | null]      Countdown
//	[3, fromHour, fromMinute, tillHour, tillMinute]  TimeRange
//	[4, from, till]                              HourRange
//	[5, from, till]                              MinuteRange
//	[6, from, till]                              WeekdayRange
//
// Hours and minutes are ordinals, not wall-clock values.
func (i *Indicator) MarshalCBOR() ([]byte, error) {
	if i == nil {
		return cborNull, nil
	}
	switch i.kind {
	case KindOr, KindAnd:
		items := i.items
		if items == nil {
			items = []*Indicator{}
		}
		return codec.Marshal([]any{i.kind, items})
	case KindCountdown:
		var previous *int64
		if i.synced {
			milliseconds := i.previousSync.Milliseconds()
			previous = &milliseconds
		}
		return codec.Marshal([]any{i.kind, uint64(i.remaining), previous})
	case KindTimeRange:
		return codec.Marshal([]any{
			i.kind,
			uint8(i.timeFrom.Hour()), uint8(i.timeFrom.Minute()),
			uint8(i.timeTill.Hour()), uint8(i.timeTill.Minute()),
		})
	case KindHourRange, KindMinuteRange, KindWeekdayRange:
		return codec.Marshal([]any{i.kind, i.from, i.till})
	}
	return nil, fmt.Errorf("indicator: cannot encode unknown kind %d", i.kind)
}

// UnmarshalCBOR decodes a tagged array written by MarshalCBOR. Range
// bounds are restored without range validation; they come from a file
// this program wrote.
func (i *Indicator) UnmarshalCBOR(data []byte) error {
	var elements []codec.RawMessage
	if err := codec.Unmarshal(data, &elements); err != nil {
		return fmt.Errorf("indicator: expected tagged array: %w", err)
	}
	if len(elements) == 0 {
		return fmt.Errorf("indicator: empty tagged array")
	}

	var kind Kind
	if err := codec.Unmarshal(elements[0], &kind); err != nil {
		return fmt.Errorf("indicator: decoding kind: %w", err)
	}
	fields := elements[1:]

	want, known := fieldCounts[kind]
	if !known {
		return fmt.Errorf("indicator: unknown kind %d", kind)
	}
	if len(fields) != want {
		return fmt.Errorf("indicator: %v expects %d fields, got %d", kind, want, len(fields))
	}

	decoded := Indicator{kind: kind}
	switch kind {
	case KindOr, KindAnd:
		var items []*Indicator
		if err := codec.Unmarshal(fields[0], &items); err != nil {
			return fmt.Errorf("indicator: %v items: %w", kind, err)
		}
		for index, item := range items {
			if item == nil {
				return fmt.Errorf("indicator: %v item %d is null", kind, index)
			}
		}
		decoded.items = items

	case KindCountdown:
		var remaining uint64
		if err := codec.Unmarshal(fields[0], &remaining); err != nil {
			return fmt.Errorf("indicator: countdown remaining: %w", err)
		}
		if remaining > chrono.MaxSafeInteger {
			return fmt.Errorf("indicator: countdown remaining: %w", chrono.ErrOverflow)
		}
		var previous *int64
		if err := codec.Unmarshal(fields[1], &previous); err != nil {
			return fmt.Errorf("indicator: countdown previous sync: %w", err)
		}
		decoded.remaining = chrono.Duration(remaining)
		if previous != nil {
			decoded.previousSync = chrono.FromMilliseconds(*previous)
			decoded.synced = true
		}

	case KindTimeRange:
		var ordinals [4]uint8
		for index := range ordinals {
			if err := codec.Unmarshal(fields[index], &ordinals[index]); err != nil {
				return fmt.Errorf("indicator: time range field %d: %w", index, err)
			}
		}
		decoded.timeFrom = chrono.NewTime(
			chrono.UncheckedHour(int(ordinals[0])), chrono.UncheckedMinute(int(ordinals[1])))
		decoded.timeTill = chrono.NewTime(
			chrono.UncheckedHour(int(ordinals[2])), chrono.UncheckedMinute(int(ordinals[3])))

	case KindHourRange, KindMinuteRange, KindWeekdayRange:
		if err := codec.Unmarshal(fields[0], &decoded.from); err != nil {
			return fmt.Errorf("indicator: %v from: %w", kind, err)
		}
		if err := codec.Unmarshal(fields[1], &decoded.till); err != nil {
			return fmt.Errorf("indicator: %v till: %w", kind, err)
		}
	}

	*i = decoded
	return nil
}
