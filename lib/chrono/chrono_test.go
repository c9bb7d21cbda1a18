// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chrono

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewHourBounds(t *testing.T) {
	tests := []struct {
		ordinal int
		want    bool
	}{
		{0, false},
		{1, true},
		{12, true},
		{24, true},
		{25, false},
		{-3, false},
	}
	for _, test := range tests {
		if _, ok := NewHour(test.ordinal); ok != test.want {
			t.Errorf("NewHour(%d) ok = %v, want %v", test.ordinal, ok, test.want)
		}
	}
}

func TestNewMinuteBounds(t *testing.T) {
	if _, ok := NewMinute(0); ok {
		t.Error("NewMinute(0) accepted")
	}
	if _, ok := NewMinute(61); ok {
		t.Error("NewMinute(61) accepted")
	}
	if minute, ok := NewMinute(60); !ok || minute != MaxMinute {
		t.Errorf("NewMinute(60) = %d, %v", minute, ok)
	}
}

func TestNewWeekdayBounds(t *testing.T) {
	if _, ok := NewWeekday(7); ok {
		t.Error("NewWeekday(7) accepted")
	}
	if day, ok := NewWeekday(0); !ok || day != Sunday {
		t.Errorf("NewWeekday(0) = %v, %v", day, ok)
	}
}

func TestAMPM(t *testing.T) {
	tests := []struct {
		name string
		got  Hour
		want int
	}{
		{"midnight", AM(12), 0},
		{"1am", AM(1), 1},
		{"11am", AM(11), 11},
		{"noon", PM(12), 12},
		{"1pm", PM(1), 13},
		{"11pm", PM(11), 23},
	}
	for _, test := range tests {
		if test.got.ClockHour() != test.want {
			t.Errorf("%s: ClockHour() = %d, want %d", test.name, test.got.ClockHour(), test.want)
		}
	}
}

func TestAMPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AM(13) did not panic")
		}
	}()
	AM(13)
}

func TestParseWeekday(t *testing.T) {
	for input, want := range map[string]Weekday{
		"sun":      Sunday,
		"Monday":   Monday,
		" FRI ":    Friday,
		"saturday": Saturday,
	} {
		got, err := ParseWeekday(input)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("ParseWeekday(someday) succeeded")
	}
}

func TestParseTime(t *testing.T) {
	parsed, err := ParseTime("07:05")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if parsed.Hour().ClockHour() != 7 || parsed.Minute().ClockMinute() != 5 {
		t.Errorf("ParseTime(07:05) = %v", parsed)
	}
	if parsed.String() != "07:05" {
		t.Errorf("String() = %q", parsed.String())
	}

	for _, bad := range []string{"7", "24:00", "12:60", "aa:10", "10:bb"} {
		if _, err := ParseTime(bad); err == nil {
			t.Errorf("ParseTime(%q) succeeded", bad)
		}
	}
}

func TestTimeOrdering(t *testing.T) {
	early, _ := ParseTime("00:00")
	late, _ := ParseTime("23:59")
	middle, _ := ParseTime("12:30")

	if early.MillisecondOfDay() != 0 {
		t.Errorf("00:00 MillisecondOfDay = %d, want 0", early.MillisecondOfDay())
	}
	if want := uint32(23*3600000 + 59*60000); late.MillisecondOfDay() != want {
		t.Errorf("23:59 MillisecondOfDay = %d, want %d", late.MillisecondOfDay(), want)
	}
	if !early.Before(middle) || !middle.Before(late) || !late.After(early) {
		t.Error("ordering violated")
	}
	if middle.Compare(middle) != 0 {
		t.Error("Compare with self != 0")
	}
}

func TestDurationArithmetic(t *testing.T) {
	if got := Minutes(5).Sub(Minutes(10)); got != 0 {
		t.Errorf("saturating Sub = %v, want 0", got)
	}
	if got := Minutes(10).Sub(Minutes(4)); got != Minutes(6) {
		t.Errorf("Sub = %v, want 6m", got)
	}

	sum, err := Minutes(1).Add(Seconds(30))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Std() != 90*time.Second {
		t.Errorf("Add = %v, want 1m30s", sum)
	}

	ceiling := Duration(MaxSafeInteger)
	if _, err := ceiling.Add(1); !errors.Is(err, ErrOverflow) {
		t.Errorf("Add past ceiling err = %v, want ErrOverflow", err)
	}
	if got, err := ceiling.Sub(1).Add(1); err != nil || got != ceiling {
		t.Errorf("Add to exactly ceiling = %v, %v", got, err)
	}
}

func TestDurationBeyondStdRange(t *testing.T) {
	tests := []struct {
		duration Duration
		want     string
	}{
		{Hours(3), "3h0m0s"},
		{Hours(2000000), "2000000h0m0s"},
		{Hours(3000000), "3000000h0m0s"},
		{Hours(3000000) + Minutes(7) + Seconds(9) + 500, "3000000h7m9s"},
		{Duration(MaxSafeInteger), "2501999792h59m0s"},
	}
	for _, test := range tests {
		if got := test.duration.String(); got != test.want {
			t.Errorf("Duration(%d).String() = %q, want %q", uint64(test.duration), got, test.want)
		}
		if test.duration.Std() <= 0 {
			t.Errorf("Duration(%d).Std() = %d, want positive", uint64(test.duration), test.duration.Std())
		}
	}
	if got := Duration(MaxSafeInteger).Std(); got != math.MaxInt64 {
		t.Errorf("Std() of ceiling = %d, want math.MaxInt64", got)
	}
}

func TestNewDurationValidation(t *testing.T) {
	if _, err := NewDuration(-1); err == nil {
		t.Error("negative duration accepted")
	}
	if _, err := NewDuration(MaxSafeInteger + 1); !errors.Is(err, ErrOverflow) {
		t.Errorf("oversized duration err = %v", err)
	}
	got, err := FromStd(2 * time.Second)
	if err != nil || got != Seconds(2) {
		t.Errorf("FromStd(2s) = %v, %v", got, err)
	}
}

func TestDateTimeAccessorsUseFixedZone(t *testing.T) {
	// 2026-03-02 22:30 UTC is 01:30 on Tuesday in UTC+03:00.
	instant := FromTime(time.Date(2026, 3, 2, 22, 30, 0, 0, time.UTC))

	if got := instant.Hour().ClockHour(); got != 1 {
		t.Errorf("ClockHour = %d, want 1", got)
	}
	if got := instant.Minute().ClockMinute(); got != 30 {
		t.Errorf("ClockMinute = %d, want 30", got)
	}
	if got := instant.Weekday(); got != Tuesday {
		t.Errorf("Weekday = %v, want Tuesday", got)
	}
	if got := instant.TimeOfDay().String(); got != "01:30" {
		t.Errorf("TimeOfDay = %s, want 01:30", got)
	}
}

func TestDateTimeClamping(t *testing.T) {
	if got := FromMilliseconds(-50).Milliseconds(); got != 0 {
		t.Errorf("negative clamp = %d", got)
	}
	if got := FromMilliseconds(MaxSafeInteger + 10).Milliseconds(); got != MaxSafeInteger {
		t.Errorf("upper clamp = %d", got)
	}

	start := FromMilliseconds(1000)
	if got := start.Subtract(Seconds(5)).Milliseconds(); got != 0 {
		t.Errorf("Subtract clamp = %d", got)
	}
	if got := FromMilliseconds(MaxSafeInteger - 1).Add(Seconds(1)).Milliseconds(); got != MaxSafeInteger {
		t.Errorf("Add clamp = %d", got)
	}
	if got := start.Since(start.Add(Seconds(1))); got != 0 {
		t.Errorf("Since future = %v, want 0", got)
	}
	if got := start.Add(Seconds(3)).Since(start); got != Seconds(3) {
		t.Errorf("Since = %v, want 3s", got)
	}
}
