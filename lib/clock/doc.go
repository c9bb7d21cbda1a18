// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Production code takes a [Clock] instead of calling time.Now or
// time.NewTicker, so that schedules can be driven deterministically in
// tests. [Real] wraps the time package; [Fake] returns a clock that
// moves only when told to.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop(ctx, c)
//	c.WaitForTimers(3)       // the loop has registered its tickers
//	c.Advance(time.Minute)   // fire everything due in the next minute
//
// [FakeClock.Set] moves the fake clock to an arbitrary instant,
// including backward, which is how tests simulate a user tampering
// with the system clock.
package clock
