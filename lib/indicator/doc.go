// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package indicator implements status indicators: trees of temporal
// predicates that decide whether a restriction should be enforced at a
// given instant.
//
// [Indicator] is a closed sum type. The kind is fixed at construction
// and [Indicator.IsActive] is a single recursive switch over it:
//
//   - [Or] and [And] combine children. Both are inactive when empty.
//     Evaluation runs left to right and stops as soon as the result is
//     known, so children after the deciding one are not evaluated in
//     that call.
//   - [TimeRange], [HourRange], [MinuteRange] and [WeekdayRange] test
//     from <= field(now) <= till. Ranges do not wrap around midnight
//     or the end of the week: a range with from > till is never active.
//   - [Countdown] is the only stateful kind. Each evaluation subtracts
//     the time elapsed since its previous evaluation and reports
//     whether any time remains. An exhausted countdown stays inactive
//     until [Indicator.Extend] adds time.
//
// Because short-circuiting skips later children, a countdown placed
// after a child that is already deciding the result does not
// accumulate elapsed time for that call; the next call that does reach
// it charges the whole gap since its own previous evaluation.
//
// Indicators own their children outright. An Indicator is not safe
// for concurrent use; the orchestrator serializes access per
// regulator.
//
// Indicators encode to CBOR as tagged arrays, [kind, fields...], with
// the kind numbers listed on [Kind].
package indicator
