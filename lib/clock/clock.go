// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for schedulers and regulators.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker that delivers ticks on its C channel
	// every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1;
// ticks are dropped, not queued, when the reader falls behind.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. Stop does not close C.
func (t *Ticker) Stop() { t.stop() }
