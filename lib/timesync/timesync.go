// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package timesync rate-limits system clock synchronization.
//
// The orchestrator asks for a clock sync on every device tick so that
// a user who winds the clock back is corrected quickly, but the host's
// sync command is slow and rate limited upstream. [Syncer] lets one
// sync through per interval (five minutes in production) and drops
// the rest. A failed sync does not consume the interval: the next
// request retries immediately.
package timesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/discipline-project/discipline/lib/clock"
)

// DefaultInterval is the minimum spacing between clock syncs.
const DefaultInterval = 5 * time.Minute

// ClockSyncer is the host capability Syncer drives.
type ClockSyncer interface {
	SyncSystemClock(ctx context.Context) error
}

// Syncer performs at most one successful clock sync per interval.
// Safe for concurrent use.
type Syncer struct {
	host  ClockSyncer
	clock clock.Clock

	mu      sync.Mutex
	limiter *rate.Limiter
	last    time.Time
}

// New returns a Syncer. The first call to Sync always runs.
func New(host ClockSyncer, clock clock.Clock, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		host:    host,
		clock:   clock,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Sync syncs the system clock unless a sync succeeded within the
// interval. Reports whether the host was called.
func (s *Syncer) Sync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	reservation := s.limiter.ReserveN(now, 1)
	if !reservation.OK() || reservation.DelayFrom(now) > 0 {
		reservation.CancelAt(now)
		return false, nil
	}

	if err := s.host.SyncSystemClock(ctx); err != nil {
		reservation.CancelAt(now)
		return true, fmt.Errorf("syncing system clock: %w", err)
	}
	s.last = now
	return true, nil
}

// Last returns the time of the last successful sync, or the zero time.
func (s *Syncer) Last() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
