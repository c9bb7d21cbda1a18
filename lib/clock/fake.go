// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock stopped at initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.tickersChanged = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock. Time moves only through Advance
// and Set. Safe for concurrent use.
type FakeClock struct {
	mu             sync.Mutex
	current        time.Time
	tickers        []*fakeTicker
	tickersChanged *sync.Cond
}

type fakeTicker struct {
	next     time.Time
	interval time.Duration
	channel  chan time.Time
	stopped  bool
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NewTicker registers a ticker that fires every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		next:     c.current.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)
	c.tickersChanged.Broadcast()

	return &Ticker{
		C: ticker.channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ticker.stopped = true
		},
	}
}

// Advance moves the clock forward by d and delivers every tick that
// falls due, in deadline order. A ticker whose channel is full drops
// the tick, like time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()
	c.advanceTo(target)
}

// Set moves the clock to t. Moving forward fires due ticks as Advance
// does. Moving backward fires nothing; tickers keep their schedule
// relative to the new time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	if t.Before(c.current) {
		shift := c.current.Sub(t)
		c.current = t
		for _, ticker := range c.tickers {
			ticker.next = ticker.next.Add(-shift)
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.advanceTo(t)
}

type firing struct {
	at      time.Time
	channel chan time.Time
}

func (c *FakeClock) advanceTo(target time.Time) {
	c.mu.Lock()
	var due []firing
	for _, ticker := range c.tickers {
		if ticker.stopped {
			continue
		}
		for !ticker.next.After(target) {
			due = append(due, firing{at: ticker.next, channel: ticker.channel})
			ticker.next = ticker.next.Add(ticker.interval)
		}
	}
	c.current = target
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, tick := range due {
		select {
		case tick.channel <- tick.at:
		default:
		}
	}
}

// WaitForTimers blocks until at least n tickers are registered and not
// stopped. Use it before Advance to avoid racing the goroutine that
// creates the tickers.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.tickersChanged.Wait()
	}
}

// PendingCount returns the number of live tickers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, ticker := range c.tickers {
		if !ticker.stopped {
			count++
		}
	}
	return count
}
