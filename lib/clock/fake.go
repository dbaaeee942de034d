// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock that starts at initial and only moves when
// Advance or Set is called. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.registered = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu         sync.Mutex
	current    time.Time
	pending    []*pendingSend
	registered *sync.Cond
}

// pendingSend is an After channel or a ticker waiting for its deadline.
type pendingSend struct {
	due     time.Time
	channel chan time.Time
	// every is non-zero for tickers, which are re-armed at due+every.
	every time.Duration
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock has advanced
// by d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.register(&pendingSend{due: c.current.Add(d), channel: channel})
	return channel
}

// NewTicker returns a Ticker that fires each time the clock crosses a
// multiple of d from now.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	channel := make(chan time.Time, 1)
	entry := &pendingSend{channel: channel, every: d}

	c.mu.Lock()
	entry.due = c.current.Add(d)
	c.register(entry)
	c.mu.Unlock()

	return &Ticker{
		C: channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.pending = slices.DeleteFunc(c.pending, func(p *pendingSend) bool { return p == entry })
		},
	}
}

// register must be called with c.mu held.
func (c *FakeClock) register(entry *pendingSend) {
	c.pending = append(c.pending, entry)
	c.registered.Broadcast()
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline has been reached, earliest first. Sends never block.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()
	c.fireThrough(target)
}

// Set moves the clock to an absolute time. Moving backwards is
// allowed and fires nothing; tests use it to model clients whose
// logical send time disagrees with arrival order.
func (c *FakeClock) Set(moment time.Time) {
	c.mu.Lock()
	c.current = moment
	c.mu.Unlock()
	c.fireThrough(moment)
}

// fireThrough delivers due waiters one at a time so a ticker spanning
// several intervals interleaves with other waiters by deadline.
func (c *FakeClock) fireThrough(target time.Time) {
	for {
		entry, ok := c.popEarliest(target)
		if !ok {
			return
		}
		select {
		case entry.channel <- target:
		default:
		}
	}
}

// popEarliest removes (or re-arms, for a ticker) the waiter with the
// earliest deadline at or before target.
func (c *FakeClock) popEarliest(target time.Time) (*pendingSend, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	earliest := -1
	for i, entry := range c.pending {
		if entry.due.After(target) {
			continue
		}
		if earliest < 0 || entry.due.Before(c.pending[earliest].due) {
			earliest = i
		}
	}
	if earliest < 0 {
		return nil, false
	}
	entry := c.pending[earliest]
	if entry.every > 0 {
		entry.due = entry.due.Add(entry.every)
	} else {
		c.pending = slices.Delete(c.pending, earliest, earliest+1)
	}
	return entry, true
}

// WaitForTimers blocks until at least n waiters are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.registered.Wait()
	}
}
