// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// document store, the synchronization engine, and their tests.
//
// Message timestamps, conversation creation times, retry backoff, and
// the SQLite change poller all read time through a Clock. Production
// code passes Real(); tests pass Fake() and move time explicitly with
// Advance or Set, which makes ordering scenarios ("a message at t=100,
// another at t=300, a buffered one at t=200") exact instead of
// dependent on wall-clock resolution.
//
// # FakeClock Synchronization
//
// A goroutine that calls After or NewTicker on a FakeClock registers a
// pending waiter. WaitForTimers blocks until a given number of waiters
// exist, so a test can be sure a background loop is parked on the
// clock before advancing it.
package clock
