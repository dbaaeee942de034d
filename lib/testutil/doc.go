// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// Live subscriptions deliver on their own goroutines, so most tests
// in docstore and chatsync funnel callbacks into channels and read
// them with [RequireReceive] or [RequireNoReceive]. These helpers are
// the only place tests use real wall-clock timeouts; everything else
// reads time through lib/clock.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation.
//
// All helpers call t.Fatalf on failure.
package testutil
