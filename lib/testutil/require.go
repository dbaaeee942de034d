// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TestingT is the subset of testing.TB the helpers need.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test.
//
//	snapshot := testutil.RequireReceive(t, updates, 5*time.Second, "waiting for snapshot")
func RequireReceive[T any](t TestingT, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireReceiveMatch reads from ch until match returns true for a
// value, failing the test if timeout elapses first. Values that do not
// match are discarded. Use it for live subscriptions, which may deliver
// intermediate snapshots before the one a test is waiting for.
func RequireReceiveMatch[T any](t TestingT, ch <-chan T, timeout time.Duration, match func(T) bool, msgAndArgs ...any) T {
	t.Helper()
	deadline := time.After(timeout) //nolint:realclock test hang prevention
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed before a matching value: %s", formatMessage(msgAndArgs))
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
		}
	}
}

// RequireNoReceive fails the test if ch yields a value within wait.
func RequireNoReceive[T any](t TestingT, ch <-chan T, wait time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %v: %s", v, formatMessage(msgAndArgs))
		}
	case <-time.After(wait): //nolint:realclock test hang prevention
	}
}

// RequireClosed waits for ch to be closed (or receive a value) within
// timeout, or fails the test.
func RequireClosed(t TestingT, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("timed out after %v waiting for channel close: %s", timeout, formatMessage(msgAndArgs))
	}
}

func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
