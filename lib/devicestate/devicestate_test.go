// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package devicestate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/lib/testutil"
)

func TestGetSetDelete(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "nested", "device.yaml"), nil)

	if _, ok, err := store.Get("supportWidget_userId"); err != nil || ok {
		t.Fatalf("Get on missing file = (_, %v, %v), want unset", ok, err)
	}
	if err := store.Set("supportWidget_userId", "visitor_1_abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get("supportWidget_userId")
	if err != nil || !ok || value != "visitor_1_abc" {
		t.Fatalf("Get = (%q, %v, %v)", value, ok, err)
	}

	// A second handle on the same file sees the value.
	other := Open(store.Path(), nil)
	if value, _, _ := other.Get("supportWidget_userId"); value != "visitor_1_abc" {
		t.Errorf("second store Get = %q", value)
	}

	if err := store.Delete("supportWidget_userId"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get("supportWidget_userId"); ok {
		t.Error("key still set after Delete")
	}
	if err := store.Delete("never-set"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestSetLeavesNoTemporaryFiles(t *testing.T) {
	directory := t.TempDir()
	store := Open(filepath.Join(directory, "device.yaml"), nil)
	for _, theme := range []string{"dark", "light", "dark"} {
		if err := store.Set("supportWidget_theme", theme); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only device.yaml", len(entries))
	}
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	if err := os.WriteFile(path, []byte("key: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Open(path, nil).Get("key"); err == nil {
		t.Fatal("Get on corrupt file succeeded, want error")
	}
}

func TestWatchReportsChangesFromAnotherHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	watched := Open(path, nil)
	writer := Open(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan State, 8)
	if err := watched.Watch(ctx, func(state State) { changes <- state }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := writer.Set("supportWidget_theme", "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	testutil.RequireReceiveMatch(t, changes, 5*time.Second, func(state State) bool {
		return state["supportWidget_theme"] == "light"
	}, "theme change from another handle")
}
