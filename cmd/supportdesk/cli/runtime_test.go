// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/lib/config"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supportdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigParamsLoad(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	defaults, err := (&ConfigParams{}).Load()
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	if defaults.Agent.Name != config.Default().Agent.Name {
		t.Errorf("defaults agent = %q", defaults.Agent.Name)
	}

	fromEnv := writeFile(t, "agent:\n  name: Env Agent\n")
	t.Setenv(config.EnvVar, fromEnv)
	cfg, err := (&ConfigParams{}).Load()
	if err != nil || cfg.Agent.Name != "Env Agent" {
		t.Errorf("env config = %v, %v", cfg, err)
	}

	fromFlag := writeFile(t, "agent:\n  name: Flag Agent\n")
	cfg, err = (&ConfigParams{Path: fromFlag}).Load()
	if err != nil || cfg.Agent.Name != "Flag Agent" {
		t.Errorf("--config = %v, %v", cfg, err)
	}

	invalid := writeFile(t, "console:\n  theme: neon\n")
	if _, err := (&ConfigParams{Path: invalid}).Load(); err == nil || !strings.Contains(err.Error(), "console.theme") {
		t.Errorf("invalid config error = %v", err)
	}
}

func TestOpenRuntime(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "data", "store.db")
	cfg.Device.StatePath = filepath.Join(dir, "state", "device.yaml")

	ctx := context.Background()
	runtime, err := OpenRuntime(ctx, cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	defer runtime.Close()

	visitor := runtime.Identity.Resolve(ref.KindVisitor)
	if visitor.Kind() != ref.KindVisitor {
		t.Errorf("resolved %v, want a visitor id", visitor)
	}
	stored, found, err := runtime.Device.Get(chatsync.VisitorIDKey)
	if err != nil || !found || stored != visitor.String() {
		t.Errorf("device state = %q, %v, %v", stored, found, err)
	}

	first, err := runtime.Engine.ResolveConversation(ctx, visitor)
	if err != nil {
		t.Fatalf("ResolveConversation: %v", err)
	}
	if first.IsPlaceholder() {
		t.Fatalf("store unreachable: placeholder %v", first)
	}
	second, err := runtime.Engine.ResolveConversation(ctx, visitor)
	if err != nil || second != first {
		t.Errorf("second resolution = %v, %v; want %v", second, err, first)
	}
}

func TestOpenRuntimeBadIndex(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "store.db")
	cfg.Device.StatePath = filepath.Join(t.TempDir(), "device.yaml")
	cfg.Store.Indexes = []string{"not an index"}
	if _, err := OpenRuntime(context.Background(), cfg, slog.New(slog.DiscardHandler)); err == nil {
		t.Error("bad index declaration accepted")
	}
}
