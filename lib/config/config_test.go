// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supportdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Store.PollInterval != "250ms" {
		t.Errorf("expected poll_interval=250ms, got %s", cfg.Store.PollInterval)
	}
	if !slices.Equal(cfg.Store.Indexes, DefaultIndexes) {
		t.Errorf("expected default indexes, got %v", cfg.Store.Indexes)
	}
	if cfg.Agent.Name != "Support Agent" {
		t.Errorf("expected agent name Support Agent, got %q", cfg.Agent.Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SUPPORTDESK_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "SUPPORTDESK_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	path := writeConfig(t, `
root: /srv/support
store:
  path: ${SUPPORTDESK_ROOT}/chat.db
agent:
  name: Dana
`)
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Path != "/srv/support/chat.db" {
		t.Errorf("expected expanded store path, got %s", cfg.Store.Path)
	}
	if cfg.Agent.Name != "Dana" {
		t.Errorf("expected agent name Dana, got %s", cfg.Agent.Name)
	}
	// Unset fields keep their defaults.
	if cfg.Console.Theme != "dark" {
		t.Errorf("expected default theme, got %s", cfg.Console.Theme)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
store:
  path: /base.db
production:
  store:
    path: /prod.db
  console:
    theme: light
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Path != "/prod.db" {
		t.Errorf("expected production store path, got %s", cfg.Store.Path)
	}
	if cfg.Console.Theme != "light" {
		t.Errorf("expected production theme light, got %s", cfg.Console.Theme)
	}
}

func TestProductionDefaultOverrides(t *testing.T) {
	path := writeConfig(t, "environment: production\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval: %v", err)
	}
	if interval != time.Second {
		t.Errorf("expected 1s production poll interval, got %v", interval)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("STORE_PATH", "/from/env.db")
	path := writeConfig(t, "store:\n  path: /from/file.db\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Path != "/from/file.db" {
		t.Errorf("environment leaked into store.path: %s", cfg.Store.Path)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("SUPPORTDESK_TEST_VAR", "fromenv")
	vars := map[string]string{"SUPPORTDESK_ROOT": "/root-dir"}

	tests := []struct {
		input, want string
	}{
		{"${SUPPORTDESK_ROOT}/x", "/root-dir/x"},
		{"${SUPPORTDESK_TEST_VAR}/y", "fromenv/y"},
		{"${SUPPORTDESK_UNSET_VAR:-fallback}", "fallback"},
		{"${SUPPORTDESK_UNSET_VAR}", ""},
		{"plain", "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"missing store path", func(c *Config) { c.Store.Path = "" }, "store.path is required"},
		{"bad poll interval", func(c *Config) { c.Store.PollInterval = "soon" }, "store.poll_interval"},
		{"zero poll interval", func(c *Config) { c.Store.PollInterval = "0s" }, "must be positive"},
		{"missing agent name", func(c *Config) { c.Agent.Name = "" }, "agent.name is required"},
		{"bad theme", func(c *Config) { c.Console.Theme = "neon" }, "console.theme"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Store.Path = filepath.Join(dir, "data", "store.db")
	cfg.Device.StatePath = filepath.Join(dir, "state", "device.yaml")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, sub := range []string{"data", "state"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", sub, err)
		}
	}
}
