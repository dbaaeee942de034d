// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"log/slog"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/supportdesk/lib/config"
	"github.com/bureau-foundation/supportdesk/lib/consoleui"
	"github.com/bureau-foundation/supportdesk/lib/devicestate"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

func TestInitialTheme(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	device := devicestate.Open(filepath.Join(t.TempDir(), "device.yaml"), logger)
	cfg := config.Default()
	cfg.Console.Theme = "light"

	if theme := InitialTheme(device, cfg, logger); theme.Name != tui.LightTheme.Name {
		t.Errorf("without stored theme = %q, want configured light", theme.Name)
	}

	if err := device.Set(ThemeKey, "dark"); err != nil {
		t.Fatal(err)
	}
	if theme := InitialTheme(device, cfg, logger); theme.Name != tui.DarkTheme.Name {
		t.Errorf("with stored dark = %q", theme.Name)
	}

	if err := device.Set(ThemeKey, "sepia"); err != nil {
		t.Fatal(err)
	}
	if theme := InitialTheme(device, cfg, logger); theme.Name != tui.LightTheme.Name {
		t.Errorf("with unknown stored theme = %q, want configured light", theme.Name)
	}
}

func TestThemeFollower(t *testing.T) {
	var sent []tea.Msg
	follow := ThemeFollower(func(message tea.Msg) { sent = append(sent, message) }, slog.New(slog.DiscardHandler))

	follow(devicestate.State{"other": "x"})
	follow(devicestate.State{ThemeKey: "light"})
	follow(devicestate.State{ThemeKey: "light", "other": "y"})
	follow(devicestate.State{ThemeKey: "neon"})
	follow(devicestate.State{ThemeKey: "dark"})

	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2: %v", len(sent), sent)
	}
	for i, want := range []string{"light", "dark"} {
		message, ok := sent[i].(consoleui.ThemeMsg)
		if !ok || message.Theme.Name != want {
			t.Errorf("message %d = %#v, want theme %s", i, sent[i], want)
		}
	}
}
