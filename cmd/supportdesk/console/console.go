// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console implements "supportdesk console", the full-screen
// agent console.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/cli"
	"github.com/bureau-foundation/supportdesk/lib/config"
	"github.com/bureau-foundation/supportdesk/lib/consoleui"
	"github.com/bureau-foundation/supportdesk/lib/devicestate"
	"github.com/bureau-foundation/supportdesk/lib/ref"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

// ThemeKey is the device state key holding the console theme name.
const ThemeKey = "supportdesk_consoleTheme"

type consoleParams struct {
	Config  cli.ConfigParams
	Name    string `flag:"name" desc:"display name shown on replies; remembered on this device"`
	LogFile string `flag:"log-file" desc:"write logs here (default: console.log next to the device state file)"`
}

// Command returns the "console" command.
func Command() *cli.Command {
	var params consoleParams
	return &cli.Command{
		Name:    "console",
		Summary: "Answer visitors from the agent console",
		Description: `Open the full-screen agent console.

The left pane lists conversations, most recently active first, with a
badge counting unread visitor messages. Opening a conversation shows
its messages and marks the visitor's messages read. Replies assign the
conversation to you. Press "/" to filter the list and "t" to switch
between the dark and light themes; the choice is remembered on this
device and followed by other consoles running here.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("console", &params)
		},
		Examples: []cli.Example{
			{Description: "Open the console as Dana", Command: "supportdesk console --name Dana"},
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			return run(ctx, params, logger)
		},
	}
}

func run(ctx context.Context, params consoleParams, commandLogger *slog.Logger) error {
	cfg, err := params.Config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs go to a file.
	logPath := params.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(cfg.Device.StatePath), "console.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger := cli.NewFileLogger(logFile).With("command", "console")
	commandLogger.Debug("console logging to file", "path", logPath)

	runtime, err := cli.OpenRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()

	agent := runtime.Identity.Resolve(ref.KindAgent)
	agentName := runtime.Identity.DisplayName(cfg.Agent.Name)
	if params.Name != "" {
		agentName = params.Name
		if err := runtime.Identity.SetDisplayName(agentName); err != nil {
			logger.Warn("could not remember display name", "error", err)
		}
	}
	logger = logger.With("agent_id", agent.String())

	console, err := chatsync.NewConsole(chatsync.ConsoleConfig{
		Engine:    runtime.Engine,
		Agent:     agent,
		AgentName: agentName,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	console.Start()
	defer console.Close()

	theme := InitialTheme(runtime.Device, cfg, logger)
	model := consoleui.NewModel(consoleui.Options{
		Console:   console,
		Theme:     theme,
		AgentName: agentName,
		OnThemeChange: func(theme tui.Theme) {
			if err := runtime.Device.Set(ThemeKey, theme.Name); err != nil {
				logger.Warn("could not persist theme", "theme", theme.Name, "error", err)
			}
		},
	})

	watchContext, stopWatching := context.WithCancel(ctx)
	defer stopWatching()
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if err := runtime.Device.Watch(watchContext, ThemeFollower(program.Send, logger)); err != nil {
		logger.Warn("theme changes from other consoles will not be followed", "error", err)
	}

	logger.Info("console started", "agent_name", agentName, "theme", theme.Name)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console: %w", err)
	}
	logger.Info("console stopped", "dropped_snapshots", console.DroppedSnapshots())
	return nil
}

// InitialTheme returns the theme recorded in device state, else the
// configured one.
func InitialTheme(device *devicestate.Store, cfg *config.Config, logger *slog.Logger) tui.Theme {
	if name, found, err := device.Get(ThemeKey); err != nil {
		logger.Warn("device state unreadable, using configured theme", "error", err)
	} else if found {
		if theme, err := tui.ThemeByName(name); err == nil {
			return theme
		}
		logger.Warn("unknown stored theme", "theme", name)
	}
	theme, err := tui.ThemeByName(cfg.Console.Theme)
	if err != nil {
		return tui.DarkTheme
	}
	return theme
}

// ThemeFollower returns a device state callback that sends a
// consoleui.ThemeMsg when the stored theme changes.
func ThemeFollower(send func(tea.Msg), logger *slog.Logger) func(devicestate.State) {
	last := ""
	return func(state devicestate.State) {
		name := state[ThemeKey]
		if name == "" || name == last {
			return
		}
		last = name
		theme, err := tui.ThemeByName(name)
		if err != nil {
			logger.Warn("unknown stored theme", "theme", name)
			return
		}
		send(consoleui.ThemeMsg{Theme: theme})
	}
}
