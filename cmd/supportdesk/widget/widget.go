// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package widget implements "supportdesk widget", the visitor chat on
// standard input and output.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/cli"
	"github.com/bureau-foundation/supportdesk/faq"
	"github.com/bureau-foundation/supportdesk/lib/ref"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

type widgetParams struct {
	Config cli.ConfigParams
	Width  int    `flag:"width" desc:"wrap FAQ answers at this many columns (default: terminal width, else 80)"`
	Theme  string `flag:"theme" desc:"color theme, dark or light (default: console.theme)"`
	Chat   bool   `flag:"chat" desc:"start the conversation immediately"`
}

// Command returns the "widget" command.
func Command() *cli.Command {
	var params widgetParams
	return &cli.Command{
		Name:    "widget",
		Summary: "Chat with support as a visitor",
		Description: `Open the visitor chat on this terminal.

The FAQ list is shown first. "/faq <question>" searches it and "/chat"
starts a conversation with the support team; any other line is sent as
a message. Agent replies appear as they arrive. The visitor id is kept
in the device state file, so later sessions continue the same
conversation.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("widget", &params)
		},
		Examples: []cli.Example{
			{Description: "Start chatting", Command: "supportdesk widget --chat"},
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			return run(ctx, params, logger)
		},
	}
}

func run(ctx context.Context, params widgetParams, logger *slog.Logger) error {
	cfg, err := params.Config.Load()
	if err != nil {
		return err
	}
	themeName := params.Theme
	if themeName == "" {
		themeName = cfg.Console.Theme
	}
	theme, err := tui.ThemeByName(themeName)
	if err != nil {
		return err
	}

	runtime, err := cli.OpenRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()

	participant := runtime.Identity.Resolve(ref.KindVisitor)
	logger = logger.With("participant_id", participant.String())
	widget, err := chatsync.NewWidget(chatsync.WidgetConfig{
		Engine:      runtime.Engine,
		Participant: participant,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer widget.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	width := params.Width
	if width <= 0 && term.IsTerminal(int(os.Stdout.Fd())) {
		if columns, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = columns
		}
	}

	if params.Chat {
		if _, err := widget.StartChat(ctx); err != nil {
			return fmt.Errorf("starting chat: %w", err)
		}
	}

	session := NewSession(SessionConfig{
		Widget:  widget,
		Catalog: faq.NewCatalog(runtime.Store, logger),
		In:      os.Stdin,
		Out:     os.Stdout,
		Theme:   theme,
		Width:   width,
		Prompt:  interactive,
		Logger:  logger,
	})
	return session.Run(ctx)
}
