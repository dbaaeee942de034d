// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the supportdesk command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/cli"
	consolecmd "github.com/bureau-foundation/supportdesk/cmd/supportdesk/console"
	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/conversations"
	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/faqcmd"
	widgetcmd "github.com/bureau-foundation/supportdesk/cmd/supportdesk/widget"
	"github.com/bureau-foundation/supportdesk/lib/version"
)

// Root returns the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "supportdesk",
		Description: `supportdesk: customer support chat.

Visitors chat from the widget; agents answer from the console. Both
sides share one document store, so replies, unread badges, and read
receipts update live across processes.`,
		Subcommands: []*cli.Command{
			widgetcmd.Command(),
			consolecmd.Command(),
			conversations.Command(),
			faqcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string, *slog.Logger) error {
					fmt.Printf("supportdesk %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{Description: "Load the starter FAQs", Command: "supportdesk faq seed"},
			{Description: "Chat as a visitor", Command: "supportdesk widget"},
			{Description: "Answer visitors", Command: "supportdesk console --name Dana"},
			{Description: "See who is waiting", Command: "supportdesk conversations --status active --unread"},
		},
	}
}
