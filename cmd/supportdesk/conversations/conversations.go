// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversations implements "supportdesk conversations", a
// one-shot listing of the conversation registry.
package conversations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/cmd/supportdesk/cli"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

type listParams struct {
	cli.JSONOutput
	Config  cli.ConfigParams
	Status  string        `flag:"status" desc:"only conversations with this status: active or closed"`
	Unread  bool          `flag:"unread" desc:"only conversations with unread visitor messages"`
	ID      string        `flag:"id" desc:"show one conversation, counting its unread messages directly"`
	Timeout time.Duration `flag:"timeout" desc:"how long to wait for the store" default:"10s"`
}

// Row is one listed conversation.
type Row struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Status        string    `json:"status"`
	Unread        int       `json:"unread"`
	AssignedAgent string    `json:"assigned_agent,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Command returns the "conversations" command.
func Command() *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "conversations",
		Summary: "List conversations with unread counts",
		Description: `List every conversation, most recently active first, with the
number of unread visitor messages and when it was last updated.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("conversations", &params)
		},
		Examples: []cli.Example{
			{Description: "Active conversations waiting on an agent", Command: "supportdesk conversations --status active --unread"},
			{Description: "Machine-readable listing", Command: "supportdesk conversations --json"},
			{Description: "One conversation", Command: "supportdesk conversations --id 3fJ2kq9TzXw1mB7cLp0a"},
		},
		Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
			if params.Status != "" && params.Status != string(chatsync.StatusActive) && params.Status != string(chatsync.StatusClosed) {
				return fmt.Errorf("--status must be active or closed, got %q", params.Status)
			}
			cfg, err := params.Config.Load()
			if err != nil {
				return err
			}
			runtime, err := cli.OpenRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := context.WithTimeout(ctx, params.Timeout)
			defer cancel()
			rows, err := Snapshot(ctx, runtime.Engine)
			if err != nil {
				return err
			}
			if params.ID != "" {
				row, err := Lookup(ctx, runtime.Engine, rows, params.ID)
				if err != nil {
					return err
				}
				rows = []Row{row}
			} else {
				rows = filter(rows, params.Status, params.Unread)
			}

			if done, err := params.EmitJSON(os.Stdout, rows); done {
				return err
			}
			return WriteTable(os.Stdout, rows, time.Now())
		},
	}
}

// Snapshot reads the registry and the unread counts once, through the
// same live views the console uses.
func Snapshot(ctx context.Context, engine *chatsync.Engine) ([]Row, error) {
	conversations := make(chan []chatsync.Conversation, 1)
	counts := make(chan chatsync.UnreadCounts, 1)

	registry := engine.WatchConversations(func(update []chatsync.Conversation) {
		select {
		case conversations <- update:
		default:
		}
	})
	defer registry.Cancel()
	counter := engine.WatchUnreadCounts(func(update chatsync.UnreadCounts) {
		select {
		case counts <- update:
		default:
		}
	})
	defer counter.Cancel()

	var listed []chatsync.Conversation
	var unread chatsync.UnreadCounts
	haveList, haveCounts := false, false
	for !haveList || !haveCounts {
		select {
		case listed = <-conversations:
			haveList = true
		case unread = <-counts:
			haveCounts = true
		case <-ctx.Done():
			return nil, fmt.Errorf("reading conversations: %w", ctx.Err())
		}
	}

	rows := make([]Row, 0, len(listed))
	for _, conversation := range listed {
		rows = append(rows, Row{
			ID:            conversation.ID.String(),
			ParticipantID: conversation.ParticipantID.String(),
			Status:        string(conversation.Status),
			Unread:        unread.Get(conversation.ID),
			AssignedAgent: conversation.AssignedAgentName,
			UpdatedAt:     conversation.UpdatedAt,
		})
	}
	return rows, nil
}

// Lookup returns the listed row for id with its unread count read by a
// one-shot query rather than the live counter.
func Lookup(ctx context.Context, engine *chatsync.Engine, rows []Row, id string) (Row, error) {
	conversationID, err := ref.ParseConversationID(id)
	if err != nil {
		return Row{}, fmt.Errorf("--id: %w", err)
	}
	index := slices.IndexFunc(rows, func(row Row) bool { return row.ID == conversationID.String() })
	if index < 0 {
		return Row{}, fmt.Errorf("conversation %s not found", conversationID)
	}
	row := rows[index]
	row.Unread, err = engine.UnreadCount(ctx, conversationID)
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

func filter(rows []Row, status string, unreadOnly bool) []Row {
	kept := rows[:0:0]
	for _, row := range rows {
		if status != "" && row.Status != status {
			continue
		}
		if unreadOnly && row.Unread == 0 {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// WriteTable prints rows as aligned columns with update times relative
// to now.
func WriteTable(w io.Writer, rows []Row, now time.Time) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No conversations.")
		return err
	}
	table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(table, "CONVERSATION\tVISITOR\tSTATUS\tUNREAD\tAGENT\tUPDATED")
	for _, row := range rows {
		agent := row.AssignedAgent
		if agent == "" {
			agent = "-"
		}
		updated := "-"
		if !row.UpdatedAt.IsZero() {
			updated = humanize.RelTime(row.UpdatedAt, now, "ago", "from now")
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%d\t%s\t%s\n",
			row.ID, row.ParticipantID, row.Status, row.Unread, agent, updated)
	}
	return table.Flush()
}
