// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/docstoretest"
	"github.com/bureau-foundation/supportdesk/lib/clock"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

const testTimeout = 5 * time.Second

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// indexes are the composite indexes the primary tiers need.
var indexes = []docstore.Index{
	{
		Collection: ConversationsCollection,
		Equality:   []string{fieldParticipantID, fieldStatus},
		Orders:     []docstore.Order{{Field: fieldCreatedAt, Direction: docstore.Descending}},
	},
	{
		Collection: MessagesCollection,
		Equality:   []string{fieldConversationID},
		Orders:     []docstore.Order{{Field: fieldTimestamp, Direction: docstore.Ascending}},
	},
}

type harness struct {
	clock  *clock.FakeClock
	db     *docstore.DB
	faults *docstoretest.FaultStore
	engine *Engine
}

// newHarness builds an engine over an in-memory store wrapped for
// fault injection. indexed controls whether the composite indexes are
// declared. Retries are disabled unless a test asks for them.
func newHarness(t *testing.T, indexed bool) *harness {
	t.Helper()
	fake := clock.Fake(testEpoch)
	var declared []docstore.Index
	if indexed {
		declared = indexes
	}
	db := docstoretest.NewDB(t, fake, declared...)
	faults := docstoretest.Wrap(db)
	engine, err := NewEngine(Config{
		Store: faults,
		Clock: fake,
		Retry: RetryPolicy{Attempts: 1},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &harness{clock: fake, db: db, faults: faults, engine: engine}
}

// addMessage writes a message document directly, bypassing send.
func (h *harness) addMessage(t *testing.T, conversation ref.ConversationID, sender Sender, text string, timestamp any, read bool) ref.MessageID {
	t.Helper()
	raw, err := h.db.Add(context.Background(), MessagesCollection, docstore.Fields{
		fieldConversationID: conversation.String(),
		fieldSender:         string(sender),
		fieldText:           text,
		fieldTimestamp:      timestamp,
		fieldRead:           read,
	})
	if err != nil {
		t.Fatalf("adding message %q: %v", text, err)
	}
	return ref.MustParseMessageID(raw)
}

// addConversation writes an active conversation directly.
func (h *harness) addConversation(t *testing.T, participant string, created time.Time) ref.ConversationID {
	t.Helper()
	raw, err := h.db.Add(context.Background(), ConversationsCollection, docstore.Fields{
		fieldParticipantID: participant,
		fieldStatus:        string(StatusActive),
		fieldCreatedAt:     created,
		fieldUpdatedAt:     created,
	})
	if err != nil {
		t.Fatalf("adding conversation: %v", err)
	}
	return ref.MustParseConversationID(raw)
}

func (h *harness) isRead(t *testing.T, id ref.MessageID) bool {
	t.Helper()
	document, err := h.db.Get(context.Background(), MessagesCollection, id.String())
	if err != nil {
		t.Fatalf("Get message %s: %v", id, err)
	}
	return document.Bool(fieldRead)
}

func texts(messages []Message) []string {
	result := make([]string, len(messages))
	for i, message := range messages {
		result[i] = message.Text
	}
	return result
}

// channelOf returns a callback that forwards into a buffered channel.
func channelOf[T any]() (chan T, func(T)) {
	ch := make(chan T, 64)
	return ch, func(value T) { ch <- value }
}

// waitForConsole waits until the console state satisfies match.
func waitForConsole(t *testing.T, console *Console, match func(ConsoleState) bool, description string) ConsoleState {
	t.Helper()
	deadline := time.After(testTimeout) //nolint:realclock test hang prevention
	for {
		state := console.State()
		if match(state) {
			return state
		}
		select {
		case <-console.Updates():
		case <-deadline:
			t.Fatalf("timed out waiting for console: %s (last state: selected=%s messages=%v unread=%d)",
				description, state.Selected, texts(state.Messages), state.Unread.Total())
		}
	}
}

// waitForWidget waits until the transcript satisfies match.
func waitForWidget(t *testing.T, widget *Widget, match func([]Message) bool, description string) []Message {
	t.Helper()
	deadline := time.After(testTimeout) //nolint:realclock test hang prevention
	for {
		transcript := widget.Transcript()
		if match(transcript) {
			return transcript
		}
		select {
		case <-widget.Updates():
		case <-deadline:
			t.Fatalf("timed out waiting for widget: %s (transcript: %v)", description, texts(transcript))
		}
	}
}
