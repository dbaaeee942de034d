// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/docstoretest"
	"github.com/bureau-foundation/supportdesk/lib/testutil"
)

func conversationOrder(conversations []Conversation) []string {
	ids := make([]string, len(conversations))
	for i, conversation := range conversations {
		ids[i] = conversation.ID.String()
	}
	return ids
}

func TestWatchConversationsOrdersByActivity(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	older := h.addConversation(t, "visitor_a", testEpoch)
	newer := h.addConversation(t, "visitor_b", testEpoch.Add(time.Minute))

	updates, onUpdate := channelOf[[]Conversation]()
	subscription := h.engine.WatchConversations(onUpdate)
	defer subscription.Cancel()

	first := testutil.RequireReceive(t, updates, testTimeout, "initial list")
	if got := conversationOrder(first); len(got) != 2 || got[0] != newer.String() {
		t.Fatalf("initial order = %v, want %s first", got, newer)
	}

	// A message to the older conversation moves it to the top.
	h.clock.Advance(time.Hour)
	if _, err := h.engine.SendVisitorMessage(ctx, older, visitor, "still there?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	testutil.RequireReceiveMatch(t, updates, testTimeout, func(conversations []Conversation) bool {
		return len(conversations) == 2 && conversations[0].ID == older
	}, "older conversation moved to top")
}

func TestWatchConversationsEmptyListOnFailure(t *testing.T) {
	h := newHarness(t, true)
	h.addConversation(t, "visitor_a", testEpoch)
	h.faults.FailWatch(func(docstore.Query) error { return docstoretest.ErrUnavailable })

	updates, onUpdate := channelOf[[]Conversation]()
	subscription := h.engine.WatchConversations(onUpdate)
	defer subscription.Cancel()

	conversations := testutil.RequireReceive(t, updates, testTimeout, "empty list")
	if conversations == nil || len(conversations) != 0 {
		t.Errorf("delivered %v, want an empty non-nil list", conversations)
	}
}
