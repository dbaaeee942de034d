// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"testing"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/docstoretest"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

func TestMarkReadIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	conversation := h.addConversation(t, visitor.String(), testEpoch)
	unread := h.addMessage(t, conversation, SenderVisitor, "hello", testEpoch, false)
	alreadyRead := h.addMessage(t, conversation, SenderVisitor, "old", testEpoch, true)

	reconciler := h.engine.NewReconciler()
	reconciler.MarkRead([]ref.MessageID{unread, alreadyRead})
	reconciler.Wait()
	reconciler.MarkRead([]ref.MessageID{unread, unread})
	reconciler.Wait()

	if !h.isRead(t, unread) || !h.isRead(t, alreadyRead) {
		t.Error("messages not read after MarkRead")
	}
}

func TestMarkReadIsolatesFailures(t *testing.T) {
	h := newHarness(t, true)
	conversation := h.addConversation(t, visitor.String(), testEpoch)
	failing := h.addMessage(t, conversation, SenderVisitor, "failing", testEpoch, false)
	healthy := h.addMessage(t, conversation, SenderVisitor, "healthy", testEpoch, false)
	h.faults.FailUpdate(func(collection, id string, fields docstore.Fields) error {
		if id == failing.String() {
			return docstoretest.ErrUnavailable
		}
		return nil
	})

	reconciler := h.engine.NewReconciler()
	reconciler.MarkRead([]ref.MessageID{failing, healthy})
	reconciler.Wait()

	if h.isRead(t, failing) {
		t.Error("failing message marked read")
	}
	if !h.isRead(t, healthy) {
		t.Error("healthy message not marked read after a sibling failed")
	}
}

func TestMarkReadSkipsLocalNotices(t *testing.T) {
	h := newHarness(t, true)
	reconciler := h.engine.NewReconciler()
	reconciler.MarkRead([]ref.MessageID{
		{},
		ref.NewWelcomeNoticeID(testEpoch),
		ref.NewErrorNoticeID(testEpoch),
	})
	reconciler.Wait()
	if calls := h.faults.Calls("update"); calls != 0 {
		t.Errorf("store updated %d times for notices", calls)
	}
}

func TestMarkConversationRead(t *testing.T) {
	for _, indexed := range []bool{true, false} {
		h := newHarness(t, indexed)
		ctx := context.Background()
		conversation := h.addConversation(t, visitor.String(), testEpoch)
		other := h.addConversation(t, "visitor_other", testEpoch)
		first := h.addMessage(t, conversation, SenderVisitor, "one", testEpoch, false)
		second := h.addMessage(t, conversation, SenderVisitor, "two", testEpoch, false)
		reply := h.addMessage(t, conversation, SenderAgent, "reply", testEpoch, false)
		elsewhere := h.addMessage(t, other, SenderVisitor, "elsewhere", testEpoch, false)

		reconciler := h.engine.NewReconciler()
		started, err := reconciler.MarkConversationRead(ctx, conversation)
		if err != nil {
			t.Fatalf("MarkConversationRead: %v", err)
		}
		reconciler.Wait()

		if started != 2 {
			t.Errorf("indexed=%v: started %d updates, want 2", indexed, started)
		}
		if !h.isRead(t, first) || !h.isRead(t, second) {
			t.Error("visitor messages not marked read")
		}
		if h.isRead(t, reply) {
			t.Error("agent message marked read")
		}
		if h.isRead(t, elsewhere) {
			t.Error("message of another conversation marked read")
		}
	}
}
