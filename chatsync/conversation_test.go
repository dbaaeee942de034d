// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/docstoretest"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

var visitor = ref.MustParseParticipantID("visitor_1700000000000_abcdefghi")

func TestResolveConversationIsIdempotent(t *testing.T) {
	for _, indexed := range []bool{true, false} {
		h := newHarness(t, indexed)
		ctx := context.Background()

		first, err := h.engine.ResolveConversation(ctx, visitor)
		if err != nil {
			t.Fatalf("indexed=%v: first resolve: %v", indexed, err)
		}
		if first.IsPlaceholder() {
			t.Fatalf("indexed=%v: first resolve returned placeholder %s", indexed, first)
		}
		second, err := h.engine.ResolveConversation(ctx, visitor)
		if err != nil {
			t.Fatalf("indexed=%v: second resolve: %v", indexed, err)
		}
		if first != second {
			t.Errorf("indexed=%v: resolves returned %s then %s", indexed, first, second)
		}
		if calls := h.faults.Calls("add"); calls != 1 {
			t.Errorf("indexed=%v: %d conversations created, want 1", indexed, calls)
		}
	}
}

func TestResolveConversationCreatesActive(t *testing.T) {
	h := newHarness(t, true)
	id, err := h.engine.ResolveConversation(context.Background(), visitor)
	if err != nil {
		t.Fatalf("ResolveConversation: %v", err)
	}
	document, err := h.db.Get(context.Background(), ConversationsCollection, id.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	conversation, err := conversationFromDocument(document)
	if err != nil {
		t.Fatalf("conversationFromDocument: %v", err)
	}
	if conversation.Status != StatusActive || conversation.ParticipantID != visitor {
		t.Errorf("created %+v", conversation)
	}
	if !conversation.CreatedAt.Equal(testEpoch) || !conversation.UpdatedAt.Equal(testEpoch) {
		t.Errorf("timestamps = %v / %v, want %v", conversation.CreatedAt, conversation.UpdatedAt, testEpoch)
	}
}

func TestResolveConversationPicksNewestActive(t *testing.T) {
	for _, indexed := range []bool{true, false} {
		h := newHarness(t, indexed)
		h.addConversation(t, visitor.String(), testEpoch)
		newest := h.addConversation(t, visitor.String(), testEpoch.Add(time.Hour))
		h.addConversation(t, "visitor_someone_else", testEpoch.Add(2*time.Hour))

		got, err := h.engine.ResolveConversation(context.Background(), visitor)
		if err != nil {
			t.Fatalf("indexed=%v: %v", indexed, err)
		}
		if got != newest {
			t.Errorf("indexed=%v: resolved %s, want newest %s", indexed, got, newest)
		}
	}
}

func TestResolveConversationIgnoresClosed(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	first, err := h.engine.ResolveConversation(ctx, visitor)
	if err != nil {
		t.Fatalf("ResolveConversation: %v", err)
	}
	if err := h.engine.CloseConversation(ctx, first); err != nil {
		t.Fatalf("CloseConversation: %v", err)
	}
	second, err := h.engine.ResolveConversation(ctx, visitor)
	if err != nil {
		t.Fatalf("ResolveConversation after close: %v", err)
	}
	if second == first {
		t.Error("closed conversation was reused")
	}
}

func TestResolveConversationPlaceholderWhenUnreachable(t *testing.T) {
	h := newHarness(t, true)
	h.faults.FailQuery(func(docstore.Query) error { return docstoretest.ErrUnavailable })

	id, err := h.engine.ResolveConversation(context.Background(), visitor)
	if err != nil {
		t.Fatalf("ResolveConversation returned error %v, want placeholder", err)
	}
	if !id.IsPlaceholder() {
		t.Fatalf("id %s is not a placeholder", id)
	}
	if want := ref.NewPlaceholderConversationID(testEpoch); id != want {
		t.Errorf("placeholder = %s, want %s", id, want)
	}
}

func TestResolveConversationPlaceholderWhenCreateFails(t *testing.T) {
	h := newHarness(t, true)
	h.faults.FailAdd(func(string, docstore.Fields) error { return docstoretest.ErrUnavailable })

	id, err := h.engine.ResolveConversation(context.Background(), visitor)
	if err != nil || !id.IsPlaceholder() {
		t.Fatalf("ResolveConversation = (%s, %v), want placeholder", id, err)
	}
}

func TestEnsureDurable(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	durable := h.addConversation(t, visitor.String(), testEpoch)
	if got, err := h.engine.EnsureDurable(ctx, visitor, durable); err != nil || got != durable {
		t.Fatalf("EnsureDurable(durable) = (%s, %v)", got, err)
	}

	placeholder := ref.NewPlaceholderConversationID(testEpoch)
	h.faults.FailQuery(func(docstore.Query) error { return docstoretest.ErrUnavailable })
	if _, err := h.engine.EnsureDurable(ctx, visitor, placeholder); !errors.Is(err, ErrConversationNotDurable) {
		t.Fatalf("EnsureDurable while unreachable = %v, want ErrConversationNotDurable", err)
	}

	h.faults.FailQuery(nil)
	got, err := h.engine.EnsureDurable(ctx, visitor, placeholder)
	if err != nil {
		t.Fatalf("EnsureDurable after recovery: %v", err)
	}
	if got != durable {
		t.Errorf("EnsureDurable = %s, want existing conversation %s", got, durable)
	}
}

func TestResolveConversationRetriesUnavailable(t *testing.T) {
	h := newHarness(t, true)
	h.engine.retry = RetryPolicy{Attempts: 3, BaseDelay: 200 * time.Millisecond}
	failures := 2
	h.faults.FailQuery(func(docstore.Query) error {
		if failures > 0 {
			failures--
			return docstoretest.ErrUnavailable
		}
		return nil
	})

	result := make(chan ref.ConversationID, 1)
	go func() {
		id, _ := h.engine.ResolveConversation(context.Background(), visitor)
		result <- id
	}()

	// First retry waits 200ms, the second 400ms.
	h.clock.WaitForTimers(1)
	h.clock.Advance(200 * time.Millisecond)
	h.clock.WaitForTimers(1)
	h.clock.Advance(400 * time.Millisecond)

	select {
	case id := <-result:
		if id.IsPlaceholder() {
			t.Fatalf("resolved placeholder %s after transient failures", id)
		}
	case <-time.After(testTimeout): //nolint:realclock test hang prevention
		t.Fatal("ResolveConversation did not finish")
	}
	if calls := h.faults.Calls("query"); calls != 3 {
		t.Errorf("query called %d times, want 3", calls)
	}
}
