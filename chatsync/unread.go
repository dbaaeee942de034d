// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"
	"maps"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// UnreadCounts maps conversations to their number of unread visitor
// messages. The zero value is an empty set of counts.
type UnreadCounts struct {
	counts map[ref.ConversationID]int
}

// NewUnreadCounts copies counts, dropping zero and negative entries.
func NewUnreadCounts(counts map[ref.ConversationID]int) UnreadCounts {
	kept := make(map[ref.ConversationID]int, len(counts))
	for id, count := range counts {
		if count > 0 {
			kept[id] = count
		}
	}
	return UnreadCounts{counts: kept}
}

// Get returns the unread count for a conversation; zero when absent.
func (u UnreadCounts) Get(id ref.ConversationID) int {
	return u.counts[id]
}

// Total sums every conversation's count.
func (u UnreadCounts) Total() int {
	total := 0
	for _, count := range u.counts {
		total += count
	}
	return total
}

// Len returns the number of conversations with unread messages.
func (u UnreadCounts) Len() int { return len(u.counts) }

// Map returns a copy of the counts.
func (u UnreadCounts) Map() map[ref.ConversationID]int {
	return maps.Clone(u.counts)
}

// countUnread aggregates unread visitor messages per conversation. It
// filters client side, so it is correct for either subscription tier.
func (e *Engine) countUnread(documents []docstore.Document) UnreadCounts {
	counts := make(map[ref.ConversationID]int)
	for _, document := range documents {
		if document.String(fieldSender) != string(SenderVisitor) || document.Bool(fieldRead) {
			continue
		}
		id, err := ref.ParseConversationID(document.String(fieldConversationID))
		if err != nil {
			e.logger.Debug("unread message without a conversation", "id", document.ID)
			continue
		}
		counts[id]++
	}
	return UnreadCounts{counts: counts}
}

// WatchUnreadCounts delivers unread visitor message counts for every
// conversation each time they change. If the live query fails, onUpdate
// receives one empty set of counts.
func (e *Engine) WatchUnreadCounts(onUpdate func(UnreadCounts)) docstore.Subscription {
	unread := docstore.Collection(MessagesCollection).Where(fieldRead, false)
	plan := subscriptionPlan{
		name:     "unread",
		primary:  unread.Where(fieldSender, string(SenderVisitor)),
		degraded: unread,
	}
	return e.run(plan,
		func(documents []docstore.Document) { onUpdate(e.countUnread(documents)) },
		func(error) { onUpdate(UnreadCounts{}) },
	)
}

// UnreadCount returns one conversation's unread visitor message count.
func (e *Engine) UnreadCount(ctx context.Context, id ref.ConversationID) (int, error) {
	if id.IsPlaceholder() {
		return 0, nil
	}
	byConversation := docstore.Collection(MessagesCollection).Where(fieldConversationID, id.String())

	var documents []docstore.Document
	err := e.retryOneShot(ctx, "count unread", func(ctx context.Context) error {
		var err error
		documents, err = e.store.Query(ctx, byConversation.
			Where(fieldSender, string(SenderVisitor)).
			Where(fieldRead, false))
		return err
	})
	if docstore.IsCode(err, docstore.CodeFailedPrecondition) {
		err = e.retryOneShot(ctx, "count unread", func(ctx context.Context) error {
			var err error
			documents, err = e.store.Query(ctx, byConversation)
			return err
		})
	}
	if err != nil {
		return 0, fmt.Errorf("chatsync: counting unread messages of %s: %w", id, err)
	}
	return e.countUnread(documents).Get(id), nil
}
