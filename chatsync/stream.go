// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// WatchMessages delivers the messages of one conversation in timestamp
// order each time they change.
//
// The list is re-sorted client side on every snapshot, whichever tier
// is live, because buffered writes can land after messages with later
// timestamps. If both tiers fail, onUpdate receives nil once.
//
// A placeholder id has no stored messages; the returned subscription
// is inert and onUpdate is never called.
func (e *Engine) WatchMessages(conversationID ref.ConversationID, onUpdate func([]Message)) docstore.Subscription {
	if conversationID.IsZero() || conversationID.IsPlaceholder() {
		e.logger.Debug("not watching messages of a non-durable conversation",
			"conversation_id", conversationID.String(),
		)
		return docstore.Inert
	}

	ordered := docstore.Collection(MessagesCollection).
		Where(fieldConversationID, conversationID.String()).
		OrderBy(fieldTimestamp, docstore.Ascending)
	plan := subscriptionPlan{
		name:     "messages",
		primary:  ordered,
		degraded: ordered.WithoutOrders(),
	}
	return e.run(plan,
		func(documents []docstore.Document) {
			onUpdate(e.messagesFromDocuments(documents))
		},
		func(error) { onUpdate(nil) },
	)
}

// messagesFromDocuments converts and sorts a snapshot.
func (e *Engine) messagesFromDocuments(documents []docstore.Document) []Message {
	messages := make([]Message, 0, len(documents))
	for _, document := range documents {
		message, err := messageFromDocument(document)
		if err != nil {
			e.logger.Warn("skipping malformed message", "id", document.ID, "error", err)
			continue
		}
		messages = append(messages, message)
	}
	sortMessages(messages)
	return messages
}
