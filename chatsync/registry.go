// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"github.com/bureau-foundation/supportdesk/docstore"
)

// WatchConversations delivers every conversation, most recently
// updated first, each time any of them changes. It is independent of
// any selection: nothing it delivers should change what an agent has
// open. If the live query fails, onUpdate receives one empty list.
func (e *Engine) WatchConversations(onUpdate func([]Conversation)) docstore.Subscription {
	plan := subscriptionPlan{
		name:     "conversations",
		primary:  docstore.Collection(ConversationsCollection).OrderBy(fieldUpdatedAt, docstore.Descending),
		degraded: docstore.Collection(ConversationsCollection),
	}
	return e.run(plan,
		func(documents []docstore.Document) {
			conversations := make([]Conversation, 0, len(documents))
			for _, document := range documents {
				conversation, err := conversationFromDocument(document)
				if err != nil {
					e.logger.Warn("skipping malformed conversation", "id", document.ID, "error", err)
					continue
				}
				conversations = append(conversations, conversation)
			}
			sortConversations(conversations)
			onUpdate(conversations)
		},
		func(error) { onUpdate([]Conversation{}) },
	)
}
