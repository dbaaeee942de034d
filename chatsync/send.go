// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// SendVisitorMessage stores a visitor message and bumps the
// conversation's updatedAt.
func (e *Engine) SendVisitorMessage(ctx context.Context, conversationID ref.ConversationID, participant ref.ParticipantID, text string) (ref.MessageID, error) {
	return e.send(ctx, conversationID, text, SenderVisitor, docstore.Fields{
		fieldParticipantID: participant.String(),
	}, nil)
}

// SendAgentMessage stores an agent reply, bumps the conversation's
// updatedAt, and assigns the agent to the conversation.
func (e *Engine) SendAgentMessage(ctx context.Context, conversationID ref.ConversationID, agent ref.ParticipantID, agentName, text string) (ref.MessageID, error) {
	return e.send(ctx, conversationID, text, SenderAgent, docstore.Fields{
		fieldAgentID:   agent.String(),
		fieldAgentName: agentName,
	}, docstore.Fields{
		fieldAssignedAgentID:   agent.String(),
		fieldAssignedAgentName: agentName,
	})
}

func (e *Engine) send(ctx context.Context, conversationID ref.ConversationID, text string, sender Sender, messageFields, conversationFields docstore.Fields) (ref.MessageID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ref.MessageID{}, ErrEmptyMessage
	}
	if conversationID.IsZero() || conversationID.IsPlaceholder() {
		return ref.MessageID{}, ErrConversationNotDurable
	}

	fields := docstore.Fields{
		fieldText:           text,
		fieldTimestamp:      e.clock.Now(),
		fieldSender:         string(sender),
		fieldConversationID: conversationID.String(),
		fieldRead:           false,
	}
	for name, value := range messageFields {
		fields[name] = value
	}

	var raw string
	err := e.retryOneShot(ctx, "send message", func(ctx context.Context) error {
		var err error
		raw, err = e.store.Add(ctx, MessagesCollection, fields)
		return err
	})
	if err != nil {
		return ref.MessageID{}, fmt.Errorf("chatsync: sending %s message to %s: %w", sender, conversationID, err)
	}
	id, err := ref.ParseMessageID(raw)
	if err != nil {
		return ref.MessageID{}, fmt.Errorf("chatsync: store returned message id: %w", err)
	}

	update := docstore.Fields{fieldUpdatedAt: docstore.ServerTimestamp}
	for name, value := range conversationFields {
		update[name] = value
	}
	err = e.retryOneShot(ctx, "touch conversation", func(ctx context.Context) error {
		return e.store.Update(ctx, ConversationsCollection, conversationID.String(), update)
	})
	if err != nil {
		// The message is stored; only the list ordering is stale.
		e.logger.Warn("updating conversation after send failed",
			"conversation_id", conversationID.String(),
			"message_id", id.String(),
			"error", err,
		)
	}

	e.logger.Debug("message sent",
		"conversation_id", conversationID.String(),
		"message_id", id.String(),
		"sender", string(sender),
	)
	return id, nil
}
