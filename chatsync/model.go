// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// Collection names.
const (
	ConversationsCollection = "conversations"
	MessagesCollection      = "messages"
)

// Conversation document fields.
const (
	fieldParticipantID     = "participantId"
	fieldStatus            = "status"
	fieldAssignedAgentID   = "assignedAgentId"
	fieldAssignedAgentName = "assignedAgentName"
	fieldCreatedAt         = "createdAt"
	fieldUpdatedAt         = "updatedAt"
)

// Message document fields.
const (
	fieldText           = "text"
	fieldTimestamp      = "timestamp"
	fieldSender         = "sender"
	fieldAgentID        = "agentId"
	fieldAgentName      = "agentName"
	fieldConversationID = "conversationId"
	fieldRead           = "read"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive ConversationStatus = "active"
	StatusClosed ConversationStatus = "closed"
)

// Conversation is one support session between a visitor and the
// support team.
type Conversation struct {
	ID            ref.ConversationID `json:"id"`
	ParticipantID ref.ParticipantID  `json:"participant_id"`
	Status        ConversationStatus `json:"status"`
	// AssignedAgentID is zero until the first agent reply.
	AssignedAgentID   ref.ParticipantID `json:"assigned_agent_id,omitzero"`
	AssignedAgentName string            `json:"assigned_agent_name,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Sender identifies who wrote a message.
type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderAgent   Sender = "agent"
	// SenderSystem marks notices generated by the widget itself.
	SenderSystem Sender = "system"
)

// Message is one entry in a conversation transcript.
type Message struct {
	ID   ref.MessageID `json:"id"`
	Text string        `json:"text"`
	// Timestamp is the logical send time. A message whose stored
	// timestamp is missing or not yet resolved has the zero time and
	// sorts first.
	Timestamp      time.Time          `json:"timestamp"`
	Sender         Sender             `json:"sender"`
	ConversationID ref.ConversationID `json:"conversation_id"`
	Read           bool               `json:"read"`
	ParticipantID  ref.ParticipantID  `json:"participant_id,omitzero"`
	AgentID        ref.ParticipantID  `json:"agent_id,omitzero"`
	AgentName      string             `json:"agent_name,omitempty"`
}

// IsUnreadVisitorMessage reports whether m counts toward a
// conversation's unread total.
func (m Message) IsUnreadVisitorMessage() bool {
	return m.Sender == SenderVisitor && !m.Read
}

// normalizeTimestamp converts the timestamp representations a
// docstore field can hold to a time.Time: native timestamps, integer
// unix milliseconds, and floating unix seconds. Anything else,
// including a missing value, is the zero time.
func normalizeTimestamp(value any) time.Time {
	switch typed := value.(type) {
	case time.Time:
		return typed
	case int64:
		return time.UnixMilli(typed).UTC()
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return time.Time{}
		}
		seconds, fraction := math.Modf(typed)
		return time.Unix(int64(seconds), int64(fraction*1e9)).UTC()
	default:
		return time.Time{}
	}
}

func messageFromDocument(document docstore.Document) (Message, error) {
	id, err := ref.ParseMessageID(document.ID)
	if err != nil {
		return Message{}, err
	}
	conversationID, err := ref.ParseConversationID(document.String(fieldConversationID))
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", document.ID, err)
	}
	timestamp, _ := document.Value(fieldTimestamp)
	message := Message{
		ID:             id,
		Text:           document.String(fieldText),
		Timestamp:      normalizeTimestamp(timestamp),
		Sender:         Sender(document.String(fieldSender)),
		ConversationID: conversationID,
		Read:           document.Bool(fieldRead),
		AgentName:      document.String(fieldAgentName),
	}
	// Participant ids are optional and informational; malformed ones
	// are dropped rather than hiding the message.
	message.ParticipantID, _ = ref.ParseParticipantID(document.String(fieldParticipantID))
	message.AgentID, _ = ref.ParseParticipantID(document.String(fieldAgentID))
	return message, nil
}

func conversationFromDocument(document docstore.Document) (Conversation, error) {
	id, err := ref.ParseConversationID(document.ID)
	if err != nil {
		return Conversation{}, err
	}
	conversation := Conversation{
		ID:                id,
		Status:            ConversationStatus(document.String(fieldStatus)),
		AssignedAgentName: document.String(fieldAssignedAgentName),
		CreatedAt:         document.Time(fieldCreatedAt),
		UpdatedAt:         document.Time(fieldUpdatedAt),
	}
	conversation.ParticipantID, _ = ref.ParseParticipantID(document.String(fieldParticipantID))
	conversation.AssignedAgentID, _ = ref.ParseParticipantID(document.String(fieldAssignedAgentID))
	return conversation, nil
}

// sortMessages orders messages by timestamp ascending, breaking ties
// by id.
func sortMessages(messages []Message) {
	slices.SortStableFunc(messages, func(a, b Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

// sortConversations orders conversations by most recent activity,
// breaking ties by id.
func sortConversations(conversations []Conversation) {
	slices.SortStableFunc(conversations, func(a, b Conversation) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}
