// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// Texts of the notices the widget inserts into its own transcript.
const (
	WelcomeText   = "You're now connected to our support team. How can we help you today?"
	SendErrorText = "Sorry, there was an error sending your message. Please try again."
)

// WidgetConfig configures a Widget.
type WidgetConfig struct {
	Engine *Engine
	// Participant is the visitor. Resolve it with an IdentityResolver.
	Participant ref.ParticipantID
	Logger      *slog.Logger
}

// Widget is the visitor side: one conversation, its transcript, and
// local notices that never reach the store.
type Widget struct {
	engine      *Engine
	participant ref.ParticipantID
	selection   *Selection
	logger      *slog.Logger

	// sendMu serializes Send so a placeholder is re-resolved once.
	sendMu sync.Mutex

	mu           sync.Mutex
	conversation ref.ConversationID
	messages     []Message
	notices      []Message
	welcomed     bool

	updates chan struct{}
}

// NewWidget returns a widget for one visitor.
func NewWidget(config WidgetConfig) (*Widget, error) {
	if config.Engine == nil {
		return nil, fmt.Errorf("chatsync: WidgetConfig.Engine is required")
	}
	if config.Participant.IsZero() {
		return nil, fmt.Errorf("chatsync: WidgetConfig.Participant is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = config.Engine.logger
	}
	return &Widget{
		engine:      config.Engine,
		participant: config.Participant,
		selection:   NewSelection(logger),
		logger:      logger,
		updates:     make(chan struct{}, 1),
	}, nil
}

// Participant returns the visitor id.
func (w *Widget) Participant() ref.ParticipantID { return w.participant }

// Conversation returns the current conversation id, which may be a
// placeholder, or zero before StartChat.
func (w *Widget) Conversation() ref.ConversationID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversation
}

// StartChat resolves the visitor's conversation and opens its message
// stream. The first call also adds the welcome notice. When the store
// is unreachable the conversation is a placeholder and the transcript
// holds only local notices until a send succeeds in resolving it.
func (w *Widget) StartChat(ctx context.Context) (ref.ConversationID, error) {
	ticket := w.selection.BeginResolving()
	id, err := w.engine.ResolveConversation(ctx, w.participant)
	if err != nil {
		w.selection.Clear()
		return ref.ConversationID{}, err
	}
	w.open(ticket, id)

	w.mu.Lock()
	if !w.welcomed {
		w.welcomed = true
		now := w.engine.clock.Now()
		w.notices = append(w.notices, Message{
			ID:             ref.NewWelcomeNoticeID(now),
			Text:           WelcomeText,
			Timestamp:      now,
			Sender:         SenderSystem,
			ConversationID: id,
			Read:           true,
		})
	}
	w.mu.Unlock()
	w.notify()
	return id, nil
}

// open attaches id's message stream if the ticket is still current.
func (w *Widget) open(ticket Ticket, id ref.ConversationID) {
	w.selection.Resolved(ticket, id, func(guard Guard) docstore.Subscription {
		w.mu.Lock()
		w.conversation = id
		w.messages = nil
		w.mu.Unlock()
		return w.engine.WatchMessages(id, func(messages []Message) {
			guard.Do(func() {
				w.mu.Lock()
				w.messages = messages
				w.mu.Unlock()
				w.notify()
			})
		})
	})
}

// Send sends a visitor message, starting the chat first if needed. A
// placeholder conversation is re-resolved before sending. On failure
// the transcript gains an error notice and the error is returned.
func (w *Widget) Send(ctx context.Context, text string) (ref.MessageID, error) {
	if strings.TrimSpace(text) == "" {
		return ref.MessageID{}, ErrEmptyMessage
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	conversation := w.Conversation()
	if conversation.IsZero() {
		var err error
		if conversation, err = w.StartChat(ctx); err != nil {
			return ref.MessageID{}, err
		}
	}

	if conversation.IsPlaceholder() {
		durable, err := w.engine.EnsureDurable(ctx, w.participant, conversation)
		if err != nil {
			w.addErrorNotice(conversation)
			return ref.MessageID{}, err
		}
		w.open(w.selection.BeginResolving(), durable)
		conversation = durable
	}

	id, err := w.engine.SendVisitorMessage(ctx, conversation, w.participant, text)
	if err != nil {
		w.addErrorNotice(conversation)
		return ref.MessageID{}, err
	}
	return id, nil
}

func (w *Widget) addErrorNotice(conversation ref.ConversationID) {
	now := w.engine.clock.Now()
	w.mu.Lock()
	w.notices = append(w.notices, Message{
		ID:             ref.NewErrorNoticeID(now),
		Text:           SendErrorText,
		Timestamp:      now,
		Sender:         SenderSystem,
		ConversationID: conversation,
		Read:           true,
	})
	w.mu.Unlock()
	w.notify()
}

// Transcript returns stored messages and local notices merged in
// timestamp order.
func (w *Widget) Transcript() []Message {
	w.mu.Lock()
	transcript := slices.Concat(w.messages, w.notices)
	w.mu.Unlock()
	sortMessages(transcript)
	return transcript
}

// Updates signals that the transcript changed. Signals coalesce.
func (w *Widget) Updates() <-chan struct{} {
	return w.updates
}

// Close detaches the message stream.
func (w *Widget) Close() {
	w.selection.Clear()
}

func (w *Widget) notify() {
	select {
	case w.updates <- struct{}{}:
	default:
	}
}
