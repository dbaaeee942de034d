// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// ConsoleState is an immutable snapshot of the agent console. Slices
// are owned by the snapshot.
type ConsoleState struct {
	Conversations []Conversation
	Unread        UnreadCounts
	Selected      ref.ConversationID
	Messages      []Message
}

// ConsoleConfig configures a Console.
type ConsoleConfig struct {
	Engine    *Engine
	Agent     ref.ParticipantID
	AgentName string
	Logger    *slog.Logger
}

// Console is the agent side: the conversation list with unread badges,
// one open conversation, and replies. Viewing a conversation marks its
// visitor messages read.
type Console struct {
	engine     *Engine
	reconciler *Reconciler
	selection  *Selection
	agent      ref.ParticipantID
	agentName  string
	logger     *slog.Logger

	mu            sync.Mutex
	conversations []Conversation
	unread        UnreadCounts
	selected      ref.ConversationID
	messages      []Message
	registry      docstore.Subscription
	counter       docstore.Subscription
	started       bool

	updates chan struct{}
}

// NewConsole returns a console. Call Start to open its live views.
func NewConsole(config ConsoleConfig) (*Console, error) {
	if config.Engine == nil {
		return nil, fmt.Errorf("chatsync: ConsoleConfig.Engine is required")
	}
	if config.Agent.IsZero() {
		return nil, fmt.Errorf("chatsync: ConsoleConfig.Agent is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = config.Engine.logger
	}
	return &Console{
		engine:     config.Engine,
		reconciler: config.Engine.NewReconciler(),
		selection:  NewSelection(logger),
		agent:      config.Agent,
		agentName:  config.AgentName,
		logger:     logger,
		updates:    make(chan struct{}, 1),
	}, nil
}

// Start opens the conversation list and unread counter subscriptions.
// Calling it again has no effect.
func (c *Console) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.registry = c.engine.WatchConversations(c.applyConversations)
	c.counter = c.engine.WatchUnreadCounts(c.applyUnread)
}

func (c *Console) applyConversations(conversations []Conversation) {
	c.mu.Lock()
	c.conversations = conversations
	c.mu.Unlock()
	c.notify()
}

func (c *Console) applyUnread(counts UnreadCounts) {
	c.mu.Lock()
	c.unread = counts
	c.mu.Unlock()
	c.notify()
}

// Select opens a conversation. The message view is emptied at once and
// filled by the conversation's stream; snapshots still arriving for the
// previously open conversation are dropped.
func (c *Console) Select(id ref.ConversationID) {
	c.selection.Select(id, func(guard Guard) docstore.Subscription {
		c.mu.Lock()
		c.selected = id
		c.messages = nil
		c.mu.Unlock()
		return c.engine.WatchMessages(id, func(messages []Message) {
			guard.Do(func() { c.applyMessages(messages) })
		})
	})
	c.notify()
}

// applyMessages runs under the selection guard.
func (c *Console) applyMessages(messages []Message) {
	c.mu.Lock()
	c.messages = messages
	c.mu.Unlock()
	if ids := unreadVisitorIDs(messages); len(ids) > 0 {
		c.reconciler.MarkRead(ids)
	}
	c.notify()
}

// Clear closes the open conversation.
func (c *Console) Clear() {
	c.selection.Clear()
	c.mu.Lock()
	c.selected = ref.ConversationID{}
	c.messages = nil
	c.mu.Unlock()
	c.notify()
}

// Reply sends an agent message to the open conversation.
func (c *Console) Reply(ctx context.Context, text string) (ref.MessageID, error) {
	id, state := c.selection.Current()
	if state != SelectionSubscribed {
		return ref.MessageID{}, ErrNoSelection
	}
	return c.engine.SendAgentMessage(ctx, id, c.agent, c.agentName, text)
}

// MarkConversationRead marks every unread visitor message of a
// conversation read without opening it, returning how many updates
// were started.
func (c *Console) MarkConversationRead(ctx context.Context, id ref.ConversationID) (int, error) {
	return c.reconciler.MarkConversationRead(ctx, id)
}

// CloseSelected marks the open conversation closed.
func (c *Console) CloseSelected(ctx context.Context) error {
	id, state := c.selection.Current()
	if state != SelectionSubscribed {
		return ErrNoSelection
	}
	return c.engine.CloseConversation(ctx, id)
}

// State returns a snapshot of everything the console shows.
func (c *Console) State() ConsoleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConsoleState{
		Conversations: slices.Clone(c.conversations),
		Unread:        c.unread,
		Selected:      c.selected,
		Messages:      slices.Clone(c.messages),
	}
}

// Updates signals that State changed. Signals coalesce: one receive
// may stand for several changes.
func (c *Console) Updates() <-chan struct{} {
	return c.updates
}

// DroppedSnapshots reports how many stale message snapshots were
// discarded.
func (c *Console) DroppedSnapshots() int64 {
	return c.selection.DroppedSnapshots()
}

// Reconciler exposes the console's read reconciler.
func (c *Console) Reconciler() *Reconciler {
	return c.reconciler
}

// Close cancels every subscription and waits for pending read updates.
func (c *Console) Close() {
	c.selection.Clear()
	c.mu.Lock()
	registry, counter := c.registry, c.counter
	c.registry, c.counter = nil, nil
	c.mu.Unlock()
	if registry != nil {
		registry.Cancel()
	}
	if counter != nil {
		counter.Cancel()
	}
	c.reconciler.Wait()
}

func (c *Console) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
