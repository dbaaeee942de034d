// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// Reconciler marks messages read. Each id is updated by its own
// detached task with its own timeout; a failure is logged and affects
// no other id.
type Reconciler struct {
	store   docstore.Store
	logger  *slog.Logger
	timeout time.Duration

	// pending holds ids with an update in flight, so repeated
	// snapshots of the same unread messages do not stack updates.
	mu      sync.Mutex
	pending map[ref.MessageID]struct{}

	tasks sync.WaitGroup
}

// NewReconciler returns a Reconciler writing through the engine's
// store.
func (e *Engine) NewReconciler() *Reconciler {
	return &Reconciler{
		store:   e.store,
		logger:  e.logger,
		timeout: e.markReadTimeout,
		pending: make(map[ref.MessageID]struct{}),
	}
}

// MarkRead starts one detached read update per id and returns
// immediately. Zero ids, local notice ids, duplicates, and ids already
// being marked are skipped. Marking an already-read message again is
// harmless.
func (r *Reconciler) MarkRead(ids []ref.MessageID) {
	for _, id := range ids {
		if id.IsZero() || id.IsLocalNotice() || !r.claim(id) {
			continue
		}
		r.tasks.Add(1)
		go r.markOne(id)
	}
}

func (r *Reconciler) claim(id ref.MessageID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.pending[id]; busy {
		return false
	}
	r.pending[id] = struct{}{}
	return true
}

func (r *Reconciler) markOne(id ref.MessageID) {
	defer r.tasks.Done()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Update(ctx, MessagesCollection, id.String(), docstore.Fields{fieldRead: true}); err != nil {
		r.logger.Warn("marking message read failed",
			"message_id", id.String(),
			"error", err,
		)
		return
	}
	r.logger.Debug("message marked read", "message_id", id.String())
}

// Wait blocks until every started update has finished.
func (r *Reconciler) Wait() {
	r.tasks.Wait()
}

// MarkConversationRead marks every unread visitor message of a
// conversation, returning how many updates were started.
func (r *Reconciler) MarkConversationRead(ctx context.Context, id ref.ConversationID) (int, error) {
	if id.IsPlaceholder() {
		return 0, nil
	}
	byConversation := docstore.Collection(MessagesCollection).Where(fieldConversationID, id.String())
	documents, err := r.store.Query(ctx, byConversation.Where(fieldRead, false))
	if docstore.IsCode(err, docstore.CodeFailedPrecondition) {
		documents, err = r.store.Query(ctx, byConversation)
	}
	if err != nil {
		return 0, fmt.Errorf("chatsync: listing unread messages of %s: %w", id, err)
	}

	var ids []ref.MessageID
	for _, document := range documents {
		if document.String(fieldSender) != string(SenderVisitor) || document.Bool(fieldRead) {
			continue
		}
		messageID, err := ref.ParseMessageID(document.ID)
		if err != nil {
			continue
		}
		ids = append(ids, messageID)
	}
	r.MarkRead(ids)
	return len(ids), nil
}

// unreadVisitorIDs returns the ids of unread visitor messages.
func unreadVisitorIDs(messages []Message) []ref.MessageID {
	var ids []ref.MessageID
	for _, message := range messages {
		if message.IsUnreadVisitorMessage() {
			ids = append(ids, message.ID)
		}
	}
	return ids
}
