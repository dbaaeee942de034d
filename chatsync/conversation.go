// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// fallbackScanLimit bounds the unordered scan used when the ordered
// active-conversation query has no index.
const fallbackScanLimit = 10

// ResolveConversation returns the participant's active conversation,
// creating one if none exists.
//
// When the store cannot be reached the result is a placeholder id
// (IsPlaceholder reports true) and the error is nil: the visitor can
// keep typing, and EnsureDurable re-resolves before anything is sent.
//
// Two resolutions racing for a participant with no active conversation
// can both create one. This is accepted; later resolutions converge on
// the newest.
func (e *Engine) ResolveConversation(ctx context.Context, participant ref.ParticipantID) (ref.ConversationID, error) {
	if participant.IsZero() {
		return ref.ConversationID{}, fmt.Errorf("chatsync: resolve conversation: empty participant id")
	}

	id, found, err := e.findActiveConversation(ctx, participant)
	if err == nil && !found {
		id, err = e.createConversation(ctx, participant)
	}
	if err != nil {
		placeholder := ref.NewPlaceholderConversationID(e.clock.Now())
		e.logger.Warn("conversation store unreachable, using placeholder",
			"participant_id", participant.String(),
			"conversation_id", placeholder.String(),
			"error", err,
		)
		return placeholder, nil
	}
	return id, nil
}

// EnsureDurable returns id unchanged unless it is a placeholder, in
// which case the conversation is resolved again. It fails with
// ErrConversationNotDurable when the store is still unreachable.
func (e *Engine) EnsureDurable(ctx context.Context, participant ref.ParticipantID, id ref.ConversationID) (ref.ConversationID, error) {
	if !id.IsZero() && !id.IsPlaceholder() {
		return id, nil
	}
	resolved, err := e.ResolveConversation(ctx, participant)
	if err != nil {
		return ref.ConversationID{}, err
	}
	if resolved.IsPlaceholder() {
		return resolved, ErrConversationNotDurable
	}
	e.logger.Info("placeholder conversation resolved",
		"participant_id", participant.String(),
		"placeholder", id.String(),
		"conversation_id", resolved.String(),
	)
	return resolved, nil
}

// findActiveConversation runs the ordered lookup, falling back to a
// bounded unordered scan when the ordered query lacks an index.
func (e *Engine) findActiveConversation(ctx context.Context, participant ref.ParticipantID) (ref.ConversationID, bool, error) {
	active := docstore.Collection(ConversationsCollection).
		Where(fieldParticipantID, participant.String()).
		Where(fieldStatus, string(StatusActive))

	var documents []docstore.Document
	err := e.retryOneShot(ctx, "find active conversation", func(ctx context.Context) error {
		var err error
		documents, err = e.store.Query(ctx, active.OrderBy(fieldCreatedAt, docstore.Descending).WithLimit(1))
		return err
	})
	if docstore.IsCode(err, docstore.CodeFailedPrecondition) {
		e.logger.Info("index unavailable, scanning active conversations",
			"participant_id", participant.String(),
		)
		err = e.retryOneShot(ctx, "scan active conversations", func(ctx context.Context) error {
			var err error
			documents, err = e.store.Query(ctx, active.WithLimit(fallbackScanLimit))
			return err
		})
		documents = newestFirst(documents)
	}
	if err != nil {
		return ref.ConversationID{}, false, err
	}

	for _, document := range documents {
		id, err := ref.ParseConversationID(document.ID)
		if err != nil {
			e.logger.Warn("skipping malformed conversation id", "id", document.ID, "error", err)
			continue
		}
		return id, true, nil
	}
	return ref.ConversationID{}, false, nil
}

// newestFirst returns the document with the latest createdAt (ties to
// the smaller id) as a one-element slice.
func newestFirst(documents []docstore.Document) []docstore.Document {
	if len(documents) == 0 {
		return nil
	}
	newest := documents[0]
	for _, document := range documents[1:] {
		created, best := document.Time(fieldCreatedAt), newest.Time(fieldCreatedAt)
		if created.After(best) || (created.Equal(best) && document.ID < newest.ID) {
			newest = document
		}
	}
	return []docstore.Document{newest}
}

func (e *Engine) createConversation(ctx context.Context, participant ref.ParticipantID) (ref.ConversationID, error) {
	var raw string
	err := e.retryOneShot(ctx, "create conversation", func(ctx context.Context) error {
		var err error
		raw, err = e.store.Add(ctx, ConversationsCollection, docstore.Fields{
			fieldParticipantID: participant.String(),
			fieldStatus:        string(StatusActive),
			fieldCreatedAt:     docstore.ServerTimestamp,
			fieldUpdatedAt:     docstore.ServerTimestamp,
		})
		return err
	})
	if err != nil {
		return ref.ConversationID{}, fmt.Errorf("creating conversation: %w", err)
	}
	id, err := ref.ParseConversationID(raw)
	if err != nil {
		return ref.ConversationID{}, fmt.Errorf("store returned conversation id: %w", err)
	}
	e.logger.Info("conversation created",
		"participant_id", participant.String(),
		"conversation_id", id.String(),
	)
	return id, nil
}

// CloseConversation marks a conversation closed. The participant's next
// resolution creates a new one.
func (e *Engine) CloseConversation(ctx context.Context, id ref.ConversationID) error {
	if id.IsPlaceholder() {
		return ErrConversationNotDurable
	}
	err := e.retryOneShot(ctx, "close conversation", func(ctx context.Context) error {
		return e.store.Update(ctx, ConversationsCollection, id.String(), docstore.Fields{
			fieldStatus:    string(StatusClosed),
			fieldUpdatedAt: docstore.ServerTimestamp,
		})
	})
	if err != nil {
		return fmt.Errorf("chatsync: closing conversation %s: %w", id, err)
	}
	return nil
}
