// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/ref"
)

// SelectionState is the phase of a Selection.
type SelectionState int

const (
	// SelectionIdle: nothing is open.
	SelectionIdle SelectionState = iota
	// SelectionResolving: a conversation id is being resolved.
	SelectionResolving
	// SelectionSubscribed: a conversation is open and its message
	// stream attached.
	SelectionSubscribed
)

func (s SelectionState) String() string {
	switch s {
	case SelectionIdle:
		return "idle"
	case SelectionResolving:
		return "resolving"
	case SelectionSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// Selection is the single-writer record of which conversation a user
// has open, and the owner of that conversation's message stream.
//
// Every transition bumps a generation counter under the mutex before
// the previous stream is cancelled. A Guard captured for one
// generation admits nothing once the selection has moved on, so a
// snapshot still in flight from a torn-down stream is dropped.
type Selection struct {
	logger *slog.Logger

	mu           sync.Mutex
	state        SelectionState
	current      ref.ConversationID
	generation   uint64
	subscription docstore.Subscription

	dropped atomic.Int64
}

// NewSelection returns an idle Selection.
func NewSelection(logger *slog.Logger) *Selection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selection{logger: logger}
}

// Guard gates the deliveries of one subscription on the selection it
// was opened for.
type Guard struct {
	selection  *Selection
	id         ref.ConversationID
	generation uint64
}

// Do runs apply if the live selection is still the guard's
// conversation and generation, and reports whether it ran. apply runs
// under the selection lock, so no selection change interleaves with
// it; it must not call back into the Selection.
func (g Guard) Do(apply func()) bool {
	s := g.selection
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SelectionSubscribed || s.generation != g.generation || s.current != g.id {
		s.dropped.Add(1)
		s.logger.Debug("dropping snapshot for a conversation no longer selected",
			"conversation_id", g.id.String(),
			"selected", s.current.String(),
		)
		return false
	}
	apply()
	return true
}

// Ticket identifies one Resolving phase.
type Ticket struct {
	generation uint64
}

// Select opens id. The live selection is updated and the previous
// stream cancelled before open is called, all under the selection
// lock; open receives the Guard its deliveries must pass through and
// returns the new stream.
func (s *Selection) Select(id ref.ConversationID, open func(Guard) docstore.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(SelectionSubscribed, id)
	s.subscription = open(Guard{selection: s, id: id, generation: s.generation})
}

// BeginResolving moves to Resolving, closing any open stream.
func (s *Selection) BeginResolving() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(SelectionResolving, ref.ConversationID{})
	return Ticket{generation: s.generation}
}

// Resolved completes a Resolving phase by opening id. It reports false
// and opens nothing if the selection changed since the ticket was
// issued.
func (s *Selection) Resolved(ticket Ticket, id ref.ConversationID, open func(Guard) docstore.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SelectionResolving || s.generation != ticket.generation {
		return false
	}
	s.transitionLocked(SelectionSubscribed, id)
	s.subscription = open(Guard{selection: s, id: id, generation: s.generation})
	return true
}

// Clear returns to Idle, closing any open stream.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionLocked(SelectionIdle, ref.ConversationID{})
}

func (s *Selection) transitionLocked(state SelectionState, id ref.ConversationID) {
	s.generation++
	previous := s.current
	s.state = state
	s.current = id
	if s.subscription != nil {
		s.subscription.Cancel()
		s.subscription = nil
	}
	s.logger.Debug("selection changed",
		"state", state.String(),
		"conversation_id", id.String(),
		"previous", previous.String(),
	)
}

// Current returns the selected conversation and the state. The id is
// zero unless the state is Subscribed.
func (s *Selection) Current() (ref.ConversationID, SelectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state
}

// DroppedSnapshots counts deliveries rejected by guards.
func (s *Selection) DroppedSnapshots() int64 {
	return s.dropped.Load()
}
