// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatsync is the conversation and message synchronization
// engine behind the support widget and the agent console.
//
// It resolves one stable conversation per visitor, keeps live
// time-ordered views of a conversation's messages and of the unread
// counters across all conversations, and marks visitor messages read
// as an agent views them. Everything runs over a [docstore.Store].
//
// # Live views
//
// [Engine.WatchMessages], [Engine.WatchConversations], and
// [Engine.WatchUnreadCounts] each run a two-tier live query. The
// primary tier asks the store for an ordered or compound query; when
// the store rejects it for a missing composite index, the subscription
// switches for good to a broader degraded query and finishes the work
// client side. Every delivered message list is sorted by timestamp
// regardless of tier or arrival order. If the degraded tier fails too,
// the callback receives one empty update and the view stays quiet.
//
// # Selection
//
// A [Selection] tracks which conversation the user is looking at as a
// small state machine (idle, resolving, subscribed). Message snapshots
// are admitted through a [Guard] that compares against the live
// selection, so a snapshot from a conversation the user already left
// changes nothing and marks nothing read.
//
// # Sessions
//
// [Console] and [Widget] compose these pieces into the agent and
// visitor sides. Nothing in this package panics or exits; store
// failures degrade to placeholder ids, local error notices, stale
// counts, or empty updates.
package chatsync
