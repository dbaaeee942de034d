// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatsync

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/lib/ref"
)

func TestNormalizeTimestamp(t *testing.T) {
	native := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"native", native, native},
		{"unix millis", int64(1_700_000_000_123), time.UnixMilli(1_700_000_000_123)},
		{"unix seconds float", 1_700_000_000.25, time.Unix(1_700_000_000, 250_000_000)},
		{"pending server timestamp", nil, time.Time{}},
		{"unsupported", "yesterday", time.Time{}},
		{"not a number", math.NaN(), time.Time{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := normalizeTimestamp(test.value); !got.Equal(test.want) {
				t.Errorf("normalizeTimestamp(%v) = %v, want %v", test.value, got, test.want)
			}
		})
	}
}

func TestSortMessagesByTimestamp(t *testing.T) {
	at := func(seconds int) time.Time { return testEpoch.Add(time.Duration(seconds) * time.Second) }
	messages := []Message{
		{ID: ref.MustParseMessageID("c"), Text: "3", Timestamp: at(3)},
		{ID: ref.MustParseMessageID("a"), Text: "1", Timestamp: at(1)},
		{ID: ref.MustParseMessageID("b"), Text: "2", Timestamp: at(2)},
	}
	sortMessages(messages)
	if got := texts(messages); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("sorted = %v, want [1 2 3]", got)
	}
}

func TestSortMessagesTiesAndMissingTimestamps(t *testing.T) {
	messages := []Message{
		{ID: ref.MustParseMessageID("z"), Text: "late tie", Timestamp: testEpoch},
		{ID: ref.MustParseMessageID("y"), Text: "pending"},
		{ID: ref.MustParseMessageID("a"), Text: "early tie", Timestamp: testEpoch},
	}
	sortMessages(messages)
	if got := texts(messages); !slices.Equal(got, []string{"pending", "early tie", "late tie"}) {
		t.Errorf("sorted = %v", got)
	}
}

func TestSortConversationsMostRecentFirst(t *testing.T) {
	conversations := []Conversation{
		{ID: ref.MustParseConversationID("old"), UpdatedAt: testEpoch},
		{ID: ref.MustParseConversationID("new"), UpdatedAt: testEpoch.Add(time.Hour)},
		{ID: ref.MustParseConversationID("b-tie"), UpdatedAt: testEpoch},
	}
	sortConversations(conversations)
	var ids []string
	for _, conversation := range conversations {
		ids = append(ids, conversation.ID.String())
	}
	if !slices.Equal(ids, []string{"new", "b-tie", "old"}) {
		t.Errorf("order = %v", ids)
	}
}
