// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/supportdesk/lib/clock"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T, indexes ...Index) (*DB, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(testEpoch)
	db := NewMemory(Options{Clock: fake, Indexes: indexes})
	t.Cleanup(func() { db.Close() })
	return db, fake
}

func TestAddGetUpdate(t *testing.T) {
	ctx := context.Background()
	db, fake := newTestDB(t)

	id, err := db.Add(ctx, "conversations", Fields{
		"participantId": "visitor_1",
		"status":        "active",
		"createdAt":     ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(id) != 20 {
		t.Errorf("id %q has length %d, want 20", id, len(id))
	}

	document, err := db.Get(ctx, "conversations", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !document.Time("createdAt").Equal(testEpoch) {
		t.Errorf("createdAt = %v, want %v", document.Time("createdAt"), testEpoch)
	}

	fake.Advance(time.Minute)
	if err := db.Update(ctx, "conversations", id, Fields{"updatedAt": ServerTimestamp}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	document, err = db.Get(ctx, "conversations", id)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if document.String("status") != "active" {
		t.Errorf("status = %q, update should leave other fields alone", document.String("status"))
	}
	if !document.Time("updatedAt").Equal(testEpoch.Add(time.Minute)) {
		t.Errorf("updatedAt = %v", document.Time("updatedAt"))
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	db, _ := newTestDB(t)
	err := db.Update(context.Background(), "messages", "nope", Fields{"read": true})
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("Update missing = %v, want not-found", err)
	}
	_, err = db.Get(context.Background(), "messages", "nope")
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("Get missing = %v, want not-found", err)
	}
}

func TestSetReplaces(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	if err := db.Set(ctx, "faqs", "f1", Fields{"question": "a", "category": "x"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set(ctx, "faqs", "f1", Fields{"question": "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	document, err := db.Get(ctx, "faqs", "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if document.String("question") != "b" {
		t.Errorf("question = %q, want b", document.String("question"))
	}
	if _, ok := document.Value("category"); ok {
		t.Error("Set should replace the whole document")
	}
}

func TestInvalidValues(t *testing.T) {
	db, _ := newTestDB(t)
	_, err := db.Add(context.Background(), "messages", Fields{"bad": struct{}{}})
	if !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("Add with struct value = %v, want invalid-argument", err)
	}
	err = db.Set(context.Background(), "messages", "a/b", Fields{})
	if !IsCode(err, CodeInvalidArgument) {
		t.Fatalf("Set with slash id = %v, want invalid-argument", err)
	}
}

func TestQueryIndexPolicy(t *testing.T) {
	ctx := context.Background()
	compound := Collection("messages").Where("conversationId", "c1").OrderBy("timestamp", Ascending)

	db, _ := newTestDB(t)
	_, err := db.Query(ctx, compound)
	if !IsCode(err, CodeFailedPrecondition) {
		t.Fatalf("compound query without index = %v, want failed-precondition", err)
	}
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("error %T is not *Error", err)
	}

	if _, err := db.Query(ctx, compound.WithoutOrders()); err != nil {
		t.Fatalf("single-filter query: %v", err)
	}

	indexed, _ := newTestDB(t, Index{
		Collection: "messages",
		Equality:   []string{"conversationId"},
		Orders:     []Order{{Field: "timestamp", Direction: Ascending}},
	})
	if _, err := indexed.Query(ctx, compound); err != nil {
		t.Fatalf("indexed compound query: %v", err)
	}
}

func TestClosedDB(t *testing.T) {
	db := NewMemory(Options{})
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.Add(context.Background(), "x", Fields{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Add after close = %v, want ErrClosed", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewDocumentIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewDocumentID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
