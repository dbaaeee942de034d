// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import "context"

// Store is the document store contract.
type Store interface {
	// Add creates a document with a store-assigned id and returns the id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)

	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, fields Fields) error

	// Update merges fields into an existing document. It fails with
	// CodeNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Get returns one document, or CodeNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query runs a one-shot query.
	Query(ctx context.Context, query Query) ([]Document, error)

	// Watch subscribes to a query's result. onSnapshot receives the full
	// result each time it changes, starting with the current result.
	// onError receives at most one error, after which the subscription
	// is finished. Both callbacks run on the subscription's delivery
	// goroutine.
	Watch(query Query, onSnapshot func([]Document), onError func(error)) Subscription
}

// Subscription is a live query registration.
type Subscription interface {
	// Cancel detaches the subscription. Once Cancel returns no callback
	// starts, except one that had already passed its start check; Cancel
	// does not wait for it. Cancel is idempotent and safe to call from
	// inside a callback.
	Cancel()
}

// Backend is the storage layer under a DB. Backends store and return
// already-normalized documents; query evaluation, index policy, and
// change fan-out happen in the DB.
type Backend interface {
	// Insert stores a new document. It fails with CodeInvalidArgument if
	// the id is taken.
	Insert(ctx context.Context, collection string, document Document) error

	// Put creates or replaces a document.
	Put(ctx context.Context, collection string, document Document) error

	// Merge overwrites the named fields of an existing document, leaving
	// the rest untouched. It fails with CodeNotFound if the document
	// does not exist. The read and write are atomic with respect to
	// other writers of the same backend.
	Merge(ctx context.Context, collection, id string, fields Fields) error

	// Get loads one document or fails with CodeNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Load returns every document in a collection.
	Load(ctx context.Context, collection string) ([]Document, error)

	// Changes delivers the names of collections modified outside this
	// process. Backends that cannot be shared return nil.
	Changes() <-chan string

	// Close releases the backend's resources.
	Close() error
}

// SubscriptionFunc adapts a function to the Subscription interface.
type SubscriptionFunc func()

// Cancel calls f.
func (f SubscriptionFunc) Cancel() { f() }

// Inert is a Subscription that was never attached to anything.
var Inert Subscription = SubscriptionFunc(func() {})
