// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package docstoretest provides fault injection for code that consumes
// a docstore.Store.
package docstoretest

import (
	"context"
	"sync"
	"testing"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/clock"
)

// NewDB returns an in-memory DB closed at test cleanup.
func NewDB(t testing.TB, clk clock.Clock, indexes ...docstore.Index) *docstore.DB {
	t.Helper()
	db := docstore.NewMemory(docstore.Options{Clock: clk, Indexes: indexes})
	t.Cleanup(func() { db.Close() })
	return db
}

// ErrUnavailable is a convenience injected failure.
var ErrUnavailable = docstore.Unavailable("injected failure", nil)

// FaultStore wraps a Store and fails selected operations. Each hook
// returns the error to inject, or nil to let the call through. Hooks
// may be swapped while the store is in use.
type FaultStore struct {
	docstore.Store

	mu     sync.Mutex
	add    func(collection string, fields docstore.Fields) error
	set    func(collection, id string) error
	update func(collection, id string, fields docstore.Fields) error
	get    func(collection, id string) error
	query  func(query docstore.Query) error
	watch  func(query docstore.Query) error
	calls  map[string]int
}

// Wrap returns a FaultStore passing everything through to store.
func Wrap(store docstore.Store) *FaultStore {
	return &FaultStore{Store: store, calls: make(map[string]int)}
}

func (f *FaultStore) FailAdd(hook func(collection string, fields docstore.Fields) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.add = hook
}

func (f *FaultStore) FailSet(hook func(collection, id string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = hook
}

func (f *FaultStore) FailUpdate(hook func(collection, id string, fields docstore.Fields) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.update = hook
}

func (f *FaultStore) FailGet(hook func(collection, id string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get = hook
}

func (f *FaultStore) FailQuery(hook func(query docstore.Query) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = hook
}

func (f *FaultStore) FailWatch(hook func(query docstore.Query) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watch = hook
}

// Calls returns how many times an operation ("add", "set", "update",
// "get", "query", "watch") was invoked, including failed calls.
func (f *FaultStore) Calls(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

func (f *FaultStore) record(operation string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[operation]++
}

func (f *FaultStore) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	f.record("add")
	f.mu.Lock()
	hook := f.add
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, fields); err != nil {
			return "", err
		}
	}
	return f.Store.Add(ctx, collection, fields)
}

func (f *FaultStore) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	f.record("set")
	f.mu.Lock()
	hook := f.set
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, id); err != nil {
			return err
		}
	}
	return f.Store.Set(ctx, collection, id, fields)
}

func (f *FaultStore) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	f.record("update")
	f.mu.Lock()
	hook := f.update
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, id, fields); err != nil {
			return err
		}
	}
	return f.Store.Update(ctx, collection, id, fields)
}

func (f *FaultStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	f.record("get")
	f.mu.Lock()
	hook := f.get
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, id); err != nil {
			return docstore.Document{}, err
		}
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *FaultStore) Query(ctx context.Context, query docstore.Query) ([]docstore.Document, error) {
	f.record("query")
	f.mu.Lock()
	hook := f.query
	f.mu.Unlock()
	if hook != nil {
		if err := hook(query); err != nil {
			return nil, err
		}
	}
	return f.Store.Query(ctx, query)
}

// Watch fails the subscription asynchronously through onError when the
// watch hook returns an error, matching how a DB reports watch errors.
func (f *FaultStore) Watch(query docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Subscription {
	f.record("watch")
	f.mu.Lock()
	hook := f.watch
	f.mu.Unlock()
	if hook != nil {
		if err := hook(query); err != nil {
			failed := &failedSubscription{}
			go func() {
				if failed.begin() && onError != nil {
					onError(err)
				}
			}()
			return failed
		}
	}
	return f.Store.Watch(query, onSnapshot, onError)
}

type failedSubscription struct {
	mu        sync.Mutex
	cancelled bool
}

func (s *failedSubscription) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.cancelled
}

func (s *failedSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}
