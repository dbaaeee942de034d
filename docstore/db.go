// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/supportdesk/lib/clock"
)

// Options configures a DB.
type Options struct {
	// Backend stores the documents. Required.
	Backend Backend

	// Indexes are the declared composite indexes.
	Indexes []Index

	// Clock resolves ServerTimestamp. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives debug output about watch delivery. Nil discards.
	Logger *slog.Logger

	// NewID generates document ids for Add. Defaults to NewDocumentID.
	NewID func() string
}

// DB implements Store over a Backend.
type DB struct {
	backend Backend
	indexes []Index
	clock   clock.Clock
	logger  *slog.Logger
	newID   func() string

	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
	closed   bool

	stop chan struct{}
	done chan struct{}
}

var _ Store = (*DB)(nil)

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("docstore: database is closed")

// NewDocumentID returns a 20-character random document id.
func NewDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// Open creates a DB over a backend and starts relaying the backend's
// external change notifications to watchers.
func Open(options Options) (*DB, error) {
	if options.Backend == nil {
		return nil, fmt.Errorf("docstore: Options.Backend is required")
	}
	return newDB(options), nil
}

func newDB(options Options) *DB {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.NewID == nil {
		options.NewID = NewDocumentID
	}
	db := &DB{
		backend:  options.Backend,
		indexes:  append([]Index(nil), options.Indexes...),
		clock:    options.Clock,
		logger:   options.Logger,
		newID:    options.NewID,
		watchers: make(map[string]map[*watcher]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go db.relayChanges()
	return db
}

func (db *DB) relayChanges() {
	defer close(db.done)
	changes := db.backend.Changes()
	if changes == nil {
		return
	}
	for {
		select {
		case <-db.stop:
			return
		case collection, ok := <-changes:
			if !ok {
				return
			}
			db.notify(collection)
		}
	}
}

// Close cancels every watcher and closes the backend.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	var all []*watcher
	for _, set := range db.watchers {
		for w := range set {
			all = append(all, w)
		}
	}
	db.watchers = nil
	db.mu.Unlock()

	for _, w := range all {
		w.Cancel()
	}
	close(db.stop)
	<-db.done
	return db.backend.Close()
}

func (db *DB) isClosed() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.closed
}

// Add creates a document with a fresh id.
func (db *DB) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if db.isClosed() {
		return "", ErrClosed
	}
	if collection == "" {
		return "", Errorf(CodeInvalidArgument, "empty collection name")
	}
	normalized, err := normalizeFields(fields, db.clock.Now())
	if err != nil {
		return "", err
	}
	id := db.newID()
	if err := db.backend.Insert(ctx, collection, Document{ID: id, Fields: normalized}); err != nil {
		return "", err
	}
	db.notify(collection)
	return id, nil
}

// Set creates or replaces a document.
func (db *DB) Set(ctx context.Context, collection, id string, fields Fields) error {
	if db.isClosed() {
		return ErrClosed
	}
	if err := checkAddress(collection, id); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields, db.clock.Now())
	if err != nil {
		return err
	}
	if err := db.backend.Put(ctx, collection, Document{ID: id, Fields: normalized}); err != nil {
		return err
	}
	db.notify(collection)
	return nil
}

// Update merges fields into an existing document.
func (db *DB) Update(ctx context.Context, collection, id string, fields Fields) error {
	if db.isClosed() {
		return ErrClosed
	}
	if err := checkAddress(collection, id); err != nil {
		return err
	}
	normalized, err := normalizeFields(fields, db.clock.Now())
	if err != nil {
		return err
	}
	if err := db.backend.Merge(ctx, collection, id, normalized); err != nil {
		return err
	}
	db.notify(collection)
	return nil
}

// Get returns one document.
func (db *DB) Get(ctx context.Context, collection, id string) (Document, error) {
	if db.isClosed() {
		return Document{}, ErrClosed
	}
	if err := checkAddress(collection, id); err != nil {
		return Document{}, err
	}
	return db.backend.Get(ctx, collection, id)
}

// Query runs a one-shot query.
func (db *DB) Query(ctx context.Context, query Query) ([]Document, error) {
	if db.isClosed() {
		return nil, ErrClosed
	}
	if err := db.checkQuery(query); err != nil {
		return nil, err
	}
	return db.run(ctx, query)
}

func (db *DB) run(ctx context.Context, query Query) ([]Document, error) {
	documents, err := db.backend.Load(ctx, query.Collection)
	if err != nil {
		return nil, err
	}
	return query.Apply(documents), nil
}

// checkQuery validates a query and enforces the index policy.
func (db *DB) checkQuery(query Query) error {
	if err := query.validate(); err != nil {
		return err
	}
	if !needsIndex(query) {
		return nil
	}
	for _, index := range db.indexes {
		if index.serves(query) {
			return nil
		}
	}
	return Errorf(CodeFailedPrecondition, "the query requires an index: %s", query)
}

func checkAddress(collection, id string) error {
	if collection == "" {
		return Errorf(CodeInvalidArgument, "empty collection name")
	}
	if id == "" || strings.Contains(id, "/") {
		return Errorf(CodeInvalidArgument, "invalid document id %q", id)
	}
	return nil
}

// notify wakes every watcher of a collection.
func (db *DB) notify(collection string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for w := range db.watchers[collection] {
		w.wake()
	}
}

func (db *DB) register(w *watcher) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false
	}
	set := db.watchers[w.query.Collection]
	if set == nil {
		set = make(map[*watcher]struct{})
		db.watchers[w.query.Collection] = set
	}
	set[w] = struct{}{}
	return true
}

func (db *DB) unregister(w *watcher) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if set := db.watchers[w.query.Collection]; set != nil {
		delete(set, w)
		if len(set) == 0 {
			delete(db.watchers, w.query.Collection)
		}
	}
}
