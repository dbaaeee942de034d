// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/bureau-foundation/supportdesk/lib/codec"
)

type watcher struct {
	db         *DB
	query      Query
	onSnapshot func([]Document)
	onError    func(error)

	// pending holds at most one wake token. Writes that arrive while a
	// snapshot is being computed collapse into one follow-up pass.
	pending chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	cancelled bool
}

// Watch subscribes to a query. The first snapshot, or the index error,
// is delivered asynchronously.
func (db *DB) Watch(query Query, onSnapshot func([]Document), onError func(error)) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		db:         db,
		query:      query,
		onSnapshot: onSnapshot,
		onError:    onError,
		pending:    make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	if err := db.checkQuery(query); err != nil {
		go w.fail(err)
		return w
	}
	if !db.register(w) {
		go w.fail(ErrClosed)
		return w
	}
	w.wake()
	go w.run()
	return w
}

func (w *watcher) wake() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// Cancel detaches the watcher. Safe to call more than once and from
// inside a callback.
func (w *watcher) Cancel() {
	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		return
	}
	w.cancelled = true
	w.mu.Unlock()
	w.cancel()
	w.db.unregister(w)
}

// begin reports whether a callback may start. It is checked under the
// lock Cancel takes; a callback that passed begin before Cancel still
// runs.
func (w *watcher) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.cancelled
}

func (w *watcher) fail(err error) {
	if !w.begin() {
		return
	}
	w.db.unregister(w)
	w.db.logger.Debug("watch failed",
		"query", w.query.String(),
		"error", err,
	)
	if w.onError != nil {
		w.onError(err)
	}
}

func (w *watcher) run() {
	var previous []byte
	delivered := false
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.pending:
		}

		documents, err := w.db.run(w.ctx, w.query)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.fail(err)
			return
		}

		fingerprint, err := codec.Marshal(documents)
		if err == nil && delivered && bytes.Equal(fingerprint, previous) {
			continue
		}
		previous = fingerprint

		if !w.begin() {
			return
		}
		delivered = true
		if w.onSnapshot != nil {
			w.onSnapshot(cloneDocuments(documents))
		}
	}
}
