// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitebackend stores docstore documents in a SQLite file.
//
// Several processes may open the same file: the widget and the agent
// console each run their own DB over it. Every write bumps a
// per-collection version row. A poller holding its own connection
// checks PRAGMA data_version on each tick and, when another connection
// has committed, reports the collections whose versions moved, so
// watchers in this process see writes made elsewhere.
package sqlitebackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/lib/clock"
	"github.com/bureau-foundation/supportdesk/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body BLOB NOT NULL,
	PRIMARY KEY (collection, id)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS collection_versions (
	collection TEXT PRIMARY KEY,
	version INTEGER NOT NULL
) WITHOUT ROWID;
`

// DefaultPollInterval is how often the change poller runs when
// Config.PollInterval is zero.
const DefaultPollInterval = 250 * time.Millisecond

// Config configures a Backend.
type Config struct {
	// Path is the database file. Required.
	Path string

	// PollInterval is the cross-process change detection period.
	PollInterval time.Duration

	// Clock drives the poll ticker. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Backend is a docstore.Backend over a SQLite file.
type Backend struct {
	pool    *sqlitepool.Pool
	logger  *slog.Logger
	changes chan string

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ docstore.Backend = (*Backend)(nil)

// Open opens (creating if needed) the database file and starts the
// change poller.
func Open(ctx context.Context, config Config) (*Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlitebackend: Path is required")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Logger: config.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitebackend: %w", err)
	}

	pollConn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlitebackend: taking poll connection: %w", err)
	}

	backend := &Backend{
		pool:    pool,
		logger:  config.Logger,
		changes: make(chan string, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	poller, err := newPoller(pollConn)
	if err != nil {
		pool.Put(pollConn)
		pool.Close()
		return nil, fmt.Errorf("sqlitebackend: %w", err)
	}
	ticker := config.Clock.NewTicker(config.PollInterval)
	go func() {
		defer close(backend.done)
		defer pool.Put(pollConn)
		defer ticker.Stop()
		backend.poll(poller, ticker)
	}()

	return backend, nil
}

func (b *Backend) Changes() <-chan string { return b.changes }

// Close stops the poller and closes the pool.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.done
		err = b.pool.Close()
	})
	return err
}

func (b *Backend) Insert(ctx context.Context, collection string, document docstore.Document) error {
	return b.write(ctx, collection, func(conn *sqlite.Conn) error {
		_, found, err := loadDocument(conn, collection, document.ID)
		if err != nil {
			return err
		}
		if found {
			return docstore.Errorf(docstore.CodeInvalidArgument, "document %s/%s already exists", collection, document.ID)
		}
		return storeDocument(conn, collection, document.ID, document.Fields)
	})
}

func (b *Backend) Put(ctx context.Context, collection string, document docstore.Document) error {
	return b.write(ctx, collection, func(conn *sqlite.Conn) error {
		return storeDocument(conn, collection, document.ID, document.Fields)
	})
}

func (b *Backend) Merge(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return b.write(ctx, collection, func(conn *sqlite.Conn) error {
		existing, found, err := loadDocument(conn, collection, id)
		if err != nil {
			return err
		}
		if !found {
			return docstore.Errorf(docstore.CodeNotFound, "no document %s/%s", collection, id)
		}
		for name, value := range fields {
			existing[name] = value
		}
		return storeDocument(conn, collection, id, existing)
	})
}

func (b *Backend) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var document docstore.Document
	err := b.read(ctx, func(conn *sqlite.Conn) error {
		fields, found, err := loadDocument(conn, collection, id)
		if err != nil {
			return err
		}
		if !found {
			return docstore.Errorf(docstore.CodeNotFound, "no document %s/%s", collection, id)
		}
		document = docstore.Document{ID: id, Fields: fields}
		return nil
	})
	return document, err
}

func (b *Backend) Load(ctx context.Context, collection string) ([]docstore.Document, error) {
	var documents []docstore.Document
	err := b.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT id, body FROM documents WHERE collection = ?", &sqlitex.ExecOptions{
			Args: []any{collection},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id := stmt.ColumnText(0)
				body := make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, body)
				fields, err := decodeFields(body)
				if err != nil {
					return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
				}
				documents = append(documents, docstore.Document{ID: id, Fields: fields})
				return nil
			},
		})
	})
	return documents, err
}

// read runs fn on a pooled connection. Pool and SQL failures surface as
// CodeUnavailable; docstore errors from fn pass through.
func (b *Backend) read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	err := b.pool.WithConn(ctx, fn)
	return classify(err)
}

// write runs fn in an IMMEDIATE transaction and bumps the collection's
// version in the same transaction.
func (b *Backend) write(ctx context.Context, collection string, fn func(conn *sqlite.Conn) error) error {
	err := b.pool.WithConn(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer endTransaction(&err)

		if err := fn(conn); err != nil {
			return err
		}
		return sqlitex.Execute(conn, `
			INSERT INTO collection_versions (collection, version) VALUES (?, 1)
			ON CONFLICT (collection) DO UPDATE SET version = version + 1`,
			&sqlitex.ExecOptions{Args: []any{collection}})
	})
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var storeErr *docstore.Error
	if errors.As(err, &storeErr) {
		return err
	}
	return docstore.Unavailable("sqlite", err)
}

func loadDocument(conn *sqlite.Conn, collection, id string) (docstore.Fields, bool, error) {
	var (
		fields docstore.Fields
		found  bool
	)
	err := sqlitex.Execute(conn, "SELECT body FROM documents WHERE collection = ? AND id = ?", &sqlitex.ExecOptions{
		Args: []any{collection, id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			body := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, body)
			decoded, err := decodeFields(body)
			if err != nil {
				return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
			}
			fields, found = decoded, true
			return nil
		},
	})
	return fields, found, err
}

func storeDocument(conn *sqlite.Conn, collection, id string, fields docstore.Fields) error {
	body, err := encodeFields(fields)
	if err != nil {
		return docstore.Errorf(docstore.CodeInvalidArgument, "encoding %s/%s: %v", collection, id, err)
	}
	return sqlitex.Execute(conn, `
		INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		&sqlitex.ExecOptions{Args: []any{collection, id, body}})
}
