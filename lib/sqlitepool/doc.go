// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// durable document backend.
//
// It wraps zombiezen.com/go/sqlite with the defaults supportdesk
// needs when a widget process and a console process share one store
// file:
//
//   - journal_mode=WAL: the console keeps reading while the widget
//     writes.
//   - synchronous=NORMAL: committed messages survive a process crash.
//   - busy_timeout=5000: two writers wait for each other instead of
//     failing with SQLITE_BUSY.
//   - temp_store=MEMORY and a modest page cache; documents are small.
//
// Callers either Take/Put connections directly or use WithConn, which
// returns the connection on every path:
//
//	err := pool.WithConn(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "SELECT 1", nil)
//	})
//
// The package applies pragmas and nothing else. Schema creation belongs
// to the OnConnect hook of the owning backend.
package sqlitepool
