// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitebackend

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/supportdesk/lib/clock"
)

// poller owns one connection. PRAGMA data_version on a connection
// changes only when some other connection commits, which makes it a
// cheap "anything new?" probe before reading the version table.
type poller struct {
	conn        *sqlite.Conn
	dataVersion int64
	versions    map[string]int64
}

func newPoller(conn *sqlite.Conn) (*poller, error) {
	p := &poller{conn: conn}
	version, err := p.readDataVersion()
	if err != nil {
		return nil, err
	}
	p.dataVersion = version
	p.versions, err = p.readVersions()
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *poller) readDataVersion() (int64, error) {
	var version int64
	err := sqlitex.ExecuteTransient(p.conn, "PRAGMA data_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("reading data_version: %w", err)
	}
	return version, nil
}

func (p *poller) readVersions() (map[string]int64, error) {
	versions := make(map[string]int64)
	err := sqlitex.Execute(p.conn, "SELECT collection, version FROM collection_versions", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			versions[stmt.ColumnText(0)] = stmt.ColumnInt64(1)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading collection versions: %w", err)
	}
	return versions, nil
}

// check returns the collections changed since the previous check.
func (p *poller) check() ([]string, error) {
	version, err := p.readDataVersion()
	if err != nil {
		return nil, err
	}
	if version == p.dataVersion {
		return nil, nil
	}
	p.dataVersion = version

	versions, err := p.readVersions()
	if err != nil {
		return nil, err
	}
	var changed []string
	for collection, current := range versions {
		if p.versions[collection] != current {
			changed = append(changed, collection)
		}
	}
	p.versions = versions
	return changed, nil
}

func (b *Backend) poll(p *poller, ticker *clock.Ticker) {
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
		}

		changed, err := p.check()
		if err != nil {
			b.logger.Warn("change poll failed", "error", err)
			continue
		}
		for _, collection := range changed {
			select {
			case b.changes <- collection:
			case <-b.stop:
				return
			}
		}
	}
}
