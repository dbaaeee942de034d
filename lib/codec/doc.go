// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides supportdesk's standard CBOR configuration.
//
// CBOR is the on-disk format for documents in the SQLite document
// backend. JSON is used only at the edges (CLI --json output and the
// JSONC FAQ seed file). Keeping one encoder configuration here means
// every writer produces identical bytes for identical documents, which
// lets the backend skip rewrites when a document did not change.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// time.Time values are written as tagged RFC 3339 strings with
// nanosecond precision so they round-trip without loss.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec
