// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package docstore is the document store the support desk runs on:
// named collections of schemaless documents, equality queries with
// ordering and limits, field-level updates, and live subscriptions
// that re-deliver a query's full result whenever it changes.
//
// [Store] is the contract the synchronization engine consumes. [DB]
// implements it over a pluggable [Backend]: [NewMemoryBackend] for
// tests and single-process use, and docstore/sqlitebackend for a
// durable file shared by a widget process and a console process.
//
// # Query model
//
// Queries combine equality filters, orderings, and a limit. Like the
// hosted stores this package stands in for, equality filters alone are
// always served, but an ordered query needs a declared composite
// [Index] when it has more than one ordering or filters on any field
// other than the ordered one. A query without its index fails with an
// [*Error] whose Code is [CodeFailedPrecondition]. Callers are expected to
// degrade (drop the ordering, sort client side) rather than surface
// these errors.
//
// Documents that lack a field named in an ordering are excluded from
// ordered results.
//
// # Live subscriptions
//
// [Store.Watch] returns a [Subscription]. Each subscription owns one
// delivery goroutine fed by a coalescing notification, so callbacks for
// one subscription never overlap, and a burst of writes produces at
// least one snapshot reflecting the last of them. Snapshots identical
// to the previous delivery are suppressed. A watch error (missing
// index, unreachable backend) is delivered once through onError and
// ends the subscription.
//
// Cancel detaches synchronously: once it returns, no callback for that
// subscription starts. A callback that was already running finishes.
//
// # Values
//
// Field values are string, bool, int64, float64, time.Time, []string,
// or nil. Other integer types are widened to int64 on write.
// [ServerTimestamp] is replaced with the store clock's current time
// when a write is applied.
package docstore
