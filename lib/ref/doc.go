// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides typed, immutable identifiers for the support
// desk: participants (visitors and agents), conversations, and
// messages.
//
// Identifiers arrive as strings from the document store and from
// device-local state; they are parsed into these types at the boundary
// so the synchronization engine never confuses a conversation id with
// a message id. The zero value of every type is invalid; use IsZero.
//
// Two kinds of identifiers are minted locally rather than by the
// store:
//
//   - Participant ids: "<kind>_<unix millis>_<9 base36 chars>". The
//     legacy "user_" prefix is read as a visitor.
//   - Placeholder conversation ids: "temp_<unix millis>", issued when
//     the store cannot create a conversation. A placeholder must be
//     re-resolved before anything referencing it is written.
//
// All types implement encoding.TextMarshaler so they serialize as
// plain strings in JSON and CBOR.
package ref
