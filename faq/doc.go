// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package faq serves the frequently asked questions a visitor sees
// before starting a chat.
//
// Entries live in the "faqs" collection of the document store, one
// document per entry keyed by a stable slug. [Catalog] lists and
// searches them; [Seed] loads them from a JSON-with-comments file so
// operators can keep the catalog in version control with annotations.
package faq
