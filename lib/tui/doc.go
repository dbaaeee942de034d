// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the terminal presentation pieces shared by the
// supportdesk widget and agent console: color themes, a markdown
// renderer for FAQ answers, fuzzy matching for list filters, and a
// scrollbar for scrolling panes.
//
// Nothing here knows about the document store. Callers pass plain
// strings in and get styled strings out.
package tui
