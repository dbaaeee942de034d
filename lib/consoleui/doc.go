// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package consoleui is the terminal front end of the agent console: a
// conversation list with unread badges and a fuzzy filter on the left,
// the open conversation with a reply input on the right.
//
// The model renders whatever chatsync.Console reports and forwards
// selections and replies to it. It holds no conversation state of its
// own beyond what is on screen, so a snapshot that the console drops
// can never reach the view.
package consoleui
