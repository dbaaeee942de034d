// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger for CLI commands. When
// stderr is a terminal it writes slog text; when piped it writes JSON
// lines.
func NewCommandLogger() *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), slog.LevelInfo)
}

// NewFileLogger writes JSON log lines to w at debug level. Full-screen
// commands log here instead of over the terminal they draw on.
func NewFileLogger(w io.Writer) *slog.Logger {
	return newLogger(w, false, slog.LevelDebug)
}

func newLogger(w io.Writer, text bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
