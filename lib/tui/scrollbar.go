// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar draws a one-column scrollbar for a pane showing
// visible of total lines starting at offset. When everything fits the
// thumb fills the column.
func RenderScrollbar(theme Theme, height, total, visible, offset int, focused bool) string {
	if height <= 0 {
		return ""
	}
	thumbColor := theme.BorderColor
	if focused {
		thumbColor = theme.FocusAccent
	}
	thumb := lipgloss.NewStyle().Foreground(thumbColor).Render("┃")
	track := lipgloss.NewStyle().Foreground(theme.BorderColor).Render("│")

	start, end := thumbBounds(height, total, visible, offset)
	lines := make([]string, height)
	for row := range lines {
		if row >= start && row < end {
			lines[row] = thumb
		} else {
			lines[row] = track
		}
	}
	return strings.Join(lines, "\n")
}

// thumbBounds returns the rows [start, end) the thumb occupies.
func thumbBounds(height, total, visible, offset int) (int, int) {
	if total <= visible || total <= 0 {
		return 0, height
	}
	size := max(1, height*visible/total)
	travel := height - size
	start := 0
	if scrollable := total - visible; travel > 0 {
		start = min(travel, max(0, offset)*travel/scrollable)
	}
	return start, start + size
}
