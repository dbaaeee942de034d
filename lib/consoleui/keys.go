// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the console key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Reply    key.Binding // Focus the reply input.
	Back     key.Binding // Leave the input or filter.
	Filter   key.Binding
	Close    key.Binding // Close the open conversation.
	MarkRead key.Binding // Mark the conversation under the cursor read.
	Deselect key.Binding
	Theme    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

// DefaultKeyMap pairs vim-style movement with the arrow keys.
var DefaultKeyMap = KeyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Reply:    key.NewBinding(key.WithKeys("tab", "r"), key.WithHelp("r", "reply")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Close:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close chat")),
	MarkRead: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark read")),
	Deselect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deselect")),
	Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	PageUp:   key.NewBinding(key.WithKeys("ctrl+u", "pgup"), key.WithHelp("C-u", "page up")),
	PageDown: key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("C-d", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Reply, k.Filter, k.MarkRead, k.Close, k.Theme, k.Quit}
}
