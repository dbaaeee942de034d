// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/lib/clock"
	"github.com/bureau-foundation/supportdesk/lib/ref"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

var (
	epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	alice = ref.MustParseConversationID("conv-alice")
	bob   = ref.MustParseConversationID("conv-bob")
)

type fakeConsole struct {
	state    chatsync.ConsoleState
	messages map[ref.ConversationID][]chatsync.Message
	updates  chan struct{}

	selected []ref.ConversationID
	replies  []string
	closed   int
	replyErr error
	markRead []ref.ConversationID
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{
		state: chatsync.ConsoleState{
			Conversations: []chatsync.Conversation{
				{
					ID:            alice,
					ParticipantID: ref.MustParseParticipantID("visitor_alice"),
					Status:        chatsync.StatusActive,
					UpdatedAt:     epoch,
				},
				{
					ID:            bob,
					ParticipantID: ref.MustParseParticipantID("visitor_bob"),
					Status:        chatsync.StatusActive,
					UpdatedAt:     epoch.Add(-time.Hour),
				},
			},
			Unread: chatsync.NewUnreadCounts(map[ref.ConversationID]int{alice: 2, bob: 1}),
		},
		messages: map[ref.ConversationID][]chatsync.Message{
			bob: {{
				Text:           "my card was declined",
				Sender:         chatsync.SenderVisitor,
				ConversationID: bob,
				Timestamp:      epoch.Add(-time.Hour),
			}},
		},
		updates: make(chan struct{}, 1),
	}
}

func (f *fakeConsole) State() chatsync.ConsoleState { return f.state }
func (f *fakeConsole) Updates() <-chan struct{}     { return f.updates }

func (f *fakeConsole) Select(id ref.ConversationID) {
	f.selected = append(f.selected, id)
	f.state.Selected = id
	f.state.Messages = f.messages[id]
	f.state.Unread = chatsync.NewUnreadCounts(map[ref.ConversationID]int{alice: f.state.Unread.Get(alice)})
}

func (f *fakeConsole) Clear() {
	f.state.Selected = ref.ConversationID{}
	f.state.Messages = nil
}

func (f *fakeConsole) Reply(_ context.Context, text string) (ref.MessageID, error) {
	if f.replyErr != nil {
		return ref.MessageID{}, f.replyErr
	}
	f.replies = append(f.replies, text)
	return ref.MustParseMessageID("m1"), nil
}

func (f *fakeConsole) CloseSelected(context.Context) error {
	f.closed++
	return nil
}

func (f *fakeConsole) MarkConversationRead(_ context.Context, id ref.ConversationID) (int, error) {
	f.markRead = append(f.markRead, id)
	return f.state.Unread.Get(id), nil
}

func newTestModel(t *testing.T, console *fakeConsole, options Options) Model {
	t.Helper()
	options.Console = console
	options.Clock = clock.Fake(epoch.Add(time.Hour))
	model := NewModel(options)
	return update(t, model, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func update(t *testing.T, model Model, message tea.Msg) Model {
	t.Helper()
	next, _ := model.Update(message)
	return next.(Model)
}

func updateCmd(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := model.Update(message)
	return next.(Model), cmd
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func plainView(model Model) string {
	return ansi.Strip(model.View())
}

func TestViewListsConversations(t *testing.T) {
	model := newTestModel(t, newFakeConsole(), Options{})
	view := plainView(model)

	for _, want := range []string{
		"2 conversations · 3 unread",
		"visitor_alice",
		"visitor_bob",
		" 2 ",
		"1 hour ago",
		"Select a conversation",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "visitor_alice") > strings.Index(view, "visitor_bob") {
		t.Error("conversations not in console order")
	}
}

func TestViewBeforeWindowSize(t *testing.T) {
	model := NewModel(Options{Console: newFakeConsole()})
	if view := model.View(); !strings.Contains(view, "Loading") {
		t.Errorf("view before sizing = %q", view)
	}
}

func TestOpenSelectsCursor(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	model = update(t, model, runes("j"))
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	if len(console.selected) != 1 || console.selected[0] != bob {
		t.Fatalf("selected = %v, want [%v]", console.selected, bob)
	}
	view := plainView(model)
	if !strings.Contains(view, "my card was declined") {
		t.Errorf("selected conversation not shown:\n%s", view)
	}
	if !strings.Contains(view, "2 unread") {
		t.Errorf("header unread total not refreshed:\n%s", view)
	}
	if model.cursor != 1 {
		t.Errorf("cursor = %d after refresh, want 1", model.cursor)
	}
}

func TestFilter(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	model = update(t, model, runes("/"))
	if model.focus != focusFilter {
		t.Fatalf("focus = %v, want filter", model.focus)
	}
	for _, character := range "bob" {
		model = update(t, model, runes(string(character)))
	}
	if len(model.rows) != 1 || model.rows[0].conversation.ID != bob {
		t.Fatalf("filtered rows = %v", model.rows)
	}
	view := plainView(model)
	if strings.Contains(view, "visitor_alice") {
		t.Errorf("filtered view still lists alice:\n%s", view)
	}
	if !strings.Contains(view, "filter: bob") {
		t.Errorf("filter bar missing:\n%s", view)
	}

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if len(console.selected) != 1 || console.selected[0] != bob {
		t.Errorf("selected = %v, want [%v]", console.selected, bob)
	}

	model = update(t, model, runes("/"))
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	if model.filter != "" || len(model.rows) != 2 {
		t.Errorf("esc did not clear the filter: %q, %d rows", model.filter, len(model.rows))
	}
}

func TestReply(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	// Reply needs a selection.
	model = update(t, model, runes("r"))
	if model.focus != focusList {
		t.Fatal("reply focused the input without a selection")
	}

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = update(t, model, runes("r"))
	if model.focus != focusInput {
		t.Fatalf("focus = %v, want input", model.focus)
	}
	model = update(t, model, runes("  on it  "))
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	result := cmd()
	if len(console.replies) != 1 || console.replies[0] != "on it" {
		t.Errorf("replies = %q, want [on it]", console.replies)
	}
	if model.input.Value() != "" {
		t.Errorf("input not reset: %q", model.input.Value())
	}
	model = update(t, model, result)
	if model.notice != "" {
		t.Errorf("notice after success = %q", model.notice)
	}

	// Blank input sends nothing.
	if _, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("blank reply produced a command")
	}
}

func TestReplyFailureShowsNotice(t *testing.T) {
	console := newFakeConsole()
	console.replyErr = errors.New("store offline")
	model := newTestModel(t, console, Options{})

	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = update(t, model, runes("r"))
	model = update(t, model, runes("hello"))
	model, cmd := updateCmd(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model = update(t, model, cmd())

	if !strings.Contains(plainView(model), "reply failed: store offline") {
		t.Errorf("failure notice missing:\n%s", plainView(model))
	}
}

func TestCloseAndDeselect(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	if _, cmd := updateCmd(t, model, runes("x")); cmd != nil {
		t.Error("close without a selection produced a command")
	}
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	model, cmd := updateCmd(t, model, runes("x"))
	if cmd == nil {
		t.Fatal("close produced no command")
	}
	cmd()
	if console.closed != 1 {
		t.Errorf("closed = %d, want 1", console.closed)
	}

	model = update(t, model, runes("d"))
	if !model.state.Selected.IsZero() {
		t.Errorf("selection after deselect = %v", model.state.Selected)
	}
}

func TestMarkReadUnderCursor(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	model = update(t, model, runes("j"))
	model, cmd := updateCmd(t, model, runes("m"))
	if cmd == nil {
		t.Fatal("mark read produced no command")
	}
	result := cmd()
	model = update(t, model, result)

	if len(console.markRead) != 1 || console.markRead[0] != bob {
		t.Errorf("marked %v, want [%s]", console.markRead, bob)
	}
	if len(console.selected) != 0 {
		t.Errorf("mark read opened a conversation: %v", console.selected)
	}
	if model.notice != "" {
		t.Errorf("notice = %q, want none", model.notice)
	}
}

func TestThemeToggle(t *testing.T) {
	var changes []tui.Theme
	model := newTestModel(t, newFakeConsole(), Options{
		OnThemeChange: func(theme tui.Theme) { changes = append(changes, theme) },
	})

	model = update(t, model, runes("t"))
	if len(changes) != 1 || changes[0].Name != tui.LightTheme.Name {
		t.Fatalf("theme changes = %v, want one light", changes)
	}
	if model.theme.Name != tui.LightTheme.Name {
		t.Errorf("model theme = %q", model.theme.Name)
	}

	model = update(t, model, ThemeMsg{Theme: tui.DarkTheme})
	if model.theme.Name != tui.DarkTheme.Name {
		t.Errorf("ThemeMsg not applied: %q", model.theme.Name)
	}
	if len(changes) != 1 {
		t.Errorf("ThemeMsg called OnThemeChange: %d changes", len(changes))
	}
}

func TestStateUpdateRefreshesList(t *testing.T) {
	console := newFakeConsole()
	model := newTestModel(t, console, Options{})

	carol := ref.MustParseConversationID("conv-carol")
	console.state.Conversations = append([]chatsync.Conversation{{
		ID:            carol,
		ParticipantID: ref.MustParseParticipantID("visitor_carol"),
		Status:        chatsync.StatusActive,
		UpdatedAt:     epoch.Add(time.Hour),
	}}, console.state.Conversations...)

	model, cmd := updateCmd(t, model, stateMsg{})
	if cmd == nil {
		t.Error("state update did not wait for the next one")
	}
	if len(model.rows) != 3 || model.rows[0].conversation.ID != carol {
		t.Fatalf("rows after update = %v", model.rows)
	}
	// The cursor follows the conversation it was on.
	if model.rows[model.cursor].conversation.ID != alice {
		t.Errorf("cursor moved to %v", model.rows[model.cursor].conversation.ID)
	}
}
