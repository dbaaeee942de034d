// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/lib/clock"
	"github.com/bureau-foundation/supportdesk/lib/ref"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

// Console is the part of chatsync.Console the view drives.
type Console interface {
	State() chatsync.ConsoleState
	Updates() <-chan struct{}
	Select(id ref.ConversationID)
	Clear()
	Reply(ctx context.Context, text string) (ref.MessageID, error)
	CloseSelected(ctx context.Context) error
	MarkConversationRead(ctx context.Context, id ref.ConversationID) (int, error)
}

// Options configures a Model.
type Options struct {
	Console Console
	Theme   tui.Theme

	// OnThemeChange is called after the agent toggles the theme, to
	// persist the choice. Optional.
	OnThemeChange func(tui.Theme)

	// AgentName labels the agent's own replies. Default: Agent
	AgentName string

	// Clock drives relative update times. Default: clock.Real()
	Clock clock.Clock

	// Timeout bounds each reply and close. Default: 10s
	Timeout time.Duration
}

type focusRegion int

const (
	focusList focusRegion = iota
	focusFilter
	focusInput
)

// relativeTimeRefresh is how often "5 minutes ago" labels are redrawn.
const relativeTimeRefresh = 30 * time.Second

// stateMsg reports that the console state changed.
type stateMsg struct{}

type refreshMsg struct{}

type actionResultMsg struct {
	action string
	err    error
}

// ThemeMsg switches the theme without calling OnThemeChange. Send it
// when another process changes the stored preference.
type ThemeMsg struct {
	Theme tui.Theme
}

// row is one visible conversation list entry.
type row struct {
	conversation chatsync.Conversation
	unread       int
	positions    []int
}

// Model is the bubbletea model of the agent console.
type Model struct {
	console       Console
	keys          KeyMap
	theme         tui.Theme
	onThemeChange func(tui.Theme)
	agentName     string
	clock         clock.Clock
	timeout       time.Duration

	state  chatsync.ConsoleState
	rows   []row
	cursor int
	offset int

	filter string
	slab   *util.Slab

	focus    focusRegion
	input    textinput.Model
	viewport viewport.Model
	notice   string

	width, height int
	ready         bool
}

// NewModel returns a model showing the console's current state.
func NewModel(options Options) Model {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Timeout <= 0 {
		options.Timeout = 10 * time.Second
	}
	if options.AgentName == "" {
		options.AgentName = "Agent"
	}
	if options.Theme.Name == "" {
		options.Theme = tui.DarkTheme
	}

	input := textinput.New()
	input.Placeholder = "Type a reply…"
	input.Prompt = "› "
	input.CharLimit = 2000

	model := Model{
		console:       options.Console,
		keys:          DefaultKeyMap,
		theme:         options.Theme,
		onThemeChange: options.OnThemeChange,
		agentName:     options.AgentName,
		clock:         options.Clock,
		timeout:       options.Timeout,
		slab:          tui.NewSlab(),
		input:         input,
		viewport:      viewport.New(0, 0),
	}
	model.refresh()
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(model.console.Updates()), scheduleRefresh())
}

func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stateMsg{}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(relativeTimeRefresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()
		model.renderConversation(true)

	case stateMsg:
		model.refresh()
		return model, waitForUpdate(model.console.Updates())

	case refreshMsg:
		return model, scheduleRefresh()

	case ThemeMsg:
		model.theme = message.Theme
		model.renderConversation(false)

	case actionResultMsg:
		if message.err != nil {
			model.notice = fmt.Sprintf("%s failed: %v", message.action, message.err)
		} else {
			model.notice = ""
		}

	case tea.KeyMsg:
		switch model.focus {
		case focusFilter:
			return model.handleFilterKeys(message)
		case focusInput:
			return model.handleInputKeys(message)
		default:
			return model.handleListKeys(message)
		}
	}
	return model, nil
}

func (model Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)

	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)

	case key.Matches(message, model.keys.Open):
		if model.cursor < len(model.rows) {
			model.console.Select(model.rows[model.cursor].conversation.ID)
			model.notice = ""
			model.refresh()
			model.renderConversation(true)
		}

	case key.Matches(message, model.keys.Reply):
		if !model.state.Selected.IsZero() {
			model.focus = focusInput
			return model, model.input.Focus()
		}

	case key.Matches(message, model.keys.Filter):
		model.focus = focusFilter

	case key.Matches(message, model.keys.Close):
		if !model.state.Selected.IsZero() {
			return model, model.run("close", func(ctx context.Context) error {
				return model.console.CloseSelected(ctx)
			})
		}

	case key.Matches(message, model.keys.MarkRead):
		if model.cursor < len(model.rows) {
			id := model.rows[model.cursor].conversation.ID
			return model, model.run("mark read", func(ctx context.Context) error {
				_, err := model.console.MarkConversationRead(ctx, id)
				return err
			})
		}

	case key.Matches(message, model.keys.Deselect):
		model.console.Clear()
		model.refresh()

	case key.Matches(message, model.keys.Theme):
		model.theme = model.theme.Toggle()
		if model.onThemeChange != nil {
			model.onThemeChange(model.theme)
		}
		model.renderConversation(false)

	case key.Matches(message, model.keys.PageUp):
		model.viewport.SetYOffset(model.viewport.YOffset - model.viewport.Height/2)

	case key.Matches(message, model.keys.PageDown):
		model.viewport.SetYOffset(model.viewport.YOffset + model.viewport.Height/2)
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyCtrlC:
		return model, tea.Quit
	case tea.KeyEsc:
		if model.filter != "" {
			model.filter = ""
			model.applyFilter()
		} else {
			model.focus = focusList
		}
	case tea.KeyEnter:
		model.focus = focusList
	case tea.KeyBackspace:
		if runes := []rune(model.filter); len(runes) > 0 {
			model.filter = string(runes[:len(runes)-1])
			model.applyFilter()
		}
	case tea.KeyRunes, tea.KeySpace:
		model.filter += string(message.Runes)
		if message.Type == tea.KeySpace && len(message.Runes) == 0 {
			model.filter += " "
		}
		model.applyFilter()
	}
	return model, nil
}

func (model Model) handleInputKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyCtrlC:
		return model, tea.Quit
	case tea.KeyEsc:
		model.input.Blur()
		model.focus = focusList
		return model, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(model.input.Value())
		if text == "" {
			return model, nil
		}
		model.input.Reset()
		return model, model.run("reply", func(ctx context.Context) error {
			_, err := model.console.Reply(ctx, text)
			return err
		})
	}
	var cmd tea.Cmd
	model.input, cmd = model.input.Update(message)
	return model, cmd
}

// run performs a console write off the update loop.
func (model Model) run(action string, operation func(ctx context.Context) error) tea.Cmd {
	timeout := model.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return actionResultMsg{action: action, err: operation(ctx)}
	}
}

func (model *Model) moveCursor(delta int) {
	if len(model.rows) == 0 {
		model.cursor = 0
		return
	}
	model.cursor = max(0, min(len(model.rows)-1, model.cursor+delta))
	model.scrollList()
}

// refresh pulls the console state and rebuilds the list, keeping the
// cursor on the same conversation when it is still listed.
func (model *Model) refresh() {
	previous := model.state.Selected
	model.state = model.console.State()
	model.applyFilter()
	model.renderConversation(previous != model.state.Selected)
}

// applyFilter rebuilds rows from the state and the filter text.
func (model *Model) applyFilter() {
	var current ref.ConversationID
	if model.cursor < len(model.rows) {
		current = model.rows[model.cursor].conversation.ID
	}

	rows := make([]row, 0, len(model.state.Conversations))
	pattern := []rune(strings.TrimSpace(model.filter))
	type scoredRow struct {
		row
		score int
	}
	var scored []scoredRow
	for _, conversation := range model.state.Conversations {
		entry := row{conversation: conversation, unread: model.state.Unread.Get(conversation.ID)}
		if len(pattern) == 0 {
			rows = append(rows, entry)
			continue
		}
		match := tui.FuzzyMatch(conversationLabel(conversation), pattern, model.slab)
		if match.Score > 0 {
			entry.positions = match.Positions
			scored = append(scored, scoredRow{row: entry, score: match.Score})
		}
	}
	if len(pattern) > 0 {
		slices.SortStableFunc(scored, func(a, b scoredRow) int { return cmp.Compare(b.score, a.score) })
		for _, entry := range scored {
			rows = append(rows, entry.row)
		}
	}
	model.rows = rows

	model.cursor = 0
	for i, entry := range model.rows {
		if entry.conversation.ID == current {
			model.cursor = i
			break
		}
	}
	model.scrollList()
}

// conversationLabel is the text shown for a conversation and matched
// by the filter.
func conversationLabel(conversation chatsync.Conversation) string {
	label := conversation.ParticipantID.String()
	if label == "" {
		label = conversation.ID.String()
	}
	if conversation.AssignedAgentName != "" {
		label += " · " + conversation.AssignedAgentName
	}
	return label
}

func (model *Model) listHeight() int {
	return max(1, model.height-2)
}

func (model *Model) scrollList() {
	height := model.listHeight()
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+height {
		model.offset = model.cursor - height + 1
	}
	model.offset = max(0, min(model.offset, len(model.rows)-height))
}
