// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

const (
	minListWidth = 28
	// chromeRows are the header and help lines around the panes.
	chromeRows = 2
	// detailChromeRows are the conversation header and reply input.
	detailChromeRows = 2
)

func (model *Model) listWidth() int {
	return min(max(minListWidth, model.width/3), max(0, model.width-minListWidth))
}

func (model *Model) detailWidth() int {
	return max(0, model.width-model.listWidth()-1)
}

// layout sizes the viewport and input for the window.
func (model *Model) layout() {
	bodyHeight := max(1, model.height-chromeRows)
	model.viewport.Width = max(1, model.detailWidth()-1)
	model.viewport.Height = max(1, bodyHeight-detailChromeRows)
	model.input.Width = max(1, model.detailWidth()-ansi.StringWidth(model.input.Prompt)-1)
	model.scrollList()
}

// renderConversation redraws the message pane. toBottom scrolls to the
// newest message; otherwise the pane stays put unless it was already
// at the bottom.
func (model *Model) renderConversation(toBottom bool) {
	follow := toBottom || model.viewport.AtBottom()
	model.viewport.SetContent(model.renderMessages(max(1, model.viewport.Width)))
	if follow {
		model.viewport.GotoBottom()
	}
}

func (model *Model) renderMessages(width int) string {
	if len(model.state.Messages) == 0 {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("No messages yet.")
	}
	var blocks []string
	for _, message := range model.state.Messages {
		blocks = append(blocks, model.renderMessage(message, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (model *Model) renderMessage(message chatsync.Message, width int) string {
	author := "Visitor"
	switch message.Sender {
	case chatsync.SenderAgent:
		author = message.AgentName
		if author == "" {
			author = model.agentName
		}
	case chatsync.SenderSystem:
		author = "System"
	}
	header := lipgloss.NewStyle().Foreground(model.theme.SenderColor(string(message.Sender))).Bold(true).Render(author)
	if !message.Timestamp.IsZero() {
		header += " " + lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(message.Timestamp.Local().Format("15:04"))
	}
	body := lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(ansi.Wrap(message.Text, width, " -"))
	return header + "\n" + body
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading conversations…"
	}
	bodyHeight := max(1, model.height-chromeRows)
	separator := lipgloss.NewStyle().Foreground(model.theme.BorderColor).
		Render(strings.TrimSuffix(strings.Repeat("│\n", bodyHeight), "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(model.listWidth()).Height(bodyHeight).Render(model.viewList(bodyHeight)),
		separator,
		lipgloss.NewStyle().Width(model.detailWidth()).Height(bodyHeight).Render(model.viewDetail(bodyHeight)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, model.viewHeader(), body, model.viewFooter())
}

func (model *Model) viewHeader() string {
	if model.focus == focusFilter || model.filter != "" {
		label := lipgloss.NewStyle().Foreground(model.theme.FocusAccent).Render("filter: ")
		return ansi.Truncate(label+model.filter+"▏", model.width, "…")
	}
	title := fmt.Sprintf("supportdesk · %d conversations · %d unread",
		len(model.state.Conversations), model.state.Unread.Total())
	return lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).
		Render(ansi.Truncate(title, model.width, "…"))
}

func (model *Model) viewFooter() string {
	if model.notice != "" {
		return lipgloss.NewStyle().Foreground(model.theme.ErrorAccent).
			Render(ansi.Truncate(model.notice, model.width, "…"))
	}
	var parts []string
	for _, binding := range model.keys.help() {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).
		Render(ansi.Truncate(strings.Join(parts, " · "), model.width, "…"))
}

func (model *Model) viewList(height int) string {
	if len(model.rows) == 0 {
		text := "No conversations."
		if model.filter != "" {
			text = "No conversations match."
		}
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(text)
	}
	width := model.listWidth()
	now := model.clock.Now()
	end := min(len(model.rows), model.offset+height)
	lines := make([]string, 0, end-model.offset)
	for index := model.offset; index < end; index++ {
		lines = append(lines, model.viewRow(model.rows[index], index == model.cursor, width, now))
	}
	return strings.Join(lines, "\n")
}

func (model *Model) viewRow(entry row, atCursor bool, width int, now time.Time) string {
	conversation := entry.conversation
	selected := conversation.ID == model.state.Selected

	marker := "  "
	if selected {
		marker = "▸ "
	}
	status := lipgloss.NewStyle().Foreground(model.theme.StatusColor(string(conversation.Status))).Render("●")

	badge := ""
	if entry.unread > 0 {
		badge = " " + lipgloss.NewStyle().
			Foreground(model.theme.BadgeForeground).
			Background(model.theme.BadgeBackground).
			Render(" "+strconv.Itoa(entry.unread)+" ")
	}
	age := ""
	if !conversation.UpdatedAt.IsZero() {
		age = " " + lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(humanize.RelTime(conversation.UpdatedAt, now, "ago", "from now"))
	}

	labelWidth := max(4, width-ansi.StringWidth(marker)-2-ansi.StringWidth(badge)-ansi.StringWidth(age))
	label := highlight(ansi.Truncate(conversationLabel(conversation), labelWidth, "…"), entry.positions, model.theme)
	line := marker + status + " " + label + badge + age

	style := lipgloss.NewStyle().Width(width).MaxWidth(width)
	if atCursor {
		style = style.Background(model.theme.SelectedBackground).Foreground(model.theme.SelectedForeground)
	}
	return style.Render(line)
}

// highlight marks the runes of label at the matched positions.
func highlight(label string, positions []int, theme tui.Theme) string {
	if len(positions) == 0 {
		return label
	}
	matched := lipgloss.NewStyle().Background(theme.SearchHighlightBackground)
	var out strings.Builder
	for index, character := range []rune(label) {
		if slices.Contains(positions, index) {
			out.WriteString(matched.Render(string(character)))
		} else {
			out.WriteRune(character)
		}
	}
	return out.String()
}

func (model *Model) viewDetail(height int) string {
	if model.state.Selected.IsZero() {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render("Select a conversation and press enter.")
	}
	header := model.viewDetailHeader()
	scrollbar := tui.RenderScrollbar(model.theme, model.viewport.Height,
		model.viewport.TotalLineCount(), model.viewport.Height, model.viewport.YOffset,
		model.focus != focusInput)
	messages := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(model.viewport.Width).Render(model.viewport.View()),
		scrollbar,
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, messages, model.input.View())
}

func (model *Model) viewDetailHeader() string {
	var conversation chatsync.Conversation
	for _, candidate := range model.state.Conversations {
		if candidate.ID == model.state.Selected {
			conversation = candidate
			break
		}
	}
	title := conversation.ParticipantID.String()
	if title == "" {
		title = model.state.Selected.String()
	}
	parts := []string{lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render(title)}
	if conversation.Status != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(model.theme.StatusColor(string(conversation.Status))).
			Render(string(conversation.Status)))
	}
	if conversation.AssignedAgentName != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render("assigned to "+conversation.AssignedAgentName))
	}
	return ansi.Truncate(strings.Join(parts, " · "), model.detailWidth(), "…")
}
