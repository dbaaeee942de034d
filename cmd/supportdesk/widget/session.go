// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/faq"
	"github.com/bureau-foundation/supportdesk/lib/ref"
	"github.com/bureau-foundation/supportdesk/lib/tui"
)

const helpText = `Commands:
  /faq [question]  list the FAQs, or search them
  /chat            talk to the support team
  /help            show this help
  /quit            leave
Any other line is sent to the support team.`

// Session is the line-oriented visitor chat: FAQ lookups and a live
// conversation transcript over a reader and writer.
type Session struct {
	widget  *chatsync.Widget
	catalog *faq.Catalog
	in      io.Reader
	out     io.Writer
	theme   tui.Theme
	width   int
	prompt  bool
	logger  *slog.Logger

	renderer *lipgloss.Renderer
	printed  map[ref.MessageID]bool
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Widget  *chatsync.Widget
	Catalog *faq.Catalog
	In      io.Reader
	Out     io.Writer
	Theme   tui.Theme

	// Width wraps FAQ answers. Default: 80
	Width int

	// Prompt prints "› " before reading each line. Set it when In is a
	// terminal.
	Prompt bool

	Logger *slog.Logger
}

// NewSession returns a session. Run drives it.
func NewSession(config SessionConfig) *Session {
	if config.Width <= 0 {
		config.Width = 80
	}
	if config.Theme.Name == "" {
		config.Theme = tui.DarkTheme
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		widget:   config.Widget,
		catalog:  config.Catalog,
		in:       config.In,
		out:      config.Out,
		theme:    config.Theme,
		width:    config.Width,
		prompt:   config.Prompt,
		logger:   config.Logger,
		renderer: lipgloss.NewRenderer(config.Out),
		printed:  make(map[ref.MessageID]bool),
	}
}

// Run prints the FAQ list and then handles input lines until /quit,
// end of input, or ctx is done. Transcript changes are printed as
// they arrive.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, s.style(s.theme.HeaderForeground).Bold(true).Render("Hi! How can we help?"))
	s.printFAQs(s.catalog.All(ctx))
	fmt.Fprintln(s.out, s.style(s.theme.HelpText).Render("Type /help for commands."))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.showPrompt()
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		case <-s.widget.Updates():
			s.flush()
		case line, ok := <-lines:
			if !ok {
				s.flush()
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := s.handle(ctx, line); quit {
				s.flush()
				return nil
			}
			s.flush()
			s.showPrompt()
		}
	}
}

// handle runs one input line and reports whether the session ends.
func (s *Session) handle(ctx context.Context, line string) bool {
	text := strings.TrimSpace(line)
	command, argument, _ := strings.Cut(text, " ")
	switch command {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/faq":
		if question := strings.TrimSpace(argument); question != "" {
			s.printFAQs(s.catalog.Search(ctx, question))
		} else {
			s.printFAQs(s.catalog.All(ctx))
		}
	case "/chat":
		if _, err := s.widget.StartChat(ctx); err != nil {
			s.logger.Error("starting chat failed", "error", err)
			s.printError("Could not reach the support team. Please try again.")
		}
	default:
		if _, err := s.widget.Send(ctx, text); err != nil {
			s.logger.Warn("send failed", "error", err)
			// The widget shows its own notice for send failures.
			if errors.Is(err, chatsync.ErrEmptyMessage) {
				s.printError("Message is empty.")
			}
		}
	}
	return false
}

// flush prints transcript messages not yet shown.
func (s *Session) flush() {
	for _, message := range s.widget.Transcript() {
		if s.printed[message.ID] {
			continue
		}
		s.printed[message.ID] = true
		fmt.Fprintln(s.out, s.formatMessage(message))
	}
}

func (s *Session) formatMessage(message chatsync.Message) string {
	var author string
	switch message.Sender {
	case chatsync.SenderVisitor:
		author = "You"
	case chatsync.SenderAgent:
		author = message.AgentName
		if author == "" {
			author = "Support"
		}
	default:
		author = "Support"
	}
	header := s.style(s.theme.SenderColor(string(message.Sender))).Bold(true).Render(author)
	if !message.Timestamp.IsZero() {
		header = s.style(s.theme.FaintText).Render(message.Timestamp.Local().Format("15:04")) + " " + header
	}
	return header + ": " + message.Text
}

func (s *Session) printFAQs(entries []faq.FAQ) {
	if len(entries) == 0 {
		fmt.Fprintln(s.out, s.style(s.theme.FaintText).Render("No FAQs available. Type /chat to talk to us."))
		return
	}
	for index, entry := range entries {
		question := fmt.Sprintf("%d. %s", index+1, entry.Question)
		fmt.Fprintln(s.out, s.style(s.theme.HeaderForeground).Bold(true).Render(question))
		fmt.Fprintln(s.out, tui.RenderMarkdown(entry.Answer, s.theme, s.width))
		fmt.Fprintln(s.out)
	}
}

func (s *Session) printError(text string) {
	fmt.Fprintln(s.out, s.style(s.theme.ErrorAccent).Render(text))
}

func (s *Session) showPrompt() {
	if s.prompt {
		fmt.Fprint(s.out, "› ")
	}
}

func (s *Session) style(color lipgloss.Color) lipgloss.Style {
	return s.renderer.NewStyle().Foreground(color)
}
