// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
})

// minWrapWidth keeps deeply nested content from wrapping one word per
// line.
const minWrapWidth = 10

// RenderMarkdown renders markdown as styled terminal text wrapped to
// width. Soft line breaks reflow; fenced code keeps its lines and is
// highlighted when it names a language.
//
// The output always carries ANSI256 colors, whatever the attached
// terminal reports, so rendering is stable under tests and pipes.
func RenderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	styles := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	styles.SetColorProfile(termenv.ANSI256)

	r := &markdownRenderer{source: source, theme: theme, width: width, styles: styles}
	_ = ast.Walk(document, r.walk)
	return strings.TrimRight(r.output.String(), "\n")
}

type listLevel struct {
	ordered bool
	next    int
	tight   bool
}

type markdownRenderer struct {
	source []byte
	theme  Theme
	width  int
	styles *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	// prefix is prepended to every emitted line; bullet replaces it
	// for the first line of a list item.
	prefixes []string
	bullet   string

	bold, italic, strike int
	lists                []listLevel
}

func (r *markdownRenderer) style() lipgloss.Style {
	return r.styles.NewStyle()
}

func (r *markdownRenderer) prefix() string {
	return strings.Join(r.prefixes, "")
}

func (r *markdownRenderer) pushPrefix(p string) { r.prefixes = append(r.prefixes, p) }

func (r *markdownRenderer) popPrefix() {
	if len(r.prefixes) > 0 {
		r.prefixes = r.prefixes[:len(r.prefixes)-1]
	}
}

func (r *markdownRenderer) tight() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

// blankLine ends the output with exactly one empty line, unless the
// output is empty.
func (r *markdownRenderer) blankLine() {
	current := r.output.String()
	if current == "" {
		return
	}
	switch {
	case strings.HasSuffix(current, "\n\n"):
	case strings.HasSuffix(current, "\n"):
		r.output.WriteString("\n")
	default:
		r.output.WriteString("\n\n")
	}
}

func (r *markdownRenderer) newline() {
	if current := r.output.String(); current != "" && !strings.HasSuffix(current, "\n") {
		r.output.WriteString("\n")
	}
}

// emit writes lines with the current prefixes.
func (r *markdownRenderer) emit(block string) {
	prefix := r.prefix()
	for i, line := range strings.Split(block, "\n") {
		if i == 0 && r.bullet != "" {
			r.output.WriteString(r.bullet)
			r.bullet = ""
		} else {
			r.output.WriteString(prefix)
		}
		r.output.WriteString(line)
		r.output.WriteString("\n")
	}
}

// flush wraps the accumulated inline text and emits it.
func (r *markdownRenderer) flush() {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return
	}
	width := max(minWrapWidth, r.width-ansi.StringWidth(r.prefix()))
	r.emit(ansi.Wrap(content, width, " -"))
}

func (r *markdownRenderer) styled(content string) string {
	s := r.style().Foreground(r.theme.NormalText)
	if r.bold > 0 {
		s = s.Bold(true)
	}
	if r.italic > 0 {
		s = s.Italic(true)
	}
	if r.strike > 0 {
		s = s.Strikethrough(true)
	}
	return s.Render(content)
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.inline.Reset()
			return ast.WalkContinue, nil
		}
		r.flush()
		if !r.tight() {
			r.blankLine()
		}

	case *ast.Heading:
		if entering {
			r.blankLine()
			r.inline.Reset()
			r.bold++
			return ast.WalkContinue, nil
		}
		r.bold--
		heading := r.inline.String()
		r.inline.Reset()
		r.emit(r.style().Foreground(r.theme.HeaderForeground).Bold(true).Render(heading))
		r.blankLine()

	case *ast.FencedCodeBlock:
		if entering {
			r.code(node.Lines(), string(node.Language(r.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			r.code(node.Lines(), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			r.pushPrefix(r.style().Foreground(r.theme.BorderColor).Render("│ "))
		} else {
			r.popPrefix()
			r.blankLine()
		}

	case *ast.List:
		if entering {
			r.lists = append(r.lists, listLevel{
				ordered: node.IsOrdered(),
				next:    max(1, node.Start),
				tight:   node.IsTight,
			})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if len(r.lists) == 0 {
				r.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			r.newline()
			level := &r.lists[len(r.lists)-1]
			marker := "• "
			if level.ordered {
				marker = strconv.Itoa(level.next) + ". "
				level.next++
			}
			r.bullet = r.prefix() + r.style().Foreground(r.theme.FaintText).Render(marker)
			r.pushPrefix(strings.Repeat(" ", ansi.StringWidth(marker)))
		} else {
			r.flush()
			r.popPrefix()
		}

	case *ast.ThematicBreak:
		if entering {
			r.blankLine()
			rule := strings.Repeat("─", max(minWrapWidth, r.width-ansi.StringWidth(r.prefix())))
			r.emit(r.style().Foreground(r.theme.BorderColor).Render(rule))
			r.blankLine()
		}

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			r.inline.WriteString(r.styled(string(node.Segment.Value(r.source))))
			switch {
			case node.HardLineBreak():
				r.inline.WriteString("\n")
			case node.SoftLineBreak():
				r.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styled(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			r.bold += delta
		} else {
			r.italic += delta
		}

	case *extast.Strikethrough:
		if entering {
			r.strike++
		} else {
			r.strike--
		}

	case *ast.CodeSpan:
		if entering {
			var span strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if segment, ok := child.(*ast.Text); ok {
					span.Write(segment.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.style().Foreground(r.theme.FocusAccent).Render(span.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			r.inline.WriteString(r.style().Foreground(r.theme.FaintText).
				Render(" (" + string(node.Destination) + ")"))
		}

	case *ast.AutoLink:
		if entering {
			r.inline.WriteString(r.style().Foreground(r.theme.LinkForeground).Underline(true).
				Render(string(node.URL(r.source))))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// code emits a code block line by line, unwrapped.
func (r *markdownRenderer) code(lines *text.Segments, language string) {
	var body strings.Builder
	for i := range lines.Len() {
		segment := lines.At(i)
		body.Write(segment.Value(r.source))
	}
	source := strings.TrimRight(body.String(), "\n")

	highlighted := ""
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, source, language, "terminal256", "monokai"); err == nil {
			highlighted = strings.TrimRight(buffer.String(), "\n")
		}
	}
	if highlighted == "" {
		highlighted = r.style().Foreground(r.theme.FaintText).Render(source)
	}

	r.blankLine()
	r.pushPrefix("  ")
	r.emit(highlighted)
	r.popPrefix()
	r.blankLine()
}
