package studio

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/samsaffron/genweb/internal/editor"
	"github.com/samsaffron/genweb/internal/highlight"
	"github.com/samsaffron/genweb/internal/ui"
)

// View renders the model
func (m *Model) View() string {
	var b strings.Builder

	height := m.editorHeight()
	if m.showHelp {
		b.WriteString(fitLines(m.helpView(), m.width, height))
	} else {
		b.WriteString(m.editorView(m.renderer.Snapshot(), height))
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.noticeView())
		b.WriteString("\n")
	}
	b.WriteString(m.styles.PromptBox.Width(max(m.width-2, 1)).Render(m.prompt.View()))
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

// editorView draws the gutter beside the highlighted text. Every row of a
// frame comes from the same document version.
func (m *Model) editorView(frame editor.Frame, height int) string {
	gutterW := frame.Gutter.Width
	textW := max(m.width-gutterW-1, 1)
	tabWidth := m.renderer.TabWidth()

	text := frame.Input.Text
	plain := strings.Split(text, "\n")
	markup := strings.Split(frame.Overlay.Markup, "\n")
	if len(markup) != len(plain) {
		markup = nil
	}

	starts := make([]int, len(plain))
	off := 0
	for i, line := range plain {
		starts[i] = off
		off += len(line) + 1
	}

	sel := frame.Input.Selection
	showCursor := !frame.Input.ReadOnly && !m.promptFocused
	cursorLine := -1
	for i := range starts {
		if starts[i] <= frame.Input.Cursor {
			cursorLine = i
		}
	}

	rows := make([]string, 0, height)
	for row := 0; row < height; row++ {
		ln := frame.Gutter.Top + row
		if ln >= len(plain) {
			rows = append(rows, strings.Repeat(" ", gutterW+1+textW))
			continue
		}

		number := fmt.Sprintf("%*d", gutterW, frame.Gutter.Lines[ln])
		if ln == cursorLine && showCursor {
			number = m.styles.GutterCurrent.Render(number)
		} else {
			number = m.styles.Gutter.Render(number)
		}

		lineStart, lineEnd := starts[ln], starts[ln]+len(plain[ln])
		touched := (showCursor && ln == cursorLine) ||
			(!sel.Empty() && sel.Start <= lineEnd && sel.End > lineStart)

		var content string
		if touched || markup == nil {
			content = m.renderPlainLine(plain[ln], lineStart, sel, frame.Input.Cursor, showCursor, frame.Input.Left, textW, tabWidth)
		} else {
			content = cutANSILine(markup[ln], frame.Overlay.Left, textW, tabWidth)
		}
		rows = append(rows, number+" "+content)
	}
	return strings.Join(rows, "\n")
}

// cutANSILine returns the cells [left, left+width) of a highlighted line,
// padded to width.
func cutANSILine(line string, left, width, tabWidth int) string {
	line = strings.ReplaceAll(line, "\r", "")
	line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
	out := ansi.Cut(line, left, left+width)
	return padRight(out, width)
}

type segmentKind int

const (
	segPlain segmentKind = iota
	segSelected
	segCursor
)

// renderPlainLine draws a line without syntax colours so the selection and
// cursor can be painted. lineStart is the byte offset of line in the
// document.
func (m *Model) renderPlainLine(line string, lineStart int, sel editor.Selection, cursor int, showCursor bool, left, width, tabWidth int) string {
	var b strings.Builder
	var run strings.Builder
	kind := segPlain
	flush := func() {
		if run.Len() == 0 {
			return
		}
		switch kind {
		case segSelected:
			b.WriteString(m.styles.Selection.Render(run.String()))
		case segCursor:
			b.WriteString(m.styles.Cursor.Render(run.String()))
		default:
			b.WriteString(run.String())
		}
		run.Reset()
	}
	emit := func(k segmentKind, cells string) {
		if k != kind {
			flush()
			kind = k
		}
		run.WriteString(cells)
	}

	col := 0
	used := 0
	for i, r := range line {
		off := lineStart + i
		var cells string
		var w int
		switch {
		case r == '\t':
			w = tabWidth
			cells = strings.Repeat(" ", w)
		case isControl(r):
			pic, _ := highlight.ControlPicture(r)
			w = 1
			cells = string(pic)
		default:
			w = runewidth.RuneWidth(r)
			cells = string(r)
		}
		if w == 0 {
			continue
		}

		k := segPlain
		switch {
		case showCursor && off == cursor:
			k = segCursor
		case !sel.Empty() && off >= sel.Start && off < sel.End:
			k = segSelected
		}

		start, end := col, col+w
		col = end
		if end <= left {
			continue
		}
		if start >= left+width {
			break
		}
		if start < left || end > left+width {
			// Wide rune or tab cut by the viewport edge.
			visible := min(end, left+width) - max(start, left)
			cells = strings.Repeat(" ", visible)
			w = visible
		}
		emit(k, cells)
		used += w
	}

	lineEnd := lineStart + len(line)
	if showCursor && cursor == lineEnd && col >= left && col < left+width {
		emit(segCursor, " ")
		used++
	}
	flush()

	if used < width {
		b.WriteString(strings.Repeat(" ", width-used))
	}
	return b.String()
}

func isControl(r rune) bool {
	_, ok := highlight.ControlPicture(r)
	return ok
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// fitLines pads or cuts s to exactly height lines.
func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		lines[i] = padRight(ansi.Truncate(l, width, ""), width)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) noticeView() string {
	return m.styles.Notice.Width(max(m.width-2, 1)).Render(m.notice)
}

func (m *Model) statusView() string {
	var left []string
	if m.renderer.Mode() == editor.ModeStreamingReadOnly {
		badge := m.styles.Streaming.Render(ui.LockIcon + " GENERATING")
		if m.generating {
			badge = m.spinner.View() + " " + badge
		}
		if m.renderer.Following() {
			badge += m.styles.Muted.Render(" (following)")
		}
		left = append(left, badge)
	} else {
		left = append(left, m.styles.Editing.Render("EDIT"))
	}
	line, col := m.renderer.CursorPosition()
	left = append(left, m.styles.Muted.Render(fmt.Sprintf("Ln %d, Col %d", line, col)))
	if m.flash != "" {
		left = append(left, m.flash)
	}

	doc := m.store.Get()
	var right []string
	if m.lastStat != nil {
		right = append(right, m.styles.RenderDiffStat(*m.lastStat))
	}
	right = append(right, m.styles.Muted.Render(fmt.Sprintf("v%d · %d bytes", doc.Version, doc.Len())))
	if m.provider != "" {
		right = append(right, m.styles.Muted.Render(m.provider))
	}
	if m.previewURL != "" {
		right = append(right, m.styles.Muted.Render(m.previewURL))
	}
	right = append(right, m.styles.Muted.Render("f1 help"))

	l := strings.Join(left, "  ")
	r := strings.Join(right, m.styles.Muted.Render(" │ "))
	gap := m.width - lipgloss.Width(l) - lipgloss.Width(r)
	if gap < 1 {
		return ansi.Truncate(l+" "+r, m.width, "…")
	}
	return l + strings.Repeat(" ", gap) + r
}

func (m *Model) helpView() string {
	var b strings.Builder
	b.WriteString("# genweb\n\n")
	b.WriteString("Describe a page in the prompt bar and watch it stream into the editor. ")
	b.WriteString("The editor is read-only while a page is generating.\n\n")
	b.WriteString("## Keys\n\n")
	for _, group := range m.keyMap.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "- **%s** %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\nMouse wheel scrolls; shift+wheel scrolls sideways.\n")
	fmt.Fprintf(&b, "\nExports go to `%s`.\n", m.outputPath)
	return ui.RenderMarkdown(m.styles.Theme(), b.String(), max(m.width-4, 20))
}
