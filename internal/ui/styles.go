package ui

import (
	"io"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
	LockIcon    = "●"
)

// Styles holds the lipgloss styles of the studio, bound to one renderer.
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Title  lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Error  lipgloss.Style
	Notice lipgloss.Style // inline error notice box

	Gutter        lipgloss.Style
	GutterCurrent lipgloss.Style
	Selection     lipgloss.Style
	Cursor        lipgloss.Style

	StatusBar lipgloss.Style
	Streaming lipgloss.Style // read-only mode badge
	Editing   lipgloss.Style // editable mode badge

	PromptBox lipgloss.Style
	Spinner   lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
}

// NewStyles creates styles for output using theme.
func NewStyles(output io.Writer, theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,
		theme:    theme,

		Title: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Bold: r.NewStyle().
			Bold(true),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Notice: r.NewStyle().
			Foreground(theme.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Error).
			Padding(0, 1),

		Gutter: r.NewStyle().
			Foreground(theme.Muted),

		GutterCurrent: r.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Selection: r.NewStyle().
			Background(theme.Selection),

		Cursor: r.NewStyle().
			Reverse(true),

		StatusBar: r.NewStyle().
			Foreground(theme.Muted),

		Streaming: r.NewStyle().
			Bold(true).
			Foreground(theme.Warning),

		Editing: r.NewStyle().
			Bold(true).
			Foreground(theme.Success),

		PromptBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Spinner: r.NewStyle().
			Foreground(theme.Spinner),

		DiffAdd: r.NewStyle().
			Foreground(theme.Success),

		DiffRemove: r.NewStyle().
			Foreground(theme.Error),
	}
}

// Theme returns the theme used by these styles
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Renderer returns the lipgloss renderer the styles are bound to.
func (s *Styles) Renderer() *lipgloss.Renderer {
	return s.renderer
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.DiffAdd.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// Truncate shortens s to maxLen terminal cells, ending in "..." when cut.
// Escape sequences do not count towards the width.
func Truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return truncate.String(s, uint(max(maxLen, 0)))
	}
	return truncate.StringWithTail(s, uint(maxLen), "...")
}

// GlamourStyleFromTheme creates the glamour StyleConfig used for the help
// overlay.
func GlamourStyleFromTheme(theme *Theme) ansi.StyleConfig {
	primary := string(theme.Primary)
	secondary := string(theme.Secondary)
	muted := string(theme.Muted)
	text := string(theme.Text)

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: &text,
			},
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       &secondary,
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "# ",
			},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "## ",
			},
		},
		Paragraph: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: &text,
			},
		},
		List: ansi.StyleList{
			LevelIndent: 2,
		},
		Item: ansi.StylePrimitive{
			BlockPrefix: "• ",
		},
		Strong: ansi.StylePrimitive{
			Bold:  boolPtr(true),
			Color: &primary,
		},
		Emph: ansi.StylePrimitive{
			Italic: boolPtr(true),
		},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: &primary,
			},
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  &muted,
			Format: "\n--------\n",
		},
		Table: ansi.StyleTable{
			CenterSeparator: stringPtr("┼"),
			ColumnSeparator: stringPtr("│"),
			RowSeparator:    stringPtr("─"),
		},
	}
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
