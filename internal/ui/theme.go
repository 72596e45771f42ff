package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the UI
type Theme struct {
	Name string

	// Primary colors
	Primary   lipgloss.Color // accents, prompt bar focus
	Secondary lipgloss.Color // headers, borders

	// Semantic colors
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color // read-only banner
	Muted   lipgloss.Color // gutter, hints
	Text    lipgloss.Color

	// UI element colors
	Spinner   lipgloss.Color
	Border    lipgloss.Color
	Selection lipgloss.Color // selection background in the editor
}

type palette struct {
	description string
	primary     string
	secondary   string
	success     string
	error       string
	warning     string
	muted       string
	text        string
	spinner     string
	selection   string
}

var palettes = map[string]palette{
	"gruvbox": {
		description: "Retro groove color scheme (default)",
		primary:     "#b8bb26", // green
		secondary:   "#83a598", // aqua
		success:     "#b8bb26",
		error:       "#fb4934",
		warning:     "#fabd2f",
		muted:       "#928374",
		text:        "#ebdbb2",
		spinner:     "#d3869b",
		selection:   "#504945",
	},
	"monokai": {
		description: "Vibrant colors inspired by Sublime Text",
		primary:     "#a6e22e",
		secondary:   "#66d9ef",
		success:     "#a6e22e",
		error:       "#f92672",
		warning:     "#e6db74",
		muted:       "#75715e",
		text:        "#f8f8f2",
		spinner:     "#ae81ff",
		selection:   "#49483e",
	},
	"dracula": {
		description: "Dark theme with purple accents",
		primary:     "#bd93f9",
		secondary:   "#8be9fd",
		success:     "#50fa7b",
		error:       "#ff5555",
		warning:     "#f1fa8c",
		muted:       "#6272a4",
		text:        "#f8f8f2",
		spinner:     "#ff79c6",
		selection:   "#44475a",
	},
	"nord": {
		description: "Arctic, north-bluish color palette",
		primary:     "#88c0d0",
		secondary:   "#81a1c1",
		success:     "#a3be8c",
		error:       "#bf616a",
		warning:     "#ebcb8b",
		muted:       "#4c566a",
		text:        "#eceff4",
		spinner:     "#b48ead",
		selection:   "#434c5e",
	},
	"classic": {
		description: "Classic green terminal style",
		primary:     "10",
		secondary:   "4",
		success:     "10",
		error:       "9",
		warning:     "11",
		muted:       "245",
		text:        "15",
		spinner:     "205",
		selection:   "238",
	},
}

// DefaultThemeName is used when no theme is configured.
const DefaultThemeName = "gruvbox"

// ThemeNames lists the built-in themes, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeDescription returns a one-line description of a built-in theme.
func ThemeDescription(name string) string {
	return palettes[name].description
}

// LookupTheme returns the named theme and whether it exists.
func LookupTheme(name string) (*Theme, bool) {
	p, ok := palettes[name]
	if !ok {
		return nil, false
	}
	return &Theme{
		Name:      name,
		Primary:   lipgloss.Color(p.primary),
		Secondary: lipgloss.Color(p.secondary),
		Success:   lipgloss.Color(p.success),
		Error:     lipgloss.Color(p.error),
		Warning:   lipgloss.Color(p.warning),
		Muted:     lipgloss.Color(p.muted),
		Text:      lipgloss.Color(p.text),
		Spinner:   lipgloss.Color(p.spinner),
		Border:    lipgloss.Color(p.secondary), // border follows secondary
		Selection: lipgloss.Color(p.selection),
	}, true
}

// ThemeFor returns the named theme, falling back to the default. Editor
// syntax styles that share a name with a theme (monokai) get the matching
// palette.
func ThemeFor(name string) *Theme {
	if t, ok := LookupTheme(name); ok {
		return t
	}
	t, _ := LookupTheme(DefaultThemeName)
	return t
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return ThemeFor(DefaultThemeName)
}
