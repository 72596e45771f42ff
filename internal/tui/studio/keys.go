package studio

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keybindings for the studio
type KeyMap struct {
	FocusPrompt key.Binding
	Blur        key.Binding
	Submit      key.Binding
	Preset      key.Binding
	Cancel      key.Binding
	Save        key.Binding
	Copy        key.Binding
	Help        key.Binding
	Quit        key.Binding

	Indent     key.Binding
	Newline    key.Binding
	Backspace  key.Binding
	Delete     key.Binding
	SelectAll  key.Binding
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	LineStart  key.Binding
	LineEnd    key.Binding
	DocStart   key.Binding
	DocEnd     key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	SelLeft    key.Binding
	SelRight   key.Binding
	SelUp      key.Binding
	SelDown    key.Binding
	SelLineEnd key.Binding
}

// DefaultKeyMap returns the default keybindings for the studio
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusPrompt: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prompt"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to editor"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "generate"),
		),
		Preset: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "preset"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "stop generating"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "export"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),

		Indent:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "indent")),
		Newline:    key.NewBinding(key.WithKeys("enter")),
		Backspace:  key.NewBinding(key.WithKeys("backspace")),
		Delete:     key.NewBinding(key.WithKeys("delete")),
		SelectAll:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select all")),
		Left:       key.NewBinding(key.WithKeys("left")),
		Right:      key.NewBinding(key.WithKeys("right")),
		Up:         key.NewBinding(key.WithKeys("up")),
		Down:       key.NewBinding(key.WithKeys("down")),
		LineStart:  key.NewBinding(key.WithKeys("home")),
		LineEnd:    key.NewBinding(key.WithKeys("end")),
		DocStart:   key.NewBinding(key.WithKeys("ctrl+home")),
		DocEnd:     key.NewBinding(key.WithKeys("ctrl+end")),
		PageUp:     key.NewBinding(key.WithKeys("pgup")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown")),
		SelLeft:    key.NewBinding(key.WithKeys("shift+left")),
		SelRight:   key.NewBinding(key.WithKeys("shift+right")),
		SelUp:      key.NewBinding(key.WithKeys("shift+up")),
		SelDown:    key.NewBinding(key.WithKeys("shift+down")),
		SelLineEnd: key.NewBinding(key.WithKeys("shift+end")),
	}
}

// ShortHelp returns keybindings for the status line
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusPrompt, k.Save, k.Copy, k.Help, k.Quit}
}

// FullHelp returns keybindings for the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusPrompt, k.Submit, k.Preset, k.Blur, k.Cancel},
		{k.Indent, k.SelectAll},
		{k.Save, k.Copy, k.Help, k.Quit},
	}
}
