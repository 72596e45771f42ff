// Package studio is the terminal front end: a prompt bar over a
// highlighted, line-numbered editor that fills in while a page streams.
package studio

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/clipboard"
	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/editor"
	"github.com/samsaffron/genweb/internal/generate"
	"github.com/samsaffron/genweb/internal/lines"
	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/presets"
	"github.com/samsaffron/genweb/internal/pubsub"
	"github.com/samsaffron/genweb/internal/stream"
	"github.com/samsaffron/genweb/internal/ui"
)

const (
	flashDuration = 3 * time.Second
	wheelLines    = 3
)

// Config wires the studio to the engine.
type Config struct {
	Store      *document.Store
	Controller *stream.Controller
	Renderer   *editor.Renderer
	Styles     *ui.Styles

	Provider   string // shown in the status bar
	OutputPath string // Ctrl+S target
	PreviewURL string // shown in the status bar when set

	// Copy writes to the clipboard; clipboard.CopyText when nil.
	Copy func(string) error
}

// sessionEvent carries a lifecycle change with the document text around it,
// captured while the controller still holds its lock.
type sessionEvent struct {
	info   stream.SessionInfo
	before string
	after  string
}

type (
	flushMsg struct{}
	savedMsg struct {
		path string
		err  error
	}
	copiedMsg     struct{ err error }
	clearFlashMsg struct{ id int }
)

// Model is the studio bubbletea model
type Model struct {
	store      *document.Store
	controller *stream.Controller
	renderer   *editor.Renderer
	styles     *ui.Styles
	keyMap     KeyMap
	log        logging.LeveledLogger
	copy       func(string) error

	provider   string
	outputPath string
	previewURL string

	ctx      context.Context
	cancel   context.CancelFunc
	docs     <-chan pubsub.Event[document.Document]
	sessions *pubsub.Broker[sessionEvent]
	sessCh   <-chan pubsub.Event[sessionEvent]

	prompt  textarea.Model
	spinner spinner.Model

	width  int
	height int

	promptFocused bool
	showHelp      bool
	generating    bool
	notice        string
	flash         string
	flashID       int
	lastStat      *ui.DiffStat
	sessionBefore string
	presetIndex   int
}

// New creates the studio model and subscribes it to the store and the
// controller.
func New(cfg Config) *Model {
	styles := cfg.Styles
	if styles == nil {
		styles = ui.NewStyles(os.Stderr, nil)
	}
	copyFn := cfg.Copy
	if copyFn == nil {
		copyFn = clipboard.CopyText
	}
	output := cfg.OutputPath
	if output == "" {
		output = "website.html"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Describe the website you want to build..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.Theme().Muted)
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Theme().Primary).Bold(true)
	ta.BlurredStyle = ta.FocusedStyle
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Theme().Muted)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		store:         cfg.Store,
		controller:    cfg.Controller,
		renderer:      cfg.Renderer,
		styles:        styles,
		keyMap:        DefaultKeyMap(),
		log:           log.For(log.ScopeTUI),
		copy:          copyFn,
		provider:      cfg.Provider,
		outputPath:    output,
		previewURL:    cfg.PreviewURL,
		ctx:           ctx,
		cancel:        cancel,
		sessions:      pubsub.NewBroker[sessionEvent](),
		prompt:        ta,
		spinner:       s,
		width:         80,
		height:        24,
		promptFocused: true,
	}
	m.docs = m.store.Watch(ctx)
	m.sessCh = m.sessions.Subscribe(ctx)
	m.controller.AddObserver(stream.ObserverFunc(m.observe))
	m.layout()
	return m
}

// observe runs under the controller lock.
func (m *Model) observe(info stream.SessionInfo) {
	ev := sessionEvent{info: info}
	text := m.store.Get().Text
	eventType := pubsub.StartedEvent
	if info.Status.Finished() {
		eventType = pubsub.FinishedEvent
		ev.after = text
	} else {
		ev.before = text
	}
	m.sessions.Publish(eventType, ev)
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		pubsub.ListenCmd(m.ctx, m.docs),
		pubsub.ListenCmd(m.ctx, m.sessCh),
	)
}

// Close stops the subscriptions. Safe to call more than once.
func (m *Model) Close() {
	m.cancel()
	m.sessions.Close()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		m.handleMouseMsg(msg)

	case pubsub.Event[document.Document]:
		// Gutter width can change with the line count.
		m.layout()
		cmds = append(cmds, pubsub.ListenCmd(m.ctx, m.docs))

	case pubsub.Event[sessionEvent]:
		cmds = append(cmds, m.handleSession(msg.Payload), pubsub.ListenCmd(m.ctx, m.sessCh))

	case flushMsg:
		m.renderer.Flush()

	case spinner.TickMsg:
		if m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case savedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setFlash(m.styles.FormatResult(false, msg.err.Error())))
		} else {
			cmds = append(cmds, m.setFlash(m.styles.FormatResult(true, "saved "+msg.path)))
		}

	case copiedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setFlash(m.styles.FormatResult(false, msg.err.Error())))
		} else {
			cmds = append(cmds, m.setFlash(m.styles.FormatResult(true, "copied to clipboard")))
		}

	case clearFlashMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}

	default:
		if m.promptFocused {
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleSession(ev sessionEvent) tea.Cmd {
	info := ev.info
	switch info.Status {
	case stream.StatusRunning:
		m.generating = true
		m.notice = ""
		m.lastStat = nil
		m.layout()
		m.sessionBefore = ev.before
		return m.spinner.Tick
	case stream.StatusSuperseded:
		// A newer session is already running.
		return nil
	}

	m.generating = m.controller.Active()
	switch info.Status {
	case stream.StatusFailed:
		m.notice = generate.FailureMessage
		if gerr := m.controller.Err(); gerr != nil {
			m.notice = gerr.UserMessage()
		}
		m.log.Warnf("session %s failed: %v", info.ID, info.Err)
	case stream.StatusCompleted, stream.StatusCanceled:
		st := ui.ComputeDiffStat(m.sessionBefore, ev.after)
		m.lastStat = &st
	}
	m.layout()
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.controller.Cancel()
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keyMap.Save):
		return m, m.saveCmd()
	case key.Matches(msg, m.keyMap.Copy):
		return m, m.copyCmd()
	case key.Matches(msg, m.keyMap.Cancel):
		if m.controller.Cancel() {
			return m, m.setFlash("generation stopped")
		}
		return m, nil
	case key.Matches(msg, m.keyMap.FocusPrompt):
		m.showHelp = false
		m.promptFocused = true
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keyMap.Blur):
		switch {
		case m.showHelp:
			m.showHelp = false
		case m.notice != "":
			m.notice = ""
			m.layout()
		default:
			m.promptFocused = false
			m.prompt.Blur()
		}
		return m, nil
	}

	if m.promptFocused {
		return m.handlePromptKey(msg)
	}
	return m, m.handleEditorKey(msg)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keyMap.Preset):
		m.prompt.SetValue(m.nextPreset(m.prompt.Value()).Prompt)
		m.prompt.CursorEnd()
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// nextPreset completes a partial preset name, or cycles through the presets
// when the prompt is empty or already holds one.
func (m *Model) nextPreset(value string) presets.Preset {
	all := presets.All()
	value = strings.TrimSpace(value)
	isPreset := false
	for _, p := range all {
		if p.Prompt == value {
			isPreset = true
		}
	}
	if value != "" && !isPreset {
		if p, ok := presets.Lookup(value); ok {
			return p
		}
	}
	p := all[m.presetIndex%len(all)]
	m.presetIndex++
	return p
}

// submit starts a session for the prompt. The untouched welcome page is
// not sent as prior code.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.prompt.Value())
	if text == "" {
		return nil
	}
	m.prompt.Reset()
	m.prompt.Blur()
	m.promptFocused = false
	m.showHelp = false

	prior := presets.Prior(m.store.Get().Text)
	m.controller.Start(m.ctx, text, prior)
	return nil
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	r := m.renderer
	var ok bool
	switch {
	case key.Matches(msg, m.keyMap.Indent):
		ok = r.InsertIndent()
		if ok {
			// The cursor lands after the store commit has been delivered.
			return func() tea.Msg { return flushMsg{} }
		}
	case key.Matches(msg, m.keyMap.Newline):
		ok = r.Newline()
	case key.Matches(msg, m.keyMap.Backspace):
		ok = r.DeleteBackward()
	case key.Matches(msg, m.keyMap.Delete):
		ok = r.DeleteForward()
	case key.Matches(msg, m.keyMap.SelectAll):
		ok = r.SelectAll()
	case key.Matches(msg, m.keyMap.Left):
		ok = r.MoveCursor(editor.Left, false)
	case key.Matches(msg, m.keyMap.Right):
		ok = r.MoveCursor(editor.Right, false)
	case key.Matches(msg, m.keyMap.Up):
		ok = r.MoveCursor(editor.Up, false)
	case key.Matches(msg, m.keyMap.Down):
		ok = r.MoveCursor(editor.Down, false)
	case key.Matches(msg, m.keyMap.LineStart):
		ok = r.MoveCursor(editor.LineStart, false)
	case key.Matches(msg, m.keyMap.LineEnd):
		ok = r.MoveCursor(editor.LineEnd, false)
	case key.Matches(msg, m.keyMap.DocStart):
		ok = r.MoveCursor(editor.DocStart, false)
	case key.Matches(msg, m.keyMap.DocEnd):
		ok = r.MoveCursor(editor.DocEnd, false)
	case key.Matches(msg, m.keyMap.SelLeft):
		ok = r.MoveCursor(editor.Left, true)
	case key.Matches(msg, m.keyMap.SelRight):
		ok = r.MoveCursor(editor.Right, true)
	case key.Matches(msg, m.keyMap.SelUp):
		ok = r.MoveCursor(editor.Up, true)
	case key.Matches(msg, m.keyMap.SelDown):
		ok = r.MoveCursor(editor.Down, true)
	case key.Matches(msg, m.keyMap.SelLineEnd):
		ok = r.MoveCursor(editor.LineEnd, true)
	case key.Matches(msg, m.keyMap.PageUp):
		if r.Mode() == editor.ModeStreamingReadOnly {
			r.ScrollBy(-m.editorHeight(), 0)
			return nil
		}
		ok = r.MoveCursor(editor.PageUp, false)
	case key.Matches(msg, m.keyMap.PageDown):
		if r.Mode() == editor.ModeStreamingReadOnly {
			r.ScrollBy(m.editorHeight(), 0)
			return nil
		}
		ok = r.MoveCursor(editor.PageDown, false)
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		ok = r.InsertText(string(msg.Runes))
	default:
		return nil
	}
	if !ok && r.Mode() == editor.ModeStreamingReadOnly {
		return m.setFlash("read-only while generating")
	}
	return nil
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Shift {
			m.renderer.ScrollBy(0, -wheelLines)
		} else {
			m.renderer.ScrollBy(-wheelLines, 0)
		}
	case tea.MouseButtonWheelDown:
		if msg.Shift {
			m.renderer.ScrollBy(0, wheelLines)
		} else {
			m.renderer.ScrollBy(wheelLines, 0)
		}
	case tea.MouseButtonWheelLeft:
		m.renderer.ScrollBy(0, -wheelLines)
	case tea.MouseButtonWheelRight:
		m.renderer.ScrollBy(0, wheelLines)
	}
}

func (m *Model) saveCmd() tea.Cmd {
	text := m.store.Get().Text
	path := m.outputPath
	return func() tea.Msg {
		err := os.WriteFile(path, []byte(text), 0644)
		if err != nil {
			err = fmt.Errorf("save %s: %w", path, err)
		}
		return savedMsg{path: path, err: err}
	}
}

func (m *Model) copyCmd() tea.Cmd {
	text := m.store.Get().Text
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flashID++
	m.flash = text
	id := m.flashID
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return clearFlashMsg{id: id} })
}

// layout sizes the prompt and tells the renderer how much text is visible.
func (m *Model) layout() {
	m.prompt.SetWidth(max(m.width-4, 10))
	doc := m.store.Get()
	gutter := lines.Width(lines.Count(doc.Text), editor.MinGutterWidth)
	m.renderer.Resize(max(m.width-gutter-1, 1), m.editorHeight())
}

// editorHeight is what is left after the prompt box, the status line and
// the notice.
func (m *Model) editorHeight() int {
	used := 3 + 1 // prompt box with border, status line
	if m.notice != "" {
		used += lipgloss.Height(m.noticeView())
	}
	return max(m.height-used, 1)
}
