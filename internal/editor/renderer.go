// Package editor keeps the gutter, highlight overlay and input layers of the
// code view derived from one document version and scrolled together.
package editor

import (
	"sync"
	"unicode/utf8"

	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/highlight"
	"github.com/samsaffron/genweb/internal/lines"
	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/stream"
)

// Indent is inserted by InsertIndent.
const Indent = "  "

// Direction is a cursor motion.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	LineStart
	LineEnd
	DocStart
	DocEnd
	PageUp
	PageDown
)

// restore is a cursor position to apply once the document reaches version.
type restore struct {
	version uint64
	cursor  int
}

// Renderer derives the three layers from the document store.
//
// Lock order: editMu, then the store, then mu. The store listener only takes
// mu, so a Set issued while holding editMu cannot deadlock.
type Renderer struct {
	store    *document.Store
	hl       highlight.Highlighter
	index    lines.Index
	tabWidth int
	log      logging.LeveledLogger

	editMu sync.Mutex // serializes edits and mode changes

	mu            sync.RWMutex
	mode          Mode
	doc           document.Document
	anchor, head  int
	top, left     int
	width, height int
	follow        bool
	followStream  bool
	widest        int
	widestVersion uint64
	pending       []restore

	unsubscribe func()
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTabWidth sets how many cells a tab occupies.
func WithTabWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.tabWidth = n
		}
	}
}

// WithFollowStream controls whether the view tracks the end of the document
// while a session streams.
func WithFollowStream(on bool) Option {
	return func(r *Renderer) { r.followStream = on }
}

// NewRenderer subscribes to store. The renderer starts editable.
func NewRenderer(store *document.Store, hl highlight.Highlighter, opts ...Option) *Renderer {
	if hl == nil {
		hl = highlight.Plain{}
	}
	r := &Renderer{
		store:        store,
		hl:           hl,
		tabWidth:     4,
		followStream: true,
		log:          log.For(log.ScopeEditor),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.doc = store.Get()
	r.widestVersion = ^uint64(0)
	r.unsubscribe = store.Subscribe(r.onDocument)
	return r
}

// Close detaches the renderer from the store.
func (r *Renderer) Close() {
	r.unsubscribe()
}

// TabWidth is the cell width of a tab.
func (r *Renderer) TabWidth() int { return r.tabWidth }

func (r *Renderer) onDocument(d document.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc = d
	r.anchor = clampOffset(d.Text, r.anchor)
	r.head = clampOffset(d.Text, r.head)
	if r.mode == ModeStreamingReadOnly && r.follow {
		r.top = r.maxTopLocked()
	}
	r.clampScrollLocked()
}

// OnSession switches between the editable and read-only states.
func (r *Renderer) OnSession(info stream.SessionInfo) {
	r.editMu.Lock()
	defer r.editMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	switch info.Status {
	case stream.StatusRunning:
		r.mode = ModeStreamingReadOnly
		r.follow = r.followStream
		r.applyCommittedLocked()
	case stream.StatusSuperseded:
		// A new session follows immediately; stay read-only.
	default:
		r.mode = ModeIdleEditable
		r.follow = false
	}
	r.log.Debugf("mode=%s session=%s status=%s", r.mode, info.ID, info.Status)
}

// Mode returns the current state.
func (r *Renderer) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// Following reports whether the view tracks the end of a streaming document.
func (r *Renderer) Following() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.follow && r.mode == ModeStreamingReadOnly
}

// Snapshot returns all layers derived from a single document version.
func (r *Renderer) Snapshot() Frame {
	r.mu.RLock()
	doc := r.doc
	mode := r.mode
	top, left := r.top, r.left
	sel := normalize(r.anchor, r.head)
	head := r.head
	r.mu.RUnlock()

	numbers := r.index.At(doc.Version, doc.Text)
	return Frame{
		Mode: mode,
		Gutter: Gutter{
			Version: doc.Version,
			Lines:   numbers,
			Width:   lines.Width(len(numbers), MinGutterWidth),
			Top:     top,
		},
		Overlay: Overlay{
			Version: doc.Version,
			Markup:  r.hl.Highlight(doc.Text),
			Top:     top,
			Left:    left,
		},
		Input: Input{
			Version:   doc.Version,
			Text:      doc.Text,
			Selection: sel,
			Cursor:    head,
			Top:       top,
			Left:      left,
			ReadOnly:  mode == ModeStreamingReadOnly,
		},
	}
}

// Resize sets the visible text area in cells and lines.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = max(width, 0), max(height, 0)
	if r.mode == ModeStreamingReadOnly && r.follow {
		r.top = r.maxTopLocked()
	}
	r.clampScrollLocked()
}

// ScrollInput scrolls the input layer; the gutter and overlay follow in the
// same step. While streaming, scrolling away from the bottom stops following
// the tail and scrolling back to it resumes.
func (r *Renderer) ScrollInput(top, left int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollToLocked(top, left)
}

// ScrollBy scrolls relative to the current offsets.
func (r *Renderer) ScrollBy(dy, dx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollToLocked(r.top+dy, r.left+dx)
}

func (r *Renderer) scrollToLocked(top, left int) {
	r.top, r.left = top, left
	r.clampScrollLocked()
	if r.mode == ModeStreamingReadOnly && r.followStream {
		r.follow = r.top >= r.maxTopLocked()
	}
}

func (r *Renderer) maxTopLocked() int {
	n := lines.Count(r.doc.Text)
	if r.height <= 0 {
		return n - 1
	}
	return max(0, n-r.height)
}

func (r *Renderer) maxLeftLocked() int {
	if r.widestVersion != r.doc.Version {
		r.widest = longestLine(r.doc.Text, r.tabWidth)
		r.widestVersion = r.doc.Version
	}
	if r.width <= 0 {
		return r.widest
	}
	return max(0, r.widest-r.width+1)
}

func (r *Renderer) clampScrollLocked() {
	r.top = min(max(r.top, 0), r.maxTopLocked())
	r.left = min(max(r.left, 0), r.maxLeftLocked())
}

// ensureCursorVisibleLocked scrolls the minimum needed to show the cursor.
func (r *Renderer) ensureCursorVisibleLocked() {
	text := r.doc.Text
	line := lineOf(text, r.head)
	if line < r.top {
		r.top = line
	}
	if r.height > 0 && line >= r.top+r.height {
		r.top = line - r.height + 1
	}
	col := DisplayColumn(text, r.head, r.tabWidth)
	if col < r.left {
		r.left = col
	}
	if r.width > 0 && col >= r.left+r.width {
		r.left = col - r.width + 1
	}
	r.clampScrollLocked()
}

// Flush applies cursor restorations queued by InsertIndent whose document
// version has been committed. It returns how many were applied.
func (r *Renderer) Flush() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyCommittedLocked()
}

// Pending reports how many cursor restorations are queued.
func (r *Renderer) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

func (r *Renderer) applyCommittedLocked() int {
	applied := 0
	keep := r.pending[:0]
	for _, p := range r.pending {
		if p.version > r.doc.Version {
			keep = append(keep, p)
			continue
		}
		r.anchor = clampOffset(r.doc.Text, p.cursor)
		r.head = r.anchor
		applied++
	}
	r.pending = keep
	if applied > 0 {
		r.ensureCursorVisibleLocked()
	}
	return applied
}

// edit runs fn on the current text and selection and commits its result.
// It reports false in the read-only state or when fn declines.
func (r *Renderer) edit(fn func(text string, sel Selection) (string, int, bool)) bool {
	r.editMu.Lock()
	defer r.editMu.Unlock()

	r.mu.Lock()
	if r.mode == ModeStreamingReadOnly {
		r.mu.Unlock()
		return false
	}
	r.applyCommittedLocked()
	text := r.doc.Text
	sel := normalize(r.anchor, r.head)
	r.mu.Unlock()

	next, cursor, ok := fn(text, sel)
	if !ok {
		return false
	}
	if next != text {
		r.store.Set(next)
	}

	r.mu.Lock()
	r.anchor = clampOffset(r.doc.Text, cursor)
	r.head = r.anchor
	r.ensureCursorVisibleLocked()
	r.mu.Unlock()
	return true
}

// InsertIndent replaces the selection with two spaces. The cursor is placed
// after them by the next Flush, once the new document has been committed.
func (r *Renderer) InsertIndent() bool {
	r.editMu.Lock()
	defer r.editMu.Unlock()

	r.mu.Lock()
	if r.mode == ModeStreamingReadOnly {
		r.mu.Unlock()
		return false
	}
	r.applyCommittedLocked()
	text := r.doc.Text
	sel := normalize(r.anchor, r.head)
	r.mu.Unlock()

	d := r.store.Set(text[:sel.Start] + Indent + text[sel.End:])

	r.mu.Lock()
	r.pending = append(r.pending, restore{version: d.Version, cursor: sel.Start + len(Indent)})
	r.mu.Unlock()
	return true
}

// InsertText replaces the selection with s.
func (r *Renderer) InsertText(s string) bool {
	return r.edit(func(text string, sel Selection) (string, int, bool) {
		return text[:sel.Start] + s + text[sel.End:], sel.Start + len(s), true
	})
}

// Newline inserts a line break.
func (r *Renderer) Newline() bool {
	return r.InsertText("\n")
}

// DeleteBackward removes the selection, or the rune before the cursor.
func (r *Renderer) DeleteBackward() bool {
	return r.edit(func(text string, sel Selection) (string, int, bool) {
		if !sel.Empty() {
			return text[:sel.Start] + text[sel.End:], sel.Start, true
		}
		if sel.Start == 0 {
			return text, 0, true
		}
		_, size := utf8.DecodeLastRuneInString(text[:sel.Start])
		return text[:sel.Start-size] + text[sel.Start:], sel.Start - size, true
	})
}

// DeleteForward removes the selection, or the rune after the cursor.
func (r *Renderer) DeleteForward() bool {
	return r.edit(func(text string, sel Selection) (string, int, bool) {
		if !sel.Empty() {
			return text[:sel.Start] + text[sel.End:], sel.Start, true
		}
		if sel.Start == len(text) {
			return text, sel.Start, true
		}
		_, size := utf8.DecodeRuneInString(text[sel.Start:])
		return text[:sel.Start] + text[sel.Start+size:], sel.Start, true
	})
}

// MoveCursor moves the cursor. With extend the selection's anchor stays put.
func (r *Renderer) MoveCursor(dir Direction, extend bool) bool {
	r.editMu.Lock()
	defer r.editMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode == ModeStreamingReadOnly {
		return false
	}
	r.applyCommittedLocked()

	text := r.doc.Text
	head := r.head
	if !extend && r.anchor != r.head && (dir == Left || dir == Right) {
		// Collapse to the side of the selection in the direction of travel.
		sel := normalize(r.anchor, r.head)
		if dir == Left {
			head = sel.Start
		} else {
			head = sel.End
		}
	} else {
		head = r.motion(text, head, dir)
	}

	r.head = head
	if !extend {
		r.anchor = head
	}
	r.ensureCursorVisibleLocked()
	return true
}

func (r *Renderer) motion(text string, head int, dir Direction) int {
	switch dir {
	case Left:
		if head == 0 {
			return 0
		}
		_, size := utf8.DecodeLastRuneInString(text[:head])
		return head - size
	case Right:
		if head == len(text) {
			return head
		}
		_, size := utf8.DecodeRuneInString(text[head:])
		return head + size
	case Up:
		return verticalMove(text, head, -1)
	case Down:
		return verticalMove(text, head, 1)
	case PageUp:
		return verticalMove(text, head, -max(r.height-1, 1))
	case PageDown:
		return verticalMove(text, head, max(r.height-1, 1))
	case LineStart:
		return lineStart(text, head)
	case LineEnd:
		return lineEnd(text, head)
	case DocStart:
		return 0
	case DocEnd:
		return len(text)
	}
	return head
}

// verticalMove moves n lines keeping the rune column where possible.
func verticalMove(text string, head, n int) int {
	start := lineStart(text, head)
	col := utf8.RuneCountInString(text[start:head])
	for ; n < 0; n++ {
		if start == 0 {
			return 0
		}
		start = lineStart(text, start-1)
	}
	for ; n > 0; n-- {
		end := lineEnd(text, start)
		if end == len(text) {
			return len(text)
		}
		start = end + 1
	}
	return advanceRunes(text, start, lineEnd(text, start), col)
}

// Select sets the selection to [anchor, head] in byte offsets.
func (r *Renderer) Select(anchor, head int) bool {
	r.editMu.Lock()
	defer r.editMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode == ModeStreamingReadOnly {
		return false
	}
	r.applyCommittedLocked()
	r.anchor = clampOffset(r.doc.Text, anchor)
	r.head = clampOffset(r.doc.Text, head)
	r.ensureCursorVisibleLocked()
	return true
}

// SelectAll selects the whole document.
func (r *Renderer) SelectAll() bool {
	return r.Select(0, len(r.store.Get().Text))
}

// CursorPosition returns the one-based line and column of the cursor.
func (r *Renderer) CursorPosition() (line, col int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	text := r.doc.Text
	return lineOf(text, r.head) + 1, utf8.RuneCountInString(text[lineStart(text, r.head):r.head]) + 1
}

func normalize(anchor, head int) Selection {
	if anchor > head {
		return Selection{Start: head, End: anchor}
	}
	return Selection{Start: anchor, End: head}
}
