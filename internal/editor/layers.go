package editor

// Mode is the editing state of the renderer.
type Mode int

const (
	// ModeIdleEditable accepts edits.
	ModeIdleEditable Mode = iota
	// ModeStreamingReadOnly rejects edits while a session writes the document.
	ModeStreamingReadOnly
)

func (m Mode) String() string {
	switch m {
	case ModeIdleEditable:
		return "editable"
	case ModeStreamingReadOnly:
		return "streaming"
	default:
		return "unknown"
	}
}

// Selection is a byte range of the document, Start <= End. A collapsed
// selection is the cursor.
type Selection struct {
	Start int
	End   int
}

// Empty reports whether the selection is just a cursor.
func (s Selection) Empty() bool { return s.Start == s.End }

// Gutter is the line-number layer.
type Gutter struct {
	Version uint64
	Lines   []int
	Width   int // digits of the widest number, at least MinGutterWidth
	Top     int
}

// Overlay is the highlighted layer drawn under the input.
type Overlay struct {
	Version uint64
	Markup  string
	Top     int
	Left    int
}

// Input is the editable layer; its scroll offsets drive the other two.
type Input struct {
	Version   uint64
	Text      string
	Selection Selection
	Cursor    int // byte offset of the moving end of the selection
	Top       int
	Left      int
	ReadOnly  bool
}

// Frame is one consistent view of all layers.
type Frame struct {
	Mode    Mode
	Gutter  Gutter
	Overlay Overlay
	Input   Input
}

// MinGutterWidth is the narrowest gutter in digits.
const MinGutterWidth = 3
