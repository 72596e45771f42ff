package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/samsaffron/genweb/internal/highlight"
)

func lineStart(text string, off int) int {
	return strings.LastIndexByte(text[:off], '\n') + 1
}

func lineEnd(text string, off int) int {
	if i := strings.IndexByte(text[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(text)
}

// lineOf returns the zero-based line containing off.
func lineOf(text string, off int) int {
	return strings.Count(text[:off], "\n")
}

// advanceRunes moves n runes forward from start without crossing limit.
func advanceRunes(text string, start, limit, n int) int {
	off := start
	for ; n > 0 && off < limit; n-- {
		_, size := utf8.DecodeRuneInString(text[off:limit])
		off += size
	}
	return off
}

// clampOffset bounds off to text and moves it back to a rune boundary.
func clampOffset(text string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(text) {
		return len(text)
	}
	for off > 0 && off < len(text) && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}

// DisplayColumn returns the terminal column of off within its line, with
// each tab drawn as tabWidth spaces.
func DisplayColumn(text string, off, tabWidth int) int {
	return DisplayWidth(text[lineStart(text, off):off], tabWidth)
}

// DisplayWidth is the terminal width of s, with each tab drawn as tabWidth
// spaces and each control character as its one-cell picture.
func DisplayWidth(s string, tabWidth int) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += tabWidth
			continue
		}
		if _, ok := highlight.ControlPicture(r); ok {
			w++
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

// longestLine returns the display width of the widest line.
func longestLine(text string, tabWidth int) int {
	widest := 0
	for _, line := range strings.Split(text, "\n") {
		widest = max(widest, DisplayWidth(line, tabWidth))
	}
	return widest
}
