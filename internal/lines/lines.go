// Package lines derives the gutter's line numbering from document text.
package lines

import (
	"strings"
	"sync"
)

// Count returns the number of lines in text. The empty string is one line,
// and a trailing newline opens a new, empty line.
func Count(text string) int {
	return strings.Count(text, "\n") + 1
}

// Compute returns the line numbers 1..N for text.
func Compute(text string) []int {
	n := Count(text)
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Width returns the number of digits needed to print the largest line number,
// never less than floor.
func Width(n, floor int) int {
	w := 1
	for n >= 10 {
		n /= 10
		w++
	}
	if w < floor {
		return floor
	}
	return w
}

// Index memoizes Compute by document version so repeated renders of an
// unchanged document reuse the same slice.
type Index struct {
	mu      sync.Mutex
	version uint64
	valid   bool
	numbers []int
}

// At returns the line numbers for text at version. Callers must not modify
// the returned slice.
func (x *Index) At(version uint64, text string) []int {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.valid && x.version == version {
		return x.numbers
	}
	x.numbers = Compute(text)
	x.version = version
	x.valid = true
	return x.numbers
}
