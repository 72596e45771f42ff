// Package sanitize strips the markdown fences a model sometimes wraps around
// generated HTML, even when told not to.
package sanitize

import "strings"

const (
	// HTMLFence opens a fenced HTML block.
	HTMLFence = "```html"
	// Fence closes any fenced block.
	Fence = "```"
)

// Sanitize removes every complete fence marker from accumulated output.
//
// It is safe to call on a prefix of the final text: a marker that has only
// partially arrived is left alone and disappears once the rest of it is
// appended and Sanitize runs again. The longer marker is removed first so
// "```html" never leaves a dangling "html" behind.
func Sanitize(accumulated string) string {
	if !strings.Contains(accumulated, Fence) {
		return accumulated
	}
	out := strings.ReplaceAll(accumulated, HTMLFence, "")
	return strings.ReplaceAll(out, Fence, "")
}

// Clean reports whether s contains no complete fence marker.
func Clean(s string) bool {
	return !strings.Contains(s, Fence)
}
