// Package presets holds the welcome document and the canned prompts offered
// in the prompt bar.
package presets

import (
	_ "embed"
	"strings"

	"github.com/sahilm/fuzzy"
)

//go:embed welcome.html
var welcome string

// Welcome is the document shown before anything has been generated.
func Welcome() string { return welcome }

// IsWelcome reports whether text is the untouched welcome document. A prompt
// issued against it is a fresh request, not a modification.
func IsWelcome(text string) bool { return text == welcome }

// Prior returns the prior document to send with a prompt: nil when text is
// the welcome document.
func Prior(text string) *string {
	if IsWelcome(text) {
		return nil
	}
	return &text
}

// Preset is a named canned prompt.
type Preset struct {
	Name   string
	Prompt string
}

var all = []Preset{
	{Name: "Portfolio", Prompt: "A minimalistic personal portfolio with a dark theme"},
	{Name: "Pricing Table", Prompt: "A responsive pricing table with 3 tiers"},
	{Name: "Login Form", Prompt: "A login page with glassmorphism effect"},
}

// All returns the presets in display order.
func All() []Preset {
	out := make([]Preset, len(all))
	copy(out, all)
	return out
}

type presetSource []Preset

func (p presetSource) String(i int) string { return p[i].Name }
func (p presetSource) Len() int            { return len(p) }

// Find fuzzy-matches query against preset names, best match first. An empty
// query returns every preset.
func Find(query string) []Preset {
	query = strings.TrimSpace(query)
	if query == "" {
		return All()
	}
	matches := fuzzy.FindFrom(query, presetSource(all))
	out := make([]Preset, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Lookup returns the preset whose name best matches query.
func Lookup(query string) (Preset, bool) {
	found := Find(query)
	if strings.TrimSpace(query) == "" || len(found) == 0 {
		return Preset{}, false
	}
	return found[0], true
}
