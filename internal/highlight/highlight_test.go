package highlight

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const sample = `<!DOCTYPE html>
<html>
<head><script src="https://cdn.tailwindcss.com"></script></head>
<body class="p-4">
	<h1>Tom & Jerry</h1>
	<p>a < b > c</p>
</body>
</html>`

func TestPlain_EscapesOnlyMarkupCharacters(t *testing.T) {
	got := Plain{}.Highlight(`a & b < c > d "e" 'f'`)
	assert.Equal(t, `a &amp; b &lt; c &gt; d "e" 'f'`, got)
	assert.Equal(t, "", Plain{}.Highlight(""))
}

func TestChromaHTML_RoundTrip(t *testing.T) {
	h := New("html", FormatHTML)
	_, isChroma := h.(*Chroma)
	require.True(t, isChroma)

	markup := h.Highlight(sample)
	assert.Contains(t, markup, `<span class="`)
	assert.Equal(t, sample, StripHTML(markup))
}

func TestChromaANSI_RoundTrip(t *testing.T) {
	h := New("html", FormatANSI)
	markup := h.Highlight(sample)
	assert.Contains(t, markup, "\x1b[")
	assert.Equal(t, sample, ansi.Strip(markup))
}

func TestChromaANSI_EveryLineIsSelfContained(t *testing.T) {
	h := New("html", FormatANSI)
	markup := h.Highlight("<!-- a\nmultiline\ncomment -->")
	for _, line := range strings.Split(markup, "\n") {
		opens := strings.Count(line, "\x1b[") - strings.Count(line, "\x1b[0m")
		resets := strings.Count(line, "\x1b[0m")
		assert.Equal(t, opens, resets, "line %q", line)
	}
}

func TestChromaANSI_AsciiProfileHasNoColour(t *testing.T) {
	h := New("html", FormatANSI, WithProfile(termenv.Ascii))
	markup := h.Highlight("<p>hi</p>")
	assert.NotContains(t, markup, "38;")
	assert.Equal(t, "<p>hi</p>", ansi.Strip(markup))
}

func TestChromaANSI_ControlBytesAreVisible(t *testing.T) {
	text := "<p>a\x1b[31mb</p>"
	for _, h := range []Highlighter{New("html", FormatANSI), Unstyled{}} {
		markup := h.Highlight(text)
		assert.NotContains(t, markup, "\x1b[31m")
		assert.Equal(t, "<p>a\u241b[31mb</p>", ansi.Strip(markup))
	}
}

func TestVisible(t *testing.T) {
	assert.Equal(t, "a\tb\r\n", Visible("a\tb\r\n"))
	assert.Equal(t, "\u2400\u241b\u2421", Visible("\x00\x1b\x7f"))
	_, ok := ControlPicture('é')
	assert.False(t, ok)
}

func TestNew_UnknownLanguageFallsBack(t *testing.T) {
	assert.IsType(t, Plain{}, New("no-such-language", FormatHTML))
	assert.IsType(t, Unstyled{}, New("no-such-language", FormatANSI))
}

func TestChroma_CRLFStillRoundTrips(t *testing.T) {
	text := "<p>one</p>\r\n<p>two</p>\r\n"
	h := New("html", FormatHTML)
	assert.Equal(t, text, StripHTML(h.Highlight(text)))
}

func TestRoundTripProperty(t *testing.T) {
	htmlH := New("html", FormatHTML)
	ansiH := New("html", FormatANSI)
	pieces := []string{"<div>", "</div>", "<p class=\"x\">", "&", "<", ">", "text", " ", "\n", "\t", "<!--", "-->", "\"", "é", "<script>", "</script>", "{", "}", "\x1b", "\x1b[31m", "\x00", "\r\n"}
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOf(rapid.SampledFrom(pieces)).Draw(t, "parts")
		text := strings.Join(parts, "")
		if got := StripHTML(htmlH.Highlight(text)); got != text {
			t.Fatalf("html round trip: got %q want %q", got, text)
		}
		if got := ansi.Strip(ansiH.Highlight(text)); got != Visible(text) {
			t.Fatalf("ansi round trip: got %q want %q", got, Visible(text))
		}
		if got := StripHTML(Plain{}.Highlight(text)); got != text {
			t.Fatalf("plain round trip: got %q want %q", got, text)
		}
	})
}

type countingHighlighter struct{ calls int }

func (c *countingHighlighter) Highlight(text string) string {
	c.calls++
	return "[" + text + "]"
}

func TestCached(t *testing.T) {
	inner := &countingHighlighter{}
	c := NewCached(inner, 0)

	assert.Equal(t, "[a]", c.Highlight("a"))
	assert.Equal(t, "[a]", c.Highlight("a"))
	assert.Equal(t, 1, inner.calls)

	assert.Equal(t, "[b]", c.Highlight("b"))
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, c.Len())
}

func TestWriteCSS(t *testing.T) {
	h := New("html", FormatHTML).(*Chroma)
	var b strings.Builder
	require.NoError(t, h.WriteCSS(&b))
	assert.Contains(t, b.String(), ".nt")
}
