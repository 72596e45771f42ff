// Package highlight turns document text into display-only markup.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// Highlighter produces markup for text. Implementations never fail; when
// highlighting is unavailable they return an unstyled rendition.
type Highlighter interface {
	Highlight(text string) string
}

// Format selects the markup a Chroma highlighter emits.
type Format int

const (
	// FormatHTML wraps tokens in <span class="..."> elements.
	FormatHTML Format = iota
	// FormatANSI wraps tokens in SGR sequences, reopened on every line.
	FormatANSI
)

// DefaultStyle is the Chroma style used when none is configured.
const DefaultStyle = "monokai"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var htmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// Plain is the highlighter used when no engine is available. It escapes
// the three HTML-significant characters and nothing else.
type Plain struct{}

func (Plain) Highlight(text string) string {
	return htmlEscaper.Replace(text)
}

// Unstyled is the ANSI counterpart of Plain. Control characters are drawn
// as their pictures; everything else is returned unchanged.
type Unstyled struct{}

func (Unstyled) Highlight(text string) string { return Visible(text) }

// Chroma highlights text with a Chroma lexer.
type Chroma struct {
	lexer   chroma.Lexer
	style   *chroma.Style
	format  Format
	profile termenv.Profile
}

// Option configures a Chroma highlighter.
type Option func(*Chroma)

// WithStyle selects a Chroma style by name.
func WithStyle(name string) Option {
	return func(c *Chroma) {
		if s := styles.Get(name); s != nil {
			c.style = s
		}
	}
}

// WithProfile sets the colour depth used by FormatANSI.
func WithProfile(p termenv.Profile) Option {
	return func(c *Chroma) { c.profile = p }
}

// New returns a Chroma highlighter for language, or the unstyled fallback
// for format when Chroma has no lexer for it.
func New(language string, format Format, opts ...Option) Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		return fallback(format)
	}
	c := &Chroma{
		lexer:   chroma.Coalesce(lexer),
		style:   styles.Get(DefaultStyle),
		format:  format,
		profile: termenv.TrueColor,
	}
	if c.style == nil {
		c.style = styles.Fallback
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func fallback(format Format) Highlighter {
	if format == FormatANSI {
		return Unstyled{}
	}
	return Plain{}
}

// Highlight renders text. If the lexer would change any character of the
// input the unstyled fallback is used instead, so stripping the markup
// always gives back text (for FormatANSI, Visible(text)).
func (c *Chroma) Highlight(text string) string {
	if text == "" {
		return ""
	}
	tokens, ok := c.tokenise(text)
	if !ok {
		return fallback(c.format).Highlight(text)
	}

	var b strings.Builder
	b.Grow(len(text) * 2)
	for _, tok := range tokens {
		switch c.format {
		case FormatANSI:
			c.writeANSI(&b, tok)
		default:
			writeHTML(&b, tok)
		}
	}
	return b.String()
}

// tokenise returns the token stream only if it reproduces text exactly.
// Lexers that append a final newline are tolerated by trimming it.
func (c *Chroma) tokenise(text string) ([]chroma.Token, bool) {
	it, err := c.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		return nil, false
	}
	tokens := it.Tokens()

	var n int
	for _, tok := range tokens {
		n += len(tok.Value)
	}
	if n == len(text)+1 && len(tokens) > 0 && !strings.HasSuffix(text, "\n") {
		last := &tokens[len(tokens)-1]
		if strings.HasSuffix(last.Value, "\n") {
			last.Value = strings.TrimSuffix(last.Value, "\n")
		}
	}

	var joined strings.Builder
	joined.Grow(len(text))
	for _, tok := range tokens {
		joined.WriteString(tok.Value)
	}
	if joined.String() != text {
		return nil, false
	}
	return tokens, true
}

func writeHTML(b *strings.Builder, tok chroma.Token) {
	if tok.Value == "" {
		return
	}
	class := className(tok.Type)
	if class == "" {
		b.WriteString(htmlEscaper.Replace(tok.Value))
		return
	}
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(htmlEscaper.Replace(tok.Value))
	b.WriteString("</span>")
}

func className(t chroma.TokenType) string {
	if c, ok := chroma.StandardTypes[t]; ok {
		return c
	}
	if c, ok := chroma.StandardTypes[t.SubCategory()]; ok {
		return c
	}
	return chroma.StandardTypes[t.Category()]
}

// writeANSI styles each line of the token separately so a line cut out of
// the result carries its own styling. Control characters in the token are
// drawn as pictures.
func (c *Chroma) writeANSI(b *strings.Builder, tok chroma.Token) {
	seq := c.sgr(tok.Type)
	for i, part := range strings.Split(tok.Value, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if part == "" {
			continue
		}
		part = Visible(part)
		if seq == "" {
			b.WriteString(part)
			continue
		}
		b.WriteString("\x1b[")
		b.WriteString(seq)
		b.WriteByte('m')
		b.WriteString(part)
		b.WriteString("\x1b[0m")
	}
}

func (c *Chroma) sgr(t chroma.TokenType) string {
	entry := c.style.Get(t)
	var codes []string
	if entry.Colour.IsSet() {
		if col := c.profile.Color(entry.Colour.String()); col != nil {
			if s := col.Sequence(false); s != "" {
				codes = append(codes, s)
			}
		}
	}
	if entry.Bold == chroma.Yes {
		codes = append(codes, "1")
	}
	if entry.Italic == chroma.Yes {
		codes = append(codes, "3")
	}
	if entry.Underline == chroma.Yes {
		codes = append(codes, "4")
	}
	return strings.Join(codes, ";")
}

// WriteCSS writes the stylesheet matching the classes FormatHTML emits.
func (c *Chroma) WriteCSS(w io.Writer) error {
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, c.style)
}

// StripHTML removes the span markup and entity escapes emitted by FormatHTML
// and Plain.
func StripHTML(markup string) string {
	var b strings.Builder
	b.Grow(len(markup))
	inTag := false
	for i := 0; i < len(markup); i++ {
		switch ch := markup[i]; {
		case ch == '<':
			inTag = true
		case ch == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteByte(ch)
		}
	}
	return htmlUnescaper.Replace(b.String())
}
