package generate

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsaffron/genweb/internal/llm"
)

func TestBuildPrompt_Fresh(t *testing.T) {
	got := BuildPrompt("A landing page for a bakery", nil)
	assert.Equal(t, `A landing page for a bakery. Ensure you include <script src="https://cdn.tailwindcss.com"></script> in the head.`, got)

	got = BuildPrompt("A bakery.", nil)
	assert.True(t, strings.HasPrefix(got, "A bakery. Ensure"), got)
}

func TestBuildPrompt_Modification(t *testing.T) {
	prior := "<p>hi</p>"
	got := BuildPrompt("make it red", &prior)
	assert.Contains(t, got, "Existing Code:\n<p>hi</p>\n")
	assert.Contains(t, got, "User Request:\nmake it red\n")
	assert.NotContains(t, got, TailwindCDN)

	empty := ""
	assert.Contains(t, BuildPrompt("x", &empty), "Existing Code:")
}

func TestProviderSource_Request(t *testing.T) {
	src := NewProviderSource(llm.NewMockProvider("m"), Options{Model: "m1"})
	req := src.Request("p", nil)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, SystemInstruction, req.Messages[0].Text)
	assert.Equal(t, BuildPrompt("p", nil), req.Messages[1].Text)
	assert.Equal(t, "m1", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
}

func TestProviderSource_StreamsTextOnly(t *testing.T) {
	mock := llm.NewMockProvider("m", llm.TextTurn("```html\n<p>x</p>\n```", 5, 0))
	src := NewProviderSource(mock, Options{})

	stream, err := src.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	text, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "```html\n<p>x</p>\n```", text)
}

func TestProviderSource_WrapsFailures(t *testing.T) {
	mock := llm.NewMockProvider("m", []llm.MockStep{{Text: "<p"}, {Err: llm.ErrMockFailure}})
	src := NewProviderSource(mock, Options{})

	stream, err := src.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	text, err := Collect(stream)
	assert.Equal(t, "<p", text)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "m", ge.Provider)
	assert.ErrorIs(t, err, llm.ErrMockFailure)
	assert.Equal(t, FailureMessage, ge.UserMessage())
}

type failingProvider struct{ err error }

func (f failingProvider) Name() string       { return "broken" }
func (f failingProvider) Credential() string { return "none" }
func (f failingProvider) Stream(context.Context, llm.Request) (llm.Stream, error) {
	return nil, f.err
}

func TestProviderSource_MissingKey(t *testing.T) {
	src := NewProviderSource(failingProvider{err: ErrMissingAPIKey}, Options{})
	_, err := src.Generate(context.Background(), "p", nil)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, ge.UserMessage(), FailureMessage)
}

func TestAsError_KeepsExisting(t *testing.T) {
	orig := &Error{Provider: "a", Err: io.ErrUnexpectedEOF}
	assert.Same(t, orig, AsError("b", orig))
	assert.Equal(t, "b", AsError("b", errors.New("x")).Provider)
}

func TestStaticSource(t *testing.T) {
	stream, _ := StaticSource{Fragments: []string{"a", "", "b"}}.Generate(context.Background(), "", nil)
	text, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)

	stream, _ = StaticSource{Fragments: []string{"a"}, Err: errors.New("down")}.Generate(context.Background(), "", nil)
	_, err = Collect(stream)
	var ge *Error
	assert.ErrorAs(t, err, &ge)
}
