// Package generate adapts LLM providers into ordered fragment streams of
// website markup.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samsaffron/genweb/internal/llm"
)

// FailureMessage is the notice shown when a session fails.
const FailureMessage = "Failed to generate website. Please check your API key or try again."

// ErrMissingAPIKey reports that the configured provider has no key.
var ErrMissingAPIKey = llm.ErrMissingAPIKey

// Fragment is one piece of generated text. Fragments concatenate in order.
type Fragment struct {
	Text string
}

// FragmentStream yields fragments until io.EOF.
type FragmentStream interface {
	Recv() (Fragment, error)
	Close() error
}

// Source starts a generation. A nil prior requests a fresh page; otherwise
// the model rewrites *prior according to prompt.
type Source interface {
	Generate(ctx context.Context, prompt string, prior *string) (FragmentStream, error)
}

// Error is a failed generation.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown to the user for this failure.
func (e *Error) UserMessage() string {
	if errors.Is(e.Err, ErrMissingAPIKey) {
		return FailureMessage + " (no API key configured)"
	}
	return FailureMessage
}

// AsError wraps err as *Error unless it already is one.
func AsError(provider string, err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Provider: provider, Err: err}
}

// Collect drains s and returns the concatenated text.
func Collect(s FragmentStream) (string, error) {
	defer s.Close()
	var out []byte
	for {
		f, err := s.Recv()
		if err == io.EOF {
			return string(out), nil
		}
		if err != nil {
			return string(out), err
		}
		out = append(out, f.Text...)
	}
}
