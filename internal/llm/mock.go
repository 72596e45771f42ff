package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// MockStep is one scripted event of a MockProvider turn.
type MockStep struct {
	Text  string
	Err   error         // ends the stream with this error
	Delay time.Duration // wait before emitting
	Usage *Usage        // emitted as an EventUsage instead of text
}

// MockProvider replays scripted turns. Each Stream call consumes the next
// turn; once the script is exhausted the last turn repeats.
type MockProvider struct {
	name string

	respond func(Request) []MockStep

	mu       sync.Mutex
	turns    [][]MockStep
	next     int
	requests []Request
}

// NewMockProvider creates a provider that replays turns in order.
func NewMockProvider(name string, turns ...[]MockStep) *MockProvider {
	if name == "" {
		name = "mock"
	}
	return &MockProvider{name: name, turns: turns}
}

// TextTurn splits text into chunks of n bytes, each becoming one step.
func TextTurn(text string, n int, delay time.Duration) []MockStep {
	if n <= 0 {
		n = len(text)
	}
	var steps []MockStep
	for len(text) > 0 {
		k := min(n, len(text))
		steps = append(steps, MockStep{Text: text[:k], Delay: delay})
		text = text[k:]
	}
	return steps
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Credential() string {
	return "none"
}

// Requests returns every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var steps []MockStep
	if m.respond != nil {
		steps = m.respond(req)
	} else if len(m.turns) > 0 {
		idx := min(m.next, len(m.turns)-1)
		steps = m.turns[idx]
		m.next++
	}
	m.mu.Unlock()

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for _, step := range steps {
			if step.Delay > 0 {
				if err := sleepContext(ctx, step.Delay); err != nil {
					return err
				}
			}
			if step.Err != nil {
				return step.Err
			}
			ev := Event{Type: EventTextDelta, Text: step.Text}
			if step.Usage != nil {
				ev = Event{Type: EventUsage, Use: step.Usage}
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

// ErrMockFailure is a convenience error for scripted failures.
var ErrMockFailure = errors.New("mock provider failure")

// NewDemoProvider returns a MockProvider that answers every request with
// DemoTurn, so the editor can be tried without an API key.
func NewDemoProvider() *MockProvider {
	return &MockProvider{
		name: "mock",
		respond: func(req Request) []MockStep {
			var prompt string
			for _, msg := range req.Messages {
				if msg.Role == RoleUser {
					prompt = msg.Text
				}
			}
			return DemoTurn(demoTitle(prompt))
		},
	}
}

// DemoTurn builds a mock turn that echoes the last user message into a
// small page, chunked the way a real model streams.
func DemoTurn(prompt string) []MockStep {
	page := "```html\n<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n  <meta charset=\"UTF-8\">\n" +
		"  <script src=\"https://cdn.tailwindcss.com\"></script>\n</head>\n" +
		"<body class=\"min-h-screen flex items-center justify-center bg-slate-900 text-white\">\n" +
		"  <h1 class=\"text-4xl font-bold\">" + strings.NewReplacer("<", "&lt;", ">", "&gt;", "&", "&amp;").Replace(prompt) + "</h1>\n" +
		"</body>\n</html>\n```"
	steps := TextTurn(page, 24, 30*time.Millisecond)
	// Rough token estimate so the demo exercises usage reporting.
	return append(steps, MockStep{Usage: &Usage{InputTokens: len(prompt) / 4, OutputTokens: len(page) / 4}})
}

// demoTitle recovers the user's request from a generation prompt.
func demoTitle(prompt string) string {
	if _, after, ok := strings.Cut(prompt, "User Request:"); ok {
		prompt, _, _ = strings.Cut(after, "Return the fully updated")
	}
	prompt, _, _ = strings.Cut(prompt, ". Ensure you include")
	return strings.TrimSpace(prompt)
}
