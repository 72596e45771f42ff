package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func collectText(t *testing.T, s Stream) string {
	t.Helper()
	var b strings.Builder
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return b.String()
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if ev.Type == EventTextDelta {
			b.WriteString(ev.Text)
		}
	}
}

func TestEventStream_ErrorAfterEvents(t *testing.T) {
	boom := errors.New("boom")
	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		events <- Event{Type: EventTextDelta, Text: "a"}
		events <- Event{Type: EventTextDelta, Text: "b"}
		return boom
	})
	defer s.Close()

	for _, want := range []string{"a", "b"} {
		ev, err := s.Recv()
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if ev.Text != want {
			t.Fatalf("text=%q, want %q", ev.Text, want)
		}
	}
	if _, err := s.Recv(); !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
}

func TestEventStream_CloseStopsProducer(t *testing.T) {
	stopped := make(chan struct{})
	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		defer close(stopped)
		for {
			select {
			case events <- Event{Type: EventTextDelta, Text: "x"}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	if _, err := s.Recv(); err != nil {
		t.Fatalf("recv: %v", err)
	}
	s.Close()
	s.Close()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("producer still running after Close")
	}
}

func TestMockProvider_ReplaysTurns(t *testing.T) {
	m := NewMockProvider("", TextTurn("hello world", 3, 0), []MockStep{{Text: "par"}, {Err: ErrMockFailure}})
	ctx := context.Background()

	s, _ := m.Stream(ctx, Request{Messages: []Message{UserText("one")}})
	if got := collectText(t, s); got != "hello world" {
		t.Fatalf("first turn=%q", got)
	}
	s.Close()

	s, _ = m.Stream(ctx, Request{Messages: []Message{UserText("two")}})
	defer s.Close()
	ev, err := s.Recv()
	if err != nil || ev.Text != "par" {
		t.Fatalf("ev=%+v err=%v", ev, err)
	}
	if _, err := s.Recv(); !errors.Is(err, ErrMockFailure) {
		t.Fatalf("err=%v, want ErrMockFailure", err)
	}

	reqs := m.Requests()
	if len(reqs) != 2 || reqs[1].Messages[0].Text != "two" {
		t.Fatalf("requests=%+v", reqs)
	}
}

func TestTextTurn(t *testing.T) {
	steps := TextTurn("abcdefg", 3, 0)
	var parts []string
	for _, s := range steps {
		parts = append(parts, s.Text)
	}
	if strings.Join(parts, "|") != "abc|def|g" {
		t.Fatalf("parts=%v", parts)
	}
	if len(TextTurn("", 3, 0)) != 0 {
		t.Fatal("empty text should produce no steps")
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{SystemText("a"), UserText("u"), SystemText("b"), AssistantText(""), AssistantText("x")})
	if system != "a\n\nb" {
		t.Fatalf("system=%q", system)
	}
	if len(turns) != 2 || turns[0].Text != "u" || turns[1].Text != "x" {
		t.Fatalf("turns=%+v", turns)
	}
}
