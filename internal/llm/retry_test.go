package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"google.golang.org/genai"
)

var errOverloaded = errors.New("503 service unavailable")

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestRetry(inner Provider, attempts int) *RetryProvider {
	p := WrapWithRetry(inner, RetryConfig{MaxAttempts: attempts, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}).(*RetryProvider)
	p.sleep = noSleep
	return p
}

func TestRetry_RetriesBeforeFirstText(t *testing.T) {
	inner := NewMockProvider("m",
		[]MockStep{{Err: errOverloaded}},
		TextTurn("<html></html>", 4, 0),
	)
	p := newTestRetry(inner, 3)

	s, _ := p.Stream(context.Background(), Request{})
	defer s.Close()

	var text string
	retries := 0
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		switch ev.Type {
		case EventRetry:
			retries++
		case EventTextDelta:
			text += ev.Text
		}
	}
	if retries != 1 {
		t.Fatalf("retries=%d, want 1", retries)
	}
	if text != "<html></html>" {
		t.Fatalf("text=%q", text)
	}
}

func TestRetry_NoRetryAfterText(t *testing.T) {
	inner := NewMockProvider("m",
		[]MockStep{{Text: "<html>"}, {Err: errOverloaded}},
		TextTurn("should not be used", 0, 0),
	)
	p := newTestRetry(inner, 3)

	s, _ := p.Stream(context.Background(), Request{})
	defer s.Close()

	ev, err := s.Recv()
	if err != nil || ev.Text != "<html>" {
		t.Fatalf("ev=%+v err=%v", ev, err)
	}
	if _, err := s.Recv(); !errors.Is(err, errOverloaded) {
		t.Fatalf("err=%v, want overloaded", err)
	}
	if n := len(inner.Requests()); n != 1 {
		t.Fatalf("inner called %d times, want 1", n)
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	bad := errors.New("invalid api key")
	inner := NewMockProvider("m", []MockStep{{Err: bad}})
	p := newTestRetry(inner, 5)

	s, _ := p.Stream(context.Background(), Request{})
	defer s.Close()
	if _, err := s.Recv(); !errors.Is(err, bad) {
		t.Fatalf("err=%v", err)
	}
	if n := len(inner.Requests()); n != 1 {
		t.Fatalf("inner called %d times, want 1", n)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := NewMockProvider("m", []MockStep{{Err: errOverloaded}})
	p := newTestRetry(inner, 3)

	s, _ := p.Stream(context.Background(), Request{})
	defer s.Close()
	for {
		_, err := s.Recv()
		if err == nil {
			continue
		}
		if !errors.Is(err, errOverloaded) {
			t.Fatalf("err=%v", err)
		}
		break
	}
	if n := len(inner.Requests()); n != 3 {
		t.Fatalf("inner called %d times, want 3", n)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := map[string]bool{
		"429 Too Many Requests":      true,
		"RESOURCE_EXHAUSTED":         true,
		"model is overloaded":        true,
		"dial tcp: connection reset": true,
		"invalid api key":            false,
	}
	for msg, want := range cases {
		if got := isRetryable(errors.New(msg)); got != want {
			t.Errorf("isRetryable(%q)=%v, want %v", msg, got, want)
		}
	}
	if isRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retried")
	}
}

func TestCalculateBackoff_RetryAfter(t *testing.T) {
	p := &RetryProvider{config: RetryConfig{BaseBackoff: time.Second, MaxBackoff: 10 * time.Second}}
	if got := p.calculateBackoff(1, errors.New("slow down, retry-after: 4")); got != 4*time.Second {
		t.Fatalf("backoff=%v, want 4s", got)
	}
	if got := p.calculateBackoff(1, errors.New("retry after 60")); got != 10*time.Second {
		t.Fatalf("backoff=%v, want capped 10s", got)
	}
}

func TestIsRetryable_TypedStatus(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("stream: %w", genai.APIError{Code: 503, Message: "unavailable"}), true},
		{fmt.Errorf("stream: %w", genai.APIError{Code: 429, Message: "quota"}), true},
		// A typed status wins over a misleading message.
		{genai.APIError{Code: 400, Message: "request timeout field invalid"}, false},
		{fmt.Errorf("gemini: %w", ErrMissingAPIKey), false},
	}
	for _, c := range cases {
		if got := isRetryable(c.err); got != c.want {
			t.Errorf("isRetryable(%v)=%v, want %v", c.err, got, c.want)
		}
	}
}
