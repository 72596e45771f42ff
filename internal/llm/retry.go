package llm

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// RetryConfig bounds how often and how patiently a generation is restarted.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig returns the policy used for provider sessions.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// RetryProvider restarts a generation that fails with a transient error.
//
// A stream is only retried while none of its text has been forwarded;
// restarting after that would repeat markup the caller already holds.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// WrapWithRetry wraps p. MaxAttempts below one means a single attempt.
func WrapWithRetry(p Provider, config RetryConfig) Provider {
	config.MaxAttempts = max(config.MaxAttempts, 1)
	return &RetryProvider{inner: p, config: config, sleep: sleepContext}
}

func (r *RetryProvider) Name() string       { return r.inner.Name() }
func (r *RetryProvider) Credential() string { return r.inner.Credential() }

func (r *RetryProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for attempt := 1; ; attempt++ {
			started, err := r.attempt(ctx, req, events)
			if err == nil {
				return nil
			}
			if started || !isRetryable(err) || attempt >= r.config.MaxAttempts {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			wait := r.calculateBackoff(attempt, err)
			select {
			case events <- Event{
				Type:             EventRetry,
				Err:              err,
				RetryAttempt:     attempt,
				RetryMaxAttempts: r.config.MaxAttempts,
				RetryWaitSecs:    wait.Seconds(),
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := r.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}), nil
}

// attempt runs one generation, forwarding its events. started reports
// whether any page text reached the caller.
func (r *RetryProvider) attempt(ctx context.Context, req Request, events chan<- Event) (started bool, err error) {
	stream, err := r.inner.Stream(ctx, req)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return started, nil
		}
		if err != nil {
			return started, err
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return started, ctx.Err()
		}
		if event.Type == EventTextDelta && event.Text != "" {
			started = true
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusCode extracts the HTTP status from the SDK error types.
func statusCode(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code, true
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) {
		return geminiErrPtr.Code, true
	}
	return 0, false
}

func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // anthropic overloaded
		return true
	}
	return false
}

// transientMarkers are substrings of error messages from transports that
// carry no typed status.
var transientMarkers = []string{
	"429", "rate limit", "too many requests", "resource_exhausted",
	"502", "bad gateway", "503", "service unavailable", "overloaded",
	"connection refused", "connection reset", "timeout", "temporary failure", "no such host",
}

// isRetryable reports whether err is a transient failure worth another
// attempt. A missing key or a cancelled session never is.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	if code, ok := statusCode(err); ok {
		return transientStatus(code)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry[- ]?after[:\s]+(\d+)`)

// calculateBackoff honours a Retry-After hint in err, otherwise backs off
// exponentially with 25% jitter. The result never exceeds MaxBackoff.
func (r *RetryProvider) calculateBackoff(attempt int, err error) time.Duration {
	if err != nil {
		if m := retryAfterRegex.FindStringSubmatch(err.Error()); len(m) > 1 {
			if secs, parseErr := strconv.Atoi(m[1]); parseErr == nil && secs > 0 {
				return min(time.Duration(secs)*time.Second, r.config.MaxBackoff)
			}
		}
	}
	backoff := float64(r.config.BaseBackoff) * math.Pow(2, float64(attempt-1))
	backoff += (rand.Float64() - 0.5) * 0.5 * backoff
	return min(time.Duration(backoff), r.config.MaxBackoff)
}
