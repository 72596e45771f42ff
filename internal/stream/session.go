package stream

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
	StatusCanceled   Status = "canceled"
)

// Finished reports whether the session has stopped for good.
func (s Status) Finished() bool { return s != StatusRunning }

// SessionInfo describes a session at one point of its lifecycle.
type SessionInfo struct {
	ID           uuid.UUID
	Prompt       string
	Modification bool // a prior document was sent
	Status       Status
	StartedAt    time.Time
	EndedAt      time.Time
	Fragments    int
	BeforeBytes  int // document size when the session started
	AfterBytes   int // document size when it ended
	InputTokens  int // reported by the source on completion, if at all
	OutputTokens int
	Err          error
}

// Duration is how long the session ran, or has run so far.
func (i SessionInfo) Duration() time.Duration {
	if i.EndedAt.IsZero() {
		return time.Since(i.StartedAt)
	}
	return i.EndedAt.Sub(i.StartedAt)
}

// Session is one generation run. Its fields are owned by the Controller.
type Session struct {
	ID     uuid.UUID
	Prompt string

	prior    *string
	snapshot string
	cancel   context.CancelFunc
	done     chan struct{}

	// guarded by Controller.mu
	active      bool
	accumulated string
	info        SessionInfo
}

// Wait blocks until the session's goroutine has exited.
func (s *Session) Wait() { <-s.done }

// Done is closed when the session's goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Observer is told about session lifecycle changes. Observers run while
// the controller holds its lock; they may read the document store but must
// not call back into the controller.
type Observer interface {
	OnSession(info SessionInfo)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(SessionInfo)

func (f ObserverFunc) OnSession(info SessionInfo) { f(info) }
