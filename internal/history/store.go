// Package history records generation sessions: prompts and outcomes, never
// the documents themselves.
package history

import (
	"context"
	"time"
)

// Status mirrors the session lifecycle.
type Status string

const (
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
	StatusCanceled   Status = "canceled"
)

// Entry is one recorded session.
type Entry struct {
	ID           string
	Prompt       string
	Provider     string
	Modification bool
	Status       Status
	StartedAt    time.Time
	EndedAt      time.Time // zero while running
	Fragments    int
	BeforeBytes  int
	AfterBytes   int
	InputTokens  int
	OutputTokens int
	Error        string
}

// Duration is EndedAt-StartedAt, or zero while running.
func (e Entry) Duration() time.Duration {
	if e.EndedAt.IsZero() {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// ListOptions filters List.
type ListOptions struct {
	Status Status
	Query  string // substring of the prompt
	Limit  int    // 0 means 50, negative means all
	Offset int
}

// Store persists entries.
type Store interface {
	// Record inserts e or replaces the entry with the same ID.
	Record(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// Config holds history storage configuration.
type Config struct {
	Path     string
	MaxCount int // keep at most N entries (0=unlimited)
}
