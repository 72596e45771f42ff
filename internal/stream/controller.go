// Package stream runs generation sessions and applies their fragments to
// the document store.
package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/document"
	"github.com/samsaffron/genweb/internal/generate"
	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/sanitize"
)

// Controller owns the single active generation session.
//
// At most one session is active. Starting a session supersedes the previous
// one; fragments, completion and failure of a superseded session are
// dropped.
type Controller struct {
	store       *document.Store
	source      generate.Source
	placeholder string
	log         logging.LeveledLogger

	mu        sync.Mutex
	current   *Session
	lastErr   *generate.Error
	observers []Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithPlaceholder publishes text when a session starts, until its first
// fragment arrives. Empty disables the placeholder.
func WithPlaceholder(text string) Option {
	return func(c *Controller) { c.placeholder = text }
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// NewController creates a controller writing to store.
func NewController(store *document.Store, source generate.Source, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		source: source,
		log:    log.For(log.ScopeStream),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddObserver registers o for future lifecycle changes.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Start begins a session for prompt. A nil prior asks for a fresh page.
// The returned session is already current when Start returns.
func (c *Controller) Start(ctx context.Context, prompt string, prior *string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	// A superseded session that never produced a fragment is still showing
	// the placeholder; its own snapshot is the real pre-session content.
	var inherited *string
	if old := c.current; old != nil && old.active {
		old.active = false
		old.cancel()
		if old.info.Fragments == 0 && c.placeholder != "" {
			inherited = &old.snapshot
		}
		c.finishLocked(old, StatusSuperseded, now, nil)
		c.log.Debugf("session %s superseded", old.ID)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:     uuid.New(),
		Prompt: prompt,
		prior:  prior,
		cancel: cancel,
		done:   make(chan struct{}),
		active: true,
	}
	s.info = SessionInfo{
		ID:           s.ID,
		Prompt:       prompt,
		Modification: prior != nil,
		Status:       StatusRunning,
		StartedAt:    now,
	}
	if inherited != nil {
		s.info.BeforeBytes = len(*inherited)
	} else {
		s.info.BeforeBytes = c.store.Get().Len()
	}
	c.current = s
	c.lastErr = nil
	c.log.Infof("session %s started modification=%t", s.ID, prior != nil)

	// Observers lock the editor read-only here; an edit already in flight
	// commits before the snapshot below is taken.
	c.notifyLocked(s.info)
	if inherited != nil {
		s.snapshot = *inherited
	} else {
		s.snapshot = c.store.Get().Text
	}
	s.info.BeforeBytes = len(s.snapshot)

	if c.placeholder != "" {
		c.store.Set(c.placeholder)
	}

	go c.run(sctx, s)
	return s
}

// Cancel stops the active session and keeps whatever it produced so far.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.current
	if s == nil || !s.active {
		return false
	}
	s.active = false
	s.cancel()
	if s.info.Fragments == 0 && c.placeholder != "" {
		c.store.Set(s.snapshot)
	}
	c.finishLocked(s, StatusCanceled, time.Now(), nil)
	c.log.Infof("session %s canceled", s.ID)
	return true
}

// Active reports whether a session is streaming.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.active
}

// Current returns the latest session, active or not.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Err returns the failure of the latest session, if it failed.
func (c *Controller) Err() *generate.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) run(ctx context.Context, s *Session) {
	defer close(s.done)
	defer s.cancel()

	fs, err := c.source.Generate(ctx, s.Prompt, s.prior)
	if err != nil {
		c.fail(s, err)
		return
	}
	defer fs.Close()

	for {
		f, err := fs.Recv()
		if errors.Is(err, io.EOF) {
			c.complete(s, fs)
			return
		}
		if err != nil {
			c.fail(s, err)
			return
		}
		if !c.apply(s, f) {
			return
		}
	}
}

// apply appends f to the session's text and publishes the sanitized result.
// It returns false once the session is no longer current.
func (c *Controller) apply(s *Session, f generate.Fragment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != s || !s.active {
		c.log.Debugf("session %s: dropping fragment of superseded session", s.ID)
		return false
	}
	if f.Text == "" {
		return true
	}
	s.accumulated += f.Text
	s.info.Fragments++
	c.store.Set(sanitize.Sanitize(s.accumulated))
	return true
}

func (c *Controller) complete(s *Session, fs generate.FragmentStream) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != s || !s.active {
		c.log.Debugf("session %s: dropping completion of superseded session", s.ID)
		return
	}
	s.active = false
	if u, ok := fs.(generate.UsageReporter); ok {
		if usage := u.Usage(); usage != nil {
			s.info.InputTokens = usage.InputTokens
			s.info.OutputTokens = usage.OutputTokens
		}
	}
	if s.info.Fragments == 0 && c.placeholder != "" {
		// Nothing arrived; do not leave the placeholder behind.
		c.store.Set(s.snapshot)
	}
	c.finishLocked(s, StatusCompleted, time.Now(), nil)
	c.log.Infof("session %s completed fragments=%d bytes=%d", s.ID, s.info.Fragments, s.info.AfterBytes)
}

func (c *Controller) fail(s *Session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != s || !s.active {
		c.log.Debugf("session %s: dropping failure of superseded session: %v", s.ID, err)
		return
	}
	s.active = false
	s.accumulated = ""
	c.store.Set(s.snapshot)

	ge := generate.AsError(sourceName(c.source), err)
	c.lastErr = ge
	c.finishLocked(s, StatusFailed, time.Now(), ge)
	c.log.Warnf("session %s failed: %v", s.ID, err)
}

func (c *Controller) finishLocked(s *Session, status Status, at time.Time, err error) {
	s.info.Status = status
	s.info.EndedAt = at
	s.info.AfterBytes = len(c.store.Get().Text)
	s.info.Err = err
	c.notifyLocked(s.info)
}

func (c *Controller) notifyLocked(info SessionInfo) {
	for _, o := range c.observers {
		o.OnSession(info)
	}
}

func sourceName(src generate.Source) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
