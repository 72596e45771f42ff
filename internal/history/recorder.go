package history

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/stream"
)

const recorderQueue = 64

// Recorder writes session lifecycle changes to a Store on its own goroutine,
// so observers called under the controller lock never wait on disk.
type Recorder struct {
	store    Store
	provider string
	log      logging.LeveledLogger

	queue     chan Entry
	done      chan struct{}
	closeOnce sync.Once
}

// NewRecorder starts a recorder. provider is stored with every entry.
func NewRecorder(store Store, provider string) *Recorder {
	r := &Recorder{
		store:    store,
		provider: provider,
		log:      log.For(log.ScopeHistory),
		queue:    make(chan Entry, recorderQueue),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// OnSession queues info for writing. When the queue is full the update is
// dropped and logged.
func (r *Recorder) OnSession(info stream.SessionInfo) {
	select {
	case r.queue <- entryFromSession(info, r.provider):
	default:
		r.log.Warnf("history queue full, dropping %s update for %s", info.Status, info.ID)
	}
}

func entryFromSession(info stream.SessionInfo, provider string) Entry {
	e := Entry{
		ID:           info.ID.String(),
		Prompt:       info.Prompt,
		Provider:     provider,
		Modification: info.Modification,
		Status:       Status(info.Status),
		StartedAt:    info.StartedAt,
		EndedAt:      info.EndedAt,
		Fragments:    info.Fragments,
		BeforeBytes:  info.BeforeBytes,
		AfterBytes:   info.AfterBytes,
		InputTokens:  info.InputTokens,
		OutputTokens: info.OutputTokens,
	}
	if info.Err != nil {
		e.Error = info.Err.Error()
	}
	return e
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.Record(ctx, &e); err != nil {
			r.log.Warnf("record %s: %v", e.ID, err)
		}
		cancel()
	}
}

// Close writes whatever is queued and stops the recorder. OnSession must not
// be called after Close.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}
