// Package document holds the single mutable document every view reads from.
package document

import (
	"context"
	"sync"

	"github.com/pion/logging"

	"github.com/samsaffron/genweb/internal/log"
	"github.com/samsaffron/genweb/internal/pubsub"
)

// Document is an immutable snapshot of the store.
type Document struct {
	Text    string
	Version uint64
}

// Len returns the document size in bytes.
func (d Document) Len() int { return len(d.Text) }

// Listener is called synchronously after every Set, in commit order.
// Listeners may call Get but must not call Set.
type Listener func(Document)

// Store is the process-local source of truth for the document text.
//
// Writes are serialized: a second Set waits until every listener of the
// first has returned, so listeners observe versions strictly in order.
type Store struct {
	commitMu sync.Mutex // serializes Set and listener dispatch

	mu        sync.RWMutex
	doc       Document
	listeners map[uint64]Listener
	nextID    uint64

	broker *pubsub.Broker[Document]
	log    logging.LeveledLogger
}

// NewStore creates a store holding text at version 0.
func NewStore(text string) *Store {
	return &Store{
		doc:       Document{Text: text},
		listeners: make(map[uint64]Listener),
		broker:    pubsub.NewBroker[Document](),
		log:       log.For(log.ScopeDocument),
	}
}

// Get returns the current document.
func (s *Store) Get() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Set replaces the text and bumps the version, even when text is unchanged.
func (s *Store) Set(text string) Document {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.doc = Document{Text: text, Version: s.doc.Version + 1}
	doc := s.doc
	ls := make([]Listener, 0, len(s.listeners))
	for id := uint64(0); id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	s.mu.Unlock()

	s.log.Tracef("set version=%d bytes=%d", doc.Version, len(doc.Text))
	for _, l := range ls {
		l(doc)
	}
	s.broker.Publish(pubsub.UpdatedEvent, doc)
	return doc
}

// Subscribe registers l and returns a func that removes it. Listeners run
// in subscription order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Watch delivers document updates asynchronously until ctx is done. Slow
// readers skip intermediate versions but always receive the newest one.
func (s *Store) Watch(ctx context.Context) <-chan pubsub.Event[Document] {
	return s.broker.Subscribe(ctx)
}

// Close ends every Watch channel.
func (s *Store) Close() {
	s.broker.Close()
}
