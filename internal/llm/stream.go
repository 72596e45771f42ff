package llm

import (
	"context"
	"io"
	"sync"
)

const eventBufferSize = 32

// eventStream adapts a producer goroutine to the Stream interface.
type eventStream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	events    chan Event
	closeOnce sync.Once
}

// newEventStream runs produce on its own goroutine. A non-nil error from
// produce is delivered by Recv after every event sent before it.
func newEventStream(ctx context.Context, produce func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, eventBufferSize),
	}
	go func() {
		defer close(s.events)
		if err := produce(ctx, s.events); err != nil {
			select {
			case s.events <- Event{Type: EventError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return Event{}, io.EOF
		}
		if ev.Type == EventError && ev.Err != nil {
			return Event{}, ev.Err
		}
		return ev, nil
	case <-s.ctx.Done():
		return Event{}, s.ctx.Err()
	}
}

// Close cancels the producer and drains whatever it still sends.
func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		go func() {
			for range s.events {
			}
		}()
	})
	return nil
}
