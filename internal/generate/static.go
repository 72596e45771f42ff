package generate

import (
	"context"
	"io"
	"sync"
)

// StaticSource replays fixed fragments, or fails with Err. It is useful for
// tests and demos that should not reach a provider.
type StaticSource struct {
	Fragments []string
	Err       error // returned after Fragments
}

func (s StaticSource) Generate(ctx context.Context, prompt string, prior *string) (FragmentStream, error) {
	return &sliceStream{ctx: ctx, parts: s.Fragments, err: s.Err}, nil
}

type sliceStream struct {
	ctx    context.Context
	mu     sync.Mutex
	parts  []string
	err    error
	closed bool
}

func (s *sliceStream) Recv() (Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Fragment{}, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return Fragment{}, err
	}
	if len(s.parts) == 0 {
		if s.err != nil {
			return Fragment{}, &Error{Provider: "static", Err: s.err}
		}
		return Fragment{}, io.EOF
	}
	f := Fragment{Text: s.parts[0]}
	s.parts = s.parts[1:]
	return f, nil
}

func (s *sliceStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
