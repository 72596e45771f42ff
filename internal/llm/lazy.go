package llm

import (
	"context"
	"sync"

	"github.com/samsaffron/genweb/internal/config"
)

// LazyProvider defers building its provider until the first Stream call,
// so a missing API key fails that session rather than start-up.
type LazyProvider struct {
	name  string
	build func() (Provider, error)

	mu       sync.Mutex
	provider Provider
}

// NewLazyProvider returns a provider built by build on first use. A failed
// build is retried on the next call.
func NewLazyProvider(name string, build func() (Provider, error)) *LazyProvider {
	return &LazyProvider{name: name, build: build}
}

// NewLazyProviderFromConfig is NewLazyProvider over NewProvider(cfg).
func NewLazyProviderFromConfig(cfg *config.Config) *LazyProvider {
	return NewLazyProvider(cfg.Provider, func() (Provider, error) {
		return NewProvider(cfg)
	})
}

func (l *LazyProvider) get() (Provider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.provider != nil {
		return l.provider, nil
	}
	p, err := l.build()
	if err != nil {
		return nil, err
	}
	l.provider = p
	return p, nil
}

func (l *LazyProvider) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.provider != nil {
		return l.provider.Name()
	}
	return l.name
}

func (l *LazyProvider) Credential() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.provider != nil {
		return l.provider.Credential()
	}
	return "deferred"
}

func (l *LazyProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	p, err := l.get()
	if err != nil {
		return nil, err
	}
	return p.Stream(ctx, req)
}
