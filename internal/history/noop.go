package history

import "context"

// NoopStore is a no-op implementation of Store used when history is disabled.
// It silently discards all writes and returns empty results for reads.
type NoopStore struct{}

func (NoopStore) Record(ctx context.Context, e *Entry) error { return nil }

func (NoopStore) Get(ctx context.Context, id string) (*Entry, error) { return nil, nil }

func (NoopStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) { return nil, nil }

func (NoopStore) Clear(ctx context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
