package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samsaffron/genweb/internal/stream"
)

func openTestStore(t *testing.T, maxCount int) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "history.db"), MaxCount: maxCount})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RecordAndGet(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Second).UTC().Truncate(time.Second)
	e := &Entry{
		ID:          "gen-1",
		Prompt:      "A landing page for a bakery",
		Provider:    "gemini",
		Status:      StatusRunning,
		StartedAt:   started,
		BeforeBytes: 120,
	}
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "gen-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.Prompt != e.Prompt || got.Status != StatusRunning {
		t.Fatalf("got %+v", got)
	}
	if !got.EndedAt.IsZero() {
		t.Fatalf("running entry has EndedAt %v", got.EndedAt)
	}
	if got.Duration() != 0 {
		t.Fatalf("running Duration = %v, want 0", got.Duration())
	}

	// Finishing the same ID updates in place.
	e.Status = StatusFailed
	e.EndedAt = started.Add(2 * time.Second)
	e.Fragments = 3
	e.AfterBytes = 120
	e.Error = "quota exceeded"
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record finish: %v", err)
	}

	got, err = store.Get(ctx, "gen-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusFailed || got.Fragments != 3 || got.Error != "quota exceeded" {
		t.Fatalf("after finish got %+v", got)
	}
	if got.Duration() != 2*time.Second {
		t.Fatalf("Duration = %v, want 2s", got.Duration())
	}

	entries, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(entries))
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := openTestStore(t, 0)
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, p := range []struct {
		prompt string
		status Status
	}{
		{"portfolio site", StatusCompleted},
		{"pricing table", StatusFailed},
		{"login form", StatusCompleted},
	} {
		err := store.Record(ctx, &Entry{
			ID:        uuid.NewString(),
			Prompt:    p.prompt,
			Status:    p.status,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Prompt != "login form" {
		t.Fatalf("List should be newest first, got %+v", all)
	}

	completed, err := store.List(ctx, ListOptions{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("completed = %d, want 2", len(completed))
	}

	found, err := store.List(ctx, ListOptions{Query: "pricing"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(found) != 1 || found[0].Status != StatusFailed {
		t.Fatalf("query result = %+v", found)
	}

	page, err := store.List(ctx, ListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 1 || page[0].Prompt != "pricing table" {
		t.Fatalf("page = %+v", page)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	all, _ = store.List(ctx, ListOptions{})
	if len(all) != 0 {
		t.Fatalf("after Clear got %d entries", len(all))
	}
}

func TestSQLiteStore_MaxCountCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(Config{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, &Entry{
			ID:        uuid.NewString(),
			Prompt:    "p",
			Status:    StatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	store.Close()

	// Cleanup runs on open.
	store, err = NewSQLiteStore(Config{Path: path, MaxCount: 2})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	all, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("after cleanup got %d entries, want 2", len(all))
	}
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

type memStore struct {
	NoopStore
	mu      sync.Mutex
	entries []Entry
}

func (m *memStore) Record(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func TestRecorder_WritesLifecycle(t *testing.T) {
	mem := &memStore{}
	rec := NewRecorder(mem, "mock")

	id := uuid.New()
	started := time.Now()
	rec.OnSession(stream.SessionInfo{ID: id, Prompt: "hello", Status: stream.StatusRunning, StartedAt: started})
	rec.OnSession(stream.SessionInfo{
		ID:        id,
		Prompt:    "hello",
		Status:    stream.StatusFailed,
		StartedAt: started,
		EndedAt:   started.Add(time.Second),
		Fragments: 2,
		Err:       errors.New("boom"),
	})
	rec.Close()
	// Close is idempotent.
	rec.Close()

	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.entries) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(mem.entries))
	}
	last := mem.entries[1]
	if last.ID != id.String() || last.Provider != "mock" {
		t.Fatalf("entry = %+v", last)
	}
	if last.Status != StatusFailed || last.Error != "boom" || last.Fragments != 2 {
		t.Fatalf("entry = %+v", last)
	}
}

func TestRecorder_WithSQLite(t *testing.T) {
	store := openTestStore(t, 0)
	rec := NewRecorder(store, "gemini")

	id := uuid.New()
	started := time.Now()
	rec.OnSession(stream.SessionInfo{ID: id, Prompt: "cafe menu", Status: stream.StatusRunning, StartedAt: started})
	rec.OnSession(stream.SessionInfo{ID: id, Prompt: "cafe menu", Status: stream.StatusCompleted, StartedAt: started, EndedAt: started.Add(time.Second), AfterBytes: 900})
	rec.Close()

	got, err := store.Get(context.Background(), id.String())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Status != StatusCompleted || got.AfterBytes != 900 {
		t.Fatalf("got %+v", got)
	}
}

func TestNoopStore(t *testing.T) {
	var s Store = NoopStore{}
	ctx := context.Background()
	if err := s.Record(ctx, &Entry{ID: "x"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e, err := s.Get(ctx, "x"); err != nil || e != nil {
		t.Fatalf("Get = %v, %v", e, err)
	}
	if list, err := s.List(ctx, ListOptions{}); err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
}
