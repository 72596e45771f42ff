package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/genweb/internal/history"
	"github.com/samsaffron/genweb/internal/ui"
)

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "May 11"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestFindHistoryEntry(t *testing.T) {
	store, err := history.NewSQLiteStore(history.Config{Path: filepath.Join(t.TempDir(), "h.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	start := time.Now()
	for i, id := range []string{"aaaa1111-0000", "aaaa2222-0000", "bbbb1111-0000"} {
		e := &history.Entry{ID: id, Prompt: "p", Status: history.StatusCompleted, StartedAt: start.Add(time.Duration(i) * time.Second)}
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if e, err := findHistoryEntry(ctx, store, "bbbb1111-0000"); err != nil || e.ID != "bbbb1111-0000" {
		t.Fatalf("exact: %v, %v", e, err)
	}
	if e, err := findHistoryEntry(ctx, store, "aaaa2"); err != nil || e.ID != "aaaa2222-0000" {
		t.Fatalf("prefix: %v, %v", e, err)
	}
	if _, err := findHistoryEntry(ctx, store, "aaaa"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
	if _, err := findHistoryEntry(ctx, store, "cccc"); err == nil {
		t.Fatal("expected not found")
	}
}

func TestWriteHistoryTable(t *testing.T) {
	now := time.Now()
	entries := []history.Entry{{
		ID:           "0123456789abcdef",
		Prompt:       "A login page\nwith  glassmorphism",
		Modification: true,
		Status:       history.StatusCompleted,
		StartedAt:    now.Add(-2 * time.Minute),
		EndedAt:      now.Add(-2*time.Minute + 1500*time.Millisecond),
		AfterBytes:   2048,
	}}

	var buf bytes.Buffer
	writeHistoryTable(&buf, ui.NewStyles(&buf, nil), entries, now)
	out := buf.String()
	for _, want := range []string{"01234567", "A login page with glassmorphism", "edit", "2048", "1.5s", "2m ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
