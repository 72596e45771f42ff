package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pion/logging"
	_ "modernc.org/sqlite"

	"github.com/samsaffron/genweb/internal/log"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
	log logging.LeveledLogger
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    prompt TEXT NOT NULL,
    provider TEXT NOT NULL DEFAULT '',
    modification BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP,
    fragments INTEGER NOT NULL DEFAULT 0,
    before_bytes INTEGER NOT NULL DEFAULT 0,
    after_bytes INTEGER NOT NULL DEFAULT 0,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_generations_started_at ON generations(started_at DESC);
`

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path not set")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	store := &SQLiteStore{db: db, cfg: cfg, log: log.For(log.ScopeHistory)}
	if err := store.cleanup(context.Background()); err != nil {
		// Log but don't fail
		store.log.Warnf("history cleanup failed: %v", err)
	}
	return store, nil
}

func (s *SQLiteStore) cleanup(ctx context.Context) error {
	if s.cfg.MaxCount <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM generations WHERE id IN (
			SELECT id FROM generations
			ORDER BY started_at DESC
			LIMIT -1 OFFSET ?
		)`, s.cfg.MaxCount)
	if err != nil {
		return fmt.Errorf("enforce max count: %w", err)
	}
	return nil
}

// Record upserts e.
func (s *SQLiteStore) Record(ctx context.Context, e *Entry) error {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, prompt, provider, modification, status, started_at, ended_at,
		                         fragments, before_bytes, after_bytes, input_tokens, output_tokens, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			provider = excluded.provider,
			ended_at = excluded.ended_at,
			fragments = excluded.fragments,
			after_bytes = excluded.after_bytes,
			input_tokens = excluded.input_tokens,
			output_tokens = excluded.output_tokens,
			error = excluded.error`,
		e.ID, e.Prompt, e.Provider, e.Modification, string(e.Status), e.StartedAt, nullTime(e.EndedAt),
		e.Fragments, e.BeforeBytes, e.AfterBytes, e.InputTokens, e.OutputTokens, nullString(e.Error))
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, prompt, provider, modification, status, started_at, ended_at,
		       fragments, before_bytes, after_bytes, input_tokens, output_tokens, error
		FROM generations`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var status string
	var ended sql.NullTime
	var errText sql.NullString
	err := row.Scan(&e.ID, &e.Prompt, &e.Provider, &e.Modification, &status, &e.StartedAt, &ended,
		&e.Fragments, &e.BeforeBytes, &e.AfterBytes, &e.InputTokens, &e.OutputTokens, &errText)
	if err != nil {
		return nil, err
	}
	e.Status = Status(status)
	if ended.Valid {
		e.EndedAt = ended.Time
	}
	if errText.Valid {
		e.Error = errText.String
	}
	return &e, nil
}

// Get retrieves an entry by ID, or nil if there is none.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan generation: %w", err)
	}
	return e, nil
}

// List returns entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := selectColumns + " WHERE 1=1"
	args := []any{}

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.Query != "" {
		query += " AND prompt LIKE '%' || ? || '%'"
		args = append(args, opts.Query)
	}

	query += " ORDER BY started_at DESC"

	limit := opts.Limit
	if limit == 0 {
		limit = 50 // Default
	}
	query += fmt.Sprintf(" LIMIT %d", limit)
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

// Clear deletes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM generations"); err != nil {
		return fmt.Errorf("clear generations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
