package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Source records one ingested document source.
type Source struct {
	ID         string
	Kind       string
	Name       string
	ChunkCount int
	IngestedAt time.Time
}

// Registry keeps ingested-source bookkeeping in SQLite so the presentation
// layer can report what the store contains without deserializing the index.
type Registry struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	ingested_at TIMESTAMP NOT NULL
)`

// busyTimeoutMS bounds how long concurrent doctalk processes wait on the
// registry database.
const busyTimeoutMS = 5000

// Open opens (creating when needed) the registry database at the given DSN.
func Open(ctx context.Context, dsn string) (*Registry, error) {
	dsn = withPragmas(dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", dsn, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Record upserts a source entry.
func (r *Registry) Record(ctx context.Context, source Source) error {
	if source.IngestedAt.IsZero() {
		source.IngestedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources(id, kind, name, chunk_count, ingested_at) VALUES(?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, name=excluded.name,
			chunk_count=excluded.chunk_count, ingested_at=excluded.ingested_at`,
		source.ID, source.Kind, source.Name, source.ChunkCount, source.IngestedAt)
	if err != nil {
		return fmt.Errorf("record source %s: %w", source.ID, err)
	}
	return nil
}

// List returns all recorded sources, most recent first.
func (r *Registry) List(ctx context.Context) ([]Source, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, chunk_count, ingested_at FROM sources ORDER BY ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Kind, &s.Name, &s.ChunkCount, &s.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Clear removes every recorded source.
func (r *Registry) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sources`); err != nil {
		return fmt.Errorf("clear sources: %w", err)
	}
	return nil
}

// withPragmas enables WAL journaling and a busy timeout on file-backed DSNs
// unless the caller already set them. In-memory databases are left alone.
func withPragmas(dsn string) string {
	if dsn == "" || dsn == ":memory:" {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "file::memory:") {
		return dsn
	}
	appendPragma := func(pragma string) {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=" + pragma
	}
	if !strings.Contains(lower, "_pragma=journal_mode") {
		appendPragma("journal_mode(WAL)")
	}
	if !strings.Contains(lower, "_pragma=busy_timeout") {
		appendPragma(fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}
