package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    video_id   TEXT PRIMARY KEY,
    transcript TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
`

// TranscriptCache implements domain.TranscriptCache using SQLite.
// Entries older than ttl are treated as missing; ttl <= 0 keeps them forever.
type TranscriptCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// New opens the cache at dbPath, initializing the schema if needed.
func New(dbPath string, ttl time.Duration) (*TranscriptCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Workers write concurrently; a single connection serialises them.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &TranscriptCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the database connection.
func (c *TranscriptCache) Close() error {
	return c.db.Close()
}

// Get returns the cached transcript for videoID.
func (c *TranscriptCache) Get(ctx context.Context, videoID string) (string, bool, error) {
	var transcript string
	var createdAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT transcript, created_at FROM transcripts WHERE video_id = ?`, videoID,
	).Scan(&transcript, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if c.expired(createdAt) {
		return "", false, nil
	}
	return transcript, true, nil
}

// Put stores or replaces the transcript for videoID.
func (c *TranscriptCache) Put(ctx context.Context, videoID, transcript string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO transcripts (video_id, transcript, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(video_id) DO UPDATE SET transcript = excluded.transcript, created_at = excluded.created_at`,
		videoID, transcript, c.now().UTC(),
	)
	return err
}

// PurgeExpired deletes entries older than the ttl and returns how many went.
func (c *TranscriptCache) PurgeExpired(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	result, err := c.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE created_at < ?`, c.now().Add(-c.ttl).UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of stored entries, expired ones included.
func (c *TranscriptCache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcripts`).Scan(&n)
	return n, err
}

func (c *TranscriptCache) expired(createdAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(createdAt) > c.ttl
}
