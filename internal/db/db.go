package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Artifact kinds stored in the catalog.
const (
	KindVideo = "video"
	KindAudio = "audio"
)

// ArtifactRecord represents a row in the artifacts table.
type ArtifactRecord struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	FilePath  string    `json:"file_path"`
	SourceURL string    `json:"source_url"`
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Duration  int       `json:"duration"`
	FileSize  int64     `json:"file_size"`
	State     string    `json:"state"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS artifacts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    kind        TEXT NOT NULL DEFAULT 'video',
    file_path   TEXT NOT NULL UNIQUE,
    source_url  TEXT NOT NULL DEFAULT '',
    video_id    TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL DEFAULT '',
    author      TEXT NOT NULL DEFAULT '',
    duration    INTEGER NOT NULL DEFAULT 0,
    file_size   INTEGER NOT NULL DEFAULT 0,
    state       TEXT NOT NULL DEFAULT '',
    job_id      TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind);
CREATE INDEX IF NOT EXISTS idx_artifacts_video_id ON artifacts(video_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_source_url ON artifacts(source_url);
`

// DB wraps an SQLite connection for the artifact catalog.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := sqlDB.Exec(createTableSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// UpsertArtifact inserts or updates an artifact by file_path and returns its ID.
func (d *DB) UpsertArtifact(ctx context.Context, record ArtifactRecord) (int64, error) {
	if d == nil || d.db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO artifacts (
			kind, file_path, source_url, video_id, title, author,
			duration, file_size, state, job_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			kind=excluded.kind, source_url=excluded.source_url,
			video_id=excluded.video_id, title=excluded.title, author=excluded.author,
			duration=excluded.duration, file_size=excluded.file_size,
			state=excluded.state, job_id=excluded.job_id,
			updated_at=datetime('now')
	`,
		record.Kind, record.FilePath, record.SourceURL, record.VideoID, record.Title, record.Author,
		record.Duration, record.FileSize, record.State, record.JobID,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting artifact record: %w", err)
	}

	// LastInsertId is unreliable for ON CONFLICT DO UPDATE; query the actual row ID.
	var id int64
	if err := d.db.QueryRowContext(ctx, "SELECT id FROM artifacts WHERE file_path = ?", record.FilePath).Scan(&id); err != nil {
		return 0, fmt.Errorf("querying upserted artifact id: %w", err)
	}
	return id, nil
}

// ListArtifacts returns artifacts of the given kind ("" for all), newest first.
func (d *DB) ListArtifacts(ctx context.Context, kind string, limit, offset int) ([]ArtifactRecord, error) {
	if d == nil || d.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, kind, file_path, source_url, video_id, title, author,
			duration, file_size, state, job_id, created_at, updated_at
		FROM artifacts
		WHERE ? = '' OR kind = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, kind, kind, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var records []ArtifactRecord
	for rows.Next() {
		var r ArtifactRecord
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.FilePath, &r.SourceURL, &r.VideoID, &r.Title, &r.Author,
			&r.Duration, &r.FileSize, &r.State, &r.JobID, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of artifact records.
func (d *DB) Count(ctx context.Context) (int, error) {
	if d == nil || d.db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artifacts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting artifacts: %w", err)
	}
	return count, nil
}
