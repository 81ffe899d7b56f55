package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/engramdb/engram/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db        *sql.DB
	minLength int // Minimum fragment content length accepted by Insert
	dimension int // Expected embedding dimension; 0 disables the check
}

// Option customizes a SQLiteStore
type Option func(*SQLiteStore)

// WithValidation makes Insert enforce a minimum content length and, when
// dimension is non-zero, a fixed embedding dimension.
func WithValidation(minLength, dimension int) Option {
	return func(s *SQLiteStore) {
		s.minLength = minLength
		s.dimension = dimension
	}
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	s := &SQLiteStore{db: db, minLength: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ContentExists reports whether a fragment with the same normalized content
// already exists
func (s *SQLiteStore) ContentExists(ctx context.Context, content string) (bool, error) {
	hash := types.HashContent(content)
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM fragments WHERE content_hash = ?", hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check content hash: %w", err)
	}
	return true, nil
}

// Insert creates the fragment unless one with the same content hash exists.
// The unique constraint on content_hash makes check-and-insert atomic; callers
// may use ContentExists as a pre-check but this is the authoritative gate.
func (s *SQLiteStore) Insert(ctx context.Context, frag *types.Fragment) (*InsertResult, error) {
	frag.Content = types.NormalizeContent(frag.Content)
	if err := frag.Validate(s.minLength, s.dimension); err != nil {
		return nil, fmt.Errorf("invalid fragment: %w", err)
	}
	if frag.ContentHash == "" {
		frag.ContentHash = types.HashContent(frag.Content)
	}
	if frag.Timestamp.IsZero() {
		frag.Timestamp = time.Now().UTC()
	}

	var projectID interface{}
	if frag.ProjectID != nil {
		projectID = *frag.ProjectID
	}

	query := `
		INSERT INTO fragments (content, content_hash, embedding, project_id, source_session, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		frag.Content, frag.ContentHash, serializeVector(frag.Embedding),
		projectID, frag.SourceSession, frag.Timestamp,
	).Scan(&id)

	if err == sql.ErrNoRows {
		// Conflict: an identical fragment already exists. Report its id.
		err = s.db.QueryRowContext(ctx, "SELECT id FROM fragments WHERE content_hash = ?", frag.ContentHash).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve duplicate fragment: %w", err)
		}
		return &InsertResult{ID: id, IsDuplicate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert fragment: %w", err)
	}

	frag.ID = id
	return &InsertResult{ID: id}, nil
}

// GetFragment loads one fragment by id
func (s *SQLiteStore) GetFragment(ctx context.Context, id int64) (*types.Fragment, error) {
	query := `
		SELECT id, content, content_hash, embedding, project_id, source_session, timestamp
		FROM fragments
		WHERE id = ?
	`
	var frag types.Fragment
	var embedding []byte
	var projectID sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&frag.ID, &frag.Content, &frag.ContentHash, &embedding,
		&projectID, &frag.SourceSession, &frag.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	frag.Embedding = deserializeVector(embedding)
	if projectID.Valid {
		pid := projectID.String
		frag.ProjectID = &pid
	}
	return &frag, nil
}

// Stats returns aggregate counts and the storage footprint
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&stats.FragmentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count fragments: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT project_id) FROM fragments WHERE project_id IS NOT NULL").Scan(&stats.ProjectCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT source_session) FROM fragments").Scan(&stats.SessionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	if stats.FragmentCount > 0 {
		// Select the column directly instead of MIN/MAX: aggregate results
		// lose the declared column type, so drivers return them as raw
		// strings rather than time.Time.
		err = s.db.QueryRowContext(ctx, "SELECT timestamp FROM fragments ORDER BY timestamp ASC LIMIT 1").Scan(&stats.OldestTimestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to read timestamp range: %w", err)
		}
		err = s.db.QueryRowContext(ctx, "SELECT timestamp FROM fragments ORDER BY timestamp DESC LIMIT 1").Scan(&stats.NewestTimestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to read timestamp range: %w", err)
		}
	}

	// Calculate database size
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DBSizeBytes = pageCount * pageSize
	}

	return stats, nil
}

// ProjectStats returns the aggregates scoped to one project
func (s *SQLiteStore) ProjectStats(ctx context.Context, projectID string) (*ProjectStats, error) {
	stats := &ProjectStats{ProjectID: projectID}

	query := `
		SELECT COUNT(*), COUNT(DISTINCT source_session)
		FROM fragments
		WHERE project_id = ?
	`
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&stats.FragmentCount, &stats.SessionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read project stats: %w", err)
	}

	if stats.FragmentCount > 0 {
		// Direct column select rather than MAX: see Stats.
		err = s.db.QueryRowContext(ctx, "SELECT timestamp FROM fragments WHERE project_id = ? ORDER BY timestamp DESC LIMIT 1", projectID).Scan(&stats.LastArchiveTimestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to read last archive timestamp: %w", err)
		}
	}

	return stats, nil
}
