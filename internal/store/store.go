package store

import (
	"context"
	"errors"
	"time"

	"github.com/engramdb/engram/pkg/types"
)

var (
	// ErrNotFound is returned when a requested fragment doesn't exist
	ErrNotFound = errors.New("not found")
)

// Store defines the interface for persisting and querying memory fragments.
type Store interface {
	// ContentExists reports whether a fragment with the same content hash
	// already exists. Used as a cheap pre-check before embedding work; the
	// authoritative dedup gate is the unique constraint enforced by Insert.
	ContentExists(ctx context.Context, content string) (bool, error)

	// Insert computes the content hash and atomically creates the fragment
	// unless one with the same hash exists, in which case it reports the
	// existing fragment's id with IsDuplicate set.
	Insert(ctx context.Context, frag *types.Fragment) (*InsertResult, error)

	// GetFragment loads one fragment by id.
	GetFragment(ctx context.Context, id int64) (*types.Fragment, error)

	// SearchText runs BM25 full-text search over fragment content within the
	// scope. Results are ordered by relevance, ties broken by recency.
	SearchText(ctx context.Context, query string, scope Scope, limit int) ([]KeywordHit, error)

	// SearchVector ranks fragments in scope by cosine similarity to the
	// query embedding, descending, ties broken by recency.
	SearchVector(ctx context.Context, queryVector []float32, scope Scope, limit int) ([]VectorHit, error)

	// Stats returns aggregate counts and the storage footprint.
	Stats(ctx context.Context) (*Stats, error)

	// ProjectStats returns the aggregates scoped to one project.
	ProjectStats(ctx context.Context, projectID string) (*ProjectStats, error)

	// Close flushes and closes the underlying database.
	Close() error
}

// Scope restricts a search to a project partition.
//
// With a ProjectID and AllProjects false, fragments belonging to that project
// or to no project (global) are eligible. With AllProjects true, or with no
// ProjectID at all, every fragment is eligible.
type Scope struct {
	ProjectID   *string
	AllProjects bool
}

// restricted reports whether the scope actually narrows the search.
func (s Scope) restricted() bool {
	return !s.AllProjects && s.ProjectID != nil
}

// InsertResult reports the outcome of an insert.
type InsertResult struct {
	ID          int64
	IsDuplicate bool
}

// KeywordHit is one full-text search result.
type KeywordHit struct {
	FragmentID int64
	Score      float64 // Normalized BM25 relevance, higher is better
	Timestamp  time.Time
}

// VectorHit is one vector similarity result.
type VectorHit struct {
	FragmentID int64
	Similarity float64 // Cosine similarity, higher is better
	Timestamp  time.Time
}

// Stats contains aggregate counts for the whole store.
type Stats struct {
	FragmentCount   int
	ProjectCount    int
	SessionCount    int
	DBSizeBytes     int64
	OldestTimestamp time.Time
	NewestTimestamp time.Time
}

// ProjectStats contains the aggregates for one project.
type ProjectStats struct {
	ProjectID            string
	FragmentCount        int
	SessionCount         int
	LastArchiveTimestamp time.Time
}
