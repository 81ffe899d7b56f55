package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramdb/engram/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	st, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, st)
	return st
}

func testVector(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.01
	}
	return v
}

func insertTestFragment(t *testing.T, st *SQLiteStore, content string, projectID *string, ts time.Time) int64 {
	t.Helper()
	res, err := st.Insert(context.Background(), &types.Fragment{
		Content:       content,
		Embedding:     testVector(8, 0.5),
		ProjectID:     projectID,
		SourceSession: "test-session",
		Timestamp:     ts,
	})
	require.NoError(t, err)
	return res.ID
}

func TestNewSQLiteStore(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	assert.NotNil(t, st)
	assert.NotNil(t, st.db)
}

func TestInsertAndGet(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	frag := &types.Fragment{
		Content:       "We decided to use SQLite with WAL mode for the memory store",
		Embedding:     testVector(8, 0.1),
		SourceSession: "session-abc",
		Timestamp:     time.Now().UTC(),
	}

	res, err := st.Insert(ctx, frag)
	require.NoError(t, err)
	assert.Greater(t, res.ID, int64(0))
	assert.False(t, res.IsDuplicate)

	got, err := st.GetFragment(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, frag.Content, got.Content)
	assert.Equal(t, types.HashContent(frag.Content), got.ContentHash)
	assert.Equal(t, frag.Embedding, got.Embedding)
	assert.Equal(t, "session-abc", got.SourceSession)
	assert.Nil(t, got.ProjectID)
}

func TestInsert_Duplicate(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	content := "The retry loop uses exponential backoff with a 100ms base delay"

	first, err := st.Insert(ctx, &types.Fragment{
		Content:       content,
		Embedding:     testVector(8, 0.2),
		SourceSession: "s1",
	})
	require.NoError(t, err)
	assert.False(t, first.IsDuplicate)

	// Same content, different session and whitespace: still a duplicate
	second, err := st.Insert(ctx, &types.Fragment{
		Content:       "  " + content + "\n",
		Embedding:     testVector(8, 0.3),
		SourceSession: "s2",
	})
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.ID, second.ID)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FragmentCount)
}

func TestInsert_Validation(t *testing.T) {
	st, err := NewSQLiteStore(":memory:", WithValidation(50, 8))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	// Below the minimum content length
	_, err = st.Insert(ctx, &types.Fragment{
		Content:       "too short to keep",
		Embedding:     testVector(8, 0.1),
		SourceSession: "s1",
	})
	assert.Error(t, err)

	// Wrong embedding dimension
	_, err = st.Insert(ctx, &types.Fragment{
		Content:       "We decided to use SQLite with WAL mode for the memory store",
		Embedding:     testVector(4, 0.1),
		SourceSession: "s1",
	})
	assert.Error(t, err)

	// Valid fragment passes both gates
	res, err := st.Insert(ctx, &types.Fragment{
		Content:       "We decided to use SQLite with WAL mode for the memory store",
		Embedding:     testVector(8, 0.1),
		SourceSession: "s1",
	})
	require.NoError(t, err)
	assert.Greater(t, res.ID, int64(0))
}

func TestContentExists(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	content := "Implemented the archive pipeline with sequential embedding"

	exists, err := st.ContentExists(ctx, content)
	require.NoError(t, err)
	assert.False(t, exists)

	insertTestFragment(t, st, content, nil, time.Now())

	exists, err = st.ContentExists(ctx, content)
	require.NoError(t, err)
	assert.True(t, exists)

	// Normalization: leading/trailing whitespace does not change identity
	exists, err = st.ContentExists(ctx, "\n"+content+"  ")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetFragment_NotFound(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	_, err := st.GetFragment(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchText(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	insertTestFragment(t, st, "We implemented JWT authentication with RS256 signing", nil, now)
	insertTestFragment(t, st, "The database migration adds a content_hash unique index", nil, now)
	insertTestFragment(t, st, "Session tokens expire after authentication timeout of one hour", nil, now)

	hits, err := st.SearchText(ctx, "authentication", Scope{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, hit := range hits {
		assert.Greater(t, hit.Score, 0.0)
		assert.LessOrEqual(t, hit.Score, 1.0)
		assert.False(t, hit.Timestamp.IsZero())
	}
}

func TestSearchText_NoMatches(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	insertTestFragment(t, st, "We implemented JWT authentication with RS256 signing", nil, time.Now())

	hits, err := st.SearchText(context.Background(), "kubernetes", Scope{}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchText_EmptyQuery(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	_, err := st.SearchText(context.Background(), "", Scope{}, 10)
	assert.Error(t, err)
}

func TestSearchVector(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	near := []float32{1, 0, 0, 0}
	far := []float32{0, 1, 0, 0}

	res1, err := st.Insert(ctx, &types.Fragment{
		Content:       "Close to the query vector",
		Embedding:     near,
		SourceSession: "s",
		Timestamp:     now,
	})
	require.NoError(t, err)

	res2, err := st.Insert(ctx, &types.Fragment{
		Content:       "Orthogonal to the query vector",
		Embedding:     far,
		SourceSession: "s",
		Timestamp:     now,
	})
	require.NoError(t, err)

	hits, err := st.SearchVector(ctx, []float32{0.9, 0.1, 0, 0}, Scope{}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, res1.ID, hits[0].FragmentID)
	assert.Equal(t, res2.ID, hits[1].FragmentID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestSearchVector_DimensionMismatchSkipped(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	_, err := st.Insert(ctx, &types.Fragment{
		Content:       "Fragment with a four dimensional embedding vector",
		Embedding:     []float32{1, 0, 0, 0},
		SourceSession: "s",
	})
	require.NoError(t, err)

	// Query with a different dimension: the mismatched row is skipped
	hits, err := st.SearchVector(ctx, []float32{1, 0, 0, 0, 0, 0, 0, 0}, Scope{}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ProjectScope(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	alpha := "alpha"
	beta := "beta"

	insertTestFragment(t, st, "Alpha project uses the webhook dispatcher pattern", &alpha, now)
	insertTestFragment(t, st, "Beta project uses the webhook polling pattern", &beta, now)
	insertTestFragment(t, st, "Global note about webhook retry semantics", nil, now)

	// Project scope sees own fragments plus global ones
	hits, err := st.SearchText(ctx, "webhook", Scope{ProjectID: &alpha}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// AllProjects overrides the partition
	hits, err = st.SearchText(ctx, "webhook", Scope{ProjectID: &alpha, AllProjects: true}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	// No project at all: unrestricted
	hits, err = st.SearchText(ctx, "webhook", Scope{}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	// Vector search honors the same rule
	vhits, err := st.SearchVector(ctx, testVector(8, 0.5), Scope{ProjectID: &alpha}, 10)
	require.NoError(t, err)
	assert.Len(t, vhits, 2)
}

func TestStats(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FragmentCount)

	alpha := "alpha"
	old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	insertTestFragment(t, st, "First fragment about connection pooling", &alpha, old)
	insertTestFragment(t, st, "Second fragment about query planning", nil, recent)

	stats, err = st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FragmentCount)
	assert.Equal(t, 1, stats.ProjectCount)
	assert.Equal(t, 1, stats.SessionCount)
	assert.Greater(t, stats.DBSizeBytes, int64(0))
	assert.True(t, stats.OldestTimestamp.Equal(old))
	assert.True(t, stats.NewestTimestamp.Equal(recent))
}

func TestProjectStats(t *testing.T) {
	st := setupTestDB(t)
	defer st.Close()

	ctx := context.Background()
	alpha := "alpha"
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	insertTestFragment(t, st, "Alpha fragment about the scheduler rewrite", &alpha, ts)
	insertTestFragment(t, st, "Unrelated global fragment about logging", nil, ts)

	stats, err := st.ProjectStats(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", stats.ProjectID)
	assert.Equal(t, 1, stats.FragmentCount)
	assert.Equal(t, 1, stats.SessionCount)
	assert.True(t, stats.LastArchiveTimestamp.Equal(ts))
}
