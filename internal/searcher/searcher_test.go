package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramdb/engram/internal/embedder"
	"github.com/engramdb/engram/internal/store"
	"github.com/engramdb/engram/pkg/types"
)

func setupService(t *testing.T, opts ...Option) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	handle, err := embedder.New(embedder.Config{Provider: "local", CacheSize: 100})
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	return NewService(st, handle, opts...), st
}

func archiveContent(t *testing.T, st *store.SQLiteStore, content string, projectID *string, ts time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	provider := embedder.NewLocalProvider(nil)
	vectors, err := provider.EmbedPassages(ctx, []string{content})
	require.NoError(t, err)

	res, err := st.Insert(ctx, &types.Fragment{
		Content:       content,
		Embedding:     vectors[0],
		ProjectID:     projectID,
		SourceSession: "test-session",
		Timestamp:     ts,
	})
	require.NoError(t, err)
	return res.ID
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Search(context.Background(), Request{Query: "   "})
	assert.Error(t, err)
}

func TestSearch_EmptyStore(t *testing.T) {
	svc, _ := setupService(t)

	resp, err := svc.Search(context.Background(), Request{Query: "anything at all"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_Hybrid(t *testing.T) {
	svc, st := setupService(t)
	now := time.Now().UTC()

	id := archiveContent(t, st, "We implemented JWT authentication with refresh token rotation", nil, now)
	archiveContent(t, st, "The parser handles malformed lines by skipping them silently", nil, now)

	resp, err := svc.Search(context.Background(), Request{Query: "JWT authentication"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, id, top.ID)
	assert.Contains(t, top.Content, "JWT authentication")
	assert.Greater(t, top.Score, 0.0)
	assert.Contains(t, []types.ResultSource{types.SourceKeyword, types.SourceHybrid}, top.Source)
}

func TestSearch_DefaultLimit(t *testing.T) {
	svc, st := setupService(t)
	now := time.Now().UTC()

	contents := []string{
		"Note one about the deployment checklist for staging",
		"Note two about the deployment rollback procedure steps",
		"Note three about the deployment canary analysis window",
		"Note four about the deployment artifact signing keys",
		"Note five about the deployment database migration order",
		"Note six about the deployment feature flag cleanup",
		"Note seven about the deployment traffic shifting policy",
	}
	for _, c := range contents {
		archiveContent(t, st, c, nil, now)
	}

	resp, err := svc.Search(context.Background(), Request{Query: "deployment"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, DefaultLimit)
}

func TestSearch_RecencyPrefersNewer(t *testing.T) {
	fixed := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	svc, st := setupService(t, WithClock(func() time.Time { return fixed }))

	oldID := archiveContent(t, st, "The cache eviction policy uses LRU with a size cap", nil, fixed.Add(-30*24*time.Hour))
	newID := archiveContent(t, st, "The cache eviction policy was changed to LFU last sprint", nil, fixed.Add(-1*time.Hour))

	resp, err := svc.Search(context.Background(), Request{Query: "cache eviction policy", Mode: ModeKeyword})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, newID, resp.Results[0].ID)
	assert.Equal(t, oldID, resp.Results[1].ID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestSearch_ProjectScope(t *testing.T) {
	svc, st := setupService(t)
	now := time.Now().UTC()
	alpha := "alpha"
	beta := "beta"

	archiveContent(t, st, "Alpha keeps its secrets in the vault sidecar", &alpha, now)
	archiveContent(t, st, "Beta keeps its secrets in environment variables", &beta, now)
	archiveContent(t, st, "Global guidance: never log secrets at any level", nil, now)

	resp, err := svc.Search(context.Background(), Request{Query: "secrets", ProjectID: &alpha, Mode: ModeKeyword})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		if r.ProjectID != nil {
			assert.Equal(t, "alpha", *r.ProjectID)
		}
	}

	resp, err = svc.Search(context.Background(), Request{Query: "secrets", ProjectID: &alpha, AllProjects: true, Mode: ModeKeyword})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestSearch_KeywordOnlyWhenProviderDown(t *testing.T) {
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// Ollama pointed at a dead address: vector leg fails on Acquire
	handle, err := embedder.New(embedder.Config{Provider: "ollama", OllamaURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	svc := NewService(st, handle)
	archiveContent(t, st, "Fallback test fragment about connection pooling limits", nil, time.Now().UTC())

	resp, err := svc.Search(context.Background(), Request{Query: "connection pooling"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.SourceKeyword, resp.Results[0].Source)
	assert.Equal(t, 0, resp.VectorHits)
}

func TestSearch_VectorMode(t *testing.T) {
	svc, st := setupService(t)
	now := time.Now().UTC()
	archiveContent(t, st, "Vector mode still returns results ranked by similarity", nil, now)

	resp, err := svc.Search(context.Background(), Request{Query: "similarity ranking", Mode: ModeVector})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, types.SourceVector, resp.Results[0].Source)
}

func TestSearch_Cache(t *testing.T) {
	svc, st := setupService(t)
	archiveContent(t, st, "Cached search result about index rebuild timing", nil, time.Now().UTC())

	req := Request{Query: "index rebuild", UseCache: true}

	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)
}

func TestSearch_CacheInvalidation(t *testing.T) {
	svc, st := setupService(t)
	archiveContent(t, st, "The index rebuild runs nightly after the compaction pass", nil, time.Now().UTC())

	req := Request{Query: "index rebuild", UseCache: true}

	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Results, 1)

	// New content stays invisible while the cached response is served
	archiveContent(t, st, "The index rebuild was moved to run hourly during the incident", nil, time.Now().UTC())
	svc.InvalidateCache()

	refreshed, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, refreshed.CacheHit)
	assert.Len(t, refreshed.Results, 2)
}
