package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	cache := NewCache(2)

	v := []float32{1, 2, 3}
	cache.Set("a", v)

	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, v, got)

	// Mutating the returned copy must not affect the cached value
	got[0] = 99
	again, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])

	// LRU eviction at capacity
	cache.Set("b", []float32{4})
	cache.Set("c", []float32{5})
	_, ok = cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestComputeHash(t *testing.T) {
	h1 := ComputeHash("hello")
	h2 := ComputeHash("hello")
	h3 := ComputeHash("world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestValidateBatch(t *testing.T) {
	assert.ErrorIs(t, ValidateBatch(nil), ErrInvalidInput)
	assert.ErrorIs(t, ValidateBatch([]string{"ok", ""}), ErrInvalidInput)
	assert.NoError(t, ValidateBatch([]string{"ok"}))
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	// Zero vector passes through unchanged
	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestLocalProvider_Deterministic(t *testing.T) {
	p := NewLocalProvider(nil)
	ctx := context.Background()

	v1, err := p.EmbedQuery(ctx, "the same text")
	require.NoError(t, err)
	v2, err := p.EmbedQuery(ctx, "the same text")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, LocalDimension)

	v3, err := p.EmbedQuery(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestLocalProvider_UnitLength(t *testing.T) {
	p := NewLocalProvider(nil)
	v, err := p.EmbedQuery(context.Background(), "check the norm")
	require.NoError(t, err)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestLocalProvider_PassageQueryAsymmetry(t *testing.T) {
	p := NewLocalProvider(nil)
	ctx := context.Background()

	passages, err := p.EmbedPassages(ctx, []string{"shared text"})
	require.NoError(t, err)
	query, err := p.EmbedQuery(ctx, "shared text")
	require.NoError(t, err)

	// Different task prefixes produce different vectors for identical text
	assert.NotEqual(t, passages[0], query)
}

func TestLocalProvider_EmptyInput(t *testing.T) {
	p := NewLocalProvider(nil)
	ctx := context.Background()

	_, err := p.EmbedQuery(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = p.EmbedPassages(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLocalProvider_ContextCancelled(t *testing.T) {
	p := NewLocalProvider(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedPassages(ctx, []string{"text"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "mystery"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNew_Local(t *testing.T) {
	handle, err := New(Config{Provider: "local", CacheSize: 100})
	require.NoError(t, err)
	defer handle.Close()

	p, err := handle.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LocalDimension, p.Dimension())
	assert.Equal(t, StateReady, handle.State())
}
