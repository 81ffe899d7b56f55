package embedder

import (
	"context"
	"crypto/sha256"
)

const (
	LocalDimension = 384
	localModelName = "local-hash"
)

// LocalProvider is a deterministic fallback embedder. It derives a unit
// vector from the content hash, so identical text always maps to the same
// point. Useful for tests and for running without an Ollama server; vector
// similarity is meaningless but keyword search still works.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{
		model: localModelName,
		cache: cache,
	}
}

func (l *LocalProvider) embed(text string) []float32 {
	vector := make([]float32, LocalDimension)

	// Expand the digest across the full dimension by re-hashing
	seed := []byte(text)
	for i := 0; i < LocalDimension; {
		digest := sha256.Sum256(seed)
		for _, b := range digest {
			if i >= LocalDimension {
				break
			}
			vector[i] = float32(b)/127.5 - 1.0
			i++
		}
		seed = digest[:]
	}

	return NormalizeVector(vector)
}

// EmbedPassages embeds fragment content deterministically
func (l *LocalProvider) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash := ComputeHash(passagePrefix + text)
		if l.cache != nil {
			if v, ok := l.cache.Get(hash); ok {
				vectors[i] = v
				continue
			}
		}
		v := l.embed(passagePrefix + text)
		vectors[i] = v
		if l.cache != nil {
			l.cache.Set(hash, v)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a search query deterministically
func (l *LocalProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(queryPrefix + text)
	if l.cache != nil {
		if v, ok := l.cache.Get(hash); ok {
			return v, nil
		}
	}
	v := l.embed(queryPrefix + text)
	if l.cache != nil {
		l.cache.Set(hash, v)
	}
	return v, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
