package embedder

import (
	"context"
	"fmt"
	"strings"
)

// Provider names
const (
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	OllamaURL string
	Model     string
	CacheSize int
}

// New creates a provider handle with explicit configuration
func New(cfg Config) (*Handle, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOllama, "":
		p := NewOllamaProvider(cfg.OllamaURL, cfg.Model, cache)
		return NewHandle(ProviderOllama, p, func(ctx context.Context) error {
			return p.Verify(ctx)
		}), nil
	case ProviderLocal:
		return NewHandle(ProviderLocal, NewLocalProvider(cache), nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
