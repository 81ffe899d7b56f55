package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama provider configuration
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
	OllamaDimension    = 768

	// Task prefixes for asymmetric retrieval models
	passagePrefix = "search_document: "
	queryPrefix   = "search_query: "

	// Batch limits
	MaxBatchSize = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// OllamaProvider implements Provider using a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	cache      *Cache
}

// NewOllamaProvider creates an embedder backed by an Ollama server
func NewOllamaProvider(baseURL, model string, cache *Cache) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaProvider{
		baseURL:   baseURL,
		model:     model,
		dimension: OllamaDimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// EmbedPassages embeds fragment content with the document task prefix
func (o *OllamaProvider) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ValidateBatch(texts); err != nil {
		return nil, err
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	vectors := make([][]float32, len(texts))
	pending := make([]string, 0, len(texts))
	pendingIdx := make([]int, 0, len(texts))

	// Serve from cache first
	for i, text := range texts {
		if o.cache != nil {
			if v, ok := o.cache.Get(ComputeHash(passagePrefix + text)); ok {
				vectors[i] = v
				continue
			}
		}
		pending = append(pending, passagePrefix+text)
		pendingIdx = append(pendingIdx, i)
	}

	if len(pending) > 0 {
		config := DefaultRetryConfig()
		embedded, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
			return o.callAPI(ctx, pending)
		})
		if err != nil {
			return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
		}
		if len(embedded) != len(pending) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProviderFailed, len(embedded), len(pending))
		}

		for j, v := range embedded {
			if len(v) != o.dimension {
				return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(v), o.dimension)
			}
			v = NormalizeVector(v)
			vectors[pendingIdx[j]] = v
			if o.cache != nil {
				o.cache.Set(ComputeHash(pending[j]), v)
			}
		}
	}

	return vectors, nil
}

// EmbedQuery embeds a search query with the query task prefix
func (o *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	prefixed := queryPrefix + text
	hash := ComputeHash(prefixed)
	if o.cache != nil {
		if v, ok := o.cache.Get(hash); ok {
			return v, nil
		}
	}

	config := DefaultRetryConfig()
	embedded, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return o.callAPI(ctx, []string{prefixed})
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}
	if len(embedded) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	if len(embedded[0]) != o.dimension {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(embedded[0]), o.dimension)
	}

	v := NormalizeVector(embedded[0])
	if o.cache != nil {
		o.cache.Set(hash, v)
	}
	return v, nil
}

func (o *OllamaProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": o.model,
		"input": texts,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Embeddings [][]float32 `json:"embeddings"`
		Model      string      `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return apiResp.Embeddings, nil
}

// Verify checks that the Ollama server is reachable and the model responds
func (o *OllamaProvider) Verify(ctx context.Context) error {
	_, err := o.callAPI(ctx, []string{queryPrefix + "ping"})
	return err
}

func (o *OllamaProvider) Dimension() int {
	return o.dimension
}

func (o *OllamaProvider) Model() string {
	return o.model
}

func (o *OllamaProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
