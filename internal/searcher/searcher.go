package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/engramdb/engram/internal/embedder"
	"github.com/engramdb/engram/internal/store"
	"github.com/engramdb/engram/pkg/types"
)

// Mode defines how search is performed
type Mode string

const (
	ModeHybrid  Mode = "hybrid"  // Vector + BM25 with RRF
	ModeVector  Mode = "vector"  // Vector similarity only
	ModeKeyword Mode = "keyword" // BM25 text search only
)

// Limits
const (
	DefaultLimit = 5
	MaxLimit     = 100

	// candidateMultiplier widens each leg's fetch so fusion has enough
	// overlap to work with
	candidateMultiplier = 4
)

// Request contains parameters for a search operation
type Request struct {
	Query       string
	Limit       int
	Mode        Mode
	ProjectID   *string
	AllProjects bool
	UseCache    bool
	CacheTTL    time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results     []types.SearchResult
	Duration    time.Duration
	CacheHit    bool
	VectorHits  int
	KeywordHits int
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Service coordinates hybrid retrieval across vector and keyword search
type Service struct {
	store    store.Store
	handle   *embedder.Handle
	cache    *lru.Cache[[32]byte, *cacheEntry]
	rrfK     float64
	halfLife time.Duration
	now      func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithRRFConstant overrides the Reciprocal Rank Fusion k constant
func WithRRFConstant(k float64) Option {
	return func(s *Service) { s.rrfK = k }
}

// WithHalfLife overrides the recency decay half-life
func WithHalfLife(d time.Duration) Option {
	return func(s *Service) { s.halfLife = d }
}

// WithClock overrides the time source, for deterministic decay in tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a search service
func NewService(st store.Store, handle *embedder.Handle, opts ...Option) *Service {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	s := &Service{
		store:    st,
		handle:   handle,
		cache:    cache,
		rrfK:     DefaultRRFConstant,
		halfLife: DefaultHalfLife,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs retrieval according to the request parameters
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached, ok := s.checkCache(req); ok {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *Response
	var err error

	switch req.Mode {
	case ModeHybrid:
		response, err = s.hybridSearch(ctx, req)
	case ModeVector:
		response, err = s.vectorSearch(ctx, req)
	case ModeKeyword:
		response, err = s.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// hybridSearch fans out to both legs in parallel and fuses the ranked lists.
// One leg may fail (typically vector, when the embedding provider is down);
// the other still serves results.
func (s *Service) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	scope := s.scope(req)
	fetch := req.Limit * candidateMultiplier

	var vectorHits []store.VectorHit
	var keywordHits []store.KeywordHit
	var vectorErr, keywordErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorHits, vectorErr = s.runVectorLeg(gctx, req.Query, scope, fetch)
		return nil
	})
	g.Go(func() error {
		keywordHits, keywordErr = s.store.SearchText(gctx, req.Query, scope, fetch)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if vectorErr != nil && keywordErr != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, keyword=%v", vectorErr, keywordErr)
	}

	fused := fuse(vectorHits, keywordHits, s.rrfK, s.now(), s.halfLife)
	results, err := s.fetchResults(ctx, fused, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:     results,
		VectorHits:  len(vectorHits),
		KeywordHits: len(keywordHits),
	}, nil
}

// runVectorLeg embeds the query and runs similarity search
func (s *Service) runVectorLeg(ctx context.Context, query string, scope store.Scope, limit int) ([]store.VectorHit, error) {
	provider, err := s.handle.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedder.ErrProviderUnavailable, err)
	}

	queryVector, err := provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.store.SearchVector(ctx, queryVector, scope, limit)
}

// vectorSearch performs only vector similarity search
func (s *Service) vectorSearch(ctx context.Context, req Request) (*Response, error) {
	hits, err := s.runVectorLeg(ctx, req.Query, s.scope(req), req.Limit*candidateMultiplier)
	if err != nil {
		return nil, err
	}

	fused := fuse(hits, nil, s.rrfK, s.now(), s.halfLife)
	results, err := s.fetchResults(ctx, fused, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:    results,
		VectorHits: len(hits),
	}, nil
}

// keywordSearch performs only BM25 text search
func (s *Service) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	hits, err := s.store.SearchText(ctx, req.Query, s.scope(req), req.Limit*candidateMultiplier)
	if err != nil {
		return nil, err
	}

	fused := fuse(nil, hits, s.rrfK, s.now(), s.halfLife)
	results, err := s.fetchResults(ctx, fused, req.Limit)
	if err != nil {
		return nil, err
	}

	return &Response{
		Results:     results,
		KeywordHits: len(hits),
	}, nil
}

// fetchResults loads full fragment content for the top ranked hits
func (s *Service) fetchResults(ctx context.Context, fused []fusedHit, limit int) ([]types.SearchResult, error) {
	if limit > len(fused) {
		limit = len(fused)
	}

	results := make([]types.SearchResult, 0, limit)
	for _, hit := range fused {
		if len(results) >= limit {
			break
		}

		frag, err := s.store.GetFragment(ctx, hit.fragmentID)
		if err != nil {
			continue // Skip fragments that can't be loaded
		}

		results = append(results, types.SearchResult{
			ID:        frag.ID,
			Score:     hit.score,
			Content:   frag.Content,
			Source:    hit.source,
			Timestamp: frag.Timestamp,
			ProjectID: frag.ProjectID,
		})
	}

	return results, nil
}

func (s *Service) scope(req Request) store.Scope {
	return store.Scope{ProjectID: req.ProjectID, AllProjects: req.AllProjects}
}

// validateRequest ensures the request is valid, filling defaults
func (s *Service) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Mode == "" {
		req.Mode = ModeHybrid
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = time.Hour
	}

	return nil
}

// computeRequestHash builds the cache key for a request
func computeRequestHash(req Request) [32]byte {
	var sb strings.Builder
	sb.WriteString(req.Query)
	sb.WriteByte(0)
	sb.WriteString(string(req.Mode))
	sb.WriteByte(0)
	sb.WriteString(strconv.Itoa(req.Limit))
	sb.WriteByte(0)
	if req.ProjectID != nil {
		sb.WriteString(*req.ProjectID)
	}
	sb.WriteByte(0)
	sb.WriteString(strconv.FormatBool(req.AllProjects))
	return sha256.Sum256([]byte(sb.String()))
}

func (s *Service) checkCache(req Request) (*Response, bool) {
	entry, found := s.cache.Get(computeRequestHash(req))
	if !found || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	// Shallow copy so callers can't mutate the cached response
	resp := *entry.response
	return &resp, true
}

func (s *Service) storeInCache(req Request, resp *Response) {
	s.cache.Add(computeRequestHash(req), &cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(req.CacheTTL),
	})
}

// InvalidateCache drops every cached response. Called after an archive run so
// new fragments become visible without waiting out the TTL.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
}
