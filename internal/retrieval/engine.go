package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// Mode defines how retrieval is performed
type Mode string

const (
	ModeHybrid  Mode = "hybrid"  // Vector + keyword with RRF
	ModeVector  Mode = "vector"  // Vector similarity only
	ModeKeyword Mode = "keyword" // Keyword substring search only
)

// Defaults and bounds for request parameters
const (
	DefaultLimit         = 10
	MaxLimit             = 100
	DefaultMinSimilarity = 0.3
	DefaultRRFConstant   = 60
	DefaultHalfLifeDays  = 365
	DefaultCacheTTL      = 1 * time.Hour
)

// Request contains parameters for a retrieval operation
type Request struct {
	Query string
	Mode  Mode
	Limit int

	// MinSimilarity filters vector results. Zero selects the default of
	// 0.3; a negative value disables the threshold entirely.
	MinSimilarity float64

	// RRFConstant is the k value for Reciprocal Rank Fusion (default 60)
	RRFConstant float64

	// TemporalDecay multiplies scores by 0.5^(ageDays/HalfLifeDays).
	// When false, scores pass through untouched.
	TemporalDecay bool
	HalfLifeDays  float64

	UseCache bool // Whether to use the query cache
	CacheTTL time.Duration
}

// Response contains retrieval results and metadata
type Response struct {
	Results      []types.SearchResult
	TotalResults int
	Mode         Mode

	// Degraded is set when hybrid mode lost one retriever and fell back
	// to the survivor.
	Degraded bool

	Duration     time.Duration
	CacheHit     bool
	VectorCount  int
	KeywordCount int
}

// cacheEntry represents a cached response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Engine coordinates retrieval across the vector and keyword paths
type Engine struct {
	storage  storage.Storage
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex

	// now is replaceable in tests to pin temporal decay
	now func() time.Time
}

// NewEngine creates a new retrieval Engine
func NewEngine(store storage.Storage, emb embedder.Embedder) *Engine {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Engine{
		storage:  store,
		embedder: emb,
		cache:    cache,
		now:      time.Now,
	}
}

// Search performs a retrieval based on the request parameters
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if e.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	if err := e.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	// Check cache if enabled
	if req.UseCache {
		if cached := e.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *Response
	var err error

	switch req.Mode {
	case ModeHybrid:
		response, err = e.hybridSearch(ctx, req)
	case ModeVector:
		response, err = e.vectorSearch(ctx, req)
	case ModeKeyword:
		response, err = e.keywordSearch(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidMode, req.Mode)
	}

	if err != nil {
		return nil, err
	}

	// Temporal decay runs after mode scoring, uniformly in every mode
	if req.TemporalDecay {
		applyTemporalDecay(response.Results, req.HalfLifeDays, e.now())
		sort.SliceStable(response.Results, func(i, j int) bool {
			return response.Results[i].Similarity > response.Results[j].Similarity
		})
	}

	response.Duration = time.Since(startTime)
	response.Mode = req.Mode

	if req.UseCache && len(response.Results) > 0 {
		e.storeInCache(req, response)
	}

	return response, nil
}

// retrieverResult holds results from concurrent retriever runs
type retrieverResult struct {
	results []types.SearchResult
	err     error
}

// runVectorSearch executes the vector retriever in a goroutine
func (e *Engine) runVectorSearch(ctx context.Context, req Request, fetchLimit int, resultChan chan<- retrieverResult) {
	var res retrieverResult
	res.results, res.err = e.retrieveByVector(ctx, req, fetchLimit)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// runKeywordSearch executes the keyword retriever in a goroutine
func (e *Engine) runKeywordSearch(ctx context.Context, req Request, fetchLimit int, resultChan chan<- retrieverResult) {
	var res retrieverResult
	res.results, res.err = e.retrieveByKeyword(ctx, req, fetchLimit)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// hybridSearch runs both retrievers concurrently and fuses their rankings.
// One retriever may fail; the response then degrades to the survivor.
func (e *Engine) hybridSearch(ctx context.Context, req Request) (*Response, error) {
	// Over-fetch so fusion has enough candidates from each side
	fetchLimit := req.Limit * 2

	vectorChan := make(chan retrieverResult, 1)
	keywordChan := make(chan retrieverResult, 1)

	go e.runVectorSearch(ctx, req, fetchLimit, vectorChan)
	go e.runKeywordSearch(ctx, req, fetchLimit, keywordChan)

	// Wait for both retrievers
	var vectorRes, keywordRes retrieverResult
	var vectorDone, keywordDone bool
	for !vectorDone || !keywordDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case keywordRes = <-keywordChan:
			keywordDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vectorRes.err != nil && keywordRes.err != nil {
		return nil, fmt.Errorf("both retrievers failed: vector=%w, keyword=%v", vectorRes.err, keywordRes.err)
	}

	// Degrade to the surviving retriever when one failed
	if vectorRes.err != nil {
		return &Response{
			Results:      truncate(keywordRes.results, req.Limit),
			TotalResults: min(len(keywordRes.results), req.Limit),
			Degraded:     true,
			KeywordCount: len(keywordRes.results),
		}, nil
	}
	if keywordRes.err != nil {
		return &Response{
			Results:      truncate(vectorRes.results, req.Limit),
			TotalResults: min(len(vectorRes.results), req.Limit),
			Degraded:     true,
			VectorCount:  len(vectorRes.results),
		}, nil
	}

	fused := fuseRRF(vectorRes.results, keywordRes.results, req.RRFConstant)
	fused = truncate(fused, req.Limit)

	return &Response{
		Results:      fused,
		TotalResults: len(fused),
		VectorCount:  len(vectorRes.results),
		KeywordCount: len(keywordRes.results),
	}, nil
}

// vectorSearch performs only vector similarity retrieval
func (e *Engine) vectorSearch(ctx context.Context, req Request) (*Response, error) {
	results, err := e.retrieveByVector(ctx, req, req.Limit)
	if err != nil {
		return nil, err
	}
	return &Response{
		Results:      results,
		TotalResults: len(results),
		VectorCount:  len(results),
	}, nil
}

// keywordSearch performs only keyword substring retrieval
func (e *Engine) keywordSearch(ctx context.Context, req Request) (*Response, error) {
	results, err := e.retrieveByKeyword(ctx, req, req.Limit)
	if err != nil {
		return nil, err
	}
	return &Response{
		Results:      results,
		TotalResults: len(results),
		KeywordCount: len(results),
	}, nil
}

// retrieveByVector embeds the query, validates the vector, and maps store
// distances to similarities. Similarity is 1 - distance/2, clamped to
// [0, 1], and rows below the threshold are dropped here rather than in SQL.
func (e *Engine) retrieveByVector(ctx context.Context, req Request, limit int) ([]types.SearchResult, error) {
	embedding, err := e.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	if err := validateQueryVector(embedding.Vector); err != nil {
		return nil, err
	}

	hits, err := e.storage.SearchChunksByVector(ctx, embedding.Vector, limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		similarity := clamp01(1 - hit.Distance/2)
		if similarity < req.MinSimilarity {
			continue
		}
		result := hit.Result
		result.Similarity = similarity
		results = append(results, result)
	}
	return results, nil
}

// retrieveByKeyword runs the substring search. Every match scores a flat
// 1.0 and store order is preserved.
func (e *Engine) retrieveByKeyword(ctx context.Context, req Request, limit int) ([]types.SearchResult, error) {
	hits, err := e.storage.SearchChunksByText(ctx, req.Query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		result := hit.Result
		result.Similarity = 1.0
		results = append(results, result)
	}
	return results, nil
}

// validateRequest ensures the request is valid and applies defaults
func (e *Engine) validateRequest(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return types.ErrEmptyQuery
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

	if req.MinSimilarity == 0 {
		req.MinSimilarity = DefaultMinSimilarity
	} else if req.MinSimilarity < 0 {
		req.MinSimilarity = 0
	}

	if req.RRFConstant <= 0 {
		req.RRFConstant = DefaultRRFConstant
	}

	if req.HalfLifeDays <= 0 {
		req.HalfLifeDays = DefaultHalfLifeDays
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// validateQueryVector rejects embeddings with the wrong width or
// non-finite components before they reach storage
func validateQueryVector(vec []float32) error {
	if len(vec) != embedder.EmbeddingDimension {
		return fmt.Errorf("%w: got %d dimensions, want %d",
			types.ErrInvalidEmbedding, len(vec), embedder.EmbeddingDimension)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", types.ErrInvalidEmbedding, i)
		}
	}
	return nil
}

// checkCache looks up a cached response, pruning expired entries
func (e *Engine) checkCache(req Request) *Response {
	hash := computeQueryHash(req)
	now := time.Now()

	e.cacheMu.RLock()
	entry, found := e.cache.Get(hash)
	if !found {
		e.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		e.cacheMu.RUnlock()
		e.cacheMu.Lock()
		e.cache.Remove(hash)
		e.cacheMu.Unlock()
		return nil
	}

	// Deep copy while holding the read lock
	response := copyResponse(entry.response)
	e.cacheMu.RUnlock()

	return response
}

// storeInCache saves a response to the query cache
func (e *Engine) storeInCache(req Request, response *Response) {
	hash := computeQueryHash(req)
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	e.cacheMu.Lock()
	e.cache.Add(hash, entry)
	e.cacheMu.Unlock()
}

// InvalidateCache drops all cached queries. Called after ingestion changes
// the corpus.
func (e *Engine) InvalidateCache() {
	e.cacheMu.Lock()
	e.cache.Purge()
	e.cacheMu.Unlock()
}

// copyResponse creates a deep copy of a Response
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		TotalResults: src.TotalResults,
		Mode:         src.Mode,
		Degraded:     src.Degraded,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		VectorCount:  src.VectorCount,
		KeywordCount: src.KeywordCount,
		Results:      make([]types.SearchResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)

	return dst
}

// computeQueryHash computes a unique hash for a retrieval request
func computeQueryHash(req Request) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%.4f|%.2f|%t|%.2f",
		req.Limit, req.MinSimilarity, req.RRFConstant, req.TemporalDecay, req.HalfLifeDays)

	return sha256.Sum256([]byte(data.String()))
}

// truncate limits a result slice without reallocating
func truncate(results []types.SearchResult, limit int) []types.SearchResult {
	if limit < len(results) {
		return results[:limit]
	}
	return results
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
