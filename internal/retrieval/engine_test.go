package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

var errNotUsed = errors.New("not used in this test")

// fakeStore serves canned search rows so scoring can be asserted exactly
type fakeStore struct {
	vectorHits []storage.VectorHit
	textHits   []storage.TextHit
	vectorErr  error
	textErr    error

	// last requested limits, for over-fetch assertions
	vectorLimit int
	textLimit   int
}

func (f *fakeStore) SearchChunksByVector(ctx context.Context, queryVector []float32, limit int) ([]storage.VectorHit, error) {
	f.vectorLimit = limit
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vectorHits, nil
}

func (f *fakeStore) SearchChunksByText(ctx context.Context, query string, limit int) ([]storage.TextHit, error) {
	f.textLimit = limit
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.textHits, nil
}

func (f *fakeStore) UpsertVideo(ctx context.Context, video *types.Video) error { return errNotUsed }
func (f *fakeStore) GetVideo(ctx context.Context, videoID int64) (*types.Video, error) {
	return nil, errNotUsed
}
func (f *fakeStore) GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*types.Video, error) {
	return nil, errNotUsed
}
func (f *fakeStore) ListVideos(ctx context.Context) ([]*types.Video, error) { return nil, errNotUsed }
func (f *fakeStore) DeleteVideo(ctx context.Context, videoID int64) error   { return errNotUsed }
func (f *fakeStore) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	return errNotUsed
}
func (f *fakeStore) GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error) {
	return nil, errNotUsed
}
func (f *fakeStore) ListChunksByVideo(ctx context.Context, videoID int64) ([]*types.Chunk, error) {
	return nil, errNotUsed
}
func (f *fakeStore) DeleteChunksByVideo(ctx context.Context, videoID int64) error { return errNotUsed }
func (f *fakeStore) UpsertEmbedding(ctx context.Context, emb *storage.Embedding) error {
	return errNotUsed
}
func (f *fakeStore) GetEmbedding(ctx context.Context, chunkID int64) (*storage.Embedding, error) {
	return nil, errNotUsed
}
func (f *fakeStore) DeleteEmbedding(ctx context.Context, chunkID int64) error { return errNotUsed }
func (f *fakeStore) GetStats(ctx context.Context) (*types.Stats, error)       { return nil, errNotUsed }
func (f *fakeStore) Close() error                                             { return nil }
func (f *fakeStore) BeginTx(ctx context.Context) (storage.Tx, error)          { return nil, errNotUsed }

// fakeEmbedder returns a constant vector of configurable width
type fakeEmbedder struct {
	dimension int
	err       error
}

func (f *fakeEmbedder) vector() []float32 {
	dim := f.dimension
	if dim == 0 {
		dim = embedder.EmbeddingDimension
	}
	vec := make([]float32, dim)
	if dim > 0 {
		vec[0] = 1
	}
	return vec
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec := f.vector()
	return &embedder.Embedding{Vector: vec, Dimension: len(vec), Provider: "fake", Model: "fake"}, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i := range req.Texts {
		vec := f.vector()
		embeddings[i] = &embedder.Embedding{Vector: vec, Dimension: len(vec)}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, Provider: "fake", Model: "fake"}, nil
}

func (f *fakeEmbedder) Dimension() int   { return embedder.EmbeddingDimension }
func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake" }
func (f *fakeEmbedder) Close() error     { return nil }

func vectorHit(chunkID, videoID int64, content string, distance float64) storage.VectorHit {
	return storage.VectorHit{
		Result:   types.SearchResult{ChunkID: chunkID, VideoID: videoID, Content: content},
		Distance: distance,
	}
}

func textHit(chunkID, videoID int64, content string) storage.TextHit {
	return storage.TextHit{
		Result: types.SearchResult{ChunkID: chunkID, VideoID: videoID, Content: content},
	}
}

func setupEngine(store *fakeStore, emb embedder.Embedder) *Engine {
	if emb == nil {
		emb = &fakeEmbedder{}
	}
	return NewEngine(store, emb)
}

func TestSearchEmptyQuery(t *testing.T) {
	engine := setupEngine(&fakeStore{}, nil)

	_, err := engine.Search(context.Background(), Request{Query: "   "})
	if !errors.Is(err, types.ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestValidateRequestDefaults(t *testing.T) {
	engine := setupEngine(&fakeStore{}, nil)

	req := Request{Query: "golang"}
	if err := engine.validateRequest(&req); err != nil {
		t.Fatalf("validateRequest: %v", err)
	}

	if req.Limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", req.Limit, DefaultLimit)
	}
	if req.Mode != ModeHybrid {
		t.Errorf("mode = %q, want hybrid", req.Mode)
	}
	if req.MinSimilarity != DefaultMinSimilarity {
		t.Errorf("threshold = %v, want %v", req.MinSimilarity, DefaultMinSimilarity)
	}
	if req.RRFConstant != DefaultRRFConstant {
		t.Errorf("rrf constant = %v, want %v", req.RRFConstant, DefaultRRFConstant)
	}
	if req.HalfLifeDays != DefaultHalfLifeDays {
		t.Errorf("half-life = %v, want %v", req.HalfLifeDays, DefaultHalfLifeDays)
	}

	capped := Request{Query: "golang", Limit: 500}
	if err := engine.validateRequest(&capped); err != nil {
		t.Fatalf("validateRequest: %v", err)
	}
	if capped.Limit != MaxLimit {
		t.Errorf("limit = %d, want capped at %d", capped.Limit, MaxLimit)
	}

	unfiltered := Request{Query: "golang", MinSimilarity: -1}
	if err := engine.validateRequest(&unfiltered); err != nil {
		t.Fatalf("validateRequest: %v", err)
	}
	if unfiltered.MinSimilarity != 0 {
		t.Errorf("negative threshold = %v, want 0 (disabled)", unfiltered.MinSimilarity)
	}
}

func TestSearchInvalidMode(t *testing.T) {
	engine := setupEngine(&fakeStore{}, nil)

	_, err := engine.Search(context.Background(), Request{Query: "golang", Mode: "fuzzy"})
	if !errors.Is(err, types.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestVectorSearchThreshold(t *testing.T) {
	store := &fakeStore{
		vectorHits: []storage.VectorHit{
			vectorHit(1, 1, "close match", 0.2),    // similarity 0.9
			vectorHit(2, 1, "middling", 1.0),       // similarity 0.5
			vectorHit(3, 2, "barely related", 1.6), // similarity 0.2
		},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang", Mode: ModeVector})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Default threshold 0.3 drops the 0.2 result
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if !almostEqual(resp.Results[0].Similarity, 0.9) {
		t.Errorf("top similarity = %v, want 0.9", resp.Results[0].Similarity)
	}
	if !almostEqual(resp.Results[1].Similarity, 0.5) {
		t.Errorf("second similarity = %v, want 0.5", resp.Results[1].Similarity)
	}
}

func TestVectorSearchThresholdDisabled(t *testing.T) {
	store := &fakeStore{
		vectorHits: []storage.VectorHit{
			vectorHit(1, 1, "a", 0.2),
			vectorHit(2, 1, "b", 1.6),
		},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{
		Query: "golang", Mode: ModeVector, MinSimilarity: -1,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want 2 with threshold disabled", len(resp.Results))
	}
}

func TestVectorSearchRejectsBadEmbedding(t *testing.T) {
	engine := setupEngine(&fakeStore{}, &fakeEmbedder{dimension: 128})

	_, err := engine.Search(context.Background(), Request{Query: "golang", Mode: ModeVector})
	if !errors.Is(err, types.ErrInvalidEmbedding) {
		t.Errorf("err = %v, want ErrInvalidEmbedding", err)
	}
}

func TestKeywordSearchFlatScores(t *testing.T) {
	store := &fakeStore{
		textHits: []storage.TextHit{
			textHit(3, 1, "goroutines explained"),
			textHit(7, 2, "more goroutines"),
		},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "goroutines", Mode: ModeKeyword})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	// Store order preserved, all scores flat 1.0
	if resp.Results[0].ChunkID != 3 || resp.Results[1].ChunkID != 7 {
		t.Errorf("order = [%d, %d], want store order [3, 7]",
			resp.Results[0].ChunkID, resp.Results[1].ChunkID)
	}
	for _, r := range resp.Results {
		if r.Similarity != 1.0 {
			t.Errorf("chunk %d similarity = %v, want 1.0", r.ChunkID, r.Similarity)
		}
	}
}

func TestHybridSearchFusesRankings(t *testing.T) {
	store := &fakeStore{
		vectorHits: []storage.VectorHit{
			vectorHit(1, 1, "semantic only", 0.2),
			vectorHit(2, 1, "found by both", 0.4),
		},
		textHits: []storage.TextHit{
			textHit(2, 1, "found by both"),
			textHit(3, 2, "keyword only"),
		},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang", Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Degraded {
		t.Error("unexpected degraded response")
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Results))
	}
	// Chunk 2 ranks in both lists: 1/(60+1+1) + 1/(60+0+1)
	if resp.Results[0].ChunkID != 2 {
		t.Errorf("top chunk = %d, want 2", resp.Results[0].ChunkID)
	}
	if !almostEqual(resp.Results[0].Similarity, 1.0/62+1.0/61) {
		t.Errorf("top score = %v, want %v", resp.Results[0].Similarity, 1.0/62+1.0/61)
	}

	// Both retrievers over-fetch twice the limit
	if store.vectorLimit != 20 || store.textLimit != 20 {
		t.Errorf("fetch limits = (%d, %d), want (20, 20)", store.vectorLimit, store.textLimit)
	}
}

func TestHybridSearchDegradesOnVectorFailure(t *testing.T) {
	store := &fakeStore{
		vectorErr: errors.New("extension missing"),
		textHits:  []storage.TextHit{textHit(1, 1, "keyword match")},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !resp.Degraded {
		t.Error("response should be degraded")
	}
	if len(resp.Results) != 1 || resp.Results[0].Similarity != 1.0 {
		t.Errorf("results = %+v, want single keyword hit scored 1.0", resp.Results)
	}
}

func TestHybridSearchDegradesOnKeywordFailure(t *testing.T) {
	store := &fakeStore{
		vectorHits: []storage.VectorHit{vectorHit(1, 1, "semantic match", 0.2)},
		textErr:    errors.New("disk io"),
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !resp.Degraded {
		t.Error("response should be degraded")
	}
	if len(resp.Results) != 1 || !almostEqual(resp.Results[0].Similarity, 0.9) {
		t.Errorf("results = %+v, want single vector hit scored 0.9", resp.Results)
	}
}

func TestHybridSearchBothRetrieversFail(t *testing.T) {
	store := &fakeStore{
		vectorErr: errors.New("extension missing"),
		textErr:   errors.New("disk io"),
	}
	engine := setupEngine(store, nil)

	if _, err := engine.Search(context.Background(), Request{Query: "golang"}); err == nil {
		t.Error("expected error when both retrievers fail")
	}
}

func TestSearchTemporalDecayReordersResults(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	oldHit := vectorHit(1, 1, "old upload", 0.2) // similarity 0.9
	oldHit.Result.PublishedAt = timePtr(now.AddDate(0, 0, -720))
	freshHit := vectorHit(2, 2, "fresh upload", 0.6) // similarity 0.7
	freshHit.Result.PublishedAt = timePtr(now.AddDate(0, 0, -1))

	store := &fakeStore{vectorHits: []storage.VectorHit{oldHit, freshHit}}
	engine := setupEngine(store, nil)
	engine.now = func() time.Time { return now }

	resp, err := engine.Search(context.Background(), Request{
		Query:         "golang",
		Mode:          ModeVector,
		TemporalDecay: true,
		HalfLifeDays:  180,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Results[0].ChunkID != 2 {
		t.Errorf("top chunk = %d, want fresh chunk 2 after decay", resp.Results[0].ChunkID)
	}
	if !almostEqual(resp.Results[1].Similarity, 0.9*0.0625) {
		t.Errorf("old score = %v, want %v", resp.Results[1].Similarity, 0.9*0.0625)
	}
}

func TestSearchDecayDisabledIsNoOp(t *testing.T) {
	now := time.Now()
	hit := vectorHit(1, 1, "old upload", 0.2)
	hit.Result.PublishedAt = timePtr(now.AddDate(-3, 0, 0))

	store := &fakeStore{vectorHits: []storage.VectorHit{hit}}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang", Mode: ModeVector})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !almostEqual(resp.Results[0].Similarity, 0.9) {
		t.Errorf("score = %v, want undecayed 0.9", resp.Results[0].Similarity)
	}
}

func TestSearchCache(t *testing.T) {
	store := &fakeStore{
		textHits: []storage.TextHit{textHit(1, 1, "cached content")},
	}
	engine := setupEngine(store, nil)
	req := Request{Query: "golang", Mode: ModeKeyword, UseCache: true}

	first, err := engine.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if first.CacheHit {
		t.Error("first search should miss the cache")
	}

	// Corpus changes, but the cached response is still served
	store.textHits = append(store.textHits, textHit(2, 1, "new content"))

	second, err := engine.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !second.CacheHit {
		t.Error("second search should hit the cache")
	}
	if len(second.Results) != 1 {
		t.Errorf("got %d results, want cached 1", len(second.Results))
	}

	engine.InvalidateCache()

	third, err := engine.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if third.CacheHit {
		t.Error("search after invalidation should miss the cache")
	}
	if len(third.Results) != 2 {
		t.Errorf("got %d results, want fresh 2", len(third.Results))
	}
}

func TestSearchCacheIsolatesCallers(t *testing.T) {
	store := &fakeStore{
		textHits: []storage.TextHit{textHit(1, 1, "shared content")},
	}
	engine := setupEngine(store, nil)
	req := Request{Query: "golang", Mode: ModeKeyword, UseCache: true}

	if _, err := engine.Search(context.Background(), req); err != nil {
		t.Fatalf("Search: %v", err)
	}

	cached, err := engine.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	cached.Results[0].Content = "mutated by caller"

	again, err := engine.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if again.Results[0].Content != "shared content" {
		t.Errorf("cache entry was mutated through a returned response")
	}
}

func TestSearchLimitTruncatesHybrid(t *testing.T) {
	store := &fakeStore{
		vectorHits: []storage.VectorHit{
			vectorHit(1, 1, "a", 0.2),
			vectorHit(2, 1, "b", 0.3),
			vectorHit(3, 1, "c", 0.4),
		},
	}
	engine := setupEngine(store, nil)

	resp, err := engine.Search(context.Background(), Request{Query: "golang", Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("got %d results, want limit 2", len(resp.Results))
	}
}
