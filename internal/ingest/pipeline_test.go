package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// failingEmbedder always errors, simulating an unreachable provider
type failingEmbedder struct{}

func (f *failingEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return nil, errors.New("provider unreachable")
}

func (f *failingEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	return nil, errors.New("provider unreachable")
}

func (f *failingEmbedder) Dimension() int   { return embedder.EmbeddingDimension }
func (f *failingEmbedder) Provider() string { return "failing" }
func (f *failingEmbedder) Model() string    { return "failing" }
func (f *failingEmbedder) Close() error     { return nil }

func setupPipeline(t *testing.T, emb embedder.Embedder) (*Pipeline, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if emb == nil {
		emb, err = embedder.NewLocalProvider(nil)
		require.NoError(t, err)
	}
	return New(store, emb), store
}

func sampleInput() VideoInput {
	return VideoInput{
		YouTubeID: "abc123",
		Title:     "Testing in Go",
		Segments: []types.TranscriptSegment{
			{Text: "welcome to the show", Start: 0, End: 5},
			{Text: "today we talk about table driven tests", Start: 5, End: 12},
		},
	}
}

func TestIngestVideo(t *testing.T) {
	pipeline, store := setupPipeline(t, nil)
	ctx := context.Background()

	stats, err := pipeline.IngestVideo(ctx, sampleInput(), nil)
	require.NoError(t, err)

	assert.Greater(t, stats.VideoID, int64(0))
	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Equal(t, stats.ChunksCreated, stats.ChunksEmbedded)
	assert.Zero(t, stats.EmbeddingsFailed)

	chunks, err := store.ListChunksByVideo(ctx, stats.VideoID)
	require.NoError(t, err)
	assert.Len(t, chunks, stats.ChunksCreated)

	// Every chunk got an embedding
	for _, chunk := range chunks {
		emb, err := store.GetEmbedding(ctx, chunk.ID)
		require.NoError(t, err)
		assert.Equal(t, embedder.EmbeddingDimension, emb.Dimension)
	}
}

func TestIngestVideo_ReingestReplacesChunks(t *testing.T) {
	pipeline, store := setupPipeline(t, nil)
	ctx := context.Background()

	first, err := pipeline.IngestVideo(ctx, sampleInput(), nil)
	require.NoError(t, err)

	// Re-ingest with a shorter transcript
	input := sampleInput()
	input.Segments = input.Segments[:1]
	second, err := pipeline.IngestVideo(ctx, input, nil)
	require.NoError(t, err)

	assert.Equal(t, first.VideoID, second.VideoID)

	chunks, err := store.ListChunksByVideo(ctx, second.VideoID)
	require.NoError(t, err)
	assert.Len(t, chunks, second.ChunksCreated)
	assert.Equal(t, "welcome to the show", chunks[0].Content)
}

func TestIngestVideo_EmbeddingFailureKeepsChunks(t *testing.T) {
	pipeline, store := setupPipeline(t, &failingEmbedder{})
	ctx := context.Background()

	stats, err := pipeline.IngestVideo(ctx, sampleInput(), nil)
	require.NoError(t, err)

	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Zero(t, stats.ChunksEmbedded)
	assert.Equal(t, stats.ChunksCreated, stats.EmbeddingsFailed)
	assert.NotEmpty(t, stats.ErrorMessages)

	// Chunks survive without embeddings, visible to keyword search
	hits, err := store.SearchChunksByText(ctx, "welcome", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	chunks, err := store.ListChunksByVideo(ctx, stats.VideoID)
	require.NoError(t, err)
	for _, chunk := range chunks {
		_, err := store.GetEmbedding(ctx, chunk.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
}

func TestIngestVideo_InvalidInput(t *testing.T) {
	pipeline, _ := setupPipeline(t, nil)

	_, err := pipeline.IngestVideo(context.Background(), VideoInput{Title: "no id"}, nil)
	assert.Error(t, err)
}

func TestIngestVideo_EmptyTranscript(t *testing.T) {
	pipeline, _ := setupPipeline(t, nil)

	input := sampleInput()
	input.Segments = nil
	stats, err := pipeline.IngestVideo(context.Background(), input, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.ChunksCreated)
	assert.Zero(t, stats.ChunksEmbedded)
}
