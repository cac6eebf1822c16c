package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/segmenter"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// Pipeline coordinates ingestion: segment -> store -> embed
type Pipeline struct {
	storage   storage.Storage
	embedder  embedder.Embedder
	segmenter *segmenter.Segmenter

	// Worker pool configuration
	workers int
}

// Config contains configuration for the pipeline
type Config struct {
	Workers   int // Number of concurrent embedding workers (default: runtime.NumCPU())
	BatchSize int // Number of chunks per embedding batch (default: embedder.DefaultBatchSize)
}

// VideoInput is everything needed to ingest one video
type VideoInput struct {
	YouTubeID   string
	Title       string
	Channel     *string
	Thumbnail   *string
	PublishedAt *time.Time
	Segments    []types.TranscriptSegment
}

// Statistics contains the outcome of an ingestion operation
type Statistics struct {
	VideoID          int64
	ChunksCreated    int
	ChunksEmbedded   int
	EmbeddingsFailed int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Pipeline instance
func New(store storage.Storage, emb embedder.Embedder) *Pipeline {
	return &Pipeline{
		storage:   store,
		embedder:  emb,
		segmenter: segmenter.New(),
		workers:   runtime.NumCPU(),
	}
}

// IngestVideo registers a video, segments its transcript, stores the chunks,
// and embeds them concurrently. Re-ingesting a video replaces its chunks.
// Chunks whose embedding fails are kept without one; they stay visible to
// keyword search and are counted in EmbeddingsFailed.
func (p *Pipeline) IngestVideo(ctx context.Context, input VideoInput, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = embedder.DefaultBatchSize
	}
	p.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	video := &types.Video{
		YouTubeID:   input.YouTubeID,
		Title:       input.Title,
		Channel:     input.Channel,
		Thumbnail:   input.Thumbnail,
		PublishedAt: input.PublishedAt,
	}
	if err := video.Validate(); err != nil {
		return nil, err
	}

	// Store the video and its chunks in one transaction. Old chunks go
	// first so re-ingestion replaces rather than accumulates.
	chunks, err := p.storeChunks(ctx, video, input.Segments)
	if err != nil {
		return nil, err
	}
	stats.VideoID = video.ID
	stats.ChunksCreated = len(chunks)

	// Embed the stored chunks concurrently
	if err := p.embedChunks(ctx, chunks, config, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// storeChunks upserts the video and inserts its chunks transactionally
func (p *Pipeline) storeChunks(ctx context.Context, video *types.Video, segments []types.TranscriptSegment) ([]*types.Chunk, error) {
	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertVideo(ctx, video); err != nil {
		return nil, err
	}
	if err := tx.DeleteChunksByVideo(ctx, video.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old chunks: %w", err)
	}

	chunks := p.segmenter.Segment(video.ID, segments)
	for _, chunk := range chunks {
		if err := tx.InsertChunk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return chunks, nil
}

// embedChunks generates and stores embeddings in concurrent batches
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*types.Chunk, config *Config, stats *Statistics) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		embedded int32
		failed   int32
	)
	var mu sync.Mutex // Protect stats.ErrorMessages

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < len(chunks); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		g.Go(func() error {
			if err := p.embedBatch(gctx, batch, &embedded); err != nil {
				// A failed batch leaves its chunks keyword-only.
				// Context errors still abort the whole ingest.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt32(&failed, int32(len(batch)))
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats.ChunksEmbedded = int(embedded)
	stats.EmbeddingsFailed = int(failed)
	return nil
}

// embedBatch embeds one batch of chunks and stores the vectors in a
// transaction
func (p *Pipeline) embedBatch(ctx context.Context, batch []*types.Chunk, embedded *int32) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	resp, err := p.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(resp.Embeddings) != len(batch) {
		return fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(resp.Embeddings), len(batch))
	}

	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, chunk := range batch {
		emb := resp.Embeddings[i]
		record := &storage.Embedding{
			ChunkID:   chunk.ID,
			Vector:    storage.SerializeVector(emb.Vector),
			Dimension: emb.Dimension,
			Provider:  resp.Provider,
			Model:     resp.Model,
		}
		if err := tx.UpsertEmbedding(ctx, record); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	atomic.AddInt32(embedded, int32(len(batch)))
	return nil
}
