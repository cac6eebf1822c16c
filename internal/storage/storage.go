package storage

import (
	"context"
	"time"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// Storage defines the interface for persisting and querying transcript data
type Storage interface {
	// Video operations
	UpsertVideo(ctx context.Context, video *types.Video) error
	GetVideo(ctx context.Context, videoID int64) (*types.Video, error)
	GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*types.Video, error)
	ListVideos(ctx context.Context) ([]*types.Video, error)
	DeleteVideo(ctx context.Context, videoID int64) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*types.Chunk, error)
	ListChunksByVideo(ctx context.Context, videoID int64) ([]*types.Chunk, error)
	DeleteChunksByVideo(ctx context.Context, videoID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error

	// Search operations. Both return chunk rows joined with video metadata.
	// SearchChunksByVector returns rows ordered by cosine distance ascending;
	// no similarity thresholding happens here, callers filter. Chunks without
	// an embedding are never returned.
	// SearchChunksByText matches the query as a case-insensitive substring of
	// chunk content and returns rows in store order.
	SearchChunksByVector(ctx context.Context, queryVector []float32, limit int) ([]VectorHit, error)
	SearchChunksByText(ctx context.Context, query string, limit int) ([]TextHit, error)

	// Stats operations
	GetStats(ctx context.Context) (*types.Stats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Embedding represents a stored vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array, little-endian
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// VectorHit is a vector search row: the joined chunk and video fields plus
// the raw cosine distance in [0, 2]. Result.Similarity is left zero; score
// derivation belongs to the retrieval layer.
type VectorHit struct {
	Result   types.SearchResult
	Distance float64
}

// TextHit is a keyword search row. Result.Similarity is left zero.
type TextHit struct {
	Result types.SearchResult
}
