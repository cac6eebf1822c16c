package types

import (
	"fmt"
	"time"
)

// SearchResult is a single retrieved chunk enriched with its video metadata.
// Similarity carries whatever score the producing stage assigned: a cosine
// similarity from vector retrieval, 1.0 from keyword retrieval, or a fused
// RRF score after hybrid merging. Later stages (temporal decay) modify it
// in place.
type SearchResult struct {
	// Chunk fields
	ChunkID   int64    `json:"chunk_id"`
	VideoID   int64    `json:"video_id"`
	Content   string   `json:"content"`
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`

	// Score for the current stage of the pipeline.
	Similarity float64 `json:"similarity"`

	// Video metadata carried along so consumers need no second lookup.
	VideoTitle  string     `json:"video_title"`
	Channel     *string    `json:"channel,omitempty"`
	YouTubeID   string     `json:"youtube_id"`
	Thumbnail   *string    `json:"thumbnail,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Validate checks result integrity.
func (r *SearchResult) Validate() error {
	if r.ChunkID == 0 {
		return fmt.Errorf("search result chunk ID is required")
	}
	if r.VideoID == 0 {
		return fmt.Errorf("search result video ID is required")
	}
	if r.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// BestChunk is the highest-scoring chunk of a video group.
type BestChunk struct {
	ChunkID    int64    `json:"chunk_id"`
	Content    string   `json:"content"`
	StartTime  *float64 `json:"start_time,omitempty"`
	Similarity float64  `json:"similarity"`
}

// VideoResult is a video-level grouping of chunk results. Score is the
// maximum chunk similarity within the group.
type VideoResult struct {
	VideoID       int64      `json:"video_id"`
	Title         string     `json:"title"`
	Channel       *string    `json:"channel,omitempty"`
	YouTubeID     string     `json:"youtube_id"`
	Thumbnail     *string    `json:"thumbnail,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Score         float64    `json:"score"`
	MatchedChunks int        `json:"matched_chunks"`
	BestChunk     BestChunk  `json:"best_chunk"`
}

// Stats summarizes the ingested corpus.
type Stats struct {
	Videos     int64 `json:"videos"`
	Chunks     int64 `json:"chunks"`
	Embeddings int64 `json:"embeddings"`
}
