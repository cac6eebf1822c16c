// Package types defines the shared data model for the transcript retrieval
// service.
//
// # Core Types
//
// Video holds metadata for an ingested video. Chunk is a contiguous
// transcript fragment with optional timing. TranscriptSegment is the raw
// timed input to segmentation.
//
// SearchResult is a chunk joined with its video metadata and a stage-local
// similarity score. VideoResult groups chunk results per video with the
// maximum score, match count, and best chunk.
//
// # Errors
//
// Sentinel errors (ErrEmptyQuery, ErrInvalidEmbedding, ErrVideoNotFound and
// friends) are defined here so every package can test them with errors.Is.
package types
