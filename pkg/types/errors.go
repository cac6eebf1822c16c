package types

import "errors"

// Domain-level sentinel errors shared across packages.
var (
	// ErrEmptyContent indicates a chunk or query with no usable text.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyQuery indicates a search request with an empty query string.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidEmbedding indicates an embedding vector with the wrong
	// dimensionality or non-finite components.
	ErrInvalidEmbedding = errors.New("invalid embedding vector")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidMode indicates an unrecognized search mode.
	ErrInvalidMode = errors.New("invalid search mode")

	// ErrVideoNotFound indicates a lookup for a video that does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrChunkNotFound indicates a lookup for a chunk that does not exist.
	ErrChunkNotFound = errors.New("chunk not found")
)
