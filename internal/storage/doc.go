// Package storage provides SQLite-based persistence for video transcripts.
//
// The storage layer manages:
//   - Video metadata
//   - Transcript chunks with timing
//   - Vector embeddings for chunks
//
// # Database Schema
//
// Tables:
//   - videos: Video metadata (youtube_id, title, channel, published_at)
//   - chunks: Transcript chunks with optional start/end seconds
//   - embeddings: Vector embeddings for chunks (one per chunk)
//
// Foreign keys cascade, so deleting a video removes its chunks and their
// embeddings.
//
// # Search Queries
//
// SearchChunksByVector returns chunk rows joined with video metadata,
// ordered by cosine distance ascending. Relevance thresholds belong to the
// retrieval layer, not here.
//
// SearchChunksByText matches the query as a case-insensitive substring of
// chunk content and returns joined rows in store order.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Computes cosine distance in SQL via the sqlite-vec extension
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Computes cosine distance in Go (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
