// Package retrieval implements hybrid search over transcript chunks.
//
// The Engine runs three retrieval modes:
//
//   - vector: embeds the query and ranks chunks by cosine similarity,
//     mapped from distance as 1 - d/2 and filtered by a minimum threshold
//   - keyword: case-insensitive substring match, every hit scored 1.0
//   - hybrid: both retrievers run concurrently with over-fetch and their
//     rankings are combined by Reciprocal Rank Fusion
//
// Hybrid mode tolerates one retriever failing; the response is then marked
// Degraded and carries the survivor's results. Optional temporal decay
// down-weights older videos by 0.5^(ageDays/halfLifeDays) after mode
// scoring, in every mode.
//
// Responses are cached in an LRU keyed by the request parameters. The
// cache must be invalidated after ingestion changes the corpus.
//
// AggregateByVideo folds chunk results into per-video rollups for callers
// that want one row per video.
package retrieval
