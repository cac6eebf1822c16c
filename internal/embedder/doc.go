// Package embedder generates vector embeddings for transcript text.
//
// Three providers are available: Jina AI and OpenAI over HTTP, and a
// deterministic local provider for offline use. Every provider returns
// 384-dimension vectors so stored and query embeddings always agree.
//
// Provider selection happens through NewFromEnv, which reads
// SLUICE_EMBEDDING_PROVIDER and falls back to API-key detection, defaulting
// to the local provider.
//
// API calls retry with exponential backoff and results are cached in an
// LRU cache keyed by the SHA-256 hash of the input text.
package embedder
