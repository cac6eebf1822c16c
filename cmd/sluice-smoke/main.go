package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/ingest"
	"github.com/darindevobsessed/sluice-sub003/internal/retrieval"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// Smoke-tests the full pipeline end to end: ingest a sample transcript with
// the local embedder, then run searches in every mode against it.
func main() {
	fmt.Println("Testing ingestion and retrieval integration...")

	tmpDir, err := os.MkdirTemp("", "sluice-smoke-*")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := storage.NewSQLiteStorage(filepath.Join(tmpDir, "smoke.db"))
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	emb, err := embedder.NewLocalProvider(nil)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	pipeline := ingest.New(store, emb)
	engine := retrieval.NewEngine(store, emb)
	ctx := context.Background()

	published := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	input := ingest.VideoInput{
		YouTubeID:   "smoke123",
		Title:       "Profiling Go Services",
		PublishedAt: &published,
		Segments: []types.TranscriptSegment{
			{Text: "today we look at pprof and flame graphs", Start: 0, End: 6},
			{Text: "goroutine leaks show up as growing stacks", Start: 6, End: 12},
			{Text: "always close your response bodies", Start: 12, End: 18},
		},
	}

	stats, err := pipeline.IngestVideo(ctx, input, nil)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	fmt.Printf("Ingested video %d: %d chunks, %d embedded, %d failed (%v)\n",
		stats.VideoID, stats.ChunksCreated, stats.ChunksEmbedded,
		stats.EmbeddingsFailed, stats.Duration)

	for _, mode := range []retrieval.Mode{retrieval.ModeKeyword, retrieval.ModeVector, retrieval.ModeHybrid} {
		resp, err := engine.Search(ctx, retrieval.Request{
			Query:         "goroutine leaks",
			Mode:          mode,
			MinSimilarity: -1, // local embeddings score low, disable threshold
		})
		if err != nil {
			log.Fatalf("%s search failed: %v", mode, err)
		}
		fmt.Printf("%s: %d results in %v (degraded=%v)\n",
			mode, resp.TotalResults, resp.Duration, resp.Degraded)
		for i, r := range resp.Results {
			fmt.Printf("  %d. [%.4f] %s\n", i+1, r.Similarity, r.Content)
		}
	}

	videos := retrieval.AggregateByVideo(mustSearch(ctx, engine).Results)
	fmt.Printf("Aggregated into %d video(s)\n", len(videos))

	fmt.Println("Smoke test passed")
}

func mustSearch(ctx context.Context, engine *retrieval.Engine) *retrieval.Response {
	resp, err := engine.Search(ctx, retrieval.Request{
		Query:         "goroutine leaks",
		Mode:          retrieval.ModeHybrid,
		MinSimilarity: -1,
	})
	if err != nil {
		log.Fatalf("hybrid search failed: %v", err)
	}
	return resp
}
