package retrieval

import (
	"testing"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

func videoResult(chunkID, videoID int64, title string, similarity float64) types.SearchResult {
	r := result(chunkID, videoID, "chunk content", similarity)
	r.VideoTitle = title
	return r
}

func TestAggregateByVideo(t *testing.T) {
	results := []types.SearchResult{
		videoResult(1, 10, "First Video", 0.9),
		videoResult(2, 20, "Second Video", 0.95),
		videoResult(3, 10, "First Video", 0.7),
		videoResult(4, 10, "First Video", 0.4),
	}

	videos := AggregateByVideo(results)

	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}

	if videos[0].VideoID != 20 || !almostEqual(videos[0].Score, 0.95) {
		t.Errorf("top video = %d score %v, want 20 score 0.95", videos[0].VideoID, videos[0].Score)
	}
	if videos[1].VideoID != 10 || !almostEqual(videos[1].Score, 0.9) {
		t.Errorf("second video = %d score %v, want 10 score 0.9", videos[1].VideoID, videos[1].Score)
	}
	if videos[1].MatchedChunks != 3 {
		t.Errorf("matched chunks = %d, want 3", videos[1].MatchedChunks)
	}
	if videos[1].BestChunk.ChunkID != 1 {
		t.Errorf("best chunk = %d, want highest-scoring chunk 1", videos[1].BestChunk.ChunkID)
	}
	if videos[1].Title != "First Video" {
		t.Errorf("title = %q", videos[1].Title)
	}
}

func TestAggregateByVideoTieKeepsFirstChunk(t *testing.T) {
	results := []types.SearchResult{
		videoResult(5, 10, "Video", 0.8),
		videoResult(6, 10, "Video", 0.8),
	}

	videos := AggregateByVideo(results)

	if videos[0].BestChunk.ChunkID != 5 {
		t.Errorf("best chunk = %d, want first-encountered 5", videos[0].BestChunk.ChunkID)
	}
}

func TestAggregateByVideoOrderIndependent(t *testing.T) {
	a := []types.SearchResult{
		videoResult(1, 10, "A", 0.5),
		videoResult(2, 20, "B", 0.5),
		videoResult(3, 30, "C", 0.9),
	}
	b := []types.SearchResult{a[1], a[2], a[0]}

	va := AggregateByVideo(a)
	vb := AggregateByVideo(b)

	for i := range va {
		if va[i].VideoID != vb[i].VideoID {
			t.Fatalf("position %d differs: %d vs %d", i, va[i].VideoID, vb[i].VideoID)
		}
	}
	// Equal scores break ties by video id
	if va[1].VideoID != 10 || va[2].VideoID != 20 {
		t.Errorf("tie order = [%d, %d], want [10, 20]", va[1].VideoID, va[2].VideoID)
	}
}

func TestAggregateByVideoEmpty(t *testing.T) {
	if got := AggregateByVideo(nil); len(got) != 0 {
		t.Errorf("got %d videos for empty input", len(got))
	}
}
