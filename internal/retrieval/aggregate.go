package retrieval

import (
	"sort"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// AggregateByVideo folds chunk-level results into one entry per video.
// A video's score is the maximum similarity among its chunks, and its best
// chunk is the first one encountered carrying that score. Output is ordered
// by score descending with video ID ascending as the tie-break, so the
// ranking does not depend on input order.
func AggregateByVideo(results []types.SearchResult) []types.VideoResult {
	byVideo := make(map[int64]*types.VideoResult)
	order := make([]int64, 0)

	for _, result := range results {
		video, exists := byVideo[result.VideoID]
		if !exists {
			video = &types.VideoResult{
				VideoID:     result.VideoID,
				Title:       result.VideoTitle,
				Channel:     result.Channel,
				YouTubeID:   result.YouTubeID,
				Thumbnail:   result.Thumbnail,
				PublishedAt: result.PublishedAt,
				Score:       result.Similarity,
				BestChunk: types.BestChunk{
					ChunkID:    result.ChunkID,
					Content:    result.Content,
					StartTime:  result.StartTime,
					Similarity: result.Similarity,
				},
			}
			byVideo[result.VideoID] = video
			order = append(order, result.VideoID)
		} else if result.Similarity > video.Score {
			video.Score = result.Similarity
			video.BestChunk = types.BestChunk{
				ChunkID:    result.ChunkID,
				Content:    result.Content,
				StartTime:  result.StartTime,
				Similarity: result.Similarity,
			}
		}
		video.MatchedChunks++
	}

	aggregated := make([]types.VideoResult, 0, len(order))
	for _, videoID := range order {
		aggregated = append(aggregated, *byVideo[videoID])
	}

	sort.Slice(aggregated, func(i, j int) bool {
		if aggregated[i].Score != aggregated[j].Score {
			return aggregated[i].Score > aggregated[j].Score
		}
		return aggregated[i].VideoID < aggregated[j].VideoID
	})

	return aggregated
}
