package retrieval

import (
	"sort"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// fuseRRF combines two ranked result lists with Reciprocal Rank Fusion.
// Each appearance of a chunk at zero-based rank r contributes
// 1/(k + r + 1) to its fused score; a chunk found by both retrievers sums
// both contributions. The vector list is merged first, so its metadata
// wins for duplicated chunks. The fused score replaces Similarity.
func fuseRRF(vectorResults, keywordResults []types.SearchResult, k float64) []types.SearchResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[int64]float64)
	firstSeen := make(map[int64]types.SearchResult)
	order := make([]int64, 0, len(vectorResults)+len(keywordResults))

	merge := func(results []types.SearchResult) {
		for rank, result := range results {
			if _, seen := scores[result.ChunkID]; !seen {
				order = append(order, result.ChunkID)
				firstSeen[result.ChunkID] = result
			}
			scores[result.ChunkID] += 1.0 / (k + float64(rank) + 1.0)
		}
	}
	merge(vectorResults)
	merge(keywordResults)

	fused := make([]types.SearchResult, 0, len(order))
	for _, chunkID := range order {
		result := firstSeen[chunkID]
		result.Similarity = scores[chunkID]
		fused = append(fused, result)
	}

	// Stable sort keeps merge order for equal scores
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Similarity > fused[j].Similarity
	})

	return fused
}
