package retrieval

import (
	"math"
	"time"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

const hoursPerDay = 24

// applyTemporalDecay multiplies each score by 0.5^(ageDays/halfLifeDays)
// and clamps the product to [0, 1]. Results without a publish date keep
// their score unchanged.
func applyTemporalDecay(results []types.SearchResult, halfLifeDays float64, now time.Time) {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	for i := range results {
		factor := decayFactor(results[i].PublishedAt, halfLifeDays, now)
		results[i].Similarity = clamp01(results[i].Similarity * factor)
	}
}

// decayFactor computes the half-life decay multiplier for one publish date.
// A nil date means unknown age and decays nothing. Dates in the future are
// treated as age zero so fresh uploads never get boosted above their score.
func decayFactor(publishedAt *time.Time, halfLifeDays float64, now time.Time) float64 {
	if publishedAt == nil {
		return 1.0
	}
	ageDays := now.Sub(*publishedAt).Hours() / hoursPerDay
	if ageDays <= 0 {
		return 1.0
	}
	return math.Pow(0.5, ageDays/halfLifeDays)
}
