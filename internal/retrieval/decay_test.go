package retrieval

import (
	"testing"
	"time"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDecayFactor(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		publishedAt  *time.Time
		halfLifeDays float64
		want         float64
	}{
		{
			name:         "nil date keeps score",
			publishedAt:  nil,
			halfLifeDays: 365,
			want:         1.0,
		},
		{
			name:         "one half-life halves",
			publishedAt:  timePtr(now.AddDate(0, 0, -365)),
			halfLifeDays: 365,
			want:         0.5,
		},
		{
			name:         "two half-lives quarter",
			publishedAt:  timePtr(now.AddDate(0, 0, -360)),
			halfLifeDays: 180,
			want:         0.25,
		},
		{
			name:         "published now",
			publishedAt:  timePtr(now),
			halfLifeDays: 365,
			want:         1.0,
		},
		{
			name:         "future date not boosted",
			publishedAt:  timePtr(now.AddDate(0, 0, 30)),
			halfLifeDays: 365,
			want:         1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decayFactor(tt.publishedAt, tt.halfLifeDays, now)
			if !almostEqual(got, tt.want) {
				t.Errorf("decayFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyTemporalDecayReordersByAge(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old := result(1, 1, "old but relevant", 0.9)
	old.PublishedAt = timePtr(now.AddDate(0, 0, -720)) // four 180-day half-lives
	fresh := result(2, 2, "fresh and close", 0.7)
	fresh.PublishedAt = timePtr(now.AddDate(0, 0, -1))

	results := []types.SearchResult{old, fresh}
	applyTemporalDecay(results, 180, now)

	// 0.9 * 0.0625 ≈ 0.056 falls well below the decayed fresh score
	if results[0].Similarity >= results[1].Similarity {
		t.Errorf("old score %v should fall below fresh score %v",
			results[0].Similarity, results[1].Similarity)
	}
	if !almostEqual(results[0].Similarity, 0.9*0.0625) {
		t.Errorf("old score = %v, want %v", results[0].Similarity, 0.9*0.0625)
	}
}

func TestApplyTemporalDecayClamps(t *testing.T) {
	now := time.Now()
	r := result(1, 1, "a", 1.5) // out-of-range input score
	results := []types.SearchResult{r}

	applyTemporalDecay(results, 365, now)

	if results[0].Similarity > 1.0 {
		t.Errorf("score = %v, want clamped to 1.0", results[0].Similarity)
	}
}

func TestApplyTemporalDecayDefaultHalfLife(t *testing.T) {
	now := time.Now()
	r := result(1, 1, "a", 1.0)
	r.PublishedAt = timePtr(now.AddDate(0, 0, -365))
	results := []types.SearchResult{r}

	applyTemporalDecay(results, 0, now)

	if !almostEqual(results[0].Similarity, 0.5) {
		t.Errorf("score = %v, want 0.5 with default 365-day half-life", results[0].Similarity)
	}
}
