package segmenter

import (
	"strings"

	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

const (
	// MaxCharsPerChunk is the target maximum character count per chunk
	MaxCharsPerChunk = 1000

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// Segmenter merges raw timed transcript segments into chunks bounded by a
// character budget
type Segmenter struct {
	maxChars int
}

// New creates a Segmenter with the default character budget
func New() *Segmenter {
	return &Segmenter{maxChars: MaxCharsPerChunk}
}

// NewWithBudget creates a Segmenter with a custom character budget
func NewWithBudget(maxChars int) *Segmenter {
	if maxChars <= 0 {
		maxChars = MaxCharsPerChunk
	}
	return &Segmenter{maxChars: maxChars}
}

// Segment merges consecutive transcript segments into chunks for the given
// video. Empty segments are dropped. Each chunk keeps the start time of its
// first segment and the end time of its last, so results remain addressable
// in the source video. A single oversized segment becomes its own chunk
// rather than being split mid-sentence.
func (s *Segmenter) Segment(videoID int64, segments []types.TranscriptSegment) []*types.Chunk {
	chunks := make([]*types.Chunk, 0)

	var texts []string
	var size int
	var start, end float64

	flush := func() {
		if len(texts) == 0 {
			return
		}
		st, en := start, end
		chunks = append(chunks, &types.Chunk{
			VideoID:   videoID,
			Content:   strings.Join(texts, " "),
			StartTime: &st,
			EndTime:   &en,
		})
		texts = nil
		size = 0
	}

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if len(texts) > 0 && size+1+len(text) > s.maxChars {
			flush()
		}

		if len(texts) == 0 {
			start = seg.Start
		} else {
			size++ // joining space
		}
		texts = append(texts, text)
		size += len(text)
		end = seg.End
	}
	flush()

	return chunks
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
