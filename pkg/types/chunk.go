package types

import (
	"errors"
	"strings"
	"time"
)

// Video represents metadata for a video whose transcript has been ingested.
// Immutable from the retrieval core's perspective.
type Video struct {
	// Identification
	ID        int64
	YouTubeID string // External identifier, unique per video

	// Metadata
	Title       string
	Channel     *string // Nullable - channel name may be unknown
	Thumbnail   *string // Nullable - thumbnail URL may be unknown
	PublishedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk represents a contiguous transcript fragment belonging to a video.
// Chunks are created during ingestion and immutable afterwards.
type Chunk struct {
	// Identification
	ID      int64
	VideoID int64

	// Content
	Content string

	// Timing in seconds relative to the start of the video.
	// Nullable - some transcript sources carry no timing data.
	StartTime *float64
	EndTime   *float64

	CreatedAt time.Time
}

// TranscriptSegment is a raw timed fragment as delivered by a transcript
// source, before segmentation into chunks.
type TranscriptSegment struct {
	Text  string
	Start float64 // Seconds
	End   float64 // Seconds
}

// Validate checks basic video integrity.
func (v *Video) Validate() error {
	if strings.TrimSpace(v.YouTubeID) == "" {
		return errors.New("video external ID cannot be empty")
	}
	if strings.TrimSpace(v.Title) == "" {
		return errors.New("video title cannot be empty")
	}
	return nil
}

// Validate checks basic chunk integrity.
func (c *Chunk) Validate() error {
	if c.VideoID == 0 {
		return errors.New("chunk video ID is required")
	}
	if strings.TrimSpace(c.Content) == "" {
		return ErrEmptyContent
	}
	if c.StartTime != nil && c.EndTime != nil && *c.StartTime > *c.EndTime {
		return errors.New("chunk start time must not be after end time")
	}
	return nil
}

// Duration returns the chunk length in seconds, or 0 when timing is absent.
func (c *Chunk) Duration() float64 {
	if c.StartTime == nil || c.EndTime == nil {
		return 0
	}
	return *c.EndTime - *c.StartTime
}
