package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/darindevobsessed/sluice-sub003/internal/ingest"
	"github.com/darindevobsessed/sluice-sub003/internal/retrieval"
	"github.com/darindevobsessed/sluice-sub003/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeIngestFailed  = -32001 // Ingestion could not store the video
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleIngestVideo handles the ingest_video tool invocation
func (s *Server) handleIngestVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	youtubeID, ok := args["youtube_id"].(string)
	if !ok || youtubeID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "youtube_id parameter is required", map[string]interface{}{
			"param":  "youtube_id",
			"reason": "missing or empty",
		})
	}

	title, ok := args["title"].(string)
	if !ok || title == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "title parameter is required", map[string]interface{}{
			"param":  "title",
			"reason": "missing or empty",
		})
	}

	segments, err := parseSegments(args["segments"])
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid segments", map[string]interface{}{
			"param":  "segments",
			"reason": err.Error(),
		})
	}

	input := ingest.VideoInput{
		YouTubeID: youtubeID,
		Title:     title,
		Segments:  segments,
	}
	if channel := getStringDefault(args, "channel", ""); channel != "" {
		input.Channel = &channel
	}
	if thumbnail := getStringDefault(args, "thumbnail", ""); thumbnail != "" {
		input.Thumbnail = &thumbnail
	}
	if published := getStringDefault(args, "published_at", ""); published != "" {
		ts, err := time.Parse(time.RFC3339, published)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid published_at", map[string]interface{}{
				"param":  "published_at",
				"reason": "must be RFC 3339",
			})
		}
		input.PublishedAt = &ts
	}

	stats, err := s.pipeline.IngestVideo(ctx, input, nil)
	if err != nil {
		return nil, newMCPError(ErrorCodeIngestFailed, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// The corpus changed; cached search responses are stale
	s.engine.InvalidateCache()

	response := map[string]interface{}{
		"video_id":          stats.VideoID,
		"chunks_created":    stats.ChunksCreated,
		"chunks_embedded":   stats.ChunksEmbedded,
		"embeddings_failed": stats.EmbeddingsFailed,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchTranscripts handles the search_transcripts tool invocation
func (s *Server) handleSearchTranscripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", retrieval.DefaultLimit)
	if limit < 1 || limit > retrieval.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", string(retrieval.ModeHybrid))
	switch retrieval.Mode(searchMode) {
	case retrieval.ModeHybrid, retrieval.ModeVector, retrieval.ModeKeyword:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	req := retrieval.Request{
		Query:         query,
		Mode:          retrieval.Mode(searchMode),
		Limit:         limit,
		MinSimilarity: getFloatDefault(args, "min_similarity", 0),
		TemporalDecay: getBoolDefault(args, "temporal_decay", false),
		HalfLifeDays:  getFloatDefault(args, "half_life_days", 0),
		UseCache:      true,
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"mode":          string(resp.Mode),
		"total_results": resp.TotalResults,
		"degraded":      resp.Degraded,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
	}

	if getBoolDefault(args, "group_by_video", false) {
		videos := retrieval.AggregateByVideo(resp.Results)
		response["videos"] = videos
		response["total_videos"] = len(videos)
	} else {
		response["results"] = resp.Results
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.storage.GetStats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"videos":     stats.Videos,
			"chunks":     stats.Chunks,
			"embeddings": stats.Embeddings,
		},
		"embedding": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
		"search": map[string]interface{}{
			"vector_available":  stats.Embeddings > 0,
			"keyword_available": stats.Chunks > 0,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// parseSegments converts the raw segments argument to typed segments
func parseSegments(raw interface{}) ([]types.TranscriptSegment, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("segments must be an array")
	}

	segments := make([]types.TranscriptSegment, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("segment %d is not an object", i)
		}
		text, ok := entry["text"].(string)
		if !ok {
			return nil, fmt.Errorf("segment %d is missing text", i)
		}
		start, ok := entry["start"].(float64)
		if !ok {
			return nil, fmt.Errorf("segment %d is missing start", i)
		}
		end, ok := entry["end"].(float64)
		if !ok {
			return nil, fmt.Errorf("segment %d is missing end", i)
		}
		segments = append(segments, types.TranscriptSegment{Text: text, Start: start, End: end})
	}
	return segments, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
