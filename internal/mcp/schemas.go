package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestVideoTool returns the tool definition for ingest_video
func ingestVideoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_video",
		Description: "Ingest a video transcript to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"youtube_id": map[string]interface{}{
					"type":        "string",
					"description": "YouTube video identifier (unique per video)",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Video title",
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"description": "Channel name",
				},
				"thumbnail": map[string]interface{}{
					"type":        "string",
					"description": "Thumbnail URL",
				},
				"published_at": map[string]interface{}{
					"type":        "string",
					"description": "Publish date in RFC 3339 format (e.g., 2025-01-15T00:00:00Z)",
				},
				"segments": map[string]interface{}{
					"type":        "array",
					"description": "Timed transcript segments in playback order",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"text": map[string]interface{}{
								"type":        "string",
								"description": "Segment text",
							},
							"start": map[string]interface{}{
								"type":        "number",
								"description": "Start offset in seconds",
							},
							"end": map[string]interface{}{
								"type":        "number",
								"description": "End offset in seconds",
							},
						},
						"required": []string{"text", "start", "end"},
					},
				},
			},
			Required: []string{"youtube_id", "title", "segments"},
		},
	}
}

// searchTranscriptsTool returns the tool definition for search_transcripts
func searchTranscriptsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_transcripts",
		Description: "Search ingested video transcripts with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (substring only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"min_similarity": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity threshold for vector results (0.0-1.0)",
					"default":     0.3,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"temporal_decay": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, down-weight older videos by publish date",
					"default":     false,
				},
				"half_life_days": map[string]interface{}{
					"type":        "number",
					"description": "Half-life in days for temporal decay",
					"default":     365,
					"minimum":     1,
				},
				"group_by_video": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, aggregate chunk results into one entry per video",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query corpus statistics and search capability status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
