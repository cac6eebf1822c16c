// Package mcp implements the Model Context Protocol (MCP) server for Sluice.
//
// The MCP server exposes three tools to AI assistants:
//   - ingest_video: Store a video transcript and embed its chunks
//   - search_transcripts: Search ingested transcripts with natural language queries
//   - get_status: Check corpus statistics and search capability
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: ingest_video
//
// Ingest a transcript to make it searchable:
//
//	Request:
//	{
//	  "name": "ingest_video",
//	  "arguments": {
//	    "youtube_id": "dQw4w9WgXcQ",
//	    "title": "Concurrency Patterns in Go",
//	    "channel": "GopherCon",
//	    "published_at": "2025-01-15T00:00:00Z",
//	    "segments": [
//	      {"text": "welcome everyone", "start": 0.0, "end": 2.5},
//	      {"text": "today we cover channels", "start": 2.5, "end": 6.0}
//	    ]
//	  }
//	}
//
//	Response:
//	{
//	  "video_id": 42,
//	  "chunks_created": 18,
//	  "chunks_embedded": 18,
//	  "embeddings_failed": 0,
//	  "duration_ms": 1240
//	}
//
// Re-ingesting the same youtube_id replaces the video's chunks. Chunks
// whose embedding fails are kept and remain visible to keyword search.
//
// # Tool: search_transcripts
//
// Search transcripts semantically or by keywords:
//
//	Request:
//	{
//	  "name": "search_transcripts",
//	  "arguments": {
//	    "query": "goroutine leaks",
//	    "limit": 10,
//	    "search_mode": "hybrid",
//	    "temporal_decay": true,
//	    "half_life_days": 180,
//	    "group_by_video": false
//	  }
//	}
//
//	Response:
//	{
//	  "mode": "hybrid",
//	  "total_results": 3,
//	  "degraded": false,
//	  "results": [
//	    {
//	      "chunk_id": 7,
//	      "video_id": 42,
//	      "content": "a goroutine leak happens when...",
//	      "start_time": 312.5,
//	      "similarity": 0.0325,
//	      "video_title": "Concurrency Patterns in Go",
//	      "youtube_id": "dQw4w9WgXcQ"
//	    }
//	  ]
//	}
//
// With group_by_video the response carries one entry per video, scored by
// its best chunk.
//
// # Tool: get_status
//
// Check corpus statistics:
//
//	Response:
//	{
//	  "statistics": {"videos": 12, "chunks": 340, "embeddings": 335},
//	  "embedding": {"provider": "jina", "model": "jina-embeddings-v3", "dimension": 384},
//	  "search": {"vector_available": true, "keyword_available": true}
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "youtube_id",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, search failure)
//   - -32001: Ingestion failed
//   - -32004: Empty query
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol).
package mcp
