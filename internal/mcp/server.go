package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/darindevobsessed/sluice-sub003/internal/embedder"
	"github.com/darindevobsessed/sluice-sub003/internal/ingest"
	"github.com/darindevobsessed/sluice-sub003/internal/retrieval"
	"github.com/darindevobsessed/sluice-sub003/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "sluice"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.sluice"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	embedder embedder.Embedder
	pipeline *ingest.Pipeline
	engine   *retrieval.Engine
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".sluice")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "sluice.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Embedder is shared between the ingestion pipeline and the retrieval
	// engine so query embeddings can hit the cache populated during ingest
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		embedder: emb,
		pipeline: ingest.New(store, emb),
		engine:   retrieval.NewEngine(store, emb),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(ingestVideoTool(), s.handleIngestVideo)
	s.mcp.AddTool(searchTranscriptsTool(), s.handleSearchTranscripts)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}
