package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/engramdb/engram/internal/archiver"
	"github.com/engramdb/engram/internal/chunker"
	"github.com/engramdb/engram/internal/config"
	"github.com/engramdb/engram/internal/embedder"
	"github.com/engramdb/engram/internal/searcher"
	"github.com/engramdb/engram/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "engram"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    store.Store
	handle   *embedder.Handle
	archiver *archiver.Archiver
	searcher *searcher.Service
	cfg      config.Config
}

// NewServer creates a new MCP server instance. The embedding provider is not
// probed here; startup must succeed even when Ollama is down.
func NewServer(cfg config.Config) (*Server, error) {
	handle, err := embedder.New(embedder.Config{
		Provider:  cfg.EmbeddingProvider,
		OllamaURL: cfg.OllamaURL,
		Model:     cfg.EmbeddingModel,
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// The store rejects fragments the pipeline should never produce: content
	// under the filter minimum or embeddings of the wrong dimension.
	st, err := store.NewSQLiteStore(cfg.DBPath,
		store.WithValidation(cfg.MinFragmentLength, handle.Dimension()))
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	arch := archiver.New(st, handle, chunker.Options{MinLength: cfg.MinFragmentLength})
	srch := searcher.NewService(st, handle,
		searcher.WithRRFConstant(cfg.RRFConstant),
		searcher.WithHalfLife(cfg.HalfLife()),
	)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		store:    st,
		handle:   handle,
		archiver: arch,
		searcher: srch,
		cfg:      cfg,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.handle.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(archiveSessionTool(), s.handleArchiveSession)
	s.mcp.AddTool(searchMemoryTool(), s.handleSearchMemory)
	s.mcp.AddTool(saveMemoryTool(), s.handleSaveMemory)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
