// Package mcp exposes the chunker as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/config"
)

const (
	// ServerName is the MCP server name
	ServerName = "astchunk-mcp"
	// ServerVersion is the current server version
	ServerVersion = "0.3.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	builder  *chunk.Builder
	defaults config.ChunkingConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewServer creates a new MCP server instance. defaults fill in options a
// tool call leaves out.
func NewServer(builder *chunk.Builder, defaults config.ChunkingConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		builder:  builder,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(_ context.Context) error {
	s.logger.Info("MCP server started", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(chunkifyTool(), s.handleChunkify)
	s.mcp.AddTool(chunkFileTool(), s.handleChunkFile)
	s.mcp.AddTool(languagesTool(), s.handleLanguages)
}
