package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/semrag/semrag/internal/storage"
)

// Server wraps the MCP server with its store dependency.
type Server struct {
	server *mcp.Server
	store  *storage.Store
}

// Config holds server dependencies.
type Config struct {
	Store *storage.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "semrag-docs-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search ingested technical documentation semantically. Returns matching chunks with their source file and section.",
	}, makeSearchHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_libraries",
		Description: "List the documentation sources available for search.",
	}, makeListLibrariesHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get the total number of chunks in the documentation index.",
	}, makeStatsHandler(cfg.Store))

	return &Server{
		server: server,
		store:  cfg.Store,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
