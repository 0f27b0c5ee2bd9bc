package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/semrag/semrag/internal/registry"
	"github.com/semrag/semrag/internal/storage"
)

const defaultMaxResults = 5

// Searcher is the search surface the tool handlers need from the store.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, filter map[string]string) ([]storage.SearchResult, error)
}

// Counter reports collection statistics.
type Counter interface {
	Count(ctx context.Context) (uint64, error)
}

// makeSearchHandler creates the search_docs tool handler.
func makeSearchHandler(store Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchDocsInput,
) (*mcp.CallToolResult, SearchDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (
		*mcp.CallToolResult, SearchDocsOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxResults
		}

		var filter map[string]string
		if input.Library != "" {
			if _, ok := registry.Lookup(input.Library); !ok {
				return nil, SearchDocsOutput{
					Results: []SearchResult{},
					Message: fmt.Sprintf("Unknown library %q. Use list_libraries to see available sources.", input.Library),
				}, nil
			}
			filter = map[string]string{"library": input.Library}
		}

		matches, err := store.Search(ctx, input.Query, maxResults, filter)
		if err != nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]SearchResult, 0, len(matches))
		for _, match := range matches {
			results = append(results, SearchResult{
				Library:    match.Metadata.Library,
				SourceFile: match.Metadata.SourceFile,
				Section:    match.Metadata.Section,
				Subsection: match.Metadata.Subsection,
				Score:      match.Score,
				Text:       match.Text,
			})
		}

		if len(results) == 0 {
			return nil, SearchDocsOutput{
				Results: []SearchResult{},
				Message: "No matching chunks found. Try broader search terms.",
			}, nil
		}

		return nil, SearchDocsOutput{Results: results}, nil
	}
}

// makeListLibrariesHandler creates the list_libraries tool handler.
func makeListLibrariesHandler() func(
	context.Context, *mcp.CallToolRequest, ListLibrariesInput,
) (*mcp.CallToolResult, ListLibrariesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListLibrariesInput) (
		*mcp.CallToolResult, ListLibrariesOutput, error,
	) {
		libraries := make([]LibraryInfo, 0, len(registry.Sources))
		for _, src := range registry.Sources {
			libraries = append(libraries, LibraryInfo{
				Name:       src.Library,
				Repository: src.Owner + "/" + src.Repo,
				DocsPath:   src.DocsPath,
			})
		}
		return nil, ListLibrariesOutput{Libraries: libraries}, nil
	}
}

// makeStatsHandler creates the get_stats tool handler.
func makeStatsHandler(store Counter) func(
	context.Context, *mcp.CallToolRequest, StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatsInput) (
		*mcp.CallToolResult, StatsOutput, error,
	) {
		count, err := store.Count(ctx)
		if err != nil {
			return nil, StatsOutput{}, fmt.Errorf("count failed: %w", err)
		}
		return nil, StatsOutput{TotalChunks: count}, nil
	}
}
