// Package mcp exposes semantic search over ingested documentation via the
// Model Context Protocol.
package mcp

// SearchDocsInput defines the input parameters for the search_docs tool.
type SearchDocsInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant documentation"`
	// Library optionally restricts results to one library (e.g. "fastapi").
	Library string `json:"library,omitempty" jsonschema:"description=Restrict results to a single library (langchain, fastapi, python)"`
	// MaxResults is the maximum number of chunks to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of chunks to return"`
}

// SearchDocsOutput contains the search results.
type SearchDocsOutput struct {
	// Results is the list of matching chunks ordered by score.
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g. "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// SearchResult is a single chunk match from semantic search.
type SearchResult struct {
	// Library is the documentation set the chunk came from.
	Library string `json:"library"`
	// SourceFile is the chunk's path within the library docs.
	SourceFile string `json:"source_file"`
	// Section is the document title.
	Section string `json:"section"`
	// Subsection is the header the chunk sits under.
	Subsection string `json:"subsection"`
	// Score is the similarity score.
	Score float64 `json:"score"`
	// Text is the chunk content.
	Text string `json:"text"`
}

// ListLibrariesInput takes no parameters.
type ListLibrariesInput struct{}

// LibraryInfo describes one registered documentation source.
type LibraryInfo struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
	DocsPath   string `json:"docs_path"`
}

// ListLibrariesOutput lists the registered documentation sources.
type ListLibrariesOutput struct {
	Libraries []LibraryInfo `json:"libraries"`
}

// StatsInput takes no parameters.
type StatsInput struct{}

// StatsOutput reports collection statistics.
type StatsOutput struct {
	// TotalChunks is the number of chunks in the collection.
	TotalChunks uint64 `json:"total_chunks"`
}
