package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semrag/semrag/internal/markdown"
	"github.com/semrag/semrag/internal/storage"
)

// fakeSearcher records the last search call and returns canned results.
type fakeSearcher struct {
	results []storage.SearchResult
	err     error

	lastQuery  string
	lastLimit  int
	lastFilter map[string]string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int, filter map[string]string) ([]storage.SearchResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	f.lastFilter = filter
	return f.results, f.err
}

type fakeCounter struct {
	count uint64
	err   error
}

func (f fakeCounter) Count(ctx context.Context) (uint64, error) {
	return f.count, f.err
}

func TestSearchHandler_ReturnsResults(t *testing.T) {
	searcher := &fakeSearcher{results: []storage.SearchResult{
		{
			ID:    "fastapi::tutorial/first-steps.md::chunk_0",
			Score: 0.91,
			Text:  "## First Steps\n\nCreate a main.py file.",
			Metadata: markdown.Metadata{
				Library:    "fastapi",
				SourceFile: "tutorial/first-steps.md",
				Section:    "first-steps",
				Subsection: "First Steps",
			},
		},
	}}
	handler := makeSearchHandler(searcher)

	_, output, err := handler(context.Background(), nil, SearchDocsInput{Query: "getting started"})

	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "fastapi", output.Results[0].Library)
	assert.Equal(t, "tutorial/first-steps.md", output.Results[0].SourceFile)
	assert.Equal(t, 0.91, output.Results[0].Score)
	assert.Empty(t, output.Message)

	assert.Equal(t, "getting started", searcher.lastQuery)
	assert.Equal(t, defaultMaxResults, searcher.lastLimit)
	assert.Nil(t, searcher.lastFilter)
}

func TestSearchHandler_AppliesLibraryFilter(t *testing.T) {
	searcher := &fakeSearcher{}
	handler := makeSearchHandler(searcher)

	_, _, err := handler(context.Background(), nil, SearchDocsInput{
		Query:   "routing",
		Library: "fastapi",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"library": "fastapi"}, searcher.lastFilter)
}

func TestSearchHandler_UnknownLibrary(t *testing.T) {
	searcher := &fakeSearcher{}
	handler := makeSearchHandler(searcher)

	_, output, err := handler(context.Background(), nil, SearchDocsInput{
		Query:   "routing",
		Library: "django",
	})

	require.NoError(t, err)
	assert.Empty(t, output.Results)
	assert.Contains(t, output.Message, "Unknown library")
	assert.Empty(t, searcher.lastQuery, "unknown library must not reach the store")
}

func TestSearchHandler_CustomMaxResults(t *testing.T) {
	searcher := &fakeSearcher{}
	handler := makeSearchHandler(searcher)

	_, _, err := handler(context.Background(), nil, SearchDocsInput{
		Query:      "decorators",
		MaxResults: 12,
	})

	require.NoError(t, err)
	assert.Equal(t, 12, searcher.lastLimit)
}

func TestSearchHandler_NoMatches(t *testing.T) {
	searcher := &fakeSearcher{results: nil}
	handler := makeSearchHandler(searcher)

	_, output, err := handler(context.Background(), nil, SearchDocsInput{Query: "zxqw"})

	require.NoError(t, err)
	assert.Empty(t, output.Results)
	assert.Contains(t, output.Message, "No matching chunks")
}

func TestSearchHandler_StoreError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection reset")}
	handler := makeSearchHandler(searcher)

	_, _, err := handler(context.Background(), nil, SearchDocsInput{Query: "anything"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestListLibrariesHandler(t *testing.T) {
	handler := makeListLibrariesHandler()

	_, output, err := handler(context.Background(), nil, ListLibrariesInput{})

	require.NoError(t, err)
	require.Len(t, output.Libraries, 3)

	names := make([]string, 0, len(output.Libraries))
	for _, lib := range output.Libraries {
		names = append(names, lib.Name)
		assert.NotEmpty(t, lib.Repository)
		assert.NotEmpty(t, lib.DocsPath)
	}
	assert.ElementsMatch(t, []string{"langchain", "fastapi", "python"}, names)
}

func TestStatsHandler(t *testing.T) {
	handler := makeStatsHandler(fakeCounter{count: 4217})

	_, output, err := handler(context.Background(), nil, StatsInput{})

	require.NoError(t, err)
	assert.Equal(t, uint64(4217), output.TotalChunks)
}

func TestStatsHandler_Error(t *testing.T) {
	handler := makeStatsHandler(fakeCounter{err: errors.New("unreachable")})

	_, _, err := handler(context.Background(), nil, StatsInput{})

	require.Error(t, err)
}
