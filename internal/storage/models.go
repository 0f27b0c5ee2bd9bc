package storage

import "github.com/semrag/semrag/internal/markdown"

// CollectionName is the single Qdrant collection holding all chunks.
const CollectionName = "technical_docs"

// SearchResult is one scored match from a similarity search.
type SearchResult struct {
	ID       string // Chunk identifier assigned at ingest time
	Score    float64
	Text     string
	Metadata markdown.Metadata
}
