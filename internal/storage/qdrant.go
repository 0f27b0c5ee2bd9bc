// Package storage adapts a Qdrant collection into the vector store surface
// the ingest and search layers depend on. Embedding happens inside the store:
// callers hand over text and the injected Embedder produces the vectors.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/semrag/semrag/internal/markdown"
)

// maxUpsertBatch bounds a single upsert call. Callers may submit larger
// slices; the store sub-batches internally.
const maxUpsertBatch = 5000

// Embedder is the external embedding capability the store depends on.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Store wraps a Qdrant client with an embedding function, exposing
// add/search/delete/count over the chunk collection.
type Store struct {
	client   *qdrant.Client
	embedder Embedder

	mu      sync.Mutex
	ensured bool // collection known to exist
}

// NewStore connects to Qdrant and verifies health with retry, failing fast
// when the server is unreachable.
func NewStore(host string, port int, embedder Embedder) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{client: client, embedder: embedder}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return s, nil
}

// healthCheckWithRetry retries the health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the chunk collection if it does not exist, with
// cosine vectors sized by the embedder and keyword indexes on the filterable
// payload fields. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCollectionLocked(ctx)
}

func (s *Store) ensureCollectionLocked(ctx context.Context) error {
	if s.ensured {
		return nil
	}

	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == CollectionName {
			s.ensured = true
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.embedder.Dimension()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Without these indexes, filtered queries degrade badly at scale.
	for _, field := range []string{"library", "source_file", "subsection"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}

	s.ensured = true
	return nil
}

// AddDocumentsBatch embeds texts and upserts them keyed by their chunk
// identifiers. The same identifier always maps to the same point, so
// re-ingestion overwrites rather than duplicates. Inputs larger than the
// per-call limit are split into sub-batches.
func (s *Store) AddDocumentsBatch(ctx context.Context, ids, texts []string, metadatas []markdown.Metadata) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: %d ids, %d texts, %d metadatas",
			ErrLengthMismatch, len(ids), len(texts), len(metadatas))
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	for start := 0; start < len(ids); start += maxUpsertBatch {
		end := min(start+maxUpsertBatch, len(ids))

		vectors, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}

		points := make([]*qdrant.PointStruct, end-start)
		for i := start; i < end; i++ {
			vector := vectors[i-start]
			if len(vector) != s.embedder.Dimension() {
				return fmt.Errorf("%w: got %d dimensions, expected %d",
					ErrDimensionMismatch, len(vector), s.embedder.Dimension())
			}
			points[i-start] = &qdrant.PointStruct{
				Id:      pointID(ids[i]),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(chunkPayload(ids[i], texts[i], metadatas[i])),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// upsertWithRetry retries upserts with exponential backoff.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Search embeds the query and returns the top matches ordered by similarity
// score. Filter keys match payload fields exactly (e.g. "library").
func (s *Store) Search(ctx context.Context, query string, limit int, filter map[string]string) ([]SearchResult, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var qdrantFilter *qdrant.Filter
	if len(filter) > 0 {
		var must []*qdrant.Condition
		for field, value := range filter {
			must = append(must, qdrant.NewMatch(field, value))
		}
		qdrantFilter = &qdrant.Filter{Must: must}
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(vectors[0]...),
		Filter:         qdrantFilter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	matches := make([]SearchResult, 0, len(results))
	for _, result := range results {
		id, text, meta := chunkFromPayload(result.Payload)
		matches = append(matches, SearchResult{
			ID:       id,
			Score:    float64(result.Score),
			Text:     text,
			Metadata: meta,
		})
	}
	return matches, nil
}

// Delete removes a single chunk by its string identifier.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points:         qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Count returns the number of chunks in the collection.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	if err := s.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	collection, err := s.client.GetCollectionInfo(ctx, CollectionName)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// DeleteCollection drops a collection. The next add or search recreates the
// chunk collection lazily.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	if name == CollectionName {
		s.mu.Lock()
		s.ensured = false
		s.mu.Unlock()
	}
	return nil
}

// Reset drops every collection on the server.
func (s *Store) Reset(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if err := s.DeleteCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// pointID derives the Qdrant point ID from a chunk identifier. Qdrant only
// accepts UUID or integer IDs, so the string identifier is hashed into a
// deterministic UUID and kept verbatim in the payload.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String())
}

// chunkPayload flattens a chunk into the stored payload map.
func chunkPayload(id, text string, meta markdown.Metadata) map[string]any {
	return map[string]any{
		"chunk_id":     id,
		"text":         text,
		"library":      meta.Library,
		"source_file":  meta.SourceFile,
		"section":      meta.Section,
		"subsection":   meta.Subsection,
		"chunk_index":  meta.ChunkIndex,
		"char_count":   meta.CharCount,
		"has_code":     meta.HasCode,
		"total_chunks": meta.TotalChunks,
	}
}

// chunkFromPayload rebuilds a chunk from a stored payload map.
func chunkFromPayload(payload map[string]*qdrant.Value) (id, text string, meta markdown.Metadata) {
	id = payload["chunk_id"].GetStringValue()
	text = payload["text"].GetStringValue()
	meta = markdown.Metadata{
		Library:     payload["library"].GetStringValue(),
		SourceFile:  payload["source_file"].GetStringValue(),
		Section:     payload["section"].GetStringValue(),
		Subsection:  payload["subsection"].GetStringValue(),
		ChunkIndex:  int(payload["chunk_index"].GetIntegerValue()),
		CharCount:   int(payload["char_count"].GetIntegerValue()),
		HasCode:     payload["has_code"].GetBoolValue(),
		TotalChunks: int(payload["total_chunks"].GetIntegerValue()),
	}
	return id, text, meta
}
