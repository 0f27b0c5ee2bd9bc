// Package ingest walks downloaded documentation, chunks it, and loads the
// chunks into the vector store.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/semrag/semrag/internal/markdown"
	"github.com/semrag/semrag/internal/registry"
	"github.com/semrag/semrag/internal/storage"
)

// insertBatchSize is how many chunks go into one store call. Purely a
// transport bound; it never changes chunk content or identifiers.
const insertBatchSize = 100

// DocumentStore is the slice of the vector store surface the orchestrator
// needs. Implemented by storage.Store; tests substitute a fake.
type DocumentStore interface {
	AddDocumentsBatch(ctx context.Context, ids, texts []string, metadatas []markdown.Metadata) error
	DeleteCollection(ctx context.Context, name string) error
}

// Service turns raw downloaded docs into stored chunks.
type Service struct {
	store       DocumentStore
	chunker     *markdown.Chunker
	rawDocsPath string
	logger      *slog.Logger
}

// NewService creates an ingest service reading from rawDocsPath.
func NewService(store DocumentStore, rawDocsPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		chunker:     markdown.NewChunker(),
		rawDocsPath: rawDocsPath,
		logger:      logger,
	}
}

// ChunkID derives the deterministic identifier for a chunk. Stable IDs make
// re-ingestion an overwrite rather than a duplication.
func ChunkID(library, sourceFile string, chunkIndex int) string {
	return fmt.Sprintf("%s::%s::chunk_%d", library, sourceFile, chunkIndex)
}

// IngestLibrary processes every downloaded file for one library and returns
// the number of chunks inserted. A missing library directory yields zero
// without error; unreadable files are logged and skipped.
func (s *Service) IngestLibrary(ctx context.Context, library string) (int, error) {
	libPath := filepath.Join(s.rawDocsPath, library)
	if _, err := os.Stat(libPath); err != nil {
		s.logger.Warn("Library path not found, skipping", "library", library, "path", libPath)
		return 0, nil
	}

	files, err := listDocFiles(libPath)
	if err != nil {
		return 0, fmt.Errorf("list files for %s: %w", library, err)
	}
	s.logger.Info("Ingesting library", "library", library, "files", len(files))

	var chunks []markdown.Chunk
	processed := 0

	for _, file := range files {
		rel, err := filepath.Rel(libPath, file)
		if err != nil {
			return 0, err
		}
		rel = filepath.ToSlash(rel)

		content, ok := s.readFile(file)
		if !ok || content == "" {
			continue
		}

		chunks = append(chunks, s.chunker.Chunk(content, rel, library)...)
		processed++

		if processed%10 == 0 {
			s.logger.Debug("Progress", "library", library, "processed", processed, "total", len(files))
		}
	}

	if err := s.insertChunks(ctx, library, chunks); err != nil {
		return 0, err
	}

	s.logger.Info("Library ingested", "library", library, "chunks", len(chunks), "files", processed)
	return len(chunks), nil
}

// IngestAll ingests every registered library sequentially and returns
// per-library chunk counts.
func (s *Service) IngestAll(ctx context.Context) (map[string]int, error) {
	results := make(map[string]int, len(registry.Sources))
	for _, library := range registry.Libraries() {
		count, err := s.IngestLibrary(ctx, library)
		if err != nil {
			return results, err
		}
		results[library] = count
	}
	return results, nil
}

// ClearAndReingest drops the chunk collection and rebuilds it from scratch.
func (s *Service) ClearAndReingest(ctx context.Context) (map[string]int, error) {
	s.logger.Info("Clearing existing collection")
	if err := s.store.DeleteCollection(ctx, storage.CollectionName); err != nil {
		return nil, fmt.Errorf("clear collection: %w", err)
	}
	return s.IngestAll(ctx)
}

// readFile reads and normalizes one documentation file. Unreadable or
// non-UTF-8 content is reported and skipped, never fatal.
func (s *Service) readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable file", "path", path, "error", err)
		return "", false
	}
	if !utf8.Valid(data) {
		s.logger.Warn("Skipping binary or non-UTF-8 file", "path", path)
		return "", false
	}
	return markdown.Normalize(string(data), filepath.Ext(path)), true
}

// insertChunks assigns identifiers and submits chunks in fixed-size batches.
func (s *Service) insertChunks(ctx context.Context, library string, chunks []markdown.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metadatas := make([]markdown.Metadata, len(chunks))
	for i, chunk := range chunks {
		ids[i] = ChunkID(library, chunk.Metadata.SourceFile, chunk.Metadata.ChunkIndex)
		texts[i] = chunk.Text
		metadatas[i] = chunk.Metadata
	}

	batches := (len(chunks) + insertBatchSize - 1) / insertBatchSize
	for start := 0; start < len(chunks); start += insertBatchSize {
		end := min(start+insertBatchSize, len(chunks))
		if err := s.store.AddDocumentsBatch(ctx, ids[start:end], texts[start:end], metadatas[start:end]); err != nil {
			return fmt.Errorf("insert batch %d-%d: %w", start, end, err)
		}
		s.logger.Debug("Inserted batch", "library", library,
			"batch", start/insertBatchSize+1, "batches", batches)
	}
	return nil
}

// listDocFiles walks a library directory collecting files with accepted
// documentation extensions.
func listDocFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".mdx", ".rst":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
