package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semrag/semrag/internal/markdown"
	"github.com/semrag/semrag/internal/storage"
)

// fakeStore records the document batches and collection drops it receives.
type fakeStore struct {
	batches   [][]string
	ids       []string
	texts     []string
	metadatas []markdown.Metadata
	dropped   []string
}

func (f *fakeStore) AddDocumentsBatch(ctx context.Context, ids, texts []string, metadatas []markdown.Metadata) error {
	f.batches = append(f.batches, append([]string(nil), ids...))
	f.ids = append(f.ids, ids...)
	f.texts = append(f.texts, texts...)
	f.metadatas = append(f.metadatas, metadatas...)
	return nil
}

func (f *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	f.dropped = append(f.dropped, name)
	return nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestChunkID(t *testing.T) {
	id := ChunkID("langchain", "concepts/architecture.md", 0)
	assert.Equal(t, "langchain::concepts/architecture.md::chunk_0", id)
}

func TestIngestLibrary_MissingDirectory(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store, t.TempDir(), nil)

	count, err := service.IngestLibrary(context.Background(), "nonexistent")

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.batches, "missing directory must not touch the store")
}

func TestIngestLibrary_ChunksAndIDs(t *testing.T) {
	root := t.TempDir()
	body := strings.Repeat("text ", 40) // long enough to avoid forward merge
	writeFile(t, root, "demo/intro.md", "# Demo\n\n## Overview\n\n"+body)
	writeFile(t, root, "demo/nested/guide.md", "## Guide\n\n"+body)

	store := &fakeStore{}
	service := NewService(store, root, nil)

	count, err := service.IngestLibrary(context.Background(), "demo")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, store.ids, 2)
	assert.Contains(t, store.ids, "demo::intro.md::chunk_0")
	assert.Contains(t, store.ids, "demo::nested/guide.md::chunk_0")

	for _, meta := range store.metadatas {
		assert.Equal(t, "demo", meta.Library)
		assert.Equal(t, 1, meta.TotalChunks)
	}
}

func TestIngestLibrary_SkipsBinaryAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "demo/good.md", "## Section\n\n"+strings.Repeat("words ", 30))
	writeFile(t, root, "demo/binary.md", string([]byte{0xff, 0xfe, 0x00, 0x80, 0x81}))
	writeFile(t, root, "demo/notes.txt", "not documentation")

	store := &fakeStore{}
	service := NewService(store, root, nil)

	count, err := service.IngestLibrary(context.Background(), "demo")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.ids, 1)
	assert.Equal(t, "demo::good.md::chunk_0", store.ids[0])
}

func TestIngestLibrary_NormalizesByExtension(t *testing.T) {
	root := t.TempDir()
	body := strings.Repeat("prose ", 30)
	writeFile(t, root, "demo/page.mdx", "import Thing from 'lib';\n\n## Usage\n\n"+body)

	store := &fakeStore{}
	service := NewService(store, root, nil)

	count, err := service.IngestLibrary(context.Background(), "demo")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotContains(t, store.texts[0], "import Thing")
}

func TestIngestLibrary_BatchesInserts(t *testing.T) {
	root := t.TempDir()

	// 120 sections, each its own chunk, so inserts must split into 100 + 20.
	var b strings.Builder
	b.WriteString("# Big Doc\n\n")
	for i := 0; i < 120; i++ {
		fmt.Fprintf(&b, "## Section %d\n\n%s\n\n", i, strings.Repeat("content ", 20))
	}
	writeFile(t, root, "demo/big.md", b.String())

	store := &fakeStore{}
	service := NewService(store, root, nil)

	count, err := service.IngestLibrary(context.Background(), "demo")

	require.NoError(t, err)
	assert.Equal(t, 120, count)
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], 100)
	assert.Len(t, store.batches[1], 20)

	// Batching is a transport detail: IDs stay contiguous across batches.
	for i, id := range store.ids {
		assert.Equal(t, ChunkID("demo", "big.md", i), id)
	}
}

func TestClearAndReingest_DropsCollectionFirst(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store, t.TempDir(), nil)

	results, err := service.ClearAndReingest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{storage.CollectionName}, store.dropped)
	// No raw docs exist, so every registered library reports zero.
	for library, count := range results {
		assert.Zero(t, count, "library %s", library)
	}
}
