package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semrag/semrag/internal/markdown"
)

func TestPointID_Deterministic(t *testing.T) {
	id := "langchain::concepts/architecture.md::chunk_0"

	first := pointID(id)
	second := pointID(id)

	assert.Equal(t, first.GetUuid(), second.GetUuid())

	_, err := uuid.Parse(first.GetUuid())
	require.NoError(t, err, "point ID must be a valid UUID")
}

func TestPointID_DistinctPerChunk(t *testing.T) {
	a := pointID("langchain::intro.md::chunk_0")
	b := pointID("langchain::intro.md::chunk_1")
	c := pointID("fastapi::intro.md::chunk_0")

	assert.NotEqual(t, a.GetUuid(), b.GetUuid())
	assert.NotEqual(t, a.GetUuid(), c.GetUuid())
}

func TestChunkPayload_RoundTrip(t *testing.T) {
	meta := markdown.Metadata{
		Library:     "fastapi",
		SourceFile:  "tutorial/first-steps.md",
		Section:     "first-steps",
		Subsection:  "Run the Server",
		ChunkIndex:  2,
		CharCount:   1874,
		HasCode:     true,
		TotalChunks: 5,
	}
	id := "fastapi::tutorial/first-steps.md::chunk_2"
	text := "## Run the Server\n\n```bash\nuvicorn main:app\n```"

	payload := qdrant.NewValueMap(chunkPayload(id, text, meta))
	gotID, gotText, gotMeta := chunkFromPayload(payload)

	assert.Equal(t, id, gotID)
	assert.Equal(t, text, gotText)
	assert.Equal(t, meta, gotMeta)
}

func TestChunkPayload_FilterableFieldsPresent(t *testing.T) {
	payload := chunkPayload("id", "text", markdown.Metadata{Library: "python"})

	// These fields carry keyword indexes; renaming them breaks filtered search.
	for _, field := range []string{"library", "source_file", "subsection"} {
		assert.Contains(t, payload, field)
	}
}
