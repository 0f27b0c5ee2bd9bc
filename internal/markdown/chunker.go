package markdown

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

const (
	// MaxSectionChars is the largest section body emitted as a single chunk.
	// Longer sections are split on paragraph boundaries.
	MaxSectionChars = 4000

	// OverlapChars is the trailing context carried between consecutive
	// chunks split from the same oversized section.
	OverlapChars = 200

	// MinChunkChars is the threshold below which a chunk is merged forward
	// into the next chunk of the same file.
	MinChunkChars = 100
)

// introHeader labels the implicit section before the first H2/H3 header.
const introHeader = "intro"

// Metadata records where a chunk came from and how it is shaped.
type Metadata struct {
	Library     string // Library name, e.g. "fastapi"
	SourceFile  string // Path relative to the library's docs root
	Section     string // Document title (first H1 or file base name)
	Subsection  string // Header text, or "introduction" for the intro section
	ChunkIndex  int    // 0-based position within the source file
	CharCount   int    // Body length used for merge decisions
	HasCode     bool   // Whether the chunk text contains a code fence marker
	TotalChunks int    // Final chunk count for the source file
}

// Chunk is one passage of normalized documentation ready for embedding.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// sectionHeaderRe matches level-2/level-3 markdown headers. Level-1 headers
// stay inside their section; the first one names the document.
var sectionHeaderRe = regexp.MustCompile(`^(#{2,3})\s+(.+)$`)

// Chunker splits normalized documents into header-delimited chunks.
type Chunker struct {
	parser goldmark.Markdown
}

// NewChunker creates a chunker with a goldmark parser for title extraction.
func NewChunker() *Chunker {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Chunker{parser: md}
}

// section accumulates the body text between two header boundaries.
type section struct {
	header string
	body   strings.Builder
}

// Chunk splits content into header-delimited sections, splits oversized
// sections by paragraph with overlap, and merges undersized chunks forward.
// Output is deterministic: the same input always yields identical chunks.
func (c *Chunker) Chunk(content, sourceFile, library string) []Chunk {
	title := c.documentTitle(content, sourceFile)
	sections := splitSections(content)

	var chunks []Chunk
	chunkIndex := 0

	for _, sec := range sections {
		body := strings.TrimSpace(sec.body.String())
		if body == "" {
			continue
		}

		meta := Metadata{
			Library:    library,
			SourceFile: sourceFile,
			Section:    title,
			Subsection: sec.header,
		}

		if len(body) > MaxSectionChars {
			chunks, chunkIndex = splitLongSection(chunks, chunkIndex, sec.header, body, meta)
			continue
		}

		chunkText := body
		if sec.header != introHeader {
			chunkText = "## " + sec.header + "\n\n" + body
		} else {
			meta.Subsection = "introduction"
		}

		// Forward merge: a short preceding chunk is prepended to this one
		// instead of standing alone.
		if n := len(chunks); n > 0 && chunks[n-1].Metadata.CharCount < MinChunkChars {
			prev := chunks[n-1]
			chunks = chunks[:n-1]
			chunkIndex--
			chunkText = prev.Text + "\n\n" + chunkText
		}

		meta.ChunkIndex = chunkIndex
		meta.CharCount = len(chunkText)
		meta.HasCode = strings.Contains(body, "```")
		chunks = append(chunks, Chunk{Text: strings.TrimSpace(chunkText), Metadata: meta})
		chunkIndex++
	}

	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}
	return chunks
}

// splitSections partitions content at H2/H3 boundaries outside code fences.
// Header lines inside a fence are body text, so code is never split mid-fence
// by the header pass. Text before the first header forms the intro section.
func splitSections(content string) []*section {
	var sections []*section
	current := &section{header: introHeader}
	inFence := false

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}

		if !inFence {
			if m := sectionHeaderRe.FindStringSubmatch(line); m != nil {
				if strings.TrimSpace(current.body.String()) != "" {
					sections = append(sections, current)
				}
				current = &section{header: m[2]}
				continue
			}
		}

		current.body.WriteString(line)
		current.body.WriteByte('\n')
	}

	if strings.TrimSpace(current.body.String()) != "" {
		sections = append(sections, current)
	}
	return sections
}

// splitLongSection splits an oversized section body on blank-line paragraph
// boundaries. Paragraphs accumulate into a rolling buffer; when the next
// paragraph would push the buffer past MaxSectionChars, the buffer is flushed
// as a chunk and the next buffer is seeded with its trailing OverlapChars.
func splitLongSection(chunks []Chunk, chunkIndex int, header, body string, meta Metadata) ([]Chunk, int) {
	flush := func(buffer string) {
		m := meta
		m.ChunkIndex = chunkIndex
		m.CharCount = len(buffer)
		m.HasCode = strings.Contains(buffer, "```")
		chunks = append(chunks, Chunk{
			Text:     strings.TrimSpace("## " + header + "\n\n" + buffer),
			Metadata: m,
		})
		chunkIndex++
	}

	var buffer string
	for _, para := range strings.Split(body, "\n\n") {
		if len(buffer)+len(para) > MaxSectionChars && buffer != "" {
			flush(buffer)
			buffer = overlapTail(buffer) + "\n\n" + para
		} else {
			buffer += para + "\n\n"
		}
	}
	if strings.TrimSpace(buffer) != "" {
		flush(buffer)
	}
	return chunks, chunkIndex
}

// overlapTail returns the last OverlapChars of a flushed buffer, nudged
// forward so the cut never lands inside a multi-byte rune.
func overlapTail(buffer string) string {
	if len(buffer) <= OverlapChars {
		return buffer
	}
	cut := len(buffer) - OverlapChars
	for cut < len(buffer) && !utf8.RuneStart(buffer[cut]) {
		cut++
	}
	return buffer[cut:]
}

// documentTitle returns the first level-1 header in the document, falling
// back to the file's base name without extension.
func (c *Chunker) documentTitle(content, sourceFile string) string {
	source := []byte(content)
	doc := c.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err == nil && len(tree.Items) > 0 {
		if title := string(tree.Items[0].Title); title != "" {
			return title
		}
	}

	base := path.Base(sourceFile)
	return strings.TrimSuffix(base, path.Ext(base))
}
