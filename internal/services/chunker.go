package services

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Chunk is the unit of retrieval: a bounded, paragraph-aligned slice of a
// document's text tagged with the source it came from. ID is a content
// hash of Text, so re-ingesting identical text always maps to the same
// chunk.
type Chunk struct {
	ID     string
	Text   string
	Source string
}

type TextChunker interface {
	ChunkDocument(text, sourceName string, chunkSize, chunkOverlap int) []Chunk
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

const paragraphSeparator = "\n\n"

// ChunkDocument splits text on blank-line boundaries and greedily packs
// paragraphs into chunks of at most chunkSize characters (counting the
// two-character separator between paragraphs). A single paragraph longer
// than chunkSize becomes its own oversized chunk rather than being split
// mid-paragraph.
//
// chunkOverlap is accepted for interface compatibility but chunks never
// share paragraph content.
func (tc *textChunker) ChunkDocument(text, sourceName string, chunkSize, chunkOverlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	var paragraphs []string
	for _, p := range strings.Split(text, paragraphSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []Chunk
	var current strings.Builder

	emit := func() {
		chunkText := strings.TrimSpace(current.String())
		if chunkText == "" {
			return
		}
		chunks = append(chunks, Chunk{
			ID:     ChunkID(chunkText),
			Text:   chunkText,
			Source: sourceName,
		})
		current.Reset()
	}

	for _, para := range paragraphs {
		if current.Len() > 0 && current.Len()+len(para)+len(paragraphSeparator) > chunkSize {
			emit()
		}
		if current.Len() > 0 {
			current.WriteString(paragraphSeparator)
		}
		current.WriteString(para)
	}
	emit()

	return chunks
}

// ChunkID returns the content-addressed identifier for a chunk text:
// the hex form of a stable 128-bit hash. Identical text yields an
// identical id across runs and sources, which makes index upserts
// idempotent.
func ChunkID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
