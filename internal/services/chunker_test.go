package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDocument_EmptyInput(t *testing.T) {
	chunker := NewTextChunker()

	assert.Empty(t, chunker.ChunkDocument("", "job_description", 1000, 100))
	assert.Empty(t, chunker.ChunkDocument("   \n\n  \n\n", "job_description", 1000, 100))
}

func TestChunkDocument_SingleParagraph(t *testing.T) {
	chunker := NewTextChunker()

	chunks := chunker.ChunkDocument("Backend developers build APIs.", "job_description", 1000, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Backend developers build APIs.", chunks[0].Text)
	assert.Equal(t, "job_description", chunks[0].Source)
	assert.Equal(t, ChunkID(chunks[0].Text), chunks[0].ID)
}

func TestChunkDocument_PacksParagraphsUpToChunkSize(t *testing.T) {
	chunker := NewTextChunker()

	// Two 40-char paragraphs fit one 100-char chunk; the third does not.
	para := strings.Repeat("a", 40)
	text := strings.Join([]string{para, para, para}, "\n\n")

	chunks := chunker.ChunkDocument(text, "cv_rubric", 100, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, para+"\n\n"+para, chunks[0].Text)
	assert.Equal(t, para, chunks[1].Text)
}

func TestChunkDocument_SizeBound(t *testing.T) {
	chunker := NewTextChunker()

	var paragraphs []string
	for i := 0; i < 30; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("Paragraph %d with some filler text to take up space.", i))
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := chunker.ChunkDocument(text, "cv_rubric", 200, 0)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 200)
	}
}

func TestChunkDocument_OversizedParagraphBecomesOwnChunk(t *testing.T) {
	chunker := NewTextChunker()

	huge := strings.Repeat("x", 500)
	text := "short one\n\n" + huge + "\n\nshort two"

	chunks := chunker.ChunkDocument(text, "case_study_brief", 100, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, "short one", chunks[0].Text)
	assert.Equal(t, huge, chunks[1].Text)
	assert.Equal(t, "short two", chunks[2].Text)
}

func TestChunkDocument_ReconstructsParagraphsInOrder(t *testing.T) {
	chunker := NewTextChunker()

	var paragraphs []string
	for i := 0; i < 25; i++ {
		paragraphs = append(paragraphs, fmt.Sprintf("paragraph number %d", i))
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := chunker.ChunkDocument(text, "project_rubric", 80, 0)

	var rebuilt []string
	for _, chunk := range chunks {
		rebuilt = append(rebuilt, strings.Split(chunk.Text, "\n\n")...)
	}
	assert.Equal(t, paragraphs, rebuilt)
}

func TestChunkDocument_OverlapIsNotApplied(t *testing.T) {
	chunker := NewTextChunker()

	para := strings.Repeat("b", 60)
	text := strings.Join([]string{para, para, para, para}, "\n\n")

	withOverlap := chunker.ChunkDocument(text, "cv_rubric", 100, 50)
	withoutOverlap := chunker.ChunkDocument(text, "cv_rubric", 100, 0)
	assert.Equal(t, withoutOverlap, withOverlap)
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, ChunkID("same text"), ChunkID("same text"))
	assert.NotEqual(t, ChunkID("same text"), ChunkID("different text"))
	assert.Len(t, ChunkID("same text"), 32)
}
