package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeIndex is an in-memory VectorIndex. Retrieval ignores similarity
// and returns all chunks whose source matches the filter, in insertion
// order.
type fakeIndex struct {
	chunks      map[string]Chunk
	order       []string
	failQueries bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{chunks: make(map[string]Chunk)}
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) UpsertChunks(ctx context.Context, chunks []Chunk) error {
	if f.failQueries {
		return ErrStoreUnavailable
	}
	for _, chunk := range chunks {
		if _, exists := f.chunks[chunk.ID]; !exists {
			f.order = append(f.order, chunk.ID)
		}
		f.chunks[chunk.ID] = chunk
	}
	return nil
}

func (f *fakeIndex) QuerySimilar(ctx context.Context, text string, sources []string, limit int) ([]string, error) {
	if f.failQueries {
		return nil, ErrStoreUnavailable
	}
	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[s] = true
	}
	var texts []string
	for _, id := range f.order {
		chunk := f.chunks[id]
		if allowed[chunk.Source] && len(texts) < limit {
			texts = append(texts, chunk.Text)
		}
	}
	return texts, nil
}

func (f *fakeIndex) ListSources(ctx context.Context) (map[string]int, error) {
	if f.failQueries {
		return nil, ErrStoreUnavailable
	}
	counts := make(map[string]int)
	for _, chunk := range f.chunks {
		counts[chunk.Source]++
	}
	return counts, nil
}

func TestRetrieve_JoinsMatchingChunks(t *testing.T) {
	index := newFakeIndex()
	require.NoError(t, index.UpsertChunks(context.Background(), []Chunk{
		{ID: "1", Text: "first chunk", Source: "cv_rubric"},
		{ID: "2", Text: "second chunk", Source: "cv_rubric"},
		{ID: "3", Text: "other corpus", Source: "job_description"},
	}))

	retriever := NewContextRetriever(index, zap.NewNop())
	got, err := retriever.Retrieve(context.Background(), "scoring criteria", SourceCVRubric)
	require.NoError(t, err)
	assert.Equal(t, "first chunk\n---\nsecond chunk", got)
}

func TestRetrieve_EmptyCorpusReturnsEmptyContext(t *testing.T) {
	retriever := NewContextRetriever(newFakeIndex(), zap.NewNop())

	got, err := retriever.Retrieve(context.Background(), "anything", SourceProjectRubric)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRetrieve_NonMatchingSourceReturnsEmptyContext(t *testing.T) {
	index := newFakeIndex()
	require.NoError(t, index.UpsertChunks(context.Background(), []Chunk{
		{ID: "1", Text: "jd text", Source: "job_description"},
	}))

	retriever := NewContextRetriever(index, zap.NewNop())
	got, err := retriever.Retrieve(context.Background(), "anything", SourceCaseStudyBrief)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRetrieve_StoreUnavailablePropagates(t *testing.T) {
	index := newFakeIndex()
	index.failQueries = true

	retriever := NewContextRetriever(index, zap.NewNop())
	_, err := retriever.Retrieve(context.Background(), "anything", SourceCVRubric)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRetrieve_RejectsUnknownCategory(t *testing.T) {
	retriever := NewContextRetriever(newFakeIndex(), zap.NewNop())

	_, err := retriever.Retrieve(context.Background(), "anything", SourceCategory("cv_rubrick"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source category")
}

func TestUpsertChunks_Idempotent(t *testing.T) {
	index := newFakeIndex()
	chunker := NewTextChunker()

	chunks := chunker.ChunkDocument("Scoring criteria for CVs.", "cv_rubric", 1000, 100)
	require.NoError(t, index.UpsertChunks(context.Background(), chunks))
	require.NoError(t, index.UpsertChunks(context.Background(), chunks))

	counts, err := index.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts["cv_rubric"])
}
