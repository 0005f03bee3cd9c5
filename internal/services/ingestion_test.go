package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIngestion(index VectorIndex) IngestionService {
	parser := &fakePDFParser{texts: map[string]string{}}
	return NewIngestionService(NewTextChunker(), index, parser, zap.NewNop())
}

func TestIngestDocument_TextFile(t *testing.T) {
	index := newFakeIndex()
	ingestion := newTestIngestion(index)

	content := "First paragraph of the rubric.\n\nSecond paragraph of the rubric."
	added, err := ingestion.IngestDocument(context.Background(), []byte(content), "cv_rubric.txt", "cv_rubric")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	counts, err := index.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts["cv_rubric"])
}

func TestIngestDocument_RejectsUnsupportedType(t *testing.T) {
	ingestion := newTestIngestion(newFakeIndex())

	_, err := ingestion.IngestDocument(context.Background(), []byte("data"), "rubric.docx", "cv_rubric")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestIngestText_EmptyTextIsNoOp(t *testing.T) {
	index := newFakeIndex()
	ingestion := newTestIngestion(index)

	added, err := ingestion.IngestText(context.Background(), "   ", "cv_rubric")
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	counts, err := index.ListSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestIngestText_ReingestionIsIdempotent(t *testing.T) {
	index := newFakeIndex()
	ingestion := newTestIngestion(index)

	content := "Scoring criteria for project reports."
	first, err := ingestion.IngestText(context.Background(), content, "project_rubric")
	require.NoError(t, err)
	second, err := ingestion.IngestText(context.Background(), content, "project_rubric")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	counts, err := index.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts["project_rubric"])
}

func TestIngestText_StoreUnavailablePropagates(t *testing.T) {
	index := newFakeIndex()
	index.failQueries = true
	ingestion := newTestIngestion(index)

	_, err := ingestion.IngestText(context.Background(), "some text", "cv_rubric")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
