package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// IngestionService turns a raw reference document into indexed chunks:
// extract text, split, upsert. Shared by the documents endpoint and the
// ingest CLI. Re-ingesting an unchanged document is a no-op thanks to
// content-addressed chunk ids.
type IngestionService interface {
	IngestDocument(ctx context.Context, fileBytes []byte, fileName, sourceName string) (int, error)
	IngestText(ctx context.Context, text, sourceName string) (int, error)
}

type ingestionService struct {
	chunker      TextChunker
	index        VectorIndex
	pdfParser    PDFParserService
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

func NewIngestionService(chunker TextChunker, index VectorIndex, pdfParser PDFParserService, logger *zap.Logger) IngestionService {
	return &ingestionService{
		chunker:      chunker,
		index:        index,
		pdfParser:    pdfParser,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       logger,
	}
}

// IngestDocument implements IngestionService. Only .pdf and .txt files
// are accepted.
func (s *ingestionService) IngestDocument(ctx context.Context, fileBytes []byte, fileName, sourceName string) (int, error) {
	var content string

	switch {
	case strings.HasSuffix(fileName, ".pdf"):
		text, err := s.pdfParser.ExtractTextFromBytes(fileBytes, fileName)
		if err != nil {
			return 0, err
		}
		content = text
	case strings.HasSuffix(fileName, ".txt"):
		content = string(fileBytes)
	default:
		return 0, fmt.Errorf("unsupported file type %q: only .pdf and .txt are accepted", fileName)
	}

	return s.IngestText(ctx, content, sourceName)
}

// IngestText implements IngestionService.
func (s *ingestionService) IngestText(ctx context.Context, text, sourceName string) (int, error) {
	chunks := s.chunker.ChunkDocument(text, sourceName, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := s.index.UpsertChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", sourceName, err)
	}

	s.logger.Info("document ingested",
		zap.String("source", sourceName),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
