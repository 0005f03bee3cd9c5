package handlers

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gofiber/fiber/v2"

	"screening-service/internal/models"
	"screening-service/internal/services"
)

// DocumentHandler exposes the reference corpus: listing indexed sources
// and ingesting new ground-truth documents.
type DocumentHandler struct {
	index     services.VectorIndex
	ingestion services.IngestionService
}

func NewDocumentHandler(index services.VectorIndex, ingestion services.IngestionService) *DocumentHandler {
	return &DocumentHandler{
		index:     index,
		ingestion: ingestion,
	}
}

// HandleListDocuments handles GET /documents.
func (h *DocumentHandler) HandleListDocuments(c *fiber.Ctx) error {
	counts, err := h.index.ListSources(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to list documents: %v", err),
		})
	}

	summaries := make([]models.DocumentSummary, 0, len(counts))
	for source, count := range counts {
		summaries = append(summaries, models.DocumentSummary{
			SourceName: source,
			ChunkCount: count,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SourceName < summaries[j].SourceName
	})

	return c.JSON(summaries)
}

// HandleIngestDocument handles POST /documents: a .pdf or .txt file plus
// a source_name form field, chunked and upserted into the index.
func (h *DocumentHandler) HandleIngestDocument(c *fiber.Ctx) error {
	sourceName := c.FormValue("source_name")
	if sourceName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source_name is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	chunksAdded, err := h.ingestion.IngestDocument(c.Context(), fileBytes, fileHeader.Filename, sourceName)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, services.ErrStoreUnavailable) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to ingest document: %v", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.IngestResponse{
		Message:     "document ingested successfully",
		SourceName:  sourceName,
		ChunksAdded: chunksAdded,
	})
}
