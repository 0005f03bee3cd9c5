package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"screening-service/internal/models"
	"screening-service/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewResultHandler(evalRepo repositories.EvaluationRepository) *ResultHandler {
	return &ResultHandler{evalRepo: evalRepo}
}

// HandleGetResult handles GET /result/:id, the poll side of the job
// tracker contract.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid evaluation ID format",
		})
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Evaluation not found",
		})
	}

	response := models.ResultResponse{
		ID:     evaluation.ID.String(),
		Status: string(evaluation.Status),
	}

	if evaluation.Status == models.StatusCompleted {
		response.Result = &models.EvaluationResult{
			CVMatchRate:     derefFloat(evaluation.CVMatchRate),
			CVFeedback:      derefString(evaluation.CVFeedback),
			ProjectScore:    derefFloat(evaluation.ProjectScore),
			ProjectFeedback: derefString(evaluation.ProjectFeedback),
			OverallSummary:  derefString(evaluation.OverallSummary),
		}
	}

	if evaluation.Status == models.StatusFailed {
		response.Error = evaluation.ErrorMessage
	}

	return c.JSON(response)
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
