package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"screening-service/internal/models"
)

// EvaluationRepository is the durable job store behind the tracker.
// Updates that would move a terminal job back to queued or processing
// are rejected, keeping status transitions monotonic.
type EvaluationRepository interface {
	Create(eval *models.Evaluation) error
	FindByID(id uuid.UUID) (*models.Evaluation, error)
	MarkProcessing(id uuid.UUID) error
	CompleteWithResult(id uuid.UUID, result *models.EvaluationResult) error
	FailWithError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(eval *models.Evaluation) error {
	if err := r.db.Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	var eval models.Evaluation
	if err := r.db.Where("id = ?", id).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation not found")
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

func (r *evaluationRepository) MarkProcessing(id uuid.UUID) error {
	result := r.db.Model(&models.Evaluation{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark processing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation not found or not queued")
	}
	return nil
}

func (r *evaluationRepository) CompleteWithResult(id uuid.UUID, data *models.EvaluationResult) error {
	result := r.db.Model(&models.Evaluation{}).
		Where("id = ? AND status NOT IN ?", id, []models.EvaluationStatus{models.StatusCompleted, models.StatusFailed}).
		Updates(map[string]interface{}{
			"status":           models.StatusCompleted,
			"cv_match_rate":    data.CVMatchRate,
			"cv_feedback":      data.CVFeedback,
			"project_score":    data.ProjectScore,
			"project_feedback": data.ProjectFeedback,
			"overall_summary":  data.OverallSummary,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save result: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation not found or already terminal")
	}
	return nil
}

func (r *evaluationRepository) FailWithError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.Evaluation{}).
		Where("id = ? AND status NOT IN ?", id, []models.EvaluationStatus{models.StatusCompleted, models.StatusFailed}).
		Updates(map[string]interface{}{
			"status":        models.StatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to record error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation not found or already terminal")
	}
	return nil
}

func (r *evaluationRepository) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&evals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return evals, nil
}
