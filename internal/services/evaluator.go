package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"screening-service/internal/models"
	"screening-service/internal/repositories"
)

// EvaluatorService drives one screening job end to end:
// parse documents -> CV stage -> project stage -> summary stage.
// Stages run strictly in order; the summary depends on both prior
// outputs. The first failing step aborts the job with that step's error
// and no partial result is ever persisted.
type EvaluatorService interface {
	EvaluateCandidate(ctx context.Context, evalID uuid.UUID) error
}

type evaluatorService struct {
	evalRepo      repositories.EvaluationRepository
	docRepo       repositories.DocumentRepository
	llmClient     *StructuredLLMClient
	retriever     ContextRetriever
	pdfParser     PDFParserService
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewEvaluatorService(
	evalRepo repositories.EvaluationRepository,
	docRepo repositories.DocumentRepository,
	llmClient *StructuredLLMClient,
	retriever ContextRetriever,
	pdfParser PDFParserService,
	logger *zap.Logger,
) EvaluatorService {
	return &evaluatorService{
		evalRepo:      evalRepo,
		docRepo:       docRepo,
		llmClient:     llmClient,
		retriever:     retriever,
		pdfParser:     pdfParser,
		promptBuilder: NewPromptBuilder(),
		logger:        logger,
	}
}

func (e *evaluatorService) EvaluateCandidate(ctx context.Context, evalID uuid.UUID) error {
	log := e.logger.With(zap.String("job_id", evalID.String()))

	if err := e.evalRepo.MarkProcessing(evalID); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	result, err := e.runPipeline(ctx, evalID, log)
	if err != nil {
		log.Error("evaluation pipeline failed", zap.Error(err))
		if failErr := e.evalRepo.FailWithError(evalID, err.Error()); failErr != nil {
			log.Error("failed to record job failure", zap.Error(failErr))
		}
		return err
	}

	if err := e.evalRepo.CompleteWithResult(evalID, result); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	log.Info("evaluation completed",
		zap.Float64("cv_match_rate", result.CVMatchRate),
		zap.Float64("project_score", result.ProjectScore))
	return nil
}

func (e *evaluatorService) runPipeline(ctx context.Context, evalID uuid.UUID, log *zap.Logger) (*models.EvaluationResult, error) {
	evaluation, err := e.evalRepo.FindByID(evalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation: %w", err)
	}

	cvDoc, err := e.docRepo.FindByID(evaluation.CVDocumentID)
	if err != nil {
		return nil, fmt.Errorf("CV document not found: %w", err)
	}
	projectDoc, err := e.docRepo.FindByID(evaluation.ProjectDocumentID)
	if err != nil {
		return nil, fmt.Errorf("project document not found: %w", err)
	}

	// Step 1: extract text from both documents.
	cvText, err := e.pdfParser.ExtractText(cvDoc.FilePath)
	if err != nil {
		return nil, err
	}
	reportText, err := e.pdfParser.ExtractText(projectDoc.FilePath)
	if err != nil {
		return nil, err
	}

	// Step 2: CV stage.
	log.Info("evaluating cv")
	cvEval, err := e.evaluateCV(ctx, cvText, evaluation.JobTitle)
	if err != nil {
		return nil, fmt.Errorf("cv evaluation failed: %w", err)
	}

	// Step 3: project stage.
	log.Info("evaluating project report")
	projectEval, err := e.evaluateProject(ctx, reportText)
	if err != nil {
		return nil, fmt.Errorf("project evaluation failed: %w", err)
	}

	// Step 4: summary stage, from the two prior outputs only.
	log.Info("synthesizing summary")
	summaryPrompt := e.promptBuilder.BuildSummaryPrompt(cvEval, projectEval)
	summaryEval, err := InvokeStructured[SummaryEvaluation](ctx, e.llmClient, summaryPrompt)
	if err != nil {
		return nil, fmt.Errorf("summary synthesis failed: %w", err)
	}

	return &models.EvaluationResult{
		CVMatchRate:     cvEval.CVMatchRate,
		CVFeedback:      cvEval.CVFeedback,
		ProjectScore:    projectEval.ProjectScore,
		ProjectFeedback: projectEval.ProjectFeedback,
		OverallSummary:  summaryEval.OverallSummary,
	}, nil
}

// evaluateCV retrieves job-description and CV-rubric context and runs
// the CV stage. Retrieval errors propagate: a store outage must fail
// the job rather than silently shrink its context.
func (e *evaluatorService) evaluateCV(ctx context.Context, cvText, jobTitle string) (CVEvaluation, error) {
	jdContext, err := e.retriever.Retrieve(ctx, e.promptBuilder.JobDescriptionQuery(jobTitle), SourceJobDescription)
	if err != nil {
		return CVEvaluation{}, err
	}

	rubricContext, err := e.retriever.Retrieve(ctx, e.promptBuilder.CVRubricQuery(), SourceCVRubric)
	if err != nil {
		return CVEvaluation{}, err
	}

	prompt := e.promptBuilder.BuildCVEvaluationPrompt(cvText, jdContext, rubricContext)
	return InvokeStructured[CVEvaluation](ctx, e.llmClient, prompt)
}

func (e *evaluatorService) evaluateProject(ctx context.Context, reportText string) (ProjectEvaluation, error) {
	briefContext, err := e.retriever.Retrieve(ctx, e.promptBuilder.CaseStudyBriefQuery(), SourceCaseStudyBrief)
	if err != nil {
		return ProjectEvaluation{}, err
	}

	rubricContext, err := e.retriever.Retrieve(ctx, e.promptBuilder.ProjectRubricQuery(), SourceProjectRubric)
	if err != nil {
		return ProjectEvaluation{}, err
	}

	prompt := e.promptBuilder.BuildProjectEvaluationPrompt(reportText, briefContext, rubricContext)
	return InvokeStructured[ProjectEvaluation](ctx, e.llmClient, prompt)
}
