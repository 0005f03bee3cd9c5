package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SourceCategory names one of the reference-corpus buckets. Keeping it a
// closed enumeration prevents a mistyped tag from silently matching
// nothing.
type SourceCategory string

const (
	SourceJobDescription SourceCategory = "job_description"
	SourceCVRubric       SourceCategory = "cv_rubric"
	SourceCaseStudyBrief SourceCategory = "case_study_brief"
	SourceProjectRubric  SourceCategory = "project_rubric"
)

func (c SourceCategory) Valid() bool {
	switch c {
	case SourceJobDescription, SourceCVRubric, SourceCaseStudyBrief, SourceProjectRubric:
		return true
	}
	return false
}

// ContextRetriever assembles the retrieval context injected into LLM
// prompts: the top chunks of one category joined into a single string.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, category SourceCategory) (string, error)
}

type contextRetriever struct {
	index  VectorIndex
	topK   int
	logger *zap.Logger
}

const (
	defaultRetrievalTopK = 5
	contextSeparator     = "\n---\n"
)

func NewContextRetriever(index VectorIndex, logger *zap.Logger) ContextRetriever {
	return &contextRetriever{
		index:  index,
		topK:   defaultRetrievalTopK,
		logger: logger,
	}
}

// Retrieve implements ContextRetriever. An empty context is a normal
// outcome (evaluation proceeds with reduced context); a store failure is
// not and propagates to the caller.
func (r *contextRetriever) Retrieve(ctx context.Context, query string, category SourceCategory) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown source category %q", category)
	}

	texts, err := r.index.QuerySimilar(ctx, query, []string{string(category)}, r.topK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve %s context: %w", category, err)
	}

	if len(texts) == 0 {
		r.logger.Warn("no chunks matched retrieval query",
			zap.String("category", string(category)),
			zap.String("query", query))
		return "", nil
	}

	return strings.Join(texts, contextSeparator), nil
}
