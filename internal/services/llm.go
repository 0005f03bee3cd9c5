package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StageOutput is implemented by every evaluation stage's expected JSON
// shape. Validate rejects parsed objects that are structurally valid
// JSON but violate the stage schema.
type StageOutput interface {
	Validate() error
}

// CVEvaluation is the CV stage output.
type CVEvaluation struct {
	CVMatchRate float64 `json:"cv_match_rate"`
	CVFeedback  string  `json:"cv_feedback"`
}

func (e CVEvaluation) Validate() error {
	if e.CVMatchRate < 0 || e.CVMatchRate > 1 {
		return fmt.Errorf("cv_match_rate %v outside [0, 1]", e.CVMatchRate)
	}
	if strings.TrimSpace(e.CVFeedback) == "" {
		return fmt.Errorf("cv_feedback is empty")
	}
	return nil
}

// ProjectEvaluation is the project-report stage output.
type ProjectEvaluation struct {
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
}

func (e ProjectEvaluation) Validate() error {
	if e.ProjectScore < 1 || e.ProjectScore > 5 {
		return fmt.Errorf("project_score %v outside [1, 5]", e.ProjectScore)
	}
	if strings.TrimSpace(e.ProjectFeedback) == "" {
		return fmt.Errorf("project_feedback is empty")
	}
	return nil
}

// SummaryEvaluation is the final synthesis stage output.
type SummaryEvaluation struct {
	OverallSummary string `json:"overall_summary"`
}

func (e SummaryEvaluation) Validate() error {
	if strings.TrimSpace(e.OverallSummary) == "" {
		return fmt.Errorf("overall_summary is empty")
	}
	return nil
}

// StructuredLLMClient wraps a TextGenerator with transient-failure
// retries. Transport failures are retried with a fixed blocking delay;
// parse and validation failures are not, since at low temperature the
// model would deterministically repeat them.
type StructuredLLMClient struct {
	generator  TextGenerator
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewStructuredLLMClient(generator TextGenerator, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *StructuredLLMClient {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &StructuredLLMClient{
		generator:  generator,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (c *StructuredLLMClient) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		response, err := c.generator.GenerateText(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		c.logger.Warn("llm call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(err))

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
	}

	return "", fmt.Errorf("%w: %d attempts exhausted: %v", ErrLLMUnavailable, c.maxRetries, lastErr)
}

// InvokeStructured sends prompt through the client and parses the
// response into T: first the first balanced {...} object is extracted
// (the model may still wrap JSON in prose), then the result is
// unmarshalled and validated against T's schema.
func InvokeStructured[T StageOutput](ctx context.Context, c *StructuredLLMClient, prompt string) (T, error) {
	var out T

	response, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		return out, err
	}

	jsonStr, found := extractJSONObject(response)
	if !found {
		jsonStr = response
	}

	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return out, &InvalidOutputError{Reason: "malformed JSON", Err: err}
	}

	if err := out.Validate(); err != nil {
		return out, &InvalidOutputError{Reason: "schema mismatch", Err: err}
	}

	return out, nil
}

// extractJSONObject returns the first balanced top-level {...} object in
// text. Braces inside JSON strings are ignored.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
