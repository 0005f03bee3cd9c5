package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedGenerator returns its responses in order; a nil entry yields a
// transport error.
type scriptedGenerator struct {
	responses []*string
	calls     int
}

func strPtr(s string) *string { return &s }

func (g *scriptedGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.calls >= len(g.responses) {
		return "", fmt.Errorf("unexpected call %d", g.calls+1)
	}
	resp := g.responses[g.calls]
	g.calls++
	if resp == nil {
		return "", fmt.Errorf("transport error")
	}
	return *resp, nil
}

func newTestClient(gen TextGenerator, retries int) *StructuredLLMClient {
	return NewStructuredLLMClient(gen, retries, time.Millisecond, zap.NewNop())
}

func TestInvokeStructured_Success(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{
		strPtr(`{"cv_match_rate": 0.8, "cv_feedback": "strong backend profile"}`),
	}}
	client := newTestClient(gen, 3)

	result, err := InvokeStructured[CVEvaluation](context.Background(), client, "prompt")
	require.NoError(t, err)
	assert.Equal(t, 0.8, result.CVMatchRate)
	assert.Equal(t, "strong backend profile", result.CVFeedback)
	assert.Equal(t, 1, gen.calls)
}

func TestInvokeStructured_JSONWrappedInProse(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{
		strPtr(`here you go: {"cv_match_rate": 0.8, "cv_feedback": "ok"}`),
	}}
	client := newTestClient(gen, 3)

	result, err := InvokeStructured[CVEvaluation](context.Background(), client, "prompt")
	require.NoError(t, err)
	assert.Equal(t, 0.8, result.CVMatchRate)
	assert.Equal(t, "ok", result.CVFeedback)
}

func TestInvokeStructured_RetriesTransientFailures(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{
		nil,
		nil,
		strPtr(`{"project_score": 4.5, "project_feedback": "meets requirements"}`),
	}}
	client := newTestClient(gen, 3)

	result, err := InvokeStructured[ProjectEvaluation](context.Background(), client, "prompt")
	require.NoError(t, err)
	assert.Equal(t, 4.5, result.ProjectScore)
	assert.Equal(t, 3, gen.calls)
}

func TestInvokeStructured_ExhaustedRetries(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{nil, nil, nil}}
	client := newTestClient(gen, 3)

	_, err := InvokeStructured[ProjectEvaluation](context.Background(), client, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.Equal(t, 3, gen.calls)
}

func TestInvokeStructured_MalformedJSONIsNotRetried(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{strPtr("not json")}}
	client := newTestClient(gen, 3)

	_, err := InvokeStructured[CVEvaluation](context.Background(), client, "prompt")
	require.Error(t, err)

	var invalidErr *InvalidOutputError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "malformed JSON", invalidErr.Reason)
	assert.Equal(t, 1, gen.calls)
}

func TestInvokeStructured_SchemaMismatchIsNotRetried(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{
		strPtr(`{"cv_match_rate": 1.5, "cv_feedback": "ok"}`),
	}}
	client := newTestClient(gen, 3)

	_, err := InvokeStructured[CVEvaluation](context.Background(), client, "prompt")
	require.Error(t, err)

	var invalidErr *InvalidOutputError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "schema mismatch", invalidErr.Reason)
	assert.Equal(t, 1, gen.calls)
}

func TestInvokeStructured_MissingFieldFailsValidation(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{
		strPtr(`{"cv_match_rate": 0.7}`),
	}}
	client := newTestClient(gen, 3)

	_, err := InvokeStructured[CVEvaluation](context.Background(), client, "prompt")
	var invalidErr *InvalidOutputError
	require.ErrorAs(t, err, &invalidErr)
}

func TestInvokeStructured_ContextCancelledDuringRetryWait(t *testing.T) {
	gen := &scriptedGenerator{responses: []*string{nil, nil, nil}}
	client := NewStructuredLLMClient(gen, 3, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := InvokeStructured[CVEvaluation](ctx, client, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.Equal(t, 1, gen.calls)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"wrapped in prose", `sure! {"a": 1} hope that helps`, `{"a": 1}`, true},
		{"nested objects", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{"brace inside string", `{"a": "{not nested}"}`, `{"a": "{not nested}"}`, true},
		{"escaped quote in string", `{"a": "say \"hi\" {"}`, `{"a": "say \"hi\" {"}`, true},
		{"no object", "not json", "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := extractJSONObject(tt.input)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStageOutputValidation(t *testing.T) {
	assert.NoError(t, CVEvaluation{CVMatchRate: 0, CVFeedback: "x"}.Validate())
	assert.NoError(t, CVEvaluation{CVMatchRate: 1, CVFeedback: "x"}.Validate())
	assert.Error(t, CVEvaluation{CVMatchRate: -0.1, CVFeedback: "x"}.Validate())
	assert.Error(t, CVEvaluation{CVMatchRate: 0.5, CVFeedback: "  "}.Validate())

	assert.NoError(t, ProjectEvaluation{ProjectScore: 1, ProjectFeedback: "x"}.Validate())
	assert.NoError(t, ProjectEvaluation{ProjectScore: 5, ProjectFeedback: "x"}.Validate())
	assert.Error(t, ProjectEvaluation{ProjectScore: 0.5, ProjectFeedback: "x"}.Validate())
	assert.Error(t, ProjectEvaluation{ProjectScore: 5.5, ProjectFeedback: "x"}.Validate())

	assert.NoError(t, SummaryEvaluation{OverallSummary: "solid candidate"}.Validate())
	assert.Error(t, SummaryEvaluation{}.Validate())
}

func TestInvalidOutputErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &InvalidOutputError{Reason: "malformed JSON", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "malformed JSON")
}
