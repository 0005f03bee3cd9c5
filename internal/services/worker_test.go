package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"screening-service/internal/models"
)

// recordingEvaluator signals every processed job id on a channel. When
// given a repo it moves the job to a terminal state, like the real
// orchestrator would, so the pending poller stops re-enqueueing it.
type recordingEvaluator struct {
	repo      *fakeEvalRepo
	processed chan uuid.UUID
}

func (e *recordingEvaluator) EvaluateCandidate(ctx context.Context, evalID uuid.UUID) error {
	if e.repo != nil {
		if err := e.repo.MarkProcessing(evalID); err != nil {
			return err
		}
		if err := e.repo.FailWithError(evalID, "done"); err != nil {
			return err
		}
	}
	e.processed <- evalID
	return nil
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	evaluator := &recordingEvaluator{processed: make(chan uuid.UUID, 10)}
	w := NewWorker(newFakeEvalRepo(), evaluator, 2, zap.NewNop())

	w.Start(context.Background())
	defer w.Stop()

	first := uuid.New()
	second := uuid.New()
	w.EnqueueJob(first)
	w.EnqueueJob(second)

	got := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-evaluator.processed:
			got[id] = true
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs to be processed")
		}
	}

	assert.True(t, got[first])
	assert.True(t, got[second])
}

func TestWorker_StopIsIdempotentForPendingEnqueue(t *testing.T) {
	evaluator := &recordingEvaluator{processed: make(chan uuid.UUID, 10)}
	w := NewWorker(newFakeEvalRepo(), evaluator, 1, zap.NewNop())

	w.Start(context.Background())
	w.Stop()

	// Enqueue after stop must not block.
	done := make(chan struct{})
	go func() {
		w.EnqueueJob(uuid.New())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueJob blocked after Stop")
	}
}

func TestWorker_PollerPicksUpQueuedJobs(t *testing.T) {
	repo := newFakeEvalRepo()
	pending := uuid.New()
	require.NoError(t, repo.Create(&models.Evaluation{
		ID:     pending,
		Status: models.StatusQueued,
	}))

	evaluator := &recordingEvaluator{repo: repo, processed: make(chan uuid.UUID, 10)}
	w := NewWorker(repo, evaluator, 1, zap.NewNop()).(*worker)
	w.pollInterval = 10 * time.Millisecond

	w.Start(context.Background())
	defer w.Stop()

	select {
	case id := <-evaluator.processed:
		assert.Equal(t, pending, id)
	case <-time.After(5 * time.Second):
		t.Fatal("poller never picked up the queued job")
	}
}
