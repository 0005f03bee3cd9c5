package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"screening-service/internal/repositories"
)

// Worker is the async-execution side of the job tracker: submitted jobs
// land on a buffered queue and are processed end to end by one of a
// fixed pool of goroutines. A poller re-enqueues rows still queued in
// the store, so jobs survive a restart.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(evalID uuid.UUID)
}

type worker struct {
	evalRepo         repositories.EvaluationRepository
	evaluatorService EvaluatorService
	jobQueue         chan uuid.UUID
	concurrency      int
	pollInterval     time.Duration
	wg               sync.WaitGroup
	stopChan         chan struct{}
	logger           *zap.Logger
}

const (
	jobQueueCapacity = 100
	pendingJobBatch  = 10
	defaultPollEvery = 10 * time.Second
)

func NewWorker(
	evalRepo repositories.EvaluationRepository,
	evaluatorService EvaluatorService,
	concurrency int,
	logger *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		evalRepo:         evalRepo,
		evaluatorService: evaluatorService,
		jobQueue:         make(chan uuid.UUID, jobQueueCapacity),
		concurrency:      concurrency,
		pollInterval:     defaultPollEvery,
		stopChan:         make(chan struct{}),
		logger:           logger,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting workers", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs()
}

// Stop implements Worker.
func (w *worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("workers stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(evalID uuid.UUID) {
	select {
	case w.jobQueue <- evalID:
		w.logger.Debug("job enqueued", zap.String("job_id", evalID.String()))
	case <-w.stopChan:
		w.logger.Warn("worker stopped, job not enqueued", zap.String("job_id", evalID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case evalID := <-w.jobQueue:
			log.Info("processing job", zap.String("job_id", evalID.String()))
			if err := w.evaluatorService.EvaluateCandidate(ctx, evalID); err != nil {
				log.Error("job failed", zap.String("job_id", evalID.String()), zap.Error(err))
			} else {
				log.Info("job completed", zap.String("job_id", evalID.String()))
			}
		}
	}
}

// pollPendingJobs re-enqueues jobs that are queued in the store but not
// on the channel, e.g. after a restart. Re-enqueueing an in-flight job
// is harmless: MarkProcessing only moves queued rows.
func (w *worker) pollPendingJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.evalRepo.FindPendingJobs(pendingJobBatch)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}
			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
