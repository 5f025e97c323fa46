package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/expertauto/expertise/internal/metrics"
	"github.com/expertauto/expertise/internal/repository"
)

// Worker manages background job processing with concurrent workers.
type Worker struct {
	store    repository.Store
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(store repository.Store, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		store:    store,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job handler to the worker.
// The handler's Type() must be unique. Call this before Start().
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("Registered job handler", "job_type", jobType)
}

// Start recovers stale jobs, then launches the configured number of polling
// goroutines.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	w.logger.Info("Worker started", "concurrency", w.config.Concurrency)
}

// Stop signals all workers to stop and waits up to ShutdownTimeout for
// running jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some jobs may still be running")
	}
}

// recoverStaleJobs resets jobs left running by a crashed worker.
func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.store.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}

	if count > 0 {
		w.logger.Warn("Recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}

	return nil
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	logger.Debug("Worker started")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("Worker stopping")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessNext(ctx); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				logger.Error("Failed to process job", "error", err)
			}
		}
	}
}

// ProcessNext dequeues and executes a single job.
// Returns sql.ErrNoRows if no jobs are available.
func (w *Worker) ProcessNext(ctx context.Context) error {
	var job repository.Job
	err := w.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		job, err = q.DequeueJob(ctx)
		if err != nil {
			return err
		}
		if err := q.UpdateJobStarted(ctx, job.ID); err != nil {
			return fmt.Errorf("mark job started: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The job runs outside the dequeue transaction
	logger := w.logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("Processing job")

	start := time.Now()
	if err := w.executeJob(ctx, job); err != nil {
		logger.Error("Job failed", "error", err)
		w.markJobFailed(ctx, job, err, time.Since(start))
		return fmt.Errorf("execute job: %w", err)
	}

	metrics.JobFinished(job.JobType, metrics.OutcomeCompleted, time.Since(start))
	logger.Info("Job completed", "duration", time.Since(start))
	if err := w.store.UpdateJobCompleted(ctx, job.ID); err != nil {
		logger.Error("Failed to mark job as completed", "error", err)
		return fmt.Errorf("update job completed: %w", err)
	}

	return nil
}

// executeJob runs the registered handler under the job timeout.
func (w *Worker) executeJob(ctx context.Context, job repository.Job) error {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed marks the job failed for good when the error is permanent or
// attempts are exhausted, and otherwise leaves it to be retried with backoff.
func (w *Worker) markJobFailed(ctx context.Context, job repository.Job, jobErr error, elapsed time.Duration) {
	permanent := IsPermanent(jobErr)
	attempts := job.Attempts + 1

	if permanent || attempts >= job.MaxAttempts {
		metrics.JobFinished(job.JobType, metrics.OutcomeFailed, elapsed)
		if permanent {
			w.logger.Warn("Job failed with permanent error, will not retry", "job_id", job.ID, "error", jobErr)
		}
	} else {
		metrics.JobFinished(job.JobType, metrics.OutcomeRetried, elapsed)
	}

	params := repository.UpdateJobFailedParams{
		ID:           job.ID,
		ErrorMessage: sql.NullString{String: jobErr.Error(), Valid: true},
		Permanent:    permanent,
	}
	if err := w.store.UpdateJobFailed(ctx, params); err != nil {
		w.logger.Error("Failed to mark job as failed", "job_id", job.ID, "error", err)
	}
}
