package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/expertauto/expertise/internal/repository"
	"github.com/google/uuid"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeGenerateStatement = "generate_statement"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// GenerateStatementPayload is the payload for settlement statement jobs.
type GenerateStatementPayload struct {
	ReportID uuid.UUID `json:"report_id"`
	UserID   uuid.UUID `json:"user_id"`
	Format   string    `json:"format"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob marshals payload and inserts a pending job.
func EnqueueJob(
	ctx context.Context,
	queries repository.Querier,
	jobType string,
	payload any,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueGenerateStatement enqueues rendering of a report's settlement
// statement in the given format.
func EnqueueGenerateStatement(
	ctx context.Context,
	queries repository.Querier,
	reportID uuid.UUID,
	userID uuid.UUID,
	format string,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := GenerateStatementPayload{
		ReportID: reportID,
		UserID:   userID,
		Format:   format,
	}

	return EnqueueJob(ctx, queries, JobTypeGenerateStatement, payload, opts...)
}
