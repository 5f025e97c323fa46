package worker

import (
	"context"
	"errors"
)

// JobHandler executes one type of background job.
type JobHandler interface {
	// Type returns the job_type this handler processes.
	Type() string

	// Handle executes the job. The payload is the raw JSON stored with the
	// job. Wrap the returned error with NewPermanentError to skip retries.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a job failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the job is failed without retry.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or any error it wraps, is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
