package metrics

import "time"

// Job outcomes used as the status label of JobsTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

// JobFinished records the end of one job attempt. Retried attempts also
// count toward JobRetriesTotal; only completed attempts feed the duration
// histogram.
func JobFinished(jobType, outcome string, duration time.Duration) {
	JobsTotal.WithLabelValues(jobType, outcome).Inc()
	switch outcome {
	case OutcomeCompleted:
		JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
	case OutcomeRetried:
		JobRetriesTotal.WithLabelValues(jobType).Inc()
	}
}

// StatementStored records a rendered statement that reached storage.
func StatementStored(format string, sizeBytes int64) {
	StatementsGenerated.WithLabelValues(format).Inc()
	StatementSizeBytes.WithLabelValues(format).Observe(float64(sizeBytes))
}
