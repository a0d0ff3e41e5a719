package jobx

import (
	"context"
	"time"
)

// Enqueuer is what producers depend on.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Queue is the backend the worker drives.
type Queue interface {
	Enqueuer
	// Dequeue waits up to timeout for a job and returns nil when none
	// arrived. The returned job has its attempt counter incremented.
	Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Job, error)
	// Retry schedules the job to become ready again after delay.
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	// Bury parks a job that exhausted its attempts.
	Bury(ctx context.Context, job *Job) error
	// Promote moves due scheduled jobs to the ready list and returns how
	// many moved.
	Promote(ctx context.Context, queue string) (int, error)
}
