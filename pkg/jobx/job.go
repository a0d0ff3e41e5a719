package jobx

import (
	"encoding/json"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/google/uuid"
)

// Job is the envelope stored on a queue. The payload stays encoded until a
// handler decodes it.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// NewJob encodes payload into a job envelope with a fresh id.
func NewJob(jobType, queue string, payload any) (*Job, error) {
	if jobType == "" || queue == "" {
		return nil, ErrRegistry.New(ErrInvalidJob)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrInvalidJob, err)
	}
	return &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Queue:      queue,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return ErrRegistry.NewWithCause(ErrInvalidJob, err).WithDetail("job_id", j.ID)
	}
	return nil
}

// Exhausted reports whether the job used up its attempts.
func (j *Job) Exhausted() bool {
	return j.MaxAttempts > 0 && j.Attempts >= j.MaxAttempts
}

var ErrRegistry = errx.NewRegistry("JOBX")

var (
	ErrInvalidJob     = ErrRegistry.Register("INVALID_JOB", errx.TypeValidation, 0, "Invalid job")
	ErrNoHandler      = ErrRegistry.Register("NO_HANDLER", errx.TypeInternal, 0, "No handler registered for job type")
	ErrAlreadyRunning = ErrRegistry.Register("ALREADY_RUNNING", errx.TypeConflict, 0, "Worker is already running")
	ErrQueue          = ErrRegistry.Register("QUEUE", errx.TypeExternal, 0, "Job queue unavailable")
)
