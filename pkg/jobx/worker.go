package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

// HandlerFunc processes one job. A returned error schedules a retry until
// the job's attempts run out.
type HandlerFunc func(ctx context.Context, job *Job) error

// Worker pulls jobs from one queue and dispatches them by type.
type Worker struct {
	queue    Queue
	opts     Options
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	running  bool
}

func NewWorker(queue Queue, options ...Option) *Worker {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Worker{queue: queue, opts: opts, handlers: map[string]HandlerFunc{}}
}

func (w *Worker) Register(jobType string, h HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = h
}

// Enqueue stamps the worker's queue and attempt budget on job before
// handing it to the backend.
func (w *Worker) Enqueue(ctx context.Context, job *Job) error {
	if job.Queue == "" {
		job.Queue = w.opts.Queue
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = w.opts.MaxAttempts
	}
	return w.queue.Enqueue(ctx, job)
}

// Run processes jobs until ctx is cancelled, then waits up to the shutdown
// timeout for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRegistry.New(ErrAlreadyRunning)
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	logx.WithFields(logx.Fields{"queue": w.opts.Queue, "concurrency": w.opts.Concurrency}).Info("jobx: worker started")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}

	<-ctx.Done()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logx.Info("jobx: worker stopped")
	case <-time.After(w.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out with jobs in flight")
	}
	return nil
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.Promote(ctx, w.opts.Queue); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("jobx: promote failed")
			}
		}
	}
}

func (w *Worker) consume(ctx context.Context, id int) {
	for ctx.Err() == nil {
		job, err := w.queue.Dequeue(ctx, w.opts.Queue, w.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue failed", id)
			sleep(ctx, w.opts.PollInterval)
			continue
		}
		if job != nil {
			w.Process(ctx, job)
		}
	}
}

// Process runs the handler for one dequeued job and settles it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	w.mu.RLock()
	h, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	log := logx.WithFields(logx.Fields{"job_id": job.ID, "job_type": job.Type, "attempt": job.Attempts})
	if !ok {
		job.LastError = ErrRegistry.New(ErrNoHandler).Error()
		log.Warn("jobx: no handler, burying job")
		if err := w.queue.Bury(ctx, job); err != nil {
			log.WithError(err).Error("jobx: bury failed")
		}
		return
	}

	err := safeCall(ctx, h, job)
	if err == nil {
		log.Debug("jobx: job done")
		return
	}

	job.LastError = err.Error()
	if job.Exhausted() {
		log.WithError(err).Error("jobx: job failed permanently")
		if err := w.queue.Bury(ctx, job); err != nil {
			log.WithError(err).Error("jobx: bury failed")
		}
		return
	}

	log.WithError(err).Warn("jobx: job failed, retrying")
	if err := w.queue.Retry(ctx, job, w.opts.RetryDelay); err != nil {
		log.WithError(err).Error("jobx: retry failed")
	}
}

func safeCall(ctx context.Context, h HandlerFunc, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errx.Internal("job handler panicked").WithDetail("panic", fmt.Sprint(r))
			logx.Errorf("jobx: handler for %s panicked: %v", job.Type, r)
		}
	}()
	return h(ctx, job)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
