package sessioninfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/go-co-op/gocron/v2"
)

// SweepFunc cleans or reports expired rows and returns how many it saw.
type SweepFunc func(ctx context.Context) (int64, error)

// Sweeper runs storage-hygiene jobs on a gocron scheduler.
type Sweeper struct {
	scheduler gocron.Scheduler
}

type SweepJob struct {
	Name string
	Run  SweepFunc
}

func NewSweeper(ctx context.Context, interval time.Duration, jobs ...SweepJob) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errx.Wrap(err, "failed to create scheduler", errx.TypeInternal)
	}

	for _, job := range jobs {
		_, err := s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(runSweep, ctx, job),
			gocron.WithName(job.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, errx.Wrapf(err, errx.TypeInternal, "failed to schedule %s", job.Name)
		}
	}
	return &Sweeper{scheduler: s}, nil
}

func runSweep(ctx context.Context, job SweepJob) {
	n, err := job.Run(ctx)
	if err != nil {
		logx.WithError(err).WithField("job", job.Name).Error("sweep failed")
		return
	}
	if n > 0 {
		logx.WithFields(logx.Fields{"job": job.Name, "rows": n}).Info("sweep completed")
	}
}

func (s *Sweeper) Start() { s.scheduler.Start() }

func (s *Sweeper) Stop() error { return s.scheduler.Shutdown() }
