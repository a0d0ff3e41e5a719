package invitationinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/asyncx"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/jobx"
)

// JobPublisher queues invite events for the jobx worker.
type JobPublisher struct {
	queue jobx.Enqueuer
	name  string
}

func NewJobPublisher(queue jobx.Enqueuer, queueName string) *JobPublisher {
	return &JobPublisher{queue: queue, name: queueName}
}

func (p *JobPublisher) PublishInviteCreated(ctx context.Context, ev invitation.Event) error {
	job, err := jobx.NewJob(invitation.EventCreated, p.name, ev)
	if err != nil {
		return err
	}
	return p.queue.Enqueue(ctx, job)
}

// AsyncPublisher delivers in-process on a background goroutine. It is used
// when no queue is configured, so an event is lost if the process exits
// before delivery.
type AsyncPublisher struct {
	group    *asyncx.Group
	delivery *DeliveryHandler
	attempts int
	backoff  time.Duration
}

func NewAsyncPublisher(group *asyncx.Group, delivery *DeliveryHandler) *AsyncPublisher {
	return &AsyncPublisher{group: group, delivery: delivery, attempts: 3, backoff: time.Second}
}

func (p *AsyncPublisher) PublishInviteCreated(ctx context.Context, ev invitation.Event) error {
	p.group.Go(ctx, invitation.EventCreated, func(ctx context.Context) error {
		return asyncx.Retry(ctx, p.attempts, p.backoff, func(ctx context.Context) error {
			return p.delivery.Deliver(ctx, ev)
		})
	})
	return nil
}
