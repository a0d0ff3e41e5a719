// Package jobxredis stores jobx queues in Redis. Ready jobs sit in a list,
// delayed jobs in a sorted set scored by due time, and exhausted jobs in a
// capped dead list.
package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/propcore/pkg/jobx"
	"github.com/redis/go-redis/v9"
)

const deadLimit = 1000

type Queue struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func New(rdb redis.UniversalClient) *Queue {
	return &Queue{rdb: rdb, now: time.Now}
}

func readyKey(q string) string     { return "jobx:ready:" + q }
func scheduledKey(q string) string { return "jobx:scheduled:" + q }
func deadKey(q string) string      { return "jobx:dead:" + q }

func queueErr(err error, op, queue string) error {
	return jobx.ErrRegistry.NewWithCause(jobx.ErrQueue, err).
		WithDetail("op", op).
		WithDetail("queue", queue)
}

func (q *Queue) Enqueue(ctx context.Context, job *jobx.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.ErrInvalidJob, err)
	}
	if err := q.rdb.LPush(ctx, readyKey(job.Queue), data).Err(); err != nil {
		return queueErr(err, "enqueue", job.Queue)
	}
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, queue string, timeout time.Duration) (*jobx.Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, readyKey(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, queueErr(err, "dequeue", queue)
	}

	var job jobx.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		// An undecodable entry can never succeed; park it as-is.
		_ = q.rdb.LPush(ctx, deadKey(queue), res[1]).Err()
		return nil, jobx.ErrRegistry.NewWithCause(jobx.ErrInvalidJob, err)
	}
	job.Attempts++
	return &job, nil
}

func (q *Queue) Retry(ctx context.Context, job *jobx.Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.ErrInvalidJob, err)
	}
	due := float64(q.now().Add(delay).UnixMilli())
	if err := q.rdb.ZAdd(ctx, scheduledKey(job.Queue), redis.Z{Score: due, Member: data}).Err(); err != nil {
		return queueErr(err, "retry", job.Queue)
	}
	return nil
}

func (q *Queue) Bury(ctx context.Context, job *jobx.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return jobx.ErrRegistry.NewWithCause(jobx.ErrInvalidJob, err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, deadKey(job.Queue), data)
	pipe.LTrim(ctx, deadKey(job.Queue), 0, deadLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return queueErr(err, "bury", job.Queue)
	}
	return nil
}

var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, member in ipairs(due) do
	redis.call('LPUSH', KEYS[2], member)
end
if #due > 0 then
	redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
return #due
`)

func (q *Queue) Promote(ctx context.Context, queue string) (int, error) {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)
	n, err := promoteScript.Run(ctx, q.rdb, []string{scheduledKey(queue), readyKey(queue)}, now).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, queueErr(err, "promote", queue)
	}
	return n, nil
}

// Dead returns up to limit buried jobs, newest first.
func (q *Queue) Dead(ctx context.Context, queue string, limit int64) ([]*jobx.Job, error) {
	items, err := q.rdb.LRange(ctx, deadKey(queue), 0, limit-1).Result()
	if err != nil {
		return nil, queueErr(err, "dead", queue)
	}
	out := make([]*jobx.Job, 0, len(items))
	for _, item := range items {
		var job jobx.Job
		if json.Unmarshal([]byte(item), &job) == nil {
			out = append(out, &job)
		}
	}
	return out, nil
}

// Depth reports the ready and scheduled counts of a queue.
func (q *Queue) Depth(ctx context.Context, queue string) (ready, scheduled int64, err error) {
	pipe := q.rdb.Pipeline()
	r := pipe.LLen(ctx, readyKey(queue))
	s := pipe.ZCard(ctx, scheduledKey(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, queueErr(err, "depth", queue)
	}
	return r.Val(), s.Val(), nil
}
