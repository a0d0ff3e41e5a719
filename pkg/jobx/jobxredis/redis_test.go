package jobxredis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/jobx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	To string `json:"to"`
}

func newQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestEnqueueDequeue(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	job, err := jobx.NewJob("invite.created", "notifications", payload{To: "bob@acme.io"})
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Dequeue(ctx, "notifications", 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, 1, got.Attempts)

	var p payload
	require.NoError(t, got.Decode(&p))
	assert.Equal(t, "bob@acme.io", p.To)
}

func TestDequeue_EmptyReturnsNil(t *testing.T) {
	q, _ := newQueue(t)
	got, err := q.Dequeue(context.Background(), "notifications", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRetryAndPromote(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	job, err := jobx.NewJob("invite.created", "notifications", payload{})
	require.NoError(t, err)
	job.Attempts = 1
	require.NoError(t, q.Retry(ctx, job, time.Minute))

	n, err := q.Promote(ctx, "notifications")
	require.NoError(t, err)
	assert.Zero(t, n)

	q.now = func() time.Time { return now.Add(2 * time.Minute) }
	n, err = q.Promote(ctx, "notifications")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := q.Dequeue(ctx, "notifications", 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Attempts)
}

func TestBuryAndDepth(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	job, err := jobx.NewJob("invite.created", "notifications", payload{})
	require.NoError(t, err)
	job.LastError = "smtp down"
	require.NoError(t, q.Bury(ctx, job))
	require.NoError(t, q.Enqueue(ctx, job))

	dead, err := q.Dead(ctx, "notifications", 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "smtp down", dead[0].LastError)

	ready, scheduled, err := q.Depth(ctx, "notifications")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ready)
	assert.Zero(t, scheduled)
}

func TestWorkerRetriesThenBuries(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	w := jobx.NewWorker(q, jobx.WithQueue("notifications"), jobx.WithMaxAttempts(2), jobx.WithRetryDelay(time.Millisecond))
	calls := 0
	w.Register("flaky", func(context.Context, *jobx.Job) error {
		calls++
		return errors.New("nope")
	})

	job, err := jobx.NewJob("flaky", "notifications", payload{})
	require.NoError(t, err)
	require.NoError(t, w.Enqueue(ctx, job))

	first, err := q.Dequeue(ctx, "notifications", 100*time.Millisecond)
	require.NoError(t, err)
	w.Process(ctx, first)

	q.now = func() time.Time { return time.Now().Add(time.Second) }
	_, err = q.Promote(ctx, "notifications")
	require.NoError(t, err)

	second, err := q.Dequeue(ctx, "notifications", 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, second)
	w.Process(ctx, second)

	assert.Equal(t, 2, calls)
	dead, err := q.Dead(ctx, "notifications", 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "nope", dead[0].LastError)
}
