// Package asyncx runs background work that must not fail or block the
// request that started it.
package asyncx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/propcore/pkg/logx"
)

// Group runs fire-and-forget tasks and lets shutdown wait for them.
// A panicking task is logged and does not crash the process.
type Group struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewGroup bounds every task by timeout. Zero means no bound.
func NewGroup(timeout time.Duration) *Group {
	return &Group{timeout: timeout}
}

// Go runs fn on a context detached from the caller's cancellation.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logx.WithFields(logx.Fields{"task": name, "panic": fmt.Sprint(r)}).Error("asyncx: task panicked")
			}
		}()

		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		if err := fn(ctx); err != nil {
			logx.WithField("task", name).WithError(err).Warn("asyncx: task failed")
		}
	}()
}

// Wait blocks until every task finished or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry calls fn up to attempts times, doubling the delay from base after
// each failure. It returns the last error.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
		delay *= 2
	}
	return err
}

// All runs every fn concurrently and joins their errors.
func All(ctx context.Context, fns ...func(ctx context.Context) error) error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func(context.Context) error) {
			defer wg.Done()
			errs[i] = fn(ctx)
		}(i, fn)
	}
	wg.Wait()
	return errors.Join(errs...)
}
