package jobx

import "time"

type Options struct {
	Queue           string
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	MaxAttempts     int
	ShutdownTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		Queue:           "default",
		Concurrency:     2,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		RetryDelay:      30 * time.Second,
		MaxAttempts:     5,
		ShutdownTimeout: 15 * time.Second,
	}
}

type Option func(*Options)

func WithQueue(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Queue = name
		}
	}
}

func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets how often scheduled jobs are promoted and how long
// a worker backs off after a queue error.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

func WithDequeueTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.RetryDelay = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}
