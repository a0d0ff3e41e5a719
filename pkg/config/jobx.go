package config

import "time"

// JobxConfig configures the background job worker.
type JobxConfig struct {
	Queue           string
	Concurrency     int
	DequeueTimeout  time.Duration
	PollInterval    time.Duration
	RetryDelay      time.Duration
	MaxAttempts     int
	ShutdownTimeout time.Duration
}

func loadJobxConfig() JobxConfig {
	return JobxConfig{
		Queue:           getEnv("JOBX_QUEUE", "notifications"),
		Concurrency:     getEnvInt("JOBX_CONCURRENCY", 2),
		DequeueTimeout:  getEnvDuration("JOBX_DEQUEUE_TIMEOUT", 5*time.Second),
		PollInterval:    getEnvDuration("JOBX_POLL_INTERVAL", time.Second),
		RetryDelay:      getEnvDuration("JOBX_RETRY_DELAY", 30*time.Second),
		MaxAttempts:     getEnvInt("JOBX_MAX_ATTEMPTS", 5),
		ShutdownTimeout: getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}
