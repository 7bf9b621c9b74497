package jobs

import (
	"context"
	"errors"
	"time"

	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/service"
)

// errJobAborted is returned when a job panicked before producing a result
var errJobAborted = errors.New("job aborted")

// JobRunner coordinates scheduled and one-off jobs
type JobRunner struct {
	waitlist service.WaitlistService
	config   *config.Config
	timeout  time.Duration
}

func NewJobRunner(waitlist service.WaitlistService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		waitlist: waitlist,
		config:   cfg,
		timeout:  30 * time.Minute,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName, "duration_ms", time.Since(start).Milliseconds())
}
