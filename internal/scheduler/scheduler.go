package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"vesta-waitlist-backend/internal/jobs"
	"vesta-waitlist-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers every job that has a schedule. Wave invitations are
// usually sent by hand, so an empty schedule leaves the job unregistered.
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	if cfg.SendWaveInvitations == "" {
		logger.Info("Wave invitation schedule is empty, job not registered")
		return
	}

	_, err := s.cron.AddFunc(cfg.SendWaveInvitations, s.jobs.SendWaveInvitations)
	if err != nil {
		logger.Error("Failed to register SendWaveInvitations job", "schedule", cfg.SendWaveInvitations, "error", err)
		return
	}
	logger.Info("Registered SendWaveInvitations job", "schedule", cfg.SendWaveInvitations)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// JobCount returns the number of registered jobs
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
