package jobs

import (
	"context"
	"errors"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/service"
)

// SendWaveInvitations runs one invitation batch with the configured defaults
func (jr *JobRunner) SendWaveInvitations() {
	_, _ = jr.SendWaveInvitationsWith(0, "")
}

// SendWaveInvitationsWith runs one invitation batch. limit <= 0 and an empty wave
// fall back to the configured defaults. Per-record failures stay in the report;
// the error is set only when the batch could not run at all.
func (jr *JobRunner) SendWaveInvitationsWith(limit int, wave string) (*domain.WaveReport, error) {
	var report *domain.WaveReport
	var jobErr error
	jr.runWithRecovery("SendWaveInvitations", func(ctx context.Context) {
		report, jobErr = jr.waitlist.SendWaveInvitations(ctx, limit, wave)
		if errors.Is(jobErr, service.ErrEmailNotConfigured) {
			logger.Error("Wave invitations skipped, email is not configured")
			return
		}
		if jobErr != nil {
			logger.Error("Failed to send wave invitations", "error", jobErr)
			return
		}

		if report.Count == 0 {
			logger.Info("No pending users to invite", "wave", report.Wave)
			return
		}
		for _, r := range report.Results {
			if r.Status == domain.InvitationStatusFailed {
				logger.Warn("Invitation failed", "email_domain", logger.EmailDomain(r.Email), "error", r.Error)
			}
		}
		logger.Info("Wave invitations sent", "wave", report.Wave, "sent", report.Sent, "failed", report.Failed)
	})
	if jobErr == nil && report == nil {
		jobErr = errJobAborted
	}
	return report, jobErr
}
