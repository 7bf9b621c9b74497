package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/jobs"
	"vesta-waitlist-backend/internal/service"
)

type stubWaitlist struct {
	mock.Mock
}

func (m *stubWaitlist) JoinWaitlist(ctx context.Context, email, captchaToken, referredBy string) (*domain.SignupResult, error) {
	args := m.Called(ctx, email, captchaToken, referredBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignupResult), args.Error(1)
}

func (m *stubWaitlist) SendWaveInvitations(ctx context.Context, limit int, waveName string) (*domain.WaveReport, error) {
	args := m.Called(ctx, limit, waveName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaveReport), args.Error(1)
}

func TestRunJobOnce(t *testing.T) {
	t.Run("Email Not Configured Fails", func(t *testing.T) {
		svc := new(stubWaitlist)
		svc.On("SendWaveInvitations", mock.Anything, 0, "").Return(nil, service.ErrEmailNotConfigured)

		assert.False(t, runJobOnce(jobs.NewJobRunner(svc, &config.Config{}), "send-wave-invitations", 0, ""))
	})

	t.Run("Partial Failures Still Succeed", func(t *testing.T) {
		svc := new(stubWaitlist)
		svc.On("SendWaveInvitations", mock.Anything, 5, "Wave 3").Return(&domain.WaveReport{
			Wave: "Wave 3", Count: 2, Sent: 1, Failed: 1,
			Results: []domain.InvitationOutcome{
				{Email: "a@x.com", Status: domain.InvitationStatusSent},
				{Email: "b@x.com", Status: domain.InvitationStatusFailed, Error: "bounced"},
			},
		}, nil)

		assert.True(t, runJobOnce(jobs.NewJobRunner(svc, &config.Config{}), "send-wave-invitations", 5, "Wave 3"))
	})

	t.Run("Unknown Job", func(t *testing.T) {
		assert.False(t, runJobOnce(jobs.NewJobRunner(new(stubWaitlist), &config.Config{}), "rebuild-index", 0, ""))
	})
}
