package jobs

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/service"
)

type MockWaitlistService struct {
	mock.Mock
}

func (m *MockWaitlistService) JoinWaitlist(ctx context.Context, email, captchaToken, referredBy string) (*domain.SignupResult, error) {
	args := m.Called(ctx, email, captchaToken, referredBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignupResult), args.Error(1)
}

func (m *MockWaitlistService) SendWaveInvitations(ctx context.Context, limit int, waveName string) (*domain.WaveReport, error) {
	args := m.Called(ctx, limit, waveName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaveReport), args.Error(1)
}

func TestJobRunner_SendWaveInvitations(t *testing.T) {
	t.Run("Sends Batch", func(t *testing.T) {
		svc := new(MockWaitlistService)
		svc.On("SendWaveInvitations", mock.Anything, 0, "").Return(&domain.WaveReport{
			Wave: "Wave 1", Count: 2, Sent: 1, Failed: 1,
			Results: []domain.InvitationOutcome{
				{Email: "a@x.com", Status: domain.InvitationStatusSent},
				{Email: "b@x.com", Status: domain.InvitationStatusFailed, Error: "boom"},
			},
		}, nil)

		jr := NewJobRunner(svc, &config.Config{})
		jr.SendWaveInvitations()
		svc.AssertExpectations(t)
	})

	t.Run("Explicit Limit And Wave", func(t *testing.T) {
		svc := new(MockWaitlistService)
		svc.On("SendWaveInvitations", mock.Anything, 50, "Wave 2").Return(&domain.WaveReport{Wave: "Wave 2", Message: "No pending users", Results: []domain.InvitationOutcome{}}, nil)

		report, err := NewJobRunner(svc, &config.Config{}).SendWaveInvitationsWith(50, "Wave 2")
		assert.NoError(t, err)
		if assert.NotNil(t, report) {
			assert.Equal(t, "No pending users", report.Message)
		}
	})

	t.Run("Email Not Configured", func(t *testing.T) {
		svc := new(MockWaitlistService)
		svc.On("SendWaveInvitations", mock.Anything, 0, "").Return(nil, service.ErrEmailNotConfigured)

		report, err := NewJobRunner(svc, &config.Config{}).SendWaveInvitationsWith(0, "")
		assert.Nil(t, report)
		assert.ErrorIs(t, err, service.ErrEmailNotConfigured)
	})

	t.Run("Database Error Is Returned", func(t *testing.T) {
		svc := new(MockWaitlistService)
		svc.On("SendWaveInvitations", mock.Anything, 0, "").Return(nil, fmt.Errorf("%w: list uninvited: connection refused", service.ErrDatabase))

		report, err := NewJobRunner(svc, &config.Config{}).SendWaveInvitationsWith(0, "")
		assert.Nil(t, report)
		assert.ErrorIs(t, err, service.ErrDatabase)
	})

	t.Run("Panic Is Recovered", func(t *testing.T) {
		svc := new(MockWaitlistService)
		svc.On("SendWaveInvitations", mock.Anything, 0, "").Run(func(mock.Arguments) {
			panic("boom")
		}).Return(nil, nil)

		assert.NotPanics(t, func() {
			NewJobRunner(svc, &config.Config{}).SendWaveInvitations()
		})

		_, err := NewJobRunner(svc, &config.Config{}).SendWaveInvitationsWith(0, "")
		assert.ErrorIs(t, err, errJobAborted)
	})
}
