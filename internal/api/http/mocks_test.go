package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vesta-waitlist-backend/internal/domain"
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

type MockReleaseSource struct {
	mock.Mock
}

func (m *MockReleaseSource) Latest(ctx context.Context) (*domain.ReleaseManifest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReleaseManifest), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
