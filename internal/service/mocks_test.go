package service

import (
	"context"
	"sync"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"

	"vesta-waitlist-backend/internal/domain"
)

// MockWaitlistRepo
type MockWaitlistRepo struct {
	mock.Mock
}

func (m *MockWaitlistRepo) InsertIfAbsent(ctx context.Context, rec *domain.SignupRecord) (*domain.SignupRecord, bool, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.SignupRecord), args.Bool(1), args.Error(2)
}
func (m *MockWaitlistRepo) GetByEmail(ctx context.Context, email string) (*domain.SignupRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignupRecord), args.Error(1)
}
func (m *MockWaitlistRepo) CountEstimated(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockWaitlistRepo) ListUninvited(ctx context.Context, limit int) ([]domain.SignupRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SignupRecord), args.Error(1)
}
func (m *MockWaitlistRepo) MarkInvited(ctx context.Context, email string, at time.Time) error {
	args := m.Called(ctx, email, at)
	return args.Error(0)
}
func (m *MockWaitlistRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) bool {
	args := m.Called(ctx, token)
	return args.Bool(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
func (m *MockEmailService) SendWelcome(ctx context.Context, to, referralCode, referralURL string) error {
	args := m.Called(ctx, to, referralCode, referralURL)
	return args.Error(0)
}
func (m *MockEmailService) SendWaveInvitation(ctx context.Context, to, referralCode, waveName string) error {
	args := m.Called(ctx, to, referralCode, waveName)
	return args.Error(0)
}

// sequenceCodes hands out codes in order and treats any lowercase 6-char string as valid
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (s *sequenceCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

func (s *sequenceCodes) IsValid(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// fakeMailClient records every message handed to SendGrid
type fakeMailClient struct {
	mu      sync.Mutex
	sent    []*mail.SGMailV3
	status  int
	err     error
	failFor map[string]bool
}

func (f *fakeMailClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	to := email.Personalizations[0].To[0].Address
	if f.failFor[to] {
		return &rest.Response{StatusCode: 500, Body: "boom"}, nil
	}
	f.sent = append(f.sent, email)
	status := f.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

func (f *fakeMailClient) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.Personalizations[0].To[0].Address)
	}
	return out
}
