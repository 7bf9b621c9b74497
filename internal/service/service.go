package service

import (
	"context"

	"vesta-waitlist-backend/internal/domain"
)

type WaitlistService interface {
	// JoinWaitlist registers email (idempotently) and returns its referral code and the
	// rounded signup count. Errors: ErrInvalidEmail, ErrInvalidCaptcha, ErrDatabase.
	JoinWaitlist(ctx context.Context, email, captchaToken, referredBy string) (*domain.SignupResult, error)
	// SendWaveInvitations invites up to limit uninvited records, oldest first.
	SendWaveInvitations(ctx context.Context, limit int, waveName string) (*domain.WaveReport, error)
}

type EmailService interface {
	Enabled() bool
	SendWelcome(ctx context.Context, to, referralCode, referralURL string) error
	SendWaveInvitation(ctx context.Context, to, referralCode, waveName string) error
}
