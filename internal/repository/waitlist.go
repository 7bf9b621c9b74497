package repository

import (
	"context"
	"errors"
	"time"

	"vesta-waitlist-backend/internal/domain"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateReferralCode = errors.New("referral code already taken")
)

// WaitlistRepository is the persisted waitlist table. Uniqueness of email and
// referral_code is enforced by the store, not by callers.
type WaitlistRepository interface {
	// InsertIfAbsent inserts rec unless its email already exists. created=false means
	// the email was already present; stored may then be nil and callers re-fetch.
	// A clash on referral_code returns ErrDuplicateReferralCode.
	InsertIfAbsent(ctx context.Context, rec *domain.SignupRecord) (stored *domain.SignupRecord, created bool, err error)
	GetByEmail(ctx context.Context, email string) (*domain.SignupRecord, error)
	// CountEstimated may return an approximation of the row count.
	CountEstimated(ctx context.Context) (int64, error)
	// ListUninvited returns up to limit rows with invited_at null, oldest first.
	ListUninvited(ctx context.Context, limit int) ([]domain.SignupRecord, error)
	// MarkInvited sets invited_at for email if it is still null.
	MarkInvited(ctx context.Context, email string, at time.Time) error
	Ping(ctx context.Context) error
}
