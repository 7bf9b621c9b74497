package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/repository"
)

const (
	uniqueViolation        = pq.ErrorCode("23505")
	emailConstraint        = "waitlist_email_key"
	referralCodeConstraint = "waitlist_referral_code_key"
	waitlistColumns        = `id, email, referral_code, referred_by, marketing_opt_in, invited_at, created_at`
)

type waitlistRepository struct {
	db *sql.DB
}

func NewWaitlistRepository(db *sql.DB) repository.WaitlistRepository {
	return &waitlistRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.SignupRecord, error) {
	var (
		rec        domain.SignupRecord
		referredBy sql.NullString
		invitedAt  sql.NullTime
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.ReferralCode, &referredBy, &rec.MarketingOptIn, &invitedAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if referredBy.Valid {
		v := referredBy.String
		rec.ReferredBy = &v
	}
	if invitedAt.Valid {
		t := invitedAt.Time
		rec.InvitedAt = &t
	}
	return &rec, nil
}

func (r *waitlistRepository) InsertIfAbsent(ctx context.Context, rec *domain.SignupRecord) (*domain.SignupRecord, bool, error) {
	query := `INSERT INTO waitlist (email, referral_code, referred_by, marketing_opt_in, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (email) DO NOTHING
	          RETURNING ` + waitlistColumns

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var referredBy sql.NullString
	if rec.ReferredBy != nil {
		referredBy = sql.NullString{String: *rec.ReferredBy, Valid: true}
	}

	logger.DatabaseCall("INSERT", "waitlist", "email_domain", logger.EmailDomain(rec.Email))
	stored, err := scanRecord(r.db.QueryRowContext(ctx, query, rec.Email, rec.ReferralCode, referredBy, rec.MarketingOptIn, createdAt))
	switch {
	case err == nil:
		logger.DatabaseResult("INSERT", 1, nil)
		return stored, true, nil
	case errors.Is(err, sql.ErrNoRows):
		// ON CONFLICT DO NOTHING returns no row when the email exists
		logger.DatabaseResult("INSERT", 0, nil, "conflict", "email")
		return nil, false, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case pqErr.Constraint == referralCodeConstraint || strings.Contains(pqErr.Constraint, "referral_code"):
			logger.DatabaseResult("INSERT", 0, nil, "conflict", "referral_code")
			return nil, false, repository.ErrDuplicateReferralCode
		case pqErr.Constraint == emailConstraint || strings.Contains(pqErr.Constraint, "email"):
			logger.DatabaseResult("INSERT", 0, nil, "conflict", "email")
			return nil, false, nil
		}
	}

	logger.DatabaseResult("INSERT", 0, err)
	return nil, false, err
}

func (r *waitlistRepository) GetByEmail(ctx context.Context, email string) (*domain.SignupRecord, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist WHERE email = $1`

	logger.DatabaseCall("SELECT", "waitlist", "email_domain", logger.EmailDomain(email))
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("SELECT", 0, nil)
		return nil, repository.ErrNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	logger.DatabaseResult("SELECT", 1, nil)
	return rec, nil
}

// CountEstimated reads the planner estimate, which is negative until the table has
// been analyzed; an exact count is used then.
func (r *waitlistRepository) CountEstimated(ctx context.Context) (int64, error) {
	var estimate float64
	logger.DatabaseCall("SELECT", "pg_class", "purpose", "estimated count")
	err := r.db.QueryRowContext(ctx, `SELECT reltuples FROM pg_class WHERE oid = 'waitlist'::regclass`).Scan(&estimate)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return 0, err
	}
	if estimate >= 0 {
		logger.DatabaseResult("SELECT", 1, nil, "estimate", estimate)
		return int64(estimate), nil
	}

	var count int64
	logger.DatabaseCall("SELECT", "waitlist", "purpose", "exact count")
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&count); err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return 0, err
	}
	logger.DatabaseResult("SELECT", 1, nil, "count", count)
	return count, nil
}

func (r *waitlistRepository) ListUninvited(ctx context.Context, limit int) ([]domain.SignupRecord, error) {
	logger.EnterMethod("waitlistRepository.ListUninvited", "limit", limit)

	query := `SELECT ` + waitlistColumns + `
	          FROM waitlist
	          WHERE invited_at IS NULL
	          ORDER BY created_at ASC, id ASC
	          LIMIT $1`
	logger.DatabaseCall("SELECT", "waitlist", "limit", limit)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		logger.ExitMethodWithError("waitlistRepository.ListUninvited", err)
		return nil, err
	}
	defer rows.Close()

	var records []domain.SignupRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logger.DatabaseResult("SELECT", int64(len(records)), err)
			logger.ExitMethodWithError("waitlistRepository.ListUninvited", err)
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		logger.DatabaseResult("SELECT", int64(len(records)), err)
		logger.ExitMethodWithError("waitlistRepository.ListUninvited", err)
		return nil, err
	}

	logger.DatabaseResult("SELECT", int64(len(records)), nil)
	logger.ExitMethod("waitlistRepository.ListUninvited", "count", len(records))
	return records, nil
}

func (r *waitlistRepository) MarkInvited(ctx context.Context, email string, at time.Time) error {
	query := `UPDATE waitlist SET invited_at = $1 WHERE email = $2 AND invited_at IS NULL`

	logger.DatabaseCall("UPDATE", "waitlist", "email_domain", logger.EmailDomain(email))
	res, err := r.db.ExecContext(ctx, query, at.UTC(), email)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	return nil
}

func (r *waitlistRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
