// Package sqlite is a pure Go waitlist store for local development and tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/repository"
)

// waitlistRow mirrors the postgres waitlist table
type waitlistRow struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	Email          string     `gorm:"not null;uniqueIndex:waitlist_email_key"`
	ReferralCode   string     `gorm:"not null;uniqueIndex:waitlist_referral_code_key"`
	ReferredBy     *string
	MarketingOptIn bool       `gorm:"not null"`
	InvitedAt      *time.Time `gorm:"index"`
	CreatedAt      time.Time  `gorm:"not null;index"`
}

func (waitlistRow) TableName() string { return "waitlist" }

func (r waitlistRow) toDomain() domain.SignupRecord {
	return domain.SignupRecord{
		ID:             r.ID,
		Email:          r.Email,
		ReferralCode:   r.ReferralCode,
		ReferredBy:     r.ReferredBy,
		MarketingOptIn: r.MarketingOptIn,
		InvitedAt:      r.InvitedAt,
		CreatedAt:      r.CreatedAt,
	}
}

type waitlistRepository struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the waitlist table.
// ":memory:" gives a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// one connection keeps ":memory:" databases shared between queries
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&waitlistRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate waitlist table: %w", err)
	}
	return db, nil
}

func NewWaitlistRepository(db *gorm.DB) repository.WaitlistRepository {
	return &waitlistRepository{db: db}
}

func isReferralCodeConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "referral_code")
}

func (r *waitlistRepository) InsertIfAbsent(ctx context.Context, rec *domain.SignupRecord) (*domain.SignupRecord, bool, error) {
	row := waitlistRow{
		Email:          rec.Email,
		ReferralCode:   rec.ReferralCode,
		ReferredBy:     rec.ReferredBy,
		MarketingOptIn: rec.MarketingOptIn,
		CreatedAt:      rec.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	logger.DatabaseCall("INSERT", "waitlist", "email_domain", logger.EmailDomain(rec.Email))
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		if isReferralCodeConflict(res.Error) {
			logger.DatabaseResult("INSERT", 0, nil, "conflict", "referral_code")
			return nil, false, repository.ErrDuplicateReferralCode
		}
		logger.DatabaseResult("INSERT", 0, res.Error)
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		logger.DatabaseResult("INSERT", 0, nil, "conflict", "email")
		return nil, false, nil
	}

	logger.DatabaseResult("INSERT", res.RowsAffected, nil)
	stored := row.toDomain()
	return &stored, true, nil
}

func (r *waitlistRepository) GetByEmail(ctx context.Context, email string) (*domain.SignupRecord, error) {
	var row waitlistRow
	logger.DatabaseCall("SELECT", "waitlist", "email_domain", logger.EmailDomain(email))
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.DatabaseResult("SELECT", 0, nil)
		return nil, repository.ErrNotFound
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	logger.DatabaseResult("SELECT", 1, nil)
	rec := row.toDomain()
	return &rec, nil
}

// CountEstimated is exact here; sqlite has no cheap estimate.
func (r *waitlistRepository) CountEstimated(ctx context.Context) (int64, error) {
	var count int64
	logger.DatabaseCall("SELECT", "waitlist", "purpose", "count")
	if err := r.db.WithContext(ctx).Model(&waitlistRow{}).Count(&count).Error; err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return 0, err
	}
	logger.DatabaseResult("SELECT", 1, nil, "count", count)
	return count, nil
}

func (r *waitlistRepository) ListUninvited(ctx context.Context, limit int) ([]domain.SignupRecord, error) {
	var rows []waitlistRow
	logger.DatabaseCall("SELECT", "waitlist", "limit", limit)
	err := r.db.WithContext(ctx).
		Where("invited_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(rows)), nil)

	records := make([]domain.SignupRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

func (r *waitlistRepository) MarkInvited(ctx context.Context, email string, at time.Time) error {
	logger.DatabaseCall("UPDATE", "waitlist", "email_domain", logger.EmailDomain(email))
	res := r.db.WithContext(ctx).
		Model(&waitlistRow{}).
		Where("email = ? AND invited_at IS NULL", email).
		Update("invited_at", at.UTC())
	logger.DatabaseResult("UPDATE", res.RowsAffected, res.Error)
	return res.Error
}

func (r *waitlistRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
