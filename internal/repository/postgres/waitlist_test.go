package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/repository"
)

var recordColumns = []string{"id", "email", "referral_code", "referred_by", "marketing_opt_in", "invited_at", "created_at"}

func newMockRepo(t *testing.T) (repository.WaitlistRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWaitlistRepository(db), mock
}

func TestWaitlistRepository_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Created", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		ref := "c1abcd"
		rec := &domain.SignupRecord{Email: "b@x.com", ReferralCode: "c2wxyz", ReferredBy: &ref, MarketingOptIn: true, CreatedAt: now}

		mock.ExpectQuery("INSERT INTO waitlist (.+) ON CONFLICT \\(email\\) DO NOTHING RETURNING").
			WithArgs("b@x.com", "c2wxyz", sql.NullString{String: ref, Valid: true}, true, now).
			WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(7, "b@x.com", "c2wxyz", ref, true, nil, now))

		stored, created, err := repo.InsertIfAbsent(ctx, rec)
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, stored)
		assert.Equal(t, int64(7), stored.ID)
		require.NotNil(t, stored.ReferredBy)
		assert.Equal(t, "c1abcd", *stored.ReferredBy)
		assert.Nil(t, stored.InvitedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmailExists", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO waitlist").
			WillReturnRows(sqlmock.NewRows(recordColumns))

		stored, created, err := repo.InsertIfAbsent(ctx, &domain.SignupRecord{Email: "a@x.com", ReferralCode: "zzzzzz", CreatedAt: now})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Nil(t, stored)
	})

	t.Run("ReferralCodeTaken", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO waitlist").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "waitlist_referral_code_key"})

		_, created, err := repo.InsertIfAbsent(ctx, &domain.SignupRecord{Email: "c@x.com", ReferralCode: "c1abcd", CreatedAt: now})
		assert.ErrorIs(t, err, repository.ErrDuplicateReferralCode)
		assert.False(t, created)
	})

	t.Run("EmailUniqueViolation", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO waitlist").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "waitlist_email_key"})

		stored, created, err := repo.InsertIfAbsent(ctx, &domain.SignupRecord{Email: "a@x.com", ReferralCode: "qqqqqq", CreatedAt: now})
		assert.NoError(t, err)
		assert.False(t, created)
		assert.Nil(t, stored)
	})

	t.Run("OtherError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO waitlist").WillReturnError(assert.AnError)

		_, _, err := repo.InsertIfAbsent(ctx, &domain.SignupRecord{Email: "d@x.com", ReferralCode: "dddddd", CreatedAt: now})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestWaitlistRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM waitlist WHERE email = \\$1").
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(1, "a@x.com", "c1abcd", nil, true, now, now))

		rec, err := repo.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "c1abcd", rec.ReferralCode)
		assert.Nil(t, rec.ReferredBy)
		assert.True(t, rec.Invited())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM waitlist WHERE email = \\$1").
			WithArgs("nobody@x.com").
			WillReturnRows(sqlmock.NewRows(recordColumns))

		rec, err := repo.GetByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, rec)
	})
}

func TestWaitlistRepository_CountEstimated(t *testing.T) {
	ctx := context.Background()

	t.Run("Estimate", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT reltuples FROM pg_class").
			WillReturnRows(sqlmock.NewRows([]string{"reltuples"}).AddRow(float64(1234)))

		n, err := repo.CountEstimated(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1234), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NeverAnalyzedFallsBackToCount", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT reltuples FROM pg_class").
			WillReturnRows(sqlmock.NewRows([]string{"reltuples"}).AddRow(float64(-1)))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM waitlist").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		n, err := repo.CountEstimated(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWaitlistRepository_ListUninvited(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM waitlist\\s+WHERE invited_at IS NULL\\s+ORDER BY created_at ASC, id ASC\\s+LIMIT \\$1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(1, "a@x.com", "aaaaaa", nil, true, nil, t1).
			AddRow(2, "b@x.com", "bbbbbb", "aaaaaa", true, nil, t2))

	recs, err := repo.ListUninvited(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a@x.com", recs[0].Email)
	assert.Equal(t, "b@x.com", recs[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepository_MarkInvited(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE waitlist SET invited_at = \\$1 WHERE email = \\$2 AND invited_at IS NULL").
		WithArgs(at, "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkInvited(context.Background(), "a@x.com", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
