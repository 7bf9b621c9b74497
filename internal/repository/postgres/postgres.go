package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
	repository.WaitlistRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                 db,
		WaitlistRepository: NewWaitlistRepository(db),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Open connects to PostgreSQL and verifies the connection
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the waitlist schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("MIGRATE", "waitlist")
	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.DatabaseResult("MIGRATE", 0, err)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.DatabaseResult("MIGRATE", 0, nil)
	return nil
}
