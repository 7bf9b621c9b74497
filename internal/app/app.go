// Package app builds the waitlist components shared by the server and cronjob binaries.
package app

import (
	"context"
	"fmt"

	"vesta-waitlist-backend/internal/captcha"
	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/referral"
	"vesta-waitlist-backend/internal/repository"
	"vesta-waitlist-backend/internal/repository/postgres"
	"vesta-waitlist-backend/internal/repository/sqlite"
	"vesta-waitlist-backend/internal/service"
)

type App struct {
	Config   *config.Config
	Repo     repository.WaitlistRepository
	Email    service.EmailService
	Waitlist service.WaitlistService

	closeFn func() error
}

// New opens the configured store and builds the services on top of it
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, closeFn, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	emailSvc := service.NewEmailService(cfg.Email.APIKey, service.EmailSettings{
		FromName:    cfg.Email.FromName,
		WelcomeFrom: cfg.Email.WelcomeFrom,
		InviteFrom:  cfg.Email.InviteFrom,
		SiteBaseURL: cfg.Site.BaseURL,
		Timeout:     cfg.EmailTimeout(),
	})
	if !emailSvc.Enabled() {
		logger.Warn("SendGrid API key not set, email delivery is disabled")
	}

	waitlistSvc := service.NewWaitlistService(repo, newVerifier(cfg), referral.NewGenerator(cfg.Referral.CodeLength), emailSvc, service.WaitlistSettings{
		SiteBaseURL:     cfg.Site.BaseURL,
		MaxCodeAttempts: cfg.Referral.MaxAttempts,
		DefaultLimit:    cfg.Invitations.DefaultLimit,
		MaxLimit:        cfg.Invitations.MaxLimit,
		DefaultWave:     cfg.Invitations.DefaultWave,
		Concurrency:     cfg.Invitations.Concurrency,
	})

	return &App{
		Config:   cfg,
		Repo:     repo,
		Email:    emailSvc,
		Waitlist: waitlistSvc,
		closeFn:  closeFn,
	}, nil
}

func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

func newVerifier(cfg *config.Config) captcha.Verifier {
	if cfg.Captcha.Disabled {
		logger.Warn("Captcha verification is disabled, every non-empty token is accepted")
		return captcha.Static(true)
	}
	return captcha.NewHCaptcha(cfg.Captcha.VerifyURL, cfg.Captcha.Secret, cfg.Captcha.SiteKey, cfg.CaptchaTimeout())
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.WaitlistRepository, func() error, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		logger.Info("Opening sqlite database", "path", cfg.Database.SQLitePath)
		db, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewWaitlistRepository(db), sqlDB.Close, nil

	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		logger.Info("Database connection established")
		store := postgres.NewStore(db)
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
}
