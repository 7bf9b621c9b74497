package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vesta-waitlist-backend/internal/captcha"
	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/metrics"
	"vesta-waitlist-backend/internal/repository"
)

var (
	ErrInvalidCaptcha     = errors.New("invalid captcha")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDatabase           = errors.New("database error")
	ErrEmailNotConfigured = errors.New("email service is not configured")
)

const (
	noPendingMessage   = "No pending users"
	markInvitedTimeout = 10 * time.Second
)

// CodeGenerator produces referral codes
type CodeGenerator interface {
	Generate() (string, error)
	IsValid(code string) bool
}

// WaitlistSettings carries the tunables of the waitlist service
type WaitlistSettings struct {
	SiteBaseURL     string
	MaxCodeAttempts int
	DefaultLimit    int
	MaxLimit        int
	DefaultWave     string
	Concurrency     int
	Now             func() time.Time
}

func (s *WaitlistSettings) applyDefaults() {
	s.SiteBaseURL = strings.TrimRight(s.SiteBaseURL, "/")
	if s.MaxCodeAttempts <= 0 {
		s.MaxCodeAttempts = 5
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 500
	}
	if s.DefaultWave == "" {
		s.DefaultWave = "Wave 1"
	}
	if s.Concurrency <= 0 {
		s.Concurrency = 1
	}
	if s.Now == nil {
		s.Now = func() time.Time { return time.Now().UTC() }
	}
}

type waitlistService struct {
	repo     repository.WaitlistRepository
	captcha  captcha.Verifier
	codes    CodeGenerator
	email    EmailService
	settings WaitlistSettings
}

func NewWaitlistService(repo repository.WaitlistRepository, verifier captcha.Verifier, codes CodeGenerator, email EmailService, settings WaitlistSettings) WaitlistService {
	settings.applyDefaults()
	return &waitlistService{
		repo:     repo,
		captcha:  verifier,
		codes:    codes,
		email:    email,
		settings: settings,
	}
}

// NormalizeEmail trims and lowercases an address and rejects anything that is not a
// single bare address.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// ReferralURL is the shareable link for a referral code
func ReferralURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/?ref=" + code
}

func (s *waitlistService) JoinWaitlist(ctx context.Context, email, captchaToken, referredBy string) (*domain.SignupResult, error) {
	logger.EnterMethod("waitlistService.JoinWaitlist", "email_domain", logger.EmailDomain(email))

	normalized, err := NormalizeEmail(email)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("invalid_email").Inc()
		logger.ExitMethodWithRejection("waitlistService.JoinWaitlist", err)
		return nil, err
	}

	if strings.TrimSpace(captchaToken) == "" || !s.captcha.Verify(ctx, captchaToken) {
		metrics.SignupsTotal.WithLabelValues("invalid_captcha").Inc()
		metrics.CaptchaRejectionsTotal.Inc()
		logger.WarnContext(ctx, "Captcha verification failed", "email_domain", logger.EmailDomain(normalized))
		logger.ExitMethodWithRejection("waitlistService.JoinWaitlist", ErrInvalidCaptcha)
		return nil, ErrInvalidCaptcha
	}

	rec, created, err := s.store(ctx, normalized, s.sanitizeReferral(referredBy))
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		logger.ErrorContext(ctx, "Failed to store signup", "error", err)
		logger.ExitMethodWithError("waitlistService.JoinWaitlist", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	count, err := s.repo.CountEstimated(ctx)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		logger.ErrorContext(ctx, "Failed to count signups", "error", err)
		logger.ExitMethodWithError("waitlistService.JoinWaitlist", err)
		return nil, fmt.Errorf("%w: count signups: %v", ErrDatabase, err)
	}

	if created {
		metrics.SignupsTotal.WithLabelValues("created").Inc()
	} else {
		metrics.SignupsTotal.WithLabelValues("existing").Inc()
	}

	s.sendWelcome(ctx, rec)

	result := &domain.SignupResult{
		Success:      true,
		ReferralCode: rec.ReferralCode,
		TotalSignups: RoundSignupCount(count),
		Created:      created,
	}
	logger.ExitMethod("waitlistService.JoinWaitlist", "created", created)
	return result, nil
}

// store inserts a new record or returns the existing one for email. A referral code
// clash is retried with a fresh code.
func (s *waitlistService) store(ctx context.Context, email string, referredBy *string) (*domain.SignupRecord, bool, error) {
	for attempt := 1; attempt <= s.settings.MaxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, false, err
		}

		stored, created, err := s.repo.InsertIfAbsent(ctx, &domain.SignupRecord{
			Email:          email,
			ReferralCode:   code,
			ReferredBy:     referredBy,
			MarketingOptIn: true,
			CreatedAt:      s.settings.Now(),
		})
		if errors.Is(err, repository.ErrDuplicateReferralCode) {
			logger.WarnContext(ctx, "Referral code collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("insert signup: %w", err)
		}
		if created && stored != nil {
			return stored, true, nil
		}

		// the email is already on the list; its stored code wins over the generated one
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("re-fetch existing signup: %w", err)
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("no unique referral code after %d attempts", s.settings.MaxCodeAttempts)
}

func (s *waitlistService) sanitizeReferral(referredBy string) *string {
	code := strings.ToLower(strings.TrimSpace(referredBy))
	if code == "" || !s.codes.IsValid(code) {
		return nil
	}
	return &code
}

func (s *waitlistService) sendWelcome(ctx context.Context, rec *domain.SignupRecord) {
	if s.email == nil || !s.email.Enabled() {
		metrics.WelcomeEmailsTotal.WithLabelValues("skipped").Inc()
		return
	}
	url := ReferralURL(s.settings.SiteBaseURL, rec.ReferralCode)
	if err := s.email.SendWelcome(ctx, rec.Email, rec.ReferralCode, url); err != nil {
		metrics.WelcomeEmailsTotal.WithLabelValues("failed").Inc()
		logger.WarnContext(ctx, "Failed to send welcome email", "email_domain", logger.EmailDomain(rec.Email), "error", err)
		return
	}
	metrics.WelcomeEmailsTotal.WithLabelValues("sent").Inc()
}

func (s *waitlistService) SendWaveInvitations(ctx context.Context, limit int, waveName string) (*domain.WaveReport, error) {
	logger.EnterMethod("waitlistService.SendWaveInvitations", "limit", limit, "wave", waveName)

	if s.email == nil || !s.email.Enabled() {
		logger.ExitMethodWithError("waitlistService.SendWaveInvitations", ErrEmailNotConfigured)
		return nil, ErrEmailNotConfigured
	}
	if limit <= 0 {
		limit = s.settings.DefaultLimit
	}
	if limit > s.settings.MaxLimit {
		limit = s.settings.MaxLimit
	}
	if strings.TrimSpace(waveName) == "" {
		waveName = s.settings.DefaultWave
	}

	records, err := s.repo.ListUninvited(ctx, limit)
	if err != nil {
		logger.ExitMethodWithError("waitlistService.SendWaveInvitations", err)
		return nil, fmt.Errorf("%w: list uninvited: %v", ErrDatabase, err)
	}

	report := &domain.WaveReport{Wave: waveName, Results: []domain.InvitationOutcome{}}
	if len(records) == 0 {
		report.Message = noPendingMessage
		logger.ExitMethod("waitlistService.SendWaveInvitations", "count", 0)
		return report, nil
	}

	results := make([]domain.InvitationOutcome, len(records))
	var g errgroup.Group
	g.SetLimit(s.settings.Concurrency)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			results[i] = s.invite(ctx, rec, waveName)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Status == domain.InvitationStatusSent {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	report.Count = len(results)
	report.Results = results

	logger.InfoContext(ctx, "Wave invitations processed", "wave", waveName, "count", report.Count, "sent", report.Sent, "failed", report.Failed)
	logger.ExitMethod("waitlistService.SendWaveInvitations", "count", report.Count)
	return report, nil
}

// invite sends one invitation and records it. A record whose mark fails after a
// successful send is reported failed and stays eligible for the next batch.
func (s *waitlistService) invite(ctx context.Context, rec domain.SignupRecord, waveName string) domain.InvitationOutcome {
	outcome := domain.InvitationOutcome{Email: rec.Email, Status: domain.InvitationStatusFailed}

	if err := s.email.SendWaveInvitation(ctx, rec.Email, rec.ReferralCode, waveName); err != nil {
		logger.WarnContext(ctx, "Failed to send wave invitation", "email_domain", logger.EmailDomain(rec.Email), "error", err)
		outcome.Error = err.Error()
		metrics.InvitationsTotal.WithLabelValues(string(outcome.Status)).Inc()
		return outcome
	}

	// the mail is already out; a caller going away must not lose the mark
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markInvitedTimeout)
	defer cancel()
	if err := s.repo.MarkInvited(markCtx, rec.Email, s.settings.Now()); err != nil {
		logger.ErrorContext(ctx, "Invitation sent but not recorded", "email_domain", logger.EmailDomain(rec.Email), "error", err)
		outcome.Error = fmt.Sprintf("mark invited: %v", err)
		metrics.InvitationsTotal.WithLabelValues(string(outcome.Status)).Inc()
		return outcome
	}

	outcome.Status = domain.InvitationStatusSent
	metrics.InvitationsTotal.WithLabelValues(string(outcome.Status)).Inc()
	return outcome
}
