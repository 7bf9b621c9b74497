package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"vesta-waitlist-backend/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	welcomeSubject      = "Welcome to the Vesta Waitlist!"
	waveSubjectFormat   = "You're Invited! Vesta Alpha - %s"
	fallbackAccessToken = "ALPHA-VESTA"
	welcomeTemplate     = "welcome.html"
	invitationTemplate  = "wave_invitation.html"
	defaultEmailTimeout = 10 * time.Second
)

// MailClient is the part of the SendGrid client used for delivery
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailSettings holds sender identities and site links used in message bodies
type EmailSettings struct {
	FromName    string
	WelcomeFrom string
	InviteFrom  string
	SiteBaseURL string
	Timeout     time.Duration
}

type emailService struct {
	client   MailClient
	settings EmailSettings
}

// NewEmailService returns a SendGrid backed EmailService. An empty apiKey gives a
// disabled service whose sends fail with ErrEmailNotConfigured.
func NewEmailService(apiKey string, settings EmailSettings) EmailService {
	if apiKey == "" {
		return NewEmailServiceWithClient(nil, settings)
	}
	return NewEmailServiceWithClient(sendgrid.NewSendClient(apiKey), settings)
}

func NewEmailServiceWithClient(client MailClient, settings EmailSettings) EmailService {
	if settings.Timeout <= 0 {
		settings.Timeout = defaultEmailTimeout
	}
	settings.SiteBaseURL = strings.TrimRight(settings.SiteBaseURL, "/")
	return &emailService{client: client, settings: settings}
}

func (s *emailService) Enabled() bool {
	return s.client != nil
}

func (s *emailService) SendWelcome(ctx context.Context, to, referralCode, referralURL string) error {
	html, err := render(welcomeTemplate, struct {
		ReferralCode string
		ReferralURL  string
	}{referralCode, referralURL})
	if err != nil {
		return err
	}

	plain := fmt.Sprintf("You're on the list!\n\nWe're excited to have you as one of our earliest testers.\n\nYour referral link:\n%s\n\nHelp us grow! Share this link and when we launch, you'll get early access.", referralURL)
	return s.send(ctx, s.settings.WelcomeFrom, to, welcomeSubject, plain, html)
}

func (s *emailService) SendWaveInvitation(ctx context.Context, to, referralCode, waveName string) error {
	token := AccessToken(referralCode)
	downloadURL := s.settings.SiteBaseURL + "/download"

	html, err := render(invitationTemplate, struct {
		WaveName    string
		AccessToken string
		DownloadURL string
	}{waveName, token, downloadURL})
	if err != nil {
		return err
	}

	plain := fmt.Sprintf("Vesta Alpha - %s Access\n\nThe wait is over. You've been selected for our first wave of alpha testers.\n\nYour Early Access Token: %s\n\nTo get started, download the launcher from %s and enter your token during the first-time setup.", waveName, token, downloadURL)
	return s.send(ctx, s.settings.InviteFrom, to, fmt.Sprintf(waveSubjectFormat, waveName), plain, html)
}

func (s *emailService) send(ctx context.Context, fromAddr, to, subject, plain, html string) error {
	if s.client == nil {
		return ErrEmailNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	from := mail.NewEmail(s.settings.FromName, fromAddr)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, plain, html)

	logger.ExternalServiceCall("sendgrid", "send", "subject", subject, "to_domain", logger.EmailDomain(to))
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		err = fmt.Errorf("failed to send email: %w", err)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}

	logger.ExternalServiceResult("sendgrid", "send", nil, "status", response.StatusCode)
	return nil
}

// AccessToken is the early access token printed in a wave invitation
func AccessToken(referralCode string) string {
	if referralCode == "" {
		return fallbackAccessToken
	}
	return strings.ToUpper(referralCode)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
