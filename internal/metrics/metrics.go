package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist join attempts by result",
		},
		[]string{"result"}, // created, existing, invalid_email, invalid_captcha, error
	)

	CaptchaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_captcha_rejections_total",
			Help: "Join attempts rejected by captcha verification",
		},
	)

	InvitationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_invitations_total",
			Help: "Wave invitations by outcome",
		},
		[]string{"status"},
	)

	WelcomeEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_welcome_emails_total",
			Help: "Welcome emails by outcome",
		},
		[]string{"status"}, // sent, failed, skipped
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
