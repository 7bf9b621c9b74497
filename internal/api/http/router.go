package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/security"
	"vesta-waitlist-backend/internal/service"
)

// ReleaseSource provides the current launcher release manifest
type ReleaseSource interface {
	Latest(ctx context.Context) (*domain.ReleaseManifest, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	AdminPasswordHash  string
	RateLimitPerMinute int
	RateLimitBurst     int
	TrustedProxies     []string
}

type Handler struct {
	waitlist service.WaitlistService
	releases ReleaseSource
	tokens   security.TokenManager
	db       Pinger
	opts     Options
	ips      *ipResolver
}

func NewHandler(waitlist service.WaitlistService, releases ReleaseSource, tokens security.TokenManager, db Pinger, opts Options) *Handler {
	return &Handler{
		waitlist: waitlist,
		releases: releases,
		tokens:   tokens,
		db:       db,
		opts:     opts,
		ips:      newIPResolver(opts.TrustedProxies),
	}
}

// NewRouter wires every public and admin route. Route names key the security
// levels in config.RouteSecurityConfig.
func NewRouter(h *Handler) *mux.Router {
	limiter := newIPRateLimiter(h.opts.RateLimitPerMinute, h.opts.RateLimitBurst, h.ips.clientIP)

	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, authMiddleware(h.tokens))

	r.Handle("/api/v1/waitlist", limiter.middleware(http.HandlerFunc(h.JoinWaitlist))).
		Methods(http.MethodPost).Name("JoinWaitlist")
	r.Handle("/api/v1/admin/login", limiter.middleware(http.HandlerFunc(h.AdminLogin))).
		Methods(http.MethodPost).Name("AdminLogin")
	r.HandleFunc("/api/v1/admin/waves", h.SendWaveInvitations).
		Methods(http.MethodPost).Name("SendWaveInvitations")

	r.HandleFunc("/api/releases/latest.json", h.LatestRelease).
		Methods(http.MethodGet).Name("LatestRelease")
	r.HandleFunc("/download", h.Download).
		Methods(http.MethodGet).Name("Download")

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("Health")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("Metrics")

	return r
}
