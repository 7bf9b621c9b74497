package http

import (
	"errors"
	"net/http"

	"vesta-waitlist-backend/internal/captcha"
	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/service"
)

type joinRequest struct {
	Email        string `json:"email"`
	CaptchaToken string `json:"captcha_token"`
	ReferredBy   string `json:"referred_by"`
}

// JoinWaitlist handles POST /api/v1/waitlist. The body always carries "success".
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.SignupResult{Error: "Invalid request"})
		return
	}

	ctx := captcha.WithRemoteIP(r.Context(), h.ips.clientIP(r))
	res, err := h.waitlist.JoinWaitlist(ctx, req.Email, req.CaptchaToken, req.ReferredBy)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, service.ErrInvalidCaptcha):
		writeJSON(w, http.StatusBadRequest, domain.SignupResult{Error: "Invalid captcha"})
	case errors.Is(err, service.ErrInvalidEmail):
		writeJSON(w, http.StatusBadRequest, domain.SignupResult{Error: "Invalid email"})
	default:
		logger.ErrorContext(r.Context(), "Join waitlist failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, domain.SignupResult{Error: "Database error"})
	}
}

type waveRequest struct {
	Limit    int    `json:"limit"`
	WaveName string `json:"wave_name"`
}

// SendWaveInvitations handles POST /api/v1/admin/waves
func (h *Handler) SendWaveInvitations(w http.ResponseWriter, r *http.Request) {
	var req waveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.waitlist.SendWaveInvitations(r.Context(), req.Limit, req.WaveName)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrEmailNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "email service is not configured")
	default:
		logger.ErrorContext(r.Context(), "Wave invitations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Database error")
	}
}
