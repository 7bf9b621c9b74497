package http

import (
	"net/http"

	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/security"
)

const adminSubject = "admin"

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := security.CheckPassword(h.opts.AdminPasswordHash, req.Password); err != nil {
		logger.WarnContext(r.Context(), "Admin login rejected", "ip", h.ips.clientIP(r))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.GenerateAdminToken(adminSubject)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue admin token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
}
