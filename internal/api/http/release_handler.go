package http

import (
	"errors"
	"net/http"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/releases"
)

// LatestRelease handles GET /api/releases/latest.json
func (h *Handler) LatestRelease(w http.ResponseWriter, r *http.Request) {
	manifest, ok := h.fetchManifest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, manifest)
}

// Download redirects to the installer for the requested or detected platform.
// ?platform= and ?arch= take precedence over the User-Agent.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	info := releases.DetectPlatform(r.UserAgent())
	q := r.URL.Query()
	if v := q.Get("platform"); v != "" {
		p, ok := releases.ParsePlatform(v)
		if !ok {
			http.Error(w, "Unknown platform", http.StatusNotFound)
			return
		}
		info.Platform = p
	}
	if v := q.Get("arch"); v != "" {
		a, ok := releases.ParseArch(v)
		if !ok {
			http.Error(w, "Unknown architecture", http.StatusNotFound)
			return
		}
		info.Arch = a
	}
	if info.Platform == domain.PlatformUnknown {
		http.Error(w, "Unknown platform", http.StatusNotFound)
		return
	}

	manifest, ok := h.fetchManifest(w, r)
	if !ok {
		return
	}
	url, ok := releases.AssetURL(manifest, info.Platform, info.Arch)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) fetchManifest(w http.ResponseWriter, r *http.Request) (*domain.ReleaseManifest, bool) {
	manifest, err := h.releases.Latest(r.Context())
	if errors.Is(err, releases.ErrManifestNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Error fetching release manifest", "error", err)
		http.Error(w, "Error fetching release", http.StatusInternalServerError)
		return nil, false
	}
	return manifest, true
}
