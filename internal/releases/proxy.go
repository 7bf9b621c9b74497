// Package releases proxies the launcher's update manifest and resolves download links.
package releases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vesta-waitlist-backend/internal/domain"
	"vesta-waitlist-backend/internal/logger"
)

const DefaultManifestURL = "https://pub-f5abfd388a694b88b657a52e2e95b451.r2.dev/launcher/releases/latest.json"

// ErrManifestNotFound is returned when the manifest host answers with a non-2xx status
var ErrManifestNotFound = errors.New("release manifest not found")

type Proxy struct {
	manifestURL string
	httpClient  *http.Client
}

func NewProxy(manifestURL string, timeout time.Duration) *Proxy {
	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Proxy{
		manifestURL: manifestURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Latest fetches the current manifest with macOS assets pointing at the .dmg installer
func (p *Proxy) Latest(ctx context.Context) (*domain.ReleaseManifest, error) {
	logger.ExternalServiceCall("releases", "fetch manifest")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.manifestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to fetch release manifest: %w", err)
		logger.ExternalServiceResult("releases", "fetch manifest", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.ExternalServiceResult("releases", "fetch manifest", ErrManifestNotFound, "status", resp.StatusCode)
		return nil, ErrManifestNotFound
	}

	var manifest domain.ReleaseManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		err = fmt.Errorf("failed to decode release manifest: %w", err)
		logger.ExternalServiceResult("releases", "fetch manifest", err)
		return nil, err
	}

	RewriteDarwinAssets(&manifest)
	logger.ExternalServiceResult("releases", "fetch manifest", nil, "version", manifest.Version)
	return &manifest, nil
}

// RewriteDarwinAssets swaps the updater archive for the disk image on darwin-* keys
func RewriteDarwinAssets(m *domain.ReleaseManifest) {
	for key, asset := range m.Platforms {
		if strings.HasPrefix(key, "darwin-") {
			asset.URL = strings.Replace(asset.URL, ".app.tar.gz", ".dmg", 1)
			m.Platforms[key] = asset
		}
	}
}
