package releases

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
  "version": "0.3.1",
  "notes": "Alpha build",
  "pub_date": "2026-05-01T12:00:00Z",
  "platforms": {
    "darwin-aarch64": {"url": "https://cdn.example/Vesta_aarch64.app.tar.gz", "signature": "sig1"},
    "darwin-x86_64": {"url": "https://cdn.example/Vesta_x64.app.tar.gz", "signature": "sig2"},
    "windows-x86_64": {"url": "https://cdn.example/Vesta_x64-setup.exe", "signature": "sig3"},
    "linux-x86_64": {"url": "https://cdn.example/Vesta.app.tar.gz.AppImage", "signature": "sig4"}
  }
}`

func TestProxy_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleManifest))
	}))
	defer srv.Close()

	m, err := NewProxy(srv.URL, time.Second).Latest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.3.1", m.Version)
	assert.Equal(t, "2026-05-01T12:00:00Z", m.PubDate)
	assert.Equal(t, "https://cdn.example/Vesta_aarch64.dmg", m.Platforms["darwin-aarch64"].URL)
	assert.Equal(t, "https://cdn.example/Vesta_x64.dmg", m.Platforms["darwin-x86_64"].URL)
	assert.Equal(t, "sig1", m.Platforms["darwin-aarch64"].Signature)
	// only darwin keys are rewritten
	assert.Equal(t, "https://cdn.example/Vesta.app.tar.gz.AppImage", m.Platforms["linux-x86_64"].URL)
	assert.Equal(t, "https://cdn.example/Vesta_x64-setup.exe", m.Platforms["windows-x86_64"].URL)
}

func TestProxy_Latest_PassesThroughUnknownFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"0.4.0","notes":"","pub_date":"","rollout":50,
			"platforms":{"darwin-aarch64":{"url":"https://cdn.example/V.app.tar.gz","signature":"s","arch_hint":"m1"}}}`))
	}))
	defer srv.Close()

	m, err := NewProxy(srv.URL, time.Second).Latest(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"0.4.0","notes":"","pub_date":"","rollout":50,
		"platforms":{"darwin-aarch64":{"url":"https://cdn.example/V.dmg","signature":"s","arch_hint":"m1"}}}`, string(out))
}

func TestProxy_Latest_Errors(t *testing.T) {
	t.Run("UpstreamNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := NewProxy(srv.URL, time.Second).Latest(context.Background())
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		}))
		defer srv.Close()

		_, err := NewProxy(srv.URL, time.Second).Latest(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewProxy(url, time.Second).Latest(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrManifestNotFound)
	})
}
