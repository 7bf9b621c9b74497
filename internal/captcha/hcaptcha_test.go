package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHCaptcha_Verify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"accepted", http.StatusOK, `{"success": true}`, true},
		{"rejected", http.StatusOK, `{"success": false, "error-codes": ["invalid-input-response"]}`, false},
		{"missing success field", http.StatusOK, `{}`, false},
		{"malformed json", http.StatusOK, `not json`, false},
		{"server error", http.StatusInternalServerError, `{"success": true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v := NewHCaptcha(srv.URL, "secret", "", time.Second)
			assert.Equal(t, tt.want, v.Verify(context.Background(), "token"))
		})
	}
}

func TestHCaptcha_SendsFormFields(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		got = map[string]string{
			"response": r.PostForm.Get("response"),
			"secret":   r.PostForm.Get("secret"),
			"remoteip": r.PostForm.Get("remoteip"),
			"sitekey":  r.PostForm.Get("sitekey"),
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := NewHCaptcha(srv.URL, "s&cret=1", "site-key", time.Second)
	ctx := WithRemoteIP(context.Background(), "203.0.113.9")
	assert.True(t, v.Verify(ctx, "tok+en/="))

	assert.Equal(t, "tok+en/=", got["response"])
	assert.Equal(t, "s&cret=1", got["secret"])
	assert.Equal(t, "203.0.113.9", got["remoteip"])
	assert.Equal(t, "site-key", got["sitekey"])
}

func TestHCaptcha_EmptyTokenSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := NewHCaptcha(srv.URL, "secret", "", time.Second)
	assert.False(t, v.Verify(context.Background(), "  "))
	assert.False(t, called)
}

func TestHCaptcha_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	v := NewHCaptcha(srv.URL, "secret", "", 50*time.Millisecond)
	assert.False(t, v.Verify(context.Background(), "token"))
}

func TestHCaptcha_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewHCaptcha(url, "secret", "", time.Second)
	assert.False(t, v.Verify(context.Background(), "token"))
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Verify(context.Background(), "x"))
	assert.False(t, Static(true).Verify(context.Background(), ""))
	assert.False(t, Static(false).Verify(context.Background(), "x"))
}
