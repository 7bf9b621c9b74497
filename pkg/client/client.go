// Package client is a Go client for the Vesta waitlist API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Signup is the echo returned by a successful waitlist join.
type Signup struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	TotalSignups int64  `json:"total_signups,omitempty"`
}

// Release is the launcher update manifest.
type Release struct {
	Version   string           `json:"version"`
	Notes     string           `json:"notes"`
	PubDate   string           `json:"pub_date"`
	Platforms map[string]Asset `json:"platforms"`
}

// Asset is one platform download in a Release.
type Asset struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
}

type joinRequest struct {
	Email        string `json:"email"`
	CaptchaToken string `json:"captcha_token"`
	ReferredBy   string `json:"referred_by,omitempty"`
}

// Client is the waitlist API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *SignupCache
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithCache attaches a signup cache used by JoinWaitlistCached.
func (c *Client) WithCache(cache *SignupCache) *Client {
	c.cache = cache
	return c
}

// JoinWaitlist signs email up. referredBy may be empty.
func (c *Client) JoinWaitlist(ctx context.Context, email, captchaToken, referredBy string) (*Signup, error) {
	var s Signup
	req := joinRequest{Email: email, CaptchaToken: captchaToken, ReferredBy: referredBy}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/waitlist", req, &s); err != nil {
		return nil, fmt.Errorf("client.JoinWaitlist: %w", err)
	}
	return &s, nil
}

// JoinWaitlistCached returns the cached signup for email when there is a
// fresh one, and otherwise joins and caches the result.
func (c *Client) JoinWaitlistCached(ctx context.Context, email, captchaToken, referredBy string) (*Signup, error) {
	if c.cache == nil {
		return c.JoinWaitlist(ctx, email, captchaToken, referredBy)
	}

	entry, err := c.cache.Load(email)
	if err != nil {
		return nil, fmt.Errorf("client.JoinWaitlistCached: %w", err)
	}
	if entry != nil {
		return &Signup{Success: true, ReferralCode: entry.ReferralCode, TotalSignups: entry.TotalSignups}, nil
	}

	s, err := c.JoinWaitlist(ctx, email, captchaToken, referredBy)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Save(email, s); err != nil {
		return nil, fmt.Errorf("client.JoinWaitlistCached: %w", err)
	}
	return s, nil
}

// LatestRelease fetches the current launcher manifest.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	var rel Release
	if err := c.doRequest(ctx, http.MethodGet, "/api/releases/latest.json", nil, &rel); err != nil {
		return nil, fmt.Errorf("client.LatestRelease: %w", err)
	}
	return &rel, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
