package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultCacheMaxAge is how long a saved signup stays valid.
const DefaultCacheMaxAge = 30 * 24 * time.Hour

// CacheEntry is the last successful signup written to disk.
type CacheEntry struct {
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
	TotalSignups int64     `json:"total_signups"`
	SavedAt      time.Time `json:"saved_at"`
}

// SignupCache keeps the last signup echo in a JSON file so a repeat join
// from the same machine does not hit the API again.
type SignupCache struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewSignupCache returns a cache stored at path. maxAge <= 0 uses DefaultCacheMaxAge.
func NewSignupCache(path string, maxAge time.Duration) *SignupCache {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &SignupCache{path: path, maxAge: maxAge, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Load returns the cached entry for email, or nil when there is none, it
// belongs to another email, or it is older than the max age.
func (c *SignupCache) Load(email string) (*CacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read signup cache: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// a corrupt file is the same as no file
		return nil, nil
	}
	if entry.Email != normalizeEmail(email) || entry.ReferralCode == "" {
		return nil, nil
	}
	if c.now().Sub(entry.SavedAt) > c.maxAge {
		return nil, nil
	}
	return &entry, nil
}

// Save records a successful signup for email. Unsuccessful echoes are ignored.
func (c *SignupCache) Save(email string, s *Signup) error {
	if s == nil || !s.Success || s.ReferralCode == "" {
		return nil
	}
	entry := CacheEntry{
		Email:        normalizeEmail(email),
		ReferralCode: s.ReferralCode,
		TotalSignups: s.TotalSignups,
		SavedAt:      c.now().UTC(),
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signup cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create signup cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write signup cache: %w", err)
	}
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *SignupCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear signup cache: %w", err)
	}
	return nil
}
