package domain

import "time"

// SignupRecord is one row of the waitlist table
type SignupRecord struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	ReferralCode   string     `json:"referral_code"`
	ReferredBy     *string    `json:"referred_by,omitempty"` // another record's referral code, never validated
	MarketingOptIn bool       `json:"marketing_opt_in"`
	InvitedAt      *time.Time `json:"invited_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Invited reports whether a wave invitation has been sent to this record
func (r *SignupRecord) Invited() bool {
	return r.InvitedAt != nil
}

// SignupResult is what JoinWaitlist reports back to the site
type SignupResult struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	TotalSignups int64  `json:"total_signups,omitempty"`
	Created      bool   `json:"-"`
}
