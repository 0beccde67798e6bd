package domain

import "time"

// PasswordReset is a one-time code allowing a password change without login.
type PasswordReset struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the reset can still be redeemed at now.
func (r *PasswordReset) Usable(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}
