package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. The
// plain token is never stored; only its SHA-256 hex digest. Revocation
// is one-way: a revoked row is never reactivated, only cleaned up.
//
// Fields:
//  ID            - primary key (uuid string).
//  UserID        - owner of the token.
//  TokenHash     - SHA-256 hex digest of the raw token.
//  DeviceID      - optional client-supplied device identifier.
//  UserAgent     - optional User-Agent captured at login.
//  IPAddress     - optional remote address captured at login.
//  ExpiresAt     - expiry, set at creation and immutable.
//  CreatedAt     - creation timestamp.
//  RevokedAt     - when the token was revoked (nil while active).
//  RevokedReason - e.g. "new_login", "logout", "rotated".
type RefreshToken struct {
	ID            string
	UserID        string
	TokenHash     string
	DeviceID      string
	UserAgent     string
	IPAddress     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RevokedAt     *time.Time
	RevokedReason string
}

// Active reports whether the token is neither revoked nor expired.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetToken models a row in `password_reset_tokens`. Only the
// hash of the secret is stored; at most one row per user is active
// (prior rows are deleted when a new reset is requested). Tokens are
// single use: consumed on successful confirmation.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token's validity window has passed.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
