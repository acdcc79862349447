package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/user-management-service/internal/model"
)

// TokenRepo persists refresh tokens (hash only, never the raw value).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row with its device metadata.
func (r *TokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id,user_id,token_hash,device_id,user_agent,ip_address,expires_at,created_at) VALUES (?,?,?,?,?,?,?,?)",
		t.ID, t.UserID, t.TokenHash, nullable(t.DeviceID), nullable(t.UserAgent), nullable(t.IPAddress), t.ExpiresAt, t.CreatedAt)
	return err
}

// ValidateRefresh returns the owning user ID if a non-revoked,
// non-expired token with this hash exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return "", sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash marks a single token as revoked. Already-revoked rows
// keep their original revocation; revocation is never undone.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW(), revoked_reason=? WHERE token_hash=? AND revoked_at IS NULL",
		reason, tokenHash)
	return err
}

// RevokeAllForUser revokes every active token of one user in a single
// statement, relying on the database for atomicity.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW(), revoked_reason=? WHERE user_id=? AND revoked_at IS NULL",
		reason, userID)
	return err
}

// DeleteExpired removes rows past expiry or revoked, for periodic cleanup.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < NOW() OR revoked_at IS NOT NULL")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
