package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/user-management-service/internal/model"
)

// ResetTokenRepo persists password-reset tokens (hash only).
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Store inserts a reset token row. The service deletes the user's
// prior token first, keeping the single-active-token invariant.
func (r *ResetTokenRepo) Store(ctx context.Context, t model.PasswordResetToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (token_hash,user_id,expires_at,created_at) VALUES (?,?,?,?)",
		t.TokenHash, t.UserID, t.ExpiresAt, t.CreatedAt)
	return err
}

// GetByHash fetches a token by its hash; absence maps to
// model.ErrResetTokenInvalid.
func (r *ResetTokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT token_hash,user_id,expires_at,created_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.PasswordResetToken{}, model.ErrResetTokenInvalid
	}
	return t, err
}

// DeleteByUserID removes every reset token of one user (new request or
// successful confirmation).
func (r *ResetTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired sweeps tokens past their validity window.
func (r *ResetTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at < NOW()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
