package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/utils"
)

// AuthService authenticates credentials and manages the token pair
// lifecycle: issue at login, rotate on refresh, revoke on logout.
type AuthService struct {
	Users  repository.UserRepository
	Tokens repository.RefreshTokenRepository
	Audit  queue.Publisher
	Log    *slog.Logger

	AccessSecret   string
	AccessTTLMin   int
	RefreshTTLDays int
}

// Device carries the optional client metadata stored with a refresh token.
type Device struct {
	DeviceID  string
	UserAgent string
	IPAddress string
}

// LoginResult is the issued token pair plus the user projection.
type LoginResult struct {
	User           UserView  `json:"user"`
	AccessToken    string    `json:"access_token"`
	AccessExpires  time.Time `json:"access_expires"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshExpires time.Time `json:"refresh_expires"`
}

// Login verifies the credentials and issues a fresh token pair. An
// unknown email and a wrong password produce the identical
// auth.invalid_credentials error, and the bcrypt comparison runs
// against a placeholder hash for unknown or uncredentialed accounts so
// the two cases are not distinguishable by timing either. Prior
// refresh tokens are revoked best effort; a revocation failure is
// logged and does not abort the login.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string, dev Device) (LoginResult, error) {
	log := orDefault(s.Log).With(slog.String("op", "auth.login"))

	email, err := model.NewEmail(rawEmail)
	if err != nil {
		// A malformed address cannot belong to an account; answer
		// exactly as for an unknown one.
		utils.VerifyPassword(utils.PlaceholderHash, password)
		return LoginResult{}, model.ErrInvalidCredentials
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			utils.VerifyPassword(utils.PlaceholderHash, password)
			return LoginResult{}, model.ErrInvalidCredentials
		}
		log.Error("user lookup failed", slog.String("err", err.Error()))
		return LoginResult{}, err
	}

	hash := u.PasswordHash
	credentialed := hash != ""
	if !credentialed {
		hash = utils.PlaceholderHash
	}
	if !utils.VerifyPassword(hash, password) || !credentialed {
		// Deliberately not logged with identifying detail.
		return LoginResult{}, model.ErrInvalidCredentials
	}

	if err := s.Tokens.RevokeAllForUser(ctx, u.ID, "new_login"); err != nil {
		log.Warn("prior token revocation failed", slog.String("user_id", u.ID), slog.String("err", err.Error()))
	}

	result, err := s.issuePair(ctx, u, dev)
	if err != nil {
		log.Error("token issuance failed", slog.String("user_id", u.ID), slog.String("err", err.Error()))
		return LoginResult{}, err
	}

	log.Info("login succeeded", slog.String("user_id", u.ID))
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.auth.login", u.ID, "", map[string]string{
		"device_id": dev.DeviceID,
	}))
	return result, nil
}

// Refresh rotates a refresh token: the presented token is revoked and
// a new pair is issued. Invalid, revoked and expired tokens are all
// answered with auth.invalid_credentials.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, dev Device) (LoginResult, error) {
	log := orDefault(s.Log).With(slog.String("op", "auth.refresh"))

	hash := utils.HashToken(rawToken)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginResult{}, model.ErrInvalidCredentials
		}
		log.Error("refresh validation failed", slog.String("err", err.Error()))
		return LoginResult{}, err
	}
	if err := s.Tokens.RevokeByHash(ctx, hash, "rotated"); err != nil {
		log.Warn("rotated token revocation failed", slog.String("err", err.Error()))
	}

	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}
	result, err := s.issuePair(ctx, u, dev)
	if err != nil {
		log.Error("token issuance failed", slog.String("user_id", u.ID), slog.String("err", err.Error()))
		return LoginResult{}, err
	}
	return result, nil
}

// Logout revokes every refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	log := orDefault(s.Log).With(slog.String("op", "auth.logout"), slog.String("user_id", userID))
	if err := s.Tokens.RevokeAllForUser(ctx, userID, "logout"); err != nil {
		log.Error("revocation failed", slog.String("err", err.Error()))
		return err
	}
	log.Info("logged out")
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.auth.logout", userID, "", nil))
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, u model.User, dev Device) (LoginResult, error) {
	access, err := utils.NewAccessToken(s.AccessSecret, u.ID, u.Email.String(), string(u.Role), s.AccessTTLMin)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := utils.NewRefreshToken(s.RefreshTTLDays)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Tokens.Store(ctx, model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: utils.HashToken(refresh.Raw),
		DeviceID:  dev.DeviceID,
		UserAgent: dev.UserAgent,
		IPAddress: dev.IPAddress,
		ExpiresAt: refresh.Exp,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		User:           viewOf(u),
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   refresh.Raw, // raw back to the client, hash in storage
		RefreshExpires: refresh.Exp,
	}, nil
}
