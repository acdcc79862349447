package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/utils"
)

// PasswordResetService runs the three-step reset flow. Initiate never
// reveals whether an address is registered: unknown emails and failed
// sends both come back as the same generic success.
type PasswordResetService struct {
	Users     repository.UserRepository
	Tokens    repository.ResetTokenRepository
	Passwords PasswordGenerator
	Email     EmailSender
	Audit     queue.Publisher
	Log       *slog.Logger

	TokenTTL   time.Duration
	ResetURL   string
	BcryptCost int
	Now        func() time.Time
}

// InitiateResult is deliberately information-free.
type InitiateResult struct {
	Success bool `json:"success"`
}

// ValidateResult reports token validity with a reason for the UI.
type ValidateResult struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return time.Hour
}

// Initiate mints and mails a reset token for the address, replacing
// any prior token. Whatever happens short of an infrastructure fault,
// the caller sees {success:true}.
func (s *PasswordResetService) Initiate(ctx context.Context, rawEmail string) (InitiateResult, error) {
	log := orDefault(s.Log).With(slog.String("op", "reset.initiate"))

	email, err := model.NewEmail(rawEmail)
	if err != nil {
		log.Debug("initiate for unusable address")
		return InitiateResult{Success: true}, nil
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			log.Debug("initiate for unknown address")
			return InitiateResult{Success: true}, nil
		}
		log.Error("user lookup failed", slog.String("err", err.Error()))
		return InitiateResult{}, err
	}

	// Single active token per user.
	if err := s.Tokens.DeleteByUserID(ctx, u.ID); err != nil {
		log.Error("prior token cleanup failed", slog.String("err", err.Error()))
		return InitiateResult{}, err
	}

	raw, hash, err := s.Passwords.GenerateResetToken()
	if err != nil {
		log.Error("reset token generation failed", slog.String("err", err.Error()))
		return InitiateResult{}, err
	}
	now := s.now()
	if err := s.Tokens.Store(ctx, model.PasswordResetToken{
		TokenHash: hash,
		UserID:    u.ID,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}); err != nil {
		log.Error("reset token persist failed", slog.String("err", err.Error()))
		return InitiateResult{}, err
	}

	if err := s.Email.SendPasswordResetEmail(ctx, u.Email.String(), u.Name, raw, s.ResetURL); err != nil {
		// Swallowed: a distinguishable failure here would let a caller
		// probe which addresses exist.
		log.Warn("reset email failed", slog.String("user_id", u.ID), slog.String("err", err.Error()))
	}
	return InitiateResult{Success: true}, nil
}

// Validate answers whether a raw token is currently usable. Unknown
// and expired tokens both yield IsValid=false with a reason string;
// tokens are single-use secrets, so no finer distinction is owed.
func (s *PasswordResetService) Validate(ctx context.Context, rawToken string) (ValidateResult, error) {
	t, err := s.Tokens.GetByHash(ctx, utils.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, model.ErrResetTokenInvalid) {
			return ValidateResult{IsValid: false, Reason: "token_not_found"}, nil
		}
		return ValidateResult{}, err
	}
	if t.Expired(s.now()) {
		return ValidateResult{IsValid: false, Reason: "token_expired"}, nil
	}
	return ValidateResult{IsValid: true}, nil
}

// Confirm consumes the token and sets the new password, checking the
// strength policy first and clearing the forced-change flag.
func (s *PasswordResetService) Confirm(ctx context.Context, rawToken, newPassword string) error {
	log := orDefault(s.Log).With(slog.String("op", "reset.confirm"))

	t, err := s.Tokens.GetByHash(ctx, utils.HashToken(rawToken))
	if err != nil {
		return err
	}
	if t.Expired(s.now()) {
		return model.ErrResetTokenExpired
	}

	if res := s.Passwords.ValidatePasswordStrength(newPassword); !res.IsValid {
		log.Warn("confirm rejected", slog.String("reason", model.ErrWeakPassword.Error()))
		return model.ErrWeakPassword
	}

	u, err := s.Users.GetByID(ctx, t.UserID)
	if err != nil {
		return err
	}
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return err
	}
	u = u.WithPasswordHash(hash).ClearPasswordChangeRequirement()
	if err := s.Users.Update(ctx, u); err != nil {
		log.Error("persist failed", slog.String("err", err.Error()))
		return err
	}
	// Single use: the token dies with the confirmation.
	if err := s.Tokens.DeleteByUserID(ctx, u.ID); err != nil {
		log.Warn("token cleanup failed", slog.String("user_id", u.ID), slog.String("err", err.Error()))
	}

	log.Info("password reset", slog.String("user_id", u.ID))
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.auth.password_reset", u.ID, "", nil))
	return nil
}
