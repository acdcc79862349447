// Package service holds the use-case layer: user CRUD with the role
// rules, login and token issuance, onboarding orchestration and the
// password-reset flow. Each service takes its collaborators as struct
// fields (constructor injection), runs validation, then authorization,
// then persistence, then side effects, and reports failures
// with the typed keys from the model package. Audit events go out only
// on success paths.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/utils"
)

// PasswordGenerator mints temporary passwords and reset tokens and
// checks password strength. utils.Generator is the production
// implementation.
type PasswordGenerator interface {
	GenerateTemporaryPassword() (string, error)
	GenerateResetToken() (raw, hash string, err error)
	ValidatePasswordStrength(password string) utils.StrengthResult
}

// EmailSender delivers the service's transactional mail.
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, to, name, tempPassword, loginURL string) error
	SendPasswordResetEmail(ctx context.Context, to, name, token, resetURL string) error
	SendNotificationEmail(ctx context.Context, to, subject, body string) error
}

// UserCache fronts the Redis user cache. Reads are best effort;
// destructive paths invalidate before touching the database and abort
// on failure.
type UserCache interface {
	Get(ctx context.Context, id string) (model.User, bool)
	Set(ctx context.Context, u model.User) error
	InvalidateUser(ctx context.Context, id string) error
}

// UserView is the projection returned to callers; it never exposes the
// credential hash.
type UserView struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	Name                   string    `json:"name"`
	Role                   string    `json:"role"`
	PasswordChangeRequired bool      `json:"password_change_required"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func viewOf(u model.User) UserView {
	return UserView{
		ID:                     u.ID,
		Email:                  u.Email.String(),
		Name:                   u.Name,
		Role:                   string(u.Role),
		PasswordChangeRequired: u.PasswordChangeRequired,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// publishAudit emits one audit event, best effort. Delivery failure is
// logged and never fails the operation being recorded.
func publishAudit(ctx context.Context, pub queue.Publisher, log *slog.Logger, ev queue.AuditEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("audit event not delivered",
			slog.String("action", ev.Action),
			slog.String("actor_id", ev.ActorID),
			slog.String("err", err.Error()))
	}
}
