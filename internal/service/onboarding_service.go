package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/utils"
)

// OnboardingService composes user creation with temporary-password
// provisioning and the welcome email. Failure semantics are uneven on
// purpose: creation and password provisioning are hard failures, the
// welcome email is not, because once the row exists and a password is
// set the account is usable and the mail can be resent.
type OnboardingService struct {
	Users     *UserService
	Repo      repository.UserRepository
	Passwords PasswordGenerator
	Email     EmailSender
	Audit     queue.Publisher
	Log       *slog.Logger

	LoginURL   string
	BcryptCost int
}

// OnboardingStatus reports which onboarding steps completed.
type OnboardingStatus struct {
	PasswordGenerated bool     `json:"password_generated"`
	EmailSent         bool     `json:"email_sent"`
	AuditEvents       []string `json:"audit_events"`
}

// OnboardingResult is the created user plus the step outcomes.
type OnboardingResult struct {
	User   UserView         `json:"user"`
	Status OnboardingStatus `json:"onboarding_status"`
}

// CreateWithOnboarding creates the user and, when sendWelcome is set,
// provisions a temporary password and attempts the welcome email.
// A password-generation failure aborts before any email is attempted:
// without a credential the account is unusable and mailing a dead
// login would only confuse the recipient.
func (s *OnboardingService) CreateWithOnboarding(ctx context.Context, actorID, email, name string, role model.Role, sendWelcome bool) (OnboardingResult, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.onboard"), slog.String("actor_id", actorID))

	view, err := s.Users.Create(ctx, actorID, email, name, role)
	if err != nil {
		return OnboardingResult{}, err
	}
	status := OnboardingStatus{AuditEvents: []string{"user_created"}}

	if !sendWelcome {
		return OnboardingResult{User: view, Status: status}, nil
	}

	tempPassword, err := s.Passwords.GenerateTemporaryPassword()
	if err != nil {
		log.Error("temporary password generation failed",
			slog.String("user_id", view.ID), slog.String("err", err.Error()))
		return OnboardingResult{}, fmt.Errorf("%w: %v", model.ErrPasswordGeneration, err)
	}
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := utils.HashPassword(tempPassword, cost)
	if err != nil {
		log.Error("temporary password hash failed",
			slog.String("user_id", view.ID), slog.String("err", err.Error()))
		return OnboardingResult{}, fmt.Errorf("%w: %v", model.ErrPasswordGeneration, err)
	}
	u, err := s.Repo.GetByID(ctx, view.ID)
	if err != nil {
		return OnboardingResult{}, err
	}
	u = u.WithPasswordHash(hash).RequirePasswordChange()
	if err := s.Repo.Update(ctx, u); err != nil {
		log.Error("temporary password persist failed",
			slog.String("user_id", view.ID), slog.String("err", err.Error()))
		return OnboardingResult{}, fmt.Errorf("%w: %v", model.ErrPasswordGeneration, err)
	}
	status.PasswordGenerated = true
	status.AuditEvents = append(status.AuditEvents, "password_generated")
	view = viewOf(u)

	if err := s.Email.SendWelcomeEmail(ctx, view.Email, view.Name, tempPassword, s.LoginURL); err != nil {
		// Soft failure: the account exists and works, so the overall
		// operation still succeeds.
		log.Warn("welcome email failed",
			slog.String("user_id", view.ID), slog.String("err", err.Error()))
		status.AuditEvents = append(status.AuditEvents, "email_failed")
	} else {
		status.EmailSent = true
		status.AuditEvents = append(status.AuditEvents, "email_sent")
	}

	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.user.onboarded", actorID, view.ID, map[string]string{
		"email_sent": fmt.Sprintf("%t", status.EmailSent),
	}))
	return OnboardingResult{User: view, Status: status}, nil
}
