package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLen = 100

// User is the account aggregate as stored in the `users` table. Values
// are treated as immutable: every mutation goes through a With* method
// that returns a fresh copy with ID and CreatedAt preserved, so a User
// held by a caller never changes underneath it.
//
// Fields:
//  ID                     - opaque uuid string, assigned at creation.
//  Email                  - normalized unique address.
//  Name                   - display name, trimmed, 1-100 chars.
//  Role                   - one of SUPER_ADMIN, MANAGER, USER.
//  PasswordHash           - bcrypt hash; empty for accounts not yet credentialed.
//  PasswordChangeRequired - forces a password change on next login.
//  CreatedAt / UpdatedAt  - UTC timestamps.
type User struct {
	ID                     string
	Email                  Email
	Name                   string
	Role                   Role
	PasswordHash           string
	PasswordChangeRequired bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewUser builds a fresh aggregate with a generated ID.
func NewUser(email Email, name string, role Role) User {
	now := time.Now().UTC()
	return User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTemporaryUser builds a user who must change their password on
// first login, used by the onboarding flow.
func NewTemporaryUser(email Email, name string, role Role) User {
	u := NewUser(email, name, role)
	u.PasswordChangeRequired = true
	return u
}

// ValidateName trims the raw input and enforces the 1-100 char bound.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}

func (u User) touch() User {
	u.UpdatedAt = time.Now().UTC()
	return u
}

// WithName returns a copy with a new display name.
func (u User) WithName(name string) User {
	u.Name = name
	return u.touch()
}

// WithEmail returns a copy with a new address.
func (u User) WithEmail(email Email) User {
	u.Email = email
	return u.touch()
}

// WithRole returns a copy with a new role.
func (u User) WithRole(role Role) User {
	u.Role = role
	return u.touch()
}

// WithPasswordHash returns a copy with a new credential hash.
func (u User) WithPasswordHash(hash string) User {
	u.PasswordHash = hash
	return u.touch()
}

// RequirePasswordChange returns a copy flagged for a forced change.
func (u User) RequirePasswordChange() User {
	u.PasswordChangeRequired = true
	return u.touch()
}

// ClearPasswordChangeRequirement returns a copy with the flag cleared.
func (u User) ClearPasswordChangeRequirement() User {
	u.PasswordChangeRequired = false
	return u.touch()
}

// HasPermission consults the role table for this user's role.
func (u User) HasPermission(p Permission) bool {
	return u.Role.HasPermission(p)
}

// CanActOn is the advisory inter-user rule: SUPER_ADMIN may act on
// anyone, MANAGER on USER-role targets and on themself, everyone else
// only on themself. Services layer stricter per-operation rules on top.
func (u User) CanActOn(target User) bool {
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleManager:
		return target.Role == RoleUser || u.Email == target.Email
	default:
		return u.Email == target.Email
	}
}
