// Package repository defines the persistence ports consumed by the
// service layer and their MySQL implementations. Services depend only
// on the interfaces here; the SQL adapters translate driver-level
// failures (no rows, duplicate key) into the typed errors from the
// model package so callers never see database/sql sentinels.
package repository

import (
	"context"
	"time"

	"github.com/iliyamo/user-management-service/internal/model"
)

// SearchQuery carries the filters and pagination for user search.
// Zero values mean "no filter"; Page/PageSize are clamped by the
// service before reaching the adapter.
type SearchQuery struct {
	Term          string
	Roles         []model.Role
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	PageSize      int
}

// UserRepository is the persistence contract for the User aggregate.
type UserRepository interface {
	Create(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email model.Email) (model.User, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id string) error
	EmailExists(ctx context.Context, email model.Email) (bool, error)
	Search(ctx context.Context, q SearchQuery) ([]model.User, int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// RefreshTokenRepository persists login sessions as hashed refresh tokens.
type RefreshTokenRepository interface {
	Store(ctx context.Context, t model.RefreshToken) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash, reason string) error
	RevokeAllForUser(ctx context.Context, userID, reason string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResetTokenRepository persists hashed password-reset tokens.
type ResetTokenRepository interface {
	Store(ctx context.Context, t model.PasswordResetToken) error
	GetByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
