// Package model defines the user-management domain: entities, the
// role/permission table and the typed error set shared by all layers.
//
// Every error carries a stable machine-readable key as its message
// (e.g. "user.not_found"). Services log and return these keys; the
// HTTP layer resolves them to display text via the i18n catalog, so
// tests assert on keys rather than localized strings.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound            = errors.New("user.not_found")
	ErrEmailExists             = errors.New("user.email_exists")
	ErrInvalidEmail            = errors.New("user.invalid_email")
	ErrInvalidName             = errors.New("user.invalid_name")
	ErrInvalidRole             = errors.New("user.invalid_role")
	ErrInsufficientPermissions = errors.New("auth.insufficient_permissions")
	ErrRoleElevation           = errors.New("auth.role_elevation")
	ErrSelfDeletion            = errors.New("auth.self_deletion")
	ErrForbidden               = errors.New("auth.forbidden")
	ErrInvalidCredentials      = errors.New("auth.invalid_credentials")
	ErrResetTokenInvalid       = errors.New("reset.token_invalid")
	ErrResetTokenExpired       = errors.New("reset.token_expired")
	ErrWeakPassword            = errors.New("reset.weak_password")
	ErrPasswordGeneration      = errors.New("onboarding.password_generation")
	ErrCacheInvalidation       = errors.New("cache.invalidation")
	ErrValidation              = errors.New("validation")
)

// ValidationError reports per-field input problems. It unwraps to
// ErrValidation so callers can match the whole class with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
