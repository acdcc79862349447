package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/user-management-service/internal/model"
)

func TestEveryDomainErrorHasAMessage(t *testing.T) {
	errs := []error{
		model.ErrUserNotFound,
		model.ErrEmailExists,
		model.ErrInvalidEmail,
		model.ErrInvalidName,
		model.ErrInvalidRole,
		model.ErrInsufficientPermissions,
		model.ErrRoleElevation,
		model.ErrSelfDeletion,
		model.ErrForbidden,
		model.ErrInvalidCredentials,
		model.ErrResetTokenInvalid,
		model.ErrResetTokenExpired,
		model.ErrWeakPassword,
		model.ErrPasswordGeneration,
		model.ErrCacheInvalidation,
		model.ErrValidation,
	}
	for _, err := range errs {
		key := err.Error()
		assert.True(t, Exists(key), "missing catalog entry for %q", key)
		assert.NotEqual(t, key, Translate(key), "entry for %q must not echo the key", key)
	}
}

func TestTranslateUnknownKeyFallsBack(t *testing.T) {
	assert.Equal(t, "no.such.key", Translate("no.such.key"))
	assert.False(t, Exists("no.such.key"))
}
