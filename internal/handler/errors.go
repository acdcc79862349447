package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management-service/internal/i18n"
	"github.com/iliyamo/user-management-service/internal/model"
)

// fail maps a typed service error onto an HTTP response. The stable
// key travels in "error"; display text is resolved here and only here.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	key := "internal"

	switch {
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrInvalidEmail),
		errors.Is(err, model.ErrInvalidName),
		errors.Is(err, model.ErrInvalidRole),
		errors.Is(err, model.ErrWeakPassword),
		errors.Is(err, model.ErrResetTokenInvalid),
		errors.Is(err, model.ErrResetTokenExpired),
		errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrInsufficientPermissions),
		errors.Is(err, model.ErrRoleElevation),
		errors.Is(err, model.ErrSelfDeletion),
		errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
	}

	if status != http.StatusInternalServerError {
		key = rootKey(err)
	}
	return c.JSON(status, echo.Map{"error": key, "message": i18n.Translate(key)})
}

// rootKey walks the wrap chain down to the sentinel whose message is
// the machine key.
func rootKey(err error) string {
	for {
		if next := errors.Unwrap(err); next != nil {
			err = next
			continue
		}
		return err.Error()
	}
}
