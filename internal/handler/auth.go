package handler

import (
	"context"  // provides context with cancellation for service calls
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for service calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/user-management-service/internal/middleware"
	"github.com/iliyamo/user-management-service/internal/service"
)

const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the authentication and
// password-reset endpoints.
type AuthHandler struct {
	Auth  *service.AuthService
	Reset *service.PasswordResetService
}

func NewAuthHandler(a *service.AuthService, r *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{Auth: a, Reset: r}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type initiateResetReq struct {
	Email string `json:"email"`
}
type confirmResetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.Auth.Login(ctx, req.Email, req.Password, service.Device{
		DeviceID:  req.DeviceID,
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Refresh rotates a refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken), service.Device{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Logout revokes all refresh tokens of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, uid); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// InitiateReset starts the password-reset flow. The response is the
// same whether or not the address is registered.
func (h *AuthHandler) InitiateReset(c echo.Context) error {
	var req initiateResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.Reset.Initiate(ctx, req.Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ValidateReset answers whether a reset token is currently usable.
func (h *AuthHandler) ValidateReset(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.Reset.Validate(ctx, token)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ConfirmReset consumes a reset token and sets the new password.
func (h *AuthHandler) ConfirmReset(c echo.Context) error {
	var req confirmResetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Reset.Confirm(ctx, strings.TrimSpace(req.Token), req.NewPassword); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
