package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-management-service/internal/config"
	"github.com/iliyamo/user-management-service/internal/handler"
	"github.com/iliyamo/user-management-service/internal/middleware"
	"github.com/iliyamo/user-management-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the authentication and password-reset endpoints.
// The credential endpoints sit behind the Redis token bucket so
// password and token guessing is throttled per client; rdb may be nil,
// which disables the limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limited := middleware.NewTokenBucket(rlCfg, rdb)

	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limited)
	g.POST("/refresh", a.Refresh)
	g.POST("/password-reset", a.InitiateReset, limited)
	g.GET("/password-reset", a.ValidateReset)
	g.POST("/password-reset/confirm", a.ConfirmReset, limited)

	auth := e.Group("/v1/auth")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
}

// RegisterUsers wires the user CRUD, search and onboarding endpoints.
// Everything here requires a valid access token; per-operation rules
// (who may act on whom) are enforced in the service layer, so the
// route-level role check only keeps anonymous and unknown roles out.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/v1/users")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleSuperAdmin, model.RoleManager, model.RoleUser))

	g.GET("/me", u.Me)
	g.POST("", u.Create)
	g.GET("", u.Search)
	g.GET("/:id", u.Get)
	g.PATCH("/:id", u.Update)
	g.DELETE("/:id", u.Delete)
}
