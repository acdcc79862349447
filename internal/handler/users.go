package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-management-service/internal/middleware"
	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/service"
)

// UserHandler bundles dependencies for the user CRUD, search and
// onboarding endpoints. The acting user always comes from the JWT.
type UserHandler struct {
	Users      *service.UserService
	Onboarding *service.OnboardingService
}

func NewUserHandler(u *service.UserService, o *service.OnboardingService) *UserHandler {
	return &UserHandler{Users: u, Onboarding: o}
}

// ----- DTOs -----

type createUserReq struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	SendWelcome bool   `json:"send_welcome"`
}
type updateUserReq struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Role  *string `json:"role"`
}
type listResp struct {
	Data []service.UserView `json:"data"`
	Meta listMeta           `json:"meta"`
}
type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Create provisions a new user; with send_welcome it runs the full
// onboarding flow (temporary password + welcome email).
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	actorID := middleware.UserID(c)

	if req.SendWelcome {
		result, err := h.Onboarding.CreateWithOnboarding(ctx, actorID, req.Email, req.Name, role, true)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusCreated, result)
	}

	view, err := h.Users.Create(ctx, actorID, req.Email, req.Name, role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// Get returns one user by id, subject to the role rules.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	view, err := h.Users.Get(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Me returns the authenticated user's own projection.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	uid := middleware.UserID(c)
	view, err := h.Users.Get(ctx, uid, uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Update applies partial changes to one user.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in := service.UpdateInput{Email: req.Email, Name: req.Name}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return fail(c, err)
		}
		in.Role = &role
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	view, err := h.Users.Update(ctx, middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Delete removes one user.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.Users.Delete(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Search lists users with filters and pagination (SUPER_ADMIN only).
func (h *UserHandler) Search(c echo.Context) error {
	q := repository.SearchQuery{
		Term:     strings.TrimSpace(c.QueryParam("q")),
		Page:     atoiDefault(c.QueryParam("page"), 1),
		PageSize: atoiDefault(c.QueryParam("page_size"), 0),
	}
	for _, raw := range strings.Split(c.QueryParam("roles"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			role, err := model.ParseRole(raw)
			if err != nil {
				return fail(c, err)
			}
			q.Roles = append(q.Roles, role)
		}
	}
	if t, ok := parseTime(c.QueryParam("created_after")); ok {
		q.CreatedAfter = &t
	}
	if t, ok := parseTime(c.QueryParam("created_before")); ok {
		q.CreatedBefore = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	views, total, err := h.Users.Search(ctx, middleware.UserID(c), q)
	if err != nil {
		return fail(c, err)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return c.JSON(http.StatusOK, listResp{
		Data: views,
		Meta: listMeta{Page: q.Page, PageSize: len(views), Total: total},
	})
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
