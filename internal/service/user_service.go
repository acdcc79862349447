package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserService implements the user CRUD and search use cases with the
// role rules layered on top of the static permission table.
type UserService struct {
	Users repository.UserRepository
	Cache UserCache // may be nil when no Redis is configured
	Audit queue.Publisher
	Log   *slog.Logger
}

// DeleteResult reports a completed deletion.
type DeleteResult struct {
	Success   bool      `json:"success"`
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// Create validates and persists a new user on behalf of the actor.
// MANAGER actors may only create USER-role accounts.
func (s *UserService) Create(ctx context.Context, actorID, rawEmail, rawName string, role model.Role) (UserView, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.create"), slog.String("actor_id", actorID))
	log.Debug("create attempt", slog.String("role", string(role)))

	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		log.Warn("actor lookup failed", slog.String("err", err.Error()))
		return UserView{}, err
	}
	if !actor.HasPermission(model.PermCreateUser) {
		log.Warn("create rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
		return UserView{}, model.ErrInsufficientPermissions
	}
	if actor.Role == model.RoleManager && role != model.RoleUser {
		log.Warn("create rejected", slog.String("reason", model.ErrRoleElevation.Error()))
		return UserView{}, model.ErrRoleElevation
	}
	if !role.Valid() {
		return UserView{}, model.ErrInvalidRole
	}

	name, err := model.ValidateName(rawName)
	if err != nil {
		log.Warn("create rejected", slog.String("reason", err.Error()))
		return UserView{}, err
	}
	email, err := model.NewEmail(rawEmail)
	if err != nil {
		log.Warn("create rejected", slog.String("reason", err.Error()))
		return UserView{}, err
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		log.Error("email uniqueness check failed", slog.String("err", err.Error()))
		return UserView{}, err
	}
	if exists {
		log.Warn("create rejected", slog.String("reason", model.ErrEmailExists.Error()))
		return UserView{}, model.ErrEmailExists
	}

	u := model.NewUser(email, name, role)
	if err := s.Users.Create(ctx, u); err != nil {
		log.Error("persist failed", slog.String("err", err.Error()))
		return UserView{}, err
	}

	log.Info("user created", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.user.created", actorID, u.ID, map[string]string{
		"email": u.Email.String(),
		"role":  string(u.Role),
	}))
	return viewOf(u), nil
}

// Get returns the target's projection. Self-view is always allowed;
// otherwise VIEW_USER is required, USER actors are always refused and
// MANAGER actors cannot view SUPER_ADMIN targets.
func (s *UserService) Get(ctx context.Context, actorID, targetID string) (UserView, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.get"),
		slog.String("actor_id", actorID), slog.String("target_id", targetID))

	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		return UserView{}, err
	}
	if actorID != targetID {
		if actor.Role == model.RoleUser || !actor.HasPermission(model.PermViewUser) {
			log.Warn("get rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
			return UserView{}, model.ErrInsufficientPermissions
		}
	}

	target := actor
	if actorID != targetID {
		target, err = s.lookupCached(ctx, targetID)
		if err != nil {
			return UserView{}, err
		}
		if actor.Role == model.RoleManager && target.Role == model.RoleSuperAdmin {
			log.Warn("get rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
			return UserView{}, model.ErrInsufficientPermissions
		}
	}

	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.user.accessed", actorID, target.ID, nil))
	return viewOf(target), nil
}

// UpdateInput carries the optional field changes; nil means "leave as is".
type UpdateInput struct {
	Email *string
	Name  *string
	Role  *model.Role
}

// Update applies the requested changes to the target aggregate. Self
// updates may change name and email but never role; other-updates
// require UPDATE_USER, and MANAGER actors can neither touch
// MANAGER/SUPER_ADMIN targets nor assign those roles.
func (s *UserService) Update(ctx context.Context, actorID, targetID string, in UpdateInput) (UserView, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.update"),
		slog.String("actor_id", actorID), slog.String("target_id", targetID))

	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		return UserView{}, err
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return UserView{}, err
	}

	self := actorID == targetID
	if self && in.Role != nil {
		// Nobody edits their own role, not even SUPER_ADMIN.
		log.Warn("update rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
		return UserView{}, model.ErrInsufficientPermissions
	}
	if !self {
		if actor.Role == model.RoleUser || !actor.HasPermission(model.PermUpdateUser) {
			log.Warn("update rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
			return UserView{}, model.ErrInsufficientPermissions
		}
		if actor.Role == model.RoleManager {
			if in.Role != nil && (*in.Role == model.RoleManager || *in.Role == model.RoleSuperAdmin) {
				log.Warn("update rejected", slog.String("reason", model.ErrRoleElevation.Error()))
				return UserView{}, model.ErrRoleElevation
			}
			if target.Role == model.RoleManager || target.Role == model.RoleSuperAdmin {
				log.Warn("update rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
				return UserView{}, model.ErrInsufficientPermissions
			}
		}
	}

	updated := target
	var changed []string

	if in.Name != nil {
		name, err := model.ValidateName(*in.Name)
		if err != nil {
			log.Warn("update rejected", slog.String("reason", err.Error()))
			return UserView{}, err
		}
		updated = updated.WithName(name)
		changed = append(changed, "name")
	}
	if in.Email != nil {
		email, err := model.NewEmail(*in.Email)
		if err != nil {
			log.Warn("update rejected", slog.String("reason", err.Error()))
			return UserView{}, err
		}
		if email != target.Email {
			exists, err := s.Users.EmailExists(ctx, email)
			if err != nil {
				return UserView{}, err
			}
			if exists {
				log.Warn("update rejected", slog.String("reason", model.ErrEmailExists.Error()))
				return UserView{}, model.ErrEmailExists
			}
			updated = updated.WithEmail(email)
			changed = append(changed, "email")
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return UserView{}, model.ErrInvalidRole
		}
		if *in.Role != target.Role {
			updated = updated.WithRole(*in.Role)
			changed = append(changed, "role")
		}
	}

	if len(changed) > 0 {
		if s.Cache != nil {
			// Same fail-closed rule as delete: never leave a stale
			// cached copy of a row that is about to change.
			if err := s.Cache.InvalidateUser(ctx, targetID); err != nil {
				log.Error("cache invalidation failed, aborting update", slog.String("err", err.Error()))
				return UserView{}, fmt.Errorf("%w: %v", model.ErrCacheInvalidation, err)
			}
		}
		if err := s.Users.Update(ctx, updated); err != nil {
			log.Error("persist failed", slog.String("err", err.Error()))
			return UserView{}, err
		}
	}

	log.Info("user updated", slog.String("fields", strings.Join(changed, ",")))
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.user.updated", actorID, targetID, map[string]string{
		"fields": strings.Join(changed, ","),
	}))
	return viewOf(updated), nil
}

// Delete removes the target. Self-deletion is refused for every role;
// MANAGER actors cannot delete MANAGER or SUPER_ADMIN targets. The
// cache entry is invalidated before the row goes away and a cache
// failure aborts the whole operation.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) (DeleteResult, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.delete"),
		slog.String("actor_id", actorID), slog.String("target_id", targetID))

	if actorID == targetID {
		log.Warn("delete rejected", slog.String("reason", model.ErrSelfDeletion.Error()))
		return DeleteResult{}, model.ErrSelfDeletion
	}

	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		return DeleteResult{}, err
	}
	if !actor.HasPermission(model.PermDeleteUser) {
		log.Warn("delete rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
		return DeleteResult{}, model.ErrInsufficientPermissions
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return DeleteResult{}, err
	}
	if actor.Role == model.RoleManager &&
		(target.Role == model.RoleManager || target.Role == model.RoleSuperAdmin) {
		log.Warn("delete rejected", slog.String("reason", model.ErrInsufficientPermissions.Error()))
		return DeleteResult{}, model.ErrInsufficientPermissions
	}

	if s.Cache != nil {
		if err := s.Cache.InvalidateUser(ctx, targetID); err != nil {
			// Fail closed: a delete that leaves a stale cache entry is
			// worse than a delete that has to be retried.
			log.Error("cache invalidation failed, aborting delete", slog.String("err", err.Error()))
			return DeleteResult{}, fmt.Errorf("%w: %v", model.ErrCacheInvalidation, err)
		}
	}

	if err := s.Users.Delete(ctx, targetID); err != nil {
		log.Error("persist failed", slog.String("err", err.Error()))
		return DeleteResult{}, err
	}

	now := time.Now().UTC()
	log.Info("user deleted")
	publishAudit(ctx, s.Audit, log, queue.NewAuditEvent("audit.user.deleted", actorID, targetID, map[string]string{
		"email": target.Email.String(),
		"role":  string(target.Role),
	}))
	return DeleteResult{Success: true, ID: targetID, DeletedAt: now}, nil
}

// Search lists users matching the query. SUPER_ADMIN only; pagination
// defaults to page 1 / 20 per page, page size clamped to [1,100].
func (s *UserService) Search(ctx context.Context, actorID string, q repository.SearchQuery) ([]UserView, int64, error) {
	log := orDefault(s.Log).With(slog.String("op", "user.search"), slog.String("actor_id", actorID))
	log.Debug("search attempt", slog.String("term", q.Term))

	actor, err := s.Users.GetByID(ctx, actorID)
	if err != nil {
		log.Warn("search failed", slog.String("err", err.Error()))
		return nil, 0, err
	}
	if actor.Role != model.RoleSuperAdmin {
		log.Warn("search rejected", slog.String("reason", model.ErrForbidden.Error()))
		return nil, 0, model.ErrForbidden
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	users, total, err := s.Users.Search(ctx, q)
	if err != nil {
		log.Error("search failed", slog.String("err", err.Error()))
		return nil, 0, err
	}

	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = viewOf(u)
	}
	log.Info("search completed", slog.Int("results", len(views)), slog.Int64("total", total))
	return views, total, nil
}

// lookupCached serves target reads through the cache when one is
// configured. Cache problems only cost a database round trip.
func (s *UserService) lookupCached(ctx context.Context, id string) (model.User, error) {
	if s.Cache != nil {
		if u, ok := s.Cache.Get(ctx, id); ok {
			return u, nil
		}
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, u)
	}
	return u, nil
}
