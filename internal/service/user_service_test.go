package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/repository"
)

func TestCreateNormalizesEmailAndAudits(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")

	var created []model.User
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (model.User, error) {
			require.Equal(t, admin.ID, id)
			return admin, nil
		},
		emailExistsFunc: func(context.Context, model.Email) (bool, error) { return false, nil },
		createFunc: func(_ context.Context, u model.User) error {
			created = append(created, u)
			return nil
		},
	}
	audit := &recordPublisher{}
	svc := &UserService{Users: repo, Audit: audit}

	view, err := svc.Create(context.Background(), admin.ID, "  NewUser@Company.COM ", "  New User  ", model.RoleManager)
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "newuser@company.com", view.Email)
	assert.Equal(t, "New User", view.Name)
	assert.Equal(t, string(model.RoleManager), view.Role)
	assert.NotEmpty(t, view.ID)

	require.Len(t, audit.events, 1)
	assert.Equal(t, "audit.user.created", audit.events[0].Action)
	assert.Equal(t, admin.ID, audit.events[0].ActorID)
	assert.Equal(t, view.ID, audit.events[0].TargetID)
	assert.Equal(t, "newuser@company.com", audit.events[0].Context["email"])
}

func TestCreateManagerCannotElevate(t *testing.T) {
	manager := testUser("mgr-1", model.RoleManager, "mgr@example.com")

	for _, role := range []model.Role{model.RoleManager, model.RoleSuperAdmin} {
		t.Run(string(role), func(t *testing.T) {
			// createFunc stays nil: any persistence attempt fails the test.
			repo := &stubUserRepo{
				t: t,
				getByIDFunc: func(context.Context, string) (model.User, error) {
					return manager, nil
				},
			}
			audit := &recordPublisher{}
			svc := &UserService{Users: repo, Audit: audit}

			_, err := svc.Create(context.Background(), manager.ID, "new@example.com", "New", role)
			assert.ErrorIs(t, err, model.ErrRoleElevation)
			assert.Empty(t, audit.events)
		})
	}
}

func TestCreateUserActorForbidden(t *testing.T) {
	plain := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(context.Context, string) (model.User, error) { return plain, nil },
	}
	svc := &UserService{Users: repo}

	_, err := svc.Create(context.Background(), plain.ID, "new@example.com", "New", model.RoleUser)
	assert.ErrorIs(t, err, model.ErrInsufficientPermissions)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	repo := &stubUserRepo{
		t: t,
		getByIDFunc:     func(context.Context, string) (model.User, error) { return admin, nil },
		emailExistsFunc: func(context.Context, model.Email) (bool, error) { return true, nil },
	}
	svc := &UserService{Users: repo}

	_, err := svc.Create(context.Background(), admin.ID, "taken@example.com", "New", model.RoleUser)
	assert.ErrorIs(t, err, model.ErrEmailExists)
}

func TestGetSelfAlwaysAllowed(t *testing.T) {
	plain := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(context.Context, string) (model.User, error) { return plain, nil },
	}
	svc := &UserService{Users: repo, Audit: &recordPublisher{}}

	first, err := svc.Get(context.Background(), plain.ID, plain.ID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), plain.ID, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, plain.ID, first.ID)
}

func TestGetUserActorCannotViewOthers(t *testing.T) {
	plain := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (model.User, error) {
			require.Equal(t, plain.ID, id, "target must not be loaded once the actor is refused")
			return plain, nil
		},
	}
	svc := &UserService{Users: repo}

	_, err := svc.Get(context.Background(), plain.ID, "someone-else")
	assert.ErrorIs(t, err, model.ErrInsufficientPermissions)
}

func TestGetManagerCannotViewSuperAdmin(t *testing.T) {
	manager := testUser("mgr-1", model.RoleManager, "mgr@example.com")
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	repo := newMemUserRepo(manager, admin)
	svc := &UserService{Users: repo}

	_, err := svc.Get(context.Background(), manager.ID, admin.ID)
	assert.ErrorIs(t, err, model.ErrInsufficientPermissions)
}

func TestUpdateNameOnlyLeavesEmailAndRole(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	target := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := newMemUserRepo(admin, target)
	audit := &recordPublisher{}
	svc := &UserService{Users: repo, Audit: audit}

	name := "Renamed"
	view, err := svc.Update(context.Background(), admin.ID, target.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", view.Name)
	assert.Equal(t, target.Email.String(), view.Email)
	assert.Equal(t, string(target.Role), view.Role)
	assert.Equal(t, target.ID, view.ID)
	assert.Equal(t, target.CreatedAt, view.CreatedAt)

	stored, err := repo.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, target.Email, stored.Email)
	assert.Equal(t, target.Role, stored.Role)

	require.Len(t, audit.events, 1)
	assert.Equal(t, "audit.user.updated", audit.events[0].Action)
	assert.Equal(t, "name", audit.events[0].Context["fields"])
}

func TestUpdateOwnRoleForbiddenForEveryRole(t *testing.T) {
	for _, role := range []model.Role{model.RoleSuperAdmin, model.RoleManager, model.RoleUser} {
		t.Run(string(role), func(t *testing.T) {
			actor := testUser("actor-1", role, "actor@example.com")
			repo := newMemUserRepo(actor)
			svc := &UserService{Users: repo}

			newRole := model.RoleSuperAdmin
			_, err := svc.Update(context.Background(), actor.ID, actor.ID, UpdateInput{Role: &newRole})
			assert.ErrorIs(t, err, model.ErrInsufficientPermissions)
		})
	}
}

func TestUpdateManagerCannotAssignElevatedRole(t *testing.T) {
	manager := testUser("mgr-1", model.RoleManager, "mgr@example.com")
	target := testUser("usr-1", model.RoleUser, "usr@example.com")
	// updateFunc stays nil: the repository must never be written.
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (model.User, error) {
			if id == manager.ID {
				return manager, nil
			}
			return target, nil
		},
	}
	svc := &UserService{Users: repo}

	elevated := model.RoleSuperAdmin
	_, err := svc.Update(context.Background(), manager.ID, target.ID, UpdateInput{Role: &elevated})
	assert.ErrorIs(t, err, model.ErrRoleElevation)
}

func TestUpdateCacheFailureAborts(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	target := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := &stubUserRepo{
		t: t,
		getByIDFunc: func(_ context.Context, id string) (model.User, error) {
			if id == admin.ID {
				return admin, nil
			}
			return target, nil
		},
	}
	cache := &stubCache{invalidateErr: errors.New("redis down")}
	svc := &UserService{Users: repo, Cache: cache}

	name := "Renamed"
	_, err := svc.Update(context.Background(), admin.ID, target.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, model.ErrCacheInvalidation)
}

func TestDeleteSelfRefusedForEveryRole(t *testing.T) {
	for _, role := range []model.Role{model.RoleSuperAdmin, model.RoleManager, model.RoleUser} {
		t.Run(string(role), func(t *testing.T) {
			// No funcs injected: the refusal must come before any lookup.
			repo := &stubUserRepo{t: t}
			svc := &UserService{Users: repo}

			_, err := svc.Delete(context.Background(), "self-"+string(role), "self-"+string(role))
			assert.ErrorIs(t, err, model.ErrSelfDeletion)
		})
	}
}

func TestDeleteManagerCannotDeletePeers(t *testing.T) {
	manager := testUser("mgr-1", model.RoleManager, "mgr@example.com")
	peer := testUser("mgr-2", model.RoleManager, "mgr2@example.com")
	repo := newMemUserRepo(manager, peer)
	svc := &UserService{Users: repo}

	_, err := svc.Delete(context.Background(), manager.ID, peer.ID)
	assert.ErrorIs(t, err, model.ErrInsufficientPermissions)
}

func TestDeleteInvalidatesCacheBeforeRow(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	target := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := newMemUserRepo(admin, target)
	cache := &stubCache{}
	audit := &recordPublisher{}
	svc := &UserService{Users: repo, Cache: cache, Audit: audit}

	res, err := svc.Delete(context.Background(), admin.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, target.ID, res.ID)
	assert.Equal(t, []string{target.ID}, cache.invalidated)

	_, err = repo.GetByID(context.Background(), target.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.Equal(t, []string{"audit.user.deleted"}, audit.actions())
}

func TestDeleteCacheFailureAborts(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	target := testUser("usr-1", model.RoleUser, "usr@example.com")
	repo := newMemUserRepo(admin, target)
	cache := &stubCache{invalidateErr: errors.New("redis down")}
	svc := &UserService{Users: repo, Cache: cache}

	_, err := svc.Delete(context.Background(), admin.ID, target.ID)
	assert.ErrorIs(t, err, model.ErrCacheInvalidation)

	// Row survives the aborted delete.
	_, err = repo.GetByID(context.Background(), target.ID)
	assert.NoError(t, err)
}

func TestSearchSuperAdminOnly(t *testing.T) {
	for _, role := range []model.Role{model.RoleManager, model.RoleUser} {
		t.Run(string(role), func(t *testing.T) {
			actor := testUser("actor-1", role, "actor@example.com")
			repo := &stubUserRepo{
				t:           t,
				getByIDFunc: func(context.Context, string) (model.User, error) { return actor, nil },
			}
			svc := &UserService{Users: repo}

			_, _, err := svc.Search(context.Background(), actor.ID, repository.SearchQuery{})
			assert.ErrorIs(t, err, model.ErrForbidden)
		})
	}
}

func TestSearchClampsPagination(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	repo := &stubUserRepo{
		t:           t,
		getByIDFunc: func(context.Context, string) (model.User, error) { return admin, nil },
		searchFunc: func(_ context.Context, q repository.SearchQuery) ([]model.User, int64, error) {
			assert.Equal(t, 1, q.Page)
			assert.Equal(t, maxPageSize, q.PageSize)
			return []model.User{admin}, 1, nil
		},
	}
	svc := &UserService{Users: repo}

	views, total, err := svc.Search(context.Background(), admin.ID, repository.SearchQuery{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, admin.ID, views[0].ID)
}

func TestSearchDefaultsPageSize(t *testing.T) {
	admin := testUser("admin-1", model.RoleSuperAdmin, "admin@example.com")
	repo := &stubUserRepo{
		t:           t,
		getByIDFunc: func(context.Context, string) (model.User, error) { return admin, nil },
		searchFunc: func(_ context.Context, q repository.SearchQuery) ([]model.User, int64, error) {
			assert.Equal(t, defaultPageSize, q.PageSize)
			return nil, 0, nil
		},
	}
	svc := &UserService{Users: repo}

	_, _, err := svc.Search(context.Background(), admin.ID, repository.SearchQuery{})
	require.NoError(t, err)
}
