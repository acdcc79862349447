package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/user-management-service/internal/model"
	"github.com/iliyamo/user-management-service/internal/queue"
	"github.com/iliyamo/user-management-service/internal/repository"
	"github.com/iliyamo/user-management-service/internal/utils"
)

// stubUserRepo fails the test on any call without an injected func,
// which doubles as a "was never called" assertion.
type stubUserRepo struct {
	t *testing.T

	createFunc      func(context.Context, model.User) error
	getByIDFunc     func(context.Context, string) (model.User, error)
	getByEmailFunc  func(context.Context, model.Email) (model.User, error)
	updateFunc      func(context.Context, model.User) error
	deleteFunc      func(context.Context, string) error
	emailExistsFunc func(context.Context, model.Email) (bool, error)
	searchFunc      func(context.Context, repository.SearchQuery) ([]model.User, int64, error)
}

func (s *stubUserRepo) Create(ctx context.Context, u model.User) error {
	if s.createFunc != nil {
		return s.createFunc(ctx, u)
	}
	s.t.Fatalf("Create called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetByID called unexpectedly")
	return model.User{}, errors.New("unexpected call")
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email model.Email) (model.User, error) {
	if s.getByEmailFunc != nil {
		return s.getByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetByEmail called unexpectedly")
	return model.User{}, errors.New("unexpected call")
}

func (s *stubUserRepo) Update(ctx context.Context, u model.User) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, u)
	}
	s.t.Fatalf("Update called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUserRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, id)
	}
	s.t.Fatalf("Delete called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubUserRepo) EmailExists(ctx context.Context, email model.Email) (bool, error) {
	if s.emailExistsFunc != nil {
		return s.emailExistsFunc(ctx, email)
	}
	s.t.Fatalf("EmailExists called unexpectedly")
	return false, errors.New("unexpected call")
}

func (s *stubUserRepo) Search(ctx context.Context, q repository.SearchQuery) ([]model.User, int64, error) {
	if s.searchFunc != nil {
		return s.searchFunc(ctx, q)
	}
	s.t.Fatalf("Search called unexpectedly")
	return nil, 0, errors.New("unexpected call")
}

func (s *stubUserRepo) CountByRole(context.Context, model.Role) (int64, error) { return 0, nil }
func (s *stubUserRepo) Count(context.Context) (int64, error)                   { return 0, nil }

// memUserRepo is a small in-memory implementation for flows that walk
// several repository calls in sequence (onboarding, password reset).
type memUserRepo struct {
	users map[string]model.User
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	m := &memUserRepo{users: make(map[string]model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserRepo) Create(_ context.Context, u model.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return model.ErrEmailExists
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email model.Email) (model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memUserRepo) Update(_ context.Context, u model.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) EmailExists(_ context.Context, email model.Email) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) Search(_ context.Context, _ repository.SearchQuery) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *memUserRepo) CountByRole(_ context.Context, role model.Role) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *memUserRepo) Count(context.Context) (int64, error) { return int64(len(m.users)), nil }

// stubTokenRepo records refresh-token activity.
type stubTokenRepo struct {
	stored        []model.RefreshToken
	storeErr      error
	revokeAllErr  error
	revokedUsers  []string
	revokedReason string
	validateFunc  func(string) (string, error)
}

func (s *stubTokenRepo) Store(_ context.Context, t model.RefreshToken) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.stored = append(s.stored, t)
	return nil
}

func (s *stubTokenRepo) ValidateRefresh(_ context.Context, hash string) (string, error) {
	if s.validateFunc != nil {
		return s.validateFunc(hash)
	}
	return "", errors.New("unexpected call")
}

func (s *stubTokenRepo) RevokeByHash(context.Context, string, string) error { return nil }

func (s *stubTokenRepo) RevokeAllForUser(_ context.Context, userID, reason string) error {
	if s.revokeAllErr != nil {
		return s.revokeAllErr
	}
	s.revokedUsers = append(s.revokedUsers, userID)
	s.revokedReason = reason
	return nil
}

func (s *stubTokenRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// memResetRepo is the in-memory reset-token store.
type memResetRepo struct {
	tokens      map[string]model.PasswordResetToken // by hash
	storeCalls  int
	deleteCalls int
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{tokens: make(map[string]model.PasswordResetToken)}
}

func (m *memResetRepo) Store(_ context.Context, t model.PasswordResetToken) error {
	m.storeCalls++
	m.tokens[t.TokenHash] = t
	return nil
}

func (m *memResetRepo) GetByHash(_ context.Context, hash string) (model.PasswordResetToken, error) {
	t, ok := m.tokens[hash]
	if !ok {
		return model.PasswordResetToken{}, model.ErrResetTokenInvalid
	}
	return t, nil
}

func (m *memResetRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.deleteCalls++
	for hash, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, hash)
		}
	}
	return nil
}

func (m *memResetRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

// recordPublisher captures audit events for assertions.
type recordPublisher struct {
	events []queue.AuditEvent
	err    error
}

func (p *recordPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordPublisher) actions() []string {
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

// stubCache records invalidations and can be made to fail.
type stubCache struct {
	invalidated   []string
	invalidateErr error
}

func (s *stubCache) Get(context.Context, string) (model.User, bool) { return model.User{}, false }
func (s *stubCache) Set(context.Context, model.User) error          { return nil }

func (s *stubCache) InvalidateUser(_ context.Context, id string) error {
	if s.invalidateErr != nil {
		return s.invalidateErr
	}
	s.invalidated = append(s.invalidated, id)
	return nil
}

// stubEmail records sends and can be made to fail.
type stubEmail struct {
	welcomeErr   error
	resetErr     error
	welcomeCalls int
	resetCalls   int
	lastTo       string
	lastToken    string
}

func (s *stubEmail) SendWelcomeEmail(_ context.Context, to, _, _, _ string) error {
	s.welcomeCalls++
	s.lastTo = to
	return s.welcomeErr
}

func (s *stubEmail) SendPasswordResetEmail(_ context.Context, to, _, token, _ string) error {
	s.resetCalls++
	s.lastTo = to
	s.lastToken = token
	return s.resetErr
}

func (s *stubEmail) SendNotificationEmail(context.Context, string, string, string) error {
	return nil
}

// stubPasswords fixes the generated secrets; the strength policy stays
// the real one.
type stubPasswords struct {
	temp     string
	tempErr  error
	rawToken string
	genErr   error
}

func (s *stubPasswords) GenerateTemporaryPassword() (string, error) {
	if s.tempErr != nil {
		return "", s.tempErr
	}
	return s.temp, nil
}

func (s *stubPasswords) GenerateResetToken() (string, string, error) {
	if s.genErr != nil {
		return "", "", s.genErr
	}
	return s.rawToken, utils.HashToken(s.rawToken), nil
}

func (s *stubPasswords) ValidatePasswordStrength(password string) utils.StrengthResult {
	return utils.Generator{}.ValidatePasswordStrength(password)
}

// testUser builds a fixture aggregate without going through NewUser so
// IDs stay deterministic.
func testUser(id string, role model.Role, email string) model.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return model.User{
		ID:        id,
		Email:     model.Email(email),
		Name:      "Test " + id,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
