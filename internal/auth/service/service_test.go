package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/auth/jwtutil"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/logging"
)

type fakeUsers struct {
	byID    map[string]*domain.User
	byLogin map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*domain.User{}, byLogin: map[string]*domain.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = idgen.New()
	}

	u.Active = true
	f.byID[u.ID] = u
	f.byLogin[u.Username] = u
	f.byLogin[u.Email] = u

	return u, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "User"}
}

func (f *fakeUsers) FindByUsernameOrEmail(_ context.Context, v string) (*domain.User, error) {
	if u, ok := f.byLogin[v]; ok {
		return u, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "User"}
}

func (f *fakeUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	_, a := f.byLogin[username]
	_, b := f.byLogin[email]

	return a || b, nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.byID {
		out = append(out, u)
	}

	return out, nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return apperr.EntityNotFoundError{EntityType: "User"}
	}

	u.PasswordHash = hash

	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, userID, roleID string) error {
	u, ok := f.byID[userID]
	if !ok {
		return apperr.EntityNotFoundError{EntityType: "User"}
	}

	u.RoleID = roleID

	return nil
}

func (f *fakeUsers) CountAdmins(_ context.Context) (int, error) {
	count := 0

	for _, u := range f.byID {
		if u.RoleID == "admin-role" {
			count++
		}
	}

	return count, nil
}

type fakeRoles struct {
	byID        map[string]*domain.Role
	byName      map[string]*domain.Role
	permissions map[string][]domain.Permission
}

func newFakeRoles() *fakeRoles {
	admin := &domain.Role{ID: "admin-role", Name: domain.RoleAdmin}
	cashier := &domain.Role{ID: "cashier-role", Name: domain.RoleCashier}

	return &fakeRoles{
		byID:   map[string]*domain.Role{admin.ID: admin, cashier.ID: cashier},
		byName: map[string]*domain.Role{admin.Name: admin, cashier.Name: cashier},
		permissions: map[string][]domain.Permission{
			admin.ID:   {{ID: "p1", Resource: domain.ResourceUser, Action: domain.ActionAdmin}},
			cashier.ID: {{ID: "p2", Resource: domain.ResourceSale, Action: domain.ActionCreate}},
		},
	}
}

func (f *fakeRoles) Create(_ context.Context, r *domain.Role) (*domain.Role, error) { return r, nil }

func (f *fakeRoles) FindByID(_ context.Context, id string) (*domain.Role, error) {
	if r, ok := f.byID[id]; ok {
		return r, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Role"}
}

func (f *fakeRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	if r, ok := f.byName[name]; ok {
		return r, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Role"}
}

func (f *fakeRoles) List(_ context.Context) ([]*domain.Role, error) { return nil, nil }

func (f *fakeRoles) PermissionsForRole(_ context.Context, roleID string) ([]domain.Permission, error) {
	return f.permissions[roleID], nil
}

func (f *fakeRoles) SetRolePermissions(_ context.Context, roleID string, permissionIDs []string) error {
	return nil
}

type fakeSessions struct {
	sessions map[string]*domain.RefreshSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*domain.RefreshSession{}}
}

func (f *fakeSessions) Create(_ context.Context, s *domain.RefreshSession) (*domain.RefreshSession, error) {
	if s.ID == "" {
		s.ID = idgen.New()
	}

	s.Active = true
	f.sessions[s.ID] = s

	return s, nil
}

func (f *fakeSessions) FindByID(_ context.Context, id string) (*domain.RefreshSession, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "RefreshSession"}
}

func (f *fakeSessions) Deactivate(_ context.Context, id string) error {
	if s, ok := f.sessions[id]; ok {
		s.Active = false
	}

	return nil
}

func (f *fakeSessions) DeactivateAllForUser(_ context.Context, userID string) error {
	for _, s := range f.sessions {
		if s.UserID == userID {
			s.Active = false
		}
	}

	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()

	users := newFakeUsers()
	roles := newFakeRoles()

	hash, err := jwtutil.HashPassword("correct-horse")
	require.NoError(t, err)

	_, err = users.Create(context.Background(), &domain.User{
		Username:     "cashier1",
		Email:        "cashier1@example.com",
		PasswordHash: hash,
		RoleID:       "cashier-role",
	})
	require.NoError(t, err)

	return &Service{
		Users:      users,
		Roles:      roles,
		Sessions:   newFakeSessions(),
		Minter:     jwtutil.New("test-secret", 15*time.Minute, 24*time.Hour),
		RefreshTTL: 24 * time.Hour,
		Logger:     logging.NewNoop(),
	}, users
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)

	testCases := []struct {
		name        string
		login       string
		password    string
		expectError bool
	}{
		{name: "correct credentials", login: "cashier1", password: "correct-horse", expectError: false},
		{name: "wrong password", login: "cashier1", password: "wrong", expectError: true},
		{name: "unknown user", login: "nobody", password: "correct-horse", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := svc.Login(context.Background(), tc.login, tc.password)

			if tc.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
		})
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	tokens, err := svc.Login(ctx, "cashier1", "correct-horse")
	require.NoError(t, err)

	u, err := users.FindByUsernameOrEmail(ctx, "cashier1")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "correct-horse", "new-password-123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.Error(t, err, "refresh token issued before the password change must be revoked")

	_, err = svc.Login(ctx, "cashier1", "new-password-123")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "cashier1", "correct-horse")
	assert.Error(t, err)
}
