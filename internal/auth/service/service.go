// Package service implements Auth's use cases: login, refresh rotation,
// profile, change-password, and admin user/role management.
package service

import (
	"context"
	"time"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/auth/jwtutil"
	authredis "github.com/corebooks/core/internal/auth/redis"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/logging"
)

// Service wires Auth's repositories and token minter into the operations
// its HTTP layer exposes.
type Service struct {
	Users       domain.UserRepository
	Roles       domain.RoleRepository
	Permissions domain.PermissionRepository
	Sessions    domain.RefreshSessionRepository
	Cache       *authredis.SessionCache
	Minter      *jwtutil.Minter
	RefreshTTL  time.Duration
	Logger      logging.Logger
}

// Tokens is the access/refresh pair returned by Login and Refresh.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Profile is the caller identity other services re-verify against (spec
// §4.2); it is also what /api/v1/profile returns to the bearer itself.
type Profile struct {
	UserID      string
	Username    string
	Email       string
	Active      bool
	Role        string
	Permissions []string
}

func (s *Service) permissionKeys(ctx context.Context, roleID string) ([]string, error) {
	perms, err := s.Roles.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(perms))
	for _, p := range perms {
		keys = append(keys, p.Key())
	}

	return keys, nil
}

// issueTokens creates a new refresh session row first so its id can be
// baked into the refresh JWT's claims — Refresh then looks the session back
// up by that id to check it is still Active, which is what makes
// DeactivateAllForUser actually revoke outstanding refresh tokens instead
// of merely deactivating rows nothing ever reads again.
func (s *Service) issueTokens(ctx context.Context, u *domain.User, role *domain.Role) (*Tokens, error) {
	perms, err := s.permissionKeys(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	access, accessExp, err := s.Minter.MintAccess(u.ID, u.Username, role.Name, perms)
	if err != nil {
		return nil, err
	}

	session, err := s.Sessions.Create(ctx, &domain.RefreshSession{
		ID:        idgen.New(),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.Minter.MintRefresh(u.ID, session.ID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		_ = s.Cache.Set(ctx, session)
	}

	return &Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Login verifies credentials and issues a fresh access/refresh pair.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*Tokens, error) {
	u, err := s.Users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, apperr.UnauthorizedError{Code: "CB0002", Title: "Unauthorized", Message: "invalid username/email or password"}
	}

	if !jwtutil.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.UnauthorizedError{Code: "CB0002", Title: "Unauthorized", Message: "invalid username/email or password"}
	}

	if !u.Active {
		return nil, apperr.UnauthorizedError{Code: "CB0003", Title: "Unauthorized", Message: "user is inactive"}
	}

	role, err := s.Roles.FindByID(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, u, role)
}

// Refresh rotates a refresh token: the presented token is deactivated and a
// brand new access/refresh pair is issued, so a stolen-then-reused token is
// immediately detectable (the legitimate holder's next refresh will fail).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.Minter.Parse(refreshToken, jwtutil.KindRefresh)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, apperr.UnauthorizedError{Code: "CB0004", Title: "Unauthorized", Message: "invalid token"}
	}

	if !session.Active {
		return nil, apperr.UnauthorizedError{Code: "CB0007", Title: "Unauthorized", Message: "refresh session has been revoked"}
	}

	u, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.UnauthorizedError{Code: "CB0004", Title: "Unauthorized", Message: "invalid token"}
	}

	if !u.Active {
		return nil, apperr.UnauthorizedError{Code: "CB0003", Title: "Unauthorized", Message: "user is inactive"}
	}

	role, err := s.Roles.FindByID(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.Deactivate(ctx, session.ID); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx, session.ID)
	}

	return s.issueTokens(ctx, u, role)
}

// sessionByID checks the cache before falling back to the repository.
func (s *Service) sessionByID(ctx context.Context, id string) (*domain.RefreshSession, error) {
	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	return s.Sessions.FindByID(ctx, id)
}

// Profile resolves the caller behind accessToken into the identity other
// services re-verify against.
func (s *Service) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	claims, err := s.Minter.Parse(accessToken, jwtutil.KindAccess)
	if err != nil {
		return nil, err
	}

	u, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.UnauthorizedError{Code: "CB0004", Title: "Unauthorized", Message: "invalid token"}
	}

	role, err := s.Roles.FindByID(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	perms, err := s.permissionKeys(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Active:      u.Active,
		Role:        role.Name,
		Permissions: perms,
	}, nil
}

// ChangePassword updates a user's password and revokes every refresh
// session they hold, forcing re-login everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !jwtutil.CheckPassword(u.PasswordHash, currentPassword) {
		return apperr.UnauthorizedError{Code: "CB0002", Title: "Unauthorized", Message: "current password is incorrect"}
	}

	hash, err := jwtutil.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	return s.Sessions.DeactivateAllForUser(ctx, userID)
}

// Register creates a new user under the given role name, an admin-only
// operation.
func (s *Service) Register(ctx context.Context, username, email, password, roleName string) (*domain.User, error) {
	exists, err := s.Users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, apperr.EntityConflictError{Code: "CB0001", Title: "Conflict", Message: "username or email already taken"}
	}

	role, err := s.Roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	hash, err := jwtutil.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: username, Email: email, PasswordHash: hash, RoleID: role.ID}

	return s.Users.Create(ctx, u)
}

// ListUsers returns a page of users, each annotated with its role name.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	users, err := s.Users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	roleNames := map[string]string{}

	for _, u := range users {
		name, ok := roleNames[u.RoleID]
		if !ok {
			role, err := s.Roles.FindByID(ctx, u.RoleID)
			if err != nil {
				continue
			}

			name = role.Name
			roleNames[u.RoleID] = name
		}

		u.RoleName = name
	}

	return users, nil
}

// SetRole reassigns userID's role, an admin-only operation.
func (s *Service) SetRole(ctx context.Context, userID, roleName string) error {
	role, err := s.Roles.FindByName(ctx, roleName)
	if err != nil {
		return err
	}

	return s.Users.UpdateRole(ctx, userID, role.ID)
}

// BootstrapAdmin creates the first admin user if and only if no admin
// exists yet, so running it against an already-bootstrapped database is a
// no-op rather than an error.
func (s *Service) BootstrapAdmin(ctx context.Context, username, email, password string) error {
	count, err := s.Users.CountAdmins(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		s.Logger.Info("admin already bootstrapped, skipping")
		return nil
	}

	if _, err := s.Register(ctx, username, email, password, domain.RoleAdmin); err != nil {
		return err
	}

	s.Logger.Infof("bootstrapped admin user %q", username)

	return nil
}
