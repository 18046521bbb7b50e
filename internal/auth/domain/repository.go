package domain

import "context"

// UserRepository persists User aggregates.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	UpdateRole(ctx context.Context, userID, roleID string) error
	CountAdmins(ctx context.Context) (int, error)
}

// RoleRepository persists roles and their permission grants.
type RoleRepository interface {
	Create(ctx context.Context, r *Role) (*Role, error)
	FindByID(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// PermissionRepository reads the fixed permission catalog.
type PermissionRepository interface {
	List(ctx context.Context) ([]Permission, error)
	FindByKey(ctx context.Context, resource, action string) (*Permission, error)
}

// RefreshSessionRepository persists refresh sessions.
type RefreshSessionRepository interface {
	Create(ctx context.Context, s *RefreshSession) (*RefreshSession, error)
	FindByID(ctx context.Context, id string) (*RefreshSession, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateAllForUser(ctx context.Context, userID string) error
}
