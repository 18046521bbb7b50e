package domain

import "github.com/corebooks/core/internal/platform/permission"

// Resource names permission checks are scoped to.
const (
	ResourceAccount     = permission.ResourceAccount
	ResourceTransaction = permission.ResourceTransaction
	ResourceUser        = permission.ResourceUser
	ResourceFinancial   = permission.ResourceFinancial
	ResourceProduct     = permission.ResourceProduct
	ResourceStock       = permission.ResourceStock
	ResourceSale        = permission.ResourceSale
	ResourcePeriod      = permission.ResourcePeriod
)

// Action names a permission grants on a resource.
const (
	ActionCreate = permission.ActionCreate
	ActionRead   = permission.ActionRead
	ActionUpdate = permission.ActionUpdate
	ActionDelete = permission.ActionDelete
	ActionList   = permission.ActionList
	ActionAdmin  = permission.ActionAdmin
)

// Built-in role names. Additional roles can be created by an admin, but
// these always exist after bootstrap.
const (
	RoleAdmin   = permission.RoleAdmin
	RoleCashier = permission.RoleCashier
	RoleManager = permission.RoleManager
)

// Role is a named bundle of permissions.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permission is a single resource:action grant, e.g. "account:create".
type Permission struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Key returns the "resource:action" string form stored in JWT claims and
// checked by authmw.RequirePermission.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}
