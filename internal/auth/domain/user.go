// Package domain holds Auth's entities: users, roles, permissions, and the
// refresh sessions backing token rotation.
package domain

import "time"

// User is a login identity. PasswordHash is never serialized to JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	RoleName     string    `json:"role_name,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
