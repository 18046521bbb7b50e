// Package http is Auth's Fiber handler/router layer.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/auth/service"
	"github.com/corebooks/core/internal/platform/httpx"
)

// Handlers bundles Auth's HTTP handlers over a Service.
type Handlers struct {
	Service *service.Service
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type registerUserRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func tokensResponse(t *service.Tokens) fiber.Map {
	return fiber.Map{
		"access_token":       t.AccessToken,
		"access_expires_at":  t.AccessExpiresAt,
		"refresh_token":      t.RefreshToken,
		"refresh_expires_at": t.RefreshExpiresAt,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(p any, c *fiber.Ctx) error {
	req := p.(*loginRequest)

	tokens, err := h.Service.Login(c.UserContext(), req.UsernameOrEmail, req.Password)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, tokensResponse(tokens))
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *Handlers) Refresh(p any, c *fiber.Ctx) error {
	req := p.(*refreshRequest)

	tokens, err := h.Service.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, tokensResponse(tokens))
}

func profileResponse(p *service.Profile) fiber.Map {
	return fiber.Map{
		"user_id":     p.UserID,
		"username":    p.Username,
		"email":       p.Email,
		"active":      p.Active,
		"role":        p.Role,
		"permissions": p.Permissions,
	}
}

// Profile handles GET /api/v1/profile, the endpoint every other service
// re-verifies bearer tokens against.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	token := claimsFromFiber(c)
	if token == nil {
		return httpx.Unauthorized(c, "CB_MISSING_TOKEN", "missing bearer token")
	}

	profile, err := h.Service.Profile(c.UserContext(), tokenFromRequest(c))
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, profileResponse(profile))
}

func tokenFromRequest(c *fiber.Ctx) string {
	const prefix = "Bearer "
	h := c.Get(fiber.HeaderAuthorization)

	if len(h) > len(prefix) {
		return h[len(prefix):]
	}

	return ""
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h *Handlers) ChangePassword(p any, c *fiber.Ctx) error {
	req := p.(*changePasswordRequest)
	claims := claimsFromFiber(c)

	if err := h.Service.ChangePassword(c.UserContext(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.NoContent(c)
}

// RegisterUser handles POST /api/v1/auth/register (admin only).
func (h *Handlers) RegisterUser(p any, c *fiber.Ctx) error {
	req := p.(*registerUserRequest)

	u, err := h.Service.Register(c.UserContext(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, u)
}

// ListUsers handles GET /api/v1/auth/users (admin only).
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)

	users, err := h.Service.ListUsers(c.UserContext(), page.Limit, page.Offset())
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, fiber.Map{"users": users, "page": page.Page, "limit": page.Limit})
}

// SetRole handles PUT /api/v1/auth/users/:id/role (admin only).
func (h *Handlers) SetRole(p any, c *fiber.Ctx) error {
	req := p.(*setRoleRequest)

	userID, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.Service.SetRole(c.UserContext(), userID, req.Role); err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.NoContent(c)
}
