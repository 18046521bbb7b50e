package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/auth/jwtutil"
	"github.com/corebooks/core/internal/platform/httpx"
)

const localsClaims = "auth.claims"

// requireAccessToken verifies the caller's own access token locally: Auth
// is the identity provider, so unlike every other service it never calls
// out to itself for this.
func requireAccessToken(minter *jwtutil.Minter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := jwtutil.BearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return httpx.Unauthorized(c, "CB_MISSING_TOKEN", "missing bearer token")
		}

		claims, err := minter.Parse(token, jwtutil.KindAccess)
		if err != nil {
			return httpx.WithError(c, err)
		}

		c.Locals(localsClaims, claims)

		return c.Next()
	}
}

func claimsFromFiber(c *fiber.Ctx) *jwtutil.Claims {
	claims, _ := c.Locals(localsClaims).(*jwtutil.Claims)
	return claims
}

func requirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsFromFiber(c)
		if claims == nil {
			return httpx.Unauthorized(c, "CB_MISSING_TOKEN", "missing bearer token")
		}

		for _, p := range claims.Permissions {
			if p == permission {
				return c.Next()
			}
		}

		return httpx.Forbidden(c, "CB0008", "missing required permission: "+permission)
	}
}
