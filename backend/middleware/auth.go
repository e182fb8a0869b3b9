package middleware

import (
	"learnhub/backend/config"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if !claims.IsAdmin() {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}
		return c.Next()
	}
}

// OwnerOrAdmin allows the request when the :param path segment is the
// acting user's id, or when the acting user is an admin.
func OwnerOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		id, err := utils.ParseUintParam(c, param)
		if err != nil {
			return utils.BadRequest(c, err.Error())
		}
		if id != claims.UserID && !claims.IsAdmin() {
			return utils.Forbidden(c, "You can only access your own progress")
		}
		return c.Next()
	}
}

// Claims returns the token claims stored by AuthMiddleware.
func Claims(c *fiber.Ctx) (utils.TokenClaims, bool) {
	claims, ok := c.Locals(claimsKey).(utils.TokenClaims)
	return claims, ok
}
