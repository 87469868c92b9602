package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"learnhub/backend/apperr"
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

// AuthMiddleware verifies the bearer token and stores the caller's session.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := utils.ExtractSessionFromToken(c, cfg)
		if err != nil {
			return utils.Fail(c, err)
		}
		session.Store(c, s)
		return c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session.From(c)
		if err != nil {
			return utils.Fail(c, err)
		}
		if !s.HasRole(roles...) {
			return utils.Fail(c, fmt.Errorf("role %s not allowed: %w", s.Role, apperr.ErrForbidden))
		}
		return c.Next()
	}
}
