// Package session carries the identity of the caller through a request.
package session

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
)

const localsKey = "session"

type Session struct {
	UserID      string      `json:"userId"`
	DisplayName string      `json:"name"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
}

func (s Session) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func Store(c *fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
}

// From returns the session set by the auth middleware.
func From(c *fiber.Ctx) (Session, error) {
	s, ok := c.Locals(localsKey).(Session)
	if !ok || s.UserID == "" {
		return Session{}, apperr.ErrUnauthorized
	}
	return s, nil
}
