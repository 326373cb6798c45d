package services

import (
	"github.com/gofiber/fiber/v2"
)

// IsAdmin reports whether the gateway-authenticated caller carries the admin
// role. Identity is set by the user-context middleware.
func IsAdmin(c *fiber.Ctx) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == "admin" {
			return true
		}
	}
	return false
}
