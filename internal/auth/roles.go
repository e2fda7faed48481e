package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireStaff ensures an authenticated staff member.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

// RequireSuperAdmin ensures the caller has district-wide admin standing.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Staff.SuperAdmin {
			return fiber.NewError(http.StatusForbidden, "super-admin required")
		}
		return c.Next()
	}
}
