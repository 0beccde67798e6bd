package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/domain"
	apperrors "github.com/spec-kit/deliverynote-service/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !HasRole(principal, allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
