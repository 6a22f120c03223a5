package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

// RequireRole allows the request through only when the principal holds
// one of the given roles.
func RequireRole(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		if _, ok := allowed[principal.Role]; !ok {
			return errorutil.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
