package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

const principalLocalKey = "auth_principal"

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	ID       string
	Username string
	Role     domain.Role
}

// IsStaff reports whether the caller holds an agent or admin role.
func (p *Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// AuthMiddleware authenticates requests with a bearer token and loads
// the account backing it. The role is always read from the database so
// a demotion takes effect on the next request, not at token expiry.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware builds the middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle validates the Authorization header and stores the principal in locals.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return errorutil.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errorutil.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return errorutil.NewUnauthorized("invalid or expired token")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.SubjectID)
	if err != nil {
		return errorutil.NewUnauthorized("account no longer exists")
	}

	c.Locals(principalLocalKey, &Principal{ID: user.ID, Username: user.Username, Role: user.Role})
	return c.Next()
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalLocalKey).(*Principal)
	return p, ok
}
