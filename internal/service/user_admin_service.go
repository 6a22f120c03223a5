package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

// UserAdminService covers the admin's account management surface. The
// HTTP layer restricts every method here to admins.
type UserAdminService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	bcryptCost int
}

// NewUserAdminService builds the service.
func NewUserAdminService(cfg config.Config, users repository.UserRepository, tickets repository.TicketRepository) *UserAdminService {
	return &UserAdminService{
		users:      users,
		tickets:    tickets,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// ListUsers returns every account.
func (s *UserAdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return users, nil
}

// CreateUser provisions an account with an explicit role.
func (s *UserAdminService) CreateUser(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if !role.IsValid() {
		return nil, errorutil.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if err := validateNewAccount(username, email, password); err != nil {
		return nil, err
	}
	if err := ensureAccountAvailable(ctx, s.users, username, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// AdminUserUpdateInput carries partial account edits; nil fields stay
// untouched.
type AdminUserUpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UpdateUser applies partial edits to an account. New usernames and
// emails are re-checked for uniqueness against other accounts, and a
// provided password is re-hashed. If nothing changes there is no write.
func (s *UserAdminService) UpdateUser(ctx context.Context, userID string, input AdminUserUpdateInput) (*domain.User, error) {
	var username, email string
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, errorutil.NewValidationError("username is required", nil)
		}
	}
	if input.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*input.Email))
		if !emailPattern.MatchString(email) {
			return nil, errorutil.NewValidationError("invalid email address", map[string]any{"email": email})
		}
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		return nil, errorutil.NewValidationError("password must be at least 6 characters", nil)
	}
	if input.Role != nil && !input.Role.IsValid() {
		return nil, errorutil.NewValidationError("unknown role", map[string]any{"role": *input.Role})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, errorutil.NewInternalError(err)
	}

	var changed bool
	if input.Username != nil && username != user.Username {
		if _, err := s.users.GetByUsername(ctx, username); err == nil {
			return nil, errorutil.NewConflict("username already taken", map[string]any{"username": username})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewInternalError(err)
		}
		user.Username = username
		changed = true
	}
	if input.Email != nil && email != user.Email {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, errorutil.NewConflict("email already registered", map[string]any{"email": email})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewInternalError(err)
		}
		user.Email = email
		changed = true
	}
	if input.Role != nil && *input.Role != user.Role {
		user.Role = *input.Role
		changed = true
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, errorutil.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed = true
	}

	if !changed {
		return user, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	return user, nil
}

// ChangeRole sets a user's role. Setting the current role again is a
// no-op.
func (s *UserAdminService) ChangeRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	return s.UpdateUser(ctx, userID, AdminUserUpdateInput{Role: &role})
}

// DeleteUser removes an account. Admins cannot delete themselves, and
// accounts that created tickets are kept so the tickets stay owned.
func (s *UserAdminService) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if actor.ID == userID {
		return errorutil.NewForbidden("cannot delete your own account")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("user", map[string]any{"id": userID})
		}
		return errorutil.NewInternalError(err)
	}

	owned, err := s.tickets.CountByCreator(ctx, user.ID)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if owned > 0 {
		return errorutil.NewConflict("user has existing tickets", map[string]any{"ticket_count": owned})
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}
