package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

// emailPattern is deliberately loose: something before the @, something
// after it, and a dot in the domain part.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

const minPasswordLength = 6

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates an account. New accounts always start with the user
// role; staff roles are granted by an admin afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, string, time.Time, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateNewAccount(username, email, password); err != nil {
		return nil, "", time.Time{}, err
	}
	if err := ensureAccountAvailable(ctx, s.users, username, email); err != nil {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, errorutil.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, errorutil.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", time.Time{}, errorutil.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Login authenticates by username and password. Unknown usernames and
// wrong passwords produce the same error so probes learn nothing.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, errorutil.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errorutil.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", time.Time{}, errorutil.NewInternalError(err)
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware
// wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func validateNewAccount(username, email, password string) error {
	if username == "" {
		return errorutil.NewValidationError("username is required", nil)
	}
	if !emailPattern.MatchString(email) {
		return errorutil.NewValidationError("invalid email address", map[string]any{"email": email})
	}
	if len(password) < minPasswordLength {
		return errorutil.NewValidationError("password must be at least 6 characters", nil)
	}
	return nil
}

func ensureAccountAvailable(ctx context.Context, users repository.UserRepository, username, email string) error {
	if _, err := users.GetByUsername(ctx, username); err == nil {
		return errorutil.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewInternalError(err)
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return errorutil.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewInternalError(err)
	}
	return nil
}
