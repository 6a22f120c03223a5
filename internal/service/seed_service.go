package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/auth"
	"github.com/quickdesk/helpdesk-service/internal/config"
	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

// defaultCategories are created at boot when missing by name.
var defaultCategories = []domain.Category{
	{Name: "Technical Support", Description: "Technical issues and problems"},
	{Name: "General Inquiry", Description: "General questions and information"},
	{Name: "Bug Report", Description: "Software bugs and issues"},
	{Name: "Feature Request", Description: "New feature suggestions"},
	{Name: "Account Issues", Description: "Account-related problems"},
}

// SeedService provisions baseline data on startup: the default category
// list and a bootstrap admin when no admin exists yet.
type SeedService struct {
	users      repository.UserRepository
	categories repository.CategoryRepository
	cfg        config.SeedConfig
	bcryptCost int
	logger     *zap.Logger
}

// NewSeedService builds the service.
func NewSeedService(cfg config.Config, users repository.UserRepository, categories repository.CategoryRepository, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{
		users:      users,
		categories: categories,
		cfg:        cfg.Seed,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// Run applies all seeding steps. Safe to call on every boot.
func (s *SeedService) Run(ctx context.Context) error {
	if err := s.seedCategories(ctx); err != nil {
		return err
	}
	return s.seedAdmin(ctx)
}

func (s *SeedService) seedCategories(ctx context.Context) error {
	for _, seed := range defaultCategories {
		_, err := s.categories.GetByName(ctx, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		category := seed
		if err := s.categories.Create(ctx, &category); err != nil {
			return err
		}
		s.logger.Info("seeded category", zap.String("name", category.Name))
	}
	return nil
}

func (s *SeedService) seedAdmin(ctx context.Context) error {
	admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	hash, err := auth.HashPassword(s.cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     s.cfg.AdminUsername,
		Email:        s.cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("seeded bootstrap admin", zap.String("username", admin.Username))
	return nil
}
