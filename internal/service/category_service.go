package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

// CategoryService manages the ticket classification list. Reads are
// open to any authenticated principal; the HTTP layer gates mutations
// to admins.
type CategoryService struct {
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, tickets repository.TicketRepository) *CategoryService {
	return &CategoryService{categories: categories, tickets: tickets}
}

// ListCategories returns all categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return categories, nil
}

// CreateCategory adds a category with a unique name.
func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorutil.NewValidationError("category name is required", nil)
	}
	if err := s.ensureNameFree(ctx, name); err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, errorutil.MapError(err)
	}
	return category, nil
}

// UpdateCategory renames or re-describes a category; nil fields stay
// untouched.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, name, description *string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("category", map[string]any{"id": id})
		}
		return nil, errorutil.NewInternalError(err)
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, errorutil.NewValidationError("category name is required", nil)
		}
		if trimmed != category.Name {
			if err := s.ensureNameFree(ctx, trimmed); err != nil {
				return nil, err
			}
			category.Name = trimmed
		}
	}
	if description != nil {
		category.Description = strings.TrimSpace(*description)
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, errorutil.MapError(err)
	}
	return category, nil
}

// DeleteCategory removes a category no ticket references.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("category", map[string]any{"id": id})
		}
		return errorutil.NewInternalError(err)
	}

	count, err := s.tickets.CountByCategory(ctx, id)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if count > 0 {
		return errorutil.NewConflict("category has existing tickets", map[string]any{"ticket_count": count})
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return errorutil.MapError(err)
	}
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name string) error {
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return errorutil.NewConflict("category name already exists", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewInternalError(err)
	}
	return nil
}
