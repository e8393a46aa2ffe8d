package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/roomstay/internal/domain"
)

// CategoryService handles room category management
type CategoryService struct {
	categories domain.CategoryRepository
	logger     *slog.Logger
}

// NewCategoryService creates a category service
func NewCategoryService(categories domain.CategoryRepository, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{categories: categories, logger: logger}
}

// Create adds a new category
func (s *CategoryService) Create(ctx context.Context, name string, priceCents int64) (*domain.Category, error) {
	if name == "" {
		return nil, domain.Validationf("name", "required")
	}
	if priceCents < 0 {
		return nil, domain.Validationf("priceCents", "cannot be negative")
	}

	category := &domain.Category{
		ID:         uuid.NewString(),
		Name:       name,
		PriceCents: priceCents,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("category_id", category.ID),
		slog.String("name", category.Name),
	)
	return category, nil
}

// List returns all categories
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// Get returns a single category
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}
